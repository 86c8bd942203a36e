package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTierMatcher(t *testing.T) *TierMatcher {
	t.Helper()
	m, err := NewTierMatcher()
	require.NoError(t, err)
	return m
}

func TestTierMatcher_Categories(t *testing.T) {
	m := newTierMatcher(t)

	tests := []struct {
		nodeType string
		want     Category
	}{
		{"function_declaration", DefinitionCallable},
		{"method_definition", DefinitionCallable},
		{"class_definition", DefinitionType},
		{"struct_type", DefinitionType},
		{"const_spec", DefinitionData},
		{"test_case", DefinitionTest},
		{"import_statement", BoundaryModule},
		{"try_statement", BoundaryError},
		{"with_statement", BoundaryResource},
		{"line_comment", DocumentationStructured},
		{"if_statement", FlowBranching},
		{"expression_switch_statement", FlowBranching},
		{"list_comprehension", FlowIteration},
		{"for_statement", FlowIteration},
		{"return_statement", FlowControl},
		{"go_statement", FlowAsync},
		{"call_expression", OperationInvocation},
		{"member_expression", OperationData},
		{"short_var_declaration", OperationData},
		{"binary_expression", OperationOperator},
		{"arrow_function", ExpressionAnonymous},
		{"type_identifier", SyntaxIdentifier},
		{"string_literal", SyntaxLiteral},
		{"decorator", SyntaxAnnotation},
		{"argument_list", SyntaxPunctuation},
		{"Function_Declaration", DefinitionCallable},
	}
	for _, tt := range tests {
		t.Run(tt.nodeType, func(t *testing.T) {
			got, ok := m.match(tt.nodeType)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.category)
			assert.InDelta(t, tierConfidence(tt.want.Rank()), got.confidence, 1e-9)
		})
	}
}

func TestTierMatcher_ExactTokens(t *testing.T) {
	m := newTierMatcher(t)

	for _, op := range []string{"+", "==", ":=", "and", "NOT IN", "=>"} {
		got, ok := m.match(op)
		require.True(t, ok, op)
		assert.Equal(t, OperationOperator, got.category, op)
		assert.InDelta(t, 0.95, got.confidence, 1e-9)
	}
	for _, p := range []string{"(", "}", ";", "::", `"""`, "<!--"} {
		got, ok := m.match(p)
		require.True(t, ok, p)
		assert.Equal(t, SyntaxPunctuation, got.category, p)
		assert.InDelta(t, 0.90, got.confidence, 1e-9)
	}
}

func TestTierMatcher_LeavesBareIdentifiers(t *testing.T) {
	m := newTierMatcher(t)
	for _, nt := range []string{"identifier", "name", "id", "zzqq", "expression_statement", ""} {
		assert.False(t, m.Matches(nt), nt)
	}
}

func TestTierConfidence(t *testing.T) {
	assert.InDelta(t, 0.5, tierConfidence(RankPrimaryDefinitions), 1e-9)
	assert.InDelta(t, 0.7, tierConfidence(RankControlFlowLogic), 1e-9)
	assert.InDelta(t, 0.9, tierConfidence(RankSyntaxReferences), 1e-9)
	assert.InDelta(t, 0.9, tierConfidence(Rank(9)), 1e-9)
}

func TestTierMatcher_MatchAll(t *testing.T) {
	m := newTierMatcher(t)
	var got []Category
	for _, tm := range m.matchAll("import_call_list") {
		got = append(got, tm.category)
	}
	assert.Equal(t, []Category{BoundaryModule, OperationInvocation, SyntaxPunctuation}, got)
}

func TestApplyBoost(t *testing.T) {
	tests := []struct {
		name     string
		nodeType string
		language string
		category Category
		base     float64
		want     float64
		boosted  bool
	}{
		{"keyword and category agree", "def_block", "python", DefinitionCallable, 0.5, 0.65, true},
		{"capped", "type_spec", "go", DefinitionType, 0.9, 0.95, true},
		{"never lowers", "interface_comment", "go", DocumentationStructured, 0.99, 0.99, true},
		{"category disagrees", "class_body", "python", SyntaxPunctuation, 0.9, 0.9, false},
		{"dialect uses base table", "function_thing", "jsx", DefinitionCallable, 0.5, 0.65, true},
		{"unknown language", "function_thing", "cobol", DefinitionCallable, 0.5, 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, boosted := applyBoost(tt.nodeType, tt.language, tt.category, tt.base)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.boosted, boosted)
		})
	}
}

func TestContextHints(t *testing.T) {
	assert.Nil(t, contextHints(""))
	assert.Equal(t, []string{"control_flow", "comparison"}, contextHints("IF x > y").names())
	assert.Equal(t, []string{"error_handling"}, contextHints("raise ValueError").names())
	assert.Equal(t, []string{"assignment", "arithmetic"}, contextHints("total = a + b").names())
}

func TestClassifyConstruct(t *testing.T) {
	tests := []struct {
		nodeType string
		context  string
		want     Category
		conf     float64
		ok       bool
	}{
		{"expression_statement", "", FlowControl, 0.40, true},
		{"expression_statement", "if ready", FlowBranching, 0.50, true},
		{"expression_statement", "try again", BoundaryError, 0.50, true},
		{"expression_statement", "x = 1", OperationData, 0.50, true},
		{"binary_expr", "a + b", OperationOperator, 0.50, true},
		{"weird_expr", "x = y", OperationData, 0.50, true},
		{"weird_expr", "func", ExpressionAnonymous, 0.50, true},
		{"identifier", "", SyntaxIdentifier, 0.85, true},
		{"Name", "x = 1", SyntaxIdentifier, 0.85, true},
		{"zzqq", "if", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.nodeType+"/"+tt.context, func(t *testing.T) {
			got, conf, _, ok := classifyConstruct(tt.nodeType, contextHints(tt.context))
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.InDelta(t, tt.conf, conf, 1e-9)
		})
	}
}
