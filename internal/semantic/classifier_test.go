package semantic

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newClassifier(t *testing.T, opts ...Option) *Classifier {
	t.Helper()
	c, err := NewClassifier(NewDefaultRegistry(), opts...)
	require.NoError(t, err)
	return c
}

func TestClassifier_Classify(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name     string
		req      Request
		category Category
		conf     float64
		phase    Phase
	}{
		{"override", Request{NodeType: "module", Language: "python"}, BoundaryModule, 1.0, PhaseOverride},
		{"override language case", Request{NodeType: "function_definition", Language: "Python"}, DefinitionCallable, 1.0, PhaseOverride},
		{"bare identifier", Request{NodeType: "identifier", Language: "unknown"}, SyntaxIdentifier, 0.85, PhasePatternMatch},
		{"grammar", Request{NodeType: "if_statement", Language: "go"}, FlowBranching, 0.90, PhaseGrammar},
		{"grammar comment", Request{NodeType: "comment", Language: "python"}, DocumentationStructured, 0.99, PhaseGrammar},
		{"grammar boosted", Request{NodeType: "type_spec", Language: "go"}, DefinitionType, 0.95, PhaseGrammar},
		{"tier", Request{NodeType: "for_statement", Language: "unknown"}, FlowIteration, 0.70, PhaseTierMatch},
		{"tier boosted", Request{NodeType: "class_declaration", Language: "python"}, DefinitionType, 0.65, PhaseTierMatch},
		{"operator", Request{NodeType: "+", Language: "unknown"}, OperationOperator, 0.95, PhaseTierMatch},
		{"punctuation", Request{NodeType: "{"}, SyntaxPunctuation, 0.90, PhaseTierMatch},
		{"statement with context", Request{NodeType: "expression_statement", Language: "unknown", Context: "if x > 0"}, FlowBranching, 0.50, PhasePatternMatch},
		{"statement without context", Request{NodeType: "expression_statement", Language: "unknown"}, FlowControl, 0.40, PhasePatternMatch},
		{"fallback word", Request{NodeType: "zzqq", Language: "unknown"}, SyntaxIdentifier, 0.30, PhaseFallback},
		{"fallback symbol", Request{NodeType: "???", Language: "unknown"}, SyntaxPunctuation, 0.30, PhaseFallback},
		{"jsx mirror", Request{NodeType: "jsx_element", Language: "jsx"}, OperationInvocation, 1.0, PhaseOverride},
		{"tsx mirror", Request{NodeType: "interface_declaration", Language: "tsx"}, DefinitionType, 1.0, PhaseOverride},
		{"tsx grammar", Request{NodeType: "call_expression", Language: "tsx"}, OperationInvocation, 0.90, PhaseGrammar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.req)
			assert.Equal(t, tt.category, got.Category)
			assert.InDelta(t, tt.conf, got.Confidence, 1e-9)
			assert.Equal(t, tt.phase, got.Phase)
			assert.Equal(t, tt.category.Rank(), got.Rank)
			assert.Equal(t, tt.req.NodeType, got.NodeType)
		})
	}
}

func TestClassifier_ConfidenceBounds(t *testing.T) {
	c := newClassifier(t)
	nodeTypes := []string{
		"module", "identifier", "name", "comment", "function_definition", "type_spec",
		"interface_type", "for_statement", "expression_statement", "binary_expr", "+", "{",
		"zzqq", "???", "", "import_call_list", "struct_item", "jsx_element",
	}
	languages := []string{"python", "go", "javascript", "jsx", "typescript", "tsx", "rust", "unknown", ""}
	for _, lang := range languages {
		for _, nt := range nodeTypes {
			for _, parent := range []string{"", "block", "function_definition"} {
				r := c.Classify(Request{NodeType: nt, Language: lang, Context: "x = 1 if y", ParentType: parent, SiblingTypes: []string{"if_statement"}})
				assert.GreaterOrEqual(t, r.Confidence, 0.0, "%s/%s", lang, nt)
				assert.LessOrEqual(t, r.Confidence, 1.0, "%s/%s", lang, nt)
				assert.Equal(t, r.Category.Rank(), r.Rank)
			}
		}
	}
}

func TestClassifier_PhaseShortCircuit(t *testing.T) {
	type step struct {
		Phase   Phase
		Matched bool
	}
	var steps []step
	c := newClassifier(t, WithObserver(func(_ Request, p Phase, matched bool) {
		steps = append(steps, step{p, matched})
	}))

	c.Classify(Request{NodeType: "module", Language: "python"})
	assert.Equal(t, []step{{PhaseOverride, true}}, steps)

	steps = nil
	c.Classify(Request{NodeType: "if_statement", Language: "go"})
	assert.Equal(t, []step{{PhaseOverride, false}, {PhaseGrammar, true}}, steps)

	steps = nil
	c.Classify(Request{NodeType: "identifier", Language: "unknown"})
	assert.Equal(t, []step{
		{PhaseOverride, false}, {PhaseGrammar, false}, {PhaseTierMatch, false}, {PhasePatternMatch, true},
	}, steps)

	steps = nil
	c.Classify(Request{NodeType: "zzqq"})
	require.Len(t, steps, 5)
	assert.Equal(t, step{PhaseFallback, true}, steps[4])
}

func TestClassifier_WithoutGrammar(t *testing.T) {
	c := newClassifier(t, WithGrammar(nil))
	r := c.Classify(Request{NodeType: "if_statement", Language: "go"})
	assert.Equal(t, PhaseTierMatch, r.Phase)
	assert.Equal(t, FlowBranching, r.Category)
	assert.InDelta(t, 0.70, r.Confidence, 1e-9)
}

func TestClassifier_StructuralHints(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name string
		req  Request
		want float64
	}{
		{"no hints", Request{NodeType: "for_statement"}, 0.70},
		{"agreeing parent", Request{NodeType: "for_statement", ParentType: "if_statement"}, 0.75},
		{"neutral parent", Request{NodeType: "for_statement", ParentType: "block"}, 0.70},
		{"disagreeing parent", Request{NodeType: "identifier", Language: "python", ParentType: "function_definition"}, 0.80},
		{"siblings vote", Request{NodeType: "for_statement", SiblingTypes: []string{"if_statement", "return_statement", "identifier"}}, 0.75},
		{"unresolved neighbours", Request{NodeType: "for_statement", SiblingTypes: []string{"zzqq"}}, 0.70},
		{"override untouched", Request{NodeType: "module", Language: "python", ParentType: "+"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Classify(tt.req).Confidence, 1e-9)
		})
	}
}

func TestClassifier_Cache(t *testing.T) {
	calls := 0
	c := newClassifier(t, WithCache(8), WithObserver(func(Request, Phase, bool) { calls++ }))

	first := c.Classify(Request{NodeType: "zzqq", Language: "go"})
	assert.Equal(t, 5, calls)
	assert.Equal(t, 1, c.CacheLen())

	second := c.Classify(Request{NodeType: "zzqq", Language: "GO"})
	assert.Equal(t, first, second)
	assert.Equal(t, 5, calls, "cached result must not re-run phases")

	c.Classify(Request{NodeType: "zzqq", Language: "go", Context: "if"})
	assert.Equal(t, 2, c.CacheLen())

	c.Classify(Request{NodeType: "zzqq", Language: "go", ParentType: "block"})
	assert.Equal(t, 2, c.CacheLen(), "structural requests bypass the cache")

	_, err := NewClassifier(nil, WithCache(0))
	assert.Error(t, err)
	assert.Zero(t, newClassifier(t).CacheLen())
}

func TestClassifier_Concurrent(t *testing.T) {
	c := newClassifier(t, WithCache(16))
	nodeTypes := []string{"module", "identifier", "for_statement", "zzqq", "+", "class_definition"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				nt := nodeTypes[j%len(nodeTypes)]
				r := c.Classify(Request{NodeType: nt, Language: "python"})
				assert.NotEmpty(t, r.Category.String())
			}
		}()
	}
	wg.Wait()
}

func TestClassifier_Alternatives(t *testing.T) {
	c := newClassifier(t)

	primary, alts := c.Alternatives(Request{NodeType: "import_call_list"}, DefaultAlternativeThreshold, DefaultMaxAlternatives)
	assert.Equal(t, BoundaryModule, primary.Category)
	assert.InDelta(t, 0.6, primary.Confidence, 1e-9)
	require.Len(t, alts, 2)
	assert.Equal(t, SyntaxPunctuation, alts[0].Category)
	assert.Equal(t, OperationInvocation, alts[1].Category)
	assert.Equal(t, []Category{SyntaxPunctuation, OperationInvocation}, primary.Alternatives)

	_, alts = c.Alternatives(Request{NodeType: "import_call_list"}, 0.3, 1)
	require.Len(t, alts, 1)
	assert.Equal(t, SyntaxPunctuation, alts[0].Category)

	_, alts = c.Alternatives(Request{NodeType: "import_call_list"}, 0.85, 5)
	require.Len(t, alts, 1)

	primary, alts = c.Alternatives(Request{NodeType: "+"}, 0.3, 5)
	assert.True(t, primary.IsHighConfidence())
	assert.Nil(t, alts)
	assert.Nil(t, primary.Alternatives)
}

func TestClassifier_ClassifyBatch(t *testing.T) {
	c := newClassifier(t)
	got := c.ClassifyBatch([]Request{
		{NodeType: "module", Language: "python"},
		{NodeType: "identifier"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, BoundaryModule, got[0].Category)
	assert.Equal(t, SyntaxIdentifier, got[1].Category)
	assert.Empty(t, c.ClassifyBatch(nil))
}

func TestClassifier_AnalyzeQuality(t *testing.T) {
	c := newClassifier(t)
	report := c.AnalyzeQuality([]Request{
		{NodeType: "module", Language: "python"},
		{NodeType: "zzqq"},
		{NodeType: "+"},
		{NodeType: "identifier"},
	})

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.HighConfidence)
	assert.InDelta(t, 75.0, report.HighConfidencePct, 1e-9)
	assert.InDelta(t, 0.775, report.AverageConfidence, 1e-9)
	assert.Equal(t, map[Phase]int{PhaseOverride: 1, PhaseFallback: 1, PhaseTierMatch: 1, PhasePatternMatch: 1}, report.PhaseDistribution)
	assert.Equal(t, map[string]int{"A": 2, "B": 1, "F": 1}, report.GradeDistribution)
	assert.Equal(t, 2, report.CategoryDistribution[SyntaxIdentifier])

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"OVERRIDE":1`)
	assert.Contains(t, string(data), `"SYNTAX_IDENTIFIER":2`)

	empty := Summarize(nil)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.AverageConfidence)
}

func TestClassifier_Coverage(t *testing.T) {
	c := newClassifier(t)
	cov := c.Coverage("go", []string{"function_declaration", "comment", "mystery_node_xyz"})
	require.Len(t, cov, 3)

	assert.Equal(t, CoverageEntry{Category: DefinitionCallable, Confidence: 1, Phase: PhaseOverride, Grade: "A"}, cov["function_declaration"])
	assert.Equal(t, DocumentationStructured, cov["comment"].Category)
	assert.Equal(t, PhaseGrammar, cov["comment"].Phase)
	assert.Equal(t, PhaseFallback, cov["mystery_node_xyz"].Phase)
	assert.Equal(t, "F", cov["mystery_node_xyz"].Grade)
}

func TestClassifier_LogsAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := newClassifier(t, WithLogger(zap.New(core)))

	c.Classify(Request{NodeType: "module", Language: "python"})
	entries := logs.FilterMessage("classified node").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "BOUNDARY_MODULE", fields["category"])
	assert.Equal(t, "OVERRIDE", fields["phase"])
}
