package semantic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_Table(t *testing.T) {
	assert.Len(t, Categories(), 20)

	perRank := map[Rank]int{}
	for _, c := range Categories() {
		perRank[c.Rank()]++
		imp := c.Importance()
		for _, v := range []float64{imp.Discovery, imp.Comprehension, imp.Modification, imp.Debugging, imp.Documentation} {
			assert.GreaterOrEqual(t, v, 0.0, c.String())
			assert.LessOrEqual(t, v, 1.0, c.String())
		}
	}
	for _, r := range Ranks() {
		assert.Equal(t, 4, perRank[r], r.String())
	}

	assert.Equal(t, []Category{FlowBranching, FlowIteration, FlowControl, FlowAsync}, CategoriesForRank(RankControlFlowLogic))
	assert.Equal(t, RankPrimaryDefinitions, DefinitionTest.Rank())
	assert.Equal(t, "SYNTAX_PUNCTUATION", SyntaxPunctuation.String())
	assert.Equal(t, "Category(99)", Category(99).String())
	assert.Equal(t, "Rank(0)", Rank(0).String())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" boundary_module ")
	require.NoError(t, err)
	assert.Equal(t, BoundaryModule, c)

	_, err = ParseCategory("SYNTAX_KEYWORD")
	assert.Error(t, err)
}

func TestCategory_TextRoundTrip(t *testing.T) {
	data, err := json.Marshal(map[string]Category{"c": FlowAsync})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"FLOW_ASYNC"}`, string(data))

	var decoded map[string]Category
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, FlowAsync, decoded["c"])

	_, err = Category(-1).MarshalText()
	assert.Error(t, err)
}

func TestImportance_Weighted(t *testing.T) {
	imp := Importance{Discovery: 1, Comprehension: 0.5, Modification: 0, Debugging: 0, Documentation: 0}
	assert.InDelta(t, 0.3, imp.Weighted(Importance{}), 1e-9)
	assert.InDelta(t, 1.0, imp.Weighted(Importance{Discovery: 1}), 1e-9)
	assert.InDelta(t, 0.75, imp.Weighted(Importance{Discovery: 1, Comprehension: 1}), 1e-9)
}

func TestImportance_Max(t *testing.T) {
	assert.InDelta(t, 0.9, Importance{Comprehension: 0.2, Debugging: 0.9, Documentation: 0.4}.Max(), 1e-9)
	assert.InDelta(t, 0.20, SyntaxPunctuation.Importance().Max(), 1e-9)
	assert.Zero(t, Importance{}.Max())
}

func TestResult_Grade(t *testing.T) {
	tests := []struct {
		confidence float64
		grade      string
		high       bool
	}{
		{1.0, "A", true},
		{0.9, "A", true},
		{0.85, "B", true},
		{0.8, "B", true},
		{0.75, "C", false},
		{0.6, "D", false},
		{0.3, "F", false},
	}
	for _, tt := range tests {
		r := Result{Confidence: tt.confidence}
		assert.Equal(t, tt.grade, r.Grade(), "confidence %v", tt.confidence)
		assert.Equal(t, tt.high, r.IsHighConfidence(), "confidence %v", tt.confidence)
	}
}

func TestResult_JSON(t *testing.T) {
	r := Result{
		NodeType:   "module",
		Language:   "python",
		Category:   BoundaryModule,
		Confidence: 1,
		Phase:      PhaseOverride,
		Rank:       RankBehavioralContracts,
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"node_type": "module",
		"language": "python",
		"category": "BOUNDARY_MODULE",
		"confidence": 1,
		"phase": "OVERRIDE",
		"rank": 2
	}`, string(data))
	assert.InDelta(t, 0.85, r.Importance(), 1e-9)
}
