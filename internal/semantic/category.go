package semantic

import (
	"fmt"
	"strings"
)

// Rank is an importance bucket. Rank 1 is the most important.
type Rank int

const (
	RankPrimaryDefinitions    Rank = 1
	RankBehavioralContracts   Rank = 2
	RankControlFlowLogic      Rank = 3
	RankOperationsExpressions Rank = 4
	RankSyntaxReferences      Rank = 5
)

var rankNames = [...]string{
	RankPrimaryDefinitions:    "PRIMARY_DEFINITIONS",
	RankBehavioralContracts:   "BEHAVIORAL_CONTRACTS",
	RankControlFlowLogic:      "CONTROL_FLOW_LOGIC",
	RankOperationsExpressions: "OPERATIONS_EXPRESSIONS",
	RankSyntaxReferences:      "SYNTAX_REFERENCES",
}

// Ranks lists every rank from most to least important.
func Ranks() []Rank {
	return []Rank{
		RankPrimaryDefinitions,
		RankBehavioralContracts,
		RankControlFlowLogic,
		RankOperationsExpressions,
		RankSyntaxReferences,
	}
}

func (r Rank) String() string {
	if r < RankPrimaryDefinitions || r > RankSyntaxReferences {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// Category is a language-agnostic semantic class for a syntax node.
type Category int

const (
	DefinitionCallable Category = iota
	DefinitionType
	DefinitionData
	DefinitionTest

	BoundaryModule
	BoundaryError
	BoundaryResource
	DocumentationStructured

	FlowBranching
	FlowIteration
	FlowControl
	FlowAsync

	OperationInvocation
	OperationData
	OperationOperator
	ExpressionAnonymous

	SyntaxIdentifier
	SyntaxLiteral
	SyntaxAnnotation
	SyntaxPunctuation

	numCategories
)

// Importance weighs a category for different retrieval tasks. Each score is
// in [0, 1].
type Importance struct {
	Discovery     float64 `json:"discovery"`
	Comprehension float64 `json:"comprehension"`
	Modification  float64 `json:"modification"`
	Debugging     float64 `json:"debugging"`
	Documentation float64 `json:"documentation"`
}

// Max returns the highest of the scores.
func (i Importance) Max() float64 {
	return max(i.Discovery, i.Comprehension, i.Modification, i.Debugging, i.Documentation)
}

// Weighted returns the weighted mean of the scores. Zero weights give the
// plain mean.
func (i Importance) Weighted(w Importance) float64 {
	total := w.Discovery + w.Comprehension + w.Modification + w.Debugging + w.Documentation
	if total <= 0 {
		return (i.Discovery + i.Comprehension + i.Modification + i.Debugging + i.Documentation) / 5
	}
	sum := i.Discovery*w.Discovery + i.Comprehension*w.Comprehension +
		i.Modification*w.Modification + i.Debugging*w.Debugging +
		i.Documentation*w.Documentation
	return sum / total
}

type categoryInfo struct {
	name       string
	rank       Rank
	importance Importance
}

var categories = [numCategories]categoryInfo{
	DefinitionCallable: {"DEFINITION_CALLABLE", RankPrimaryDefinitions, Importance{0.95, 0.92, 0.85, 0.85, 0.92}},
	DefinitionType:     {"DEFINITION_TYPE", RankPrimaryDefinitions, Importance{0.95, 0.92, 0.90, 0.80, 0.92}},
	DefinitionData:     {"DEFINITION_DATA", RankPrimaryDefinitions, Importance{0.85, 0.88, 0.80, 0.65, 0.90}},
	DefinitionTest:     {"DEFINITION_TEST", RankPrimaryDefinitions, Importance{0.88, 0.90, 0.70, 0.90, 0.85}},

	BoundaryModule:          {"BOUNDARY_MODULE", RankBehavioralContracts, Importance{0.85, 0.80, 0.85, 0.60, 0.75}},
	BoundaryError:           {"BOUNDARY_ERROR", RankBehavioralContracts, Importance{0.70, 0.85, 0.75, 0.95, 0.70}},
	BoundaryResource:        {"BOUNDARY_RESOURCE", RankBehavioralContracts, Importance{0.65, 0.80, 0.80, 0.90, 0.65}},
	DocumentationStructured: {"DOCUMENTATION_STRUCTURED", RankBehavioralContracts, Importance{0.55, 0.75, 0.50, 0.40, 0.95}},

	FlowBranching: {"FLOW_BRANCHING", RankControlFlowLogic, Importance{0.60, 0.75, 0.65, 0.90, 0.50}},
	FlowIteration: {"FLOW_ITERATION", RankControlFlowLogic, Importance{0.50, 0.70, 0.65, 0.80, 0.45}},
	FlowControl:   {"FLOW_CONTROL", RankControlFlowLogic, Importance{0.45, 0.65, 0.55, 0.90, 0.35}},
	FlowAsync:     {"FLOW_ASYNC", RankControlFlowLogic, Importance{0.65, 0.80, 0.75, 0.85, 0.60}},

	OperationInvocation: {"OPERATION_INVOCATION", RankOperationsExpressions, Importance{0.45, 0.65, 0.45, 0.75, 0.25}},
	OperationData:       {"OPERATION_DATA", RankOperationsExpressions, Importance{0.35, 0.55, 0.50, 0.70, 0.25}},
	OperationOperator:   {"OPERATION_OPERATOR", RankOperationsExpressions, Importance{0.25, 0.45, 0.35, 0.60, 0.25}},
	ExpressionAnonymous: {"EXPRESSION_ANONYMOUS", RankOperationsExpressions, Importance{0.40, 0.65, 0.50, 0.60, 0.45}},

	SyntaxIdentifier:  {"SYNTAX_IDENTIFIER", RankSyntaxReferences, Importance{0.25, 0.40, 0.25, 0.45, 0.20}},
	SyntaxLiteral:     {"SYNTAX_LITERAL", RankSyntaxReferences, Importance{0.15, 0.20, 0.15, 0.40, 0.20}},
	SyntaxAnnotation:  {"SYNTAX_ANNOTATION", RankSyntaxReferences, Importance{0.35, 0.45, 0.60, 0.40, 0.40}},
	SyntaxPunctuation: {"SYNTAX_PUNCTUATION", RankSyntaxReferences, Importance{0.01, 0.02, 0.15, 0.20, 0.05}},
}

// Categories lists every category in rank order.
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// CategoriesForRank lists the categories of one rank in their tier order.
func CategoriesForRank(r Rank) []Category {
	var out []Category
	for c := Category(0); c < numCategories; c++ {
		if categories[c].rank == r {
			out = append(out, c)
		}
	}
	return out
}

// ParseCategory looks a category up by name, ignoring case.
func ParseCategory(name string) (Category, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for c := Category(0); c < numCategories; c++ {
		if categories[c].name == upper {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown semantic category %q", name)
}

func (c Category) valid() bool { return c >= 0 && c < numCategories }

func (c Category) String() string {
	if !c.valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categories[c].name
}

// Rank returns the category's importance bucket.
func (c Category) Rank() Rank {
	if !c.valid() {
		return RankSyntaxReferences
	}
	return categories[c].rank
}

// Importance returns the category's task weights.
func (c Category) Importance() Importance {
	if !c.valid() {
		return Importance{}
	}
	return categories[c].importance
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("invalid semantic category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
