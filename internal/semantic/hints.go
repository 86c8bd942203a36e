package semantic

import "strings"

// hint names a pattern found in the source text around a node.
type hint string

const (
	hintControlFlow   hint = "control_flow"
	hintErrorHandling hint = "error_handling"
	hintFunctionDef   hint = "function_def"
	hintClassDef      hint = "class_def"
	hintAssignment    hint = "assignment"
	hintArithmetic    hint = "arithmetic"
	hintComparison    hint = "comparison"
)

var hintOrder = []hint{
	hintControlFlow,
	hintErrorHandling,
	hintFunctionDef,
	hintClassDef,
	hintAssignment,
	hintArithmetic,
	hintComparison,
}

var hintWords = map[hint][]string{
	hintControlFlow:   {"if", "for", "while", "switch", "case"},
	hintErrorHandling: {"try", "catch", "except", "throw", "raise"},
	hintFunctionDef:   {"function", "def", "fn", "func"},
	hintClassDef:      {"class", "struct", "interface", "trait"},
	hintAssignment:    {"=", "assign", "let", "var", "const"},
	hintArithmetic:    {"+", "-", "*", "/", "%", "math"},
	hintComparison:    {"==", "!=", "<", ">", "<=", ">=", "compare"},
}

type hintSet map[hint]bool

// contextHints reports which hints occur in the lower-cased context. Matching
// is by substring, so "if" also fires inside "diff".
func contextHints(context string) hintSet {
	if context == "" {
		return nil
	}
	lower := strings.ToLower(context)
	set := make(hintSet)
	for _, h := range hintOrder {
		for _, w := range hintWords[h] {
			if strings.Contains(lower, w) {
				set[h] = true
				break
			}
		}
	}
	return set
}

func (s hintSet) names() []string {
	var out []string
	for _, h := range hintOrder {
		if s[h] {
			out = append(out, string(h))
		}
	}
	return out
}

const (
	constructConfidence = 0.40
	hintBonus           = 0.10
	identifierHeuristic = 0.85
)

// classifyConstruct applies the statement and expression heuristics.
func classifyConstruct(nodeType string, hints hintSet) (Category, float64, string, bool) {
	lower := strings.ToLower(nodeType)
	conf := constructConfidence
	if len(hints) > 0 {
		conf += hintBonus
	}

	switch {
	case strings.Contains(lower, "statement"):
		c := FlowControl
		switch {
		case hints[hintControlFlow]:
			c = FlowBranching
		case hints[hintErrorHandling]:
			c = BoundaryError
		case hints[hintAssignment]:
			c = OperationData
		}
		return c, conf, "statement_heuristic:" + nodeType, true
	case strings.Contains(lower, "expr"):
		c := OperationOperator
		switch {
		case hints[hintArithmetic], hints[hintComparison]:
			c = OperationOperator
		case hints[hintAssignment]:
			c = OperationData
		case hints[hintFunctionDef]:
			c = ExpressionAnonymous
		}
		return c, conf, "expression_heuristic:" + nodeType, true
	}

	switch lower {
	case "identifier", "name", "id":
		return SyntaxIdentifier, identifierHeuristic, "identifier_heuristic:" + nodeType, true
	}
	return 0, 0, "", false
}
