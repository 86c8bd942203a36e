// Package semantic classifies syntax node type strings into language-agnostic
// semantic categories with a confidence score.
//
// The twenty categories are grouped into five ranks, from primary
// definitions (functions, types) down to syntax references (identifiers,
// literals, punctuation). Each category carries task importance weights.
//
// # Basic Usage
//
//	c, err := semantic.NewClassifier(semantic.NewDefaultRegistry(), semantic.WithCache(4096))
//	if err != nil {
//	    return err
//	}
//
//	r := c.Classify(semantic.Request{NodeType: "function_definition", Language: "python"})
//	fmt.Println(r.Category, r.Confidence, r.Phase) // DEFINITION_CALLABLE 1 OVERRIDE
//
// # Phases
//
// Classification stops at the first phase that produces a result:
//
//  1. OVERRIDE: an exact (language, node type) entry in the Registry, 1.0.
//  2. GRAMMAR: a GrammarSource entry, with its own confidence.
//  3. TIER_MATCH: exact operator and punctuation tokens, then one regular
//     expression per category searched rank by rank.
//  4. PATTERN_MATCH: statement and expression heuristics steered by words in
//     the surrounding source, and the bare identifier node types.
//  5. FALLBACK: SYNTAX_IDENTIFIER or SYNTAX_PUNCTUATION at 0.30.
//
// Grammar and tier results are raised by per-language keyword boosts, capped
// at 0.95. Parent and sibling node types in the Request move a non-override
// result by 0.05 either way.
//
// The Registry is frozen when the classifier is built and every lookup table
// is immutable afterwards, so a Classifier may be shared between goroutines.
package semantic
