// Package delimiter defines the declarative delimiter-pattern language used
// by the boundary chunker.
//
// A Pattern names a Kind (FUNCTION, BLOCK, COMMENT_LINE, ...) and the start
// and end literals that delimit it. Expand turns a pattern into concrete
// Delimiters, one per start/end pair, resolving priority, line strategy and
// nesting from the kind defaults unless the pattern overrides them:
//
//	p := delimiter.Pattern{Starts: []string{"{"}, Ends: []string{"}"}, Kind: delimiter.KindBlock}
//	delims := delimiter.Expand(p) // one "{" "}" BLOCK delimiter, priority 30
//
// Patterns whose end is AnyEnd have no closing literal. The chunker closes
// them at the end of the indented block that follows the start.
//
// Languages are grouped into families (C style, Python style, ...) that
// share a pattern catalog; PatternsForLanguage combines a language's own
// patterns with its family's. DetectFamily guesses a family from content
// when the language is unknown.
package delimiter
