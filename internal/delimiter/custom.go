package delimiter

import "strings"

// customPatterns holds delimiters for constructs that a language's family
// patterns do not cover.
var customPatterns = map[string][]Pattern{
	"bash": {
		pair(KindLoop, []string{"while", "until", "for", "select"}, one("done")),
		pair(KindConditional, one("if"), one("fi")),
		pair(KindConditional, one("case"), one("esac")),
		block(KindFunction, "function"),
	},
	"python": {
		pair(KindDecorator, one("@"), newline).WithLines(true, false),
		block(KindFunction, "async def"),
	},
	"rust": {
		block(KindFunction, "macro_rules!"),
		pair(KindAnnotation, one("#["), one("]")),
		pair(KindAnnotation, one("#!["), one("]")),
		block(KindImplBlock, "impl").WithNestable(true),
		block(KindTypeAlias, "type"),
		block(KindModule, "mod"),
	},
	"go": {
		block(KindFunction, "defer", "go"),
		block(KindTypeAlias, "type"),
		block(KindModuleBoundary, "package", "import"),
	},
	"ruby": {
		pair(KindBlock, one("do"), one("end")),
	},
	"elixir": {
		pair(KindBlock, one("do"), one("end")),
		pair(KindModule, one("defmodule"), one("end")),
		pair(KindFunction, []string{"defp", "def", "defmacro"}, one("end")),
	},
	"lua": {
		pair(KindFunction, []string{"function", "local function"}, one("end")),
		pair(KindLoop, []string{"do", "for", "while"}, one("end")),
		pair(KindConditional, one("if"), one("end")),
		pair(KindLoop, one("repeat"), one("until")),
	},
}

// shell dialects that reuse the bash constructs
var customAliases = map[string]string{
	"sh":     "bash",
	"zsh":    "bash",
	"ksh":    "bash",
	"shell":  "bash",
	"golang": "go",
}

// CustomPatterns returns the language-specific patterns for a language, or
// nil when it has none. The returned slice is a copy.
func CustomPatterns(language string) []Pattern {
	lang := strings.ToLower(strings.TrimSpace(language))
	if alias, ok := customAliases[lang]; ok {
		lang = alias
	}
	patterns := customPatterns[lang]
	if len(patterns) == 0 {
		return nil
	}
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}
