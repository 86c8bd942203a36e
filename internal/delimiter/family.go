package delimiter

import "strings"

// Family groups languages that share comment, block and string syntax.
type Family string

const (
	FamilyCStyle          Family = "c_style"
	FamilyFunctionalStyle Family = "functional_style"
	FamilyLatexStyle      Family = "latex_style"
	FamilyLispStyle       Family = "lisp_style"
	FamilyMarkupStyle     Family = "markup_style"
	FamilyMatlabStyle     Family = "matlab_style"
	FamilyMLStyle         Family = "ml_style"
	FamilyPlainText       Family = "plain_text"
	FamilyPythonStyle     Family = "python_style"
	FamilyRubyStyle       Family = "ruby_style"
	FamilyShellStyle      Family = "shell_style"
	FamilyUnknown         Family = "unknown"
)

// AllFamilies lists every family, UNKNOWN last.
func AllFamilies() []Family {
	return []Family{
		FamilyCStyle, FamilyFunctionalStyle, FamilyLatexStyle, FamilyLispStyle,
		FamilyMarkupStyle, FamilyMatlabStyle, FamilyMLStyle, FamilyPlainText,
		FamilyPythonStyle, FamilyRubyStyle, FamilyShellStyle, FamilyUnknown,
	}
}

func (f Family) String() string { return string(f) }

var languageFamilies = map[string]Family{
	"agda":             FamilyFunctionalStyle,
	"amslatex":         FamilyLatexStyle,
	"asciidoc":         FamilyMarkupStyle,
	"assembly":         FamilyShellStyle,
	"assemblyscript":   FamilyCStyle,
	"astro":            FamilyMarkupStyle,
	"bash":             FamilyShellStyle,
	"batch":            FamilyShellStyle,
	"beamer":           FamilyLatexStyle,
	"c":                FamilyCStyle,
	"c#":               FamilyCStyle,
	"c++":              FamilyCStyle,
	"carbon":           FamilyCStyle,
	"chapel":           FamilyFunctionalStyle,
	"clojure":          FamilyLispStyle,
	"cmake":            FamilyShellStyle,
	"cmd":              FamilyShellStyle,
	"coffeescript":     FamilyPythonStyle,
	"commonlisp":       FamilyLispStyle,
	"confluence":       FamilyMarkupStyle,
	"context":          FamilyLatexStyle,
	"coq":              FamilyMLStyle,
	"cpp":              FamilyCStyle,
	"creole":           FamilyMarkupStyle,
	"crystal":          FamilyRubyStyle,
	"csh":              FamilyShellStyle,
	"csharp":           FamilyCStyle,
	"css":              FamilyCStyle,
	"csv":              FamilyPlainText,
	"cuda":             FamilyCStyle,
	"cue":              FamilyCStyle,
	"cython":           FamilyPythonStyle,
	"dart":             FamilyCStyle,
	"devicetree":       FamilyCStyle,
	"dhall":            FamilyFunctionalStyle,
	"dlang":            FamilyCStyle,
	"docbook":          FamilyMarkupStyle,
	"docker":           FamilyShellStyle,
	"dockerfile":       FamilyShellStyle,
	"eiffel":           FamilyMLStyle,
	"elisp":            FamilyLispStyle,
	"elixir":           FamilyRubyStyle,
	"elm":              FamilyFunctionalStyle,
	"elvish":           FamilyShellStyle,
	"emacs":            FamilyLispStyle,
	"erlang":           FamilyFunctionalStyle,
	"f#":               FamilyMLStyle,
	"factor":           FamilyLispStyle,
	"fish":             FamilyShellStyle,
	"fortran":          FamilyMatlabStyle,
	"fsharp":           FamilyMLStyle,
	"gleam":            FamilyFunctionalStyle,
	"gnuplot":          FamilyMatlabStyle,
	"go":               FamilyCStyle,
	"graphql":          FamilyMarkupStyle,
	"groovy":           FamilyCStyle,
	"hack":             FamilyCStyle,
	"haskell":          FamilyFunctionalStyle,
	"hcl":              FamilyShellStyle,
	"hjson":            FamilyMarkupStyle,
	"hlsl":             FamilyCStyle,
	"html":             FamilyMarkupStyle,
	"hy":               FamilyLispStyle,
	"idris":            FamilyFunctionalStyle,
	"ini":              FamilyShellStyle,
	"janet":            FamilyLispStyle,
	"java":             FamilyCStyle,
	"javascript":       FamilyCStyle,
	"jinja":            FamilyMarkupStyle,
	"jruby":            FamilyRubyStyle,
	"json":             FamilyMarkupStyle,
	"jsx":              FamilyMarkupStyle,
	"julia":            FamilyMatlabStyle,
	"jupyter":          FamilyPythonStyle,
	"just":             FamilyShellStyle,
	"kotlin":           FamilyCStyle,
	"latex":            FamilyLatexStyle,
	"less":             FamilyCStyle,
	"lhs":              FamilyFunctionalStyle,
	"lisp":             FamilyLispStyle,
	"livescript":       FamilyPythonStyle,
	"lua":              FamilyRubyStyle,
	"lualatex":         FamilyLatexStyle,
	"make":             FamilyShellStyle,
	"man":              FamilyMarkupStyle,
	"markdown":         FamilyMarkupStyle,
	"matlab":           FamilyMatlabStyle,
	"mediawiki":        FamilyMarkupStyle,
	"mojo":             FamilyPythonStyle,
	"move":             FamilyCStyle,
	"mruby":            FamilyRubyStyle,
	"nim":              FamilyPythonStyle,
	"nimble":           FamilyPythonStyle,
	"nix":              FamilyFunctionalStyle,
	"nushell":          FamilyCStyle,
	"objective-c":      FamilyCStyle,
	"objectivec":       FamilyCStyle,
	"ocaml":            FamilyMLStyle,
	"octave":           FamilyMatlabStyle,
	"odin":             FamilyCStyle,
	"org":              FamilyMarkupStyle,
	"pascal":           FamilyMLStyle,
	"perl":             FamilyShellStyle,
	"php":              FamilyCStyle,
	"pkl":              FamilyCStyle,
	"plaintex":         FamilyLatexStyle,
	"pony":             FamilyFunctionalStyle,
	"powershell":       FamilyShellStyle,
	"properties":       FamilyShellStyle,
	"protobuf":         FamilyMarkupStyle,
	"purescript":       FamilyFunctionalStyle,
	"python":           FamilyPythonStyle,
	"qml":              FamilyCStyle,
	"r":                FamilyMatlabStyle,
	"racket":           FamilyLispStyle,
	"rake":             FamilyRubyStyle,
	"raku":             FamilyFunctionalStyle,
	"reason":           FamilyMLStyle,
	"rescript":         FamilyCStyle,
	"restructuredtext": FamilyMarkupStyle,
	"rmarkdown":        FamilyMarkupStyle,
	"rnw":              FamilyLatexStyle,
	"ruby":             FamilyRubyStyle,
	"rust":             FamilyCStyle,
	"rtf":              FamilyPlainText,
	"sas":              FamilyMatlabStyle,
	"sass":             FamilyPythonStyle,
	"scala":            FamilyCStyle,
	"scheme":           FamilyLispStyle,
	"scilab":           FamilyMatlabStyle,
	"scss":             FamilyCStyle,
	"sh":               FamilyShellStyle,
	"shell":            FamilyShellStyle,
	"sml":              FamilyMLStyle,
	"solidity":         FamilyCStyle,
	"sql":              FamilyFunctionalStyle,
	"standardml":       FamilyMLStyle,
	"svelte":           FamilyMarkupStyle,
	"svg":              FamilyMarkupStyle,
	"swift":            FamilyCStyle,
	"tex":              FamilyLatexStyle,
	"texinfo":          FamilyMarkupStyle,
	"text":             FamilyPlainText,
	"textile":          FamilyMarkupStyle,
	"toml":             FamilyMarkupStyle,
	"tsv":              FamilyPlainText,
	"tsx":              FamilyMarkupStyle,
	"txt":              FamilyPlainText,
	"typescript":       FamilyCStyle,
	"vala":             FamilyCStyle,
	"verilog":          FamilyCStyle,
	"vhdl":             FamilyCStyle,
	"vlang":            FamilyCStyle,
	"vue":              FamilyMarkupStyle,
	"wiki":             FamilyMarkupStyle,
	"xaml":             FamilyMarkupStyle,
	"xelatex":          FamilyLatexStyle,
	"xml":              FamilyMarkupStyle,
	"xonsh":            FamilyPythonStyle,
	"yaml":             FamilyMarkupStyle,
	"yml":              FamilyMarkupStyle,
	"zig":              FamilyCStyle,
	"zsh":              FamilyShellStyle,
}

// FamilyForLanguage maps a language name to its family. Names are matched
// after lower-casing, then against common spelling variants
// ("c_plus_plus" -> "c++", "c_sharp" -> "c#", "fsharp" -> "f#").
func FamilyForLanguage(language string) Family {
	lang := strings.ToLower(strings.TrimSpace(language))
	if f, ok := languageFamilies[lang]; ok {
		return f
	}

	snake := strings.NewReplacer(" ", "_", "-", "_").Replace(lang)
	variants := []string{
		snake,
		strings.ReplaceAll(snake, "_", ""),
		strings.ReplaceAll(strings.ReplaceAll(snake, "_plus_plus", "++"), "plusplus", "++"),
		strings.ReplaceAll(strings.ReplaceAll(snake, "_sharp", "#"), "sharp", "#"),
		strings.TrimSuffix(snake, "script"),
		strings.TrimSuffix(snake, "ml"),
	}
	for _, v := range variants {
		if f, ok := languageFamilies[v]; ok {
			return f
		}
	}
	return FamilyUnknown
}

// KnownLanguages returns every language with a family assignment.
func KnownLanguages() []string {
	out := make([]string, 0, len(languageFamilies))
	for lang := range languageFamilies {
		out = append(out, lang)
	}
	return out
}
