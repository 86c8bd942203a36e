package delimiter

// Shared pattern catalog. Families reference the same pattern values so
// family detection can weigh a pattern by how many families use it.

func block(kind Kind, starts ...string) Pattern {
	return Pattern{Starts: starts, AnyEnd: true, Kind: kind}
}

func pair(kind Kind, starts, ends []string) Pattern {
	return Pattern{Starts: starts, Ends: ends, Kind: kind}
}

func one(s string) []string { return []string{s} }

var newline = []string{"\n", "\r\n"}

var (
	FunctionPattern       = block(KindFunction, "def", "function", "func", "fn", "fun", "sub", "proc", "(defun", "(defn", "(define")
	ClassPattern          = block(KindClass, "class")
	StructPattern         = block(KindStruct, "struct", "union", "record")
	InterfacePattern      = block(KindInterface, "interface", "trait", "protocol")
	EnumPattern           = block(KindEnum, "enum")
	TypeAliasPattern      = block(KindTypeAlias, "type", "typedef", "typealias")
	ImplPattern           = block(KindImplBlock, "impl")
	ExtensionPattern      = block(KindExtension, "extension")
	ModuleBoundaryPattern = block(KindModuleBoundary, "package", "import", "from", "namespace", "using")
	ModulePattern         = block(KindModule, "module", "defmodule", "(ns", "structure", "signature")

	ConditionalPattern    = block(KindConditional, "if", "switch", "match", "case", "unless", "when", "select")
	LoopPattern           = block(KindLoop, "for", "while", "until", "loop", "foreach", "repeat")
	TryCatchPattern       = block(KindTryCatch, "try", "begin", "rescue")
	ContextManagerPattern = block(KindContextManager, "with", "using", "async with")

	SlashCommentPattern     = pair(KindCommentLine, one("//"), newline)
	HashCommentPattern      = pair(KindCommentLine, one("#"), newline)
	DashCommentPattern      = pair(KindCommentLine, one("--"), newline)
	SemicolonCommentPattern = pair(KindCommentLine, one(";"), newline)
	PercentCommentPattern   = pair(KindCommentLine, one("%"), newline)

	CBlockCommentPattern       = pair(KindCommentBlock, one("/*"), one("*/"))
	HTMLCommentPattern         = pair(KindCommentBlock, one("<!--"), one("-->"))
	MLBlockCommentPattern      = pair(KindCommentBlock, one("(*"), one("*)"))
	HaskellBlockCommentPattern = pair(KindCommentBlock, one("{-"), one("-}"))
	LispBlockCommentPattern    = pair(KindCommentBlock, one("#|"), one("|#"))

	DocstringSlashPattern       = pair(KindDocstring, one("///"), newline)
	DocstringJavadocPattern     = pair(KindDocstring, one("/**"), one("*/"))
	DocstringDoubleQuotePattern = pair(KindDocstring, one(`"""`), one(`"""`))
	DocstringSingleQuotePattern = pair(KindDocstring, one(`'''`), one(`'''`))
	DocstringHashPattern        = pair(KindDocstring, one("##"), newline)
	DocstringSemicolonPattern   = pair(KindDocstring, one(";;;"), newline)
	DocstringMatlabPattern      = pair(KindDocstring, one("%%"), newline)
	DocstringRubyPattern        = pair(KindDocstring, one("=begin"), one("=end"))

	BraceBlockPattern    = pair(KindBlock, one("{"), one("}"))
	BeginEndBlockPattern = pair(KindBlock, one("begin"), one("end"))
	LetEndBlockPattern   = pair(KindBlock, one("let"), []string{"in", "end"})
	ArrayPattern         = pair(KindArray, one("["), one("]"))
	TuplePattern         = pair(KindTuple, one("("), one(")"))

	DecoratorPattern = block(KindDecorator, "@")
	PropertyPattern  = block(KindProperty, "@property", "@cached_property")
	PragmaPattern    = block(KindPragma, "#pragma", "#include", "#define", "#ifdef", "#ifndef", "#if", "#undef")

	StringQuotePattern       = pair(KindString, one(`"`), one(`"`))
	StringSingleQuotePattern = pair(KindString, one(`'`), one(`'`))
	StringRawPattern         = pair(KindString, []string{`r"`, `R"`}, one(`"`))
	StringFormattedPattern   = pair(KindTemplateString, one(`f"`), one(`"`))
	StringFormattedSQPattern = pair(KindTemplateString, one(`f'`), one(`'`))
	StringBytesPattern       = pair(KindString, one(`b"`), one(`"`))
	StringBacktickPattern    = pair(KindTemplateString, one("`"), one("`"))
	StringHashPattern        = pair(KindString, one(`#"`), one(`"`))

	TemplateAnglePattern   = pair(KindTemplateString, one("<%"), one("%>"))
	TemplateBracePattern   = pair(KindTemplateString, one("{{"), one("}}"))
	TemplateBlockPattern   = pair(KindTemplateString, one("{%"), one("%}"))
	TemplateBracketPattern = pair(KindTemplateString, one("[["), one("]]"))

	LatexSectionPattern     = block(KindNamespace, `\part`, `\chapter`, `\section`, `\subsection`, `\subsubsection`, `\paragraph`)
	LatexEnvPattern         = pair(KindBlock, one(`\begin{`), one(`\end{`))
	LatexConditionalPattern = pair(KindConditional, []string{`\if`, `\ifx`, `\ifdefined`}, one(`\fi`))
	LatexMathPattern        = pair(KindGeneric, one(`\[`), one(`\]`))
	LatexDisplayMathPattern = pair(KindGeneric, one(`$$`), one(`$$`))
	LatexGroupPattern       = pair(KindBlock, one(`\bgroup`), one(`\egroup`))

	ParagraphPattern = block(KindParagraph, "\n\n", "\r\n\r\n")
)

var familyPatterns = map[Family][]Pattern{
	FamilyCStyle: {
		FunctionPattern, ClassPattern, StructPattern, InterfacePattern, EnumPattern,
		TypeAliasPattern, ImplPattern, ExtensionPattern, ModuleBoundaryPattern,
		ConditionalPattern, LoopPattern, TryCatchPattern, ContextManagerPattern,
		SlashCommentPattern, CBlockCommentPattern, DocstringSlashPattern, DocstringJavadocPattern,
		BraceBlockPattern, ArrayPattern, TuplePattern,
		PragmaPattern, StringQuotePattern, StringBacktickPattern,
		ParagraphPattern,
	},
	FamilyPlainText: {
		ParagraphPattern,
	},
	FamilyPythonStyle: {
		FunctionPattern, ClassPattern, TypeAliasPattern, ModuleBoundaryPattern,
		ConditionalPattern, LoopPattern, TryCatchPattern, ContextManagerPattern,
		HashCommentPattern, DocstringDoubleQuotePattern, DocstringSingleQuotePattern, DocstringHashPattern,
		ArrayPattern, TuplePattern,
		DecoratorPattern, PropertyPattern,
		StringQuotePattern, StringSingleQuotePattern, StringRawPattern, StringFormattedPattern, StringFormattedSQPattern, StringBytesPattern,
		ParagraphPattern,
	},
	FamilyMLStyle: {
		FunctionPattern, ModulePattern, StructPattern,
		ConditionalPattern, LoopPattern,
		MLBlockCommentPattern,
		LetEndBlockPattern, BeginEndBlockPattern, ArrayPattern, TuplePattern,
		StringQuotePattern,
		ParagraphPattern,
	},
	FamilyLispStyle: {
		FunctionPattern, ModulePattern,
		SemicolonCommentPattern, DocstringSemicolonPattern, LispBlockCommentPattern,
		TuplePattern, ArrayPattern,
		StringQuotePattern, StringHashPattern,
		ParagraphPattern,
	},
	FamilyMarkupStyle: {
		HTMLCommentPattern,
		TemplateAnglePattern, TemplateBracePattern, TemplateBlockPattern, TemplateBracketPattern,
		StringQuotePattern, StringBacktickPattern,
		ParagraphPattern,
	},
	FamilyShellStyle: {
		FunctionPattern, ConditionalPattern, LoopPattern,
		HashCommentPattern,
		BraceBlockPattern, ArrayPattern, TuplePattern,
		StringQuotePattern, StringSingleQuotePattern,
		ParagraphPattern,
	},
	FamilyFunctionalStyle: {
		FunctionPattern, ClassPattern, ModulePattern, TypeAliasPattern,
		ConditionalPattern,
		DashCommentPattern, HaskellBlockCommentPattern,
		LetEndBlockPattern, ArrayPattern, TuplePattern,
		StringQuotePattern,
		ParagraphPattern,
	},
	FamilyLatexStyle: {
		LatexSectionPattern, LatexConditionalPattern,
		PercentCommentPattern,
		LatexEnvPattern, LatexGroupPattern, LatexMathPattern, LatexDisplayMathPattern,
		BraceBlockPattern, ArrayPattern,
		ParagraphPattern,
	},
	FamilyRubyStyle: {
		FunctionPattern, ClassPattern, ModulePattern,
		ConditionalPattern, LoopPattern, TryCatchPattern,
		HashCommentPattern, DocstringRubyPattern,
		BeginEndBlockPattern, ArrayPattern, TuplePattern,
		StringQuotePattern, StringSingleQuotePattern, StringFormattedPattern,
		ParagraphPattern,
	},
	FamilyMatlabStyle: {
		FunctionPattern, ConditionalPattern, LoopPattern,
		PercentCommentPattern, DocstringMatlabPattern,
		ArrayPattern, BraceBlockPattern, TuplePattern,
		StringQuotePattern,
		ParagraphPattern,
	},
	FamilyUnknown: {
		ParagraphPattern, BraceBlockPattern, ArrayPattern, TuplePattern,
	},
}

// FamilyPatterns returns the delimiter patterns shared by a language family.
// The returned slice is a copy.
func FamilyPatterns(f Family) []Pattern {
	patterns, ok := familyPatterns[f]
	if !ok {
		patterns = familyPatterns[FamilyUnknown]
	}
	out := make([]Pattern, len(patterns))
	copy(out, patterns)
	return out
}

// PatternsForLanguage returns the active pattern set for a language:
// its language-specific patterns first, then its family's patterns.
func PatternsForLanguage(language string) []Pattern {
	custom := CustomPatterns(language)
	family := FamilyPatterns(FamilyForLanguage(language))
	return append(custom, family...)
}
