package delimiter

import "strings"

// Kind is the semantic category of a delimiter.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindModuleBoundary
	KindClass
	KindInterface
	KindTypeAlias
	KindImplBlock
	KindStruct
	KindExtension
	KindFunction
	KindProperty
	KindMethod
	KindEnum
	KindContextManager
	KindModule
	KindDocstring
	KindDecorator
	KindNamespace
	KindCommentBlock
	KindTryCatch
	KindLoop
	KindConditional
	KindParagraph
	KindBlock
	KindAnnotation
	KindArray
	KindTuple
	KindCommentLine
	KindTemplateString
	KindString
	KindPragma
	KindGeneric
	KindWhitespace

	numKinds
)

type kindInfo struct {
	name     string
	priority int
}

// kinds holds the canonical name and default priority of every kind.
var kinds = [numKinds]kindInfo{
	KindUnknown:        {"UNKNOWN", 1},
	KindModuleBoundary: {"MODULE_BOUNDARY", 90},
	KindClass:          {"CLASS", 85},
	KindInterface:      {"INTERFACE", 80},
	KindTypeAlias:      {"TYPE_ALIAS", 75},
	KindImplBlock:      {"IMPL_BLOCK", 75},
	KindStruct:         {"STRUCT", 75},
	KindExtension:      {"EXTENSION", 70},
	KindFunction:       {"FUNCTION", 70},
	KindProperty:       {"PROPERTY", 65},
	KindMethod:         {"METHOD", 65},
	KindEnum:           {"ENUM", 65},
	KindContextManager: {"CONTEXT_MANAGER", 60},
	KindModule:         {"MODULE", 60},
	KindDocstring:      {"DOCSTRING", 60},
	KindDecorator:      {"DECORATOR", 55},
	KindNamespace:      {"NAMESPACE", 55},
	KindCommentBlock:   {"COMMENT_BLOCK", 55},
	KindTryCatch:       {"TRY_CATCH", 50},
	KindLoop:           {"LOOP", 50},
	KindConditional:    {"CONDITIONAL", 50},
	KindParagraph:      {"PARAGRAPH", 40},
	KindBlock:          {"BLOCK", 30},
	KindAnnotation:     {"ANNOTATION", 30},
	KindArray:          {"ARRAY", 25},
	KindTuple:          {"TUPLE", 20},
	KindCommentLine:    {"COMMENT_LINE", 20},
	KindTemplateString: {"TEMPLATE_STRING", 15},
	KindString:         {"STRING", 10},
	KindPragma:         {"PRAGMA", 5},
	KindGeneric:        {"GENERIC", 3},
	KindWhitespace:     {"WHITESPACE", 1},
}

// AllKinds returns every kind in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind looks a kind up by its canonical name, case-insensitively.
func ParseKind(name string) (Kind, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for k := Kind(0); k < numKinds; k++ {
		if kinds[k].name == upper {
			return k, true
		}
	}
	return KindUnknown, false
}

func (k Kind) valid() bool { return k < numKinds }

func (k Kind) String() string {
	if !k.valid() {
		return kinds[KindUnknown].name
	}
	return kinds[k].name
}

// Title returns the kind name in title case with spaces, e.g. "Comment Block".
func (k Kind) Title() string {
	parts := strings.Split(strings.ToLower(k.String()), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// DefaultPriority returns the priority every delimiter of this kind gets
// unless its pattern overrides it.
func (k Kind) DefaultPriority() int {
	if !k.valid() {
		return kinds[KindUnknown].priority
	}
	return kinds[k].priority
}

// IsCodeElement reports whether the kind delimits a named code construct.
func (k Kind) IsCodeElement() bool {
	switch k {
	case KindFunction, KindClass, KindMethod, KindInterface, KindStruct, KindEnum,
		KindTypeAlias, KindImplBlock, KindExtension, KindNamespace, KindModule, KindModuleBoundary:
		return true
	}
	return false
}

// IsStructure reports whether the kind delimits a bracketed structure.
func (k Kind) IsStructure() bool {
	return k == KindBlock || k == KindArray || k == KindTuple
}

// IsControlFlow reports whether the kind delimits a control flow statement.
func (k Kind) IsControlFlow() bool {
	switch k {
	case KindConditional, KindLoop, KindTryCatch, KindContextManager:
		return true
	}
	return false
}

// IsCommentary reports whether the kind delimits comments or docs.
func (k Kind) IsCommentary() bool {
	return k == KindCommentLine || k == KindCommentBlock || k == KindDocstring
}

// IsGeneric reports whether the kind carries no language semantics.
func (k Kind) IsGeneric() bool {
	switch k {
	case KindParagraph, KindWhitespace, KindGeneric, KindUnknown:
		return true
	}
	return false
}

// IsData reports whether the kind delimits a literal.
func (k Kind) IsData() bool {
	return k == KindString || k == KindTemplateString
}

// IsMeta reports whether the kind delimits metadata attached to code.
func (k Kind) IsMeta() bool {
	switch k {
	case KindAnnotation, KindDecorator, KindProperty, KindPragma, KindWhitespace:
		return true
	}
	return false
}

// Nestable reports whether delimiters of this kind track nesting depth by default.
func (k Kind) Nestable() bool {
	switch k {
	case KindFunction, KindClass, KindInterface, KindStruct, KindEnum, KindImplBlock,
		KindExtension, KindNamespace, KindConditional, KindLoop, KindTryCatch,
		KindContextManager, KindBlock, KindArray, KindTuple, KindString, KindTemplateString:
		return true
	}
	return false
}

// LineStrategy returns the default (inclusive, takeWholeLines) pair for the kind.
func (k Kind) LineStrategy() (inclusive, wholeLines bool) {
	switch {
	case k.IsCodeElement() || k.IsControlFlow():
		return true, true
	case k.IsStructure() || k.IsData() || k.IsMeta():
		return false, true
	case k == KindCommentLine:
		return true, false
	case k.IsCommentary():
		return false, true
	default:
		return false, false
	}
}
