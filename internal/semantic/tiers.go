package semantic

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	operatorConfidence    = 0.95
	punctuationConfidence = 0.90
)

// Operator tokens, matched exactly.
var operatorTokens = []string{
	// multi-character
	">>>=", "<<=", ">>=", "**=", "//=", "&&=", "||=", "??=", "&^=", "...", "..=", "..<",
	"===", "!==", "<=>", "<<<", ">>>", "?->", "->>",
	":=", "**", ">=", "<=", "==", "!=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=",
	"%=", "&=", "^=", "|=", "<<", ">>", "->", "=>", "??", "?.", "!!", "!~", "=~", "<>",
	"<-", "|>", "<|", "..", "&^", "::<",
	// word operators
	"and", "or", "not", "in", "is", "not in", "is not", "instanceof", "typeof", "as",
	// single character
	"+", "-", "*", "/", "%", "=", "!", "&", "^", "~", "?", "@", "|", "<", ">",
}

// Punctuation tokens, matched exactly.
var punctuationTokens = []string{
	"(", ")", "[", "]", "{", "}", ";", ",", ".", ":", "::", "$", "\\",
	`"`, "'", "`", `"""`, "'''", `""`, "''", "``",
	"#", "##", "//", "///", "/*", "*/", "/**", "<!--", "-->", "<%", "%>", "<?", "?>",
	"r#", `r#"`, "#[", "#![",
}

// Category patterns are searched in the lower-cased node type. They are
// listed in rank order; within a rank the first match wins. None of them
// match the bare identifier, name or id node types, which the pattern phase
// owns.
var tierPatterns = [numCategories]string{
	DefinitionCallable: `^(function|method|func|fn|def|procedure|subroutine|constructor|init|generator_function)\w*_(definition|declaration|item|signature|spec)$|^(function|method)$`,
	DefinitionType:     `^(class|struct|interface|trait|enum|union|record|protocol|type|impl|abstract_class|object|data)\w*_(definition|declaration|item|spec|specifier)$|^(struct|interface|enum|union)_type$|^type_alias\w*$`,
	DefinitionData:     `^(const|constant|static|config\w*|schema|settings?)\w*_(definition|declaration|item|spec)$|^enumerator$|^enum_variant$`,
	DefinitionTest:     `^(test|spec|describe|fixture|scenario|benchmark)(_\w+)?$|^\w+_test(_\w+)?$|^test\w*_(function|case|suite|method|definition|declaration)$`,

	BoundaryModule:          `^(import|export|use|include|require|extern|package|namespace|module|mod|from|library|using_directive)(_\w+)?$|^(source_file|program|compilation_unit|translation_unit)$|^preproc_include$|^\w+_import(_\w+)?$`,
	BoundaryError:           `^(try|catch|except|finally|throw|raise|rescue|ensure|panic)(_\w+)?$|^\w*(error|exception)_(declaration|definition|handler|class|type|clause|group)$`,
	BoundaryResource:        `^(with|using|defer|context_manager|resource|lock|unsafe)(_\w+)?$|^\w*(resource|connection|handle|file|socket|stream|context)_(declaration|definition|statement|manager|specification)$`,
	DocumentationStructured: `^(comment|line_comment|block_comment|doc_comment|documentation_comment|docstring|jsdoc|javadoc|html_comment)$|^\w*doc(string|_comment|_block)\w*$|^(interface|trait|protocol)_body$`,

	FlowBranching: `^(if|else|elif|elsif|else_if|switch|case|match|when|guard|conditional|ternary|unless)(_\w+)?$|^\w*(if|switch|match|case|conditional|ternary)_(statement|expression|clause|arm|block|pattern)$|^\w+_case$`,
	FlowIteration: `^(for|foreach|while|do|loop|repeat|until|range_clause)(_\w+)?$|^\w*(for|foreach|while|loop|iteration|comprehension)_(statement|expression|clause|block)$|^\w+_comprehension$|^generator_expression$`,
	FlowControl:   `^(return|yield|break|continue|goto|exit|pass|fallthrough)(_\w+)?$|^\w*(return|yield|break|continue|goto)_(statement|expression)$|^labeled_statement$`,
	FlowAsync:     `^(async|await|go|spawn|select|channel|coroutine|promise|future|send|receive)(_\w+)?$|^\w*(async|await|coroutine|goroutine|channel|select|send|receive)_(statement|expression|block|function|type|clause|case)$`,

	OperationInvocation: `^\w*(call|invocation|invoke)(_\w+)?$|^(new|object_creation|instance_creation)_expression$`,
	OperationData:       `^\w*(assignment|declarator)(_\w+)?$|^(short_)?var(iable)?_(declaration|spec|declarator)$|^(lexical|let)_declaration$|^\w*(member|selector|subscript|index|field|slice)_(expression|access)$|^(attribute|subscript|slice|pair|keyed_element|update_expression|inc_statement|dec_statement)$`,
	OperationOperator:   `^(\w+_)?(binary|unary|boolean|comparison|arithmetic|logical|bitwise|not|range|spread|splat|cast|type_assertion|type_conversion)_(expression|operator|operation|element)$|^(\w+_)?operator$`,
	ExpressionAnonymous: `^(lambda|closure|arrow_function|anonymous_function|func_literal|function_expression|closure_expression|anonymous_class|generator_function)(_\w+)?$|^\w*(lambda|closure|anonymous)\w*$`,

	SyntaxIdentifier:  `^\w+_(identifier|name)$|^(identifier|name|id)_\w+$|^\w+_type$|^(parameter|typed_parameter|default_parameter|typed_default_parameter|optional_parameter|required_parameter|keyword_argument|field|property|variable|symbol|label|parameter_declaration|variadic_parameter_declaration|field_declaration|property_signature|self|this|super)$`,
	SyntaxLiteral:     `^\w*(string|char|character|integer|float|number|numeric|boolean|rune|byte|bytes|decimal|imaginary|regex|heredoc)(_\w+)?$|^\w*literal\w*$|^(true|false|none|null|nil|iota|undefined|void)$`,
	SyntaxAnnotation:  `^(decorator|annotation|attribute_item|inner_attribute_item|marker_annotation|type_annotation|pragma|directive|modifiers?|visibility_modifier|lifetime|type_parameters?|type_arguments|attribute_list|meta_item)(_\w+)?$|^\w*(decorator|annotation|modifier|pragma)s?$`,
	SyntaxPunctuation: `^\w*(punctuation|delimiter|bracket|paren|semicolon|comma|brace|colon|newline|indent|dedent|whitespace|escape_sequence|line_continuation)\w*$|^\w*_list$|^(arguments|parameters|formal_parameters|block|statement_block|compound_statement|body)$`,
}

// tierMatch is one category that a node type matched in the tier phase.
type tierMatch struct {
	category   Category
	confidence float64
	pattern    string
}

// TierMatcher holds the precompiled tier patterns and the exact operator and
// punctuation tables. It is immutable and safe for concurrent use.
type TierMatcher struct {
	operators   map[string]struct{}
	punctuation map[string]struct{}
	patterns    [numCategories]*regexp.Regexp
}

// NewTierMatcher compiles the tier patterns.
func NewTierMatcher() (*TierMatcher, error) {
	m := &TierMatcher{
		operators:   make(map[string]struct{}, len(operatorTokens)),
		punctuation: make(map[string]struct{}, len(punctuationTokens)),
	}
	for _, op := range operatorTokens {
		m.operators[op] = struct{}{}
	}
	for _, p := range punctuationTokens {
		m.punctuation[p] = struct{}{}
	}
	for c, src := range tierPatterns {
		re, err := regexp.Compile(`(?i)` + src)
		if err != nil {
			return nil, fmt.Errorf("compile tier pattern for %s: %w", Category(c), err)
		}
		m.patterns[c] = re
	}
	return m, nil
}

// tierConfidence is the confidence of a regex match in a rank. Lower ranks
// have narrower patterns and score higher.
func tierConfidence(r Rank) float64 {
	return min(0.4+0.1*float64(r), 0.9)
}

// match returns the first tier match for nodeType.
func (m *TierMatcher) match(nodeType string) (tierMatch, bool) {
	if tm, ok := m.matchExact(nodeType); ok {
		return tm, true
	}
	lower := strings.ToLower(nodeType)
	for _, r := range Ranks() {
		for _, c := range CategoriesForRank(r) {
			if m.patterns[c].MatchString(lower) {
				return tierMatch{category: c, confidence: tierConfidence(r), pattern: tierPatterns[c]}, true
			}
		}
	}
	return tierMatch{}, false
}

// matchAll returns every category whose pattern matches nodeType, in rank order.
func (m *TierMatcher) matchAll(nodeType string) []tierMatch {
	var out []tierMatch
	if tm, ok := m.matchExact(nodeType); ok {
		out = append(out, tm)
	}
	lower := strings.ToLower(nodeType)
	for c := Category(0); c < numCategories; c++ {
		if m.patterns[c].MatchString(lower) {
			out = append(out, tierMatch{category: c, confidence: tierConfidence(c.Rank()), pattern: tierPatterns[c]})
		}
	}
	return out
}

func (m *TierMatcher) matchExact(nodeType string) (tierMatch, bool) {
	lower := strings.ToLower(nodeType)
	if _, ok := m.operators[lower]; ok {
		return tierMatch{category: OperationOperator, confidence: operatorConfidence, pattern: nodeType}, true
	}
	if _, ok := m.punctuation[nodeType]; ok {
		return tierMatch{category: SyntaxPunctuation, confidence: punctuationConfidence, pattern: nodeType}, true
	}
	return tierMatch{}, false
}

// Matches reports whether nodeType matches any tier pattern or exact token.
func (m *TierMatcher) Matches(nodeType string) bool {
	_, ok := m.match(nodeType)
	return ok
}
