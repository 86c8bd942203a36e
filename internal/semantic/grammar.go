package semantic

// GrammarMethod records how a grammar entry was derived.
type GrammarMethod string

const (
	// MethodAnywhere marks nodes that mean the same thing wherever they occur.
	MethodAnywhere GrammarMethod = "anywhere"
	// MethodCategory marks nodes whose grammar rule names the construct.
	MethodCategory GrammarMethod = "category"
	// MethodRole marks nodes classified by the role they play in a parent.
	MethodRole GrammarMethod = "role"
	// MethodPositional marks structural nodes classified by position only.
	MethodPositional GrammarMethod = "positional"
)

const (
	anywhereConfidence   = 0.99
	categoryConfidence   = 0.90
	roleConfidence       = 0.85
	positionalConfidence = 0.70
)

// GrammarEntry is a grammar-derived classification.
type GrammarEntry struct {
	Category   Category
	Confidence float64
	Method     GrammarMethod
}

// GrammarSource looks up grammar-derived classifications.
type GrammarSource interface {
	Lookup(nodeType, language string) (GrammarEntry, bool)
}

// GrammarTables is a GrammarSource backed by per-language maps.
type GrammarTables map[string]map[string]GrammarEntry

// grammarDialects maps dialects onto the table of their base language.
var grammarDialects = map[string]string{
	"jsx": "javascript",
	"tsx": "typescript",
}

// Lookup implements GrammarSource.
func (g GrammarTables) Lookup(nodeType, language string) (GrammarEntry, bool) {
	lang := normalizeLanguage(language)
	if e, ok := g[lang][nodeType]; ok {
		return e, true
	}
	if base, ok := grammarDialects[lang]; ok {
		e, ok := g[base][nodeType]
		return e, ok
	}
	return GrammarEntry{}, false
}

// Languages lists the languages with a table.
func (g GrammarTables) Languages() []string {
	out := make([]string, 0, len(g))
	for lang := range g {
		out = append(out, lang)
	}
	return out
}

// DefaultGrammar returns the curated tree-sitter node tables. The returned
// value is freshly built and owned by the caller.
func DefaultGrammar() GrammarTables {
	ts := grammarTable(javascriptGrammar)
	for k, v := range typescriptExtras {
		ts[k] = v
	}
	return GrammarTables{
		"go":         grammarTable(goGrammar),
		"python":     grammarTable(pythonGrammar),
		"javascript": grammarTable(javascriptGrammar),
		"typescript": ts,
		"rust":       grammarTable(rustGrammar),
	}
}

type grammarGroup struct {
	category Category
	method   GrammarMethod
	nodes    []string
}

func grammarTable(groups []grammarGroup) map[string]GrammarEntry {
	out := make(map[string]GrammarEntry)
	for _, g := range groups {
		for _, n := range g.nodes {
			out[n] = GrammarEntry{Category: g.category, Confidence: methodConfidence(g.method), Method: g.method}
		}
	}
	return out
}

func methodConfidence(m GrammarMethod) float64 {
	switch m {
	case MethodAnywhere:
		return anywhereConfidence
	case MethodCategory:
		return categoryConfidence
	case MethodRole:
		return roleConfidence
	default:
		return positionalConfidence
	}
}

var goGrammar = []grammarGroup{
	{DocumentationStructured, MethodAnywhere, []string{"comment"}},
	{BoundaryModule, MethodCategory, []string{"package_clause", "import_declaration", "import_spec", "import_spec_list"}},
	{DefinitionCallable, MethodCategory, []string{"function_declaration", "method_declaration"}},
	{DefinitionCallable, MethodRole, []string{"method_elem", "method_spec"}},
	{DefinitionType, MethodCategory, []string{"type_declaration", "type_spec", "type_alias"}},
	{DefinitionType, MethodRole, []string{"struct_type", "interface_type"}},
	{DefinitionData, MethodCategory, []string{"const_declaration", "const_spec"}},
	{OperationData, MethodRole, []string{"var_declaration", "var_spec", "short_var_declaration", "assignment_statement", "inc_statement", "dec_statement", "selector_expression", "index_expression", "slice_expression", "keyed_element"}},
	{FlowBranching, MethodCategory, []string{"if_statement", "expression_switch_statement", "type_switch_statement", "expression_case", "type_case", "default_case"}},
	{FlowIteration, MethodCategory, []string{"for_statement", "for_clause", "range_clause"}},
	{FlowControl, MethodCategory, []string{"return_statement", "break_statement", "continue_statement", "goto_statement", "fallthrough_statement", "labeled_statement"}},
	{FlowAsync, MethodCategory, []string{"go_statement", "select_statement", "send_statement", "receive_statement", "communication_case", "channel_type"}},
	{BoundaryResource, MethodCategory, []string{"defer_statement"}},
	{OperationInvocation, MethodCategory, []string{"call_expression"}},
	{OperationOperator, MethodCategory, []string{"binary_expression", "unary_expression", "type_assertion_expression", "type_conversion_expression"}},
	{ExpressionAnonymous, MethodCategory, []string{"func_literal"}},
	{SyntaxIdentifier, MethodRole, []string{"identifier", "field_identifier", "type_identifier", "package_identifier", "parameter_declaration", "variadic_parameter_declaration", "field_declaration"}},
	{SyntaxLiteral, MethodCategory, []string{"interpreted_string_literal", "raw_string_literal", "int_literal", "float_literal", "imaginary_literal", "rune_literal", "composite_literal", "true", "false", "nil", "iota"}},
	{SyntaxAnnotation, MethodRole, []string{"type_parameter_list", "type_arguments"}},
	{SyntaxPunctuation, MethodPositional, []string{"argument_list", "parameter_list", "block", "field_declaration_list", "literal_value"}},
}

var pythonGrammar = []grammarGroup{
	{DocumentationStructured, MethodAnywhere, []string{"comment"}},
	{BoundaryModule, MethodCategory, []string{"module", "import_statement", "import_from_statement", "future_import_statement", "aliased_import", "wildcard_import"}},
	{DefinitionCallable, MethodCategory, []string{"function_definition"}},
	{DefinitionCallable, MethodRole, []string{"decorated_definition"}},
	{DefinitionType, MethodCategory, []string{"class_definition"}},
	{SyntaxAnnotation, MethodCategory, []string{"decorator"}},
	{SyntaxAnnotation, MethodRole, []string{"type"}},
	{FlowBranching, MethodCategory, []string{"if_statement", "elif_clause", "else_clause", "match_statement", "case_clause", "conditional_expression"}},
	{FlowIteration, MethodCategory, []string{"for_statement", "while_statement", "list_comprehension", "dictionary_comprehension", "set_comprehension", "generator_expression", "for_in_clause"}},
	{FlowControl, MethodCategory, []string{"return_statement", "break_statement", "continue_statement", "pass_statement", "yield"}},
	{FlowAsync, MethodCategory, []string{"await"}},
	{BoundaryError, MethodCategory, []string{"try_statement", "except_clause", "finally_clause", "raise_statement", "assert_statement"}},
	{BoundaryResource, MethodCategory, []string{"with_statement", "with_clause", "with_item"}},
	{OperationInvocation, MethodCategory, []string{"call"}},
	{OperationData, MethodRole, []string{"assignment", "augmented_assignment", "attribute", "subscript", "global_statement", "nonlocal_statement", "pair"}},
	{OperationOperator, MethodCategory, []string{"binary_operator", "boolean_operator", "comparison_operator", "not_operator", "unary_operator"}},
	{ExpressionAnonymous, MethodCategory, []string{"lambda"}},
	{SyntaxIdentifier, MethodRole, []string{"identifier", "keyword_argument", "typed_parameter", "default_parameter", "typed_default_parameter", "dotted_name"}},
	{SyntaxLiteral, MethodCategory, []string{"string", "string_content", "concatenated_string", "integer", "float", "true", "false", "none"}},
	{SyntaxPunctuation, MethodPositional, []string{"argument_list", "parameters", "block"}},
}

var javascriptGrammar = []grammarGroup{
	{DocumentationStructured, MethodAnywhere, []string{"comment"}},
	{BoundaryModule, MethodCategory, []string{"program", "import_statement", "export_statement", "import_clause", "import_specifier", "export_specifier", "namespace_import"}},
	{DefinitionCallable, MethodCategory, []string{"function_declaration", "generator_function_declaration", "method_definition"}},
	{DefinitionType, MethodCategory, []string{"class_declaration", "class"}},
	{OperationData, MethodRole, []string{"lexical_declaration", "variable_declaration", "variable_declarator", "assignment_expression", "augmented_assignment_expression", "member_expression", "subscript_expression", "pair", "update_expression"}},
	{FlowBranching, MethodCategory, []string{"if_statement", "else_clause", "switch_statement", "switch_case", "switch_default", "ternary_expression"}},
	{FlowIteration, MethodCategory, []string{"for_statement", "for_in_statement", "while_statement", "do_statement"}},
	{FlowControl, MethodCategory, []string{"return_statement", "break_statement", "continue_statement", "labeled_statement", "yield_expression"}},
	{FlowAsync, MethodCategory, []string{"await_expression"}},
	{BoundaryError, MethodCategory, []string{"try_statement", "catch_clause", "finally_clause", "throw_statement"}},
	{OperationInvocation, MethodCategory, []string{"call_expression", "new_expression"}},
	{OperationInvocation, MethodRole, []string{"jsx_element", "jsx_self_closing_element"}},
	{OperationOperator, MethodCategory, []string{"binary_expression", "unary_expression", "spread_element"}},
	{ExpressionAnonymous, MethodCategory, []string{"arrow_function", "function_expression", "function", "generator_function"}},
	{SyntaxIdentifier, MethodRole, []string{"identifier", "property_identifier", "shorthand_property_identifier", "private_property_identifier"}},
	{SyntaxLiteral, MethodCategory, []string{"string", "template_string", "number", "true", "false", "null", "undefined", "regex"}},
	{SyntaxLiteral, MethodRole, []string{"jsx_text"}},
	{SyntaxAnnotation, MethodCategory, []string{"decorator"}},
	{SyntaxAnnotation, MethodRole, []string{"jsx_attribute"}},
	{OperationData, MethodPositional, []string{"jsx_expression"}},
	{SyntaxPunctuation, MethodPositional, []string{"arguments", "formal_parameters", "statement_block", "class_body"}},
}

var typescriptExtras = grammarTable([]grammarGroup{
	{DefinitionType, MethodCategory, []string{"interface_declaration", "type_alias_declaration", "enum_declaration", "abstract_class_declaration"}},
	{DefinitionCallable, MethodRole, []string{"method_signature", "function_signature"}},
	{BoundaryModule, MethodCategory, []string{"internal_module", "module"}},
	{BoundaryModule, MethodRole, []string{"ambient_declaration"}},
	{SyntaxAnnotation, MethodRole, []string{"type_annotation", "type_parameters", "type_arguments"}},
	{SyntaxIdentifier, MethodRole, []string{"type_identifier", "predefined_type", "property_signature", "required_parameter", "optional_parameter"}},
	{OperationOperator, MethodCategory, []string{"as_expression", "satisfies_expression", "non_null_expression"}},
	{SyntaxPunctuation, MethodPositional, []string{"enum_body", "object_type"}},
})

var rustGrammar = []grammarGroup{
	{DocumentationStructured, MethodAnywhere, []string{"line_comment", "block_comment"}},
	{BoundaryModule, MethodCategory, []string{"source_file", "mod_item", "use_declaration", "extern_crate_declaration"}},
	{DefinitionCallable, MethodCategory, []string{"function_item"}},
	{DefinitionCallable, MethodRole, []string{"function_signature_item", "macro_definition"}},
	{DefinitionType, MethodCategory, []string{"struct_item", "enum_item", "union_item", "trait_item", "impl_item", "type_item"}},
	{DefinitionData, MethodCategory, []string{"const_item", "static_item"}},
	{DefinitionData, MethodRole, []string{"enum_variant"}},
	{OperationData, MethodRole, []string{"let_declaration", "assignment_expression", "compound_assignment_expr", "field_expression", "index_expression"}},
	{FlowBranching, MethodCategory, []string{"if_expression", "match_expression", "match_arm", "else_clause"}},
	{FlowIteration, MethodCategory, []string{"for_expression", "while_expression", "loop_expression"}},
	{FlowControl, MethodCategory, []string{"return_expression", "break_expression", "continue_expression"}},
	{FlowAsync, MethodCategory, []string{"await_expression", "async_block"}},
	{BoundaryError, MethodRole, []string{"try_expression"}},
	{BoundaryResource, MethodCategory, []string{"unsafe_block"}},
	{OperationInvocation, MethodCategory, []string{"call_expression", "macro_invocation"}},
	{OperationOperator, MethodCategory, []string{"binary_expression", "unary_expression", "reference_expression", "type_cast_expression", "range_expression"}},
	{ExpressionAnonymous, MethodCategory, []string{"closure_expression"}},
	{SyntaxIdentifier, MethodRole, []string{"identifier", "field_identifier", "type_identifier", "scoped_identifier", "primitive_type", "self"}},
	{SyntaxLiteral, MethodCategory, []string{"string_literal", "raw_string_literal", "char_literal", "integer_literal", "float_literal", "boolean_literal"}},
	{SyntaxAnnotation, MethodCategory, []string{"attribute_item", "inner_attribute_item", "lifetime", "visibility_modifier", "type_parameters", "type_arguments"}},
	{SyntaxPunctuation, MethodPositional, []string{"block", "arguments", "parameters", "field_declaration_list", "declaration_list"}},
}
