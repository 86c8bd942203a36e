package types

import (
	"errors"
	"fmt"
)

// SymbolKind is the kind of a top-level Go declaration
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindConst     SymbolKind = "const"
	KindVar       SymbolKind = "var"
	KindField     SymbolKind = "field"
)

// nodeTypes maps symbol kinds onto the tree-sitter-go node type of the
// enclosing declaration, so Go AST chunks classify the same way tree-sitter
// chunks would.
var nodeTypes = map[SymbolKind]string{
	KindFunction:  "function_declaration",
	KindMethod:    "method_declaration",
	KindStruct:    "type_declaration",
	KindInterface: "type_declaration",
	KindType:      "type_declaration",
	KindConst:     "const_declaration",
	KindVar:       "var_declaration",
	KindField:     "field_declaration",
}

// Position is a 1-indexed line and column
type Position struct {
	Line   int
	Column int
}

// Symbol is a declaration found by the Go parser
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Package  string
	Receiver string // method receiver or owning struct of a field
	Exported bool

	// Signature is the declaration rendered without its body
	Signature string
	Doc       string

	Start Position
	End   Position
}

// NodeType returns the tree-sitter style node type of the declaration.
// Unknown kinds map to "source_file".
func (s *Symbol) NodeType() string {
	if nt, ok := nodeTypes[s.Kind]; ok {
		return nt
	}
	return "source_file"
}

// QualifiedName is Receiver.Name for methods and fields, Name otherwise.
func (s *Symbol) QualifiedName() string {
	if s.Receiver == "" {
		return s.Name
	}
	return s.Receiver + "." + s.Name
}

// Lines is the number of source lines the symbol spans
func (s *Symbol) Lines() int {
	return s.End.Line - s.Start.Line + 1
}

// Validate checks the invariants the chunker relies on
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}
	if _, ok := nodeTypes[s.Kind]; !ok {
		return fmt.Errorf("invalid symbol kind %q", s.Kind)
	}
	if s.Package == "" {
		return errors.New("package name is required")
	}
	if s.Kind == KindMethod && s.Receiver == "" {
		return errors.New("methods must have a receiver type")
	}
	if s.Receiver != "" && s.Kind != KindMethod && s.Kind != KindField {
		return fmt.Errorf("%s symbols cannot have a receiver", s.Kind)
	}
	if s.Start.Line <= 0 || s.End.Line < s.Start.Line {
		return fmt.Errorf("invalid line span %d-%d", s.Start.Line, s.End.Line)
	}
	return nil
}
