// Package parser extracts symbols and metadata from Go source files using AST parsing.
//
// The parser uses the standard library (go/parser, go/ast, go/printer) to
// extract top-level functions, methods, types, constants and variables with
// their positions and gofmt-rendered signatures. The Go AST chunker turns
// these symbols into chunks.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.Parse("service.go", content)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, symbol := range result.Symbols {
//	    fmt.Printf("Found %s: %s (%s)\n", symbol.Kind, symbol.Name, symbol.NodeType())
//	}
//
// # Error Handling
//
// Syntax errors do not fail the call. Each one is recorded on the result
// with its line and column, and symbols from the partial AST are kept:
//
//	if result.HasErrors() {
//	    return result.FirstError()
//	}
//
// Each call uses its own token.FileSet, so a Parser can be shared.
package parser
