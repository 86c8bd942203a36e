package types

// ParseResult represents the output of parsing a Go source file
type ParseResult struct {
	// Extracted data
	Symbols     []Symbol
	Imports     []Import
	PackageName string

	// MaxDepth is the deepest AST nesting seen while extracting symbols
	MaxDepth int

	// Errors encountered during parsing
	Errors []ParseError
}

// Import represents an import statement in a Go file
type Import struct {
	Path  string // Import path (e.g., "github.com/pkg/errors")
	Alias string // Import alias if present (e.g., ".")
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(file string, line, col int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		File:     file,
		Language: "go",
		Line:     line,
		Column:   col,
		Message:  msg,
	})
}

// FirstError returns the first recorded error, or nil.
func (pr *ParseResult) FirstError() *ParseError {
	if len(pr.Errors) == 0 {
		return nil
	}
	return &pr.Errors[0]
}
