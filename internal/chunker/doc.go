// Package chunker divides source files into semantic chunks for indexing and search.
//
// Three strategies implement the Chunker interface:
//
//   - DelimiterChunker works for any language. It scans the text once for
//     the start and end literals of the language's delimiter patterns, pairs
//     them with one LIFO stack per delimiter, then keeps the highest
//     priority boundaries that do not overlap.
//   - GoASTChunker emits one chunk per top-level Go declaration using go/ast.
//   - TreeSitterChunker does the same for Python, JavaScript, TypeScript
//     and Rust using tree-sitter grammars.
//
// # Basic Usage
//
//	sel := chunker.NewSelector(language.NewRegistry(), chunker.DefaultGovernor(), logger)
//	chunks, err := sel.ChunkFile(ctx, "/path/to/file.py", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, chunk := range chunks {
//	    fmt.Printf("%s: lines %d-%d\n",
//	        chunk.Metadata.Name, chunk.LineRange.Start, chunk.LineRange.End)
//	}
//
// # Fallback
//
// For AST-capable languages the Selector returns the AST chunker wrapped in
// a GracefulChunker. If the AST chunker fails (syntax error, depth limit,
// anything else) the delimiter chunker runs once on the same content.
// There is exactly one fallback level.
//
// Chunkers keep per-file state and are created fresh for each file; only
// the Selector and the language registry are shared.
//
// # Limits
//
// The Governor carries the per-file chunk ceiling, the file size ceiling,
// the per-file timeout and the AST depth limit. Files above the size
// ceiling are skipped with ErrFileTooLarge before being read.
package chunker
