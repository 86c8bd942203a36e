package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/codeweave/internal/parser"
	"github.com/dshills/codeweave/pkg/types"
)

const goASTChunkerName = "go_ast"

// GoASTChunker creates one chunk per top-level Go declaration using the
// go/ast based parser. Syntax errors fail the file with a ParseError so the
// caller can fall back to delimiter chunking.
type GoASTChunker struct {
	parser *parser.Parser
	gov    Governor
}

// NewGoASTChunker creates a new GoASTChunker instance
func NewGoASTChunker(gov Governor) *GoASTChunker {
	return &GoASTChunker{
		parser: parser.New(),
		gov:    gov.withDefaults(),
	}
}

// Name implements Chunker.
func (c *GoASTChunker) Name() string { return goASTChunkerName }

// Chunk implements Chunker.
func (c *GoASTChunker) Chunk(ctx context.Context, content []byte, filePath string, extra map[string]any) ([]*types.Chunk, error) {
	if !utf8.Valid(content) {
		return nil, &types.BinaryFileError{FilePath: filePath}
	}
	if isBlank(string(content)) {
		return nil, nil
	}

	parseResult, err := c.parser.Parse(filePath, content)
	if err != nil {
		return nil, &types.ParseError{File: filePath, Language: "go", Err: err}
	}
	if first := parseResult.FirstError(); first != nil {
		pe := *first
		return nil, &pe
	}
	if parseResult.MaxDepth > c.gov.MaxASTDepth {
		return nil, &types.ASTDepthExceededError{
			FilePath: filePath,
			Depth:    parseResult.MaxDepth,
			Limit:    c.gov.MaxASTDepth,
		}
	}

	lines := strings.Split(string(content), "\n")
	packageContext := buildPackageContext(parseResult)

	chunks := make([]*types.Chunk, 0, len(parseResult.Symbols))
	for i := range parseResult.Symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sym := &parseResult.Symbols[i]
		// Fields are part of their struct's chunk
		if sym.Kind == types.KindField {
			continue
		}
		// grouped const/var specs share one declaration range
		if n := len(chunks); n > 0 && sameRange(chunks[n-1].LineRange, sym) {
			continue
		}

		chunk := c.chunkForSymbol(sym, lines, filePath, packageContext, extra)
		if chunk != nil {
			chunks = append(chunks, chunk)
		}
	}

	// A file with no declarations becomes one package-level chunk
	if len(chunks) == 0 {
		chunks = append(chunks, c.packageChunk(parseResult.PackageName, lines, filePath, extra))
	}

	if len(chunks) > c.gov.MaxChunks {
		return nil, &types.ChunkLimitExceededError{Count: len(chunks), Limit: c.gov.MaxChunks, FilePath: filePath}
	}
	return chunks, nil
}

func sameRange(lr types.LineRange, sym *types.Symbol) bool {
	return (sym.Kind == types.KindConst || sym.Kind == types.KindVar) &&
		lr.Start == sym.Start.Line && lr.End == sym.End.Line
}

// chunkForSymbol slices the symbol's lines out of the file
func (c *GoASTChunker) chunkForSymbol(sym *types.Symbol, lines []string, filePath, packageContext string, extra map[string]any) *types.Chunk {
	if sym.Start.Line <= 0 || sym.End.Line <= 0 || sym.Start.Line > len(lines) {
		return nil
	}

	startIdx := sym.Start.Line - 1
	endIdx := sym.End.Line
	if endIdx > len(lines) {
		endIdx = len(lines)
	}

	content := strings.Join(lines[startIdx:endIdx], "\n")
	fields := map[string]any{
		types.ContextChunkerType: goASTChunkerName,
		types.ContextNodeType:    sym.NodeType(),
		types.ContextSymbolKind:  string(sym.Kind),
		types.ContextSymbolName:  sym.Name,
		"signature":              sym.Signature,
		"package":                sym.Package,
		"context_before":         packageContext,
	}
	if sym.Doc != "" {
		fields["doc_comment"] = sym.Doc
	}
	if sym.Receiver != "" {
		fields["receiver"] = sym.Receiver
	}
	if sym.Exported {
		fields["exported"] = true
	}

	lr := types.LineRange{Start: sym.Start.Line, End: endIdx}
	return newChunk(content, filePath, "go", lr, sym.QualifiedName(), fields, extra)
}

// packageChunk covers the whole file
func (c *GoASTChunker) packageChunk(packageName string, lines []string, filePath string, extra map[string]any) *types.Chunk {
	fields := map[string]any{
		types.ContextChunkerType: goASTChunkerName,
		types.ContextNodeType:    "source_file",
		"package":                packageName,
	}
	lr := types.LineRange{Start: 1, End: len(lines)}
	return newChunk(strings.Join(lines, "\n"), filePath, "go", lr, "package "+packageName, fields, extra)
}

// buildPackageContext renders the package clause and imports that every
// chunk of the file shares
func buildPackageContext(parseResult *types.ParseResult) string {
	var b strings.Builder

	if parseResult.PackageName != "" {
		fmt.Fprintf(&b, "package %s\n\n", parseResult.PackageName)
	}

	if len(parseResult.Imports) > 0 {
		b.WriteString("import (\n")
		for _, imp := range parseResult.Imports {
			if imp.Alias != "" {
				fmt.Fprintf(&b, "\t%s %q\n", imp.Alias, imp.Path)
			} else {
				fmt.Fprintf(&b, "\t%q\n", imp.Path)
			}
		}
		b.WriteString(")\n")
	}

	return b.String()
}
