package parser

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/scanner"
	"go/token"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/codeweave/pkg/types"
)

// parseMode keeps comments for doc extraction and skips identifier
// resolution, which nothing here uses.
const parseMode = parser.ParseComments | parser.SkipObjectResolution

// Parser extracts top-level declarations from Go source. A Parser holds no
// state between calls, so one instance may parse many files.
type Parser struct{}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{}
}

// ParseFile reads and parses a Go source file
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(filePath, content)
}

// Parse extracts declarations, imports and the package name from Go source.
// Syntax errors are recorded on the result with their positions and the
// declarations of the partial AST are still returned; callers that need a
// clean parse check HasErrors.
func (p *Parser) Parse(filePath string, content []byte) (*types.ParseResult, error) {
	result := &types.ParseResult{}
	fset := token.NewFileSet()

	file, err := parser.ParseFile(fset, filePath, content, parseMode)
	if err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) {
			for _, e := range list {
				result.AddError(filePath, e.Pos.Line, e.Pos.Column, e.Msg)
			}
		} else {
			result.AddError(filePath, 0, 0, fmt.Sprintf("syntax error: %v", err))
		}
	}
	if file == nil {
		return result, nil
	}

	if file.Name != nil {
		result.PackageName = file.Name.Name
	}
	result.Imports = imports(file)
	result.MaxDepth = maxDepth(file)

	w := &declWalker{fset: fset, pkg: result.PackageName}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			w.funcDecl(d)
		case *ast.GenDecl:
			w.genDecl(d)
		}
	}
	result.Symbols = w.symbols
	return result, nil
}

func imports(file *ast.File) []types.Import {
	out := make([]types.Import, 0, len(file.Imports))
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			path = strings.Trim(spec.Path.Value, "`\"")
		}
		imp := types.Import{Path: path}
		if spec.Name != nil {
			imp.Alias = spec.Name.Name
		}
		out = append(out, imp)
	}
	return out
}

// maxDepth is the deepest node nesting in the file. Inspect calls the
// visitor with nil after a node's children, which is where depth unwinds.
func maxDepth(file *ast.File) int {
	depth, deepest := 0, 0
	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			depth--
			return false
		}
		depth++
		if depth > deepest {
			deepest = depth
		}
		return true
	})
	return deepest
}

// declWalker turns top-level declarations into symbols
type declWalker struct {
	fset    *token.FileSet
	pkg     string
	symbols []types.Symbol
}

func (w *declWalker) add(name string, kind types.SymbolKind, node ast.Node, doc *ast.CommentGroup) *types.Symbol {
	w.symbols = append(w.symbols, types.Symbol{
		Name:     name,
		Kind:     kind,
		Package:  w.pkg,
		Exported: token.IsExported(name),
		Doc:      docText(doc),
		Start:    w.position(node.Pos()),
		End:      w.position(node.End()),
	})
	return &w.symbols[len(w.symbols)-1]
}

func (w *declWalker) funcDecl(fn *ast.FuncDecl) {
	kind := types.KindFunction
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		kind = types.KindMethod
	}
	sym := w.add(fn.Name.Name, kind, fn, fn.Doc)
	if kind == types.KindMethod {
		sym.Receiver = receiverName(fn.Recv.List[0].Type)
	}

	// Render the header only
	header := *fn
	header.Doc = nil
	header.Body = nil
	sym.Signature = w.render(&header)
}

func (w *declWalker) genDecl(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			w.typeSpec(s, pickDoc(s.Doc, decl))
		case *ast.ValueSpec:
			kind := types.KindVar
			if decl.Tok == token.CONST {
				kind = types.KindConst
			}
			doc := pickDoc(s.Doc, decl)
			for _, name := range s.Names {
				sym := w.add(name.Name, kind, s, doc)
				sym.Signature = w.valueSignature(decl.Tok, name.Name, s)
			}
		}
	}
}

func (w *declWalker) typeSpec(spec *ast.TypeSpec, doc *ast.CommentGroup) {
	name := spec.Name.Name
	switch t := spec.Type.(type) {
	case *ast.StructType:
		sym := w.add(name, types.KindStruct, spec, doc)
		sym.Signature = fmt.Sprintf("type %s%s struct { %d fields }", name, w.typeParams(spec), t.Fields.NumFields())
		w.fields(name, t)
	case *ast.InterfaceType:
		sym := w.add(name, types.KindInterface, spec, doc)
		sym.Signature = fmt.Sprintf("type %s%s interface { %d methods }", name, w.typeParams(spec), t.Methods.NumFields())
	default:
		sym := w.add(name, types.KindType, spec, doc)
		sym.Signature = "type " + w.render(spec)
	}
}

// fields records named struct fields with their owning struct as receiver
func (w *declWalker) fields(owner string, st *ast.StructType) {
	if st.Fields == nil {
		return
	}
	for _, field := range st.Fields.List {
		typ := w.render(field.Type)
		for _, name := range field.Names {
			sym := w.add(name.Name, types.KindField, field, field.Doc)
			sym.Receiver = owner
			sym.Signature = name.Name + " " + typ
		}
	}
}

func (w *declWalker) typeParams(spec *ast.TypeSpec) string {
	if spec.TypeParams == nil || len(spec.TypeParams.List) == 0 {
		return ""
	}
	parts := make([]string, 0, len(spec.TypeParams.List))
	for _, f := range spec.TypeParams.List {
		names := make([]string, len(f.Names))
		for i, n := range f.Names {
			names[i] = n.Name
		}
		parts = append(parts, strings.Join(names, ", ")+" "+w.render(f.Type))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (w *declWalker) valueSignature(tok token.Token, name string, spec *ast.ValueSpec) string {
	switch {
	case spec.Type != nil:
		return fmt.Sprintf("%s %s %s", tok, name, w.render(spec.Type))
	case len(spec.Values) > 0:
		return fmt.Sprintf("%s %s = ...", tok, name)
	default:
		return fmt.Sprintf("%s %s", tok, name)
	}
}

// render prints a node with gofmt spacing
func (w *declWalker) render(node any) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, w.fset, node); err != nil {
		return ""
	}
	return buf.String()
}

func (w *declWalker) position(pos token.Pos) types.Position {
	p := w.fset.Position(pos)
	return types.Position{Line: p.Line, Column: p.Column}
}

// pickDoc prefers the spec's own doc and falls back to the declaration's
// when the declaration holds a single spec.
func pickDoc(own *ast.CommentGroup, decl *ast.GenDecl) *ast.CommentGroup {
	if own != nil || len(decl.Specs) != 1 {
		return own
	}
	return decl.Doc
}

func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

// receiverName strips pointers and type arguments from a receiver type
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}
