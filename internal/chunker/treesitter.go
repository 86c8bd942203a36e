package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	tstype "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/dshills/codeweave/internal/language"
	"github.com/dshills/codeweave/pkg/types"
)

const treeSitterChunkerName = "tree_sitter"

// definition node types that become chunks, per language
var treeSitterDefinitions = map[string]map[string]bool{
	language.Python: {
		"function_definition":  true,
		"class_definition":     true,
		"decorated_definition": true,
	},
	language.JavaScript: {
		"function_declaration":           true,
		"generator_function_declaration": true,
		"class_declaration":              true,
		"lexical_declaration":            true,
	},
	language.TypeScript: {
		"function_declaration":       true,
		"class_declaration":          true,
		"abstract_class_declaration": true,
		"interface_declaration":      true,
		"type_alias_declaration":     true,
		"enum_declaration":           true,
		"module":                     true,
		"lexical_declaration":        true,
	},
	language.Rust: {
		"function_item":    true,
		"struct_item":      true,
		"enum_item":        true,
		"trait_item":       true,
		"impl_item":        true,
		"mod_item":         true,
		"macro_definition": true,
		"type_item":        true,
		"const_item":       true,
		"static_item":      true,
	},
}

// nodes whose only job is to wrap a definition; the chunk covers the wrapper
var treeSitterWrappers = map[string]bool{
	"export_statement":     true,
	"decorated_definition": true,
}

// TreeSitterChunker chunks Python, JavaScript, TypeScript and Rust using
// tree-sitter grammars. Each instance owns its parser and must not be
// shared across goroutines.
type TreeSitterChunker struct {
	language    string
	definitions map[string]bool
	parser      *sitter.Parser
	gov         Governor
}

// NewTreeSitterChunker creates a chunker for lang. It fails with
// ErrUnsupportedLanguage when no grammar is bundled for lang.
func NewTreeSitterChunker(lang string, gov Governor) (*TreeSitterChunker, error) {
	grammar, defs := grammarFor(lang)
	if grammar == nil {
		return nil, fmt.Errorf("tree-sitter %s: %w", lang, types.ErrUnsupportedLanguage)
	}
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	return &TreeSitterChunker{
		language:    lang,
		definitions: defs,
		parser:      p,
		gov:         gov.withDefaults(),
	}, nil
}

func grammarFor(lang string) (*sitter.Language, map[string]bool) {
	switch strings.ToLower(lang) {
	case language.Python:
		return python.GetLanguage(), treeSitterDefinitions[language.Python]
	case language.JavaScript, language.JSX:
		return javascript.GetLanguage(), treeSitterDefinitions[language.JavaScript]
	case language.TypeScript:
		return tstype.GetLanguage(), treeSitterDefinitions[language.TypeScript]
	case language.TSX:
		return tsx.GetLanguage(), treeSitterDefinitions[language.TypeScript]
	case language.Rust:
		return rust.GetLanguage(), treeSitterDefinitions[language.Rust]
	}
	return nil, nil
}

// Name implements Chunker.
func (c *TreeSitterChunker) Name() string { return treeSitterChunkerName }

// Chunk implements Chunker.
func (c *TreeSitterChunker) Chunk(ctx context.Context, content []byte, filePath string, extra map[string]any) ([]*types.Chunk, error) {
	if !utf8.Valid(content) {
		return nil, &types.BinaryFileError{FilePath: filePath}
	}
	if isBlank(string(content)) {
		return nil, nil
	}

	tree, err := c.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &types.ParseError{File: filePath, Language: c.language, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, c.syntaxError(root, filePath)
	}

	var nodes []*sitter.Node
	if err := c.collect(ctx, root, filePath, &nodes); err != nil {
		return nil, err
	}

	text := string(content)
	chunks := make([]*types.Chunk, 0, len(nodes))
	for _, n := range nodes {
		chunks = append(chunks, c.chunkForNode(n, text, filePath, extra))
	}
	if len(chunks) == 0 {
		lines := strings.Count(text, "\n") + 1
		fields := map[string]any{
			types.ContextChunkerType: treeSitterChunkerName,
			types.ContextNodeType:    root.Type(),
		}
		chunks = append(chunks, newChunk(text, filePath, c.language, types.LineRange{Start: 1, End: lines}, "module", fields, extra))
	}

	if len(chunks) > c.gov.MaxChunks {
		return nil, &types.ChunkLimitExceededError{Count: len(chunks), Limit: c.gov.MaxChunks, FilePath: filePath}
	}
	return chunks, nil
}

type depthNode struct {
	node  *sitter.Node
	depth int
}

// collect walks the whole tree, enforcing the depth limit, and gathers the
// outermost definition nodes in source order.
func (c *TreeSitterChunker) collect(ctx context.Context, root *sitter.Node, filePath string, out *[]*sitter.Node) error {
	stack := []depthNode{{root, 1}}
	visited := 0
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		visited++
		if visited%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if top.depth > c.gov.MaxASTDepth {
			return &types.ASTDepthExceededError{FilePath: filePath, Depth: top.depth, Limit: c.gov.MaxASTDepth}
		}

		n := top.node
		if c.definitions[n.Type()] && !c.insideDefinition(n) {
			*out = append(*out, c.outermost(n))
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, depthNode{n.NamedChild(i), top.depth + 1})
		}
	}
	return nil
}

// insideDefinition reports whether an ancestor of n is already a chunk.
func (c *TreeSitterChunker) insideDefinition(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if c.definitions[p.Type()] {
			return true
		}
	}
	return false
}

func (c *TreeSitterChunker) outermost(n *sitter.Node) *sitter.Node {
	if p := n.Parent(); p != nil && treeSitterWrappers[p.Type()] {
		return p
	}
	return n
}

func (c *TreeSitterChunker) chunkForNode(n *sitter.Node, content, filePath string, extra map[string]any) *types.Chunk {
	def := n
	if treeSitterWrappers[n.Type()] {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if child := n.NamedChild(i); c.definitions[child.Type()] {
				def = child
				break
			}
		}
	}

	name := def.Type()
	named := def
	if def.Type() == "lexical_declaration" && def.NamedChildCount() > 0 {
		named = def.NamedChild(0)
	}
	if nameNode := named.ChildByFieldName("name"); nameNode != nil {
		name = nameNode.Content([]byte(content))
	}

	fields := map[string]any{
		types.ContextChunkerType: treeSitterChunkerName,
		types.ContextNodeType:    def.Type(),
		types.ContextSymbolName:  name,
	}
	lr := types.LineRange{
		Start: int(n.StartPoint().Row) + 1,
		End:   int(n.EndPoint().Row) + 1,
	}
	return newChunk(content[n.StartByte():n.EndByte()], filePath, c.language, lr, name, fields, extra)
}

// syntaxError locates the first ERROR or missing node for the report.
func (c *TreeSitterChunker) syntaxError(root *sitter.Node, filePath string) error {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "ERROR" || n.IsMissing() {
			p := n.StartPoint()
			return &types.ParseError{
				File:     filePath,
				Language: c.language,
				Line:     int(p.Row) + 1,
				Column:   int(p.Column) + 1,
				Message:  fmt.Sprintf("syntax error near %s", n.Type()),
			}
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return &types.ParseError{File: filePath, Language: c.language, Message: "syntax error"}
}
