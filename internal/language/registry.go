package language

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/dshills/codeweave/internal/delimiter"
)

// Well-known language identifiers. Languages are plain lower-case strings so
// any extension can become a pseudo-language.
const (
	Go         = "go"
	Python     = "python"
	JavaScript = "javascript"
	JSX        = "jsx"
	TypeScript = "typescript"
	TSX        = "tsx"
	Rust       = "rust"
)

var defaultExtensions = map[string]string{
	".agda":     "agda",
	".bash":     "bash",
	".bat":      "batch",
	".c":        "c",
	".cc":       "cpp",
	".cjs":      JavaScript,
	".clj":      "clojure",
	".cljs":     "clojure",
	".cmake":    "cmake",
	".cpp":      "cpp",
	".cs":       "csharp",
	".css":      "css",
	".csv":      "csv",
	".cu":       "cuda",
	".cxx":      "cpp",
	".dart":     "dart",
	".el":       "elisp",
	".elm":      "elm",
	".erl":      "erlang",
	".ex":       "elixir",
	".exs":      "elixir",
	".f90":      "fortran",
	".fish":     "fish",
	".fs":       "fsharp",
	".gleam":    "gleam",
	".go":       Go,
	".graphql":  "graphql",
	".groovy":   "groovy",
	".h":        "c",
	".hpp":      "cpp",
	".hs":       "haskell",
	".htm":      "html",
	".html":     "html",
	".java":     "java",
	".jl":       "julia",
	".js":       JavaScript,
	".json":     "json",
	".jsx":      JSX,
	".kt":       "kotlin",
	".kts":      "kotlin",
	".less":     "less",
	".lhs":      "lhs",
	".lisp":     "lisp",
	".lua":      "lua",
	".m":        "matlab",
	".md":       "markdown",
	".mjs":      JavaScript,
	".ml":       "ocaml",
	".mli":      "ocaml",
	".nim":      "nim",
	".nix":      "nix",
	".php":      "php",
	".pl":       "perl",
	".proto":    "protobuf",
	".ps1":      "powershell",
	".py":       Python,
	".pyi":      Python,
	".pyx":      "cython",
	".r":        "r",
	".rb":       "ruby",
	".rkt":      "racket",
	".rs":       Rust,
	".rst":      "restructuredtext",
	".sass":     "sass",
	".scala":    "scala",
	".scm":      "scheme",
	".scss":     "scss",
	".sh":       "bash",
	".sml":      "sml",
	".sol":      "solidity",
	".sql":      "sql",
	".svelte":   "svelte",
	".swift":    "swift",
	".tex":      "latex",
	".toml":     "toml",
	".ts":       TypeScript,
	".tsv":      "tsv",
	".tsx":      TSX,
	".txt":      "text",
	".v":        "verilog",
	".vue":      "vue",
	".xml":      "xml",
	".yaml":     "yaml",
	".yml":      "yaml",
	".zig":      "zig",
	".zsh":      "zsh",

	// whole file names
	"Dockerfile": "dockerfile",
	"Makefile":   "make",
}

var astCapable = map[string]bool{
	Go:         true,
	Python:     true,
	JavaScript: true,
	JSX:        true,
	TypeScript: true,
	TSX:        true,
	Rust:       true,
}

// Registry maps file extensions to languages. A Registry is read-only after
// construction and safe for concurrent use.
type Registry struct {
	extensions map[string]string
}

// NewRegistry returns a registry holding the built-in extension table.
func NewRegistry() *Registry {
	ext := make(map[string]string, len(defaultExtensions))
	for k, v := range defaultExtensions {
		ext[k] = v
	}
	return &Registry{extensions: ext}
}

// WithMappings returns a copy of the registry with extra extension mappings.
// Keys may be given with or without the leading dot; mappings override the
// built-in table.
func (r *Registry) WithMappings(mappings map[string]string) *Registry {
	out := &Registry{extensions: make(map[string]string, len(r.extensions)+len(mappings))}
	for k, v := range r.extensions {
		out.extensions[k] = v
	}
	for ext, lang := range mappings {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || lang == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out.extensions[ext] = strings.ToLower(lang)
	}
	return out
}

// Detect returns the language of path. Unknown extensions yield the bare
// lower-case extension; files without an extension yield "text".
func (r *Registry) Detect(path string) string {
	base := filepath.Base(path)
	if lang, ok := r.extensions[base]; ok {
		return lang
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return "text"
	}
	if lang, ok := r.extensions[ext]; ok {
		return lang
	}
	return strings.TrimPrefix(ext, ".")
}

// IsASTCapable reports whether a dedicated AST chunker exists for language.
func (r *Registry) IsASTCapable(language string) bool {
	return astCapable[strings.ToLower(language)]
}

// Family returns the delimiter family for language.
func (r *Registry) Family(language string) delimiter.Family {
	return delimiter.FamilyForLanguage(language)
}

// Languages lists every language reachable through the extension table.
func (r *Registry) Languages() []string {
	seen := make(map[string]struct{})
	for _, lang := range r.extensions {
		seen[lang] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// IsSupported reports whether path has an extension the registry knows.
func (r *Registry) IsSupported(path string) bool {
	base := filepath.Base(path)
	if _, ok := r.extensions[base]; ok {
		return true
	}
	_, ok := r.extensions[strings.ToLower(filepath.Ext(base))]
	return ok
}
