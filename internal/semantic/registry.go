package semantic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrRegistryFrozen is returned when registering into a frozen registry.
var ErrRegistryFrozen = errors.New("semantic: registry is frozen")

// mirrors lists languages whose overrides are copied into a dialect at
// registration time.
var mirrors = map[string]string{
	"javascript": "jsx",
	"typescript": "tsx",
}

// Registry holds explicit node type overrides per language. It accepts
// registrations until Freeze and is read-only afterwards.
type Registry struct {
	mu        sync.RWMutex
	frozen    bool
	overrides map[string]map[string]Category
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{overrides: make(map[string]map[string]Category)}
}

// NewDefaultRegistry returns a registry holding the built-in overrides. It is
// not frozen so callers can add their own entries first.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for lang, table := range defaultOverrides {
		for nodeType, c := range table {
			// Built-in tables only hold valid categories.
			_ = r.Register(lang, nodeType, c)
		}
	}
	return r
}

func normalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// Register adds an override. JavaScript entries are mirrored into JSX and
// TypeScript entries into TSX.
func (r *Registry) Register(language, nodeType string, c Category) error {
	if !c.valid() {
		return fmt.Errorf("register %s/%s: %w", language, nodeType, errInvalidCategory(c))
	}
	lang := normalizeLanguage(language)
	if lang == "" || nodeType == "" {
		return fmt.Errorf("register override: language and node type are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	r.set(lang, nodeType, c)
	if dialect, ok := mirrors[lang]; ok {
		r.set(dialect, nodeType, c)
	}
	return nil
}

// RegisterAll adds every override in table for language.
func (r *Registry) RegisterAll(language string, table map[string]Category) error {
	for nodeType, c := range table {
		if err := r.Register(language, nodeType, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) set(lang, nodeType string, c Category) {
	table, ok := r.overrides[lang]
	if !ok {
		table = make(map[string]Category)
		r.overrides[lang] = table
	}
	table[nodeType] = c
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup returns the override for an exact (language, node type) pair.
func (r *Registry) Lookup(language, nodeType string) (Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.overrides[normalizeLanguage(language)][nodeType]
	return c, ok
}

// Languages lists the languages with at least one override, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.overrides))
	for lang := range r.overrides {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of overrides across all languages.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, table := range r.overrides {
		n += len(table)
	}
	return n
}

func errInvalidCategory(c Category) error {
	return fmt.Errorf("invalid semantic category %d", int(c))
}

var defaultOverrides = map[string]map[string]Category{
	"python": {
		"module":                BoundaryModule,
		"import_statement":      BoundaryModule,
		"import_from_statement": BoundaryModule,
		"function_definition":   DefinitionCallable,
		"decorated_definition":  DefinitionCallable,
		"class_definition":      DefinitionType,
		"lambda":                ExpressionAnonymous,
		"with_statement":        BoundaryResource,
		"try_statement":         BoundaryError,
		"raise_statement":       BoundaryError,
	},
	"javascript": {
		"program":              BoundaryModule,
		"function_declaration": DefinitionCallable,
		"arrow_function":       ExpressionAnonymous,
		"class_declaration":    DefinitionType,
		"import_statement":     BoundaryModule,
		"export_statement":     BoundaryModule,
		"jsx_element":          OperationInvocation,
	},
	"typescript": {
		"program":                BoundaryModule,
		"interface_declaration":  DefinitionType,
		"type_alias_declaration": DefinitionType,
		"enum_declaration":       DefinitionData,
	},
	"go": {
		"source_file":          BoundaryModule,
		"package_clause":       BoundaryModule,
		"function_declaration": DefinitionCallable,
		"method_declaration":   DefinitionCallable,
		"type_declaration":     DefinitionType,
		"go_statement":         FlowAsync,
		"select_statement":     FlowAsync,
		"defer_statement":      BoundaryResource,
	},
	"rust": {
		"source_file":        BoundaryModule,
		"mod_item":           BoundaryModule,
		"use_declaration":    BoundaryModule,
		"function_item":      DefinitionCallable,
		"macro_definition":   DefinitionCallable,
		"struct_item":        DefinitionType,
		"enum_item":          DefinitionType,
		"trait_item":         DefinitionType,
		"impl_item":          DefinitionType,
		"closure_expression": ExpressionAnonymous,
	},
}
