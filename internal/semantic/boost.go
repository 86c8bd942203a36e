package semantic

import "strings"

// maxBoosted caps any boosted confidence.
const maxBoosted = 0.95

type languageBoost struct {
	keyword  string
	category Category
	boost    float64
}

// Keyword boosts per language. The first keyword found in the node type
// whose category agrees with the candidate raises its confidence.
var languageBoosts = map[string][]languageBoost{
	"python": {
		{"def", DefinitionCallable, 0.15},
		{"class", DefinitionType, 0.15},
		{"import", BoundaryModule, 0.2},
		{"lambda", ExpressionAnonymous, 0.1},
		{"type", DefinitionType, 0.1},
	},
	"javascript": {
		{"function", DefinitionCallable, 0.15},
		{"class", DefinitionType, 0.15},
		{"import", BoundaryModule, 0.2},
		{"arrow_function", ExpressionAnonymous, 0.1},
	},
	"typescript": {
		{"interface", DocumentationStructured, 0.2},
		{"type_alias", DefinitionType, 0.15},
		{"enum", DefinitionType, 0.15},
	},
	"rust": {
		{"fn", DefinitionCallable, 0.15},
		{"struct", DefinitionType, 0.15},
		{"enum", DefinitionType, 0.15},
		{"trait", DocumentationStructured, 0.2},
		{"mod", BoundaryModule, 0.2},
	},
	"go": {
		{"func", DefinitionCallable, 0.15},
		{"type", DefinitionType, 0.15},
		{"interface", DocumentationStructured, 0.2},
		{"package", BoundaryModule, 0.2},
	},
}

// boostDialects share the boosts of their base language.
var boostDialects = map[string]string{
	"jsx": "javascript",
	"tsx": "typescript",
}

// applyBoost raises base when a language keyword in nodeType agrees with c.
// The result never drops below base and never exceeds maxBoosted unless base
// already did.
func applyBoost(nodeType, language string, c Category, base float64) (float64, bool) {
	lang := normalizeLanguage(language)
	if d, ok := boostDialects[lang]; ok {
		lang = d
	}
	lower := strings.ToLower(nodeType)
	for _, b := range languageBoosts[lang] {
		if b.category != c || !strings.Contains(lower, b.keyword) {
			continue
		}
		return max(base, min(maxBoosted, base+b.boost)), true
	}
	return base, false
}
