package semantic

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	overrideConfidence = 1.0
	fallbackConfidence = 0.30

	// structuralAdjustment is added or removed when parent and sibling node
	// types agree or disagree with a result's rank.
	structuralAdjustment = 0.05

	// DefaultAlternativeThreshold is the minimum confidence of an alternative.
	DefaultAlternativeThreshold = 0.3
	// DefaultMaxAlternatives bounds the alternatives returned.
	DefaultMaxAlternatives = 5
)

// PhaseObserver is called for every phase the classifier evaluates, with
// whether that phase produced the result.
type PhaseObserver func(req Request, phase Phase, matched bool)

type cacheKey struct {
	nodeType string
	language string
	context  string
}

// Classifier maps node type strings onto semantic categories. It is safe for
// concurrent use once constructed.
type Classifier struct {
	registry *Registry
	grammar  GrammarSource
	tiers    *TierMatcher
	cache    *lru.Cache[cacheKey, Result]
	observer PhaseObserver
	logger   *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier) error

// WithGrammar sets the grammar source. Passing nil disables the grammar phase.
func WithGrammar(src GrammarSource) Option {
	return func(c *Classifier) error {
		c.grammar = src
		return nil
	}
}

// WithCache enables an LRU result cache of the given size.
func WithCache(size int) Option {
	return func(c *Classifier) error {
		cache, err := lru.New[cacheKey, Result](size)
		if err != nil {
			return fmt.Errorf("create classification cache: %w", err)
		}
		c.cache = cache
		return nil
	}
}

// WithObserver installs a phase observer.
func WithObserver(obs PhaseObserver) Option {
	return func(c *Classifier) error {
		c.observer = obs
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Classifier) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// NewClassifier builds a classifier over registry, freezing it. A nil
// registry uses the built-in overrides. The default grammar tables are used
// unless WithGrammar says otherwise.
func NewClassifier(registry *Registry, opts ...Option) (*Classifier, error) {
	if registry == nil {
		registry = NewDefaultRegistry()
	}
	registry.Freeze()

	tiers, err := NewTierMatcher()
	if err != nil {
		return nil, err
	}
	c := &Classifier{
		registry: registry,
		grammar:  DefaultGrammar(),
		tiers:    tiers,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Classify runs the phases in order and returns the first result produced.
// It never fails; unknown node types end in the fallback phase.
func (c *Classifier) Classify(req Request) Result {
	structural := req.ParentType != "" || len(req.SiblingTypes) > 0
	key := cacheKey{req.NodeType, normalizeLanguage(req.Language), req.Context}
	if c.cache != nil && !structural {
		if r, ok := c.cache.Get(key); ok {
			return r
		}
	}

	r := c.classify(req)
	if structural && r.Phase != PhaseOverride {
		r = c.adjustForStructure(req, r)
	}
	r.Confidence = clamp(r.Confidence)
	r.Rank = r.Category.Rank()

	if c.cache != nil && !structural {
		c.cache.Add(key, r)
	}
	c.logger.Debug("classified node",
		zap.String("node_type", req.NodeType),
		zap.String("language", req.Language),
		zap.Stringer("category", r.Category),
		zap.Stringer("phase", r.Phase),
		zap.Float64("confidence", r.Confidence))
	return r
}

func (c *Classifier) classify(req Request) Result {
	base := Result{NodeType: req.NodeType, Language: req.Language}

	if cat, ok := c.registry.Lookup(req.Language, req.NodeType); ok {
		c.observe(req, PhaseOverride, true)
		return c.result(base, cat, overrideConfidence, PhaseOverride, "override:"+req.NodeType)
	}
	c.observe(req, PhaseOverride, false)

	if c.grammar != nil {
		if e, ok := c.grammar.Lookup(req.NodeType, req.Language); ok {
			c.observe(req, PhaseGrammar, true)
			conf, _ := applyBoost(req.NodeType, req.Language, e.Category, e.Confidence)
			return c.result(base, e.Category, conf, PhaseGrammar, "grammar:"+string(e.Method))
		}
	}
	c.observe(req, PhaseGrammar, false)

	if tm, ok := c.tiers.match(req.NodeType); ok {
		c.observe(req, PhaseTierMatch, true)
		conf, _ := applyBoost(req.NodeType, req.Language, tm.category, tm.confidence)
		return c.result(base, tm.category, conf, PhaseTierMatch, tm.pattern)
	}
	c.observe(req, PhaseTierMatch, false)

	if cat, conf, pattern, ok := classifyConstruct(req.NodeType, contextHints(req.Context)); ok {
		c.observe(req, PhasePatternMatch, true)
		return c.result(base, cat, conf, PhasePatternMatch, pattern)
	}
	c.observe(req, PhasePatternMatch, false)

	c.observe(req, PhaseFallback, true)
	cat := SyntaxPunctuation
	if strings.IndexFunc(req.NodeType, unicode.IsLetter) >= 0 {
		cat = SyntaxIdentifier
	}
	return c.result(base, cat, fallbackConfidence, PhaseFallback, "")
}

func (c *Classifier) result(r Result, cat Category, conf float64, phase Phase, pattern string) Result {
	r.Category = cat
	r.Confidence = conf
	r.Phase = phase
	r.Rank = cat.Rank()
	r.MatchedPattern = pattern
	return r
}

func (c *Classifier) observe(req Request, phase Phase, matched bool) {
	if c.observer != nil {
		c.observer(req, phase, matched)
	}
}

// adjustForStructure nudges confidence by the ranks of the parent and
// sibling node types. A neighbour within one rank agrees, one three or more
// ranks away disagrees; the majority decides.
func (c *Classifier) adjustForStructure(req Request, r Result) Result {
	neighbours := make([]string, 0, len(req.SiblingTypes)+1)
	if req.ParentType != "" {
		neighbours = append(neighbours, req.ParentType)
	}
	neighbours = append(neighbours, req.SiblingTypes...)

	votes := 0
	for _, n := range neighbours {
		rank, ok := c.quickRank(n, req.Language)
		if !ok {
			continue
		}
		switch d := abs(int(rank) - int(r.Rank)); {
		case d <= 1:
			votes++
		case d >= 3:
			votes--
		}
	}
	switch {
	case votes > 0:
		r.Confidence += structuralAdjustment
	case votes < 0:
		r.Confidence -= structuralAdjustment
	}
	return r
}

// quickRank resolves a neighbour's rank from the override, grammar and tier
// phases only.
func (c *Classifier) quickRank(nodeType, language string) (Rank, bool) {
	if cat, ok := c.registry.Lookup(language, nodeType); ok {
		return cat.Rank(), true
	}
	if c.grammar != nil {
		if e, ok := c.grammar.Lookup(nodeType, language); ok {
			return e.Category.Rank(), true
		}
	}
	if tm, ok := c.tiers.match(nodeType); ok {
		return tm.category.Rank(), true
	}
	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ClassifyBatch classifies each request in order.
func (c *Classifier) ClassifyBatch(reqs []Request) []Result {
	out := make([]Result, len(reqs))
	for i, req := range reqs {
		out[i] = c.Classify(req)
	}
	return out
}

// Alternatives classifies req and, when the result is below HighConfidence,
// returns other categories whose tier pattern also matches with at least
// threshold confidence, best first and at most limit of them. The primary
// result carries their categories in Alternatives.
func (c *Classifier) Alternatives(req Request, threshold float64, limit int) (Result, []Result) {
	primary := c.Classify(req)
	if primary.IsHighConfidence() || limit <= 0 {
		return primary, nil
	}

	var alts []Result
	for _, tm := range c.tiers.matchAll(req.NodeType) {
		if tm.category == primary.Category || tm.confidence < threshold {
			continue
		}
		conf, _ := applyBoost(req.NodeType, req.Language, tm.category, tm.confidence)
		alts = append(alts, Result{
			NodeType:       req.NodeType,
			Language:       req.Language,
			Category:       tm.category,
			Confidence:     conf,
			Phase:          PhaseTierMatch,
			Rank:           tm.category.Rank(),
			MatchedPattern: tm.pattern,
		})
	}
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Confidence > alts[j].Confidence })

	seen := make(map[Category]bool)
	out := alts[:0]
	for _, a := range alts {
		if seen[a.Category] || len(out) == limit {
			continue
		}
		seen[a.Category] = true
		out = append(out, a)
	}
	for _, a := range out {
		primary.Alternatives = append(primary.Alternatives, a.Category)
	}
	return primary, out
}

// CacheLen returns the number of cached results, or zero without a cache.
func (c *Classifier) CacheLen() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}
