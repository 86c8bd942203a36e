package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/codeweave/internal/semantic"
	"github.com/dshills/codeweave/internal/storage"
)

// Request limits
const (
	DefaultLimit     = 10
	MaxLimit         = 100
	DefaultCacheSize = 1000
	DefaultCacheTTL  = time.Hour
)

// ErrEmptyQuery is returned for blank queries
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query     string
	Limit     int
	Filters   *storage.SearchFilters
	ProjectID int64
	UseCache  bool // Whether to use query cache
	CacheTTL  time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []storage.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs validated, cached keyword searches over indexed chunks
type Searcher struct {
	storage storage.Storage
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher with an LRU query cache of cacheSize
// entries. A non-positive size uses DefaultCacheSize.
func NewSearcher(store storage.Storage, cacheSize int) (*Searcher, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[[32]byte, *cacheEntry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &Searcher{storage: store, cache: cache}, nil
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	results, err := s.storage.SearchChunks(ctx, req.ProjectID, req.Query, req.Limit, req.Filters)
	if errors.Is(err, storage.ErrEmptyQuery) {
		return nil, ErrEmptyQuery
	}
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	response := &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		Duration:     time.Since(startTime),
	}

	if req.UseCache && len(results) > 0 {
		s.storeInCache(req, response)
	}
	return response, nil
}

// validateRequest normalizes the request in place
func validateRequest(req *SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return ErrEmptyQuery
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	if req.Filters != nil {
		f := *req.Filters
		f.Language = strings.ToLower(strings.TrimSpace(f.Language))
		if f.Category != "" {
			cat, err := semantic.ParseCategory(f.Category)
			if err != nil {
				return fmt.Errorf("invalid category filter: %w", err)
			}
			f.Category = cat.String()
		}
		if f.MinConfidence < 0 || f.MinConfidence > 1 {
			return fmt.Errorf("min confidence %.2f out of range [0, 1]", f.MinConfidence)
		}
		req.Filters = &f
	}
	return nil
}

// checkCache returns a copy of a live cached response, or nil
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults: src.TotalResults,
		Duration:     src.Duration,
		CacheHit:     src.CacheHit,
		Results:      make([]storage.SearchResult, len(src.Results)),
	}
	for i, result := range src.Results {
		dst.Results[i] = result
		if result.Chunk != nil {
			chunk := *result.Chunk
			if result.Chunk.Context != nil {
				chunk.Context = make(map[string]any, len(result.Chunk.Context))
				for k, v := range result.Chunk.Context {
					chunk.Context[k] = v
				}
			}
			dst.Results[i].Chunk = &chunk
		}
	}
	return dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	fmt.Fprintf(&data, "|%d|%d", req.ProjectID, req.Limit)

	if req.Filters != nil {
		f := req.Filters
		fmt.Fprintf(&data, "|filters:%s|%s|%s|%.3f|%.3f",
			f.Language, f.Category, f.FilePattern, f.MinConfidence, f.MinRelevance)
	}

	return sha256.Sum256([]byte(data.String()))
}

// InvalidateCache drops every cached query. Entries are not tagged by
// project, so re-indexing any project purges the whole cache.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen returns the number of cached queries
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}
