// Package searcher runs keyword searches over classified chunks.
//
// Requests are normalized before they reach storage: blank queries are
// rejected, limits default to 10 and are capped at 100, category filters are
// parsed into their canonical names, and language filters are lowercased.
//
//	s, _ := searcher.NewSearcher(store, 0)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    ProjectID: project.ID,
//	    Query:     "retry backoff",
//	    Filters:   &storage.SearchFilters{Category: "flow_iteration"},
//	    UseCache:  true,
//	})
//
// # Caching
//
// Non-empty responses are kept in an LRU cache keyed by a SHA-256 of the
// query, project, limit and filters. Entries expire after CacheTTL (one hour
// by default) and are returned as deep copies, so callers may mutate them.
// Call InvalidateCache after re-indexing.
package searcher
