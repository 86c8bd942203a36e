package storage

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// DefaultSearchLimit is used when a caller passes a non-positive limit
const DefaultSearchLimit = 10

// searchChunks runs a BM25-ranked FTS5 query over a project's chunks
func searchChunks(ctx context.Context, q querier, projectID int64, query string, limit int, filters *SearchFilters) ([]SearchResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	// bm25 is negative; lower means a better match
	sqlQuery := `
		SELECT ` + chunkColumns + `, f.file_path, bm25(chunks_fts) AS score
		FROM chunks_fts
		INNER JOIN chunks c ON chunks_fts.rowid = c.id
		INNER JOIN files f ON c.file_id = f.id
		WHERE chunks_fts MATCH ?
		AND f.project_id = ?
	`
	args := []interface{}{sanitized, projectID}
	sqlQuery, args = applyFilters(sqlQuery, args, filters)

	sqlQuery += " ORDER BY score, c.importance DESC LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]SearchResult, 0)
	for rows.Next() {
		var filePath string
		var bm25 float64
		chunk, err := scanChunk(rows, &filePath, &bm25)
		if err != nil {
			return nil, err
		}

		score := normalizeBM25(bm25)
		if filters != nil && filters.MinRelevance > 0 && score < filters.MinRelevance {
			continue
		}
		results = append(results, SearchResult{Chunk: chunk, FilePath: filePath, Score: score})
	}
	return results, rows.Err()
}

// applyFilters adds WHERE clause filters for chunk search
func applyFilters(query string, args []interface{}, filters *SearchFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}

	if filters.Language != "" {
		query += " AND c.language = ?"
		args = append(args, strings.ToLower(filters.Language))
	}
	if filters.Category != "" {
		query += " AND c.category = ?"
		args = append(args, strings.ToUpper(filters.Category))
	}
	if filters.FilePattern != "" {
		query += " AND f.file_path GLOB ?"
		args = append(args, filters.FilePattern)
	}
	if filters.MinConfidence > 0 {
		query += " AND c.confidence >= ?"
		args = append(args, filters.MinConfidence)
	}
	return query, args
}

// normalizeBM25 maps a raw bm25 score (typically in [-50, 0]) onto (0, 1]
func normalizeBM25(score float64) float64 {
	return 1.0 / (1.0 + math.Abs(score)/50.0)
}

// sanitizeFTSQuery turns free text into an FTS5 query of quoted terms.
// Every term is quoted so FTS5 operators and column filters in user input
// are matched literally. Terms are ORed so partial matches still rank.
func sanitizeFTSQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " OR ")
}
