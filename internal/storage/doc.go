// Package storage provides SQLite-based persistence for classified chunks.
//
// The storage layer manages:
//   - Project metadata
//   - File information and content hashes
//   - Chunks with their semantic category, confidence and phase
//   - Full-text search indexes
//
// # Database Schema
//
// Tables:
//   - projects: indexed source trees
//   - files: relative paths, detected language and SHA-256 hashes
//   - chunks: chunk content, line range, classification and JSON context
//   - chunks_fts: FTS5 index over chunk name, node type and content
//
// Triggers keep chunks_fts in sync with chunks. Schema changes are
// versioned with semver and applied by ApplyMigrations on open.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.codeweave/index.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	project := &storage.Project{RootPath: "/src/app", Name: "app"}
//	if err := store.CreateProject(ctx, project); err != nil {
//	    return err
//	}
//
// # Transactions
//
// The indexer writes each batch of files in one transaction:
//
//	tx, err := store.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	if err := tx.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//	if err := tx.DeleteChunksByFile(ctx, file.ID); err != nil {
//	    return err
//	}
//	for _, c := range chunks {
//	    if err := tx.UpsertChunk(ctx, storage.FromTypesChunk(c, file.ID)); err != nil {
//	        return err
//	    }
//	}
//	return tx.Commit()
//
// # Full-Text Search
//
// SearchChunks ranks matches with BM25 and normalizes the score to (0, 1].
// User input is split into terms that are quoted before reaching FTS5, so
// operators in the query are matched literally.
//
//	results, err := store.SearchChunks(ctx, project.ID, "retry backoff", 10,
//	    &storage.SearchFilters{Language: "go", Category: "FLOW_CONTROL"})
//
// # Build Tags
//
// The default build uses modernc.org/sqlite and needs no C compiler.
// Building with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...
package storage
