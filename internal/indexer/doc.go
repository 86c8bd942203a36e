// Package indexer coordinates the end-to-end indexing pipeline for a source tree.
//
// Every supported file is chunked, every chunk is classified, and the labeled
// chunks are persisted to storage where they can be searched with FTS5.
//
// # Basic Usage
//
//	sel := chunker.NewSelector(language.NewRegistry(), chunker.DefaultGovernor(), logger)
//	cls, _ := semantic.NewClassifier(nil, semantic.WithCache(4096))
//	idx := indexer.New(sel, cls, store, logger)
//
//	stats, err := idx.IndexProject(ctx, "/path/to/project", indexer.DefaultConfig())
//	fmt.Printf("Indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// # Indexing Pipeline
//
//  1. Discovery: walk the tree, skipping hidden, vendor and excluded directories
//  2. Incremental decision: compare SHA-256 content hashes, skip unchanged files
//  3. Chunk and classify: run the selected chunker per file in a worker pool
//  4. Store: persist file rows and chunks in batched transactions
//  5. Prune: drop rows for files that no longer exist
//
// Chunking runs in parallel without touching the database. Writes happen
// afterwards in sequential batches so a single SQLite connection suffices.
//
// # Error Handling
//
// A file that cannot be chunked is recorded with its parse error and counted
// in Statistics.FilesFailed; the rest of the project is still indexed. Files
// above the governor's size ceiling are skipped. Failed files are retried on
// the next run regardless of their hash.
//
// # Concurrency
//
// Only one indexing operation may run per Indexer. A second concurrent call
// returns ErrIndexInProgress. IndexFile and RemoveFile serve the file watcher
// and assume the project has been indexed once with IndexProject.
package indexer
