// Package watcher keeps an indexed project current as files change.
//
// A Watcher subscribes to fsnotify events for every directory under the
// project root, applying the indexer's directory and file filters. Events are
// coalesced until the tree has been quiet for the debounce interval, then each
// changed path is re-indexed or, if it no longer exists, removed from storage.
//
//	w, err := watcher.New(root, idx, watcher.Options{Debounce: cfg.Watcher.GetDebounce()}, logger)
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx) // blocks until ctx is cancelled
package watcher
