package indexer

import "sync/atomic"

// IndexLock admits one project index at a time and remembers which root
// holds it. The zero value is unlocked.
type IndexLock struct {
	holder atomic.Pointer[string]
}

// TryAcquire takes the lock for root without blocking. It reports false
// when another index holds it.
func (l *IndexLock) TryAcquire(root string) bool {
	return l.holder.CompareAndSwap(nil, &root)
}

// Release frees the lock. Only the caller whose TryAcquire succeeded may
// release it.
func (l *IndexLock) Release() {
	l.holder.Store(nil)
}

// Holder returns the root being indexed, if any.
func (l *IndexLock) Holder() (string, bool) {
	if p := l.holder.Load(); p != nil {
		return *p, true
	}
	return "", false
}
