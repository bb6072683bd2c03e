package batchloader

import (
	"context"
	"fmt"
	"sync"
)

// BatchFunc fetches all values for a set of keys in one call. It returns a
// multimap: each key maps to zero or more values, and keys absent from the
// result are not an error (their pendings resolve to an empty slice).
//
// A BatchFunc must not call Run for the ambient Context, but may issue
// nested Loads for dependent data; those start fresh batches and are drained
// before the run completes.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K][]V, error)

// Loader collects by-key requests for one kind of data, deduplicates them
// and dispatches one bulk fetch per batch. Loaders are owned by exactly one
// Context and obtained through For; they live as long as the Context.
type Loader[K comparable, V any] struct {
	owner        *Context
	fetch        BatchFunc[K, V]
	cacheResults bool

	mu       sync.Mutex
	order    []K // keys of the current batch, first-request order
	pending  map[K]*Pending[V]
	enlisted bool
	cache    map[K]*Pending[V] // completed results, WithResultCache only
}

func newLoader[K comparable, V any](owner *Context, fetch BatchFunc[K, V], opts loaderOptions) *Loader[K, V] {
	l := &Loader[K, V]{
		owner:        owner,
		fetch:        fetch,
		cacheResults: opts.resultCache,
		pending:      make(map[K]*Pending[V]),
	}
	if l.cacheResults {
		l.cache = make(map[K]*Pending[V])
	}
	return l
}

// Load registers key with the current batch and returns its pending result.
// It never blocks: the fetch happens when the engine dispatches the batch.
//
// Repeated Loads for one key before the next dispatch return the identical
// *Pending. Loads separated by a dispatch belong to distinct batches (unless
// the loader was created with WithResultCache, in which case completed
// results are reused across batches).
func (l *Loader[K, V]) Load(key K) *Pending[V] {
	if l == nil {
		return completedPending[V](nil, fmt.Errorf("Load: nil Loader"))
	}
	if l.owner.terminal() {
		return completedPending[V](nil, ErrRunFinished)
	}

	l.mu.Lock()
	if l.cacheResults {
		if p, ok := l.cache[key]; ok {
			l.mu.Unlock()
			return p
		}
	}
	if p, ok := l.pending[key]; ok {
		l.mu.Unlock()
		return p
	}
	p := newPending[V]()
	l.pending[key] = p
	l.order = append(l.order, key)
	fresh := !l.enlisted
	l.enlisted = true
	l.mu.Unlock()

	if fresh && !l.owner.enlist(l) {
		// Lost the race with run completion; nothing will dispatch us.
		l.abort(ErrRunFinished)
	}
	return p
}

// LoadMany is Load for several keys at once. The returned pendings are
// positional; duplicate keys share a pending.
func (l *Loader[K, V]) LoadMany(keys ...K) []*Pending[V] {
	out := make([]*Pending[V], len(keys))
	for i, key := range keys {
		out[i] = l.Load(key)
	}
	return out
}

// Prime seeds the result cache with an already-known value, so later Loads
// for key skip fetching. It reports false, without overwriting, if the key
// is already cached or the loader was created without WithResultCache.
func (l *Loader[K, V]) Prime(key K, values []V) bool {
	if l == nil || !l.cacheResults {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[key]; ok {
		return false
	}
	l.cache[key] = completedPending(values, nil)
	return true
}

// Clear evicts key from the result cache, if present. The current
// undispatched batch is unaffected.
func (l *Loader[K, V]) Clear(key K) {
	if l == nil || !l.cacheResults {
		return
	}
	l.mu.Lock()
	delete(l.cache, key)
	l.mu.Unlock()
}

// dispatch snapshots and clears the current batch, issues one bulk fetch
// for its keys and fans the outcome out to every pending. Loads arriving
// during the fetch start a fresh batch and re-enlist independently.
func (l *Loader[K, V]) dispatch(ctx context.Context) {
	keys, batch := l.takeBatch()
	if len(keys) == 0 {
		return
	}

	result, err := l.runFetch(ctx, keys)
	if err != nil {
		for _, p := range batch {
			p.complete(nil, err)
		}
		return
	}

	for key, p := range batch {
		p.complete(result[key], nil)
	}

	if l.cacheResults {
		l.mu.Lock()
		for key, p := range batch {
			if _, ok := l.cache[key]; !ok {
				l.cache[key] = p
			}
		}
		l.mu.Unlock()
	}
}

// abort fails the current batch without fetching. Used when the run is
// already terminal or its drain was canceled.
func (l *Loader[K, V]) abort(err error) {
	_, batch := l.takeBatch()
	for _, p := range batch {
		p.complete(nil, err)
	}
}

func (l *Loader[K, V]) takeBatch() ([]K, map[K]*Pending[V]) {
	l.mu.Lock()
	keys := l.order
	batch := l.pending
	l.order = nil
	l.pending = make(map[K]*Pending[V])
	l.enlisted = false
	l.mu.Unlock()
	return keys, batch
}

// runFetch contains batch function panics: to the batch's waiters a
// panicking fetch is a failed fetch, and the drain must keep going.
func (l *Loader[K, V]) runFetch(ctx context.Context, keys []K) (result map[K][]V, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("batch function panic: %v", r)
		}
	}()
	return l.fetch(ctx, keys)
}
