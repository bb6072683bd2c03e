package batchloader

import (
	"context"
	"fmt"
)

// For returns the Loader registered under identity in the ambient Context,
// creating it bound to fetch on first use. The same identity within one
// Context always yields the same *Loader, which is what makes requests from
// unrelated resolvers coalesce into shared batches; different identities
// never share a loader, even with identical fetch functions.
//
// identity must be a comparable value that is stable for the logical data
// source across the run. An unexported struct type per source works well:
//
//	type authorsKey struct{}
//	authors, err := batchloader.For(ctx, authorsKey{}, store.AuthorsByID)
//
// For fails with ErrNoContext outside Run, and with ErrRunFinished once the
// run is over. Registering one identity under two different key/value type
// pairs is an error.
func For[K comparable, V any](ctx context.Context, identity any, fetch BatchFunc[K, V], opts ...Option) (*Loader[K, V], error) {
	if ctx == nil {
		return nil, fmt.Errorf("For: nil context")
	}
	if identity == nil {
		return nil, fmt.Errorf("For: nil identity")
	}
	if fetch == nil {
		return nil, fmt.Errorf("For: nil batch function")
	}

	c, ok := Current(ctx)
	if !ok {
		return nil, ErrNoContext
	}
	if c.terminal() {
		return nil, ErrRunFinished
	}

	var o loaderOptions
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, found := c.loaders[identity]; found {
		l, matches := existing.(*Loader[K, V])
		if !matches {
			return nil, fmt.Errorf("For: identity %v is already registered with a different key/value type", identity)
		}
		return l, nil
	}
	l := newLoader(c, fetch, o)
	c.loaders[identity] = l
	return l, nil
}
