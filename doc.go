// Package batchloader batches and deduplicates by-key data fetches issued
// while resolving a larger computation, collapsing the classic N+1 fetch
// pattern into one bulk call per kind of data.
//
// Application code runs inside Run. Resolvers obtain a Loader for their data
// source via For and call Load, which records the key and returns a Pending
// result without fetching anything. The engine drains enlisted loaders once
// the resolvers have quiesced: every key requested for a loader since its
// last dispatch is satisfied by a single call to its batch function, and
// repeated requests for the same key share one result.
//
//	views, err := batchloader.Run(ctx, func(ctx context.Context) ([]View, error) {
//		authors, err := batchloader.For(ctx, authorsKey{}, store.AuthorsByID)
//		if err != nil {
//			return nil, err
//		}
//		p := authors.Load(42) // no fetch yet
//		vals, err := p.Get(ctx)
//		...
//	})
//
// Resolver concurrency goes through (*Context).Go so the engine knows when
// all resolvers are blocked on pending results and a batch is as full as it
// is going to get. Loads issued from within another batch's continuations
// start fresh batches and are drained before Run returns.
//
// The engine owns no I/O: batch functions are supplied by the caller and map
// a key slice to a key->values multimap. A batch function error fails only
// the pending results of its own batch; other loaders drain normally.
package batchloader
