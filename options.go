package batchloader

// Option configures a Loader at creation time (see For). Options are fixed
// for the loader's lifetime; For ignores options on later calls that return
// an existing loader.
type Option func(*loaderOptions)

type loaderOptions struct {
	resultCache bool
}

// WithResultCache keeps completed results beyond their batch, so repeated
// Loads for a key across separate batches within one run reuse the first
// outcome instead of refetching. Only successful batches populate the
// cache; failed keys are retried by the next batch that requests them.
//
// Off by default: without it, deduplication is scoped to the in-flight
// batch only.
func WithResultCache() Option {
	return func(o *loaderOptions) {
		o.resultCache = true
	}
}
