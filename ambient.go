package batchloader

import "context"

type ctxKey struct{}

// Enter returns a derived context with c installed as the current Context.
//
// The returned context shadows any Context installed further out; the outer
// context is untouched, so nested Enter calls restore naturally (LIFO) as
// each scope resumes using the context it started with, on every exit path.
// Run calls Enter for the body; explicit use is only needed when handing the
// Context to code that builds its own context chain.
func Enter(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Current returns the innermost Context installed in ctx, if any.
func Current(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(ctxKey{}).(*Context)
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}
