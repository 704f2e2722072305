// Package dcontext carries request-scoped values (logger, request id,
// package/version identifiers) the way the rest of the registry expects
// to find them, following the conventions of a standard context.Context
// without introducing a parallel Context type.
package dcontext

import (
	"context"
	"net/http"
)

type requestKey struct{}

// WithRequest returns a context carrying the given *http.Request, so that
// downstream code (loggers, access controllers) can recover request
// metadata without threading it through every function signature.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// GetRequest returns the *http.Request attached to ctx, if any.
func GetRequest(ctx context.Context) (*http.Request, bool) {
	r, ok := ctx.Value(requestKey{}).(*http.Request)
	return r, ok
}

type valueKey string

// WithValue attaches a named, loggable value to ctx. Use small, stable
// key names ("package.name", "package.version", "request.id") since they
// double as logrus field names when a logger is pulled from the context.
func WithValue(ctx context.Context, key string, value interface{}) context.Context {
	return context.WithValue(ctx, valueKey(key), value)
}

// Value returns the named value previously attached with WithValue.
func Value(ctx context.Context, key string) interface{} {
	return ctx.Value(valueKey(key))
}
