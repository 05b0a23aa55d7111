package router

import "net/http"

// Middleware wraps an http.Handler with cross-cutting behavior.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
