// Package middleware stores the global middleware: request ids, request
// scoped logging, tracing, CORS, rate limiting, panic recovery and the
// global error handler.
package middleware
