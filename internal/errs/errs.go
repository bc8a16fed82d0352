// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches the HTTP boundary is rendered as an HTTPError
// so clients always receive the same JSON structure, whether the cause was
// a malformed payload, a missing company, or a storage failure.
package errs
