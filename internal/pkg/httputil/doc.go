// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers use these helpers instead of raw http.ResponseWriter calls so
// every endpoint emits the same JSON envelopes.
package httputil
