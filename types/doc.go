// Package types defines shared primitives used across the service:
// the unified error model with error codes and retry metadata, and
// context helpers for request-scoped identity propagation.
package types
