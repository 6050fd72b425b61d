// Package searchindex provides an HTTP client for the managed vector search
// index: retrieval queries (semantic or hybrid) and idempotent per-document
// uploads keyed by id.
package searchindex
