// Package progress provides a thread-safe progress reporter for
// long-running batch stages.
package progress
