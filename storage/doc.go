// Package storage persists the pipeline's local artifacts: raw messages,
// embedded messages, and user profiles as indented JSON arrays.
//
// The badger subpackage adds a durable checkpoint store used by the embedder
// to resume interrupted runs.
package storage
