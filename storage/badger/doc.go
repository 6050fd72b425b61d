// Package badger implements the embedder's resume checkpoint store on
// BadgerDB. Each embedded message id is recorded under its own key, so
// lookups and bulk marking stay cheap regardless of corpus size.
package badger
