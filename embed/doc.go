// Package embed generates embeddings for the message corpus.
//
// Messages are partitioned into fixed-size batches and dispatched to a
// bounded worker pool. Each batch is one embedding request; a failed batch
// is dropped and logged, never retried. The accumulated result set is
// flushed to the checkpoint writer every N results and once more on
// completion, so a crash loses at most the in-flight batches.
package embed
