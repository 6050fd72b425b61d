// Package profile generates per-user behavioral summaries from the raw
// message corpus, one fail-open chat completion call per user.
package profile
