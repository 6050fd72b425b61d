// Package fetch pulls the raw message corpus from the upstream messages API
// and guarantees every record carries a non-empty identifier.
package fetch
