// Package mock provides test doubles for the ai service interfaces.
//
// The mocks default to deterministic behavior (hash-derived embedding
// vectors, canned completions) and support per-test behavior injection via
// function fields.
package mock
