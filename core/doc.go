// Package core defines the domain models shared across the pipeline:
// raw messages, embedded messages, user profiles, and the fail-open
// outcome report returned by best-effort stages.
package core
