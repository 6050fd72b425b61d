// Package index uploads embedded messages to the search index, one
// fail-open document at a time.
package index
