// Package api exposes the query engine over HTTP as a thin
// question-answering endpoint.
package api
