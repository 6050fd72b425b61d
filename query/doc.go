// Package query implements the online request path: retrieve relevant
// messages from the search index, then ask the chat completion service to
// answer with the retrieved context.
package query
