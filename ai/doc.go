// Package ai defines the interfaces for the external AI services the
// pipeline orchestrates: text embedding and chat completion.
//
// Concrete implementations live in subpackages (ai/openai for
// OpenAI-compatible HTTP APIs, ai/mock for test doubles). Components accept
// the interfaces so the services can be substituted in tests.
package ai
