// Package openai implements the ai service interfaces against
// OpenAI-compatible HTTP APIs (OpenAI, Azure OpenAI deployments behind an
// OpenAI-compatible gateway, Ollama, vLLM, and similar).
package openai
