// Package openai implements ai.Embedder against OpenAI-compatible
// embedding APIs using langchaingo. Works with Ollama, LocalAI, vLLM and
// the OpenAI API itself.
package openai
