// Package ollama implements ai.Provider on the native Ollama HTTP API.
//
// Unlike ai/openai, this provider can enumerate installed models
// (ai.ModelLister), which backs the model picker of the HTTP server.
// Chat replies are streamed as newline-delimited JSON and forwarded
// token by token.
package ollama
