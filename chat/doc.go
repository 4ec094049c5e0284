// Package chat answers user queries over session-scoped memory.
//
// The Orchestrator resolves the session of a request, falling back to the
// "default" session for missing or unknown ids, titles new sessions from
// their first query and binds the session id to the request context with
// WithSessionID. It then assembles a Chatbot from a system prompt, the
// bounded Memory, an optional Retriever and the selected model, and
// streams the reply over a Stream. Completed turns are written back to
// the message store; cleanup runs once per request on every exit path.
//
// SessionService exposes session management to the HTTP surface.
package chat
