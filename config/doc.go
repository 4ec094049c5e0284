// Package config loads application settings from a YAML file, a .env file
// and RAGCHAT_-prefixed environment variables.
//
// Example ragchat.yaml:
//
//	ai:
//	  provider: ollama
//	  host: http://localhost:11434
//	  chat_model: qwen2.5:3b
//	vector_store:
//	  type: qdrant
//	  dimension: 768
//	  qdrant:
//	    address: localhost:6334
package config
