// Package server exposes ingestion, sessions and chat streaming over HTTP.
//
// Routes are served by echo. Chat replies stream as server-sent events
// whose data is {"token": "..."}; a failed reply ends with an "error"
// event. Metrics collects Prometheus metrics from the pipeline, the
// retriever and the orchestrator and is served on /metrics.
package server
