package server

import (
	"net/http"
	"time"

	"github.com/poiesic/ragchat/chat"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/ingestion"
	"github.com/poiesic/ragchat/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ragchat"

// Metrics collects ingestion, retrieval and chat metrics on its own registry.
// It observes the pipeline, the retriever and the orchestrator.
type Metrics struct {
	registry *prometheus.Registry

	ingestionRuns     *prometheus.CounterVec
	ingestionDuration prometheus.Histogram
	documentsChanged  prometheus.Counter
	chunksWritten     prometheus.Counter

	retrievalHits prometheus.Histogram
	verbatimHits  prometheus.Counter

	chatRequests *prometheus.CounterVec
	chatDuration *prometheus.HistogramVec
}

var (
	_ ingestion.Observer   = (*Metrics)(nil)
	_ chat.Observer        = (*Metrics)(nil)
	_ search.SearchMonitor = (*Metrics)(nil)
)

// NewMetrics creates and registers all collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingestionRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "runs_total",
			Help:      "Ingestion runs by outcome (success, failed, skipped).",
		}, []string{"outcome"}),
		ingestionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "run_duration_seconds",
			Help:      "Duration of ingestion runs that were not skipped.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		documentsChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "documents_changed_total",
			Help:      "Documents found new or changed by ingestion runs.",
		}),
		chunksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "chunks_written_total",
			Help:      "Chunks embedded and stored.",
		}),
		retrievalHits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "hits",
			Help:      "Chunks returned per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
		verbatimHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "verbatim_hits_total",
			Help:      "Retrieved chunks containing every query word.",
		}),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		chatDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "request_duration_seconds",
			Help:      "Time from request to the end of the reply.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"mode"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ingestionRuns,
		m.ingestionDuration,
		m.documentsChanged,
		m.chunksWritten,
		m.retrievalHits,
		m.verbatimHits,
		m.chatRequests,
		m.chatDuration,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RunFinished implements ingestion.Observer.
func (m *Metrics) RunFinished(res ingestion.Result, err error, elapsed time.Duration) {
	switch {
	case res.Skipped:
		m.ingestionRuns.WithLabelValues("skipped").Inc()
		return
	case err != nil:
		m.ingestionRuns.WithLabelValues("failed").Inc()
	default:
		m.ingestionRuns.WithLabelValues("success").Inc()
		m.chunksWritten.Add(float64(res.Chunks))
	}
	m.documentsChanged.Add(float64(res.Changed))
	m.ingestionDuration.Observe(elapsed.Seconds())
}

// ChatFinished implements chat.Observer.
func (m *Metrics) ChatFinished(mode chat.Mode, outcome chat.Outcome, elapsed time.Duration) {
	m.chatRequests.WithLabelValues(mode.String(), outcome.String()).Inc()
	m.chatDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) Start(_ string)                          {}
func (m *Metrics) AfterEmbedding(_ int)                    {}
func (m *Metrics) AfterVectorSearch(_ []*core.ScoredChunk) {}

// VerbatimHit implements search.SearchMonitor.
func (m *Metrics) VerbatimHit(_ *core.ScoredChunk) {
	m.verbatimHits.Inc()
}

// Finish implements search.SearchMonitor.
func (m *Metrics) Finish(hits []*core.ScoredChunk) {
	m.retrievalHits.Observe(float64(len(hits)))
}
