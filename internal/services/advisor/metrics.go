package advisor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests can build as many as they like.
type Metrics struct {
	reg         *prometheus.Registry
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	scores      prometheus.Histogram
	latency     *prometheus.HistogramVec
	sinkErrors  *prometheus.CounterVec
	ingest      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "predictions_total",
			Help:      "Successful predictions by source and sustainability tier.",
		}, []string{"source", "tier"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "prediction_failures_total",
			Help:      "Rejected or failed predictions by source and error kind.",
		}, []string{"source", "kind"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "advisor",
			Name:      "sustainability_score",
			Help:      "Distribution of predicted sustainability scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 75, 80, 90, 100},
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "advisor",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent in the scoring pipeline.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"source"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "sink_failures_total",
			Help:      "Prediction events a sink could not record.",
		}, []string{"sink"}),
		ingest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "advisor",
			Name:      "ingest_messages_total",
			Help:      "MQTT observation deliveries by outcome.",
		}, []string{"outcome"}),
	}
	m.reg.MustRegister(
		m.predictions, m.failures, m.scores, m.latency, m.sinkErrors, m.ingest,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Scored(source, tier string, score float64) {
	m.predictions.WithLabelValues(source, tier).Inc()
	m.scores.Observe(score)
}

func (m *Metrics) Failed(source, kind string) { m.failures.WithLabelValues(source, kind).Inc() }

func (m *Metrics) ObserveLatency(source string, d time.Duration) {
	m.latency.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) SinkFailed(sink string) { m.sinkErrors.WithLabelValues(sink).Inc() }

// Ingested counts one MQTT delivery: scored, duplicate, malformed or rejected.
func (m *Metrics) Ingested(outcome string) { m.ingest.WithLabelValues(outcome).Inc() }

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
