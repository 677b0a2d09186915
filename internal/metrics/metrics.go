package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records summarization outcomes. A nil *Metrics records nothing.
type Metrics struct {
	summaries       *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		summaries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "condense_summaries_total",
				Help: "Summarization attempts by provider and terminal outcome",
			},
			[]string{"provider", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "condense_provider_request_duration_seconds",
				Help:    "Provider request duration",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"provider"},
		),
	}
}

// NewRegistry returns a registry with the Go and process collectors already
// registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) ObserveOutcome(provider string, outcome string) {
	if m == nil {
		return
	}

	if provider == "" {
		provider = "none"
	}

	m.summaries.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveRequest(provider string, d time.Duration) {
	if m == nil {
		return
	}

	m.requestDuration.WithLabelValues(provider).Observe(d.Seconds())
}
