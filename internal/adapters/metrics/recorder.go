// Package metrics records deployment runs as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// Recorder implements usecase.MetricsRecorder on a private registry
type Recorder struct {
	registry *prometheus.Registry

	stepsTotal        *prometheus.CounterVec
	transactionsTotal *prometheus.CounterVec
	healsTotal        *prometheus.CounterVec
	confirmation      *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// Steps by final state
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sling_steps_total",
				Help: "Deployment steps by final state",
			},
			[]string{"network", "state"},
		),

		transactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sling_transactions_sent_total",
				Help: "Transactions broadcast, by kind (deploy or heal)",
			},
			[]string{"network", "kind"},
		),

		healsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sling_nonce_heals_total",
				Help: "Stalled nonces replaced",
			},
			[]string{"network"},
		),

		confirmation: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sling_confirmation_seconds",
				Help:    "Time from broadcast to receipt",
				Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30, 60, 120, 300},
			},
			[]string{"network"},
		),
	}
}

// Registry returns the registry holding the recorder's metrics
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteFile writes the metrics in text exposition format, for node_exporter's
// textfile collector
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func (r *Recorder) StepFinished(network string, state domain.StepState) {
	r.stepsTotal.WithLabelValues(network, string(state)).Inc()
}

func (r *Recorder) TransactionSent(network, kind string) {
	r.transactionsTotal.WithLabelValues(network, kind).Inc()
}

func (r *Recorder) ConfirmationObserved(network string, elapsed time.Duration) {
	r.confirmation.WithLabelValues(network).Observe(elapsed.Seconds())
}

func (r *Recorder) NonceHealed(network string) {
	r.healsTotal.WithLabelValues(network).Inc()
}

var _ usecase.MetricsRecorder = (*Recorder)(nil)
