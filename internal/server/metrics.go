package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/orcafacil/orcafacil/internal/model"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	// Validations counts pipeline runs by outcome: clean, warnings, errors or rejected.
	Validations *prometheus.CounterVec
	Findings    *prometheus.CounterVec
	Duration    prometheus.Histogram
	Stored      prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Validations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orcafacil_validations_total",
				Help: "Validation runs by outcome",
			},
			[]string{"outcome"},
		),
		Findings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orcafacil_findings_total",
				Help: "Findings reported by severity and kind",
			},
			[]string{"severity", "kind"},
		),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "orcafacil_validation_duration_seconds",
			Help:    "Time spent validating one sheet",
			Buckets: prometheus.DefBuckets,
		}),
		Stored: f.NewCounter(prometheus.CounterOpts{
			Name: "orcafacil_budgets_stored_total",
			Help: "Budgets written to the store",
		}),
	}
}

// Observe records one report.
func (m *Metrics) Observe(r model.Report, seconds float64) {
	m.Duration.Observe(seconds)
	m.Validations.WithLabelValues(outcome(r)).Inc()
	for _, f := range r.Findings {
		m.Findings.WithLabelValues(string(f.Severity), f.Kind).Inc()
	}
}

func outcome(r model.Report) string {
	switch {
	case r.TotalRows == 0 && r.HasErrors():
		return "rejected"
	case r.HasErrors():
		return "errors"
	case len(r.Warnings()) > 0:
		return "warnings"
	}
	return "clean"
}
