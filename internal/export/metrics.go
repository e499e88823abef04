package export

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts exports by outcome. A nil *Metrics records nothing.
type Metrics struct {
	exports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicdiag_exports_total",
			Help: "Exports attempted, by kind, pdf mode and outcome.",
		}, []string{"kind", "mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clinicdiag_export_duration_seconds",
			Help:    "Time spent producing an artifact.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.exports, m.duration)
	}
	return m
}

func (m *Metrics) observe(kind Kind, mode PDFMode, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	if kind == KindImage {
		mode = ""
	}
	m.exports.WithLabelValues(string(kind), string(mode), outcome(err)).Inc()
	if err == nil {
		m.duration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrRender):
		return "render_error"
	case errors.Is(err, ErrAssemble):
		return "assemble_error"
	}
	return "error"
}
