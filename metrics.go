package throttle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors a Limiter reports to.
type Metrics struct {
	Checks        *prometheus.CounterVec
	Blocks        *prometheus.CounterVec
	Resets        *prometheus.CounterVec
	SweepEvicted  prometheus.Counter
	SweepRuns     *prometheus.CounterVec
	SweepDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_checks_total",
			Help: "Admission checks by category and decision",
		}, []string{"category", "decision"}),
		Blocks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_blocks_total",
			Help: "Blocks issued by category",
		}, []string{"category"}),
		Resets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_resets_total",
			Help: "Explicit key resets by category",
		}, []string{"category"}),
		SweepEvicted: f.NewCounter(prometheus.CounterOpts{
			Name: "throttle_sweep_evicted_total",
			Help: "Idle entries removed by the cleanup sweep",
		}),
		SweepRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throttle_sweep_runs_total",
			Help: "Cleanup sweep runs by status",
		}, []string{"status"}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "throttle_sweep_duration_seconds",
			Help: "Duration of cleanup sweeps in seconds",
		}),
	}
}

func (m *Metrics) observeCheck(category string, allowed, blockIssued bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	m.Checks.WithLabelValues(category, decision).Inc()
	if blockIssued {
		m.Blocks.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) observeSweep(evicted int, err error, d time.Duration) {
	m.SweepDuration.Observe(d.Seconds())
	if err != nil {
		m.SweepRuns.WithLabelValues("error").Inc()
		return
	}
	m.SweepRuns.WithLabelValues("success").Inc()
	m.SweepEvicted.Add(float64(evicted))
}
