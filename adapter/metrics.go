package adapter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the adapter's Prometheus collectors.
type Metrics struct {
	// RemoteCalls counts remote calls by operation and result.
	RemoteCalls *prometheus.CounterVec

	// PendingEntries tracks the current pending queue length.
	PendingEntries prometheus.Gauge

	// Reconciled counts local values replaced by a differing remote value.
	Reconciled prometheus.Counter

	// Drained counts pending entries confirmed by a drain.
	Drained prometheus.Counter

	// RemoteActive is 1 while the adapter is in the remote-active state.
	RemoteActive prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RemoteCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flofy_remote_calls_total",
				Help: "Remote store calls by operation and result",
			},
			[]string{"op", "result"},
		),
		PendingEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "flofy_pending_entries",
			Help: "Writes waiting for remote confirmation",
		}),
		Reconciled: f.NewCounter(prometheus.CounterOpts{
			Name: "flofy_reconciled_total",
			Help: "Local values overwritten by a differing remote value",
		}),
		Drained: f.NewCounter(prometheus.CounterOpts{
			Name: "flofy_drained_total",
			Help: "Pending entries confirmed by a drain",
		}),
		RemoteActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "flofy_remote_active",
			Help: "1 when remote reconciliation is active",
		}),
	}
}

func (m *Metrics) remoteCall(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RemoteCalls.WithLabelValues(op, result).Inc()
}

func (m *Metrics) pending(n int) {
	if m == nil {
		return
	}
	m.PendingEntries.Set(float64(n))
}

func (m *Metrics) reconciled() {
	if m == nil {
		return
	}
	m.Reconciled.Inc()
}

func (m *Metrics) drained() {
	if m == nil {
		return
	}
	m.Drained.Inc()
}

func (m *Metrics) state(s State) {
	if m == nil {
		return
	}
	if s == StateRemoteActive {
		m.RemoteActive.Set(1)
		return
	}
	m.RemoteActive.Set(0)
}
