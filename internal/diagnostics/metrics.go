// internal/diagnostics/metrics.go
package diagnostics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modbus_gateway"

// metrics mirrors the counters for scraping. Prometheus counters are
// monotonic, so Reset leaves them untouched.
type metrics struct {
	operations *prometheus.CounterVec
	broadcasts prometheus.Counter
	exceptions *prometheus.CounterVec
	linkUp     prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Dispatched read and write operations by result code.",
		}, []string{"result"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Broadcast writes sent to unit 0.",
		}),
		exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exceptions_total",
			Help:      "Modbus exception responses by exception name.",
		}, []string{"name"}),
		linkUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_up",
			Help:      "1 when the last request reached the device, 0 otherwise.",
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.operations, m.broadcasts, m.exceptions, m.linkUp}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("diagnostics: register metrics: %w", err)
		}
	}
	return nil
}
