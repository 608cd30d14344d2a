package metrics

import (
	"net/http"

	"github.com/paust-team/zkwatch/coordinating"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK      = "ok"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Collector holds the metrics of one process. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry        *prometheus.Registry
	operations      *prometheus.CounterVec
	messages        *prometheus.CounterVec
	restarts        *prometheus.CounterVec
	writes          *prometheus.CounterVec
	connectionState prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "operations_total",
			Help:      "Operations executed by consumers, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "messages_total",
			Help:      "Messages handed to processors, by node path.",
		}, []string{"path"}),
		restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "restarts_total",
			Help:      "Backoff-and-restart cycles, by node path.",
		}, []string{"path"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "requests_total",
			Help:      "Producer writes and deletes, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "state",
			Help:      "Connection state: 0 connecting, 1 connected, 2 failed, 3 closed.",
		}),
	}
	c.registry.MustRegister(
		c.operations,
		c.messages,
		c.restarts,
		c.writes,
		c.connectionState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveOperation(kind, outcome string) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) ObserveMessage(path string) {
	if c == nil {
		return
	}
	c.messages.WithLabelValues(path).Inc()
}

func (c *Collector) ObserveRestart(path string) {
	if c == nil {
		return
	}
	c.restarts.WithLabelValues(path).Inc()
}

func (c *Collector) ObserveWrite(operation, outcome string) {
	if c == nil {
		return
	}
	c.writes.WithLabelValues(operation, outcome).Inc()
}

func (c *Collector) SetConnectionState(state coordinating.ConnectionState) {
	if c == nil {
		return
	}
	c.connectionState.Set(float64(state))
}
