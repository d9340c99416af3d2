// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/sgeproto/engine"
	"github.com/wippyai/sgeproto/errors"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Collector counts engine operations. It implements engine.Observer and
// prometheus.Collector.
type Collector struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var (
	_ engine.Observer      = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// New creates an unregistered collector with metric names under namespace.
func New(namespace string) *Collector {
	return &Collector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Engine operations by kind, message type and status.",
			},
			[]string{"op", "type", "status"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Failed engine operations by error class and kind.",
			},
			[]string{"op", "class", "kind"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_total",
				Help:      "Bytes produced by encode and pack or consumed by decode and unpack.",
			},
			[]string{"op"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Engine operation duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
			[]string{"op"},
		),
	}
}

// Observe records one engine event.
func (c *Collector) Observe(ev engine.Event) {
	op := string(ev.Op)
	status := statusSuccess
	if ev.Err != nil {
		status = statusError
		class, kind := "unknown", "unknown"
		var se *errors.Error
		if stderrors.As(ev.Err, &se) {
			class, kind = string(se.Class()), string(se.Kind)
		}
		c.errors.WithLabelValues(op, class, kind).Inc()
	} else {
		c.bytes.WithLabelValues(op).Add(float64(ev.Bytes))
	}
	c.operations.WithLabelValues(op, ev.Type, status).Inc()
	c.duration.WithLabelValues(op).Observe(ev.Duration.Seconds())
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.operations.Describe(ch)
	c.errors.Describe(ch)
	c.bytes.Describe(ch)
	c.duration.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.operations.Collect(ch)
	c.errors.Collect(ch)
	c.bytes.Collect(ch)
	c.duration.Collect(ch)
}
