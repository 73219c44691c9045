// Package metrics exposes the Prometheus instrumentation for the
// publication pipeline and the elevator controller, registered once at
// init time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
)

const streamLabel = "stream"

var (
	assignmentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "controller",
			Name:      "assignment_duration_seconds",
			Help:      "Wall-clock time of one controller tick: assigning pending calls and stepping active assignments.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
		nil,
	)

	batchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "publish",
			Name:      "event_batch_size",
			Help:      "Number of event records flushed per batch.",
			Buckets:   []float64{1, 8, 32, 128, 512},
		},
		nil,
	)

	flushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "publish",
			Name:      "flush_duration_seconds",
			Help:      "Time spent inside a sink flush call.",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{streamLabel},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "publish",
			Name:      "queue_depth",
			Help:      "Current depth of a publication pipeline queue.",
		},
		[]string{streamLabel},
	)

	dropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "publish",
			Name:      "drops_total",
			Help:      "Records dropped by a coalescing or backpressure policy.",
		},
		[]string{streamLabel},
	)

	sinkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "publish",
			Name:      "sink_errors_total",
			Help:      "Sink write errors swallowed by the publication pipeline.",
		},
		[]string{streamLabel},
	)
)

func init() {
	prometheus.MustRegister(assignmentDuration, batchSize, flushDuration, queueDepth, dropsTotal, sinkErrorsTotal)
}

// ObserveAssignmentDuration records how long one controller tick took
// (pending-call assignment plus stepping every active assignment).
func ObserveAssignmentDuration(seconds float64) {
	assignmentDuration.WithLabelValues().Observe(seconds)
}

// ObserveBatchSize records the size of an event batch flushed by the
// batcher.
func ObserveBatchSize(n int) {
	batchSize.WithLabelValues().Observe(float64(n))
}

// ObserveFlushDuration records how long a sink flush took for the given
// stream ("events" or "snapshots").
func ObserveFlushDuration(stream string, seconds float64) {
	flushDuration.WithLabelValues(stream).Observe(seconds)
}

// SetQueueDepth reports the current depth of a pipeline queue.
func SetQueueDepth(stream string, depth int) {
	queueDepth.WithLabelValues(stream).Set(float64(depth))
}

// IncDrops increments the drop counter for a stream's coalescing policy.
func IncDrops(stream string) {
	dropsTotal.WithLabelValues(stream).Inc()
}

// IncSinkErrors increments the swallowed-sink-error counter for a stream.
func IncSinkErrors(stream string) {
	sinkErrorsTotal.WithLabelValues(stream).Inc()
}
