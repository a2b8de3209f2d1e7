package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var (
	// Metrics
	destructiveEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_destructive_events_total",
			Help: "Total number of destructive guild events observed",
		},
		[]string{"kind"},
	)

	malformedEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_malformed_events_total",
			Help: "Total number of events dropped as malformed",
		},
	)

	verdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_automod_verdicts_total",
			Help: "Total number of automod verdicts by outcome",
		},
		[]string{"verdict"},
	)

	breachesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_breaches_total",
			Help: "Total number of anti nuke threshold breaches",
		},
	)

	breachesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "warden_breaches_dropped_total",
			Help: "Total number of breaches dropped on queue overflow",
		},
	)

	responseStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warden_response_steps_total",
			Help: "Total number of response steps by outcome",
		},
		[]string{"step", "outcome"},
	)

	responseStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warden_response_step_duration_seconds",
			Help:    "Time spent on individual response steps",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	trackedWindows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "warden_tracked_windows",
			Help: "Number of live per actor action windows",
		},
	)
)

var (
	setupOnce      sync.Once
	tracerProvider *sdktrace.TracerProvider
)

func setup() {
	setupOnce.Do(func() {
		prometheus.MustRegister(
			destructiveEventsTotal,
			malformedEventsTotal,
			verdictsTotal,
			breachesTotal,
			breachesDroppedTotal,
			responseStepsTotal,
			responseStepDuration,
			trackedWindows,
		)

		// No exporter is wired, spans stay in process until one is.
		tracerProvider = sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tracerProvider)
	})
}

func Tracer() trace.Tracer {
	return otel.Tracer("warden")
}

// RecordDestructiveEvent counts one observed destructive guild event
func RecordDestructiveEvent(kind string) {
	destructiveEventsTotal.WithLabelValues(kind).Inc()
}

// RecordMalformedEvent counts one dropped malformed event
func RecordMalformedEvent() {
	malformedEventsTotal.Inc()
}

// RecordVerdict counts one automod verdict
func RecordVerdict(verdict string) {
	verdictsTotal.WithLabelValues(verdict).Inc()
}

// RecordBreach counts one threshold breach
func RecordBreach() {
	breachesTotal.Inc()
}

// RecordBreachDropped counts one breach lost to queue overflow
func RecordBreachDropped() {
	breachesDroppedTotal.Inc()
}

// StartResponseStep returns a function to record the step's duration and outcome
func StartResponseStep(step string) func(outcome string) {
	timer := prometheus.NewTimer(responseStepDuration.WithLabelValues(step))
	return func(outcome string) {
		timer.ObserveDuration()
		responseStepsTotal.WithLabelValues(step, outcome).Inc()
	}
}

// SetTrackedWindows publishes the current number of live action windows
func SetTrackedWindows(n int) {
	trackedWindows.Set(float64(n))
}
