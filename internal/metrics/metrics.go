// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Command verbs and blocker resolution paths, pre-seeded so every series
// is visible at /metrics before its first increment.
var (
	CommandVerbs    = []string{"approve", "reject", "cancel", "start", "set-plan"}
	CommandOutcomes = []string{"success", "error"}
	ResolutionPaths = []string{"retry", "skip", "apply_fix", "abort"}
)

var (
	initOnce sync.Once

	eventsIngestedCounter     prometheus.Counter
	eventsEvictedCounter      prometheus.Counter
	streamReconnectsCounter   prometheus.Counter
	commandsTotalCounter      *prometheus.CounterVec
	pendingActionsGauge       prometheus.Gauge
	blockerResolutionsCounter *prometheus.CounterVec
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		eventsIngestedCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "console_events_ingested_total",
				Help: "Total number of workflow events accepted by the event store.",
			},
		)

		eventsEvictedCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "console_events_evicted_total",
				Help: "Total number of events dropped by per-workflow FIFO eviction.",
			},
		)

		streamReconnectsCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "console_stream_reconnects_total",
				Help: "Total number of event stream reconnect attempts.",
			},
		)

		commandsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_commands_total",
				Help: "Total number of dispatched remote commands by verb and outcome.",
			},
			[]string{"verb", "outcome"},
		)

		pendingActionsGauge = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "console_pending_actions",
				Help: "Number of remote commands currently in flight.",
			},
		)

		blockerResolutionsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_blocker_resolutions_total",
				Help: "Total number of blocker resolutions dispatched by path.",
			},
			[]string{"path"},
		)

		prometheus.MustRegister(
			eventsIngestedCounter,
			eventsEvictedCounter,
			streamReconnectsCounter,
			commandsTotalCounter,
			pendingActionsGauge,
			blockerResolutionsCounter,
		)

		for _, verb := range CommandVerbs {
			for _, outcome := range CommandOutcomes {
				commandsTotalCounter.WithLabelValues(verb, outcome)
			}
		}
		for _, path := range ResolutionPaths {
			blockerResolutionsCounter.WithLabelValues(path)
		}
	})
}

func IncEventsIngested() {
	Init()
	eventsIngestedCounter.Inc()
}

func AddEventsEvicted(n int) {
	Init()
	eventsEvictedCounter.Add(float64(n))
}

func IncStreamReconnects() {
	Init()
	streamReconnectsCounter.Inc()
}

func IncCommand(verb, outcome string) {
	Init()
	commandsTotalCounter.WithLabelValues(verb, outcome).Inc()
}

func SetPendingActions(n int) {
	Init()
	pendingActionsGauge.Set(float64(n))
}

func IncBlockerResolution(path string) {
	Init()
	blockerResolutionsCounter.WithLabelValues(path).Inc()
}
