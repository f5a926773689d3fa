package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(streamEventsTotal, streamMalformedTotal, streamDurationSeconds) }

var streamEventsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "progress_stream_events_total",
		Help: "Total decoded progress events across all task streams.",
	},
)

var streamMalformedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "progress_stream_malformed_lines_total",
		Help: "Total data lines dropped because they failed to decode.",
	},
)

var streamDurationSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "progress_stream_duration_seconds",
		Help:    "Lifetime of one progress stream subscription, open to close.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	},
)

func IncStreamEvent()         { streamEventsTotal.Inc() }
func IncStreamMalformedLine() { streamMalformedTotal.Inc() }
func ObserveStreamDuration(d time.Duration) {
	streamDurationSeconds.Observe(d.Seconds())
}
