package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ConversionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jpslite_conversion_seconds",
		Help:    "Time spent converting a single trajectory file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	ConversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jpslite_conversions_total",
		Help: "Total number of conversion jobs, by outcome.",
	}, []string{"outcome"})

	TrajectoryRowsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jpslite_trajectory_rows_written_total",
		Help: "Total number of trajectory rows written to output stores.",
	})

	FramesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jpslite_frames_written_total",
		Help: "Total number of frame_data rows written to output stores.",
	})

	GeometryFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jpslite_geometry_fallbacks_total",
		Help: "Total number of jobs that derived a walkable area from the trajectory bounds.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jpslite_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherReconversionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jpslite_watcher_reconversions_dropped_total",
		Help: "Total number of watch-mode reconversions skipped by the rate limiter.",
	})
)
