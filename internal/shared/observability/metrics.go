// Package observability holds the process-wide prometheus metrics and the
// OpenTelemetry tracer used across the scan pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backrefs_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backrefs_scan_seconds",
		Help:    "Time spent scanning one compilation unit for facts.",
		Buckets: prometheus.DefBuckets,
	}, []string{"level"})

	FactsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backrefs_facts_emitted_total",
		Help: "Total facts emitted by scans, by fact kind.",
	}, []string{"kind"})

	ScanFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backrefs_scan_failures_total",
		Help: "Total unit scans that ended in an error, by error code.",
	}, []string{"code"})

	IndexedUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backrefs_indexed_units_total",
		Help: "Number of compilation units currently present in the index.",
	})

	IndexedReferences = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backrefs_indexed_references_total",
		Help: "Number of reference rows currently present in the index.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backrefs_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WriteQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backrefs_write_queue_depth",
		Help: "Current number of in-memory write requests waiting to be persisted.",
	})

	WriteSpoolDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "backrefs_write_spool_depth",
		Help: "Current number of persistent spool rows waiting to be applied.",
	})

	WriteQueueEnqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backrefs_write_queue_enqueued_total",
		Help: "Total number of write requests accepted into the in-memory queue.",
	})

	WriteQueueDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backrefs_write_queue_dropped_total",
		Help: "Total number of write requests dropped from in-memory enqueue due to backpressure.",
	})

	WriteQueueSpilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backrefs_write_queue_spilled_total",
		Help: "Total number of write requests spooled to persistent storage.",
	})

	WriteQueueRetryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backrefs_write_queue_retry_total",
		Help: "Total number of persistent spool retries.",
	})

	WriteQueueApplyErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backrefs_write_queue_apply_errors_total",
		Help: "Total number of write batch apply errors.",
	})

	WriteQueueProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backrefs_write_queue_processed_total",
		Help: "Total number of write requests successfully applied.",
	})

	WriteQueueFlushLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backrefs_write_queue_flush_seconds",
		Help:    "Latency for applying a write batch.",
		Buckets: prometheus.DefBuckets,
	})
)
