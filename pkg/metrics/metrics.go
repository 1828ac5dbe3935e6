package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	IngestItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pitwall", Name: "ingest_items_total", Help: "Number of fetched items by source and outcome (inserted, updated, unchanged, skipped)."},
		[]string{"source", "outcome"},
	)
	IngestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pitwall", Name: "ingest_runs_total", Help: "Number of ingestion runs by source and status (ok, error)."},
		[]string{"source", "status"},
	)
	TrackTimes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pitwall", Name: "track_times_total", Help: "Number of track time extractions by outcome (upserted, skipped)."},
		[]string{"outcome"},
	)
	PublishObjects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pitwall", Name: "publish_objects_total", Help: "Number of site objects considered for publishing by result (written, unchanged)."},
		[]string{"result"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pitwall", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "pitwall", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(IngestItems)
	reg.MustRegister(IngestRuns)
	reg.MustRegister(TrackTimes)
	reg.MustRegister(PublishObjects)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
