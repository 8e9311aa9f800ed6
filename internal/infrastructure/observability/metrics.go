package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Repository calls by method and status (ok/error).
	RepositoryCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_calls_total",
			Help: "Total number of repository method calls",
		},
		[]string{"method", "status"},
	)

	RepositoryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_duration_seconds",
			Help:    "Duration of repository method calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	SessionResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_resolutions_total",
			Help: "Session resolutions by outcome",
		},
		[]string{"outcome"},
	)

	LikeToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_like_toggles_total",
			Help: "Like toggles by resulting state",
		},
		[]string{"result"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_lookups_total",
			Help: "Recipe cache lookups by level and result",
		},
		[]string{"level", "result"},
	)
)

func init() {
	prometheus.MustRegister(RepositoryCalls, RepositoryDuration, SessionResolutions, LikeToggles, CacheLookups)
}
