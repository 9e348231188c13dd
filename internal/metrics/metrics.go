// Package metrics holds the Prometheus collectors of the service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_match_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restaurant_match_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Swipes and favorites
	Swipes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_match_swipes_total",
			Help: "Total number of recorded swipes",
		},
		[]string{"direction"},
	)

	FavoritesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_favorites_created_total",
			Help: "Total number of newly created favorites",
		},
	)

	FavoritesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_favorites_removed_total",
			Help: "Total number of favorites removed by unlike or reset",
		},
	)

	CandidatesFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_candidates_filtered_total",
			Help: "Total number of catalog restaurants hidden because the user already decided on them",
		},
	)

	// Tournaments
	TournamentsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_tournaments_started_total",
			Help: "Total number of tournaments started",
		},
	)

	TournamentsFinished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_tournaments_finished_total",
			Help: "Total number of tournaments that produced a winner",
		},
	)

	TournamentComparisons = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_tournament_comparisons_total",
			Help: "Total number of resolved tournament pairs",
		},
	)

	ActiveTournaments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "restaurant_match_active_tournaments",
			Help: "Number of tournament sessions held in memory",
		},
	)

	// Matches and notifications
	MatchNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_match_notifications_total",
			Help: "Total number of match notifications emitted",
		},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_match_notifications_created_total",
			Help: "Total number of stored notifications",
		},
		[]string{"type"},
	)

	NotificationsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_notifications_pruned_total",
			Help: "Total number of notifications dropped by retention",
		},
	)

	// Catalog
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restaurant_match_catalog_requests_total",
			Help: "Total number of catalog searches by outcome",
		},
		[]string{"outcome"}, // "ok", "cache_hit", "error", "rejected"
	)

	CatalogDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "restaurant_match_catalog_request_duration_seconds",
			Help:    "Duration of catalog provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "restaurant_match_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Presence and realtime
	PresenceWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_match_presence_write_failures_total",
			Help: "Total number of failed fire-and-forget presence writes",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "restaurant_match_websocket_connections",
			Help: "Number of open websocket connections",
		},
	)
)
