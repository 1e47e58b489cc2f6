// Package metrics exposes Prometheus collectors for the playlist engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	favoriteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chinook",
		Name:      "favorite_toggles_total",
		Help:      "Favorite toggles by resulting state.",
	}, []string{"state"})

	playlistsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chinook",
		Name:      "playlists_created_total",
		Help:      "Playlists created implicitly or by name.",
	}, []string{"kind"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chinook",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// FavoriteToggled records the state a toggle left the track in.
func FavoriteToggled(isFavorite bool) {
	state := "removed"
	if isFavorite {
		state = "added"
	}
	favoriteToggles.WithLabelValues(state).Inc()
}

// PlaylistCreated records a new playlist; favorites marks the Favorites playlist.
func PlaylistCreated(favorites bool) {
	kind := "named"
	if favorites {
		kind = "favorites"
	}
	playlistsCreated.WithLabelValues(kind).Inc()
}

// ObserveHTTP records the latency of a finished request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// NotifierStats is the view of the playlist notifier exported as gauges.
type NotifierStats interface {
	Subscribers() int
	Dropped() uint64
}

// RegisterNotifier exports subscriber and drop counts of n on reg.
func RegisterNotifier(reg prometheus.Registerer, n NotifierStats) error {
	subscribers := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "chinook",
		Name:      "playlist_subscribers",
		Help:      "Active playlist snapshot subscribers.",
	}, func() float64 { return float64(n.Subscribers()) })

	dropped := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "chinook",
		Name:      "playlist_snapshots_dropped_total",
		Help:      "Snapshots discarded for slow subscribers.",
	}, func() float64 { return float64(n.Dropped()) })

	if err := reg.Register(subscribers); err != nil {
		return err
	}
	return reg.Register(dropped)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
