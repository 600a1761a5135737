package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WeatherFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_app_fetches_total",
			Help: "Weather provider calls by location kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	LocationResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_app_location_resolutions_total",
			Help: "Location resolutions by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	Favorites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weather_app_favorites",
			Help: "Number of persisted favorite cities after the last mutation or load.",
		},
	)

	StaleResults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_app_stale_results_total",
			Help: "Results discarded because a newer request was issued.",
		},
	)
)

func init() {
	prometheus.MustRegister(WeatherFetches, LocationResolutions, Favorites, StaleResults)
}
