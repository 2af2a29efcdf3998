package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	replaysFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rlcoach_replays_fetched_total",
		Help: "Total number of replays examined from the provider",
	})
	replaysStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rlcoach_replays_stored_total",
		Help: "Total number of new replays inserted into the store",
	})
	fetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rlcoach_fetch_errors_total",
		Help: "Total number of fetch runs that ended with an error",
	})
)
