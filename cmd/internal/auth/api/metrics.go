package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Auth counters. Login and refresh carry a result label; compromise events
// are the reuse-detection wipes, worth alerting on separately.
var (
	metricRegistrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mosaic",
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Completed registrations.",
	})

	metricLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mosaic",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	metricRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mosaic",
		Subsystem: "auth",
		Name:      "refresh_rotations_total",
		Help:      "Refresh rotations by result.",
	}, []string{"result"})

	metricCompromiseEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mosaic",
		Subsystem: "auth",
		Name:      "compromise_events_total",
		Help:      "Stale refresh-token sightings that cleared a user's sessions.",
	})
)
