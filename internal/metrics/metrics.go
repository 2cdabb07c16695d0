package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "physiocare_signin_total",
		Help: "Sign-in attempts by method and outcome.",
	}, []string{"method", "outcome"})

	FallbackHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "physiocare_fallback_hits_total",
		Help: "Sign-ins served by the builtin fallback accounts.",
	})

	OAuthUsersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "physiocare_oauth_users_created_total",
		Help: "Users provisioned on first federated sign-in.",
	})

	StoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "physiocare_store_failures_total",
		Help: "User store round-trips that failed and were degraded.",
	})
)
