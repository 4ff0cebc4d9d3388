package authapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollcall",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"result"})

	logoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rollcall",
		Subsystem: "auth",
		Name:      "logouts_total",
		Help:      "Completed logout requests.",
	})

	sessionRevocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rollcall",
		Subsystem: "auth",
		Name:      "session_revocations_total",
		Help:      "Sessions revoked through the sessions API.",
	})
)
