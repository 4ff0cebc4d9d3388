package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rollcall",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method and status class.",
}, []string{"method", "class"})
