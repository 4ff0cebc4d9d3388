package livefeed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "rollcall",
	Subsystem: "livefeed",
	Name:      "subscribers",
	Help:      "Currently connected live feed subscribers.",
})
