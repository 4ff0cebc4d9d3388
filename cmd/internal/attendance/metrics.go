package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var marksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rollcall",
	Subsystem: "attendance",
	Name:      "marks_total",
	Help:      "Attendance mark operations by action.",
}, []string{"action"})
