package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wifimon_cycles_total",
		Help: "Total number of completed polling cycles",
	})

	CycleFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wifimon_cycle_failures_total",
		Help: "Polling cycles that failed, by error class",
	}, []string{"reason"})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wifimon_cycle_duration_seconds",
		Help:    "Duration of one fetch-parse-reconcile-log cycle",
		Buckets: prometheus.DefBuckets,
	})

	MembersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wifimon_members_connected",
		Help: "Roster members seen connected in the last cycle",
	})

	UnknownDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wifimon_unknown_devices",
		Help: "Devices in the last cycle with no roster entry",
	})

	RosterSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wifimon_roster_members",
		Help: "Members currently registered in the roster",
	})
)

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
