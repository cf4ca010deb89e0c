package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	AdmissionsTotal     *prometheus.CounterVec
	DischargesTotal     prometheus.Counter
	TransfersTotal      prometheus.Counter
	AdjacencyRejections prometheus.Counter
	BedLockConflicts    prometheus.Counter
	OccupiedBeds        prometheus.Gauge

	WebsocketClients prometheus.Gauge

	ActivityEntriesTotal  prometheus.Counter
	ActivityBufferDropped prometheus.Counter

	DBConnections prometheus.Gauge
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		AdmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "allocation",
			Name:      "admissions_total",
			Help:      "Total admissions by mode (direct, auto, transfer).",
		}, []string{"mode"}),

		DischargesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "allocation",
			Name:      "discharges_total",
			Help:      "Total patient discharges.",
		}),

		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "allocation",
			Name:      "transfers_total",
			Help:      "Total completed bed transfers.",
		}),

		AdjacencyRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "allocation",
			Name:      "adjacency_rejections_total",
			Help:      "Placements rejected by the infection adjacency check.",
		}),

		BedLockConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "allocation",
			Name:      "bed_lock_conflicts_total",
			Help:      "Operations that timed out waiting for a bed lock. Alert if growing.",
		}),

		OccupiedBeds: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "allocation",
			Name:      "occupied_beds",
			Help:      "Current number of occupied beds across all wards.",
		}),

		WebsocketClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "realtime",
			Name:      "websocket_clients",
			Help:      "Currently connected websocket clients.",
		}),

		ActivityEntriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "activity",
			Name:      "entries_total",
			Help:      "Total activity ledger entries written.",
		}),

		ActivityBufferDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "activity",
			Name:      "buffer_dropped_total",
			Help:      "Activity entries dropped due to full buffer. Alert if non-zero.",
		}),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "open_connections",
			Help:      "Current number of open database connections.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
