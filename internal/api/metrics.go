package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AaronLay10/mapcolor/internal/events"
	"github.com/AaronLay10/mapcolor/internal/version"
)

var startTime = time.Now()

func boolGauge(get func() bool) func() float64 {
	return func() float64 {
		if get() {
			return 1
		}
		return 0
	}
}

var (
	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "mapcolor_uptime_seconds",
		Help:        "Number of seconds since the service started",
		ConstLabels: prometheus.Labels{"version": version.Version},
	}, func() float64 { return time.Since(startTime).Seconds() })

	_ = promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "mapcolor_events_total",
		Help: "Total number of service events emitted since startup",
	}, func() float64 { return float64(events.TotalCount()) })

	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mapcolor_ws_clients",
		Help: "Number of connected /ws/events clients",
	}, func() float64 { return float64(events.SubscriberCount()) })

	_ = promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "mapcolor_ws_events_dropped_total",
		Help: "Events skipped for /ws/events clients that fell behind",
	}, func() float64 { return float64(events.DroppedCount()) })

	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mapcolor_mqtt_connected",
		Help: "Whether the MQTT bridge is connected (1) or not (0)",
	}, boolGauge(func() bool {
		readiness.mu.RLock()
		defer readiness.mu.RUnlock()
		return readiness.mqttConnected
	}))

	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mapcolor_postgres_connected",
		Help: "Whether the event archive is connected (1) or not (0)",
	}, boolGauge(func() bool {
		readiness.mu.RLock()
		defer readiness.mu.RUnlock()
		return readiness.postgresConnected
	}))
)

// metricsHandler serves the default Prometheus registry, which includes the
// solver metrics and the Go runtime collectors.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
