package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/mapcolor/internal/events"
)

const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

const (
	AlertMQTTDisconnected    = "mqtt_disconnected"
	AlertPostgresUnavailable = "postgres_unavailable"
)

// AlertPayload is the JSON body posted to the alert webhook.
type AlertPayload struct {
	Service   string                 `json:"service"`
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// dependencyWatch tracks one optional dependency and decides when an outage
// has lasted long enough to alert, and when it has recovered.
type dependencyWatch struct {
	event     string
	label     string
	severity  string
	delay     time.Duration
	downSince time.Time
	alerted   bool
}

// observe records the current state and returns the alert to send, if any.
func (d *dependencyWatch) observe(connected bool, now time.Time) *AlertPayload {
	if connected {
		recovered := d.alerted
		d.downSince = time.Time{}
		d.alerted = false
		if !recovered {
			return nil
		}
		return &AlertPayload{
			Event:    d.event,
			Severity: SeverityInfo,
			Message:  d.label + " connection restored",
			Details:  map[string]interface{}{"recovered_at": now.UTC().Format(time.RFC3339)},
		}
	}

	if d.downSince.IsZero() {
		d.downSince = now
	}
	down := now.Sub(d.downSince)
	if d.alerted || down < d.delay {
		return nil
	}
	d.alerted = true
	return &AlertPayload{
		Event:    d.event,
		Severity: d.severity,
		Message:  d.label + " unavailable",
		Details: map[string]interface{}{
			"disconnected_since":   d.downSince.UTC().Format(time.RFC3339),
			"disconnected_seconds": int(down.Seconds()),
		},
	}
}

// Alerter posts outage and recovery notices for the MQTT broker and the
// event archive to a webhook. Without a webhook URL alerts are only logged.
type Alerter struct {
	webhookURL string
	client     *http.Client

	mu       sync.Mutex
	mqtt     *dependencyWatch
	postgres *dependencyWatch
}

// NewAlerter creates an alerter. An outage must last the given delay before
// it is reported.
func NewAlerter(webhookURL string, mqttDelay, postgresDelay time.Duration) *Alerter {
	return &Alerter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		mqtt: &dependencyWatch{
			event: AlertMQTTDisconnected, label: "MQTT broker",
			severity: SeverityWarning, delay: mqttDelay,
		},
		postgres: &dependencyWatch{
			event: AlertPostgresUnavailable, label: "PostgreSQL",
			severity: SeverityCritical, delay: postgresDelay,
		},
	}
}

// AlerterFromEnv reads MAPCOLOR_ALERT_WEBHOOK_URL, MAPCOLOR_MQTT_ALERT_DELAY
// (default 30s) and MAPCOLOR_POSTGRES_ALERT_DELAY (default 5s).
func AlerterFromEnv() (*Alerter, error) {
	mqttDelay, err := durationEnv("MAPCOLOR_MQTT_ALERT_DELAY", 30*time.Second)
	if err != nil {
		return nil, err
	}
	pgDelay, err := durationEnv("MAPCOLOR_POSTGRES_ALERT_DELAY", 5*time.Second)
	if err != nil {
		return nil, err
	}

	url := os.Getenv("MAPCOLOR_ALERT_WEBHOOK_URL")
	if url != "" {
		log.Printf("alerts enabled: webhook configured (mqtt_delay=%s, pg_delay=%s)", mqttDelay, pgDelay)
	}
	return NewAlerter(url, mqttDelay, pgDelay), nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

// check feeds the readiness state into the watches. Disabled dependencies
// are never alerted on.
func (a *Alerter) check(now time.Time) []AlertPayload {
	readiness.mu.RLock()
	mqttEnabled, mqttConnected := readiness.mqttEnabled, readiness.mqttConnected
	pgEnabled, pgConnected := readiness.postgresEnabled, readiness.postgresConnected
	readiness.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	var out []AlertPayload
	if mqttEnabled {
		if p := a.mqtt.observe(mqttConnected, now); p != nil {
			out = append(out, *p)
		}
	}
	if pgEnabled {
		if p := a.postgres.observe(pgConnected, now); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// send posts one alert. Failures are logged; alerting is best effort.
func (a *Alerter) send(ctx context.Context, p AlertPayload) {
	p.Service = getServiceName()
	p.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if a.webhookURL == "" {
		log.Printf("[ALERT] %s severity=%s msg=%q details=%v", p.Event, p.Severity, p.Message, p.Details)
		return
	}

	body, err := json.Marshal(p)
	if err != nil {
		log.Printf("alert: failed to marshal payload: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("alert: bad webhook request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		log.Printf("alert: webhook POST failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("alert: webhook returned status %d", resp.StatusCode)
	}
}

// pingArchive refreshes the archive's readiness with a ping.
func pingArchive(ctx context.Context) {
	readiness.mu.RLock()
	enabled := readiness.postgresEnabled
	readiness.mu.RUnlock()
	if !enabled {
		return
	}

	client := events.GetPostgresClient()
	if client == nil {
		SetPostgresStatus(true, false)
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	SetPostgresStatus(true, client.Ping(pingCtx) == nil)
}

// Run checks dependencies every interval until ctx is cancelled.
func (a *Alerter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pingArchive(ctx)
			for _, p := range a.check(time.Now()) {
				a.send(ctx, p)
			}
		}
	}
}
