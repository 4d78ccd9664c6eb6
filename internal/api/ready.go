package api

import (
	"net/http"
	"strings"
	"sync"
)

// Dependency check states reported by /ready.
const (
	CheckOK       = "ok"
	CheckDisabled = "disabled"
	CheckNotReady = "not_ready"
)

type readinessState struct {
	mu                sync.RWMutex
	solverReady       bool
	mqttEnabled       bool
	mqttConnected     bool
	postgresEnabled   bool
	postgresConnected bool
}

var readiness = &readinessState{}

// SetSolverReady marks the engine as able to take requests.
func SetSolverReady(ready bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.solverReady = ready
}

// SetMQTTStatus records whether the MQTT bridge is enabled and connected.
func SetMQTTStatus(enabled, connected bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.mqttEnabled = enabled
	readiness.mqttConnected = connected
}

// SetPostgresStatus records whether the event archive is enabled and connected.
func SetPostgresStatus(enabled, connected bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.postgresEnabled = enabled
	readiness.postgresConnected = connected
}

type CheckResult struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckResult `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

func dependencyStatus(enabled, connected bool) string {
	switch {
	case !enabled:
		return CheckDisabled
	case connected:
		return CheckOK
	default:
		return CheckNotReady
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	solverStatus := CheckNotReady
	if readiness.solverReady {
		solverStatus = CheckOK
	}
	checks := map[string]CheckResult{
		"solver":   {Status: solverStatus},
		"mqtt":     {Status: dependencyStatus(readiness.mqttEnabled, readiness.mqttConnected)},
		"postgres": {Status: dependencyStatus(readiness.postgresEnabled, readiness.postgresConnected)},
	}
	readiness.mu.RUnlock()

	resp := ReadinessResponse{Ready: true, Checks: checks}
	var failing []string
	for _, name := range []string{"solver", "mqtt", "postgres"} {
		if checks[name].Status == CheckNotReady {
			failing = append(failing, name)
		}
	}

	status := http.StatusOK
	if len(failing) > 0 {
		resp.Ready = false
		resp.NotReadyMsg = "not ready: " + strings.Join(failing, ", ")
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
