package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/AaronLay10/mapcolor/internal/events"
	"github.com/AaronLay10/mapcolor/internal/solver"
	"github.com/AaronLay10/mapcolor/internal/version"
)

var (
	serviceName   = "mapcolor"
	serviceNameMu sync.RWMutex
)

// SetServiceName sets the name reported by /health.
func SetServiceName(name string) {
	serviceNameMu.Lock()
	defer serviceNameMu.Unlock()
	serviceName = name
}

func getServiceName() string {
	serviceNameMu.RLock()
	defer serviceNameMu.RUnlock()
	return serviceName
}

// Server exposes the coloring engine over HTTP.
type Server struct {
	solver *solver.Service
	cors   *corsPolicy
	mux    *http.ServeMux
}

// NewServer builds the route table. corsOrigins lists the origins allowed to
// call the API from a browser; "*" allows any.
func NewServer(svc *solver.Service, corsOrigins []string) *Server {
	s := &Server{
		solver: svc,
		cors:   newCORSPolicy(corsOrigins),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/", uiHandler)
	s.mux.HandleFunc("/health", healthHandler)
	s.mux.HandleFunc("/ready", readyHandler)
	s.mux.HandleFunc("/solve", s.solveHandler)
	s.mux.HandleFunc("/events", eventsHandler)
	s.mux.HandleFunc("/events/history", RequireAnyRole(eventsHistoryHandler))
	s.mux.HandleFunc("/ws/events", RequireAnyRole(wsEventsHandler))
	s.mux.Handle("/metrics", metricsHandler())

	return s
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.cors.wrap(s.mux)
}

// Run serves on port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tlsCfg := LoadTLSConfig(); tlsCfg != nil {
			srv.TLSConfig = tlsCfg
			log.Printf("API listening on %s (TLS)\n", addr)
			err = srv.ListenAndServeTLS("", "")
		} else {
			log.Printf("API listening on %s\n", addr)
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; closing the
	// subscriptions makes their writers hang up.
	events.CloseAllSubscribers()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return <-errCh
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   getServiceName(),
		Version:   version.Version,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	writeJSON(w, http.StatusOK, resp)
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, events.Snapshot())
}

// eventsHistoryHandler returns archived events, newest first.
func eventsHistoryHandler(w http.ResponseWriter, r *http.Request) {
	client := events.GetPostgresClient()
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "event archive disabled", "")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := client.Query(r.Context(), limit)
	if err != nil {
		log.Printf("events history query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "event archive query failed", "")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ErrorResponse is returned by every endpoint on failure.
type ErrorResponse struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, requestID string) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: msg, RequestID: requestID})
}
