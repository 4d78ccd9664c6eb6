package solver

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AaronLay10/mapcolor/internal/coloring"
	"github.com/AaronLay10/mapcolor/internal/config"
	"github.com/AaronLay10/mapcolor/internal/events"
)

var (
	// ErrInvalidRequest wraps schema validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrLimitExceeded is returned when a request is larger than the service accepts.
	ErrLimitExceeded = errors.New("request exceeds service limits")
)

// Source names the transport a request arrived on.
type Source string

const (
	SourceHTTP Source = "http"
	SourceMQTT Source = "mqtt"
)

// Service validates coloring requests, applies the configured limits and runs
// the search. It holds no per-request state and is safe for concurrent use.
type Service struct {
	limits   config.SolverConfig
	validate *validator.Validate
}

// New creates a Service enforcing limits.
func New(limits config.SolverConfig) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		limits:   limits,
		validate: v,
	}
}

// Limits returns the limits the service enforces.
func (s *Service) Limits() config.SolverConfig {
	return s.limits
}

// Validate checks the request schema and the size limits.
func (s *Service) Validate(req *SolveRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty body", ErrInvalidRequest)
	}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if s.limits.MaxNodes > 0 && len(req.Nodes) > s.limits.MaxNodes {
		return fmt.Errorf("%w: %d nodes (max %d)", ErrLimitExceeded, len(req.Nodes), s.limits.MaxNodes)
	}
	if s.limits.MaxColors > 0 && *req.NumColors > s.limits.MaxColors {
		return fmt.Errorf("%w: %d colors (max %d)", ErrLimitExceeded, *req.NumColors, s.limits.MaxColors)
	}
	return nil
}

// describe renders a field error as "edges[1].source is required".
func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if fe.Tag() == "required" {
		return field + " is required"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// Solve validates req and runs the search. The full trace is returned only
// when the search ran to completion; a search stopped by the step cap or the
// timeout returns an error and no result.
func (s *Service) Solve(ctx context.Context, requestID string, source Source, req *SolveRequest) (coloring.Result, error) {
	if err := s.Validate(req); err != nil {
		solveTotal.WithLabelValues(string(source), resultRejected).Inc()
		events.Emit("warning", "solve.rejected", err.Error(), map[string]interface{}{
			"request_id": requestID,
			"source":     string(source),
		})
		return coloring.Result{}, err
	}

	graph := req.Graph()
	events.Emit("info", "solve.requested", "", map[string]interface{}{
		"request_id": requestID,
		"source":     string(source),
		"nodes":      len(graph.Nodes),
		"edges":      len(graph.Edges),
		"num_colors": graph.NumColors,
	})

	if s.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limits.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := coloring.Solve(graph,
		coloring.WithContext(ctx),
		coloring.WithMaxSteps(s.limits.MaxSteps),
	)
	elapsed := time.Since(start)
	solveDuration.WithLabelValues(string(source)).Observe(elapsed.Seconds())

	if err != nil {
		solveTotal.WithLabelValues(string(source), resultAborted).Inc()
		events.Emit("warning", "solve.aborted", err.Error(), map[string]interface{}{
			"request_id":  requestID,
			"source":      string(source),
			"steps":       len(res.Steps),
			"duration_ms": elapsed.Milliseconds(),
		})
		return coloring.Result{}, err
	}

	result := resultFailure
	if res.Success {
		result = resultSuccess
	}
	solveTotal.WithLabelValues(string(source), result).Inc()
	solveSteps.Observe(float64(len(res.Steps)))

	events.Emit("info", "solve.completed", "", map[string]interface{}{
		"request_id":  requestID,
		"source":      string(source),
		"success":     res.Success,
		"steps":       len(res.Steps),
		"duration_ms": elapsed.Milliseconds(),
	})

	return res, nil
}
