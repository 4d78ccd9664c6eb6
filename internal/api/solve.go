package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/AaronLay10/mapcolor/internal/coloring"
	"github.com/AaronLay10/mapcolor/internal/solver"
)

// maxBodyBytes bounds the size of a /solve request body.
const maxBodyBytes = 4 << 20

// solveHandler runs one search and returns {success, steps}.
func (s *Server) solveHandler(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req solver.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", requestID)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON", requestID)
		return
	}

	res, err := s.solver.Solve(r.Context(), requestID, solver.SourceHTTP, &req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, solver.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error(), requestID)
	case errors.Is(err, solver.ErrLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), requestID)
	case errors.Is(err, coloring.ErrStepLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, "step limit exceeded", requestID)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusUnprocessableEntity, "search timed out", requestID)
	default:
		log.Printf("solve %s failed: %v", requestID, err)
		writeError(w, http.StatusServiceUnavailable, "search cancelled", requestID)
	}
}
