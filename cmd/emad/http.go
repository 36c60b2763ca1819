package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/worker"
	"github.com/Reynold-degenracy/EverMemoryArchive/pkg/models"
)

// inputRequest is the input-submission contract spec.md §6 names:
// {userId, actorId, inputs: [Content]}.
type inputRequest struct {
	UserID  string           `json:"userId"`
	ActorID string           `json:"actorId"`
	Inputs  []models.Content `json:"inputs"`
}

// inputResponse is acknowledgement only; the reply itself is delivered
// later via the event stream, never in this response body.
type inputResponse struct {
	Accepted bool `json:"accepted"`
}

// handleInput implements the input endpoint. A non-POST request is a 405;
// a malformed body, missing ids, or an InputValidationError from Work is
// a 400; any other Work error is a 500.
func handleInput(m *actorManager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req inputRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || req.ActorID == "" {
			http.Error(w, "userId and actorId are required", http.StatusBadRequest)
			return
		}

		if err := m.submit(r.Context(), req.UserID, req.ActorID, req.Inputs); err != nil {
			var inputErr *worker.InputValidationError
			if errors.As(err, &inputErr) {
				http.Error(w, inputErr.Error(), http.StatusBadRequest)
				return
			}
			logger.Error("work failed", "user_id", req.UserID, "actor_id", req.ActorID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(inputResponse{Accepted: true})
	}
}

// handleHealth is a trivial liveness probe for the serve subcommand.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
