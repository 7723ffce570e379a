package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/metalfoundry/foundry/internal/domain"
)

type CommitCheckpointRequest struct {
	Pathname        string          `json:"pathname"`
	Position        int64           `json:"position"`
	PartialLine     string          `json:"partial_line,omitempty"`
	Progress        float64         `json:"progress"`
	Message         string          `json:"message,omitempty"`
	Severity        domain.Severity `json:"severity,omitempty"`
	LineMatcherName string          `json:"line_matcher_name,omitempty"`
}

type CheckpointResponse struct {
	ID              int64           `json:"id"`
	Pathname        string          `json:"pathname"`
	Position        int64           `json:"position"`
	PartialLine     string          `json:"partial_line,omitempty"`
	Progress        float64         `json:"progress"`
	Message         string          `json:"message,omitempty"`
	Severity        domain.Severity `json:"severity"`
	LineMatcherName string          `json:"line_matcher_name"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func checkpointResponse(c domain.LogCheckpoint) CheckpointResponse {
	return CheckpointResponse{
		ID:              c.ID,
		Pathname:        c.Pathname,
		Position:        c.Position,
		PartialLine:     c.PartialLine,
		Progress:        c.Progress,
		Message:         c.Message,
		Severity:        c.Severity,
		LineMatcherName: c.LineMatcherName,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (a *API) listCheckpointsHandler(w http.ResponseWriter, r *http.Request) {
	checkpoints, err := a.checkpointRepo.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list checkpoints")
		return
	}

	response := make([]CheckpointResponse, len(checkpoints))
	for i, c := range checkpoints {
		response[i] = checkpointResponse(c)
	}
	writeJSON(w, http.StatusOK, response)
}

// commitCheckpointHandler handles PUT /api/v0/checkpoints. The checkpoint is
// upserted by pathname, so a parser restart commits over its old row.
func (a *API) commitCheckpointHandler(w http.ResponseWriter, r *http.Request) {
	var req CommitCheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Pathname == "" {
		writeError(w, http.StatusBadRequest, "Pathname is required")
		return
	}

	err := a.checkpointRepo.Commit(r.Context(), domain.LogCheckpoint{
		Pathname:        req.Pathname,
		Position:        req.Position,
		PartialLine:     req.PartialLine,
		Progress:        req.Progress,
		Message:         req.Message,
		Severity:        req.Severity,
		LineMatcherName: req.LineMatcherName,
	})
	if err != nil {
		writeRepoError(w, err, "Checkpoint not found")
		return
	}

	checkpoint, err := a.checkpointRepo.FindByPathname(r.Context(), req.Pathname)
	if err != nil {
		writeRepoError(w, err, "Checkpoint not found")
		return
	}
	writeJSON(w, http.StatusOK, checkpointResponse(checkpoint))
}

// getCheckpointByPathnameHandler handles GET /api/v0/checkpoints/path?pathname=...
// Pathnames contain slashes, so the lookup key travels as a query parameter.
func (a *API) getCheckpointByPathnameHandler(w http.ResponseWriter, r *http.Request) {
	pathname := r.URL.Query().Get("pathname")
	if pathname == "" {
		writeError(w, http.StatusBadRequest, "pathname query parameter is required")
		return
	}

	checkpoint, err := a.checkpointRepo.FindByPathname(r.Context(), pathname)
	if err != nil {
		writeRepoError(w, err, "Checkpoint not found")
		return
	}
	writeJSON(w, http.StatusOK, checkpointResponse(checkpoint))
}
