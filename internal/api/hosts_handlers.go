package api

import (
	"encoding/json"
	"net/http"

	"github.com/metalfoundry/foundry/internal/confmap"
	"github.com/metalfoundry/foundry/internal/domain"
)

type CreateHostRequest struct {
	Hostname  string `json:"hostname,omitempty"`
	ClusterID *int64 `json:"cluster_id,omitempty"`
	MachineID *int64 `json:"machine_id,omitempty"`
}

type HostResponse struct {
	ID        int64          `json:"id"`
	Hostname  string         `json:"hostname"`
	Mutable   bool           `json:"mutable"`
	ClusterID *int64         `json:"cluster_id,omitempty"`
	MachineID *int64         `json:"machine_id,omitempty"`
	State     *StateResponse `json:"state,omitempty"`
}

func hostResponse(h domain.ClusterHost) HostResponse {
	resp := HostResponse{
		ID:        h.ID,
		Hostname:  h.Hostname,
		Mutable:   h.Mutable,
		ClusterID: h.ClusterID,
		MachineID: h.MachineID,
	}
	if h.State != nil {
		resp.State = &StateResponse{
			State:     h.State.State,
			Progress:  h.State.Progress,
			Message:   h.State.Message,
			Severity:  h.State.Severity,
			UpdatedAt: h.State.UpdatedAt,
		}
	}
	return resp
}

func (a *API) listHostsHandler(w http.ResponseWriter, r *http.Request) {
	hosts, err := a.hostRepo.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list hosts")
		return
	}

	response := make([]HostResponse, len(hosts))
	for i, h := range hosts {
		response[i] = hostResponse(h)
	}
	writeJSON(w, http.StatusOK, response)
}

// createHostHandler handles POST /api/v0/hosts. A missing hostname is filled
// with a generated unique one.
func (a *API) createHostHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	host := domain.NewClusterHost(req.Hostname)
	host.ClusterID = req.ClusterID
	host.MachineID = req.MachineID
	saved, err := a.hostRepo.Save(r.Context(), *host)
	if err != nil {
		writeRepoError(w, err, "Host not found")
		return
	}
	writeJSON(w, http.StatusCreated, hostResponse(saved))
}

func (a *API) getHostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid host ID")
		return
	}

	host, err := a.hostRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Host not found")
		return
	}
	writeJSON(w, http.StatusOK, hostResponse(host))
}

func (a *API) deleteHostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid host ID")
		return
	}

	if err := a.hostRepo.DeleteByID(r.Context(), id); err != nil {
		writeRepoError(w, err, "Host not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getHostConfigHandler handles GET /api/v0/hosts/{id}/config. The response
// is the host's fragment enriched with identity and the machine MAC.
func (a *API) getHostConfigHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid host ID")
		return
	}

	host, err := a.hostRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Host not found")
		return
	}
	writeJSON(w, http.StatusOK, host.Config())
}

// mergeHostConfigHandler handles PUT /api/v0/hosts/{id}/config. The body is
// deep-merged into the host's stored fragment.
func (a *API) mergeHostConfigHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid host ID")
		return
	}

	var values confmap.Map
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := a.hostRepo.MergeConfig(r.Context(), id, values); err != nil {
		writeRepoError(w, err, "Host not found")
		return
	}

	host, err := a.hostRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Host not found")
		return
	}
	writeJSON(w, http.StatusOK, host.Config())
}

func (a *API) getHostStateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid host ID")
		return
	}

	state, err := a.hostRepo.FindState(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Host state not found")
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{
		State:     state.State,
		Progress:  state.Progress,
		Message:   state.Message,
		Severity:  state.Severity,
		UpdatedAt: state.UpdatedAt,
	})
}

func (a *API) updateHostStateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid host ID")
		return
	}

	var req UpdateStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Severity == "" {
		req.Severity = domain.SeverityInfo
	}

	err = a.hostRepo.UpdateState(r.Context(), domain.HostState{
		HostID:   id,
		State:    req.State,
		Progress: req.Progress,
		Message:  req.Message,
		Severity: req.Severity,
	})
	if err != nil {
		writeRepoError(w, err, "Host state not found")
		return
	}

	state, err := a.hostRepo.FindState(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Host state not found")
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{
		State:     state.State,
		Progress:  state.Progress,
		Message:   state.Message,
		Severity:  state.Severity,
		UpdatedAt: state.UpdatedAt,
	})
}
