package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metalfoundry/foundry/internal/confmap"
	"github.com/metalfoundry/foundry/internal/domain"
	"github.com/metalfoundry/foundry/internal/repository"
)

type CreateClusterRequest struct {
	Name      string `json:"name,omitempty"`
	AdapterID *int64 `json:"adapter_id,omitempty"`
}

type ClusterResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Mutable   bool           `json:"mutable"`
	AdapterID *int64         `json:"adapter_id,omitempty"`
	State     *StateResponse `json:"state,omitempty"`
}

type StateResponse struct {
	State     domain.InstallState `json:"state"`
	Progress  float64             `json:"progress"`
	Message   string              `json:"message,omitempty"`
	Severity  domain.Severity     `json:"severity"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type UpdateStateRequest struct {
	State    domain.InstallState `json:"state"`
	Progress float64             `json:"progress"`
	Message  string              `json:"message,omitempty"`
	Severity domain.Severity     `json:"severity,omitempty"`
}

func clusterResponse(c domain.Cluster) ClusterResponse {
	resp := ClusterResponse{
		ID:        c.ID,
		Name:      c.Name,
		Mutable:   c.Mutable,
		AdapterID: c.AdapterID,
	}
	if c.State != nil {
		resp.State = &StateResponse{
			State:     c.State.State,
			Progress:  c.State.Progress,
			Message:   c.State.Message,
			Severity:  c.State.Severity,
			UpdatedAt: c.State.UpdatedAt,
		}
	}
	return resp
}

func (a *API) listClustersHandler(w http.ResponseWriter, r *http.Request) {
	clusters, err := a.clusterRepo.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clusters")
		return
	}

	response := make([]ClusterResponse, len(clusters))
	for i, c := range clusters {
		response[i] = clusterResponse(c)
	}
	writeJSON(w, http.StatusOK, response)
}

// createClusterHandler handles POST /api/v0/clusters. A missing name is
// filled with a generated unique one.
func (a *API) createClusterHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateClusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cluster := domain.NewCluster(req.Name)
	cluster.AdapterID = req.AdapterID
	saved, err := a.clusterRepo.Save(r.Context(), *cluster)
	if err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}
	writeJSON(w, http.StatusCreated, clusterResponse(saved))
}

func (a *API) getClusterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cluster ID")
		return
	}

	cluster, err := a.clusterRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, clusterResponse(cluster))
}

func (a *API) getClusterByNameHandler(w http.ResponseWriter, r *http.Request) {
	cluster, err := a.clusterRepo.FindByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, clusterResponse(cluster))
}

func (a *API) deleteClusterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cluster ID")
		return
	}

	if err := a.clusterRepo.DeleteByID(r.Context(), id); err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getClusterConfigHandler handles GET /api/v0/clusters/{id}/config. The
// response is the composed configuration view, derived on the fly.
func (a *API) getClusterConfigHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cluster ID")
		return
	}

	cluster, err := a.clusterRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, cluster.Config())
}

// replaceClusterConfigHandler handles PUT /api/v0/clusters/{id}/config. The
// body replaces the whole configuration; an empty object clears it.
func (a *API) replaceClusterConfigHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cluster ID")
		return
	}

	var values confmap.Map
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := a.clusterRepo.ReplaceConfig(r.Context(), id, values); err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}

	cluster, err := a.clusterRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, cluster.Config())
}

// mergeClusterFragmentHandler handles PUT /api/v0/clusters/{id}/config/{fragment}.
// The body is deep-merged into the named fragment; an empty object clears it.
func (a *API) mergeClusterFragmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cluster ID")
		return
	}

	fragment := repository.ClusterFragment(chi.URLParam(r, "fragment"))
	switch fragment {
	case repository.FragmentSecurity, repository.FragmentNetworking, repository.FragmentPartition:
	default:
		writeError(w, http.StatusBadRequest, "Unknown config fragment")
		return
	}

	var values confmap.Map
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := a.clusterRepo.MergeFragment(r.Context(), id, fragment, values); err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}

	cluster, err := a.clusterRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Cluster not found")
		return
	}
	writeJSON(w, http.StatusOK, cluster.Config())
}

func (a *API) getClusterStateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cluster ID")
		return
	}

	state, err := a.clusterRepo.FindState(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Cluster state not found")
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

// updateClusterStateHandler handles PUT /api/v0/clusters/{id}/state. Any
// state and progress combination is accepted; ordering is the installer's
// concern.
func (a *API) updateClusterStateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cluster ID")
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

	err = a.clusterRepo.UpdateState(r.Context(), domain.ClusterState{
		ClusterID: id,
		State:     req.State,
		Progress:  req.Progress,
		Message:   req.Message,
		Severity:  req.Severity,
	})
	if err != nil {
		writeRepoError(w, err, "Cluster state not found")
		return
	}

	state, err := a.clusterRepo.FindState(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Cluster state not found")
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

func (a *API) listClusterHostsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cluster ID")
		return
	}

	hosts, err := a.hostRepo.FindByClusterID(r.Context(), id)
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
