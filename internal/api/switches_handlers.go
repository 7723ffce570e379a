package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/metalfoundry/foundry/internal/confmap"
	"github.com/metalfoundry/foundry/internal/domain"
)

type CreateSwitchRequest struct {
	IP     string `json:"ip"`
	Vendor string `json:"vendor"`
}

type SwitchResponse struct {
	ID         int64              `json:"id"`
	IP         string             `json:"ip"`
	Vendor     string             `json:"vendor,omitempty"`
	State      domain.SwitchState `json:"state"`
	Credential map[string]string  `json:"credential,omitempty"`
}

func switchResponse(sw domain.Switch) SwitchResponse {
	return SwitchResponse{
		ID:         sw.ID,
		IP:         sw.IP,
		Vendor:     sw.Vendor,
		State:      sw.State,
		Credential: sw.Credential(),
	}
}

func (a *API) listSwitchesHandler(w http.ResponseWriter, r *http.Request) {
	switches, err := a.switchRepo.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list switches")
		return
	}

	response := make([]SwitchResponse, len(switches))
	for i, sw := range switches {
		response[i] = switchResponse(sw)
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) createSwitchHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.IP == "" {
		writeError(w, http.StatusBadRequest, "IP is required")
		return
	}

	sw := domain.NewSwitch(req.IP)
	sw.Vendor = req.Vendor
	saved, err := a.switchRepo.Save(r.Context(), *sw)
	if err != nil {
		writeRepoError(w, err, "Switch not found")
		return
	}
	writeJSON(w, http.StatusCreated, switchResponse(saved))
}

func (a *API) getSwitchHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid switch ID")
		return
	}

	sw, err := a.switchRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Switch not found")
		return
	}
	writeJSON(w, http.StatusOK, switchResponse(sw))
}

func (a *API) getSwitchByIPHandler(w http.ResponseWriter, r *http.Request) {
	sw, err := a.switchRepo.FindByIP(r.Context(), chi.URLParam(r, "ip"))
	if err != nil {
		writeRepoError(w, err, "Switch not found")
		return
	}
	writeJSON(w, http.StatusOK, switchResponse(sw))
}

func (a *API) deleteSwitchHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid switch ID")
		return
	}

	if err := a.switchRepo.DeleteByID(r.Context(), id); err != nil {
		writeRepoError(w, err, "Switch not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mergeSwitchCredentialHandler handles PUT /api/v0/switches/{id}/credential.
// The body is a JSON object merged into the stored credential; an empty
// object clears it.
func (a *API) mergeSwitchCredentialHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid switch ID")
		return
	}

	var values confmap.Map
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := a.switchRepo.MergeCredential(r.Context(), id, values); err != nil {
		writeRepoError(w, err, "Switch not found")
		return
	}

	sw, err := a.switchRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Switch not found")
		return
	}
	writeJSON(w, http.StatusOK, switchResponse(sw))
}

func (a *API) listSwitchMachinesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid switch ID")
		return
	}

	machines, err := a.machineRepo.FindBySwitchID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list machines")
		return
	}

	response := make([]MachineResponse, len(machines))
	for i, m := range machines {
		response[i] = machineResponse(m)
	}
	writeJSON(w, http.StatusOK, response)
}
