package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metalfoundry/foundry/internal/domain"
)

type CreateMachineRequest struct {
	MAC      string `json:"mac"`
	Port     int    `json:"port,omitempty"`
	VLAN     int    `json:"vlan,omitempty"`
	SwitchID *int64 `json:"switch_id,omitempty"`
}

type MachineResponse struct {
	ID        int64     `json:"id"`
	MAC       string    `json:"mac"`
	Port      int       `json:"port,omitempty"`
	VLAN      int       `json:"vlan,omitempty"`
	SwitchID  *int64    `json:"switch_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func machineResponse(m domain.Machine) MachineResponse {
	return MachineResponse{
		ID:        m.ID,
		MAC:       m.MAC,
		Port:      m.Port,
		VLAN:      m.VLAN,
		SwitchID:  m.SwitchID,
		UpdatedAt: m.UpdatedAt,
	}
}

func (a *API) listMachinesHandler(w http.ResponseWriter, r *http.Request) {
	machines, err := a.machineRepo.FindAll(r.Context())
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

func (a *API) createMachineHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateMachineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MAC == "" {
		writeError(w, http.StatusBadRequest, "MAC is required")
		return
	}

	machine := domain.Machine{MAC: req.MAC, Port: req.Port, VLAN: req.VLAN, SwitchID: req.SwitchID}
	saved, err := a.machineRepo.Save(r.Context(), machine)
	if err != nil {
		writeRepoError(w, err, "Machine not found")
		return
	}
	writeJSON(w, http.StatusCreated, machineResponse(saved))
}

func (a *API) getMachineHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid machine ID")
		return
	}

	machine, err := a.machineRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Machine not found")
		return
	}
	writeJSON(w, http.StatusOK, machineResponse(machine))
}

func (a *API) getMachineByMACHandler(w http.ResponseWriter, r *http.Request) {
	machine, err := a.machineRepo.FindByMAC(r.Context(), chi.URLParam(r, "mac"))
	if err != nil {
		writeRepoError(w, err, "Machine not found")
		return
	}
	writeJSON(w, http.StatusOK, machineResponse(machine))
}

func (a *API) deleteMachineHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid machine ID")
		return
	}

	if err := a.machineRepo.DeleteByID(r.Context(), id); err != nil {
		writeRepoError(w, err, "Machine not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
