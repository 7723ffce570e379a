package api

import (
	"encoding/json"
	"net/http"

	"github.com/metalfoundry/foundry/internal/domain"
)

// Adapter and role catalog endpoints. These are reference data seeded by
// operators, so the surface is list/create/get.

type CreateAdapterRequest struct {
	Name         string `json:"name"`
	OS           string `json:"os,omitempty"`
	TargetSystem string `json:"target_system,omitempty"`
}

type AdapterResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	OS           string `json:"os,omitempty"`
	TargetSystem string `json:"target_system,omitempty"`
}

func (a *API) listAdaptersHandler(w http.ResponseWriter, r *http.Request) {
	adapters, err := a.adapterRepo.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list adapters")
		return
	}

	response := make([]AdapterResponse, len(adapters))
	for i, ad := range adapters {
		response[i] = AdapterResponse{ID: ad.ID, Name: ad.Name, OS: ad.OS, TargetSystem: ad.TargetSystem}
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) createAdapterHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateAdapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	saved, err := a.adapterRepo.Save(r.Context(), domain.Adapter{
		Name:         req.Name,
		OS:           req.OS,
		TargetSystem: req.TargetSystem,
	})
	if err != nil {
		writeRepoError(w, err, "Adapter not found")
		return
	}
	writeJSON(w, http.StatusCreated, AdapterResponse{
		ID: saved.ID, Name: saved.Name, OS: saved.OS, TargetSystem: saved.TargetSystem,
	})
}

func (a *API) getAdapterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid adapter ID")
		return
	}

	adapter, err := a.adapterRepo.FindByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "Adapter not found")
		return
	}
	writeJSON(w, http.StatusOK, AdapterResponse{
		ID: adapter.ID, Name: adapter.Name, OS: adapter.OS, TargetSystem: adapter.TargetSystem,
	})
}

type CreateRoleRequest struct {
	Name         string `json:"name"`
	TargetSystem string `json:"target_system,omitempty"`
	Description  string `json:"description,omitempty"`
}

type RoleResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	TargetSystem string `json:"target_system,omitempty"`
	Description  string `json:"description,omitempty"`
}

// listRolesHandler handles GET /api/v0/roles. An optional target_system
// query parameter filters the catalog.
func (a *API) listRolesHandler(w http.ResponseWriter, r *http.Request) {
	var roles []domain.Role
	var err error
	if target := r.URL.Query().Get("target_system"); target != "" {
		roles, err = a.roleRepo.FindByTargetSystem(r.Context(), target)
	} else {
		roles, err = a.roleRepo.FindAll(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list roles")
		return
	}

	response := make([]RoleResponse, len(roles))
	for i, role := range roles {
		response[i] = RoleResponse{
			ID: role.ID, Name: role.Name, TargetSystem: role.TargetSystem, Description: role.Description,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) createRoleHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	saved, err := a.roleRepo.Save(r.Context(), domain.Role{
		Name:         req.Name,
		TargetSystem: req.TargetSystem,
		Description:  req.Description,
	})
	if err != nil {
		writeRepoError(w, err, "Role not found")
		return
	}
	writeJSON(w, http.StatusCreated, RoleResponse{
		ID: saved.ID, Name: saved.Name, TargetSystem: saved.TargetSystem, Description: saved.Description,
	})
}
