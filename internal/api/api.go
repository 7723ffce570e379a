package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/metalfoundry/foundry/internal/datastore"
	"github.com/metalfoundry/foundry/internal/repository"
)

// API holds repository dependencies for clean data access
type API struct {
	switchRepo     repository.SwitchRepository
	machineRepo    repository.MachineRepository
	clusterRepo    repository.ClusterRepository
	hostRepo       repository.HostRepository
	adapterRepo    repository.AdapterRepository
	roleRepo       repository.RoleRepository
	checkpointRepo repository.CheckpointRepository
}

// NewAPI creates a new API instance with repositories initialized from the datastore
func NewAPI(ds *datastore.Datastore) *API {
	return &API{
		switchRepo:     repository.NewSwitchRepository(ds.DB),
		machineRepo:    repository.NewMachineRepository(ds.DB),
		clusterRepo:    repository.NewClusterRepository(ds.DB),
		hostRepo:       repository.NewHostRepository(ds.DB),
		adapterRepo:    repository.NewAdapterRepository(ds.DB),
		roleRepo:       repository.NewRoleRepository(ds.DB),
		checkpointRepo: repository.NewCheckpointRepository(ds.DB),
	}
}

// RegisterRoutes registers all API endpoints to the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v0/switches", func(r chi.Router) {
		r.Get("/", a.listSwitchesHandler)
		r.Post("/", a.createSwitchHandler)
		r.Get("/{id}", a.getSwitchHandler)
		r.Delete("/{id}", a.deleteSwitchHandler)
		r.Get("/ip/{ip}", a.getSwitchByIPHandler)
		r.Put("/{id}/credential", a.mergeSwitchCredentialHandler)
		r.Get("/{id}/machines", a.listSwitchMachinesHandler)
	})

	r.Route("/api/v0/machines", func(r chi.Router) {
		r.Get("/", a.listMachinesHandler)
		r.Post("/", a.createMachineHandler)
		r.Get("/{id}", a.getMachineHandler)
		r.Delete("/{id}", a.deleteMachineHandler)
		r.Get("/mac/{mac}", a.getMachineByMACHandler)
	})

	r.Route("/api/v0/clusters", func(r chi.Router) {
		r.Get("/", a.listClustersHandler)
		r.Post("/", a.createClusterHandler)
		r.Get("/{id}", a.getClusterHandler)
		r.Delete("/{id}", a.deleteClusterHandler)
		r.Get("/name/{name}", a.getClusterByNameHandler)
		r.Get("/{id}/config", a.getClusterConfigHandler)
		r.Put("/{id}/config", a.replaceClusterConfigHandler)
		r.Put("/{id}/config/{fragment}", a.mergeClusterFragmentHandler)
		r.Get("/{id}/state", a.getClusterStateHandler)
		r.Put("/{id}/state", a.updateClusterStateHandler)
		r.Get("/{id}/hosts", a.listClusterHostsHandler)
	})

	r.Route("/api/v0/hosts", func(r chi.Router) {
		r.Get("/", a.listHostsHandler)
		r.Post("/", a.createHostHandler)
		r.Get("/{id}", a.getHostHandler)
		r.Delete("/{id}", a.deleteHostHandler)
		r.Get("/{id}/config", a.getHostConfigHandler)
		r.Put("/{id}/config", a.mergeHostConfigHandler)
		r.Get("/{id}/state", a.getHostStateHandler)
		r.Put("/{id}/state", a.updateHostStateHandler)
	})

	r.Route("/api/v0/adapters", func(r chi.Router) {
		r.Get("/", a.listAdaptersHandler)
		r.Post("/", a.createAdapterHandler)
		r.Get("/{id}", a.getAdapterHandler)
	})

	r.Route("/api/v0/roles", func(r chi.Router) {
		r.Get("/", a.listRolesHandler)
		r.Post("/", a.createRoleHandler)
	})

	r.Route("/api/v0/checkpoints", func(r chi.Router) {
		r.Get("/", a.listCheckpointsHandler)
		r.Put("/", a.commitCheckpointHandler)
		r.Get("/path", a.getCheckpointByPathnameHandler)
	})
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError writes a JSON error response with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeRepoError maps repository errors to HTTP statuses.
func writeRepoError(w http.ResponseWriter, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrInvalidEntity):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parseIDParam parses the {id} URL parameter.
func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
