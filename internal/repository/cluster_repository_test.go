package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/metalfoundry/foundry/internal/confmap"
	"github.com/metalfoundry/foundry/internal/domain"
	"github.com/metalfoundry/foundry/internal/testutil"
)

func TestClusterRepository_Save_CreatesState(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_Save_CreatesState")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	saved, err := repo.Save(context.Background(), *domain.NewCluster("alpha"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if saved.ID == 0 {
		t.Error("Expected ID to be assigned")
	}

	// The state row exists immediately, with fresh-record defaults.
	state, err := repo.FindState(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Expected state to exist after create, got %v", err)
	}
	if state.State != domain.StateUninitialized {
		t.Errorf("Expected state %s, got %s", domain.StateUninitialized, state.State)
	}
	if state.Progress != 0.0 {
		t.Errorf("Expected progress 0.0, got %f", state.Progress)
	}
	if state.Severity != domain.SeverityInfo {
		t.Errorf("Expected severity %s, got %s", domain.SeverityInfo, state.Severity)
	}
}

func TestClusterRepository_Save_DuplicateName(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_Save_DuplicateName")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	if _, err := repo.Save(context.Background(), *domain.NewCluster("alpha")); err != nil {
		t.Fatalf("Failed to save first cluster: %v", err)
	}

	_, err := repo.Save(context.Background(), *domain.NewCluster("alpha"))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestClusterRepository_FindByName(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_FindByName")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	saved, err := repo.Save(context.Background(), *domain.NewCluster("alpha"))
	if err != nil {
		t.Fatalf("Failed to save cluster: %v", err)
	}

	found, err := repo.FindByName(context.Background(), "alpha")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if found.ID != saved.ID {
		t.Errorf("Expected cluster ID %d, got %d", saved.ID, found.ID)
	}
	if found.State == nil {
		t.Fatal("Expected state to be loaded")
	}
	if found.State.Cluster == nil || found.State.Cluster.ID != found.ID {
		t.Error("Expected state to reference its cluster")
	}
}

func TestClusterRepository_MergeFragment(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_MergeFragment")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	saved, err := repo.Save(context.Background(), *domain.NewCluster("alpha"))
	if err != nil {
		t.Fatalf("Failed to save cluster: %v", err)
	}

	if err := repo.MergeFragment(context.Background(), saved.ID, FragmentSecurity,
		confmap.Map{"server_credentials": confmap.Map{"username": "root"}}); err != nil {
		t.Fatalf("Failed to merge security fragment: %v", err)
	}
	if err := repo.MergeFragment(context.Background(), saved.ID, FragmentSecurity,
		confmap.Map{"console_credentials": confmap.Map{"username": "admin"}}); err != nil {
		t.Fatalf("Failed to merge security fragment: %v", err)
	}

	found, err := repo.FindByID(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Failed to find cluster: %v", err)
	}

	security := found.Security()
	if _, ok := security["server_credentials"]; !ok {
		t.Error("Expected first merge's keys to survive the second merge")
	}
	if _, ok := security["console_credentials"]; !ok {
		t.Error("Expected second merge's keys to be present")
	}
}

func TestClusterRepository_MergeFragment_EmptyClears(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_MergeFragment_EmptyClears")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	saved, err := repo.Save(context.Background(), *domain.NewCluster("alpha"))
	if err != nil {
		t.Fatalf("Failed to save cluster: %v", err)
	}

	if err := repo.MergeFragment(context.Background(), saved.ID, FragmentNetworking,
		confmap.Map{"interfaces": confmap.Map{"management": confmap.Map{"ip": "10.0.0.1"}}}); err != nil {
		t.Fatalf("Failed to merge networking fragment: %v", err)
	}
	if err := repo.MergeFragment(context.Background(), saved.ID, FragmentNetworking, confmap.Map{}); err != nil {
		t.Fatalf("Failed to clear networking fragment: %v", err)
	}

	found, err := repo.FindByID(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Failed to find cluster: %v", err)
	}
	if len(found.Networking()) != 0 {
		t.Errorf("Expected empty networking fragment, got %v", found.Networking())
	}
}

func TestClusterRepository_MergeFragment_NotFound(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_MergeFragment_NotFound")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	err := repo.MergeFragment(context.Background(), 999, FragmentPartition, confmap.Map{"/var": "20%"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestClusterRepository_ReplaceConfig(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_ReplaceConfig")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	saved, err := repo.Save(context.Background(), *domain.NewCluster("alpha"))
	if err != nil {
		t.Fatalf("Failed to save cluster: %v", err)
	}

	if err := repo.ReplaceConfig(context.Background(), saved.ID, confmap.Map{
		"security":   confmap.Map{"server_credentials": confmap.Map{"username": "root"}},
		"networking": confmap.Map{"interfaces": confmap.Map{"management": confmap.Map{"ip": "10.0.0.1"}}},
		"partition":  confmap.Map{"/var": "20%"},
		"os_version": "CentOS-6.5",
	}); err != nil {
		t.Fatalf("Failed to replace config: %v", err)
	}

	found, err := repo.FindByID(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Failed to find cluster: %v", err)
	}

	if _, ok := found.Security()["server_credentials"]; !ok {
		t.Error("Expected security section to land in its fragment")
	}

	config := found.Config()
	if config["os_version"] != "CentOS-6.5" {
		t.Errorf("Expected unsectioned key in composed config, got %v", config["os_version"])
	}
	if config["clustername"] != "alpha" {
		t.Errorf("Expected clustername 'alpha', got %v", config["clustername"])
	}
}

func TestClusterRepository_ReplaceConfig_EmptyClearsAll(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_ReplaceConfig_EmptyClearsAll")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	saved, err := repo.Save(context.Background(), *domain.NewCluster("alpha"))
	if err != nil {
		t.Fatalf("Failed to save cluster: %v", err)
	}

	if err := repo.ReplaceConfig(context.Background(), saved.ID, confmap.Map{
		"security": confmap.Map{"server_credentials": confmap.Map{"username": "root"}},
	}); err != nil {
		t.Fatalf("Failed to replace config: %v", err)
	}
	if err := repo.ReplaceConfig(context.Background(), saved.ID, confmap.Map{}); err != nil {
		t.Fatalf("Failed to clear config: %v", err)
	}

	found, err := repo.FindByID(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Failed to find cluster: %v", err)
	}
	if len(found.Security()) != 0 {
		t.Errorf("Expected security cleared, got %v", found.Security())
	}

	// Identity still composes even with everything cleared.
	config := found.Config()
	if config["clusterid"] != saved.ID {
		t.Errorf("Expected clusterid %d, got %v", saved.ID, config["clusterid"])
	}
}

func TestClusterRepository_UpdateState(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_UpdateState")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	saved, err := repo.Save(context.Background(), *domain.NewCluster("alpha"))
	if err != nil {
		t.Fatalf("Failed to save cluster: %v", err)
	}

	err = repo.UpdateState(context.Background(), domain.ClusterState{
		ClusterID: saved.ID,
		State:     domain.StateInstalling,
		Progress:  0.4,
		Message:   "installing packages",
		Severity:  domain.SeverityInfo,
	})
	if err != nil {
		t.Fatalf("Failed to update state: %v", err)
	}

	state, err := repo.FindState(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Failed to find state: %v", err)
	}
	if state.State != domain.StateInstalling {
		t.Errorf("Expected state %s, got %s", domain.StateInstalling, state.State)
	}
	if state.Progress != 0.4 {
		t.Errorf("Expected progress 0.4, got %f", state.Progress)
	}
	if state.Message != "installing packages" {
		t.Errorf("Expected message 'installing packages', got %q", state.Message)
	}
}

func TestClusterRepository_UpdateState_NotFound(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_UpdateState_NotFound")
	defer cleanup()

	repo := NewClusterRepository(ds.DB)

	err := repo.UpdateState(context.Background(), domain.ClusterState{ClusterID: 999, State: domain.StateReady})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestClusterRepository_DeleteByID_Cascades(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestClusterRepository_DeleteByID_Cascades")
	defer cleanup()

	clusterRepo := NewClusterRepository(ds.DB)
	hostRepo := NewHostRepository(ds.DB)

	cluster, err := clusterRepo.Save(context.Background(), *domain.NewCluster("alpha"))
	if err != nil {
		t.Fatalf("Failed to save cluster: %v", err)
	}

	host, err := hostRepo.Save(context.Background(),
		domain.ClusterHost{Hostname: "node-1", Mutable: true, ClusterID: &cluster.ID})
	if err != nil {
		t.Fatalf("Failed to save host: %v", err)
	}

	if err := clusterRepo.DeleteByID(context.Background(), cluster.ID); err != nil {
		t.Fatalf("Failed to delete cluster: %v", err)
	}

	// The state row dies with the cluster.
	_, err = clusterRepo.FindState(context.Background(), cluster.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected state to be removed with cluster, got %v", err)
	}

	// The host survives unenrolled.
	found, err := hostRepo.FindByID(context.Background(), host.ID)
	if err != nil {
		t.Fatalf("Expected host to survive cluster delete, got %v", err)
	}
	if found.ClusterID != nil {
		t.Errorf("Expected nil cluster ID after cluster delete, got %d", *found.ClusterID)
	}
}
