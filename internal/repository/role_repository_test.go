package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/metalfoundry/foundry/internal/domain"
	"github.com/metalfoundry/foundry/internal/testutil"
)

func TestRoleRepository_Save_Create(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestRoleRepository_Save_Create")
	defer cleanup()

	repo := NewRoleRepository(ds.DB)

	role := domain.Role{Name: "os-dashboard", TargetSystem: "openstack", Description: "horizon dashboard"}
	saved, err := repo.Save(context.Background(), role)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if saved.ID == 0 {
		t.Error("Expected ID to be assigned")
	}
}

func TestRoleRepository_FindByName(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestRoleRepository_FindByName")
	defer cleanup()

	repo := NewRoleRepository(ds.DB)

	saved, err := repo.Save(context.Background(), domain.Role{Name: "os-compute", TargetSystem: "openstack"})
	if err != nil {
		t.Fatalf("Failed to save role: %v", err)
	}

	found, err := repo.FindByName(context.Background(), "os-compute")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if found.ID != saved.ID {
		t.Errorf("Expected role ID %d, got %d", saved.ID, found.ID)
	}
}

func TestRoleRepository_FindByTargetSystem(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestRoleRepository_FindByTargetSystem")
	defer cleanup()

	repo := NewRoleRepository(ds.DB)

	for _, role := range []domain.Role{
		{Name: "os-compute", TargetSystem: "openstack"},
		{Name: "os-dashboard", TargetSystem: "openstack"},
		{Name: "ceph-mon", TargetSystem: "ceph"},
	} {
		if _, err := repo.Save(context.Background(), role); err != nil {
			t.Fatalf("Failed to save role %s: %v", role.Name, err)
		}
	}

	roles, err := repo.FindByTargetSystem(context.Background(), "openstack")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(roles) != 2 {
		t.Errorf("Expected 2 roles, got %d", len(roles))
	}
}

func TestRoleRepository_Save_DuplicateName(t *testing.T) {
	ds, cleanup := testutil.SetupTestDatastore(t, "TestRoleRepository_Save_DuplicateName")
	defer cleanup()

	repo := NewRoleRepository(ds.DB)

	if _, err := repo.Save(context.Background(), domain.Role{Name: "os-compute"}); err != nil {
		t.Fatalf("Failed to save first role: %v", err)
	}

	_, err := repo.Save(context.Background(), domain.Role{Name: "os-compute"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}
