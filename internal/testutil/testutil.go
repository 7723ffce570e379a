package testutil

import (
	"fmt"
	"testing"

	"github.com/metalfoundry/foundry/internal/datastore"
)

// NewTestDSN generates a DSN for an in-memory SQLite database for testing
// purposes. foreign_keys rides the DSN so every pooled connection enforces
// the schema's cascade rules, same as a production open.
func NewTestDSN(testName string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", testName)
}

// SetupTestDatastore opens a migrated in-memory datastore for a test and
// returns it with a cleanup function.
func SetupTestDatastore(t *testing.T, testName string) (*datastore.Datastore, func()) {
	t.Helper()

	ds, err := datastore.New(NewTestDSN(testName))
	if err != nil {
		t.Fatalf("Failed to open test datastore: %v", err)
	}

	cleanup := func() {
		if err := ds.Close(); err != nil {
			t.Logf("Warning: failed to close test datastore: %v", err)
		}
	}

	return ds, cleanup
}
