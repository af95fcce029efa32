// Package repotest provides a migrated SQLite store for tests.
package repotest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/normrepo/nrs-go/internal/repository"
)

// NewStore opens a file backed SQLite database in a temporary directory and
// applies all migrations. The store is closed when the test ends.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()

	ctx := context.Background()
	db, err := repository.NewDB(ctx, "sqlite", filepath.Join(t.TempDir(), "nrs.db"), 1)
	require.NoError(t, err)

	store, err := repository.NewStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Migrate(ctx)
	require.NoError(t, err)
	return store
}
