package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/storyboard/pkg/adapters/sqlite"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/aretw0/storyboard/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunKVStoreContract(t, openTestStore(t))
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ports.RunKVStoreContract(t, store)
}

func TestSQLiteStore_LikeWildcardsAreLiteral(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "p:a_b:act1", []byte(`1`)))
	require.NoError(t, store.Set(ctx, "p:axb:act1", []byte(`2`)))

	keys, err := store.Keys(ctx, "p:a_b:")
	require.NoError(t, err)
	assert.Equal(t, []string{"p:a_b:act1"}, keys)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "progress.db")

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, progress.New(first).Save(ctx, "intro", "act1", domain.Progress{NodeID: "a1s3"}))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := progress.New(second).Load(ctx, "intro", "act1")
	require.NoError(t, err)
	assert.Equal(t, "a1s3", got.NodeID)
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}
