package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVStoreContract runs a suite of tests to verify that a KVStore
// implementation adheres to the defined interface contract.
func RunKVStoreContract(t *testing.T, store KVStore) {
	t.Helper()
	ctx := context.Background()
	base := "contract:" + time.Now().Format("20060102150405.000000000")

	t.Run("Set and Get", func(t *testing.T) {
		key := base + ":set"
		require.NoError(t, store.Set(ctx, key, []byte(`{"nodeId":"a1s1"}`)))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"nodeId":"a1s1"}`, string(got))
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		key := base + ":lww"
		require.NoError(t, store.Set(ctx, key, []byte(`"first"`)))
		require.NoError(t, store.Set(ctx, key, []byte(`"second"`)))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `"second"`, string(got))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, base+":missing")
		assert.ErrorIs(t, err, domain.ErrProgressNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		key := base + ":delete"
		require.NoError(t, store.Set(ctx, key, []byte(`{}`)))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrProgressNotFound, "Get after Delete should return ErrProgressNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting a missing key is not an error")
	})

	lister, ok := store.(KeyLister)
	if !ok {
		return
	}

	t.Run("Keys", func(t *testing.T) {
		k1 := base + ":list:one"
		k2 := base + ":list:two"
		require.NoError(t, store.Set(ctx, k1, []byte(`1`)))
		require.NoError(t, store.Set(ctx, k2, []byte(`2`)))
		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := lister.Keys(ctx, base+":list:")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{k1, k2}, keys)
	})
}

// RunScenarioSourceContract verifies a ScenarioSource seeded with the given
// documents (id → raw bytes).
func RunScenarioSourceContract(t *testing.T, source ScenarioSource, seeded map[string][]byte) {
	t.Helper()
	ctx := context.Background()

	t.Run("Fetch", func(t *testing.T) {
		for id, want := range seeded {
			doc, err := source.Fetch(ctx, id)
			require.NoError(t, err, "fetch %s", id)
			assert.Equal(t, id, doc.ID)
			assert.Equal(t, string(want), string(doc.Data))
		}
	})

	t.Run("Fetch Missing", func(t *testing.T) {
		_, err := source.Fetch(ctx, "non-existent-scenario")
		assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
	})

	t.Run("Index", func(t *testing.T) {
		refs, err := source.Index(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(refs))
		for _, r := range refs {
			ids = append(ids, r.ID)
		}
		for id := range seeded {
			assert.Contains(t, ids, id)
		}
	})
}
