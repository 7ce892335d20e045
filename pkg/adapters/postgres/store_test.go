package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/aretw0/storyboard/pkg/adapters/postgres"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/stretchr/testify/require"
)

// Set STORYBOARD_TEST_POSTGRES_DSN to run against a live database.
func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("STORYBOARD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STORYBOARD_TEST_POSTGRES_DSN not set")
	}

	store, err := postgres.Open(context.Background(), dsn)
	require.NoError(t, err)
	defer store.Close()

	ports.RunKVStoreContract(t, store)
}

func TestPostgresStore_RequiresDSN(t *testing.T) {
	_, err := postgres.Open(context.Background(), " ")
	require.Error(t, err)
}
