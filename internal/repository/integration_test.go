//go:build integration

package repository_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/repository"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func runContract(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := t.Context()

	want := sampleRecord("150 Malcolm X Blvd 11221")
	key := repository.CacheKey(want.Query)
	require.NoError(t, store.Put(ctx, key, want))
	require.NoError(t, store.Put(ctx, "other", sampleRecord("other")))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	entries, err := store.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, key, entries[0].Key)

	require.NoError(t, store.Delete(ctx, key))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresStore_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pinpoint"),
		tcpostgres.WithUsername("pinpoint"),
		tcpostgres.WithPassword("pinpoint"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	store := repository.NewPostgresStore(pool, slog.Default())
	require.NoError(t, store.EnsureSchema(ctx))

	runContract(t, store)
}

func TestRedisStore_Integration(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := repository.NewRedisClient(connectCtx, url)
	require.NoError(t, err)
	defer client.Close()

	runContract(t, repository.NewRedisStore(client, "", slog.Default()))
}
