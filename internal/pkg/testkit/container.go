// Package testkit starts throwaway backing services for integration tests.
// Tests are skipped when -short is set or Docker is not reachable.
package testkit

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const (
	redisImage    = "redis:7-alpine"
	postgresImage = "postgres:17-alpine"
)

func skipWithoutDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// Redis returns a client connected to a fresh redis container.
func Redis(t *testing.T) *redis.Client {
	t.Helper()
	skipWithoutDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ctr, err := tcredis.Run(ctx, redisImage)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)

	port, err := ctr.MappedPort(ctx, nat.Port("6379/tcp"))
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(ctx).Err())

	return client
}

// Postgres returns a pool connected to a fresh postgres container.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	skipWithoutDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("folio"),
		tcpostgres.WithUsername("folio"),
		tcpostgres.WithPassword("folio"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx))

	return pool
}
