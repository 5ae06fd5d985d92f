package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/citymemory/backend/internal/database"
	"github.com/citymemory/backend/internal/migrations"
	"github.com/citymemory/backend/internal/store"
	"github.com/citymemory/backend/internal/store/storetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Container tests need a docker daemon and only run with INTEGRATION=1
func requireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("set INTEGRATION=1 to run container tests")
	}
}

func TestRedisStore(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	storetest.Run(t, func(t *testing.T) store.Store {
		require.NoError(t, rdb.FlushDB(ctx).Err())
		return store.NewRedisStore(rdb)
	})
}

func TestPostgresStore(t *testing.T) {
	requireIntegration(t)
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("rooms"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migrations.RunMigrations(dsn, "../../migrations"))

	db, err := database.Connect(ctx, dsn, database.DefaultPool)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	storetest.Run(t, func(t *testing.T) store.Store {
		_, err := db.ExecContext(ctx, "TRUNCATE TABLE rooms")
		require.NoError(t, err)
		return store.NewPostgresStore(db)
	})
}
