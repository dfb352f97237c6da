package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Tomlord1122/todo-app/internal/database"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// Containers are started lazily, once per package run, and torn down in TestMain.
var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	redisOnce   sync.Once
	redisClient *redis.Client
	redisErr    error

	cleanupMu sync.Mutex
	cleanups  []func()
)

func TestMain(m *testing.M) {
	code := m.Run()

	cleanupMu.Lock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanupMu.Unlock()

	os.Exit(code)
}

func registerCleanup(fn func()) {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()
	cleanups = append(cleanups, fn)
}

func requireContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// postgresDB returns a migrated database with empty tables.
func postgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	requireContainers(t)

	pgOnce.Do(func() { pgDB, pgErr = startPostgres(context.Background()) })
	if pgErr != nil {
		t.Fatalf("failed to start postgres: %v", pgErr)
	}

	if err := pgDB.Exec("TRUNCATE todos, users RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
	return pgDB
}

func startPostgres(ctx context.Context) (*gorm.DB, error) {
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("todos"),
		tcpostgres.WithUsername("todo"),
		tcpostgres.WithPassword("todo"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}
	registerCleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("connection string: %w", err)
	}
	if err := database.RunMigrations(dsn); err != nil {
		return nil, err
	}

	svc, err := database.New(ctx, dsn, database.Options{})
	if err != nil {
		return nil, err
	}
	registerCleanup(func() { _ = svc.Close() })

	return svc.GetDB(), nil
}

// redisServer returns a client against an empty Redis database.
func redisServer(t *testing.T) *redis.Client {
	t.Helper()
	requireContainers(t)

	redisOnce.Do(func() { redisClient, redisErr = startRedis(context.Background()) })
	if redisErr != nil {
		t.Fatalf("failed to start redis: %v", redisErr)
	}

	if err := redisClient.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
	return redisClient
}

func startRedis(ctx context.Context) (*redis.Client, error) {
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}
	registerCleanup(func() { _ = ctr.Terminate(context.Background()) })

	endpoint, err := ctr.Endpoint(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("redis endpoint: %w", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	registerCleanup(func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
