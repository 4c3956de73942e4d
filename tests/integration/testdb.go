// Package integration runs the POS core against real PostgreSQL and Redis
// containers started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/possuite/backend/internal/infrastructure/logger"
	"github.com/possuite/backend/internal/infrastructure/migration"
	"github.com/possuite/backend/internal/infrastructure/persistence"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "github.com/lib/pq"
)

var (
	sharedContainer    testcontainers.Container
	sharedContainerMu  sync.Mutex
	sharedContainerDSN string
)

// TestDB is a migrated PostgreSQL database.
type TestDB struct {
	Database  *persistence.Database
	Container testcontainers.Container
	DSN       string
	t         *testing.T
}

func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

func startPostgres(ctx context.Context, dbName string) (testcontainers.Container, string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, "", err
	}
	return container, dsn, nil
}

// NewTestDB starts a dedicated container, applies the embedded migrations
// and opens a pooled GORM connection.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipIfShort(t)
	ctx := context.Background()

	container, dsn, err := startPostgres(ctx, "pos_test")
	require.NoError(t, err, "Failed to start PostgreSQL container")

	tdb := &TestDB{Container: container, DSN: dsn, t: t}
	t.Cleanup(tdb.Close)

	runMigrations(t, dsn)
	tdb.Database = connect(t, dsn)
	return tdb
}

// NewSharedTestDB reuses one migrated container across the package. Tests
// must create their own tenants to stay isolated.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipIfShort(t)

	sharedContainerMu.Lock()
	if sharedContainer == nil {
		container, dsn, err := startPostgres(context.Background(), "pos_shared_test")
		if err != nil {
			sharedContainerMu.Unlock()
			require.NoError(t, err, "Failed to start shared PostgreSQL container")
		}
		sharedContainer = container
		sharedContainerDSN = dsn
		runMigrations(t, dsn)
	}
	dsn := sharedContainerDSN
	sharedContainerMu.Unlock()

	tdb := &TestDB{Container: sharedContainer, DSN: dsn, t: t}
	tdb.Database = connect(t, dsn)
	t.Cleanup(func() { _ = tdb.Database.Close() })
	return tdb
}

// Close closes the connection and terminates a dedicated container.
func (tdb *TestDB) Close() {
	if tdb.Database != nil {
		_ = tdb.Database.Close()
	}
	if tdb.Container != nil && tdb.Container != sharedContainer {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := tdb.Container.Terminate(ctx); err != nil {
			tdb.t.Logf("Warning: Failed to terminate container: %v", err)
		}
	}
}

// Repositories wires the repositories with the given lock timeout.
func (tdb *TestDB) Repositories(lockTimeout time.Duration) *persistence.Repositories {
	return tdb.Database.NewRepositories(lockTimeout)
}

func connect(t *testing.T, dsn string) *persistence.Database {
	t.Helper()

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	gdb, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.NewGormLogger(zaptest.NewLogger(t), level),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to connect to database")

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &persistence.Database{DB: gdb}
}

// runMigrations applies the embedded migrations over a throwaway
// connection, since closing the migrator closes its *sql.DB.
func runMigrations(t *testing.T, dsn string) {
	t.Helper()

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	m, err := migration.NewEmbedded(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, err, "Failed to create migrator")
	defer func() { _ = m.Close() }()

	require.NoError(t, m.Up(), "Failed to run migrations")
}

// CleanupSharedContainer terminates the shared container. Call it from
// TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerDSN = ""
	}
}

// NewTestRedis starts a Redis container and returns a connected client.
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	skipIfShort(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}
