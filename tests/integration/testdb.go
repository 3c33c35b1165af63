// Package integration runs the invoicing API against real PostgreSQL and
// Redis instances started with testcontainers.
package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// One migrated postgres per package run. Suites never assume an empty
// database: each registers its own sellers and every row is owner scoped.
var shared struct {
	sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
}

// TestDB is a connection to the shared database
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewSharedTestDB starts and migrates the package database on first use and
// returns a fresh connection pool closed with the test
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := sharedDSN(t)

	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), cfg)
	require.NoError(t, err, "connect to test database")

	pool, err := db.DB()
	require.NoError(t, err)
	// room for the concurrent numbering suite
	pool.SetMaxOpenConns(20)
	pool.SetMaxIdleConns(5)
	t.Cleanup(func() { _ = pool.Close() })

	return &TestDB{DB: db, t: t}
}

func sharedDSN(t *testing.T) string {
	t.Helper()

	shared.Lock()
	defer shared.Unlock()
	if shared.container != nil {
		return shared.dsn
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("invoicer_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	pool, err := db.DB()
	require.NoError(t, err)
	m, err := migration.New(pool, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up(), "apply migrations")
	require.NoError(t, m.Close())

	shared.container, shared.dsn = container, dsn
	return dsn
}

// Count returns the number of rows of table matching where
func (tdb *TestDB) Count(table, where string, args ...any) int64 {
	tdb.t.Helper()

	var n int64
	require.NoError(tdb.t, tdb.DB.Table(table).Where(where, args...).Count(&n).Error)
	return n
}

// CleanupSharedContainer stops the package database. TestMain calls it after
// the suites ran.
func CleanupSharedContainer() {
	shared.Lock()
	defer shared.Unlock()
	if shared.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = shared.container.Terminate(ctx)
	shared.container, shared.dsn = nil, ""
}
