package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/medflow/stockcheck-backend/pkg/database"
	"github.com/medflow/stockcheck-backend/pkg/logger"
	"github.com/testcontainers/testcontainers-go"
)

var (
	// Global test suite (shared across all integration tests of one binary)
	globalSuite *IntegrationSuite
	suiteOnce   sync.Once
	suiteErr    error
)

// IntegrationSuite provides a base for integration tests with real PostgreSQL
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite starts a container, migrates it and connects.
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, err := NewPostgresContainer(ctx, DefaultPostgresConfig())
	if err != nil {
		return nil, err
	}

	log := logger.New("test", "test")
	if err := container.Migrate(log); err != nil {
		container.Terminate(ctx)
		return nil, err
	}

	raw, err := container.Connect(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, err
	}

	return &IntegrationSuite{
		Container: container,
		RawDB:     raw,
		DB:        database.Wrap(raw, log),
		Fixtures:  NewFixtureFactory(),
		Logger:    log,
	}, nil
}

// RequireIntegrationSuite returns the shared suite with empty tables.
// It skips the test in -short mode or when Docker is unavailable.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    code := m.Run()
//	    testutil.TerminateContainer(context.Background())
//	    os.Exit(code)
//	}
//
//	func TestSomething(t *testing.T) {
//	    suite := testutil.RequireIntegrationSuite(t)
//	    repo := repository.NewCheckOrderRepository(suite.DB)
//	}
func RequireIntegrationSuite(t *testing.T) *IntegrationSuite {
	t.Helper()
	SkipIfShort(t)
	testcontainers.SkipIfProviderIsNotHealthy(t)

	suiteOnce.Do(func() {
		globalSuite, suiteErr = NewIntegrationSuite(context.Background())
	})
	if suiteErr != nil {
		t.Skipf("postgres container unavailable: %v", suiteErr)
	}

	if err := globalSuite.Container.Truncate(context.Background(), globalSuite.RawDB); err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
	return globalSuite
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalSuite != nil {
		globalSuite.RawDB.Close()
		globalSuite.Container.Terminate(ctx)
	}
}
