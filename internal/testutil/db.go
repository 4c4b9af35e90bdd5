// Package testutil provides the Postgres harness for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"asset-tracker/internal/db"
)

// Postgres is a migrated database for one test package.
type Postgres struct {
	DSN       string
	DB        *sql.DB
	container testcontainers.Container
}

// StartPostgres returns a migrated database. TEST_DATABASE_URL selects an
// existing server; otherwise a postgres:16-alpine container is started.
func StartPostgres(ctx context.Context) (*Postgres, error) {
	pg := &Postgres{DSN: os.Getenv("TEST_DATABASE_URL")}

	if pg.DSN == "" {
		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "assets_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		}
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			return nil, fmt.Errorf("start postgres container: %w", err)
		}
		pg.container = container

		host, err := container.Host(ctx)
		if err != nil {
			pg.Close()
			return nil, err
		}
		port, err := container.MappedPort(ctx, "5432")
		if err != nil {
			pg.Close()
			return nil, err
		}
		pg.DSN = fmt.Sprintf("postgres://test:test@%s:%s/assets_test?sslmode=disable", host, port.Port())
	}

	if err := db.NewMigrator(pg.DSN, zap.NewNop()).Up(); err != nil {
		pg.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	conn, err := db.Open(ctx, pg.DSN)
	if err != nil {
		pg.Close()
		return nil, err
	}
	pg.DB = conn
	return pg, nil
}

// Close releases the connection and stops the container, if any.
func (pg *Postgres) Close() {
	if pg.DB != nil {
		_ = pg.DB.Close()
	}
	if pg.container != nil {
		_ = pg.container.Terminate(context.Background())
	}
}

// ResetSchema empties the assets table and restarts its id sequence.
func ResetSchema(t testing.TB, conn *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := conn.ExecContext(ctx, "TRUNCATE assets RESTART IDENTITY"); err != nil {
		t.Fatalf("Failed to reset assets: %v", err)
	}
}

// RequireIntegration skips the test unless INTEGRATION=1
func RequireIntegration(t testing.TB) {
	t.Helper()
	if os.Getenv("INTEGRATION") != "1" {
		t.Skip("Skipping integration test. Set INTEGRATION=1 to run.")
	}
}
