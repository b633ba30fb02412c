// Package testutil provides testing utilities for the pharmacy backend.
// It includes a testcontainers PostgreSQL instance with the pharmacy
// schema, sqlmock factories, and shared suite plumbing.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "pharmastock_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    os.Exit(m.Run())
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "pharmastock_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreatePharmacySchema creates the pharmacy tables. The constraint names
// match what database.MapPQError translates into field errors.
func (c *PostgresContainer) CreatePharmacySchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS drug_lots (
			id UUID PRIMARY KEY,
			barcode VARCHAR(200) NOT NULL,
			lot_number VARCHAR(100),
			designation VARCHAR(255) NOT NULL,
			category VARCHAR(100),
			initial_stock INTEGER,
			current_stock INTEGER NOT NULL DEFAULT 0,
			low_stock_threshold INTEGER NOT NULL DEFAULT 0,
			expiry_date DATE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ,
			CONSTRAINT drug_lots_current_stock_nonnegative CHECK (current_stock >= 0),
			CONSTRAINT drug_lots_threshold_positive CHECK (low_stock_threshold >= 0)
		);
		CREATE INDEX IF NOT EXISTS idx_drug_lots_barcode ON drug_lots (barcode);

		CREATE TABLE IF NOT EXISTS services (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT services_name_unique UNIQUE (name)
		);

		CREATE TABLE IF NOT EXISTS distributions (
			id UUID PRIMARY KEY,
			lot_id UUID,
			barcode VARCHAR(200) NOT NULL,
			lot_number VARCHAR(100),
			item_name VARCHAR(255) NOT NULL,
			quantity_distributed INTEGER NOT NULL,
			service_id UUID,
			service_name VARCHAR(255) NOT NULL,
			distributed_by UUID,
			date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT distributions_quantity_positive CHECK (quantity_distributed > 0)
		);
		CREATE INDEX IF NOT EXISTS idx_distributions_date ON distributions (date DESC);

		CREATE TABLE IF NOT EXISTS stock_alerts (
			id UUID PRIMARY KEY,
			alert_type VARCHAR(50) NOT NULL,
			lot_id UUID,
			item_name VARCHAR(255) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			message TEXT NOT NULL,
			current_stock INTEGER,
			threshold INTEGER,
			expiry_date DATE,
			is_acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
			acknowledged_by UUID,
			acknowledged_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE OR REPLACE FUNCTION update_updated_at()
		RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = NOW();
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql;

		DROP TRIGGER IF EXISTS drug_lots_updated_at ON drug_lots;
		CREATE TRIGGER drug_lots_updated_at
			BEFORE UPDATE ON drug_lots
			FOR EACH ROW EXECUTE FUNCTION update_updated_at();
	`

	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create pharmacy schema: %w", err)
	}

	return nil
}
