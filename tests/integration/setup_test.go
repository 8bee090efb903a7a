//go:build integration

// Package integration contains integration tests for the fxtrado trading core.
//
// These tests verify behavior that unit tests with sqlmock cannot observe:
// - real schema: column types, defaults, unique constraints
// - transaction semantics: commit, rollback, row-level locking
// - concurrent access: sequence allocation, liquidation races
//
// Integration tests use build tag "integration" to separate from unit tests.
// Run with: go test -tags=integration ./tests/integration/...
package integration

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"fxtrado/internal/models"

	_ "github.com/lib/pq"
)

// TestConfig contains configuration for integration tests
type TestConfig struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// getTestConfig returns configuration from environment variables or defaults
func getTestConfig() TestConfig {
	return TestConfig{
		DBDriver:   getEnv("TEST_DB_DRIVER", "postgres"),
		DBHost:     getEnv("TEST_DB_HOST", "localhost"),
		DBPort:     getEnv("TEST_DB_PORT", "5432"),
		DBName:     getEnv("TEST_DB_NAME", "fxtrado_test"),
		DBUser:     getEnv("TEST_DB_USER", "postgres"),
		DBPassword: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBSSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SetupTestDB creates a test database connection with initialized tables
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	config := getTestConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName, config.DBSSLMode,
	)

	db, err := sql.Open(config.DBDriver, connStr)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil, func() {}
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil, func() {}
	}

	// Set connection pool settings. Concurrency tests hold several
	// transactions open at once, so the pool must be wider than the
	// goroutine count they use.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTestTables(db); err != nil {
		db.Close()
		t.Skipf("Skipping integration test: cannot initialize tables: %v", err)
		return nil, func() {}
	}

	cleanup := func() {
		cleanupTestTables(db)
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	return db, cleanup
}

// initTestTables creates tables for testing, mirroring migrations/001_init.sql
func initTestTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS ticks (
			id      BIGSERIAL PRIMARY KEY,
			symbol  VARCHAR(16)      NOT NULL,
			bid     DOUBLE PRECISION NOT NULL,
			ask     DOUBLE PRECISION NOT NULL,
			digits  INTEGER          NOT NULL DEFAULT 5,
			date    TIMESTAMPTZ      NOT NULL,
			remark  VARCHAR(32)      NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ticks_symbol_date ON ticks (symbol, date DESC, id DESC)`,
		`CREATE TABLE IF NOT EXISTS pricing_groups (
			id         SERIAL PRIMARY KEY,
			symbol     VARCHAR(16)      NOT NULL,
			group_name VARCHAR(64)      NOT NULL,
			spread     DOUBLE PRECISION NOT NULL DEFAULT 0,
			status     VARCHAR(16)      NOT NULL DEFAULT 'active',
			UNIQUE (symbol, group_name)
		)`,
		`CREATE TABLE IF NOT EXISTS history_charts (
			symbol            VARCHAR(16)      NOT NULL,
			group_name        VARCHAR(64)      NOT NULL,
			bucket_start      TIMESTAMPTZ      NOT NULL,
			open              DOUBLE PRECISION NOT NULL,
			high              DOUBLE PRECISION NOT NULL,
			low               DOUBLE PRECISION NOT NULL,
			close             DOUBLE PRECISION NOT NULL,
			local_insert_time TIMESTAMPTZ      NOT NULL DEFAULT now(),
			PRIMARY KEY (symbol, group_name, bucket_start)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id            BIGSERIAL PRIMARY KEY,
			order_id      VARCHAR(32)      NOT NULL UNIQUE,
			account_id    INTEGER          NOT NULL,
			symbol        VARCHAR(16)      NOT NULL,
			group_name    VARCHAR(64)      NOT NULL,
			side          VARCHAR(4)       NOT NULL,
			open_price    DOUBLE PRECISION NOT NULL,
			volume        DOUBLE PRECISION NOT NULL,
			status        VARCHAR(16)      NOT NULL DEFAULT 'open',
			profit        DOUBLE PRECISION NOT NULL DEFAULT 0,
			market_bid    DOUBLE PRECISION NOT NULL DEFAULT 0,
			market_ask    DOUBLE PRECISION NOT NULL DEFAULT 0,
			close_price   DOUBLE PRECISION,
			close_time    TIMESTAMPTZ,
			closed_profit DOUBLE PRECISION,
			remark        VARCHAR(32)      NOT NULL DEFAULT '',
			open_time     TIMESTAMPTZ      NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_account_status ON orders (account_id, status)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			account_id INTEGER PRIMARY KEY,
			balance    DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS sequences (
			type        VARCHAR(32) PRIMARY KEY,
			last_number BIGINT  NOT NULL DEFAULT 0,
			digit_width INTEGER NOT NULL DEFAULT 7
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Seed the order counter if not exists
	_, err := db.Exec(
		`INSERT INTO sequences (type, last_number, digit_width) VALUES ($1, 0, 7) ON CONFLICT (type) DO NOTHING`,
		models.SequenceOrderOpened,
	)
	if err != nil {
		return fmt.Errorf("failed to seed sequence counter: %w", err)
	}

	return nil
}

// cleanupTestTables truncates all test tables
func cleanupTestTables(db *sql.DB) {
	tables := []string{
		"orders",
		"wallets",
		"history_charts",
		"pricing_groups",
		"ticks",
	}

	for _, table := range tables {
		db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
	}
	db.Exec(`UPDATE sequences SET last_number = 0 WHERE type = $1`, models.SequenceOrderOpened)
}

// TruncateTable truncates a specific table for testing
func TruncateTable(db *sql.DB, tableName string) error {
	_, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", tableName))
	return err
}

// seedWallet inserts or resets a wallet row for testing
func seedWallet(t *testing.T, db *sql.DB, accountID int, balance float64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO wallets (account_id, balance) VALUES ($1, $2)
		 ON CONFLICT (account_id) DO UPDATE SET balance = $2`,
		accountID, balance,
	)
	if err != nil {
		t.Fatalf("Failed to seed wallet: %v", err)
	}
}

// seedOpenOrder inserts an open position for testing and returns its id
func seedOpenOrder(t *testing.T, db *sql.DB, orderID string, accountID int, symbol string, profit float64) int {
	t.Helper()
	var id int
	err := db.QueryRow(
		`INSERT INTO orders (order_id, account_id, symbol, group_name, side, open_price, volume, status, profit)
		 VALUES ($1, $2, $3, 'standard', $4, 1.08070, 1.0, $5, $6)
		 RETURNING id`,
		orderID, accountID, symbol, models.OrderSideBuy, models.OrderStatusOpen, profit,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	return id
}
