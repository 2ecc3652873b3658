package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"fishtank-aas/internal/models"
)

// ClickHouseDB is the append-only time-series store for temperature readings.
type ClickHouseDB struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// ClickHouseConfig holds ClickHouse connection settings
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(ctx context.Context, cfg ClickHouseConfig, logger *slog.Logger) (*ClickHouseDB, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logger.Info("Connected to ClickHouse", slog.String("addr", cfg.Addr))

	db := NewClickHouseDBFromConn(conn, cfg.Table, logger)

	if err := db.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// NewClickHouseDBFromConn wraps an already opened database handle
func NewClickHouseDBFromConn(conn *sql.DB, table string, logger *slog.Logger) *ClickHouseDB {
	return &ClickHouseDB{db: conn, table: table, logger: logger}
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables(db.table) {
		if _, err := db.db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	db.logger.Info("Database schema initialized", slog.String("table", db.table))
	return nil
}

// SaveTemperature appends a temperature reading
func (db *ClickHouseDB) SaveTemperature(ctx context.Context, reading *models.TemperatureReading) error {
	query := fmt.Sprintf("INSERT INTO %s (temperature, timestamp) VALUES (?, ?)", db.table)

	if _, err := db.db.ExecContext(ctx, query, reading.Temperature, reading.Timestamp); err != nil {
		return fmt.Errorf("failed to insert temperature reading: %w", err)
	}

	return nil
}

// RecentTemperatures returns the last limit readings, oldest first
func (db *ClickHouseDB) RecentTemperatures(ctx context.Context, limit int) ([]models.TemperatureReading, error) {
	if limit <= 0 {
		return []models.TemperatureReading{}, nil
	}
	query := fmt.Sprintf("SELECT temperature, timestamp FROM %s ORDER BY timestamp DESC LIMIT ?", db.table)

	rows, err := db.db.QueryContext(ctx, query, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query temperatures: %w", err)
	}
	defer rows.Close()

	readings := make([]models.TemperatureReading, 0, limit)
	for rows.Next() {
		var r models.TemperatureReading
		if err := rows.Scan(&r.Temperature, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan temperature: %w", err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read temperatures: %w", err)
	}

	slices.Reverse(readings)
	return readings, nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.db != nil {
		if err := db.db.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		db.logger.Info("ClickHouse connection closed")
	}
	return nil
}
