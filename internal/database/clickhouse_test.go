package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishtank-aas/internal/models"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestClickHouseInitSchema(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS tank_temperature")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	db := NewClickHouseDBFromConn(conn, "tank_temperature", discard)
	require.NoError(t, db.InitSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseSaveTemperature(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tank_temperature (temperature, timestamp) VALUES (?, ?)")).
		WithArgs(27.4, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	db := NewClickHouseDBFromConn(conn, "tank_temperature", discard)
	err = db.SaveTemperature(context.Background(), &models.TemperatureReading{Temperature: 27.4, Timestamp: ts})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseSaveTemperatureError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	boom := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO tank_temperature").WillReturnError(boom)

	db := NewClickHouseDBFromConn(conn, "tank_temperature", discard)
	err = db.SaveTemperature(context.Background(), &models.TemperatureReading{Temperature: 1, Timestamp: time.Now()})
	assert.ErrorIs(t, err, boom)
}

func TestClickHouseRecentTemperaturesOldestFirst(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"temperature", "timestamp"})
	// The store answers most recent first.
	for i := 5; i >= 1; i-- {
		rows.AddRow(float64(20+i), base.Add(time.Duration(i)*time.Minute))
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT temperature, timestamp FROM tank_temperature ORDER BY timestamp DESC LIMIT ?")).
		WithArgs(int64(100)).
		WillReturnRows(rows)

	db := NewClickHouseDBFromConn(conn, "tank_temperature", discard)
	got, err := db.RecentTemperatures(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, r := range got {
		assert.Equal(t, float64(21+i), r.Temperature)
		assert.Equal(t, base.Add(time.Duration(i+1)*time.Minute), r.Timestamp)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseRecentTemperaturesZeroLimit(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	db := NewClickHouseDBFromConn(conn, "tank_temperature", discard)
	got, err := db.RecentTemperatures(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
