package database

import "fmt"

// temperatureTableSQL creates the append-only temperature table
const temperatureTableSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			temperature Float64,
			timestamp DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(timestamp)
		ORDER BY timestamp
	`

// AllTables returns all table creation SQL statements
func AllTables(temperatureTable string) []string {
	return []string{
		fmt.Sprintf(temperatureTableSQL, temperatureTable),
	}
}
