package models

import "time"

// TemperatureReading represents a water temperature sample. Timestamp is the
// ingestion time; the sensor does not supply one.
type TemperatureReading struct {
	Temperature float64   `json:"temperature" bson:"temperature"` // Celsius
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// FeedingCommand is mirrored to the tank when a feeding-schedule property changes
type FeedingCommand struct {
	Family     string    `json:"-"`
	PropertyID string    `json:"property_id"`
	Value      string    `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}
