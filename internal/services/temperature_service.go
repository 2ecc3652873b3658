package services

import (
	"context"
	"fmt"
	"time"
)

// TimestampLayout is how reading timestamps are rendered for clients.
const TimestampLayout = "2006-01-02 15:04:05"

// TemperatureView is a stored reading as returned to clients.
type TemperatureView struct {
	Temperature float64 `json:"temperature"`
	Timestamp   string  `json:"timestamp"`
}

// TemperatureService reads back the temperature history.
type TemperatureService struct {
	store        TemperatureStore
	limit        int
	storeTimeout time.Duration
}

// NewTemperatureService returns a service listing at most limit readings.
func NewTemperatureService(store TemperatureStore, limit int, storeTimeout time.Duration) *TemperatureService {
	if limit <= 0 {
		limit = 100
	}
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &TemperatureService{store: store, limit: limit, storeTimeout: storeTimeout}
}

// Recent returns the most recent readings, oldest first.
func (s *TemperatureService) Recent(ctx context.Context) ([]TemperatureView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	readings, err := s.store.RecentTemperatures(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("load temperatures: %w", err)
	}

	views := make([]TemperatureView, 0, len(readings))
	for _, r := range readings {
		views = append(views, TemperatureView{
			Temperature: r.Temperature,
			Timestamp:   r.Timestamp.Format(TimestampLayout),
		})
	}
	return views, nil
}
