package services

import (
	"context"
	"log/slog"
	"time"

	"fishtank-aas/internal/metrics"
	"fishtank-aas/internal/models"
)

// TemperatureStore is the append-only time series of temperature readings.
type TemperatureStore interface {
	SaveTemperature(ctx context.Context, reading *models.TemperatureReading) error
	RecentTemperatures(ctx context.Context, limit int) ([]models.TemperatureReading, error)
}

// SensorService persists telemetry handed over by the MQTT subscriber
type SensorService struct {
	store   TemperatureStore
	logger  *slog.Logger
	metrics *metrics.Metrics

	// Input channel from the MQTT subscriber
	TempChan chan *models.TemperatureReading

	storeTimeout time.Duration
}

// SensorServiceConfig holds configuration for sensor service
type SensorServiceConfig struct {
	TempChannelSize int
	StoreTimeout    time.Duration
}

// DefaultSensorServiceConfig returns default configuration
func DefaultSensorServiceConfig() SensorServiceConfig {
	return SensorServiceConfig{
		TempChannelSize: 100,
		StoreTimeout:    5 * time.Second,
	}
}

// NewSensorService creates a new sensor service
func NewSensorService(store TemperatureStore, config SensorServiceConfig, logger *slog.Logger, m *metrics.Metrics) *SensorService {
	defaults := DefaultSensorServiceConfig()
	if config.TempChannelSize <= 0 {
		config.TempChannelSize = defaults.TempChannelSize
	}
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = defaults.StoreTimeout
	}
	return &SensorService{
		store:        store,
		logger:       logger,
		metrics:      m,
		TempChan:     make(chan *models.TemperatureReading, config.TempChannelSize),
		storeTimeout: config.StoreTimeout,
	}
}

// Start processes readings until the context is cancelled, then stores
// whatever is still buffered. The channel is never closed: the subscriber
// callback may still be running when Start returns.
func (s *SensorService) Start(ctx context.Context) {
	s.logger.Info("SensorService: Starting")

	for {
		select {
		case <-ctx.Done():
			n := s.drain()
			s.logger.Info("SensorService: Stopped", slog.Int("drained", n))
			return
		case reading := <-s.TempChan:
			s.processTemperature(reading)
		}
	}
}

func (s *SensorService) drain() int {
	var n int
	for {
		select {
		case reading := <-s.TempChan:
			s.processTemperature(reading)
			n++
		default:
			return n
		}
	}
}

// processTemperature handles a single temperature reading. Store failures are
// reported and the reading is dropped; ingestion continues.
func (s *SensorService) processTemperature(reading *models.TemperatureReading) {
	// Detached from the caller's context so a shutdown still lets the drain write.
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()

	if err := s.store.SaveTemperature(ctx, reading); err != nil {
		s.metrics.IncTelemetryStoreFailures()
		s.logger.Error("Error saving temperature",
			slog.Float64("temperature", reading.Temperature),
			slog.Any("error", err))
		return
	}

	s.metrics.IncTelemetryStored()
	s.logger.Debug("Saved temperature", slog.Float64("temperature", reading.Temperature))
}
