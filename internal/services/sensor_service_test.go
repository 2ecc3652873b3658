package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishtank-aas/internal/metrics"
	"fishtank-aas/internal/models"
)

func reading(v float64, minute int) *models.TemperatureReading {
	return &models.TemperatureReading{
		Temperature: v,
		Timestamp:   time.Date(2026, 3, 1, 8, minute, 0, 0, time.UTC),
	}
}

func TestSensorServiceStoresReadings(t *testing.T) {
	store := &memTemperatureStore{}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewSensorService(store, SensorServiceConfig{}, discard, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	svc.TempChan <- reading(26.5, 0)
	svc.TempChan <- reading(26.7, 1)

	require.Eventually(t, func() bool { return len(store.all()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []models.TemperatureReading{*reading(26.5, 0), *reading(26.7, 1)}, store.all())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TelemetryStored))
}

func TestSensorServiceDrainsOnShutdown(t *testing.T) {
	store := &memTemperatureStore{}
	svc := NewSensorService(store, SensorServiceConfig{TempChannelSize: 4}, discard, nil)

	for i := 0; i < 3; i++ {
		svc.TempChan <- reading(25, i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.Start(ctx)

	assert.Len(t, store.all(), 3)
	assert.Empty(t, svc.TempChan)
}

func TestSensorServiceStoreFailureKeepsConsuming(t *testing.T) {
	store := &memTemperatureStore{saveErr: errors.New("clickhouse down")}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewSensorService(store, SensorServiceConfig{}, discard, m)

	svc.processTemperature(reading(26, 0))
	store.saveErr = nil
	svc.processTemperature(reading(27, 1))

	assert.Equal(t, []models.TemperatureReading{*reading(27, 1)}, store.all())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TelemetryStoreFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TelemetryStored))
}
