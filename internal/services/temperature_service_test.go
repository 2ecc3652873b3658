package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemperatureServiceRecentOldestFirst(t *testing.T) {
	store := &memTemperatureStore{}
	for i, v := range []float64{25.1, 25.2, 25.3, 25.4, 25.5} {
		require.NoError(t, store.SaveTemperature(context.Background(), reading(v, i)))
	}

	got, err := NewTemperatureService(store, 100, time.Second).Recent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TemperatureView{
		{Temperature: 25.1, Timestamp: "2026-03-01 08:00:00"},
		{Temperature: 25.2, Timestamp: "2026-03-01 08:01:00"},
		{Temperature: 25.3, Timestamp: "2026-03-01 08:02:00"},
		{Temperature: 25.4, Timestamp: "2026-03-01 08:03:00"},
		{Temperature: 25.5, Timestamp: "2026-03-01 08:04:00"},
	}, got)

	_, ok := store.lastCtx.Deadline()
	assert.True(t, ok, "store call should carry a deadline")
}

func TestTemperatureServiceCapsHistory(t *testing.T) {
	store := &memTemperatureStore{}
	for i := 0; i < 7; i++ {
		require.NoError(t, store.SaveTemperature(context.Background(), reading(float64(20+i), i)))
	}

	got, err := NewTemperatureService(store, 3, 0).Recent(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 24.0, got[0].Temperature)
	assert.Equal(t, 26.0, got[2].Temperature)
}

func TestTemperatureServiceEmpty(t *testing.T) {
	got, err := NewTemperatureService(&memTemperatureStore{}, 0, 0).Recent(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
