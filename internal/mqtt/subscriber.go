package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"fishtank-aas/internal/metrics"
	"fishtank-aas/internal/models"
)

// Subscriber handles the telemetry subscription and writes readings to a channel
type Subscriber struct {
	client  mqtt.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	// Output channel (written by subscriber, read by SensorService)
	TempChan chan *models.TemperatureReading

	temperatureTopic string
	handoffTimeout   time.Duration
	now              func() time.Time

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	TemperatureTopic string // e.g., "iTamba/temperature"
}

// NewSubscriber creates a new MQTT subscriber writing to tempChan
func NewSubscriber(
	client mqtt.Client,
	config SubscriberConfig,
	tempChan chan *models.TemperatureReading,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Subscriber {
	return &Subscriber{
		client:           client,
		logger:           logger,
		metrics:          m,
		TempChan:         tempChan,
		temperatureTopic: config.TemperatureTopic,
		handoffTimeout:   time.Second,
		now:              time.Now,
	}
}

// Subscribe subscribes to the temperature topic. It is registered as an
// on-connect hook so the subscription is renewed after every reconnect.
func (s *Subscriber) Subscribe() error {
	token := s.client.Subscribe(s.temperatureTopic, 1, s.handleTemperature)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to temperature topic: %w", token.Error())
	}
	s.logger.Info("Subscribed to temperature topic", slog.String("topic", s.temperatureTopic))
	return nil
}

// Unsubscribe stops the flow of telemetry ahead of shutdown
func (s *Subscriber) Unsubscribe(timeout time.Duration) error {
	if !s.client.IsConnectionOpen() {
		return nil
	}
	token := s.client.Unsubscribe(s.temperatureTopic)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("unsubscribe from %s: timed out after %s", s.temperatureTopic, timeout)
	}
	return token.Error()
}

// Close stops handing readings to TempChan and waits for callbacks already in
// the hand-off to finish. Messages arriving afterwards are counted as dropped.
// Once Close returns, draining TempChan sees every accepted reading.
func (s *Subscriber) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()
}

// handleTemperature parses a temperature message and writes it to the channel.
// Malformed payloads are reported and dropped; consumption continues.
func (s *Subscriber) handleTemperature(_ mqtt.Client, msg mqtt.Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.metrics.IncTelemetryDropped()
		s.logger.Warn("Subscriber closed, dropping telemetry message", slog.String("topic", msg.Topic()))
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	s.metrics.IncTelemetryReceived()

	value, err := ParseTemperature(msg.Payload())
	if err != nil {
		s.metrics.IncTelemetryMalformed()
		s.logger.Warn("Dropping telemetry message",
			slog.String("topic", msg.Topic()),
			slog.Any("error", err))
		return
	}

	// The sensor sends no timestamp; readings are stamped on ingestion.
	reading := &models.TemperatureReading{
		Temperature: value,
		Timestamp:   s.now(),
	}

	s.logger.Debug("Received temperature", slog.String("topic", msg.Topic()), slog.Float64("temperature", value))

	select {
	case s.TempChan <- reading:
	case <-time.After(s.handoffTimeout):
		s.metrics.IncTelemetryDropped()
		s.logger.Warn("Temperature channel full, dropping reading", slog.Float64("temperature", value))
	}
}
