package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"fishtank-aas/internal/metrics"
	"fishtank-aas/internal/models"
)

// ErrTransportUnavailable is returned when a command cannot be handed to the
// broker because the connection is down.
var ErrTransportUnavailable = errors.New("mqtt transport unavailable")

// Publisher mirrors feeding-schedule changes to the device. Delivery is best
// effort at QoS 1; no acknowledgement from the device is awaited.
type Publisher struct {
	client  mqtt.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	// Input channel (read by publisher, written by PublishFeedingCommand)
	CommandChan chan *models.FeedingCommand

	// Topic pattern
	commandTopic string // e.g., "FishTankAAS/{family}/{property_id}"
	ackTimeout   time.Duration
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	CommandTopic string
	QueueSize    int
	AckTimeout   time.Duration
}

// NewPublisher creates a new MQTT publisher
func NewPublisher(client mqtt.Client, config PublisherConfig, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	if config.QueueSize <= 0 {
		config.QueueSize = 16
	}
	if config.AckTimeout <= 0 {
		config.AckTimeout = 5 * time.Second
	}
	return &Publisher{
		client:       client,
		logger:       logger,
		metrics:      m,
		CommandChan:  make(chan *models.FeedingCommand, config.QueueSize),
		commandTopic: config.CommandTopic,
		ackTimeout:   config.AckTimeout,
	}
}

// PublishFeedingCommand queues cmd for publication without blocking. When the
// transport is down the command is not queued: the skip is logged, counted and
// returned as ErrTransportUnavailable.
func (p *Publisher) PublishFeedingCommand(cmd *models.FeedingCommand) error {
	if !p.client.IsConnectionOpen() {
		p.skip(cmd, "not connected")
		return fmt.Errorf("publish %s: %w", cmd.PropertyID, ErrTransportUnavailable)
	}

	select {
	case p.CommandChan <- cmd:
		return nil
	default:
		p.skip(cmd, "command queue full")
		return fmt.Errorf("publish %s: command queue full: %w", cmd.PropertyID, ErrTransportUnavailable)
	}
}

// Start publishes queued commands until the context is cancelled, then
// drains whatever is still queued.
func (p *Publisher) Start(ctx context.Context) {
	p.logger.Info("MQTT Publisher: Starting")

	for {
		select {
		case <-ctx.Done():
			p.drain()
			p.logger.Info("MQTT Publisher: Stopped")
			return

		case cmd := <-p.CommandChan:
			if err := p.publishCommand(cmd); err != nil {
				p.logger.Error("Error publishing feeding command", slog.Any("error", err))
			}
		}
	}
}

func (p *Publisher) drain() {
	for {
		select {
		case cmd := <-p.CommandChan:
			if err := p.publishCommand(cmd); err != nil {
				p.logger.Error("Error publishing feeding command", slog.Any("error", err))
			}
		default:
			return
		}
	}
}

// publishCommand publishes a feeding command on its family topic
func (p *Publisher) publishCommand(cmd *models.FeedingCommand) error {
	// The connection may have dropped while the command was queued.
	if !p.client.IsConnectionOpen() {
		p.skip(cmd, "connection lost before publish")
		return nil
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		p.metrics.IncCommandsFailed()
		return fmt.Errorf("failed to marshal feeding command: %w", err)
	}

	topic := formatTopic(p.commandTopic, cmd.Family, cmd.PropertyID)

	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(p.ackTimeout) {
		p.metrics.IncCommandsFailed()
		return fmt.Errorf("failed to publish feeding command to %s: no broker ack after %s", topic, p.ackTimeout)
	}
	if err := token.Error(); err != nil {
		p.metrics.IncCommandsFailed()
		return fmt.Errorf("failed to publish feeding command to %s: %w", topic, err)
	}

	p.metrics.IncCommandsPublished()
	p.logger.Info("Published feeding command",
		slog.String("topic", topic),
		slog.String("property_id", cmd.PropertyID),
		slog.String("value", cmd.Value))
	return nil
}

func (p *Publisher) skip(cmd *models.FeedingCommand, reason string) {
	p.metrics.IncCommandsSkipped()
	p.logger.Warn("MQTT not available, feeding command not published",
		slog.String("reason", reason),
		slog.String("property_id", cmd.PropertyID),
		slog.String("value", cmd.Value))
}

// formatTopic fills the {family} and {property_id} placeholders
func formatTopic(topicPattern, family, propertyID string) string {
	return strings.NewReplacer("{family}", family, "{property_id}", propertyID).Replace(topicPattern)
}
