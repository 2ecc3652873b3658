package mqtt

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"fishtank-aas/internal/metrics"
)

// ConnectionState tracks the broker connection:
// Disconnected → Connecting → Connected, and back to Disconnected on transport
// error or broker-initiated disconnect, after which paho re-enters Connecting.
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Client manages the MQTT connection (low-level connection management only)
// For subscribing and publishing, use Subscriber and Publisher respectively
type Client struct {
	client  mqtt.Client
	config  ClientConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	state atomic.Int32

	mu        sync.Mutex
	onConnect []func(mqtt.Client)
}

// ClientConfig holds MQTT client configuration
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// ConnectTimeout bounds how long Connect blocks before leaving the
	// connection attempt to the background.
	ConnectTimeout time.Duration
	// MaxReconnectInterval caps the reconnect delay, which starts at one
	// second and doubles after each failed attempt.
	MaxReconnectInterval time.Duration
}

// NewClient creates a new MQTT client. No connection is made until Connect.
func NewClient(config ClientConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.MaxReconnectInterval <= 0 {
		config.MaxReconnectInterval = time.Minute
	}

	c := &Client{
		config:  config,
		logger:  logger,
		metrics: m,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(false)
	opts.SetDefaultPublishHandler(c.handleUnrouted)
	opts.SetOnConnectHandler(c.handleConnect)
	opts.SetConnectionLostHandler(c.handleConnectionLost)
	opts.SetReconnectingHandler(c.handleReconnecting)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(config.MaxReconnectInterval)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	c.client = mqtt.NewClient(opts)
	return c
}

// OnConnect registers fn to run every time the connection is (re)established.
// Subscriptions belong here: a clean session forgets them on reconnect.
func (c *Client) OnConnect(fn func(mqtt.Client)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = append(c.onConnect, fn)
}

// Connect starts connecting to the broker. If the broker does not answer within
// ConnectTimeout the attempt continues in the background and Connect returns
// nil; a broker outage is never fatal.
func (c *Client) Connect() error {
	c.setState(Connecting)
	c.logger.Info("Connecting to MQTT broker", slog.String("broker", c.config.Broker))

	token := c.client.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		c.logger.Warn("MQTT broker not reachable yet, retrying in background",
			slog.String("broker", c.config.Broker),
			slog.Duration("waited", c.config.ConnectTimeout))
		return nil
	}
	if err := token.Error(); err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

// GetNativeClient returns the underlying paho MQTT client
// This is used by Subscriber and Publisher
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// IsConnected reports whether the connection is up right now. Unlike paho's
// IsConnected it is false while a reconnect is pending.
func (c *Client) IsConnected() bool {
	return c.State() == Connected && c.client.IsConnectionOpen()
}

// Close closes the MQTT client connection
func (c *Client) Close() {
	c.client.Disconnect(250)
	c.setState(Disconnected)
	c.logger.Info("MQTT client disconnected")
}

func (c *Client) setState(s ConnectionState) {
	c.state.Store(int32(s))
	c.metrics.SetConnected(s == Connected)
}

// Connection event handlers

func (c *Client) handleConnect(client mqtt.Client) {
	c.setState(Connected)
	c.logger.Info("MQTT connection established", slog.String("broker", c.config.Broker))

	c.mu.Lock()
	hooks := slices.Clone(c.onConnect)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(client)
	}
}

func (c *Client) handleConnectionLost(_ mqtt.Client, err error) {
	c.setState(Disconnected)
	c.logger.Warn("MQTT connection lost", slog.Any("error", err))
}

func (c *Client) handleReconnecting(_ mqtt.Client, _ *mqtt.ClientOptions) {
	c.setState(Connecting)
	c.logger.Info("MQTT reconnecting", slog.String("broker", c.config.Broker))
}

func (c *Client) handleUnrouted(_ mqtt.Client, msg mqtt.Message) {
	c.logger.Debug("MQTT message without handler", slog.String("topic", msg.Topic()))
}
