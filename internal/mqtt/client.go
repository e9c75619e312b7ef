// Package mqtt mirrors the node's status lines and readings to a broker, so a
// cloudpico gateway or server can follow the node without a radio link.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Options struct {
	Broker   string
	Port     int
	ClientID string
	// Node names the topics: nodes/<node>/status, stations/<node>/telemetry.
	Node string
}

type Client struct {
	client    mqtt.Client
	opts      Options
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Status is one display line mirrored to the broker.
type Status struct {
	Node      string    `json:"node"`
	Timestamp time.Time `json:"timestamp"`
	Line      string    `json:"line"`
}

// Telemetry matches the cloudpico station telemetry message; the node only fills humidity.
type Telemetry struct {
	StationID string    `json:"station_id"`
	Timestamp time.Time `json:"timestamp"`
	Humidity  *float64  `json:"humidity_pct,omitempty"`
}

func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if opts.Node == "" {
		return nil, errors.New("mqtt node name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		opts:   opts,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	o := mqtt.NewClientOptions()
	o.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	o.SetClientID(opts.ClientID)

	o.SetCleanSession(true)

	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(5 * time.Second)
	o.SetMaxReconnectInterval(60 * time.Second)

	o.SetKeepAlive(30 * time.Second)
	o.SetPingTimeout(10 * time.Second)

	// Callbacks keep the connected flag accurate across reconnects.
	o.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", opts.Broker, "port", opts.Port)
	})

	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(o)
	return c, nil
}

// ErrStopped is returned by Connect once Disconnect has been called.
var ErrStopped = errors.New("mqtt client stopped")

// Connect waits for the initial connection, respecting ctx and Disconnect.
// Later reconnects are left to paho; the node keeps running while offline.
func (c *Client) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	if c.stopped() {
		return ErrStopped
	}
	if c.IsConnected() {
		return nil
	}

	// With ConnectRetry set, paho keeps retrying until the token completes.
	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for !token.WaitTimeout(poll) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return ErrStopped
		default:
		}
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s:%d: %w", c.opts.Broker, c.opts.Port, err)
	}
	// connected flips in the OnConnect handler
	return nil
}

func (c *Client) stopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func StatusTopic(node string) string { return fmt.Sprintf("nodes/%s/status", node) }

func TelemetryTopic(node string) string { return fmt.Sprintf("stations/%s/telemetry", node) }

// Println implements display.Sink. It never waits on the broker.
func (c *Client) Println(line string) {
	status := Status{Node: c.opts.Node, Timestamp: time.Now(), Line: line}
	data, err := json.Marshal(status)
	if err != nil {
		c.logger.Error("marshal status", "error", err)
		return
	}
	c.publish(StatusTopic(c.opts.Node), 0, data)
}

// PublishReading implements session.ReadingPublisher. It never waits on the broker.
func (c *Client) PublishReading(v uint8) {
	humidity := float64(v)
	t := Telemetry{
		StationID: c.opts.Node,
		Timestamp: time.Now(),
		Humidity:  &humidity,
	}
	data, err := json.Marshal(t)
	if err != nil {
		c.logger.Error("marshal telemetry", "error", err)
		return
	}
	c.publish(TelemetryTopic(c.opts.Node), 1, data)
}

func (c *Client) publish(topic string, qos byte, data []byte) {
	if !c.IsConnected() {
		c.logger.Debug("mqtt not connected, dropping message", "topic", topic)
		return
	}
	token := c.client.Publish(topic, qos, false, data)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			c.logger.Warn("publish timeout", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			c.logger.Warn("publish failed", "topic", topic, "error", err)
		}
	}()
}

// IsConnected reports whether the broker link is up, as seen by both the
// callbacks and paho itself.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect stops the client and closes the connection. Idempotent; pending
// Connect calls return ErrStopped.
func (c *Client) Disconnect() {
	first := false
	c.stopOnce.Do(func() {
		close(c.stopCh)
		first = true
	})
	if !first {
		return
	}

	// Give in-flight status lines a moment to drain before the node suspends.
	c.client.Disconnect(250)
	c.setConnected(false)
	c.logger.Info("mqtt disconnected", "broker", c.opts.Broker)
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
