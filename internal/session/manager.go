// Package session is the node's boundary with the wireless client: it owns the
// humidity characteristic and reacts to connect, disconnect and read events.
package session

import (
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"cloudpico-node/internal/clock"
	"cloudpico-node/internal/display"
	"cloudpico-node/internal/power"
	"cloudpico-node/internal/sensor"
	"cloudpico-node/internal/state"
)

// DisconnectSleep is the short suspend forced after every session ends.
const DisconnectSleep = 10 * time.Millisecond

// ReadingPublisher receives each generated reading; it must not block.
type ReadingPublisher interface {
	PublishReading(v uint8)
}

type Options struct {
	Node   *state.Node
	Source sensor.Source
	Sink   display.Sink
	Clock  clock.Clock
	Power  power.Executor

	// DisconnectSleep overrides the post-session suspend; zero means DisconnectSleep.
	DisconnectSleep time.Duration
	Readings        ReadingPublisher
	Logger          *slog.Logger
}

// Manager handles the callbacks of a single-client peripheral. Callbacks may
// interleave with the control loop but each runs to completion on its own.
type Manager struct {
	opts      Options
	connected atomic.Bool
}

// NewManager requires a node and a power executor; the remaining options
// fall back to the system clock, a random source and a discarding sink.
func NewManager(opts Options) (*Manager, error) {
	if opts.Node == nil {
		return nil, errors.New("session: node state is required")
	}
	if opts.Power == nil {
		return nil, errors.New("session: power executor is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Source == nil {
		opts.Source = sensor.NewRandom(uint64(opts.Clock.Now().UnixNano()))
	}
	if opts.DisconnectSleep <= 0 {
		opts.DisconnectSleep = DisconnectSleep
	}
	if opts.Sink == nil {
		opts.Sink = display.Discard{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{opts: opts}, nil
}

func (m *Manager) Connected() bool { return m.connected.Load() }

// OnConnect marks the session open and restarts the idle countdown.
func (m *Manager) OnConnect() {
	m.opts.Node.Touch(clock.Seconds(m.opts.Clock.Now()))
	m.opts.Sink.Println("client connected")
	if m.connected.Swap(true) {
		m.opts.Logger.Debug("session: connect while already connected")
		return
	}
	m.opts.Logger.Info("session: client connected")
}

// OnDisconnect closes the session and forces a short suspend, regardless of
// the duty-cycle setting: advertising does not come back reliably after a
// session ends, so the radio stack is restarted from scratch.
func (m *Manager) OnDisconnect() {
	m.opts.Sink.Println("client disconnected")
	m.connected.Store(false)
	m.opts.Logger.Info("session: client disconnected", "suspend", m.opts.DisconnectSleep)

	if err := m.opts.Power.Execute(power.Suspend(m.opts.DisconnectSleep)); err != nil {
		m.opts.Logger.Error("session: post-disconnect suspend failed", "error", err)
	}
}

// OnCharacteristicRead samples a reading, retains it and returns it for transmission.
func (m *Manager) OnCharacteristicRead() uint8 {
	m.opts.Node.Touch(clock.Seconds(m.opts.Clock.Now()))
	v := m.opts.Source.Sample()
	if v > sensor.MaxHumidity {
		v = sensor.MaxHumidity
	}
	m.opts.Node.SetLastSensorValue(v)
	m.opts.Sink.Println(strconv.Itoa(int(v)))
	if m.opts.Readings != nil {
		m.opts.Readings.PublishReading(v)
	}
	return v
}

// Characteristic returns the humidity characteristic backed by this manager.
func (m *Manager) Characteristic() Characteristic {
	return Characteristic{
		Service:     ServiceUUID,
		ID:          HumidityUUID,
		Description: HumidityDescription,
		read:        m.OnCharacteristicRead,
	}
}
