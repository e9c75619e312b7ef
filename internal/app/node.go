package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloudpico-node/internal/ble"
	"cloudpico-node/internal/button"
	"cloudpico-node/internal/clock"
	"cloudpico-node/internal/config"
	"cloudpico-node/internal/control"
	"cloudpico-node/internal/display"
	"cloudpico-node/internal/dutycycle"
	"cloudpico-node/internal/power"
	"cloudpico-node/internal/sensor"
	"cloudpico-node/internal/session"
	"cloudpico-node/internal/state"
)

// Radio is the wireless peripheral the node advertises through.
type Radio interface {
	Start(h ble.Handler, c session.Characteristic) error
	Stop()
}

type Deps struct {
	Store    *state.Store
	Radio    Radio
	Panel    button.Panel
	Source   sensor.Source
	Sink     display.Sink
	Clock    clock.Clock
	Readings session.ReadingPublisher

	// Power defaults to a host executor that flushes Store and calls Quiesce.
	Power   power.Executor
	Quiesce func()
	Logger  *slog.Logger
}

// Node is the context built once at startup and shared by every component.
type Node struct {
	Store   *state.Store
	Radio   Radio
	Sink    display.Sink
	Clock   clock.Clock
	Policy  *dutycycle.Policy
	Session *session.Manager
	Loop    *control.Loop
	Power   power.Executor
	Quiesce func()
	Logger  *slog.Logger
}

func Build(cfg config.Config, d Deps) (*Node, error) {
	if d.Store == nil {
		return nil, errors.New("app: state store is required")
	}
	if d.Radio == nil {
		return nil, errors.New("app: radio is required")
	}
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Sink == nil {
		d.Sink = display.Discard{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Power == nil {
		d.Power = power.NewHost(power.HostOptions{
			Flush:   d.Store.Flush,
			Quiesce: d.Quiesce,
			Logger:  d.Logger,
		})
	}

	thresholds := dutycycle.Thresholds{Awake: cfg.DutyCycleAwake, Sleep: cfg.DutyCycleSleep}
	policy := dutycycle.NewPolicy(d.Store.Node(), d.Sink, d.Clock, thresholds, d.Logger)

	if d.Source == nil {
		d.Source = sensor.NewRandom(uint64(d.Clock.Now().UnixNano()))
	}

	mgr, err := session.NewManager(session.Options{
		Node:            d.Store.Node(),
		Source:          d.Source,
		Sink:            d.Sink,
		Clock:           d.Clock,
		Power:           d.Power,
		DisconnectSleep: cfg.DisconnectSleep,
		Readings:        d.Readings,
		Logger:          d.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	loop := control.New(control.Options{
		Panel:        d.Panel,
		Hold:         cfg.ButtonHold,
		Policy:       policy,
		Clock:        d.Clock,
		PollInterval: cfg.PollInterval,
		Logger:       d.Logger,
	})

	return &Node{
		Store:   d.Store,
		Radio:   d.Radio,
		Sink:    d.Sink,
		Clock:   d.Clock,
		Policy:  policy,
		Session: mgr,
		Loop:    loop,
		Power:   d.Power,
		Quiesce: d.Quiesce,
		Logger:  d.Logger,
	}, nil
}

// Boot prints the banner, brings up the radio and restarts the idle countdown.
// A radio that fails to start is logged and the node keeps running without it.
func (n *Node) Boot() {
	n.Logger.Info("node: boot",
		"first_boot", n.Store.FirstBoot(),
		"retained", n.Store.Load().String(),
	)

	c := n.Session.Characteristic()
	n.Sink.Println("Humidity node starting...")
	n.Sink.Println(fmt.Sprintf("- Serv-UUID: %s", c.Service))
	n.Sink.Println(fmt.Sprintf("- Humi-UUID: %s", c.ID))

	if err := n.Radio.Start(n.Session, c); err != nil {
		n.Logger.Warn("ble peripheral could not be started; node continues without radio", "error", err)
	}

	n.Store.Node().Touch(clock.Seconds(n.Clock.Now()))
}

// Run drives the control loop and executes the terminal action it yields.
// On context cancellation the retained state is flushed and the radio stopped.
func (n *Node) Run(ctx context.Context) error {
	a, err := n.Loop.Run(ctx)
	if err != nil {
		n.Logger.Info("node: shutting down", "reason", err)
		if ferr := n.Store.Flush(); ferr != nil {
			n.Logger.Error("node: flush on shutdown failed", "error", ferr)
		}
		if n.Quiesce != nil {
			n.Quiesce()
		}
		return err
	}

	if err := n.Power.Execute(a); err != nil {
		return fmt.Errorf("execute %s: %w", a, err)
	}
	return nil
}
