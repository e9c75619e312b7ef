// Package dutycycle decides when an idle node should suspend.
package dutycycle

import (
	"log/slog"
	"time"

	"cloudpico-node/internal/clock"
	"cloudpico-node/internal/display"
	"cloudpico-node/internal/power"
	"cloudpico-node/internal/state"
)

const (
	// AwakeThreshold is how long the node may sit idle before suspending.
	AwakeThreshold = 4 * time.Second
	// SleepDuration is how long each duty-cycle suspend lasts.
	SleepDuration = 4 * time.Second
)

// Thresholds are the duty-cycle timings.
type Thresholds struct {
	Awake time.Duration
	Sleep time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{Awake: AwakeThreshold, Sleep: SleepDuration}
}

// Evaluate is the decision with the default thresholds. now and last are unix seconds.
func Evaluate(now, last int64, enabled bool) power.Action {
	return DefaultThresholds().Evaluate(now, last, enabled)
}

// Evaluate returns Suspend(t.Sleep) when duty cycling is enabled and the idle
// time strictly exceeds t.Awake. A clock that moved backwards reads as not idle.
func (t Thresholds) Evaluate(now, last int64, enabled bool) power.Action {
	if !enabled {
		return power.Continue()
	}
	// Whole seconds on both sides: idle > Awake iff idle > floor(Awake).
	if now-last > int64(t.Awake/time.Second) {
		return power.Suspend(t.Sleep)
	}
	return power.Continue()
}

// Policy applies the thresholds to the live node state.
type Policy struct {
	node       *state.Node
	sink       display.Sink
	clock      clock.Clock
	thresholds Thresholds
	logger     *slog.Logger
}

func NewPolicy(node *state.Node, sink display.Sink, c clock.Clock, t Thresholds, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{
		node:       node,
		sink:       sink,
		clock:      c,
		thresholds: t,
		logger:     logger,
	}
}

// Toggle flips duty cycling, restarts the idle countdown and reports the new state.
func (p *Policy) Toggle() bool {
	enabled := p.node.ToggleDutyCycle()
	p.node.Touch(clock.Seconds(p.clock.Now()))

	if enabled {
		p.sink.Println("SET DUTY_CYCLE 1")
	} else {
		p.sink.Println("SET DUTY_CYCLE 0")
	}
	p.logger.Info("dutycycle: toggled", "enabled", enabled)
	return enabled
}

// Decide evaluates the policy for the current node state at now.
func (p *Policy) Decide(now time.Time) power.Action {
	return p.thresholds.Evaluate(clock.Seconds(now), p.node.LastActivity(), p.node.DutyCycleEnabled())
}

func (p *Policy) Thresholds() Thresholds { return p.thresholds }
