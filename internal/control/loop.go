// Package control runs the node's cooperative main loop.
package control

import (
	"context"
	"log/slog"
	"time"

	"cloudpico-node/internal/button"
	"cloudpico-node/internal/clock"
	"cloudpico-node/internal/dutycycle"
	"cloudpico-node/internal/power"
)

// DefaultPollInterval keeps the host loop from spinning a core flat out.
const DefaultPollInterval = 10 * time.Millisecond

type Options struct {
	Panel        button.Panel
	Hold         time.Duration
	Policy       *dutycycle.Policy
	Clock        clock.Clock
	PollInterval time.Duration
	Logger       *slog.Logger
}

type Loop struct {
	opts Options
}

func New(opts Options) *Loop {
	if opts.Hold <= 0 {
		opts.Hold = button.DefaultHold
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loop{opts: opts}
}

// Step runs one iteration: poll the buttons, apply a toggle, honour a reset,
// then ask the duty-cycle policy whether to suspend.
func (l *Loop) Step() power.Action {
	l.opts.Panel.Poll(l.opts.Clock.Now())

	if b := l.opts.Panel.Toggle; b != nil && b.WasReleasedFor(l.opts.Hold) {
		l.opts.Policy.Toggle()
	}
	if b := l.opts.Panel.Reset; b != nil && b.WasReleasedFor(l.opts.Hold) {
		l.opts.Logger.Info("control: reset requested")
		return power.Reset()
	}

	return l.opts.Policy.Decide(l.opts.Clock.Now())
}

// Run repeats Step until it yields a terminal action. Cancelling ctx returns
// Continue with ctx.Err(); that only happens on a host shutdown.
func (l *Loop) Run(ctx context.Context) (power.Action, error) {
	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	for {
		if a := l.Step(); a.Terminal() {
			l.opts.Logger.Info("control: terminal action", "action", a.String())
			return a, nil
		}

		select {
		case <-ctx.Done():
			return power.Continue(), ctx.Err()
		case <-ticker.C:
		}
	}
}
