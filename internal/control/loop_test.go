package control

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloudpico-node/internal/button"
	"cloudpico-node/internal/clock"
	"cloudpico-node/internal/dutycycle"
	"cloudpico-node/internal/power"
	"cloudpico-node/internal/state"
)

type fakeInput struct{ pressed bool }

func (f *fakeInput) Pressed() bool { return f.pressed }

type recordSink struct{ lines []string }

func (r *recordSink) Println(line string) { r.lines = append(r.lines, line) }

type fixture struct {
	loop   *Loop
	node   *state.Node
	clock  *clock.Fake
	toggle *fakeInput
	reset  *fakeInput
	sink   *recordSink
}

func newFixture(s state.Snapshot, now int64) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		node:   state.NewNode(s),
		clock:  clock.NewFake(time.Unix(now, 0)),
		toggle: &fakeInput{},
		reset:  &fakeInput{},
		sink:   &recordSink{},
	}
	policy := dutycycle.NewPolicy(f.node, f.sink, f.clock, dutycycle.DefaultThresholds(), logger)
	f.loop = New(Options{
		Panel: button.Panel{
			Toggle: button.New("toggle", f.toggle),
			Reset:  button.New("reset", f.reset),
		},
		Policy:       policy,
		Clock:        f.clock,
		PollInterval: time.Millisecond,
		Logger:       logger,
	})
	return f
}

// hold presses in for d, stepping the loop on press and on release.
func (f *fixture) hold(in *fakeInput, d time.Duration) power.Action {
	in.pressed = true
	if a := f.loop.Step(); a.Terminal() {
		return a
	}
	f.clock.Advance(d)
	in.pressed = false
	return f.loop.Step()
}

func TestLoop_IdleWithDutyCycleOff(t *testing.T) {
	f := newFixture(state.Defaults(0), 1000)

	if a := f.loop.Step(); a != power.Continue() {
		t.Errorf("Step() = %v, want continue", a)
	}
}

func TestLoop_SuspendsAfterIdleThreshold(t *testing.T) {
	f := newFixture(state.Snapshot{DutyCycleEnabled: true, LastActivityTime: 0}, 4)

	if a := f.loop.Step(); a != power.Continue() {
		t.Fatalf("Step() at threshold = %v, want continue", a)
	}
	f.clock.Advance(time.Second)
	if a := f.loop.Step(); a != power.Suspend(dutycycle.SleepDuration) {
		t.Errorf("Step() past threshold = %v, want %v", a, power.Suspend(dutycycle.SleepDuration))
	}
}

func TestLoop_ToggleButton(t *testing.T) {
	f := newFixture(state.Defaults(0), 0)

	f.clock.Set(time.Unix(1, 0))
	if a := f.hold(f.toggle, 10*time.Millisecond); a != power.Continue() {
		t.Fatalf("Step() after toggle = %v, want continue", a)
	}
	if !f.node.DutyCycleEnabled() {
		t.Fatal("DutyCycleEnabled = false after toggle hold, want true")
	}
	if got := f.node.LastActivity(); got != 1 {
		t.Errorf("LastActivity = %d, want 1", got)
	}
	if len(f.sink.lines) != 1 || f.sink.lines[0] != "SET DUTY_CYCLE 1" {
		t.Errorf("sink lines = %v, want [SET DUTY_CYCLE 1]", f.sink.lines)
	}

	f.clock.Set(time.Unix(6, 0))
	if a := f.loop.Step(); a != power.Suspend(4*time.Second) {
		t.Errorf("Step() at t=6 = %v, want suspend(4s)", a)
	}
}

func TestLoop_TapIsIgnored(t *testing.T) {
	f := newFixture(state.Defaults(0), 0)

	f.hold(f.toggle, time.Millisecond)

	if f.node.DutyCycleEnabled() {
		t.Error("a short tap toggled duty cycling")
	}
}

func TestLoop_ResetButton(t *testing.T) {
	f := newFixture(state.Defaults(0), 0)

	if a := f.hold(f.reset, 10*time.Millisecond); a != power.Reset() {
		t.Errorf("Step() after reset hold = %v, want reset", a)
	}
}

func TestLoop_ToggleAppliedBeforeReset(t *testing.T) {
	f := newFixture(state.Defaults(0), 0)

	f.toggle.pressed, f.reset.pressed = true, true
	f.loop.Step()
	f.clock.Advance(10 * time.Millisecond)
	f.toggle.pressed, f.reset.pressed = false, false

	if a := f.loop.Step(); a != power.Reset() {
		t.Fatalf("Step() = %v, want reset", a)
	}
	if !f.node.DutyCycleEnabled() {
		t.Error("toggle was not applied before reset")
	}
}

func TestLoop_RunReturnsTerminalAction(t *testing.T) {
	f := newFixture(state.Snapshot{DutyCycleEnabled: true, LastActivityTime: 0}, 100)

	a, err := f.loop.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if a != power.Suspend(dutycycle.SleepDuration) {
		t.Errorf("Run() = %v, want %v", a, power.Suspend(dutycycle.SleepDuration))
	}
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	f := newFixture(state.Defaults(0), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	a, err := f.loop.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}
	if a.Terminal() {
		t.Errorf("Run() = %v, want non-terminal", a)
	}
}
