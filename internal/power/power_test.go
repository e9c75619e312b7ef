package power

import (
	"errors"
	"testing"
	"time"
)

func TestAction_Terminal(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   bool
	}{
		{name: "continue", action: Continue(), want: false},
		{name: "suspend", action: Suspend(4 * time.Second), want: true},
		{name: "reset", action: Reset(), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAction_String(t *testing.T) {
	if got := Suspend(10 * time.Millisecond).String(); got != "suspend(10ms)" {
		t.Errorf("String() = %q, want %q", got, "suspend(10ms)")
	}
	if got := Reset().String(); got != "reset" {
		t.Errorf("String() = %q, want %q", got, "reset")
	}
}

func newTestHost(steps *[]string, restartErr error) *Host {
	h := NewHost(HostOptions{
		Flush: func() error {
			*steps = append(*steps, "flush")
			return nil
		},
		Quiesce: func() { *steps = append(*steps, "quiesce") },
	})
	h.sleep = func(d time.Duration) { *steps = append(*steps, "sleep "+d.String()) }
	h.restart = func() error {
		*steps = append(*steps, "restart")
		return restartErr
	}
	return h
}

func TestHost_Execute_Suspend(t *testing.T) {
	var steps []string
	restartErr := errors.New("exec failed")
	h := newTestHost(&steps, restartErr)

	err := h.Execute(Suspend(4 * time.Second))
	if !errors.Is(err, restartErr) {
		t.Fatalf("Execute() error = %v, want %v", err, restartErr)
	}

	want := []string{"flush", "quiesce", "sleep 4s", "restart"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("steps[%d] = %q, want %q", i, steps[i], want[i])
		}
	}
}

func TestHost_Execute_ResetSkipsSleep(t *testing.T) {
	var steps []string
	h := newTestHost(&steps, nil)

	if err := h.Execute(Reset()); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	for _, s := range steps {
		if s == "sleep 0s" {
			t.Fatalf("reset slept: %v", steps)
		}
	}
	if steps[len(steps)-1] != "restart" {
		t.Errorf("last step = %q, want restart", steps[len(steps)-1])
	}
}

func TestHost_Execute_FlushErrorStillRestarts(t *testing.T) {
	restarted := false
	h := NewHost(HostOptions{
		Flush: func() error { return errors.New("disk gone") },
	})
	h.sleep = func(time.Duration) {}
	h.restart = func() error {
		restarted = true
		return nil
	}

	if err := h.Execute(Suspend(time.Millisecond)); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if !restarted {
		t.Error("restart was not attempted after flush error")
	}
}

func TestHost_Execute_RejectsContinue(t *testing.T) {
	var steps []string
	h := newTestHost(&steps, nil)

	if err := h.Execute(Continue()); !errors.Is(err, ErrNotTerminal) {
		t.Fatalf("Execute(Continue) error = %v, want ErrNotTerminal", err)
	}
	if len(steps) != 0 {
		t.Errorf("steps = %v, want none", steps)
	}
}
