// Package button turns raw momentary inputs into "released after a hold of at
// least D" events, so a brief tap does not register.
package button

import "time"

// DefaultHold is the minimum hold for a press to count.
const DefaultHold = 5 * time.Millisecond

// Input reports whether a momentary switch is currently closed.
type Input interface {
	Pressed() bool
}

// Button tracks one input across polls.
type Button struct {
	name  string
	input Input

	down      bool
	downSince time.Time

	released bool
	heldFor  time.Duration
}

func New(name string, in Input) *Button {
	return &Button{name: name, input: in}
}

func (b *Button) Name() string { return b.name }

// Update samples the input at now. A release edge is remembered until the next Update.
func (b *Button) Update(now time.Time) {
	b.released = false
	pressed := b.input.Pressed()

	switch {
	case pressed && !b.down:
		b.down = true
		b.downSince = now
	case !pressed && b.down:
		b.down = false
		b.released = true
		b.heldFor = now.Sub(b.downSince)
	}
}

// WasReleasedFor reports whether the last Update saw the button released
// after being held for at least d.
func (b *Button) WasReleasedFor(d time.Duration) bool {
	return b.released && b.heldFor >= d
}

// Panel is the node's two physical controls.
type Panel struct {
	Toggle *Button
	Reset  *Button
}

func (p Panel) Poll(now time.Time) {
	if p.Toggle != nil {
		p.Toggle.Update(now)
	}
	if p.Reset != nil {
		p.Reset.Update(now)
	}
}

// Never is an input that is never pressed, for nodes without wired controls.
type Never struct{}

func (Never) Pressed() bool { return false }
