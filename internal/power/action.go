// Package power models the node's two non-returning hardware transitions
// (suspend and reset) as values, and executes them at the platform boundary.
package power

import (
	"fmt"
	"time"
)

type Kind uint8

const (
	KindContinue Kind = iota
	KindSuspend
	KindReset
)

func (k Kind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindSuspend:
		return "suspend"
	case KindReset:
		return "reset"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Action is the outcome of one decision step. Suspend and Reset are terminal:
// once executed, the node restarts from its entry point.
type Action struct {
	Kind     Kind
	Duration time.Duration
}

func Continue() Action { return Action{Kind: KindContinue} }

func Suspend(d time.Duration) Action { return Action{Kind: KindSuspend, Duration: d} }

func Reset() Action { return Action{Kind: KindReset} }

func (a Action) Terminal() bool {
	return a.Kind == KindSuspend || a.Kind == KindReset
}

func (a Action) String() string {
	if a.Kind == KindSuspend {
		return fmt.Sprintf("suspend(%s)", a.Duration)
	}
	return a.Kind.String()
}

// Executor carries out terminal actions. Execute does not return on success.
type Executor interface {
	Execute(a Action) error
}
