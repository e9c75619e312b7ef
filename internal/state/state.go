// Package state holds the node fields that survive a suspend/resume cycle.
//
// Each field is independently atomic and has a single writer at a time, so the
// radio callbacks and the control loop can touch them without a shared lock.
package state

import (
	"fmt"
	"sync/atomic"
)

// Snapshot is the retained node state as it is stored across restarts.
type Snapshot struct {
	DutyCycleEnabled bool
	LastActivityTime int64 // unix seconds
	LastSensorValue  uint8
}

// Defaults is the state of a node booting for the first time at bootTime.
func Defaults(bootTime int64) Snapshot {
	return Snapshot{LastActivityTime: bootTime}
}

// Node is the live, in-place view of the retained state.
type Node struct {
	dutyCycle    atomic.Bool
	lastActivity atomic.Int64
	lastSensor   atomic.Uint32
}

func NewNode(s Snapshot) *Node {
	n := &Node{}
	n.dutyCycle.Store(s.DutyCycleEnabled)
	n.lastActivity.Store(s.LastActivityTime)
	n.lastSensor.Store(uint32(s.LastSensorValue))
	return n
}

func (n *Node) DutyCycleEnabled() bool { return n.dutyCycle.Load() }

// ToggleDutyCycle flips the flag and returns the new value.
func (n *Node) ToggleDutyCycle() bool {
	for {
		old := n.dutyCycle.Load()
		if n.dutyCycle.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (n *Node) LastActivity() int64 { return n.lastActivity.Load() }

// Touch records activity at now, restarting the idle countdown.
func (n *Node) Touch(now int64) { n.lastActivity.Store(now) }

func (n *Node) LastSensorValue() uint8 { return uint8(n.lastSensor.Load()) }

func (n *Node) SetLastSensorValue(v uint8) { n.lastSensor.Store(uint32(v)) }

// Snapshot reads every field. Fields are read one by one; no invariant spans them.
func (n *Node) Snapshot() Snapshot {
	return Snapshot{
		DutyCycleEnabled: n.DutyCycleEnabled(),
		LastActivityTime: n.LastActivity(),
		LastSensorValue:  n.LastSensorValue(),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("duty_cycle=%t last_activity=%d last_sensor=%d",
		s.DutyCycleEnabled, s.LastActivityTime, s.LastSensorValue)
}
