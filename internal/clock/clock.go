package clock

import "time"

// Clock is the node's source of wall-clock time.
type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now() }

// Seconds converts t to the whole-second timestamps kept in node state.
func Seconds(t time.Time) int64 {
	return t.Unix()
}
