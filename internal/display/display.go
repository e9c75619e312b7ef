// Package display is the node's local status output: a line sink read by an
// operator, never part of the radio protocol.
package display

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Sink receives human-readable status lines.
type Sink interface {
	Println(line string)
}

// Console writes each line to w, like the node's screen.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.w, line+"\n")
}

// Log mirrors status lines into the structured log.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Println(line string) {
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, "display", slog.String("line", line))
}

// Multi fans a line out to every sink in order.
type Multi []Sink

func (m Multi) Println(line string) {
	for _, s := range m {
		if s != nil {
			s.Println(line)
		}
	}
}

// Discard drops everything.
type Discard struct{}

func (Discard) Println(string) {}
