package power

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrNotTerminal = errors.New("power: action is not terminal")

type HostOptions struct {
	// Flush persists retained node state before the process image is replaced.
	Flush func() error
	// Quiesce stops anything that should not outlive the current run (radio, broker link).
	Quiesce func()
	Logger  *slog.Logger
}

// Host emulates the suspend/reset primitives on a Linux host: retained state is
// flushed, the radio is quiesced, and the binary re-executes itself, so the next
// run starts from main with only the retention region intact.
type Host struct {
	opts HostOptions

	// held for the rest of the process once a transition starts
	mu sync.Mutex

	sleep   func(time.Duration)
	restart func() error
}

func NewHost(opts HostOptions) *Host {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Host{
		opts:    opts,
		sleep:   time.Sleep,
		restart: restartSelf,
	}
}

// Execute performs a terminal action. It only returns if the restart itself
// failed; a concurrent caller blocks until the process image is replaced.
func (h *Host) Execute(a Action) error {
	if !a.Terminal() {
		return ErrNotTerminal
	}

	h.mu.Lock()
	log := h.opts.Logger.With("action", a.String())

	if h.opts.Flush != nil {
		if err := h.opts.Flush(); err != nil {
			log.Error("power: flush retained state failed", "error", err)
		}
	}
	if h.opts.Quiesce != nil {
		h.opts.Quiesce()
	}

	if a.Kind == KindSuspend {
		log.Info("power: suspending", "duration", a.Duration)
		h.sleep(a.Duration)
	} else {
		log.Info("power: resetting")
	}

	err := h.restart()
	h.mu.Unlock()
	if err != nil {
		log.Error("power: restart failed", "error", err)
	}
	return err
}
