package ble

import (
	"log/slog"
	"sync"
)

// router pairs radio connection events with the one central that holds the
// session. BlueZ reports Connected changes for every device on the bus, so an
// event only reaches the handler when it belongs to that central.
type router struct {
	h      Handler
	stage  func() error
	logger *slog.Logger

	mu     sync.Mutex
	active bool
	addr   string
}

func newRouter(h Handler, stage func() error, logger *slog.Logger) *router {
	if logger == nil {
		logger = slog.Default()
	}
	return &router{h: h, stage: stage, logger: logger}
}

func (r *router) handle(addr string, connected bool) {
	if connected {
		r.connect(addr)
		return
	}
	r.disconnect(addr)
}

func (r *router) connect(addr string) {
	r.mu.Lock()
	if r.active && r.addr != addr {
		r.mu.Unlock()
		r.logger.Debug("ble: ignoring connect from second central", "addr", addr, "session", r.addr)
		return
	}
	fresh := !r.active
	r.active = true
	r.addr = addr
	r.mu.Unlock()

	r.logger.Info("ble: central connected", "addr", addr)
	r.h.OnConnect()
	if !fresh {
		return
	}
	// The stack answers reads from the stored value, so a fresh reading is
	// staged for the session as soon as the client arrives.
	if r.stage != nil {
		if err := r.stage(); err != nil {
			r.logger.Warn("ble: stage reading failed", "error", err)
		}
	}
}

func (r *router) disconnect(addr string) {
	r.mu.Lock()
	if !r.active || r.addr != addr {
		r.mu.Unlock()
		r.logger.Debug("ble: ignoring disconnect outside the session", "addr", addr)
		return
	}
	r.active = false
	r.addr = ""
	r.mu.Unlock()

	r.logger.Info("ble: central disconnected", "addr", addr)
	// does not return once the node suspends
	r.h.OnDisconnect()
}
