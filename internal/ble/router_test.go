package ble

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type recordHandler struct {
	connects    int
	disconnects int
}

func (h *recordHandler) OnConnect()    { h.connects++ }
func (h *recordHandler) OnDisconnect() { h.disconnects++ }

type event struct {
	addr      string
	connected bool
}

const (
	central = "AA:BB:CC:DD:EE:01"
	other   = "AA:BB:CC:DD:EE:02"
)

func TestRouter_Handle(t *testing.T) {
	tests := []struct {
		name            string
		events          []event
		wantConnects    int
		wantDisconnects int
		wantStages      int
	}{
		{
			name:            "session connect then disconnect",
			events:          []event{{central, true}, {central, false}},
			wantConnects:    1,
			wantDisconnects: 1,
			wantStages:      1,
		},
		{
			name:   "disconnect with no session",
			events: []event{{other, false}},
		},
		{
			name:         "unrelated device disconnects during session",
			events:       []event{{central, true}, {other, false}},
			wantConnects: 1,
			wantStages:   1,
		},
		{
			name:         "second central connects during session",
			events:       []event{{central, true}, {other, true}, {other, false}},
			wantConnects: 1,
			wantStages:   1,
		},
		{
			name:         "repeated connect from session central",
			events:       []event{{central, true}, {central, true}},
			wantConnects: 2,
			wantStages:   1,
		},
		{
			name:            "duplicate disconnect is forwarded once",
			events:          []event{{central, true}, {central, false}, {central, false}},
			wantConnects:    1,
			wantDisconnects: 1,
			wantStages:      1,
		},
		{
			name:            "new session after the previous one closed",
			events:          []event{{central, true}, {central, false}, {other, true}, {other, false}},
			wantConnects:    2,
			wantDisconnects: 2,
			wantStages:      2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := &recordHandler{}
			stages := 0
			r := newRouter(h, func() error { stages++; return nil }, slog.New(slog.NewTextHandler(io.Discard, nil)))

			for _, e := range tc.events {
				r.handle(e.addr, e.connected)
			}

			if h.connects != tc.wantConnects {
				t.Errorf("connects = %d, want %d", h.connects, tc.wantConnects)
			}
			if h.disconnects != tc.wantDisconnects {
				t.Errorf("disconnects = %d, want %d", h.disconnects, tc.wantDisconnects)
			}
			if stages != tc.wantStages {
				t.Errorf("stages = %d, want %d", stages, tc.wantStages)
			}
		})
	}
}

func TestRouter_StageFailureKeepsSession(t *testing.T) {
	h := &recordHandler{}
	r := newRouter(h, func() error { return errors.New("bluez gone") }, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.handle(central, true)
	r.handle(central, false)

	if h.connects != 1 || h.disconnects != 1 {
		t.Errorf("connects/disconnects = %d/%d, want 1/1", h.connects, h.disconnects)
	}
}

type reentrantHandler struct {
	r     *router
	calls int
}

func (h *reentrantHandler) OnConnect() {}

// OnDisconnect re-enters the router the way a suspend that restarts the
// radio would; the router must not hold its lock across the call.
func (h *reentrantHandler) OnDisconnect() {
	h.calls++
	if h.calls == 1 {
		h.r.handle(central, false)
	}
}

func TestRouter_DisconnectReleasesLock(t *testing.T) {
	h := &reentrantHandler{}
	h.r = newRouter(h, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	h.r.handle(central, true)
	h.r.handle(central, false)

	if h.calls != 1 {
		t.Errorf("OnDisconnect calls = %d, want 1", h.calls)
	}
}
