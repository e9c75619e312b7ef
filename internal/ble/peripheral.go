// Package ble exposes the humidity characteristic over tinygo.org/x/bluetooth
// and forwards the session central's connect and disconnect events to a handler.
package ble

import (
	"fmt"
	"log/slog"
	"sync"

	"tinygo.org/x/bluetooth"

	"cloudpico-node/internal/session"
)

const DefaultLocalName = "m5-humidity-1"

// Handler receives session events from the radio.
type Handler interface {
	OnConnect()
	OnDisconnect()
}

type Options struct {
	Adapter   string // "hci0" by default
	LocalName string
	// Initial is served until the first session stages a fresh reading.
	Initial uint8
	Logger  *slog.Logger
}

// Peripheral advertises the service and serves a single client at a time.
type Peripheral struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
	opts    Options

	mu     sync.Mutex
	char   bluetooth.Characteristic
	active bool
}

func NewPeripheral(opts Options) *Peripheral {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	if opts.LocalName == "" {
		opts.LocalName = DefaultLocalName
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Peripheral{
		adapter: bluetooth.NewAdapter(opts.Adapter),
		opts:    opts,
	}
}

// Start enables the adapter, registers c under its service and begins advertising.
// Reads of c are staged through c.Read when a central connects.
func (p *Peripheral) Start(h Handler, c session.Characteristic) error {
	log := p.opts.Logger
	log.Info("ble: enabling adapter", "adapter", p.opts.Adapter)
	if err := p.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable (%s): %w", p.opts.Adapter, err)
	}

	r := newRouter(h, func() error { return p.stage(c.Read()) }, log)
	p.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		r.handle(device.Address.String(), connected)
	})

	serviceUUID := bluetooth.NewUUID(c.Service)
	p.mu.Lock()
	err := p.adapter.AddService(&bluetooth.Service{
		UUID: serviceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &p.char,
				UUID:   bluetooth.NewUUID(c.ID),
				Value:  session.EncodeReading(p.opts.Initial),
				Flags:  bluetooth.CharacteristicReadPermission,
			},
		},
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("ble add service: %w", err)
	}

	p.adv = p.adapter.DefaultAdvertisement()
	if err := p.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    p.opts.LocalName,
		ServiceUUIDs: []bluetooth.UUID{serviceUUID},
	}); err != nil {
		return fmt.Errorf("ble configure advertisement: %w", err)
	}
	if err := p.adv.Start(); err != nil {
		return fmt.Errorf("ble start advertisement: %w", err)
	}

	p.mu.Lock()
	p.active = true
	p.mu.Unlock()

	log.Info("ble: advertising",
		"name", p.opts.LocalName,
		"service", c.Service.String(),
		"characteristic", c.ID.String(),
	)
	return nil
}

func (p *Peripheral) stage(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.char.Write(payload); err != nil {
		return fmt.Errorf("write characteristic: %w", err)
	}
	return nil
}

// Stop halts advertising. Safe to call when Start never succeeded.
func (p *Peripheral) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.active = false
	if err := p.adv.Stop(); err != nil {
		p.opts.Logger.Warn("ble: stop advertisement failed", "error", err)
		return
	}
	p.opts.Logger.Info("ble: advertising stopped")
}
