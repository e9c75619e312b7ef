package ble

import (
	"testing"
)

func TestNewPeripheral_Defaults(t *testing.T) {
	p := NewPeripheral(Options{})

	if p.opts.Adapter != "hci0" {
		t.Errorf("Adapter = %q, want hci0", p.opts.Adapter)
	}
	if p.opts.LocalName != DefaultLocalName {
		t.Errorf("LocalName = %q, want %q", p.opts.LocalName, DefaultLocalName)
	}
}

func TestPeripheral_StopBeforeStart(t *testing.T) {
	p := NewPeripheral(Options{Adapter: "hci1"})
	p.Stop()
	if p.active {
		t.Error("active = true after Stop, want false")
	}
}
