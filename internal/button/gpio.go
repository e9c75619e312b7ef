package button

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// InitHost loads the periph host drivers; call once before OpenGPIO.
func InitHost() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	return nil
}

// GPIO is an active-low switch on a pulled-up input pin.
type GPIO struct {
	pin gpio.PinIn
}

func OpenGPIO(name string) (*GPIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio %s input: %w", name, err)
	}
	return &GPIO{pin: p}, nil
}

func (g *GPIO) Pressed() bool {
	return g.pin.Read() == gpio.Low
}
