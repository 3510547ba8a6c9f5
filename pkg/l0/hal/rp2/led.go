//go:build rp2040

package rp2

import "machine"

// LED implements hal.LED on a GPIO.
type LED struct {
	pin machine.Pin
	on  bool
}

// NewLED configures pin as output, initially off.
func NewLED(pin machine.Pin) *LED {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &LED{pin: pin}
}

// Toggle implements hal.LED.
func (l *LED) Toggle() {
	l.on = !l.on
	l.pin.Set(l.on)
}
