// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package input

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Buzzer is an active buzzer on a plain output pin.
type Buzzer struct {
	pin gpio.PinOut
}

// NewBuzzer drives pin low.
func NewBuzzer(pin gpio.PinOut) (*Buzzer, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("buzzer %s: %w", pin, err)
	}
	return &Buzzer{pin: pin}, nil
}

// OpenBuzzer looks the pin up by name.
func OpenBuzzer(name string) (*Buzzer, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("buzzer pin %q not found", name)
	}
	return NewBuzzer(p)
}

// Set drives the buzzer line High when on.
func (b *Buzzer) Set(on bool) error {
	l := gpio.Low
	if on {
		l = gpio.High
	}
	if err := b.pin.Out(l); err != nil {
		return fmt.Errorf("buzzer %s: %w", b.pin, err)
	}
	return nil
}

// Halt silences the buzzer.
func (b *Buzzer) Halt() error {
	return b.Set(false)
}
