// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ranging

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// triggerPulse is the HC-SR04 trigger width.
const triggerPulse = 10 * time.Microsecond

// HCSR04 drives an ultrasonic ranging module through a trigger and an echo pin.
type HCSR04 struct {
	trig gpio.PinOut
	echo gpio.PinIn
}

// NewHCSR04 configures the pins and leaves the trigger low.
func NewHCSR04(trig gpio.PinOut, echo gpio.PinIn) (*HCSR04, error) {
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("hcsr04: trigger %s: %w", trig, err)
	}
	if err := echo.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("hcsr04: echo %s: %w", echo, err)
	}
	return &HCSR04{trig: trig, echo: echo}, nil
}

// OpenHCSR04 looks the pins up by name (e.g. "GPIO16") in the periph registry.
// host.Init must have been called.
func OpenHCSR04(trigName, echoName string) (*HCSR04, error) {
	trig := gpioreg.ByName(trigName)
	if trig == nil {
		return nil, fmt.Errorf("hcsr04: trigger pin %q not found", trigName)
	}
	echo := gpioreg.ByName(echoName)
	if echo == nil {
		return nil, fmt.Errorf("hcsr04: echo pin %q not found", echoName)
	}
	return NewHCSR04(trig, echo)
}

// Measure fires one trigger pulse and times the echo pulse by polling the
// echo line. Each of the two edge waits is bounded by timeout.
func (s *HCSR04) Measure(timeout time.Duration) (Measurement, error) {
	if err := s.trig.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("hcsr04: trigger high: %w", err)
	}
	time.Sleep(triggerPulse)
	if err := s.trig.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("hcsr04: trigger low: %w", err)
	}

	rise := time.Now()
	deadline := rise.Add(timeout)
	for s.echo.Read() == gpio.Low {
		rise = time.Now()
		if rise.After(deadline) {
			return 0, fmt.Errorf("%w waiting for rising edge on %s", ErrTimeout, s.echo)
		}
	}

	fall := rise
	deadline = rise.Add(timeout)
	for s.echo.Read() == gpio.High {
		fall = time.Now()
		if fall.After(deadline) {
			return 0, fmt.Errorf("%w waiting for falling edge on %s", ErrTimeout, s.echo)
		}
	}

	return Measurement(fall.Sub(rise).Seconds()), nil
}

// Halt leaves the trigger low.
func (s *HCSR04) Halt() error {
	return s.trig.Out(gpio.Low)
}
