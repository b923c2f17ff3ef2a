// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package input exposes the four push buttons and the buzzer line.
package input

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Button identifies one of the four logical buttons.
type Button int

const (
	Rate      Button = iota // cycles the update rate
	Pause                   // held: pause and review the archive
	Navigate                // while paused: step back in the archive
	Calibrate               // runs a calibration
)

// Buttons lists every button.
var Buttons = []Button{Rate, Pause, Navigate, Calibrate}

func (b Button) String() string {
	switch b {
	case Rate:
		return "rate"
	case Pause:
		return "pause"
	case Navigate:
		return "navigate"
	case Calibrate:
		return "calibrate"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// Input is the button side of the board.
type Input interface {
	// Pressed samples the current level of b.
	Pressed(b Button) bool
	// OnEdge calls handler from another goroutine whenever b sees edge.
	// Edges closer than debounce to the previous accepted one are dropped.
	OnEdge(b Button, edge gpio.Edge, debounce time.Duration, handler func(Button)) error
}

// matches reports whether a transition to level satisfies edge.
func matches(edge gpio.Edge, pressed bool) bool {
	switch edge {
	case gpio.FallingEdge:
		return pressed
	case gpio.RisingEdge:
		return !pressed
	case gpio.BothEdges:
		return true
	default:
		return false
	}
}
