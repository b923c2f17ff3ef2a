// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import "fmt"

// Mode is the controller state. Exactly one is active at a time.
type Mode int

const (
	Live Mode = iota
	Paused
	Calibrating
)

func (m Mode) String() string {
	switch m {
	case Live:
		return "live"
	case Paused:
		return "paused"
	case Calibrating:
		return "calibrating"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MaxRate is the slowest update rate in seconds; the rate button wraps past it.
const MaxRate = 8

// NextRate returns the rate after one press of the rate button.
func NextRate(t int) int {
	return t%MaxRate + 1
}
