// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package archive

// WindowSize is the number of columns on the live bar chart.
const WindowSize = 8

// Window is the rolling set of bar heights shown while live.
type Window struct {
	f fifo[int]
}

// NewWindow returns an empty window of WindowSize heights.
func NewWindow() *Window {
	return &Window{f: newFIFO[int](WindowSize)}
}

// Push appends a height, dropping the oldest once the window is full.
func (w *Window) Push(h int) { w.f.push(h) }

// Len returns the number of heights held.
func (w *Window) Len() int { return w.f.len() }

// Full reports whether the window holds WindowSize heights.
func (w *Window) Full() bool { return w.f.len() == WindowSize }

// Heights returns a copy of the heights, oldest first.
func (w *Window) Heights() []int { return w.f.values() }
