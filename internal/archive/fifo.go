// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package archive holds the bounded histories of the logger: the measurement
// archive reviewed while paused and the rolling window behind the live bar chart.
package archive

// fifo is an insertion-ordered buffer that evicts its oldest element once it
// holds more than capacity values.
type fifo[T any] struct {
	buf      []T
	capacity int
}

func newFIFO[T any](capacity int) fifo[T] {
	if capacity <= 0 {
		panic("archive: capacity must be positive")
	}
	return fifo[T]{buf: make([]T, 0, capacity+1), capacity: capacity}
}

// push appends v and evicts the oldest value if the bound is exceeded.
func (f *fifo[T]) push(v T) {
	f.buf = append(f.buf, v)
	if len(f.buf) > f.capacity {
		copy(f.buf, f.buf[1:])
		f.buf = f.buf[:f.capacity]
	}
}

func (f *fifo[T]) len() int { return len(f.buf) }

// values returns a copy, oldest first.
func (f *fifo[T]) values() []T {
	out := make([]T, len(f.buf))
	copy(out, f.buf)
	return out
}
