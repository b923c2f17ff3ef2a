// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package archive

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/range_logger/internal/ranging"
)

// Capacity is the number of measurements kept for review.
const Capacity = 100

// ErrIndex is matched by every IndexError.
var ErrIndex = errors.New("archive: index out of range")

// IndexError reports a request for history that was never recorded or
// was already evicted.
type IndexError struct {
	Offset int // offset from the most recent entry
	Len    int // entries available
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("archive: offset %d from end out of range (len %d)", e.Offset, e.Len)
}

// Is makes errors.Is(err, ErrIndex) true.
func (e *IndexError) Is(target error) bool { return target == ErrIndex }

// Archive is the fixed-capacity measurement history, oldest first.
// It is not safe for concurrent use; the session controller owns it.
type Archive struct {
	f fifo[ranging.Measurement]
}

// New returns an empty archive holding up to Capacity measurements.
func New() *Archive {
	return &Archive{f: newFIFO[ranging.Measurement](Capacity)}
}

// Append stores m, evicting the oldest measurement when full, and returns the
// new length. The length saturates at Capacity.
func (a *Archive) Append(m ranging.Measurement) int {
	a.f.push(m)
	return a.f.len()
}

// Len returns the number of stored measurements.
func (a *Archive) Len() int { return a.f.len() }

// Get returns the measurement offsetFromEnd positions before the most recent
// one; Get(0) is the latest.
func (a *Archive) Get(offsetFromEnd int) (ranging.Measurement, error) {
	n := a.f.len()
	if offsetFromEnd < 0 || offsetFromEnd >= n {
		return 0, &IndexError{Offset: offsetFromEnd, Len: n}
	}
	return a.f.buf[n-1-offsetFromEnd], nil
}

// Values returns a copy of the archive, oldest first.
func (a *Archive) Values() []ranging.Measurement { return a.f.values() }
