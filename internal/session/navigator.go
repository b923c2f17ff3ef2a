// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"fmt"
	"image"

	"github.com/relabs-tech/range_logger/internal/archive"
	"github.com/relabs-tech/range_logger/internal/display"
	"github.com/relabs-tech/range_logger/internal/ranging"
)

// NavigateSpan is the number of archived readings shown per navigation step.
const NavigateSpan = 9

// Navigator walks the archive backward while the session is paused.
type Navigator struct {
	archive *archive.Archive
	disp    display.Display
	cursor  int
}

// NewNavigator returns a Navigator with its cursor at the latest reading.
func NewNavigator(a *archive.Archive, d display.Display) *Navigator {
	return &Navigator{archive: a, disp: d}
}

// Cursor is the offset from the most recent reading of the next step.
func (n *Navigator) Cursor() int { return n.cursor }

// Reset moves the cursor back to the latest reading.
func (n *Navigator) Reset() { n.cursor = 0 }

// Navigate renders the NavigateSpan readings ending Cursor entries before the
// latest one and moves the cursor one step further back. The returned heights
// are newest first. When the archive is too short the *archive.IndexError is
// returned as is and the cursor stays put.
func (n *Navigator) Navigate(alpha float64) ([]int, error) {
	need := NavigateSpan + n.cursor
	if n.archive.Len() < need {
		return nil, &archive.IndexError{Offset: need - 1, Len: n.archive.Len()}
	}

	heights := make([]int, NavigateSpan)
	points := make([]image.Point, NavigateSpan)
	for i := range heights {
		m, err := n.archive.Get(n.cursor + i)
		if err != nil {
			return nil, err
		}
		heights[i] = ranging.BarHeight(m, alpha)
		// x = 8 for the newest point falls off the grid and is dropped.
		points[i] = image.Pt(8-i, 7-heights[i])
	}

	latest, _ := n.archive.Get(n.cursor)
	if err := n.disp.RenderNumeric(ranging.FormatPercent(latest, alpha), display.DecimalPosition); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := n.disp.ClearNumeric(); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := n.disp.RenderBars(points); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	n.cursor++
	return heights, nil
}
