// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorLED    = lipgloss.Color("#FF3300")
	colorDimLED = lipgloss.Color("#441100")
	colorBorder = lipgloss.Color("#AA2200")

	styleReadout = lipgloss.NewStyle().
			Foreground(colorLED).
			Bold(true).
			Padding(0, 1)

	styleDotOn = lipgloss.NewStyle().
			Foreground(colorLED).
			Bold(true)

	styleDotOff = lipgloss.NewStyle().
			Foreground(colorDimLED)

	stylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)
)

// Terminal draws the readout and matrix side by side on a text terminal.
type Terminal struct {
	mu          sync.Mutex
	w           io.Writer
	clearScreen bool
	text        string
	points      []image.Point
}

// NewTerminal writes frames to w. With clearScreen every frame is drawn in
// place at the top of the terminal.
func NewTerminal(w io.Writer, clearScreen bool) *Terminal {
	return &Terminal{w: w, clearScreen: clearScreen}
}

// RenderNumeric redraws with text as the readout.
func (t *Terminal) RenderNumeric(text string, decimal int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = Readout(text, decimal)
	return t.draw()
}

// ClearNumeric is a no-op: the readout stays until the next RenderNumeric.
func (t *Terminal) ClearNumeric() error { return nil }

// RenderBars redraws with points on the matrix.
func (t *Terminal) RenderBars(points []image.Point) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.points = append(t.points[:0], points...)
	return t.draw()
}

func (t *Terminal) draw() error {
	frame := t.Frame()
	if t.clearScreen {
		frame = "\x1b[H\x1b[2J" + frame
	}
	_, err := fmt.Fprintln(t.w, frame)
	return err
}

// Frame renders the current state without writing it.
func (t *Terminal) Frame() string {
	readout := t.text
	if readout == "" {
		readout = "  .  "
	}
	left := stylePanel.Render(styleReadout.Render(readout + " %"))
	right := stylePanel.Render(renderGrid(t.points))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func renderGrid(points []image.Point) string {
	var lit [GridSize][GridSize]bool
	for _, p := range points {
		if inGrid(p) {
			lit[p.Y][p.X] = true
		}
	}
	var b strings.Builder
	for y := 0; y < GridSize; y++ {
		for x := 0; x < GridSize; x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			if lit[y][x] {
				b.WriteString(styleDotOn.Render("●"))
			} else {
				b.WriteString(styleDotOff.Render("·"))
			}
		}
		if y < GridSize-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
