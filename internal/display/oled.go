// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// OLED geometry: readout on the left half, matrix on the right half.
const (
	oledWidth  = 128
	oledHeight = 64
	cellPx     = oledHeight / GridSize
	gridLeft   = oledWidth - GridSize*cellPx
)

// drawer is the part of *ssd1306.Dev the OLED needs.
type drawer interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Bounds() image.Rectangle
	Halt() error
}

// OLED shows both the readout and the matrix on one SSD1306 panel. It keeps
// the last text and points so either half can be redrawn alone.
type OLED struct {
	mu     sync.Mutex
	dev    drawer
	text   string
	points []image.Point
}

// NewOLED opens an SSD1306 at its default address on bus.
func NewOLED(bus i2c.Bus) (*OLED, error) {
	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("ssd1306: %w", err)
	}
	o := &OLED{dev: dev}
	if err := o.splash(); err != nil {
		return nil, err
	}
	return o, nil
}

// RenderNumeric redraws the panel with text as the readout.
func (o *OLED) RenderNumeric(text string, decimal int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.text = Readout(text, decimal)
	return o.redraw()
}

// ClearNumeric is a no-op: the readout stays until the next RenderNumeric,
// as it does on the seven-segment display.
func (o *OLED) ClearNumeric() error { return nil }

// RenderBars redraws the panel with points on the matrix half.
func (o *OLED) RenderBars(points []image.Point) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.points = append(o.points[:0], points...)
	return o.redraw()
}

// Halt blanks the panel.
func (o *OLED) Halt() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.text, o.points = "", nil
	if err := o.redraw(); err != nil {
		return err
	}
	return o.dev.Halt()
}

func (o *OLED) redraw() error {
	img := o.frame()
	if err := o.dev.Draw(o.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("ssd1306: draw: %w", err)
	}
	return nil
}

// frame builds the full image from the stored state.
func (o *OLED) frame() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))

	if o.text != "" {
		d := &font.Drawer{
			Dst:  img,
			Src:  &image.Uniform{image1bit.On},
			Face: basicfont.Face7x13,
		}
		d.Dot = fixed.P(4, 26)
		d.DrawBytes([]byte(o.text))
		d.Dot = fixed.P(4, 43)
		d.DrawBytes([]byte("%"))
	}

	for _, p := range o.points {
		if !inGrid(p) {
			continue
		}
		x0 := gridLeft + p.X*cellPx
		y0 := p.Y * cellPx
		for y := y0 + 1; y < y0+cellPx-1; y++ {
			for x := x0 + 1; x < x0+cellPx-1; x++ {
				img.Set(x, y, image1bit.On)
			}
		}
	}
	return img
}

func (o *OLED) splash() error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	d.Dot = fixed.P(10, 26)
	d.DrawBytes([]byte("Range Logger"))
	d.Dot = fixed.P(10, 43)
	d.DrawBytes([]byte("Starting..."))
	return o.dev.Draw(o.dev.Bounds(), img, image.Point{})
}
