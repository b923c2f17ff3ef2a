// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// MAX7219 registers
const (
	maxRegDecodeMode  = 0x09
	maxRegIntensity   = 0x0A
	maxRegScanLimit   = 0x0B
	maxRegShutdown    = 0x0C
	maxRegDisplayTest = 0x0F
)

// LEDMatrix drives a single 8x8 MAX7219 module.
type LEDMatrix struct {
	conn        spi.Conn
	orientation int
}

// NewLEDMatrix connects to port and initializes the module. orientation is 0
// or 90 depending on how the module is mounted.
func NewLEDMatrix(port spi.Port, intensity byte, orientation int) (*LEDMatrix, error) {
	c, err := port.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("max7219: connect %s: %w", port, err)
	}
	m := &LEDMatrix{conn: c, orientation: orientation}

	setup := [][2]byte{
		{maxRegScanLimit, 7},
		{maxRegDecodeMode, 0},
		{maxRegDisplayTest, 0},
		{maxRegIntensity, intensity & 0x0F},
		{maxRegShutdown, 1},
	}
	for _, r := range setup {
		if err := m.write(r[0], r[1]); err != nil {
			return nil, err
		}
	}
	if err := m.RenderBars(nil); err != nil {
		return nil, err
	}
	return m, nil
}

// RenderBars lights exactly the given points. Points off the grid are ignored.
func (m *LEDMatrix) RenderBars(points []image.Point) error {
	rows := rasterize(points, m.orientation)
	for i, row := range rows {
		if err := m.write(byte(i+1), row); err != nil {
			return err
		}
	}
	return nil
}

// Halt blanks the matrix and puts the chip in shutdown.
func (m *LEDMatrix) Halt() error {
	if err := m.RenderBars(nil); err != nil {
		return err
	}
	return m.write(maxRegShutdown, 0)
}

func (m *LEDMatrix) write(reg, val byte) error {
	if err := m.conn.Tx([]byte{reg, val}, nil); err != nil {
		return fmt.Errorf("max7219: register 0x%02X: %w", reg, err)
	}
	return nil
}

// rasterize turns points into the eight digit-register bytes. With
// orientation 0 a row register holds y and x=0 is the MSB; with 90 the module
// is turned a quarter so the register holds x and y=0 is the LSB.
func rasterize(points []image.Point, orientation int) [GridSize]byte {
	var rows [GridSize]byte
	for _, p := range points {
		if !inGrid(p) {
			continue
		}
		if orientation == 90 {
			rows[p.X] |= 1 << uint(p.Y)
		} else {
			rows[p.Y] |= 0x80 >> uint(p.X)
		}
	}
	return rows
}
