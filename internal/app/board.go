// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/relabs-tech/range_logger/internal/config"
	"github.com/relabs-tech/range_logger/internal/display"
)

// board collects release functions for everything opened at startup.
type board struct {
	names   []string
	closers []func() error
}

func (b *board) onClose(name string, f func() error) {
	b.names = append(b.names, name)
	b.closers = append(b.closers, f)
}

// Close releases in reverse opening order. Errors are logged, not returned,
// so one stuck device does not keep the others powered.
func (b *board) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Printf("app: release %s: %v", b.names[i], err)
		}
	}
	b.names, b.closers = nil, nil
}

// openDisplay builds the backend selected by DISPLAY_BACKEND.
// host.Init must have been called for the hardware backends.
func openDisplay(cfg *config.Config, b *board) (display.Display, error) {
	switch cfg.DisplayBackend {
	case config.BackendSegment:
		bus, err := i2creg.Open(cfg.SegmentI2CBus)
		if err != nil {
			return nil, fmt.Errorf("failed to open I2C bus %q: %w", cfg.SegmentI2CBus, err)
		}
		b.onClose("seven-segment I2C bus", bus.Close)

		seg, err := display.NewSevenSegment(bus, cfg.SegmentI2CAddr, cfg.SegmentBrightness)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize seven-segment display: %w", err)
		}
		b.onClose("seven-segment display", seg.Halt)
		log.Printf("app: seven-segment display initialized at 0x%02X", cfg.SegmentI2CAddr)

		port, err := spireg.Open(cfg.MatrixSPIDevice)
		if err != nil {
			return nil, fmt.Errorf("failed to open SPI port %q: %w", cfg.MatrixSPIDevice, err)
		}
		b.onClose("matrix SPI port", port.Close)

		matrix, err := display.NewLEDMatrix(port, cfg.MatrixIntensity, cfg.MatrixBlockOrientation)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LED matrix: %w", err)
		}
		b.onClose("LED matrix", matrix.Halt)
		log.Printf("app: LED matrix initialized on %s", cfg.MatrixSPIDevice)

		return display.Combine(seg, matrix), nil

	case config.BackendOLED:
		bus, err := i2creg.Open(cfg.OLEDI2CBus)
		if err != nil {
			return nil, fmt.Errorf("failed to open I2C bus %q: %w", cfg.OLEDI2CBus, err)
		}
		b.onClose("OLED I2C bus", bus.Close)

		oled, err := display.NewOLED(bus)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OLED display: %w", err)
		}
		b.onClose("OLED display", oled.Halt)
		log.Println("app: OLED display initialized")
		return oled, nil

	case config.BackendTerminal:
		return display.NewTerminal(os.Stdout, true), nil
	}
	return nil, fmt.Errorf("unknown display backend %q", cfg.DisplayBackend)
}
