// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/range_logger/internal/ranging"
)

// Display backends accepted by DISPLAY_BACKEND.
const (
	BackendSegment  = "segment"  // HT16K33 seven-segment + MAX7219 matrix
	BackendOLED     = "oled"     // single SSD1306 showing both
	BackendTerminal = "terminal" // lipgloss rendering on stdout
)

// Config holds all application configuration values.
type Config struct {
	// Scaling
	ScaleDefault float64 // initial alpha, seconds of echo for 100%
	UpdateRate   int     // initial update rate t (1-8)

	// Ranging sensor
	EchoPin       string
	TrigPin       string
	EchoTimeoutMS int

	// Buttons (pull-up, active low)
	ButtonRatePin      string
	ButtonNavigatePin  string
	ButtonCalibratePin string
	ButtonPausePin     string
	ButtonDebounceMS   int

	// Buzzer
	BuzzerPin string

	// Display
	DisplayBackend string

	SegmentI2CBus     string
	SegmentI2CAddr    uint16
	SegmentBrightness byte

	MatrixSPIDevice        string
	MatrixIntensity        byte
	MatrixBlockOrientation int // 0 or 90, as the matrix is mounted

	OLEDI2CBus string
}

// Package-level state for the singleton:
//   - globalConfig is only set by InitGlobal and read through Get.
//   - configOnce makes InitGlobal idempotent.
//   - configMu guards globalConfig for concurrent readers.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns the configuration matching the reference board wiring.
func Defaults() *Config {
	return &Config{
		ScaleDefault: ranging.DefaultAlpha,
		UpdateRate:   1,

		EchoPin:       "GPIO12",
		TrigPin:       "GPIO16",
		EchoTimeoutMS: 100,

		ButtonRatePin:      "GPIO26",
		ButtonNavigatePin:  "GPIO19",
		ButtonCalibratePin: "GPIO13",
		ButtonPausePin:     "GPIO25",
		ButtonDebounceMS:   200,

		BuzzerPin: "GPIO18",

		DisplayBackend: BackendSegment,

		SegmentI2CBus:     "",
		SegmentI2CAddr:    0x70,
		SegmentBrightness: 15,

		MatrixSPIDevice:        "/dev/spidev0.1",
		MatrixIntensity:        4,
		MatrixBlockOrientation: 90,

		OLEDI2CBus: "",
	}
}

// Load reads the configuration file and returns a Config struct.
// Keys missing from the file keep their default value.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Scaling
	case "SCALE_DEFAULT":
		alpha, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SCALE_DEFAULT %q: %w", value, err)
		}
		c.ScaleDefault = alpha
	case "UPDATE_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid UPDATE_RATE %q: %w", value, err)
		}
		c.UpdateRate = rate

	// Ranging sensor
	case "ECHO_PIN":
		c.EchoPin = value
	case "TRIG_PIN":
		c.TrigPin = value
	case "ECHO_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ECHO_TIMEOUT_MS %q: %w", value, err)
		}
		c.EchoTimeoutMS = ms

	// Buttons
	case "BUTTON_RATE_PIN":
		c.ButtonRatePin = value
	case "BUTTON_NAVIGATE_PIN":
		c.ButtonNavigatePin = value
	case "BUTTON_CALIBRATE_PIN":
		c.ButtonCalibratePin = value
	case "BUTTON_PAUSE_PIN":
		c.ButtonPausePin = value
	case "BUTTON_DEBOUNCE_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BUTTON_DEBOUNCE_MS %q: %w", value, err)
		}
		c.ButtonDebounceMS = ms

	case "BUZZER_PIN":
		c.BuzzerPin = value

	// Display
	case "DISPLAY_BACKEND":
		c.DisplayBackend = strings.ToLower(value)
	case "SEGMENT_I2C_BUS":
		c.SegmentI2CBus = value
	case "SEGMENT_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid SEGMENT_I2C_ADDR %q: %w", value, err)
		}
		c.SegmentI2CAddr = uint16(addr)
	case "SEGMENT_BRIGHTNESS":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SEGMENT_BRIGHTNESS %q: %w", value, err)
		}
		if val < 0 || val > 15 {
			return fmt.Errorf("SEGMENT_BRIGHTNESS must be 0-15, got %d", val)
		}
		c.SegmentBrightness = byte(val)
	case "MATRIX_SPI_DEVICE":
		c.MatrixSPIDevice = value
	case "MATRIX_INTENSITY":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MATRIX_INTENSITY %q: %w", value, err)
		}
		if val < 0 || val > 15 {
			return fmt.Errorf("MATRIX_INTENSITY must be 0-15, got %d", val)
		}
		c.MatrixIntensity = byte(val)
	case "MATRIX_BLOCK_ORIENTATION":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MATRIX_BLOCK_ORIENTATION %q: %w", value, err)
		}
		if val != 0 && val != 90 {
			return fmt.Errorf("MATRIX_BLOCK_ORIENTATION must be 0 or 90, got %d", val)
		}
		c.MatrixBlockOrientation = val
	case "OLED_I2C_BUS":
		c.OLEDI2CBus = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks ranges and required fields.
func (c *Config) validate() error {
	if !(c.ScaleDefault > 0) {
		return fmt.Errorf("SCALE_DEFAULT must be positive, got %v", c.ScaleDefault)
	}
	if c.UpdateRate < 1 || c.UpdateRate > 8 {
		return fmt.Errorf("UPDATE_RATE must be 1-8, got %d", c.UpdateRate)
	}
	if c.EchoTimeoutMS <= 0 {
		return fmt.Errorf("ECHO_TIMEOUT_MS must be positive, got %d", c.EchoTimeoutMS)
	}
	if c.ButtonDebounceMS < 0 {
		return fmt.Errorf("BUTTON_DEBOUNCE_MS must not be negative, got %d", c.ButtonDebounceMS)
	}
	if c.EchoPin == "" || c.TrigPin == "" {
		return errors.New("ECHO_PIN and TRIG_PIN are required")
	}
	switch c.DisplayBackend {
	case BackendSegment, BackendOLED, BackendTerminal:
	default:
		return fmt.Errorf("DISPLAY_BACKEND must be %q, %q or %q, got %q",
			BackendSegment, BackendOLED, BackendTerminal, c.DisplayBackend)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// A missing file is not an error: the defaults are used instead.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("config: %s not found, using defaults", configPath)
			globalConfig, err = Defaults(), nil
		}
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
