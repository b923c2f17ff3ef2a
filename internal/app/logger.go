// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/host/v3"

	"github.com/relabs-tech/range_logger/internal/calibration"
	"github.com/relabs-tech/range_logger/internal/config"
	"github.com/relabs-tech/range_logger/internal/input"
	"github.com/relabs-tech/range_logger/internal/ranging"
	"github.com/relabs-tech/range_logger/internal/session"
)

// StoppedMessage is printed when the user interrupts the logger.
const StoppedMessage = "Program has been stopped by User"

// buttonPins maps the configured pin names to buttons.
func buttonPins(cfg *config.Config) map[input.Button]string {
	return map[input.Button]string{
		input.Rate:      cfg.ButtonRatePin,
		input.Pause:     cfg.ButtonPausePin,
		input.Navigate:  cfg.ButtonNavigatePin,
		input.Calibrate: cfg.ButtonCalibratePin,
	}
}

func sessionOptions(cfg *config.Config) session.Options {
	return session.Options{
		Alpha:       cfg.ScaleDefault,
		Rate:        cfg.UpdateRate,
		EchoTimeout: time.Duration(cfg.EchoTimeoutMS) * time.Millisecond,
		Debounce:    time.Duration(cfg.ButtonDebounceMS) * time.Millisecond,
	}
}

// RunLogger drives the data logger on the real board until SIGINT or SIGTERM.
func RunLogger() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	b := &board{}
	defer b.Close()

	sensor, err := ranging.OpenHCSR04(cfg.TrigPin, cfg.EchoPin)
	if err != nil {
		return fmt.Errorf("failed to open ranging sensor: %w", err)
	}
	b.onClose("ranging sensor", sensor.Halt)
	log.Printf("logger: HC-SR04 on trig=%s echo=%s", cfg.TrigPin, cfg.EchoPin)

	buzzer, err := input.OpenBuzzer(cfg.BuzzerPin)
	if err != nil {
		return fmt.Errorf("failed to open buzzer: %w", err)
	}
	b.onClose("buzzer", buzzer.Halt)

	buttons, err := input.OpenGPIO(buttonPins(cfg))
	if err != nil {
		return fmt.Errorf("failed to open buttons: %w", err)
	}
	b.onClose("buttons", buttons.Close)

	disp, err := openDisplay(cfg, b)
	if err != nil {
		return err
	}

	opts := sessionOptions(cfg)
	cal := calibration.New(sensor, buzzer, opts.EchoTimeout)
	ctrl, err := session.New(sensor, disp, buttons, cal, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Run(ctx); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(StoppedMessage)
	return nil
}
