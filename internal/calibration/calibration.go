// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration derives the scale factor (alpha) from a short batch of
// echo measurements taken against the reference target.
//
// The result is coarse: no outlier rejection and no error bound. Re-run it
// whenever the reading looks off.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/relabs-tech/range_logger/internal/ranging"
)

const (
	// Samples is the batch size averaged into alpha.
	Samples = 10
	// Interval is the settle delay after each sample.
	Interval = 500 * time.Millisecond
)

// ErrInvalidScaleFactor is returned when the batch mean is not positive.
var ErrInvalidScaleFactor = errors.New("calibration: scale factor must be positive")

// Buzzer is the audible feedback line held high while calibrating.
type Buzzer interface {
	Set(on bool) error
}

// Calibrator averages Samples measurements into a new alpha.
type Calibrator struct {
	src     ranging.Source
	buzzer  Buzzer
	timeout time.Duration

	// Sleep waits between samples. Defaults to a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnSample, when set, sees every accepted sample (1-based index).
	OnSample func(i int, m ranging.Measurement)
}

// New returns a Calibrator reading from src. buzzer may be nil.
// timeout bounds each echo wait.
func New(src ranging.Source, buzzer Buzzer, timeout time.Duration) *Calibrator {
	return &Calibrator{
		src:     src,
		buzzer:  buzzer,
		timeout: timeout,
		Sleep:   SleepContext,
	}
}

// Calibrate takes Samples measurements, Interval apart, and returns their
// mean. The buzzer is on for the whole run. On any error the caller must keep
// its previous alpha.
func (c *Calibrator) Calibrate(ctx context.Context) (alpha float64, err error) {
	log.Println("calibration: started")

	if err := c.setBuzzer(true); err != nil {
		return 0, err
	}
	defer func() {
		if berr := c.setBuzzer(false); berr != nil && err == nil {
			err = berr
		}
	}()

	var sum float64
	for i := 0; i < Samples; i++ {
		m, err := c.src.Measure(c.timeout)
		if err != nil {
			return 0, fmt.Errorf("calibration: sample %d/%d: %w", i+1, Samples, err)
		}
		log.Printf("calibration: sample %d/%d: %.7fs", i+1, Samples, m.Seconds())
		sum += m.Seconds()
		if c.OnSample != nil {
			c.OnSample(i+1, m)
		}

		if err := c.Sleep(ctx, Interval); err != nil {
			return 0, fmt.Errorf("calibration: %w", err)
		}
	}

	mean := sum / Samples
	if !(mean > 0) || math.IsInf(mean, 0) {
		return 0, fmt.Errorf("%w (mean %v)", ErrInvalidScaleFactor, mean)
	}

	log.Printf("calibration: finished, alpha = %.7f", mean)
	return mean, nil
}

func (c *Calibrator) setBuzzer(on bool) error {
	if c.buzzer == nil {
		return nil
	}
	if err := c.buzzer.Set(on); err != nil {
		return fmt.Errorf("calibration: buzzer: %w", err)
	}
	return nil
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
