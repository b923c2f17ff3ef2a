// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"periph.io/x/host/v3"

	"github.com/relabs-tech/range_logger/internal/calibration"
	"github.com/relabs-tech/range_logger/internal/config"
	"github.com/relabs-tech/range_logger/internal/input"
	"github.com/relabs-tech/range_logger/internal/ranging"
)

// CalibrationReport is the JSON record written by the calibration tool.
type CalibrationReport struct {
	SchemaVersion int       `json:"schema_version"`
	CalibrationAt string    `json:"calibration_at"` // RFC3339
	PreviousAlpha float64   `json:"previous_alpha"`
	Alpha         float64   `json:"alpha"`
	Samples       []float64 `json:"samples_sec"`
	StdDev        float64   `json:"stddev_sec"`
	Spread        float64   `json:"relative_spread"` // stddev / alpha
}

// newCalibrationReport summarizes one calibration run.
func newCalibrationReport(at time.Time, previous, alpha float64, samples []ranging.Measurement) CalibrationReport {
	r := CalibrationReport{
		SchemaVersion: 1,
		CalibrationAt: at.Format(time.RFC3339),
		PreviousAlpha: previous,
		Alpha:         alpha,
		Samples:       make([]float64, len(samples)),
	}
	var ss float64
	for i, m := range samples {
		r.Samples[i] = m.Seconds()
		d := m.Seconds() - alpha
		ss += d * d
	}
	if n := len(samples); n > 0 {
		r.StdDev = math.Sqrt(ss / float64(n))
	}
	if alpha > 0 {
		r.Spread = r.StdDev / alpha
	}
	return r
}

// writeCalibrationReport stores r as JSON in dir and returns the file path.
// The file name carries the UTC timestamp.
func writeCalibrationReport(dir string, at time.Time, r CalibrationReport) (string, error) {
	name := filepath.Join(dir, fmt.Sprintf("range_calibration_%s.json", at.UTC().Format("2006-01-02T15-04-05Z")))

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// RunCalibration runs one calibration against the configured sensor and
// prints the resulting SCALE_DEFAULT line. When reportDir is not empty a JSON
// report is written there too.
func RunCalibration(in io.Reader, out io.Writer, reportDir string) error {
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

	buzzer, err := input.OpenBuzzer(cfg.BuzzerPin)
	if err != nil {
		return fmt.Errorf("failed to open buzzer: %w", err)
	}
	b.onClose("buzzer", buzzer.Halt)

	fmt.Fprintln(out, "=== Scale calibration ===")
	fmt.Fprintf(out, "Place the reference target at full scale. %d samples will be taken, %s apart.\n",
		calibration.Samples, calibration.Interval)
	fmt.Fprint(out, "Press ENTER to start...")
	_, _ = bufio.NewReader(in).ReadString('\n')

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cal := calibration.New(sensor, buzzer, time.Duration(cfg.EchoTimeoutMS)*time.Millisecond)
	var samples []ranging.Measurement
	cal.OnSample = func(i int, m ranging.Measurement) {
		samples = append(samples, m)
		fmt.Fprintf(out, "  sample %2d/%d: %.7fs\n", i, calibration.Samples, m.Seconds())
	}

	alpha, err := cal.Calibrate(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	report := newCalibrationReport(now, cfg.ScaleDefault, alpha, samples)
	fmt.Fprintf(out, "\nalpha = %.7f (previous %.7f, spread %.1f%%)\n", alpha, cfg.ScaleDefault, report.Spread*100)
	fmt.Fprintf(out, "SCALE_DEFAULT=%.7f\n", alpha)

	if reportDir != "" {
		path, err := writeCalibrationReport(reportDir, now, report)
		if err != nil {
			return fmt.Errorf("failed to write calibration report: %w", err)
		}
		fmt.Fprintf(out, "Wrote: %s\n", path)
	}
	return nil
}
