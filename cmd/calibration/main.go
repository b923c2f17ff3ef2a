// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// One-shot scale calibration for the ultrasonic sensor. Takes the same
// 10-sample batch as the calibrate button, with the buzzer on, and prints a
// SCALE_DEFAULT line ready to paste into range_logger_config.txt.
//
// Run:
//
//	sudo ./calibration --report-dir ./calibration
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/range_logger/internal/app"
	"github.com/relabs-tech/range_logger/internal/config"
)

var (
	flagConfig    string
	flagReportDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "calibration",
		Short: "Measure the scale factor (alpha) of the range logger",
		Long: `Calibration averages ten echo measurements taken against the reference
target and reports the result as a SCALE_DEFAULT value.

Requires access to the GPIO pins (run with sudo on the Raspberry Pi).`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&flagConfig, "config", "range_logger_config.txt", "Path to configuration file")
	rootCmd.Flags().StringVar(&flagReportDir, "report-dir", "", "Directory for the JSON calibration report (none when empty)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := config.InitGlobal(flagConfig); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", flagConfig, err)
	}
	if flagReportDir != "" {
		if err := os.MkdirAll(flagReportDir, 0o755); err != nil {
			return err
		}
	}
	return app.RunCalibration(cmd.InOrStdin(), cmd.OutOrStdout(), flagReportDir)
}
