// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/relabs-tech/range_logger/internal/calibration"
	"github.com/relabs-tech/range_logger/internal/config"
	"github.com/relabs-tech/range_logger/internal/display"
	"github.com/relabs-tech/range_logger/internal/input"
	"github.com/relabs-tech/range_logger/internal/ranging"
	"github.com/relabs-tech/range_logger/internal/session"
)

// navigatePulse is how long the n key holds the navigate button: long enough
// for a paused cycle to see it, shorter than one navigation step.
const navigatePulse = 500 * time.Millisecond

// RunConsole runs the logger against the mock sensor, drawing on the
// terminal. Buttons are typed on stdin followed by ENTER.
func RunConsole() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := ranging.NewMockSource(cfg.ScaleDefault)
	keys := input.NewVirtual()
	opts := sessionOptions(cfg)

	ctrl, err := session.New(src, display.NewTerminal(os.Stdout, true), keys, calibration.New(src, nil, opts.EchoTimeout), opts)
	if err != nil {
		return err
	}

	log.Println("console: r=rate p=pause n=navigate c=calibrate q=quit, then ENTER")
	go readKeys(os.Stdin, keys, stop)

	if err := ctrl.Run(ctx); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(StoppedMessage)
	return nil
}

// readKeys feeds typed lines to v until EOF or a quit key.
func readKeys(r io.Reader, v *input.Virtual, quit func()) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if applyKeys(v, sc.Text()) {
			quit()
			return
		}
	}
}

// applyKeys presses the buttons named in line and reports whether q was typed.
func applyKeys(v *input.Virtual, line string) (quit bool) {
	for _, k := range strings.ToLower(strings.TrimSpace(line)) {
		switch k {
		case 'r':
			v.Tap(input.Rate)
		case 'c':
			v.Tap(input.Calibrate)
		case 'p':
			v.Toggle(input.Pause)
		case 'n':
			v.Pulse(input.Navigate, navigatePulse)
		case 'q':
			return true
		}
	}
	return false
}
