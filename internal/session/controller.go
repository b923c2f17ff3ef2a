// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session runs the measure, display and archive cycle and the
// live/paused/calibrating state machine around it.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/relabs-tech/range_logger/internal/archive"
	"github.com/relabs-tech/range_logger/internal/calibration"
	"github.com/relabs-tech/range_logger/internal/display"
	"github.com/relabs-tech/range_logger/internal/input"
	"github.com/relabs-tech/range_logger/internal/ranging"
)

const (
	// GrowingInterval is the cycle period until the bar window is full.
	GrowingInterval = time.Second
	// NavigateDelay is waited before each navigation step.
	NavigateDelay = time.Second
	// IdlePoll is the cycle period while paused with nothing pressed.
	IdlePoll = 50 * time.Millisecond
	// RetryPause follows a live cycle skipped on an echo timeout.
	RetryPause = 100 * time.Millisecond

	eventQueueSize = 16
)

// Calibrator measures a new scale factor.
type Calibrator interface {
	Calibrate(ctx context.Context) (float64, error)
}

// Sample describes one completed live cycle.
type Sample struct {
	Cycle       int
	Measurement ranging.Measurement
	Readout     string // zero-filled percentage as sent to the numeric display
	Height      int
	Archived    int
}

// Options are the controller start values.
type Options struct {
	Alpha       float64
	Rate        int
	EchoTimeout time.Duration
	Debounce    time.Duration
}

// Controller owns all session state. Button edges are queued by the input
// goroutines and applied by the cycle loop between cycles, so only Run's
// goroutine mutates state; the getters may be called from anywhere.
type Controller struct {
	src  ranging.Source
	disp display.Display
	in   input.Input
	cal  Calibrator
	opts Options

	mu    sync.RWMutex
	mode  Mode
	alpha float64
	rate  int

	archive *archive.Archive
	window  *archive.Window
	nav     *Navigator
	cycle   int
	events  chan input.Button

	// Sleep waits between cycles. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnSample, when set, is called after every live cycle is rendered.
	OnSample func(Sample)
}

// New creates a controller in Live mode.
func New(src ranging.Source, disp display.Display, in input.Input, cal Calibrator, opts Options) (*Controller, error) {
	if src == nil || disp == nil || in == nil || cal == nil {
		return nil, errors.New("session: source, display, input and calibrator are required")
	}
	if !(opts.Alpha > 0) {
		return nil, fmt.Errorf("session: alpha must be positive, got %v", opts.Alpha)
	}
	if opts.Rate < 1 || opts.Rate > MaxRate {
		return nil, fmt.Errorf("session: rate must be 1-%d, got %d", MaxRate, opts.Rate)
	}
	if opts.EchoTimeout <= 0 {
		return nil, fmt.Errorf("session: echo timeout must be positive, got %s", opts.EchoTimeout)
	}

	a := archive.New()
	return &Controller{
		src:     src,
		disp:    disp,
		in:      in,
		cal:     cal,
		opts:    opts,
		mode:    Live,
		alpha:   opts.Alpha,
		rate:    opts.Rate,
		archive: a,
		window:  archive.NewWindow(),
		nav:     NewNavigator(a, disp),
		events:  make(chan input.Button, eventQueueSize),
		Sleep:   calibration.SleepContext,
	}, nil
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Alpha returns the scale factor in use.
func (c *Controller) Alpha() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alpha
}

// Rate returns the full-window update rate in seconds.
func (c *Controller) Rate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}

// Cycle returns the number of completed live cycles.
func (c *Controller) Cycle() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cycle
}

// Archive exposes the measurement history. Only read it from Run's goroutine
// or after Run has returned.
func (c *Controller) Archive() *archive.Archive { return c.archive }

// Navigator exposes the paused-mode navigator.
func (c *Controller) Navigator() *Navigator { return c.nav }

func (c *Controller) setMode(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

// Subscribe registers the rate and calibrate edge handlers. Run calls it.
func (c *Controller) Subscribe() error {
	for _, b := range []input.Button{input.Rate, input.Calibrate} {
		if err := c.in.OnEdge(b, gpio.FallingEdge, c.opts.Debounce, c.enqueue); err != nil {
			return fmt.Errorf("session: subscribe %s: %w", b, err)
		}
	}
	return nil
}

// enqueue is the edge handler. It never blocks the input goroutine.
func (c *Controller) enqueue(b input.Button) {
	select {
	case c.events <- b:
	default:
		log.Printf("session: event queue full, dropping %s press", b)
	}
}

// Run subscribes to the buttons and cycles until ctx is cancelled, which is a
// clean stop. Any other error ends the loop.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Subscribe(); err != nil {
		return err
	}
	log.Printf("session: started (alpha %.7f, rate %ds)", c.Alpha(), c.Rate())

	for {
		if err := c.Step(ctx); err != nil {
			if ctx.Err() != nil {
				log.Printf("session: stopped after %d cycles", c.Cycle())
				return nil
			}
			return err
		}
	}
}

// Step applies queued button events and runs one paused or live cycle.
func (c *Controller) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.drainEvents(ctx); err != nil {
		return err
	}

	if c.in.Pressed(input.Pause) {
		return c.pausedCycle(ctx)
	}
	if c.Mode() == Paused {
		c.nav.Reset()
		c.setMode(Live)
		log.Println("session: resumed")
	}
	return c.liveCycle(ctx)
}

func (c *Controller) drainEvents(ctx context.Context) error {
	for {
		select {
		case b := <-c.events:
			switch b {
			case input.Rate:
				c.advanceRate()
			case input.Calibrate:
				if err := c.calibrate(ctx); err != nil {
					return err
				}
			}
		default:
			return nil
		}
	}
}

func (c *Controller) advanceRate() {
	c.mu.Lock()
	c.rate = NextRate(c.rate)
	rate := c.rate
	c.mu.Unlock()
	log.Printf("session: update rate = %d", rate)
}

// calibrate runs synchronously and then restores the previous mode. A failed
// calibration keeps the old alpha.
func (c *Controller) calibrate(ctx context.Context) error {
	prev := c.Mode()
	c.setMode(Calibrating)
	defer c.setMode(prev)

	alpha, err := c.cal.Calibrate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ranging.ErrTimeout) || errors.Is(err, calibration.ErrInvalidScaleFactor) {
			log.Printf("session: %v, keeping alpha %.7f", err, c.Alpha())
			return nil
		}
		return c.fail(Calibrating, "calibrate", err)
	}

	c.mu.Lock()
	c.alpha = alpha
	c.mu.Unlock()
	log.Printf("session: alpha %.7f", alpha)
	return nil
}

func (c *Controller) pausedCycle(ctx context.Context) error {
	if c.Mode() != Paused {
		c.nav.Reset()
		c.setMode(Paused)
		log.Printf("session: paused, %d readings archived", c.archive.Len())
	}

	if !c.in.Pressed(input.Navigate) {
		return c.Sleep(ctx, IdlePoll)
	}
	if err := c.Sleep(ctx, NavigateDelay); err != nil {
		return err
	}

	heights, err := c.nav.Navigate(c.Alpha())
	if errors.Is(err, archive.ErrIndex) {
		log.Printf("session: navigate: %v", err)
		return nil
	}
	if err != nil {
		return c.fail(Paused, "navigate", err)
	}
	log.Printf("session: navigate step %d, heights %v", c.nav.Cursor(), heights)
	return nil
}

func (c *Controller) liveCycle(ctx context.Context) error {
	m, err := c.src.Measure(c.opts.EchoTimeout)
	if errors.Is(err, ranging.ErrTimeout) {
		log.Printf("session: cycle %d (%s): %v, skipped", c.Cycle(), Live, err)
		return c.Sleep(ctx, RetryPause)
	}
	if err != nil {
		return c.fail(Live, "measure", err)
	}

	alpha := c.Alpha()
	readout := ranging.FormatPercent(m, alpha)
	if err := c.disp.RenderNumeric(readout, display.DecimalPosition); err != nil {
		return c.fail(Live, "render numeric", err)
	}

	height := ranging.BarHeight(m, alpha)
	archived := c.archive.Append(m)

	var (
		points []image.Point
		wait   time.Duration
	)
	if !c.window.Full() {
		// Growing: newest bar at x = 7, older ones to its left.
		c.window.Push(height)
		heights := c.window.Heights()
		newest := c.window.Len() - 1
		for i := 0; i <= newest; i++ {
			points = append(points, image.Pt(7-i, 7-heights[newest-i]))
		}
		wait = GrowingInterval
	} else {
		// Full: oldest bar at x = 0.
		c.window.Push(height)
		for i, h := range c.window.Heights() {
			points = append(points, image.Pt(i, 7-h))
		}
		wait = time.Duration(c.Rate()) * time.Second
	}
	if err := c.disp.RenderBars(points); err != nil {
		return c.fail(Live, "render bars", err)
	}

	cycle := c.Cycle()
	if c.OnSample != nil {
		c.OnSample(Sample{Cycle: cycle, Measurement: m, Readout: readout, Height: height, Archived: archived})
	}
	log.Printf("session: cycle %d: %s%% height %d", cycle, readout, height)
	log.Printf("session: archive len=%d latest=%s", archived, m.Duration())

	if err := c.Sleep(ctx, wait); err != nil {
		return err
	}
	if err := c.disp.ClearNumeric(); err != nil {
		return c.fail(Live, "clear numeric", err)
	}

	c.mu.Lock()
	c.cycle++
	c.mu.Unlock()
	return nil
}

func (c *Controller) fail(mode Mode, op string, err error) error {
	return fmt.Errorf("session: cycle %d (%s): %s: %w", c.Cycle(), mode, op, err)
}
