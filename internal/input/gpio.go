// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package input

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// edgePoll bounds each WaitForEdge so watchers notice Close.
const edgePoll = 100 * time.Millisecond

// GPIO reads buttons wired between a pin and ground with the internal
// pull-up enabled, so pressed reads Low.
type GPIO struct {
	pins   map[Button]gpio.PinIO
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGPIO configures every pin as a pulled-up input.
func NewGPIO(pins map[Button]gpio.PinIO) (*GPIO, error) {
	for b, p := range pins {
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("input: %s button on %s: %w", b, p, err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &GPIO{pins: pins, ctx: ctx, cancel: cancel}, nil
}

// OpenGPIO looks the pins up by name. Every button needs a pin.
// host.Init must have been called.
func OpenGPIO(names map[Button]string) (*GPIO, error) {
	pins := make(map[Button]gpio.PinIO, len(Buttons))
	for _, b := range Buttons {
		name := names[b]
		if name == "" {
			return nil, fmt.Errorf("input: no pin configured for %s button", b)
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("input: %s button pin %q not found", b, name)
		}
		pins[b] = p
	}
	return NewGPIO(pins)
}

// Pressed implements Input.
func (g *GPIO) Pressed(b Button) bool {
	p, ok := g.pins[b]
	if !ok {
		return false
	}
	return p.Read() == gpio.Low
}

// OnEdge implements Input. edge is in button terms: FallingEdge is the press.
func (g *GPIO) OnEdge(b Button, edge gpio.Edge, debounce time.Duration, handler func(Button)) error {
	p, ok := g.pins[b]
	if !ok {
		return fmt.Errorf("input: no pin for %s button", b)
	}
	if handler == nil {
		return errors.New("input: nil handler")
	}
	if err := p.In(gpio.PullUp, edge); err != nil {
		return fmt.Errorf("input: %s button edge detection on %s: %w", b, p, err)
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		var last time.Time
		for {
			select {
			case <-g.ctx.Done():
				return
			default:
			}
			if !p.WaitForEdge(edgePoll) {
				continue
			}
			now := time.Now()
			if !last.IsZero() && now.Sub(last) < debounce {
				continue
			}
			if !matches(edge, p.Read() == gpio.Low) {
				continue
			}
			last = now
			handler(b)
		}
	}()
	log.Printf("input: watching %s button on %s (%s, debounce %s)", b, p, edge, debounce)
	return nil
}

// Close stops the edge watchers and disables edge detection.
func (g *GPIO) Close() error {
	g.cancel()
	g.wg.Wait()
	var errs []error
	for b, p := range g.pins {
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("input: release %s button: %w", b, err))
		}
	}
	return errors.Join(errs...)
}
