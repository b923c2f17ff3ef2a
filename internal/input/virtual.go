// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package input

import (
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

type subscription struct {
	edge    gpio.Edge
	handler func(Button)
}

// Virtual is an Input driven from software: the console demo maps keys to
// it and tests script it. Debounce is not applied.
type Virtual struct {
	mu   sync.Mutex
	held map[Button]bool
	subs map[Button][]subscription
}

// NewVirtual returns a Virtual with every button released.
func NewVirtual() *Virtual {
	return &Virtual{
		held: make(map[Button]bool),
		subs: make(map[Button][]subscription),
	}
}

// Pressed implements Input.
func (v *Virtual) Pressed(b Button) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.held[b]
}

// OnEdge implements Input.
func (v *Virtual) OnEdge(b Button, edge gpio.Edge, _ time.Duration, handler func(Button)) error {
	if handler == nil {
		return errors.New("input: nil handler")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.subs[b] = append(v.subs[b], subscription{edge: edge, handler: handler})
	return nil
}

// Hold presses b and keeps it down.
func (v *Virtual) Hold(b Button) { v.set(b, true) }

// Release lets b go.
func (v *Virtual) Release(b Button) { v.set(b, false) }

// Toggle flips the level of b.
func (v *Virtual) Toggle(b Button) {
	v.set(b, !v.Pressed(b))
}

// Tap presses and releases b.
func (v *Virtual) Tap(b Button) {
	v.Hold(b)
	v.Release(b)
}

// Pulse holds b for d, then releases it in the background.
func (v *Virtual) Pulse(b Button, d time.Duration) {
	v.Hold(b)
	time.AfterFunc(d, func() { v.Release(b) })
}

func (v *Virtual) set(b Button, pressed bool) {
	v.mu.Lock()
	if v.held[b] == pressed {
		v.mu.Unlock()
		return
	}
	v.held[b] = pressed
	var fire []func(Button)
	for _, s := range v.subs[b] {
		if matches(s.edge, pressed) {
			fire = append(fire, s.handler)
		}
	}
	v.mu.Unlock()

	for _, h := range fire {
		h(b)
	}
}
