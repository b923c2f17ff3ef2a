// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ranging

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	alpha float64
}

// NewMockSource creates a mock ranging source that
// generates a target slowly moving between 20% and 80% of alpha.
func NewMockSource(alpha float64) Source {
	return &mockSource{start: time.Now(), alpha: alpha}
}

func (m *mockSource) Measure(time.Duration) (Measurement, error) {
	elapsed := time.Since(m.start).Seconds()
	return Measurement(m.alpha * (0.5 + 0.3*math.Sin(elapsed*0.4))), nil
}
