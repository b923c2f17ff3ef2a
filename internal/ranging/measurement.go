// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ranging

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultAlpha is the factory scale factor: the echo pulse width, in seconds,
// that reads as 100%.
const DefaultAlpha = 0.0097937

// ErrTimeout is returned when the echo line never changes level within the
// allowed time.
var ErrTimeout = errors.New("ranging: echo timeout")

// Measurement is one echo pulse width in seconds. It is proportional to the
// distance to the target.
type Measurement float64

// Seconds returns the pulse width as a float.
func (m Measurement) Seconds() float64 { return float64(m) }

// Duration returns the pulse width as a time.Duration.
func (m Measurement) Duration() time.Duration {
	return time.Duration(float64(m) * float64(time.Second))
}

// Source produces echo measurements. HCSR04 reads the real sensor and
// NewMockSource feeds the console demo.
type Source interface {
	// Measure returns one reading or an error wrapping ErrTimeout if the echo
	// does not arrive within timeout.
	Measure(timeout time.Duration) (Measurement, error)
}

// Percent scales m by alpha: alpha maps to 100.
func Percent(m Measurement, alpha float64) float64 {
	return float64(m) * (100.0 / alpha)
}

// FormatPercent renders m as the numeric display shows it: the percentage
// rounded to one decimal, left padded with zeros to five characters.
//
//	FormatPercent(0.0097937, 0.0097937) == "100.0"
//	FormatPercent(0.00049, 0.0097937)   == "005.0"
func FormatPercent(m Measurement, alpha float64) string {
	return zeroFill(strconv.FormatFloat(Percent(m, alpha), 'f', 1, 64), 5)
}

// BarHeight is the matrix row count for m: 7 * m / alpha rounded half to even.
// It is not clamped; values above 7 fall outside the matrix.
func BarHeight(m Measurement, alpha float64) int {
	return int(math.RoundToEven(7 * (float64(m) / alpha)))
}

// zeroFill pads s on the left with zeros up to width, keeping a leading sign
// in front of the padding.
func zeroFill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := strings.Repeat("0", width-len(s))
	if s[0] == '-' || s[0] == '+' {
		return s[:1] + pad + s[1:]
	}
	return pad + s
}
