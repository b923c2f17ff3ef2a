// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display holds the output side of the logger: a numeric readout and
// an 8x8 dot matrix used as a bar chart.
package display

import (
	"image"
	"strings"
)

// DecimalPosition is the digit followed by the decimal point on the readout.
const DecimalPosition = 2

// GridSize is the side of the dot matrix.
const GridSize = 8

// Numeric is the numeric readout.
type Numeric interface {
	// RenderNumeric shows text, a zero-padded reading such as "100.0". The
	// '.' characters are dropped and the decimal point is lit after digit
	// position decimal.
	RenderNumeric(text string, decimal int) error
	// ClearNumeric resets the digit buffer. The panel keeps the last frame
	// until the next RenderNumeric.
	ClearNumeric() error
}

// Matrix is the dot matrix. Every call replaces the previous frame.
type Matrix interface {
	RenderBars(points []image.Point) error
}

// Display combines both outputs.
type Display interface {
	Numeric
	Matrix
}

type pair struct {
	Numeric
	Matrix
}

// Combine joins a readout and a matrix living on separate devices.
func Combine(n Numeric, m Matrix) Display {
	return pair{Numeric: n, Matrix: m}
}

// Digits strips the decimal points out of text.
func Digits(text string) string {
	return strings.ReplaceAll(text, ".", "")
}

// Readout is the string a reader sees on a readout showing text with the
// point after digit decimal: Readout("100.0", 2) == "100.0",
// Readout("005.3", 2) == "005.3".
func Readout(text string, decimal int) string {
	d := Digits(text)
	if decimal < 0 || decimal >= len(d)-1 {
		return d
	}
	return d[:decimal+1] + "." + d[decimal+1:]
}

// inGrid reports whether p is on the matrix.
func inGrid(p image.Point) bool {
	return p.X >= 0 && p.X < GridSize && p.Y >= 0 && p.Y < GridSize
}
