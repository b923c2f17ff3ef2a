// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// HT16K33 commands
const (
	htOscillatorOn = 0x21
	htDisplayOn    = 0x81 // blink off
	htDisplayOff   = 0x80
	htBrightness   = 0xE0
)

// segment patterns for a common-cathode 7-segment digit, bit 7 is the point
var segmentDigits = map[rune]byte{
	'0': 0x3F, '1': 0x06, '2': 0x5B, '3': 0x4F, '4': 0x66,
	'5': 0x6D, '6': 0x7D, '7': 0x07, '8': 0x7F, '9': 0x6F,
	'-': 0x40, ' ': 0x00,
}

const segmentPoint = 0x80

// SevenSegment drives a 4-digit HT16K33 backpack. Display RAM position 2 is
// the colon, so digits 2 and 3 sit at positions 3 and 4.
type SevenSegment struct {
	dev *i2c.Dev
	buf [16]byte
}

// NewSevenSegment starts the oscillator, turns the display on and blanks it.
func NewSevenSegment(bus i2c.Bus, addr uint16, brightness byte) (*SevenSegment, error) {
	s := &SevenSegment{dev: &i2c.Dev{Bus: bus, Addr: addr}}
	for _, cmd := range []byte{htOscillatorOn, htDisplayOn, htBrightness | (brightness & 0x0F)} {
		if _, err := s.dev.Write([]byte{cmd}); err != nil {
			return nil, fmt.Errorf("ht16k33 0x%02X: command 0x%02X: %w", addr, cmd, err)
		}
	}
	if err := s.flush(); err != nil {
		return nil, err
	}
	return s, nil
}

// RenderNumeric writes text into the digit buffer and sends it.
func (s *SevenSegment) RenderNumeric(text string, decimal int) error {
	s.buf = encodeSegments(s.buf, text, decimal)
	return s.flush()
}

// ClearNumeric zeroes the digit buffer without sending it.
func (s *SevenSegment) ClearNumeric() error {
	s.buf = [16]byte{}
	return nil
}

// Halt blanks the digits and switches the display off.
func (s *SevenSegment) Halt() error {
	s.buf = [16]byte{}
	if err := s.flush(); err != nil {
		return err
	}
	if _, err := s.dev.Write([]byte{htDisplayOff}); err != nil {
		return fmt.Errorf("ht16k33: display off: %w", err)
	}
	return nil
}

func (s *SevenSegment) flush() error {
	frame := make([]byte, 0, len(s.buf)+1)
	frame = append(frame, 0x00)
	frame = append(frame, s.buf[:]...)
	if _, err := s.dev.Write(frame); err != nil {
		return fmt.Errorf("ht16k33: write display: %w", err)
	}
	return nil
}

// encodeSegments lays the digits of text over buf. Digits past the fourth are
// dropped.
func encodeSegments(buf [16]byte, text string, decimal int) [16]byte {
	pos := 0
	for _, ch := range text {
		if ch == '.' {
			continue
		}
		if pos < 4 {
			buf[ramIndex(pos)] = segmentDigits[ch]
		}
		pos++
	}
	if decimal >= 0 && decimal < 4 {
		buf[ramIndex(decimal)] |= segmentPoint
	}
	return buf
}

func ramIndex(digit int) int {
	if digit > 1 {
		digit++
	}
	return digit * 2
}
