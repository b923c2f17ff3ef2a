package display

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

func TestReadout(t *testing.T) {
	assert.Equal(t, "100.0", Readout("100.0", DecimalPosition))
	assert.Equal(t, "005.3", Readout("005.3", DecimalPosition))
	assert.Equal(t, "102.11", Readout("1021.1", DecimalPosition))
	assert.Equal(t, "1000", Digits("100.0"))
}

func TestEncodeSegments(t *testing.T) {
	buf := encodeSegments([16]byte{}, "100.0", DecimalPosition)
	assert.Equal(t, byte(0x06), buf[0])      // 1
	assert.Equal(t, byte(0x3F), buf[2])      // 0
	assert.Equal(t, byte(0x00), buf[4])      // colon untouched
	assert.Equal(t, byte(0x3F|0x80), buf[6]) // 0.
	assert.Equal(t, byte(0x3F), buf[8])      // 0

	buf = encodeSegments([16]byte{}, "005.3", DecimalPosition)
	assert.Equal(t, byte(0x6D|0x80), buf[6])
	assert.Equal(t, byte(0x4F), buf[8])

	// fifth digit is dropped
	buf = encodeSegments([16]byte{}, "1021.1", DecimalPosition)
	assert.Equal(t, byte(0x06), buf[8])
	assert.Equal(t, byte(0), buf[10])
}

func TestSevenSegmentFrames(t *testing.T) {
	bus := &i2ctest.Record{}
	s, err := NewSevenSegment(bus, 0x70, 15)
	require.NoError(t, err)
	require.Len(t, bus.Ops, 4)
	assert.Equal(t, []byte{0x21}, bus.Ops[0].W)
	assert.Equal(t, []byte{0x81}, bus.Ops[1].W)
	assert.Equal(t, []byte{0xEF}, bus.Ops[2].W)
	assert.Equal(t, uint16(0x70), bus.Ops[3].Addr)

	require.NoError(t, s.RenderNumeric("100.0", DecimalPosition))
	last := bus.Ops[len(bus.Ops)-1].W
	require.Len(t, last, 17)
	assert.Equal(t, byte(0x00), last[0])
	assert.Equal(t, byte(0x06), last[1])
	assert.Equal(t, byte(0xBF), last[7])

	// clear only touches the buffer
	n := len(bus.Ops)
	require.NoError(t, s.ClearNumeric())
	assert.Len(t, bus.Ops, n)
	assert.Equal(t, [16]byte{}, s.buf)

	require.NoError(t, s.Halt())
	assert.Equal(t, []byte{0x80}, bus.Ops[len(bus.Ops)-1].W)
}

func TestRasterize(t *testing.T) {
	pts := []image.Point{{0, 7}, {7, 0}, {3, 4}, {8, 2}, {2, -1}}

	rows := rasterize(pts, 0)
	assert.Equal(t, byte(0x80), rows[7])
	assert.Equal(t, byte(0x01), rows[0])
	assert.Equal(t, byte(0x10), rows[4])

	rows = rasterize(pts, 90)
	assert.Equal(t, byte(0x80), rows[0])
	assert.Equal(t, byte(0x01), rows[7])
	assert.Equal(t, byte(0x10), rows[3])
}

func TestLEDMatrixFrames(t *testing.T) {
	port := &spitest.Record{}
	m, err := NewLEDMatrix(port, 4, 0)
	require.NoError(t, err)
	// 5 setup registers + 8 blank rows
	require.Len(t, port.Ops, 13)
	assert.Equal(t, []byte{maxRegShutdown, 1}, port.Ops[4].W)

	require.NoError(t, m.RenderBars([]image.Point{{0, 0}, {1, 0}, {7, 7}}))
	ops := port.Ops[13:]
	require.Len(t, ops, 8)
	assert.Equal(t, []byte{1, 0xC0}, ops[0].W)
	assert.Equal(t, []byte{8, 0x01}, ops[7].W)
	for i := 1; i < 7; i++ {
		assert.Equal(t, []byte{byte(i + 1), 0}, ops[i].W)
	}

	require.NoError(t, m.Halt())
	assert.Equal(t, []byte{maxRegShutdown, 0}, port.Ops[len(port.Ops)-1].W)
}

func TestTerminalFrame(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, false)

	require.NoError(t, term.RenderNumeric("050.0", DecimalPosition))
	assert.Contains(t, out.String(), "050.0 %")

	out.Reset()
	require.NoError(t, term.RenderBars([]image.Point{{0, 0}, {9, 9}}))
	frame := out.String()
	assert.Contains(t, frame, "050.0 %")
	assert.Contains(t, frame, "●")
	assert.Equal(t, 1, bytes.Count([]byte(frame), []byte("●")))

	require.NoError(t, term.ClearNumeric())
	require.NoError(t, term.RenderBars(nil))
	assert.Contains(t, term.Frame(), "050.0")
}

type fakePanel struct {
	frames []image.Image
	halted bool
}

func (f *fakePanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	f.frames = append(f.frames, src)
	return nil
}

func (f *fakePanel) Bounds() image.Rectangle { return image.Rect(0, 0, oledWidth, oledHeight) }

func (f *fakePanel) Halt() error {
	f.halted = true
	return nil
}

func TestOLEDFrame(t *testing.T) {
	panel := &fakePanel{}
	o := &OLED{dev: panel}

	require.NoError(t, o.RenderBars([]image.Point{{0, 7}}))
	require.Len(t, panel.frames, 1)
	img := panel.frames[0].(*image1bit.VerticalLSB)
	// centre of cell (0,7)
	assert.Equal(t, image1bit.On, img.At(gridLeft+cellPx/2, 7*cellPx+cellPx/2))
	// cell (1,7) is dark
	assert.Equal(t, image1bit.Off, img.At(gridLeft+cellPx+cellPx/2, 7*cellPx+cellPx/2))

	require.NoError(t, o.RenderNumeric("100.0", DecimalPosition))
	assert.Equal(t, "100.0", o.text)
	assert.Len(t, panel.frames, 2)

	require.NoError(t, o.Halt())
	assert.True(t, panel.halted)
}

func TestCombine(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, false)
	d := Combine(term, term)
	require.NoError(t, d.RenderNumeric("001.0", DecimalPosition))
	require.NoError(t, d.RenderBars(nil))
	require.NoError(t, d.ClearNumeric())
}
