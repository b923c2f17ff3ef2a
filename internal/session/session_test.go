package session

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/range_logger/internal/archive"
	"github.com/relabs-tech/range_logger/internal/calibration"
	"github.com/relabs-tech/range_logger/internal/input"
	"github.com/relabs-tech/range_logger/internal/ranging"
)

const alpha = 0.0097937

type recDisplay struct {
	numeric []string
	clears  int
	bars    [][]image.Point
	err     error
}

func (d *recDisplay) RenderNumeric(text string, _ int) error {
	if d.err != nil {
		return d.err
	}
	d.numeric = append(d.numeric, text)
	return nil
}

func (d *recDisplay) ClearNumeric() error {
	d.clears++
	return nil
}

func (d *recDisplay) RenderBars(points []image.Point) error {
	d.bars = append(d.bars, append([]image.Point(nil), points...))
	return nil
}

type seqSource struct {
	vals  []ranging.Measurement
	errs  map[int]error // keyed by 1-based call
	calls int
}

func (s *seqSource) Measure(time.Duration) (ranging.Measurement, error) {
	s.calls++
	if err := s.errs[s.calls]; err != nil {
		return 0, err
	}
	return s.vals[(s.calls-1)%len(s.vals)], nil
}

type fakeCalibrator struct {
	alpha  float64
	err    error
	calls  int
	during func() // runs inside Calibrate
}

func (f *fakeCalibrator) Calibrate(context.Context) (float64, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	return f.alpha, f.err
}

type harness struct {
	c     *Controller
	disp  *recDisplay
	src   *seqSource
	in    *input.Virtual
	cal   *fakeCalibrator
	slept []time.Duration
}

func newHarness(t *testing.T, vals ...ranging.Measurement) *harness {
	t.Helper()
	h := &harness{
		disp: &recDisplay{},
		src:  &seqSource{vals: vals},
		in:   input.NewVirtual(),
		cal:  &fakeCalibrator{},
	}
	c, err := New(h.src, h.disp, h.in, h.cal, Options{
		Alpha:       alpha,
		Rate:        1,
		EchoTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	c.Sleep = func(ctx context.Context, d time.Duration) error {
		h.slept = append(h.slept, d)
		return ctx.Err()
	}
	require.NoError(t, c.Subscribe())
	h.c = c
	return h
}

func (h *harness) steps(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, h.c.Step(context.Background()))
	}
}

func TestNextRateWraps(t *testing.T) {
	var seq []int
	r := 1
	for i := 0; i < 8; i++ {
		r = NextRate(r)
		seq = append(seq, r)
	}
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 1}, seq)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "live", Live.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "calibrating", Calibrating.String())
}

func TestNewValidates(t *testing.T) {
	src := &seqSource{vals: []ranging.Measurement{alpha}}
	disp := &recDisplay{}
	in := input.NewVirtual()
	cal := &fakeCalibrator{}

	_, err := New(nil, disp, in, cal, Options{Alpha: alpha, Rate: 1, EchoTimeout: time.Millisecond})
	assert.Error(t, err)
	_, err = New(src, disp, in, cal, Options{Alpha: 0, Rate: 1, EchoTimeout: time.Millisecond})
	assert.Error(t, err)
	_, err = New(src, disp, in, cal, Options{Alpha: alpha, Rate: 9, EchoTimeout: time.Millisecond})
	assert.Error(t, err)
	_, err = New(src, disp, in, cal, Options{Alpha: alpha, Rate: 1})
	assert.Error(t, err)
}

func TestLiveHeightsFollowMeasurements(t *testing.T) {
	vals := []ranging.Measurement{0.0098, 0.0097, 0.0099, 0.0050, 0.0, 0.0120, 0.0196, 0.0024, 0.0073, 0.0110, 0.0030, 0.0098}
	h := newHarness(t, vals...)
	var got []Sample
	h.c.OnSample = func(s Sample) { got = append(got, s) }

	h.steps(t, len(vals))

	require.Len(t, got, len(vals))
	for i, s := range got {
		want := int(math.RoundToEven(7 * float64(vals[i]) / alpha))
		assert.Equal(t, want, s.Height, "cycle %d", i)
		assert.Equal(t, i, s.Cycle)
		assert.Equal(t, i+1, s.Archived)
	}
	assert.Equal(t, "100.1", got[0].Readout)
	assert.Equal(t, "000.0", got[4].Readout)
	assert.Equal(t, len(vals), h.c.Cycle())
	assert.Equal(t, len(vals), h.disp.clears)
}

func TestLiveSleepsGrowingThenRate(t *testing.T) {
	h := newHarness(t, alpha)
	h.steps(t, 10)

	for i := 0; i < 8; i++ {
		assert.Equal(t, GrowingInterval, h.slept[i], "cycle %d", i)
	}
	assert.Equal(t, time.Second, h.slept[8])

	h.in.Tap(input.Rate)
	h.in.Tap(input.Rate)
	h.steps(t, 1)
	assert.Equal(t, 3, h.c.Rate())
	assert.Equal(t, 3*time.Second, h.slept[10])
}

func TestLiveBarPoints(t *testing.T) {
	// heights 1, 2, 3, ... 10
	var vals []ranging.Measurement
	for i := 1; i <= 10; i++ {
		vals = append(vals, ranging.Measurement(alpha*float64(i)/7))
	}
	h := newHarness(t, vals...)

	h.steps(t, 3)
	assert.Equal(t, []image.Point{{7, 4}, {6, 5}, {5, 6}}, h.disp.bars[2])

	h.steps(t, 5)
	require.Len(t, h.disp.bars[7], 8)
	assert.Equal(t, image.Point{7, -1}, h.disp.bars[7][0])
	assert.Equal(t, image.Point{0, 6}, h.disp.bars[7][7])

	// full window scrolls left to right, oldest first
	h.steps(t, 2)
	want := []image.Point{{0, 4}, {1, 3}, {2, 2}, {3, 1}, {4, 0}, {5, -1}, {6, -2}, {7, -3}}
	assert.Equal(t, want, h.disp.bars[9])
}

func TestRateButtonCycles(t *testing.T) {
	h := newHarness(t, alpha)
	var seq []int
	for i := 0; i < 8; i++ {
		h.in.Tap(input.Rate)
		h.steps(t, 1)
		seq = append(seq, h.c.Rate())
	}
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 1}, seq)
	assert.Equal(t, Live, h.c.Mode())
}

func TestSensorTimeoutSkipsCycle(t *testing.T) {
	h := newHarness(t, alpha)
	h.src.errs = map[int]error{2: ranging.ErrTimeout}

	h.steps(t, 3)
	assert.Equal(t, 2, h.c.Cycle())
	assert.Equal(t, 2, h.c.Archive().Len())
	assert.Len(t, h.disp.numeric, 2)
	assert.Contains(t, h.slept, RetryPause)
}

func TestSensorFailureIsFatal(t *testing.T) {
	h := newHarness(t, alpha)
	h.src.errs = map[int]error{1: errors.New("gpio gone")}

	err := h.c.Step(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle 0 (live): measure")
}

func TestDisplayErrorIsFatal(t *testing.T) {
	h := newHarness(t, alpha)
	h.disp.err = errors.New("i2c nack")

	err := h.c.Step(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render numeric")
	assert.Contains(t, err.Error(), "i2c nack")
}

func TestPauseNavigateResume(t *testing.T) {
	h := newHarness(t, alpha)
	h.steps(t, 10)
	measured := h.src.calls

	h.in.Hold(input.Pause)
	h.steps(t, 1)
	assert.Equal(t, Paused, h.c.Mode())
	assert.Equal(t, measured, h.src.calls)
	assert.Equal(t, IdlePoll, h.slept[len(h.slept)-1])

	h.in.Hold(input.Navigate)
	h.steps(t, 2)
	assert.Equal(t, NavigateDelay, h.slept[len(h.slept)-1])
	assert.Equal(t, 2, h.c.Navigator().Cursor())

	// 10 archived: the third step would need 11
	h.steps(t, 1)
	assert.Equal(t, 2, h.c.Navigator().Cursor())
	assert.Equal(t, Paused, h.c.Mode())

	h.in.Release(input.Navigate)
	h.in.Release(input.Pause)
	h.steps(t, 1)
	assert.Equal(t, Live, h.c.Mode())
	assert.Equal(t, 0, h.c.Navigator().Cursor())
	assert.Equal(t, measured+1, h.src.calls)
}

func TestCalibrationUpdatesAlpha(t *testing.T) {
	h := newHarness(t, alpha)
	h.cal.alpha = 0.02

	h.in.Tap(input.Calibrate)
	h.steps(t, 1)
	assert.Equal(t, 1, h.cal.calls)
	assert.InDelta(t, 0.02, h.c.Alpha(), 1e-15)
	assert.Equal(t, Live, h.c.Mode())
}

func TestCalibrationBlocksLiveReads(t *testing.T) {
	h := newHarness(t, alpha)
	h.steps(t, 2)
	before := h.src.calls

	var modeDuring Mode
	var readsDuring int
	h.cal.alpha = 0.02
	h.cal.during = func() {
		modeDuring = h.c.Mode()
		readsDuring = h.src.calls - before
	}

	h.in.Tap(input.Calibrate)
	h.steps(t, 1)
	require.Equal(t, 1, h.cal.calls)
	assert.Equal(t, Calibrating, modeDuring)
	assert.Zero(t, readsDuring)
	// the live cycle after calibration already uses the new alpha
	assert.Equal(t, before+1, h.src.calls)
	assert.Equal(t, Live, h.c.Mode())
}

func TestCalibrationWhilePausedRestoresMode(t *testing.T) {
	h := newHarness(t, alpha)
	h.in.Hold(input.Pause)
	h.steps(t, 1)

	h.cal.alpha = 0.01
	h.in.Tap(input.Calibrate)
	h.steps(t, 1)
	assert.Equal(t, Paused, h.c.Mode())
	assert.InDelta(t, 0.01, h.c.Alpha(), 1e-15)
}

func TestCalibrationFailureKeepsAlpha(t *testing.T) {
	for _, err := range []error{calibration.ErrInvalidScaleFactor, ranging.ErrTimeout} {
		h := newHarness(t, alpha)
		h.cal.err = err

		h.in.Tap(input.Calibrate)
		h.steps(t, 1)
		assert.Equal(t, alpha, h.c.Alpha())
		assert.Equal(t, Live, h.c.Mode())
	}

	h := newHarness(t, alpha)
	h.cal.err = errors.New("buzzer stuck")
	h.in.Tap(input.Calibrate)
	err := h.c.Step(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calibrate")
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, alpha)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	h.c.Sleep = func(ctx context.Context, _ time.Duration) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return ctx.Err()
	}

	require.NoError(t, h.c.Run(ctx))
	assert.Equal(t, 2, h.c.Cycle())
}

func TestRunReturnsCycleErrors(t *testing.T) {
	h := newHarness(t, alpha)
	h.disp.err = errors.New("spi closed")
	assert.Error(t, h.c.Run(context.Background()))
}

func newArchive(n int) *archive.Archive {
	a := archive.New()
	for i := 1; i <= n; i++ {
		a.Append(ranging.Measurement(alpha * float64(i%8) / 7))
	}
	return a
}

func TestNavigatorBounds(t *testing.T) {
	disp := &recDisplay{}
	nav := NewNavigator(newArchive(8), disp)
	_, err := nav.Navigate(alpha)
	require.ErrorIs(t, err, archive.ErrIndex)
	var ie *archive.IndexError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 8, ie.Len)
	assert.Equal(t, 0, nav.Cursor())
	assert.Empty(t, disp.bars)

	nav = NewNavigator(newArchive(9), disp)
	heights, err := nav.Navigate(alpha)
	require.NoError(t, err)
	// archived heights 1..7,0,1; newest first
	assert.Equal(t, []int{1, 0, 7, 6, 5, 4, 3, 2, 1}, heights)
	assert.Equal(t, 1, nav.Cursor())

	require.Len(t, disp.bars, 1)
	assert.Equal(t, image.Point{8, 6}, disp.bars[0][0])
	assert.Equal(t, image.Point{0, 6}, disp.bars[0][8])
	assert.Equal(t, []string{"014.3"}, disp.numeric)
	assert.Equal(t, 1, disp.clears)

	_, err = nav.Navigate(alpha)
	assert.ErrorIs(t, err, archive.ErrIndex)
	nav.Reset()
	assert.Equal(t, 0, nav.Cursor())
}

func TestNavigatorWalksBack(t *testing.T) {
	disp := &recDisplay{}
	nav := NewNavigator(newArchive(12), disp)
	first, err := nav.Navigate(alpha)
	require.NoError(t, err)
	second, err := nav.Navigate(alpha)
	require.NoError(t, err)
	assert.Equal(t, first[1:], second[:8])
}
