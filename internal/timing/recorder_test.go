package timing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRecorderScenario(t *testing.T) {
	clk := newFakeClock()
	r := New(WithClock(clk.now))
	clk.advance(2 * time.Millisecond)
	r.StartNext("load", "reading file")
	clk.advance(5 * time.Millisecond)
	r.StartNext("render", "")
	clk.advance(2 * time.Millisecond)

	require.Equal(t, `init;dur=2, load;desc="reading file";dur=5, render;dur=2`, r.Render())
	segs := r.Segments()
	require.Len(t, segs, 3)
	require.Equal(t, Segment{Name: "load", Description: "reading file", Duration: 5 * time.Millisecond}, segs[1])
}

func TestRenderIdempotent(t *testing.T) {
	clk := newFakeClock()
	r := New(WithClock(clk.now))
	clk.advance(1500 * time.Microsecond)
	first := r.Render()
	clk.advance(time.Second)
	require.Equal(t, first, r.Render())
	require.Equal(t, "init;dur=1.5", first)
}

func TestStopCurrentNoop(t *testing.T) {
	clk := newFakeClock()
	r := New(WithClock(clk.now))
	r.StopCurrent()
	before := r.Segments()
	clk.advance(time.Millisecond)
	r.StopCurrent()
	r.StopCurrent()
	require.Equal(t, before, r.Segments())
	require.Len(t, before, 1)
}

func TestStartNextClosesPrevious(t *testing.T) {
	clk := newFakeClock()
	r := New(WithClock(clk.now))
	r.StopCurrent()
	clk.advance(3 * time.Millisecond)
	// 间隔时间不计入任何分段
	r.StartNext("db", "")
	clk.advance(time.Millisecond)
	r.StartNext("tpl", "")
	segs := r.Segments()
	require.Len(t, segs, 2)
	require.Equal(t, time.Duration(0), segs[0].Duration)
	require.Equal(t, time.Millisecond, segs[1].Duration)
	require.Equal(t, "init;dur=0, db;dur=1, tpl;dur=0", r.Render())
}

func TestRenderFractionalAndEscaping(t *testing.T) {
	clk := newFakeClock()
	r := New(WithClock(clk.now), WithInitialPhase("boot"))
	clk.advance(500 * time.Microsecond)
	r.StartNext("q", `say "hi"`)
	clk.advance(1234567 * time.Nanosecond)
	r.StartNext("blank", `  "`)
	require.Equal(t, `boot;dur=0.5, q;desc="say \"hi\"";dur=1.234567, blank;desc="  \"";dur=0`, r.Render())
}

func TestFormatMillis(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "0",
		500 * time.Microsecond:  "0.5",
		time.Nanosecond:         "0.000001",
		2 * time.Millisecond:    "2",
		1250 * time.Millisecond: "1250",
	}
	for d, want := range cases {
		require.Equal(t, want, FormatMillis(d), d.String())
	}
}

func TestNilRecorderSafe(t *testing.T) {
	var r *Recorder
	r.StartNext("x", "")
	r.StopCurrent()
	require.Empty(t, r.Render())
	require.Nil(t, r.Segments())
}

func TestContextRoundTrip(t *testing.T) {
	r := New()
	ctx := NewContext(context.Background(), r)
	require.Same(t, r, FromContext(ctx))
	require.Nil(t, FromContext(context.Background()))
}
