package readprogress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	cases := []struct {
		name string
		vp   Viewport
		want int
	}{
		{"unmeasured content", Viewport{ContentTop: 0, ContentBottom: 0, ContentHeight: 0, WindowHeight: 800}, 0},
		{"fully visible", Viewport{ContentTop: 100, ContentBottom: 500, ContentHeight: 400, WindowHeight: 800}, 100},
		{"top half visible", Viewport{ContentTop: 400, ContentBottom: 1200, ContentHeight: 800, WindowHeight: 800}, 50},
		{"scrolled past top", Viewport{ContentTop: -600, ContentBottom: 400, ContentHeight: 1000, WindowHeight: 800}, 40},
		{"below the fold", Viewport{ContentTop: 900, ContentBottom: 1900, ContentHeight: 1000, WindowHeight: 800}, 0},
		{"above the window", Viewport{ContentTop: -1200, ContentBottom: -200, ContentHeight: 1000, WindowHeight: 800}, 0},
		{"rounds", Viewport{ContentTop: 0, ContentBottom: 3000, ContentHeight: 3000, WindowHeight: 755}, 25},
		{"clamped", Viewport{ContentTop: -10, ContentBottom: 2000, ContentHeight: 500, WindowHeight: 800}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Percent(tc.vp))
		})
	}
}

func TestViewportAt(t *testing.T) {
	vp := ViewportAt(300, 200, 1000, 800)
	assert.Equal(t, Viewport{ContentTop: -100, ContentBottom: 900, ContentHeight: 1000, WindowHeight: 800}, vp)
	assert.Equal(t, 80, Percent(vp))
}

func TestTrackerReportsEachThresholdOnce(t *testing.T) {
	tr := NewTracker()

	assert.Equal(t, []int{25}, tr.ObservePercent(30))
	assert.Empty(t, tr.ObservePercent(10))
	assert.Empty(t, tr.ObservePercent(30))
	assert.Equal(t, []int{50}, tr.ObservePercent(55))
	assert.Equal(t, []int{75, 100}, tr.ObservePercent(100))
	assert.Empty(t, tr.ObservePercent(100))
	assert.Empty(t, tr.ObservePercent(0))

	assert.Equal(t, []int{25, 50, 75, 100}, tr.Reported())
	assert.True(t, tr.Done())
	assert.Equal(t, 0, tr.Last())
}

func TestTrackerJumpReportsAllCrossedAscending(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, []int{25, 50}, tr.ObservePercent(60))

	tr = NewTracker()
	assert.Equal(t, []int{25, 50, 75}, tr.ObservePercent(80))
	assert.False(t, tr.Done())
}

func TestTrackerZeroHeightReportsNothing(t *testing.T) {
	tr := NewTracker()
	assert.Empty(t, tr.Observe(Viewport{ContentTop: 0, ContentBottom: 0, ContentHeight: 0, WindowHeight: 800}))
	assert.Empty(t, tr.Reported())
}

func TestTrackerBoundaries(t *testing.T) {
	tr := NewTracker()
	assert.Empty(t, tr.ObservePercent(24))
	assert.Equal(t, []int{25}, tr.ObservePercent(25))
	assert.Empty(t, tr.ObservePercent(49))
	assert.Equal(t, []int{50}, tr.ObservePercent(50))
}

func TestFeedDeregisters(t *testing.T) {
	f := NewFeed()
	var got []int
	cancel := f.OnScroll(func(v Viewport) { got = append(got, Percent(v)) })
	assert.Equal(t, 1, f.Listeners())

	f.Emit(Viewport{ContentTop: 0, ContentBottom: 100, ContentHeight: 100, WindowHeight: 800})
	cancel()
	cancel()
	f.Emit(Viewport{ContentTop: 0, ContentBottom: 100, ContentHeight: 100, WindowHeight: 800})

	assert.Equal(t, []int{100}, got)
	assert.Zero(t, f.Listeners())
}
