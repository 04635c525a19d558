// Package readprogress turns scroll positions of a post view into
// read-progress reports at fixed thresholds, each sent at most once per
// page view.
package readprogress

import (
	"math"
	"sort"
)

// Thresholds are the reported read percentages, in ascending order.
var Thresholds = [...]int{25, 50, 75, 100}

// Viewport is one scroll sample of the tracked content element, in pixels
// relative to the top of the window.
type Viewport struct {
	ContentTop    float64
	ContentBottom float64
	ContentHeight float64
	WindowHeight  float64
}

// ViewportAt builds the sample for a page scrolled to scrollY, where the
// content starts offset pixels from the top of the document.
func ViewportAt(scrollY, offset, contentHeight, windowHeight float64) Viewport {
	top := offset - scrollY
	return Viewport{
		ContentTop:    top,
		ContentBottom: top + contentHeight,
		ContentHeight: contentHeight,
		WindowHeight:  windowHeight,
	}
}

// Percent returns the share of the content currently inside the window,
// rounded to an integer in 0..100. Unmeasured content (height <= 0) is 0.
func Percent(v Viewport) int {
	if v.ContentHeight <= 0 || math.IsNaN(v.ContentHeight) {
		return 0
	}
	visible := math.Min(v.ContentBottom, v.WindowHeight) - math.Max(v.ContentTop, 0)
	if visible <= 0 || math.IsNaN(visible) {
		return 0
	}
	p := math.Round(math.Min(visible/v.ContentHeight, 1) * 100)
	return int(p)
}

// Tracker remembers which thresholds a page view has already reported.
// It is not safe for concurrent use; a Reporter confines it to one goroutine.
type Tracker struct {
	reported map[int]struct{}
	last     int
}

func NewTracker() *Tracker {
	return &Tracker{reported: make(map[int]struct{}, len(Thresholds))}
}

// Observe records the sample and returns the thresholds it newly crossed,
// ascending.
func (t *Tracker) Observe(v Viewport) []int {
	return t.ObservePercent(Percent(v))
}

// ObservePercent is Observe for an already computed percentage.
func (t *Tracker) ObservePercent(percent int) []int {
	t.last = percent
	var crossed []int
	for _, th := range Thresholds {
		if percent < th {
			break
		}
		if _, ok := t.reported[th]; ok {
			continue
		}
		t.reported[th] = struct{}{}
		crossed = append(crossed, th)
	}
	return crossed
}

// Last is the most recently observed percentage.
func (t *Tracker) Last() int { return t.last }

// Reported lists the thresholds reported so far, ascending.
func (t *Tracker) Reported() []int {
	out := make([]int, 0, len(t.reported))
	for th := range t.reported {
		out = append(out, th)
	}
	sort.Ints(out)
	return out
}

// Done reports whether every threshold has been reported.
func (t *Tracker) Done() bool { return len(t.reported) == len(Thresholds) }
