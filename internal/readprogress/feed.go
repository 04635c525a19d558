package readprogress

import "sync"

// ScrollSource delivers scroll samples to registered callbacks.
// The returned cancel deregisters fn and must be safe to call more than once.
type ScrollSource interface {
	OnScroll(fn func(Viewport)) (cancel func())
}

// Feed is a ScrollSource driven by explicit Emit calls, e.g. a replayed
// scroll script.
type Feed struct {
	mu     sync.Mutex
	subs   map[int]func(Viewport)
	nextID int
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]func(Viewport))}
}

func (f *Feed) OnScroll(fn func(Viewport)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Emit delivers v to every registered callback.
func (f *Feed) Emit(v Viewport) {
	f.mu.Lock()
	fns := make([]func(Viewport), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Listeners is the number of registered callbacks.
func (f *Feed) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
