package readprogress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/blogmind-client/internal/logger"
)

// DefaultTimeout bounds each report when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

const eventBuffer = 64

var (
	ErrMounted    = errors.New("reporter already mounted")
	ErrNotMounted = errors.New("reporter not mounted")
)

// Notifier receives one call per newly crossed threshold.
type Notifier interface {
	RecordReadProgress(ctx context.Context, slug string, percent int) error
}

// ViewRecorder records a page view.
type ViewRecorder interface {
	RecordView(ctx context.Context, slug, referrer string) error
}

// ReportKind distinguishes view reports from read-progress reports.
type ReportKind string

const (
	KindView         ReportKind = "view"
	KindReadProgress ReportKind = "read_progress"
)

// Report describes one finished notification attempt.
type Report struct {
	Kind     ReportKind
	ViewID   string
	Slug     string
	Percent  int
	Referrer string
	At       time.Time
	Err      error
}

type Options struct {
	// Timeout bounds each notification; zero means DefaultTimeout.
	Timeout time.Duration
	Log     logger.Logger
	// Views, when set, records one page view per mount.
	Views    ViewRecorder
	Referrer string
	// OnReport observes every attempt after it finishes, successful or not.
	// It runs on the notification goroutine with a fresh bounded context.
	OnReport func(ctx context.Context, r Report)
}

// Reporter tracks one post. Each Mount is a page view with its own
// threshold set; Unmount ends it.
type Reporter struct {
	slug     string
	notifier Notifier
	opts     Options
	log      logger.Logger
	now      func() time.Time

	mu   sync.Mutex
	view *pageView
}

type sample struct {
	vp    Viewport
	flush chan []chan struct{}
}

type pageView struct {
	id       string
	ctx      context.Context
	cancel   context.CancelFunc
	stop     func()
	events   chan sample
	loopDone chan struct{}
	tracker  *Tracker
	// pending is owned by the loop until loopDone is closed.
	pending []chan struct{}
}

// NewReporter builds a reporter for the post identified by slug.
func NewReporter(slug string, n Notifier, opts Options) (*Reporter, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("slug must not be empty")
	}
	if n == nil {
		return nil, fmt.Errorf("notifier must not be nil")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Reporter{
		slug:     slug,
		notifier: n,
		opts:     opts,
		log:      logger.Ensure(opts.Log),
		now:      time.Now,
	}, nil
}

// Analytics is what NewView needs from the API.
type Analytics interface {
	Notifier
	ViewRecorder
}

// NewView builds a reporter that also records one page view per mount.
func NewView(slug string, a Analytics, opts Options) (*Reporter, error) {
	if a == nil {
		return nil, fmt.Errorf("analytics must not be nil")
	}
	opts.Views = a
	return NewReporter(slug, a, opts)
}

// Mount starts a page view: it registers one callback on src and starts the
// event loop. Reports are bound to ctx as well as to the mount.
func (r *Reporter) Mount(ctx context.Context, src ScrollSource) error {
	if src == nil {
		return fmt.Errorf("scroll source must not be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view != nil {
		return ErrMounted
	}

	v := &pageView{
		id:       uuid.NewString(),
		events:   make(chan sample, eventBuffer),
		loopDone: make(chan struct{}),
		tracker:  NewTracker(),
	}
	v.ctx, v.cancel = context.WithCancel(ctx)

	if r.opts.Views != nil {
		v.pending = append(v.pending, r.spawn(v, func(ctx context.Context) Report {
			err := r.opts.Views.RecordView(ctx, r.slug, r.opts.Referrer)
			return Report{Kind: KindView, Referrer: r.opts.Referrer, Err: err}
		}))
	}

	v.stop = src.OnScroll(func(vp Viewport) {
		if v.ctx.Err() != nil {
			return
		}
		select {
		case v.events <- sample{vp: vp}:
		case <-v.ctx.Done():
		}
	})

	go r.loop(v)
	r.view = v

	r.log.DebugObj("read progress mounted", "read_progress", map[string]any{
		"slug":    r.slug,
		"view_id": v.id,
	})
	return nil
}

// Unmount deregisters the scroll callback, stops the loop, cancels
// in-flight reports and waits for them. It is a no-op when not mounted.
func (r *Reporter) Unmount() {
	r.mu.Lock()
	v := r.view
	r.view = nil
	r.mu.Unlock()
	if v == nil {
		return
	}

	v.stop()
	v.cancel()
	<-v.loopDone
	for _, done := range v.pending {
		<-done
	}

	r.log.DebugObj("read progress unmounted", "read_progress", map[string]any{
		"slug":     r.slug,
		"view_id":  v.id,
		"reported": v.tracker.Reported(),
		"last":     v.tracker.Last(),
		"complete": v.tracker.Done(),
	})
}

// Flush waits until every sample delivered so far has been processed and
// the reports it started have finished.
func (r *Reporter) Flush(ctx context.Context) error {
	r.mu.Lock()
	v := r.view
	r.mu.Unlock()
	if v == nil {
		return ErrNotMounted
	}

	reply := make(chan []chan struct{}, 1)
	select {
	case v.events <- sample{flush: reply}:
	case <-v.loopDone:
		return ErrNotMounted
	case <-ctx.Done():
		return ctx.Err()
	}

	var pending []chan struct{}
	select {
	case pending = <-reply:
	case <-v.loopDone:
		return ErrNotMounted
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// ViewID is the id of the current page view, or "" when not mounted.
func (r *Reporter) ViewID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view == nil {
		return ""
	}
	return r.view.id
}

func (r *Reporter) loop(v *pageView) {
	defer close(v.loopDone)
	for {
		select {
		case <-v.ctx.Done():
			return
		case s := <-v.events:
			if v.ctx.Err() != nil {
				return
			}
			v.pending = prune(v.pending)
			if s.flush != nil {
				s.flush <- append([]chan struct{}(nil), v.pending...)
				continue
			}
			for _, th := range v.tracker.Observe(s.vp) {
				percent := th
				v.pending = append(v.pending, r.spawn(v, func(ctx context.Context) Report {
					err := r.notifier.RecordReadProgress(ctx, r.slug, percent)
					return Report{Kind: KindReadProgress, Percent: percent, Err: err}
				}))
			}
		}
	}
}

// spawn runs one bounded notification without blocking the caller.
func (r *Reporter) spawn(v *pageView, send func(ctx context.Context) Report) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(v.ctx, r.opts.Timeout)
		rep := send(ctx)
		cancel()

		rep.ViewID = v.id
		rep.Slug = r.slug
		rep.At = r.now().UTC()
		if rep.Err != nil {
			r.log.WarnObj("analytics report failed", "read_progress", map[string]any{
				"kind":    string(rep.Kind),
				"slug":    r.slug,
				"view_id": v.id,
				"percent": rep.Percent,
				"error":   rep.Err.Error(),
			})
		}

		if r.opts.OnReport != nil {
			octx, ocancel := context.WithTimeout(v.ctx, r.opts.Timeout)
			r.opts.OnReport(octx, rep)
			ocancel()
		}
	}()
	return done
}

// prune drops finished entries.
func prune(pending []chan struct{}) []chan struct{} {
	out := pending[:0]
	for _, done := range pending {
		select {
		case <-done:
		default:
			out = append(out, done)
		}
	}
	return out
}
