package readprogress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAnalytics struct {
	mu       sync.Mutex
	progress []int
	views    []string
	err      error
	block    bool
	ctxErrs  []error
}

func (f *fakeAnalytics) RecordReadProgress(ctx context.Context, slug string, percent int) error {
	f.mu.Lock()
	f.progress = append(f.progress, percent)
	block, err := f.block, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		f.mu.Lock()
		f.ctxErrs = append(f.ctxErrs, ctx.Err())
		f.mu.Unlock()
		return ctx.Err()
	}
	return err
}

func (f *fakeAnalytics) RecordView(_ context.Context, slug, referrer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, slug+"|"+referrer)
	return nil
}

func (f *fakeAnalytics) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.progress...)
}

func (f *fakeAnalytics) viewCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.views...)
}

func at(percent int) Viewport {
	// 1000px of content, window shows percent of it from the top.
	return Viewport{ContentTop: 0, ContentBottom: 1000, ContentHeight: 1000, WindowHeight: float64(percent * 10)}
}

func flush(t *testing.T, r *Reporter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Flush(ctx))
}

func TestReporterReportsThresholdsOnce(t *testing.T) {
	fa := &fakeAnalytics{}
	feed := NewFeed()
	r, err := NewReporter("hello-world", fa, Options{})
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background(), feed))
	defer r.Unmount()

	for _, p := range []int{10, 30, 5, 30, 60, 40, 100, 100, 0} {
		feed.Emit(at(p))
	}
	flush(t, r)

	assert.ElementsMatch(t, []int{25, 50, 75, 100}, fa.calls())
}

func TestReporterFailureDoesNotRollBack(t *testing.T) {
	fa := &fakeAnalytics{err: errors.New("boom")}
	feed := NewFeed()

	var mu sync.Mutex
	var reports []Report
	r, err := NewReporter("post", fa, Options{OnReport: func(_ context.Context, rep Report) {
		mu.Lock()
		reports = append(reports, rep)
		mu.Unlock()
	}})
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background(), feed))
	defer r.Unmount()

	feed.Emit(at(30))
	flush(t, r)
	feed.Emit(at(30))
	flush(t, r)

	assert.Equal(t, []int{25}, fa.calls())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reports, 1)
	assert.Equal(t, KindReadProgress, reports[0].Kind)
	assert.Equal(t, 25, reports[0].Percent)
	assert.Equal(t, "post", reports[0].Slug)
	assert.NotEmpty(t, reports[0].ViewID)
	assert.EqualError(t, reports[0].Err, "boom")
}

func TestReporterUnmountStopsReporting(t *testing.T) {
	fa := &fakeAnalytics{}
	feed := NewFeed()
	r, err := NewReporter("post", fa, Options{})
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background(), feed))
	assert.Equal(t, 1, feed.Listeners())

	feed.Emit(at(30))
	flush(t, r)
	r.Unmount()

	assert.Zero(t, feed.Listeners())
	assert.Empty(t, r.ViewID())
	feed.Emit(at(100))
	assert.Equal(t, []int{25}, fa.calls())

	assert.ErrorIs(t, r.Flush(context.Background()), ErrNotMounted)
	r.Unmount()
}

func TestReporterUnmountCancelsInflight(t *testing.T) {
	fa := &fakeAnalytics{block: true}
	feed := NewFeed()
	r, err := NewReporter("post", fa, Options{Timeout: time.Minute})
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background(), feed))

	feed.Emit(at(30))
	require.Eventually(t, func() bool { return len(fa.calls()) == 1 }, 2*time.Second, 5*time.Millisecond)

	r.Unmount()

	fa.mu.Lock()
	defer fa.mu.Unlock()
	require.Len(t, fa.ctxErrs, 1)
	assert.ErrorIs(t, fa.ctxErrs[0], context.Canceled)
}

func TestReporterTimeoutBoundsReport(t *testing.T) {
	fa := &fakeAnalytics{block: true}
	feed := NewFeed()
	r, err := NewReporter("post", fa, Options{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background(), feed))
	defer r.Unmount()

	feed.Emit(at(30))
	flush(t, r)

	fa.mu.Lock()
	defer fa.mu.Unlock()
	require.Len(t, fa.ctxErrs, 1)
	assert.ErrorIs(t, fa.ctxErrs[0], context.DeadlineExceeded)
}

func TestReporterMountsAreIndependent(t *testing.T) {
	fa := &fakeAnalytics{}
	feed := NewFeed()

	a, err := NewReporter("post", fa, Options{})
	require.NoError(t, err)
	b, err := NewReporter("post", fa, Options{})
	require.NoError(t, err)
	require.NoError(t, a.Mount(context.Background(), feed))
	defer a.Unmount()
	require.NoError(t, b.Mount(context.Background(), feed))
	defer b.Unmount()
	assert.NotEqual(t, a.ViewID(), b.ViewID())

	feed.Emit(at(30))
	flush(t, a)
	flush(t, b)

	assert.Equal(t, []int{25, 25}, fa.calls())
}

func TestReporterRemountStartsFreshView(t *testing.T) {
	fa := &fakeAnalytics{}
	feed := NewFeed()
	r, err := NewReporter("post", fa, Options{})
	require.NoError(t, err)

	require.NoError(t, r.Mount(context.Background(), feed))
	first := r.ViewID()
	assert.ErrorIs(t, r.Mount(context.Background(), feed), ErrMounted)
	feed.Emit(at(30))
	flush(t, r)
	r.Unmount()

	require.NoError(t, r.Mount(context.Background(), feed))
	assert.NotEqual(t, first, r.ViewID())
	feed.Emit(at(30))
	flush(t, r)
	r.Unmount()

	assert.Equal(t, []int{25, 25}, fa.calls())
}

func TestReporterParentCancelStopsLoop(t *testing.T) {
	fa := &fakeAnalytics{}
	feed := NewFeed()
	r, err := NewReporter("post", fa, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Mount(ctx, feed))
	cancel()
	feed.Emit(at(100))
	r.Unmount()

	assert.Empty(t, fa.calls())
	assert.Zero(t, feed.Listeners())
}

func TestViewRecordsPageViewOncePerMount(t *testing.T) {
	fa := &fakeAnalytics{}
	feed := NewFeed()
	r, err := NewView("post", fa, Options{Referrer: "https://news.example"})
	require.NoError(t, err)

	require.NoError(t, r.Mount(context.Background(), feed))
	feed.Emit(at(30))
	feed.Emit(at(60))
	flush(t, r)
	r.Unmount()

	assert.Equal(t, []string{"post|https://news.example"}, fa.viewCalls())
	assert.ElementsMatch(t, []int{25, 50}, fa.calls())
}

func TestNewReporterValidates(t *testing.T) {
	_, err := NewReporter(" ", &fakeAnalytics{}, Options{})
	assert.Error(t, err)
	_, err = NewReporter("post", nil, Options{})
	assert.Error(t, err)
	_, err = NewView("post", nil, Options{})
	assert.Error(t, err)

	r, err := NewReporter("post", &fakeAnalytics{}, Options{})
	require.NoError(t, err)
	assert.Error(t, r.Mount(context.Background(), nil))
}
