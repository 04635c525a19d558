package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/blogmind-client/internal/config"
	"github.com/samvad-hq/blogmind-client/internal/readprogress"
	"github.com/samvad-hq/blogmind-client/pkg/publishers"
)

func testConfig(apiURL, publishersFile string) *config.Config {
	return &config.Config{
		AppName:        "blogmind-client",
		APIBaseURL:     apiURL,
		APIPrefix:      "/api",
		RequestTimeout: 2 * time.Second,
		SessionStore:   "memory",
		SessionTTL:     time.Hour,
		PublishersFile: publishersFile,
		ReportTimeout:  2 * time.Second,
	}
}

func TestNewWithoutPublishers(t *testing.T) {
	a, err := New(context.Background(), testConfig("http://localhost:8000", ""), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Zero(t, a.Mirror().Size())
	assert.NotNil(t, a.API())
	assert.False(t, a.Session().Authenticated())
	assert.Equal(t, "http://localhost:8000", a.Config().APIBaseURL)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	assert.Error(t, err)

	cfg := testConfig("http://localhost:8000", "")
	cfg.SessionStore = "redis"
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = testConfig("http://localhost:8000", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestRootPrefixFromConfigReachesClient(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	t.Setenv("BLOGMIND_API_BASE_URL", srv.URL)
	t.Setenv("BLOGMIND_API_PREFIX", "/")
	t.Setenv("BLOGMIND_SESSION_STORE", "memory")
	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.API().Blogs.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/blogs/categories", path)
}

func TestReaderReportsAndMirrors(t *testing.T) {
	var mu sync.Mutex
	var apiCalls []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		apiCalls = append(apiCalls, r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer api.Close()

	events := make(chan publishers.Event, 8)
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err == nil {
			events <- evt
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer sink.Close()

	pubFile := filepath.Join(t.TempDir(), "publishers.yaml")
	raw := fmt.Sprintf("publishers:\n  - id: sink\n    type: http\n    http:\n      url: %s\n", sink.URL)
	require.NoError(t, os.WriteFile(pubFile, []byte(raw), 0o644))

	a, err := New(context.Background(), testConfig(api.URL, pubFile), nil)
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, 1, a.Mirror().Size())

	var seen []readprogress.Report
	var seenMu sync.Mutex
	reader, err := a.NewReader("hello-world", "https://ref.example", func(rep readprogress.Report) {
		seenMu.Lock()
		seen = append(seen, rep)
		seenMu.Unlock()
	})
	require.NoError(t, err)

	feed := readprogress.NewFeed()
	require.NoError(t, reader.Mount(context.Background(), feed))
	feed.Emit(readprogress.ViewportAt(0, 0, 1000, 600))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, reader.Flush(ctx))
	reader.Unmount()

	mu.Lock()
	assert.ElementsMatch(t, []string{
		"/api/analytics/view/hello-world?referrer=https%3A%2F%2Fref.example",
		"/api/analytics/read-progress/hello-world?read_percentage=25",
		"/api/analytics/read-progress/hello-world?read_percentage=50",
	}, apiCalls)
	mu.Unlock()

	close(events)
	var kinds []string
	for evt := range events {
		kinds = append(kinds, evt.Kind)
		assert.Equal(t, "hello-world", evt.Post)
		assert.True(t, evt.Delivered)
		assert.NotEmpty(t, evt.ViewID)
	}
	assert.ElementsMatch(t, []string{publishers.KindView, publishers.KindReadProgress, publishers.KindReadProgress}, kinds)

	seenMu.Lock()
	assert.Len(t, seen, 3)
	seenMu.Unlock()
}

func TestEventFromReport(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	evt := EventFromReport(readprogress.Report{
		Kind:    readprogress.KindReadProgress,
		ViewID:  "v1",
		Slug:    "post",
		Percent: 75,
		At:      at,
		Err:     errors.New("timeout"),
	})
	assert.Equal(t, publishers.Event{
		Kind:           publishers.KindReadProgress,
		Post:           "post",
		ViewID:         "v1",
		ReadPercentage: 75,
		Delivered:      false,
		Error:          "timeout",
		OccurredAt:     at,
	}, evt)

	view := EventFromReport(readprogress.Report{Kind: readprogress.KindView, Slug: "post", Percent: 10})
	assert.Zero(t, view.ReadPercentage)
	assert.True(t, view.Delivered)
}
