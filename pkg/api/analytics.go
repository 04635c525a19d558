package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samvad-hq/blogmind-client/internal/domain"
)

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 365
)

// AnalyticsService records views and reading progress and reads dashboards.
type AnalyticsService struct {
	c *Client
}

type viewBody struct {
	Referrer string `json:"referrer,omitempty"`
}

type readProgressBody struct {
	ReadPercentage int `json:"read_percentage"`
}

// RecordView registers one view of a post.
func (s *AnalyticsService) RecordView(ctx context.Context, slug, referrer string) error {
	if err := requireID(http.MethodPost, "/analytics/view/{slug}", "slug", slug); err != nil {
		return err
	}
	var q url.Values
	if referrer != "" {
		q = url.Values{"referrer": []string{referrer}}
	}
	return s.c.do(ctx, call{
		method: http.MethodPost,
		path:   "/analytics/view/" + segment(slug),
		query:  q,
		json:   viewBody{Referrer: referrer},
	}, nil)
}

// RecordReadProgress reports that a reader reached percent of a post.
// percent must be within 0..100; out-of-range values fail before any I/O.
func (s *AnalyticsService) RecordReadProgress(ctx context.Context, slug string, percent int) error {
	const path = "/analytics/read-progress/{slug}"
	if err := requireID(http.MethodPost, path, "slug", slug); err != nil {
		return err
	}
	if percent < 0 || percent > 100 {
		return &Error{
			Kind:    KindValidation,
			Method:  http.MethodPost,
			Path:    path,
			Message: fmt.Sprintf("read_percentage %d out of range 0..100", percent),
			Fields:  []FieldError{{Field: "read_percentage", Message: "must be between 0 and 100"}},
		}
	}
	// The server reads the value from the query string; the body mirrors it.
	return s.c.do(ctx, call{
		method: http.MethodPost,
		path:   "/analytics/read-progress/" + segment(slug),
		query:  url.Values{"read_percentage": []string{strconv.Itoa(percent)}},
		json:   readProgressBody{ReadPercentage: percent},
	}, nil)
}

// PostAnalytics returns the author dashboard of one post over the last days.
func (s *AnalyticsService) PostAnalytics(ctx context.Context, slug string, days int) (*domain.PostAnalytics, error) {
	if err := requireID(http.MethodGet, "/analytics/blog/{slug}", "slug", slug); err != nil {
		return nil, err
	}
	q, err := daysQuery(http.MethodGet, "/analytics/blog/{slug}", days)
	if err != nil {
		return nil, err
	}
	var out domain.PostAnalytics
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/analytics/blog/" + segment(slug), query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserAnalytics returns the current user's dashboard over the last days.
func (s *AnalyticsService) UserAnalytics(ctx context.Context, days int) (*domain.UserAnalytics, error) {
	q, err := daysQuery(http.MethodGet, "/analytics/user", days)
	if err != nil {
		return nil, err
	}
	var out domain.UserAnalytics
	if err := s.c.do(ctx, call{method: http.MethodGet, path: "/analytics/user", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// daysQuery defaults days to 30 and rejects values outside 1..365.
func daysQuery(method, path string, days int) (url.Values, error) {
	if days == 0 {
		days = defaultAnalyticsDays
	}
	if days < 1 || days > maxAnalyticsDays {
		return nil, &Error{
			Kind:    KindValidation,
			Method:  method,
			Path:    path,
			Message: fmt.Sprintf("days %d out of range 1..%d", days, maxAnalyticsDays),
			Fields:  []FieldError{{Field: "days", Message: "must be between 1 and 365"}},
		}
	}
	return url.Values{"days": []string{strconv.Itoa(days)}}, nil
}
