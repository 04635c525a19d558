// Package api is the BlogMind REST client. Every remote operation is one
// method on one of the grouped services (Auth, Blogs, Comments, Uploads,
// Analytics); each performs exactly one HTTP call and returns the decoded
// body or an *Error. Nothing is retried or cached.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/blogmind-client/internal/logger"
	"github.com/samvad-hq/blogmind-client/pkg/httpclient"
)

const (
	defaultPrefix  = "/api"
	defaultTimeout = 5 * time.Second
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request goes out anonymously.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Options configures a Client.
type Options struct {
	BaseURL string
	// Prefix is prepended to every path; defaults to "/api". Use "/" for none.
	Prefix  string
	Timeout time.Duration
	// HTTP overrides the transport; defaults to a resty client with Timeout.
	HTTP   httpclient.Client
	Tokens TokenSource
	Log    logger.Logger
}

// Client is the single point of outbound communication with the API.
type Client struct {
	http    httpclient.Client
	root    string
	baseURL string
	timeout time.Duration
	log     logger.Logger

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc

	Auth      *AuthService
	Blogs     *BlogService
	Comments  *CommentService
	Uploads   *UploadService
	Analytics *AnalyticsService
}

// New builds a Client from opts.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", opts.BaseURL)
	}

	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := opts.HTTP
	if transport == nil {
		transport = httpclient.NewRestyClient(timeout)
	}

	c := &Client{
		http:    transport,
		root:    base,
		baseURL: base + prefix,
		timeout: timeout,
		log:     logger.Ensure(opts.Log),
		tokens:  opts.Tokens,
	}
	c.Auth = &AuthService{c: c}
	c.Blogs = &BlogService{c: c}
	c.Comments = &CommentService{c: c}
	c.Uploads = &UploadService{c: c}
	c.Analytics = &AnalyticsService{c: c}
	return c, nil
}

// SetTokenSource replaces the bearer token source.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// UnauthorizedFunc receives the bearer token a rejected call carried.
type UnauthorizedFunc func(token string, e *Error)

// OnUnauthorized registers fn to run once for every call that carried a
// token and came back 401.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Ping checks the API root is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.doURL(ctx, call{method: http.MethodGet, path: "/"}, c.root+"/", nil)
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return strings.TrimSpace(ts.Token())
}

func (c *Client) unauthorizedHook() UnauthorizedFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.onUnauthorized
}

// call is one API request relative to the base URL.
type call struct {
	method string
	path   string
	query  url.Values
	json   any
	form   map[string]string
	file   *httpclient.FileField
}

// do executes cl and decodes a successful body into out (when non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	return c.doURL(ctx, cl, c.baseURL+cl.path, out)
}

func (c *Client) doURL(ctx context.Context, cl call, fullURL string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	headers := map[string]string{}
	token := c.token()
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  cl.method,
		URL:     fullURL,
		Headers: headers,
		Query:   cl.query,
		JSON:    cl.json,
		Form:    cl.form,
		File:    cl.file,
	})
	if err != nil {
		apiErr := &Error{Kind: KindNetwork, Method: cl.method, Path: cl.path, Err: err}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			apiErr.Message = "request timed out"
		}
		c.log.DebugObj("api request failed", "api_error", map[string]any{
			"method": cl.method,
			"path":   cl.path,
			"error":  err.Error(),
		})
		return apiErr
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		msg, fields := parseErrorBody(resp.Body())
		apiErr := &Error{
			Kind:    kindForStatus(status),
			Status:  status,
			Method:  cl.method,
			Path:    cl.path,
			Message: msg,
			Fields:  fields,
		}
		c.log.DebugObj("api request rejected", "api_error", map[string]any{
			"method": cl.method,
			"path":   cl.path,
			"status": status,
			"kind":   apiErr.Kind.String(),
		})
		if apiErr.Kind == KindUnauthorized && token != "" {
			if hook := c.unauthorizedHook(); hook != nil {
				hook(token, apiErr)
			}
		}
		return apiErr
	}

	if out == nil || status == http.StatusNoContent || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &Error{
			Kind:    KindServer,
			Status:  status,
			Method:  cl.method,
			Path:    cl.path,
			Message: "malformed response body",
			Err:     err,
		}
	}
	return nil
}

// segment escapes one path segment.
func segment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}

// requireID rejects blank identifiers before any I/O.
func requireID(method, path, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &Error{
			Kind:    KindValidation,
			Method:  method,
			Path:    path,
			Message: field + " is required",
			Fields:  []FieldError{{Field: field, Message: "is required"}},
		}
	}
	return nil
}
