package httpclient

import (
	"context"
	"io"
	"net/url"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header(name string) string
}

// Request describes one outbound call. At most one of JSON, Form or File is used.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Query   url.Values
	JSON    any
	Form    map[string]string
	File    *FileField
}

// FileField is a multipart file part.
type FileField struct {
	Param    string
	FileName string
	Reader   io.Reader
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
