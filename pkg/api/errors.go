package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call by what the caller should do about it.
type Kind int

const (
	// KindServer covers 5xx and any unexpected non-2xx status.
	KindServer Kind = iota
	// KindUnauthorized (401): clear the session and send the user to login.
	KindUnauthorized
	// KindForbidden (403): the user is signed in but not allowed.
	KindForbidden
	// KindNotFound (404): render a not-found state.
	KindNotFound
	// KindValidation (400/422): surface the field-level messages.
	KindValidation
	// KindNetwork: the request never produced a response (transport error, timeout).
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	default:
		return "server"
	}
}

// Sentinels for errors.Is checks against *Error.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
)

var kindSentinels = map[Kind]error{
	KindUnauthorized: ErrUnauthorized,
	KindForbidden:    ErrForbidden,
	KindNotFound:     ErrNotFound,
	KindValidation:   ErrValidation,
	KindServer:       ErrServer,
	KindNetwork:      ErrNetwork,
}

// FieldError is one field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by every failed API call.
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Method, e.Path, e.Kind)
	if e.Status > 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil && e.Message == "" {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf reports the Kind of err, or KindNetwork when err is not an *Error.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return KindNetwork, false
}

// kindForStatus maps a non-2xx status code to a Kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindServer
	}
}

// errorBody is the server's error payload: detail is either a string or a
// list of {loc, msg} entries.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type detailEntry struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseErrorBody extracts a human message and field errors from the payload.
func parseErrorBody(body []byte) (string, []FieldError) {
	if len(body) == 0 {
		return "", nil
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return responseSnippet(body), nil
	}

	if len(eb.Detail) > 0 {
		var msg string
		if err := json.Unmarshal(eb.Detail, &msg); err == nil {
			return msg, nil
		}

		var entries []detailEntry
		if err := json.Unmarshal(eb.Detail, &entries); err == nil {
			fields := make([]FieldError, 0, len(entries))
			msgs := make([]string, 0, len(entries))
			for _, entry := range entries {
				field := fieldName(entry.Loc)
				fields = append(fields, FieldError{Field: field, Message: entry.Msg})
				if field != "" {
					msgs = append(msgs, field+": "+entry.Msg)
				} else {
					msgs = append(msgs, entry.Msg)
				}
			}
			return strings.Join(msgs, "; "), fields
		}
	}

	return eb.Message, nil
}

// fieldName drops the location prefix ("body", "query", ...) from a loc path.
func fieldName(loc []any) string {
	parts := make([]string, 0, len(loc))
	for i, p := range loc {
		s := fmt.Sprint(p)
		if i == 0 && (s == "body" || s == "query" || s == "path" || s == "header") {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
