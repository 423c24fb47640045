package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTransport         = errors.New("backend unreachable")
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrValidation        = errors.New("request rejected by backend")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrServer            = errors.New("backend error")
	ErrPartialFailure    = errors.New("partial failure")
)

// StatusError is returned for every non-2xx backend response. It unwraps to
// one of the sentinel errors above so callers classify with errors.Is.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	RetryAfter time.Duration
	kind       error
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrServer
	}
}

type errorBody struct {
	Detail     json.RawMessage `json:"detail"`
	RetryAfter *int            `json:"retry_after"`
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func newStatusError(method, path string, resp *http.Response, body []byte) *StatusError {
	se := &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		kind:       kindForStatus(resp.StatusCode),
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		se.Detail = parseDetail(eb.Detail)
		if eb.RetryAfter != nil {
			se.RetryAfter = time.Duration(*eb.RetryAfter) * time.Second
		}
	}

	if se.kind == ErrRateLimited && se.RetryAfter == 0 {
		se.RetryAfter = 60 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, err := strconv.Atoi(v); err == nil {
				se.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
	}

	return se
}

// parseDetail accepts either a plain string or a list of field validation
// issues.
func parseDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var issues []validationIssue
	if err := json.Unmarshal(raw, &issues); err == nil {
		parts := make([]string, 0, len(issues))
		for _, issue := range issues {
			loc := make([]string, 0, len(issue.Loc))
			for _, l := range issue.Loc {
				loc = append(loc, fmt.Sprint(l))
			}
			parts = append(parts, strings.Join(loc, ".")+": "+issue.Msg)
		}
		return strings.Join(parts, "; ")
	}

	return string(raw)
}

// Detail extracts the backend's human readable detail from err, if any.
func Detail(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Detail
	}
	return ""
}

// RetryAfter reports how long to wait before retrying a rate limited call.
func RetryAfter(err error) (time.Duration, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.kind == ErrRateLimited {
		return se.RetryAfter, true
	}
	return 0, false
}
