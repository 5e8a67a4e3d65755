// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Month/day extraction is shared by the HTML form, the HTMX partials and the
// JSON API.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"zodiac/internal/core"
)

// maxBodyBytes bounds lookup request bodies.
const maxBodyBytes = 4 << 10

var (
	ErrMissingParam   = errors.New("missing parameter")
	ErrMalformedParam = errors.New("malformed parameter")
)

// DateParams holds parsed month/day values from request parameters.
type DateParams struct {
	Month int
	Day   int
}

// ParseDateParams extracts month and day via get, which is usually
// url.Values.Get or RequestBodyParser.Get. The month may be a number or a
// month name. Values that parse but do not form a calendar date fail with
// core.ErrInvalidDate.
func ParseDateParams(get func(string) string) (DateParams, error) {
	monthStr := sanitizeInput(get("month"))
	dayStr := sanitizeInput(get("day"))
	if monthStr == "" || dayStr == "" {
		return DateParams{}, fmt.Errorf("%w: month and day are required", ErrMissingParam)
	}

	month, err := parseMonthValue(monthStr)
	if err != nil {
		return DateParams{}, err
	}
	day, err := parseDayValue(dayStr)
	if err != nil {
		return DateParams{}, err
	}

	if err := core.ValidateDate(month, day); err != nil {
		return DateParams{}, err
	}
	return DateParams{Month: month, Day: day}, nil
}

// parseMonthValue leaves range checks on numeric months to ValidateDate so
// "13" reports an invalid date rather than a malformed parameter.
func parseMonthValue(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	month, err := core.ParseMonth(s)
	if err != nil {
		return 0, fmt.Errorf("%w: month %q", ErrMalformedParam, s)
	}
	return month, nil
}

func parseDayValue(s string) (int, error) {
	s = sanitizeInput(s)
	day, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: day %q", ErrMalformedParam, s)
	}
	return day, nil
}

// ParseQueryDate is ParseDateParams over URL query parameters.
func ParseQueryDate(query url.Values) (DateParams, error) {
	return ParseDateParams(query.Get)
}

// statusForError maps lookup and parse errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrMissingParam), errors.Is(err, ErrMalformedParam):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNoMatch):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.looksLikeJSON() {
		body := bytes.TrimPrefix(bytes.TrimSpace(p.body), utf8BOM)
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

var utf8BOM = []byte("\xef\xbb\xbf")

// looksLikeJSON trusts an application/json content type, otherwise sniffs the
// first non-space byte.
func (p *RequestBodyParser) looksLikeJSON() bool {
	if mediaType, _, err := mime.ParseMediaType(p.contentType); err == nil && mediaType == "application/json" {
		return true
	}
	body := bytes.TrimLeft(bytes.TrimPrefix(p.body, utf8BOM), " \t\r\n")
	return len(body) > 0 && body[0] == '{'
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
