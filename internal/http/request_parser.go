// Package http serves the record store and its aggregates as a JSON API.
//
// This file implements the request parsing shared by the handlers. Bodies
// may be JSON objects or form-encoded, and query strings select a period.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 10 << 20
)

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a request body once and exposes its fields
// whether it was sent as JSON or as a form.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads up to maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = readBody(r, maxBodyBytes)
	return p
}

func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// Parse decodes the body. Content starting with '{' is JSON, anything else
// is treated as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("decode JSON body: %w", err)
			return p.err
		}
		return nil
	}
	if trimmed[0] == '[' {
		p.err = errors.New("request body must be an object")
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Has reports whether key was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a trimmed, sanitized string value.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Bool accepts JSON booleans and the form values true, on, yes and 1.
func (p *RequestBodyParser) Bool(key string) bool {
	if p.jsonData != nil {
		if b, ok := p.jsonData[key].(bool); ok {
			return b
		}
	}
	switch strings.ToLower(p.Get(key)) {
	case "true", "on", "yes", "1":
		return true
	default:
		return false
	}
}

// Strings returns a JSON array, repeated form values, or a single
// comma-separated value as a list.
func (p *RequestBodyParser) Strings(key string) []string {
	if p.jsonData != nil {
		switch v := p.jsonData[key].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, sanitizeInput(stringValue(item)))
			}
			return out
		case string:
			return splitList(v)
		}
		return nil
	}
	if p.formData == nil {
		return nil
	}
	values := p.formData[key]
	switch len(values) {
	case 0:
		return nil
	case 1:
		return splitList(values[0])
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, sanitizeInput(v))
	}
	return out
}

// TransactionInput collects the transaction form fields.
func (p *RequestBodyParser) TransactionInput() core.TransactionInput {
	return core.TransactionInput{
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Date:        p.Get("date"),
		IsIncome:    p.Bool("isIncome"),
		Note:        p.Get("note"),
		Tags:        p.Strings("tags"),
		Recurring:   p.Bool("recurring"),
	}
}

// TaskInput collects the task form fields.
func (p *RequestBodyParser) TaskInput() core.TaskInput {
	return core.TaskInput{
		Title:       p.Get("title"),
		Description: p.Get("description"),
		Priority:    p.Get("priority"),
		DueDate:     p.Get("dueDate"),
		Category:    p.Get("category"),
	}
}

// Raw returns the body as read.
func (p *RequestBodyParser) Raw() []byte {
	return p.body
}

// IsJSON reports whether the body was decoded as JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = sanitizeInput(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParsePeriodParams reads year and month (0 is January) from a query,
// falling back to the given period for absent values.
func ParsePeriodParams(query url.Values, fallback core.Period) (core.Period, error) {
	p := fallback
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, core.NewValidationError("year", core.ErrInvalidPeriod)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, core.NewValidationError("month", core.ErrInvalidPeriod)
		}
		p.Month = m
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, core.NewValidationError("period", err)
	}
	return p, nil
}

// hasPeriodParams reports whether a query names a year or month.
func hasPeriodParams(query url.Values) bool {
	return query.Has("year") || query.Has("month")
}
