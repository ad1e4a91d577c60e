package base

import (
	"fmt"
	"time"
)

// Fields is one row's column values, keyed by column name.
type Fields map[string]any

// Record is a row as returned by the tabular database.
type Record struct {
	ID          string    `json:"id"`
	CreatedTime time.Time `json:"createdTime"`
	Fields      Fields    `json:"fields"`
}

// RecordPatch is a partial update of one row.
type RecordPatch struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// The getters below are the single place raw API values are coerced into Go
// types; decoders in internal/domain build on them instead of type-asserting
// per call site.

func (r Record) String(field string) string {
	if v, ok := r.Fields[field].(string); ok {
		return v
	}
	return ""
}

func (r Record) Strings(field string) []string {
	switch v := r.Fields[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

func (r Record) Float(field string) float64 {
	if v, ok := r.Fields[field].(float64); ok {
		return v
	}
	return 0
}

func (r Record) Bool(field string) bool {
	switch v := r.Fields[field].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	}
	return false
}

func (r Record) Time(field string) *time.Time {
	s, ok := r.Fields[field].(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// APIError is a non-retryable (or retries-exhausted) response from the base.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("base API returned %d: %s", e.StatusCode, e.Body)
}
