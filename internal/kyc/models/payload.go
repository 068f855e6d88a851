package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ResultPayload is an opaque blob produced by an external screening process.
// It is stored and shown as-is; nothing in the review workflow reads its
// fields.
type ResultPayload string

// Present reports whether a payload was recorded.
func (p ResultPayload) Present() bool {
	return strings.TrimSpace(string(p)) != ""
}

// Structured returns the decoded value when the payload is valid JSON.
func (p ResultPayload) Structured() (any, bool) {
	if !p.Present() {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(p), &v); err != nil {
		return nil, false
	}
	return v, true
}

// Display renders indented JSON when the payload parses and the raw text
// otherwise. It never fails.
func (p ResultPayload) Display() string {
	if !p.Present() {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(p), "", "  "); err != nil {
		return string(p)
	}
	return buf.String()
}

// MarshalJSON writes an absent payload as null.
func (p ResultPayload) MarshalJSON() ([]byte, error) {
	if !p.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON accepts null, a string, or any other JSON value, which is
// kept as its raw text.
func (p *ResultPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*p = ResultPayload(s)
		return nil
	}
	*p = ResultPayload(trimmed)
	return nil
}
