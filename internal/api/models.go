// Package api contains models for API communication
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MetadataEntry is one key/value pair of wire metadata. Value holds the raw
// JSON of the value as the backend sent it.
type MetadataEntry struct {
	Key   string
	Value json.RawMessage
}

// Metadata is the wire key -> value mapping. It keeps the key order of the
// JSON object it was decoded from; Go maps would lose it.
type Metadata []MetadataEntry

// UnmarshalJSON implements json.Unmarshaler for Metadata
func (m *Metadata) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("metadata must be a JSON object")
	}

	entries := Metadata{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("metadata key is not a string")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode metadata value for %q: %w", key, err)
		}
		entries = entries.Set(key, raw)
	}

	*m = entries
	return nil
}

// MarshalJSON implements json.Marshaler for Metadata, writing keys in order
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(e.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(e.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Set replaces the value of key in place, or appends a new entry
func (m Metadata) Set(key string, value json.RawMessage) Metadata {
	for i := range m {
		if m[i].Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, MetadataEntry{Key: key, Value: value})
}

// SetString is Set with a string value
func (m Metadata) SetString(key, value string) Metadata {
	raw, _ := json.Marshal(value)
	return m.Set(key, raw)
}

// Get returns the raw value for key
func (m Metadata) Get(key string) (json.RawMessage, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, e := range m {
		keys = append(keys, e.Key)
	}
	return keys
}

// StringValue renders a raw metadata value as display text: JSON strings are
// unquoted, every other kind keeps its JSON text.
func StringValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

// BookResponse is a book as the backend returns it
type BookResponse struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Metadata Metadata `json:"metadata"`
}

// BookRequest is the body for creating or replacing a book
type BookRequest struct {
	Title    string   `json:"title"`
	Metadata Metadata `json:"metadata"`
}

// PageInfo is the page block of a paged envelope
type PageInfo struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

// PagedResponse is a paged list envelope. The backend nests the items under
// a collection-specific key inside _embedded, so Items is read from the sole
// value of that mapping instead of a fixed name.
type PagedResponse[T any] struct {
	Items []T
	Page  PageInfo
}

type pagedEnvelope struct {
	Embedded map[string]json.RawMessage `json:"_embedded"`
	Page     PageInfo                   `json:"page"`
}

// UnmarshalJSON implements json.Unmarshaler for PagedResponse
func (p *PagedResponse[T]) UnmarshalJSON(data []byte) error {
	var env pagedEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	p.Page = env.Page
	p.Items = []T{}

	switch len(env.Embedded) {
	case 0:
		return nil
	case 1:
		for _, raw := range env.Embedded {
			if err := json.Unmarshal(raw, &p.Items); err != nil {
				return fmt.Errorf("failed to decode embedded items: %w", err)
			}
		}
		if p.Items == nil {
			p.Items = []T{}
		}
		return nil
	default:
		return fmt.Errorf("expected a single embedded collection, got %d", len(env.Embedded))
	}
}
