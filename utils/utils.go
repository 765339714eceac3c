// Package utils contains small helpers for moving data between typed structs
// and the document maps exchanged with the API.
package utils

import (
	"encoding/json"
	"fmt"
)

// ToDocument converts a struct to its map representation by round-tripping
// through JSON, so the field names follow the struct's json tags.
func ToDocument(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("utils: marshal value: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("utils: unmarshal into map: %w", err)
	}
	return doc, nil
}

// FromDocument decodes a document map into a typed value using its json
// tags.
func FromDocument[T any](doc map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("utils: marshal document: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("utils: unmarshal document: %w", err)
	}
	return out, nil
}

// FromDocuments decodes a slice of document maps into typed values.
func FromDocuments[T any](docs []map[string]any) ([]T, error) {
	out := make([]T, 0, len(docs))
	for i, doc := range docs {
		v, err := FromDocument[T](doc)
		if err != nil {
			return nil, fmt.Errorf("utils: document %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
