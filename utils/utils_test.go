package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type article struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status,omitempty"`
}

func TestToDocument(t *testing.T) {
	doc, err := ToDocument(article{ID: 1, Title: "hello"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1), "title": "hello"}, doc)
}

func TestToDocumentRejectsUnencodable(t *testing.T) {
	_, err := ToDocument(make(chan int))
	assert.Error(t, err)
}

func TestFromDocument(t *testing.T) {
	got, err := FromDocument[article](map[string]any{
		"id": float64(2), "title": "world", "status": "published",
	})
	require.NoError(t, err)
	assert.Equal(t, article{ID: 2, Title: "world", Status: "published"}, got)
}

func TestFromDocuments(t *testing.T) {
	got, err := FromDocuments[article]([]map[string]any{
		{"id": float64(1), "title": "a"},
		{"id": float64(2), "title": "b"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Title)
}

func TestRoundTrip(t *testing.T) {
	original := article{ID: 7, Title: "roundtrip", Status: "draft"}
	doc, err := ToDocument(original)
	require.NoError(t, err)
	back, err := FromDocument[article](doc)
	require.NoError(t, err)
	assert.Equal(t, original, back)
}
