package directus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"diagram.png", "image/png"},
		{"doc.pdf", "application/pdf"},
		{"data.csv", "text/csv"},
		{"unknown.xyz", "application/octet-stream"},
		{"no-extension", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentTypeFor(tt.filename))
		})
	}
}

func TestAssetURL(t *testing.T) {
	c, err := New("http://localhost:8055")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8055/assets/abc", c.Files().AssetURL("abc"))
}

func TestDownload(t *testing.T) {
	content := []byte{0x89, 0x50, 0x4e, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/assets/abc", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write(content)
	}))
	defer server.Close()

	c, err := New(server.URL, WithStaticToken("secret"))
	require.NoError(t, err)

	raw, err := c.Files().Download(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, content, raw)
}

func TestDownloadImageTransformParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "cover", q.Get("fit"))
		assert.Equal(t, "640", q.Get("width"))
		assert.Equal(t, "480", q.Get("height"))
		assert.Equal(t, "80", q.Get("quality"))
		assert.Equal(t, "webp", q.Get("format"))
		assert.Equal(t, "true", q.Get("withoutEnlargement"))
		assert.Equal(t, `[["blur",5]]`, q.Get("transforms"))
		w.Write([]byte("image"))
	}))
	defer server.Close()

	c, err := New(server.URL, WithStaticToken("secret"))
	require.NoError(t, err)

	raw, err := c.Files().DownloadImage(context.Background(), "abc", &TransformOptions{
		Fit:                "cover",
		Width:              640,
		Height:             480,
		Quality:            80,
		Format:             "webp",
		WithoutEnlargement: true,
		Transforms:         [][]any{{"blur", 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("image"), raw)
}

func TestDownloadImageNilOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte("image"))
	}))
	defer server.Close()

	c, err := New(server.URL, WithStaticToken("secret"))
	require.NoError(t, err)

	_, err = c.Files().DownloadImage(context.Background(), "abc", nil)
	require.NoError(t, err)
}

func TestDownloadErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, err := New(server.URL, WithStaticToken("secret"))
	require.NoError(t, err)

	_, err = c.Files().Download(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestDownloadFileWritesToDisk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	c, err := New(server.URL, WithStaticToken("secret"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "asset.bin")
	require.NoError(t, c.Files().DownloadFile(context.Background(), "abc", path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), raw)
}

func TestUploadMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Report", r.MultipartForm.Value["title"][0])

		fileHeaders := r.MultipartForm.File["file"]
		require.Len(t, fileHeaders, 1)
		assert.Equal(t, "report.pdf", fileHeaders[0].Filename)
		assert.Equal(t, "application/pdf", fileHeaders[0].Header.Get("Content-Type"))

		respond(t, w, map[string]any{"id": "file-1", "filename_download": "report.pdf"})
	}))
	defer server.Close()

	c, err := New(server.URL, WithStaticToken("secret"))
	require.NoError(t, err)

	file, err := c.Files().Upload(context.Background(), "report.pdf",
		strings.NewReader("%PDF-1.4"), map[string]string{"title": "Report"})
	require.NoError(t, err)
	assert.Equal(t, "file-1", file["id"])
}

func TestUploadErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(t, w, http.StatusUnprocessableEntity, "Invalid payload.")
	}))
	defer server.Close()

	c, err := New(server.URL, WithStaticToken("secret"))
	require.NoError(t, err)

	_, err = c.Files().Upload(context.Background(), "x.txt", strings.NewReader("x"), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
}

func TestUploadFileFromDisk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		fileHeaders := r.MultipartForm.File["file"]
		require.Len(t, fileHeaders, 1)
		assert.Equal(t, "note.txt", fileHeaders[0].Filename)
		respond(t, w, map[string]any{"id": "file-2"})
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	c, err := New(server.URL, WithStaticToken("secret"))
	require.NoError(t, err)

	file, err := c.Files().UploadFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "file-2", file["id"])
}
