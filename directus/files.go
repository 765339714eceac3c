package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/asaidimu/go-directus/core/query"
)

// FilesService exposes the file library and asset endpoints.
type FilesService struct {
	client *Client
}

// Files returns the file service.
func (c *Client) Files() *FilesService {
	return &FilesService{client: c}
}

// contentTypes maps known file extensions to their MIME type for uploads.
// Unknown extensions fall back to application/octet-stream.
var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".json": "application/json",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".zip":  "application/zip",
}

// ContentTypeFor returns the MIME type used when uploading a file with the
// given name.
func ContentTypeFor(filename string) string {
	if typ, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return typ
	}
	return "application/octet-stream"
}

// TransformOptions describe the on-the-fly asset transformations applied by
// the /assets endpoint. Zero-valued fields are omitted from the request.
type TransformOptions struct {
	Fit                string
	Width              int
	Height             int
	Quality            int
	Format             string
	WithoutEnlargement bool

	// Transforms carries raw sharp pipeline steps, each a [name, args...]
	// tuple, serialized as a JSON parameter.
	Transforms [][]any
}

func (t *TransformOptions) params() (string, error) {
	if t == nil {
		return "", nil
	}
	values := url.Values{}
	if t.Fit != "" {
		values.Set("fit", t.Fit)
	}
	if t.Width > 0 {
		values.Set("width", strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		values.Set("height", strconv.Itoa(t.Height))
	}
	if t.Quality > 0 {
		values.Set("quality", strconv.Itoa(t.Quality))
	}
	if t.Format != "" {
		values.Set("format", t.Format)
	}
	if t.WithoutEnlargement {
		values.Set("withoutEnlargement", "true")
	}
	if len(t.Transforms) > 0 {
		raw, err := json.Marshal(t.Transforms)
		if err != nil {
			return "", fmt.Errorf("directus: encode transforms: %w", err)
		}
		values.Set("transforms", string(raw))
	}
	return values.Encode(), nil
}

// List returns the file records matching the canonical query.
func (s *FilesService) List(ctx context.Context, q *query.Query) ([]query.Document, error) {
	var files []query.Document
	if err := s.client.search(ctx, "/files", q, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// Get fetches the metadata record of a file.
func (s *FilesService) Get(ctx context.Context, id string) (query.Document, error) {
	var file query.Document
	if err := s.client.do(ctx, "GET", "/files/"+id, nil, &file); err != nil {
		return nil, err
	}
	return file, nil
}

// AssetURL returns the direct URL of a file's binary content.
func (s *FilesService) AssetURL(id string) string {
	return s.client.url("/assets/" + id)
}

// Download fetches the binary content of a file.
func (s *FilesService) Download(ctx context.Context, id string) ([]byte, error) {
	return s.client.downloadRaw(ctx, "/assets/"+id, "")
}

// DownloadImage fetches the binary content of an image with the given
// transformations applied server-side.
func (s *FilesService) DownloadImage(ctx context.Context, id string, opts *TransformOptions) ([]byte, error) {
	params, err := opts.params()
	if err != nil {
		return nil, err
	}
	return s.client.downloadRaw(ctx, "/assets/"+id, params)
}

// DownloadFile fetches a file's content and writes it to path.
func (s *FilesService) DownloadFile(ctx context.Context, id, path string) error {
	raw, err := s.Download(ctx, id)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Upload stores content in the file library under the given filename and
// returns the created file record. Extra metadata fields (title, folder,
// description) are sent alongside the file part.
func (s *FilesService) Upload(ctx context.Context, filename string, content io.Reader, metadata map[string]string) (query.Document, error) {
	if err := s.client.ensureToken(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range metadata {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("directus: write form field %q: %w", key, err)
		}
	}
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)),
	}
	header["Content-Type"] = []string{ContentTypeFor(filename)}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("directus: create file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("directus: copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("directus: finalize multipart body: %w", err)
	}

	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.url("/files"), &buf)
	if err != nil {
		return nil, fmt.Errorf("directus: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token := s.client.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directus: POST /files: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("directus: read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	if resp.StatusCode >= 400 || len(env.Errors) > 0 {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: requestID}
		for _, item := range env.Errors {
			apiErr.Messages = append(apiErr.Messages, item.Message)
		}
		return nil, apiErr
	}

	var file query.Document
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &file); err != nil {
			return nil, fmt.Errorf("directus: decode response data: %w", err)
		}
	}
	return file, nil
}

// UploadFile reads a local file and uploads it under its base name.
func (s *FilesService) UploadFile(ctx context.Context, path string, metadata map[string]string) (query.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("directus: open %s: %w", path, err)
	}
	defer f.Close()
	return s.Upload(ctx, filepath.Base(path), f, metadata)
}

// Update patches a file's metadata record.
func (s *FilesService) Update(ctx context.Context, id string, file any) (query.Document, error) {
	var updated query.Document
	if err := s.client.do(ctx, "PATCH", "/files/"+id, file, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a file and its binary content.
func (s *FilesService) Delete(ctx context.Context, id string) error {
	return s.client.do(ctx, "DELETE", "/files/"+id, nil, nil)
}
