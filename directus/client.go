// Package directus implements an HTTP client for the Directus headless-CMS
// API. The client covers authentication, items, users, files, and collection
// metadata, and consumes the canonical query objects produced by core/query
// and core/sqlconv as its search payloads.
package directus

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asaidimu/go-directus/core/query"
	"github.com/asaidimu/go-directus/sqlitecache"
)

// Client is a Directus API client. It is safe for concurrent use; token
// state is guarded by a mutex and refreshed in place.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	cache      *sqlitecache.Store

	bus           *events.TypedEventBus[ClientEvent]
	subscriptions map[string]*subscriptionInfo
	subMu         sync.Mutex

	tokenMu      sync.RWMutex
	staticToken  string
	accessToken  string
	refreshToken string
	expires      int64
	email        string
	password     string
}

// Option configures a Client during construction.
type Option func(*Client)

// WithStaticToken authenticates every request with a fixed API token.
func WithStaticToken(token string) Option {
	return func(c *Client) { c.staticToken = token }
}

// WithCredentials stores an email/password pair. The client logs in lazily
// on the first authenticated request, or explicitly via Login.
func WithCredentials(email, password string) Option {
	return func(c *Client) {
		c.email = email
		c.password = password
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger. The default is a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithInsecureSkipVerify disables TLS certificate verification, matching the
// verify=false mode used against self-signed development instances.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
}

// WithCache attaches a response cache consulted by item list queries.
func WithCache(store *sqlitecache.Store) Option {
	return func(c *Client) { c.cache = store }
}

// New creates a Client for the Directus instance at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("directus: base URL must not be empty")
	}
	bus, err := events.NewTypedEventBus[ClientEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("directus: create event bus: %w", err)
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        zap.NewNop(),
		bus:           bus,
		subscriptions: make(map[string]*subscriptionInfo),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// url joins the base URL with a request path.
func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// envelope is the standard Directus response wrapper.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []apiErrorItem  `json:"errors"`
}

// do issues a JSON request and decodes the "data" envelope into out. The
// request carries the bearer token and a UUID correlation ID; request
// lifecycle events are emitted on the client bus.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}
	return c.roundTrip(ctx, method, path, body, out, true)
}

// authRequest issues a request without a bearer token and without triggering
// lazy login. Used by the /auth endpoints themselves.
func (c *Client) authRequest(ctx context.Context, method, path string, body any, out any) error {
	return c.roundTrip(ctx, method, path, body, out, false)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, out any, authorized bool) error {
	requestID := uuid.NewString()
	start := time.Now()
	c.emit(ClientEvent{Type: RequestStart, Method: method, Path: path, RequestID: requestID})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("directus: encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("directus: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if authorized {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.emitFailure(method, path, requestID, 0, start, err)
		return fmt.Errorf("directus: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.emitFailure(method, path, requestID, resp.StatusCode, start, err)
		return fmt.Errorf("directus: read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		// Non-JSON bodies only occur on transport-level failures; treat them
		// as an empty envelope and let the status check report the error.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode >= 400 || len(env.Errors) > 0 {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: requestID}
		for _, item := range env.Errors {
			apiErr.Messages = append(apiErr.Messages, item.Message)
		}
		c.emitFailure(method, path, requestID, resp.StatusCode, start, apiErr)
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", requestID),
		)
		return apiErr
	}

	c.emit(ClientEvent{
		Type: RequestSuccess, Method: method, Path: path,
		Status: resp.StatusCode, RequestID: requestID, Duration: time.Since(start),
	})
	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("directus: decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) emitFailure(method, path, requestID string, status int, start time.Time, err error) {
	msg := err.Error()
	c.emit(ClientEvent{
		Type: RequestFailed, Method: method, Path: path,
		Status: status, RequestID: requestID, Error: &msg, Duration: time.Since(start),
	})
}

// search issues a SEARCH request carrying the canonical query payload and
// decodes the matching records.
func (c *Client) search(ctx context.Context, path string, q *query.Query, out any) error {
	var payload map[string]any
	if q != nil {
		payload = q.Payload()
	}
	return c.do(ctx, "SEARCH", path, payload, out)
}

// downloadRaw fetches a binary asset body.
func (c *Client) downloadRaw(ctx context.Context, path string, params string) ([]byte, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	url := c.url(path)
	if params != "" {
		url += "?" + params
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("directus: build request: %w", err)
	}
	req.Header.Set("X-Request-ID", requestID)
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directus: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("directus: read asset body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, RequestID: requestID}
	}
	return raw, nil
}
