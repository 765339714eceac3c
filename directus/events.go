package directus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ClientEventType identifies a client lifecycle event.
type ClientEventType string

// Emitted event types.
const (
	RequestStart   ClientEventType = "request.start"
	RequestSuccess ClientEventType = "request.success"
	RequestFailed  ClientEventType = "request.failed"
	AuthLogin      ClientEventType = "auth.login"
	AuthRefreshed  ClientEventType = "auth.refreshed"
	AuthLogout     ClientEventType = "auth.logout"
)

// ClientEvent describes a single request or auth lifecycle step. Events are
// emitted on the client's event bus for observability hooks.
type ClientEvent struct {
	Type      ClientEventType `json:"type"`
	Method    string          `json:"method,omitempty"`
	Path      string          `json:"path,omitempty"`
	Status    int             `json:"status,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Error     *string         `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Duration  time.Duration   `json:"duration,omitempty"`
}

// EventCallback is invoked for every event of the subscribed type.
type EventCallback func(ctx context.Context, event ClientEvent) error

// subscriptionInfo stores the unsubscribe hook for a registered callback.
type subscriptionInfo struct {
	event       ClientEventType
	unsubscribe func()
}

// Subscribe registers a callback for a client event type and returns an
// identifier that can be passed to Unsubscribe.
func (c *Client) Subscribe(event ClientEventType, callback EventCallback) string {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	unsubscribe := c.bus.Subscribe(string(event), callback)
	id := uuid.NewString()
	c.subscriptions[id] = &subscriptionInfo{event: event, unsubscribe: unsubscribe}
	return id
}

// Unsubscribe removes a previously registered callback.
func (c *Client) Unsubscribe(id string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if info := c.subscriptions[id]; info != nil {
		info.unsubscribe()
		delete(c.subscriptions, id)
	}
}

// emit publishes an event on the bus. A nil bus drops events.
func (c *Client) emit(event ClientEvent) {
	if c.bus != nil {
		event.Timestamp = time.Now()
		c.bus.Emit(string(event.Type), event)
	}
}
