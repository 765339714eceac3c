package directus

import (
	"fmt"
	"strings"
)

// APIError is an error response from the Directus API. It carries the HTTP
// status, the request correlation ID, and the messages parsed from the
// "errors" envelope.
type APIError struct {
	Status    int
	RequestID string
	Messages  []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("directus: request failed with status %d (request %s)", e.Status, e.RequestID)
	}
	return fmt.Sprintf("directus: %s (status %d, request %s)", strings.Join(e.Messages, "; "), e.Status, e.RequestID)
}

// apiErrorItem is one entry of the wire "errors" array.
type apiErrorItem struct {
	Message string `json:"message"`
}
