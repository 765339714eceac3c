package directus

import (
	"context"

	"github.com/asaidimu/go-directus/core/query"
)

// UsersService exposes the Directus user management endpoints.
type UsersService struct {
	client *Client
}

// Users returns the user service.
func (c *Client) Users() *UsersService {
	return &UsersService{client: c}
}

// Me returns the user record for the current token.
func (s *UsersService) Me(ctx context.Context) (query.Document, error) {
	var user query.Document
	if err := s.client.do(ctx, "GET", "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// List returns the users matching the canonical query. A nil query returns
// all visible users with API-default pagination.
func (s *UsersService) List(ctx context.Context, q *query.Query) ([]query.Document, error) {
	var users []query.Document
	if err := s.client.search(ctx, "/users", q, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Get fetches a single user by ID.
func (s *UsersService) Get(ctx context.Context, id string) (query.Document, error) {
	var user query.Document
	if err := s.client.do(ctx, "GET", "/users/"+id, nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// Create registers a new user and returns the created record.
func (s *UsersService) Create(ctx context.Context, user any) (query.Document, error) {
	var created query.Document
	if err := s.client.do(ctx, "POST", "/users", user, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update patches a user by ID and returns the updated record.
func (s *UsersService) Update(ctx context.Context, id string, user any) (query.Document, error) {
	var updated query.Document
	if err := s.client.do(ctx, "PATCH", "/users/"+id, user, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a user by ID.
func (s *UsersService) Delete(ctx context.Context, id string) error {
	return s.client.do(ctx, "DELETE", "/users/"+id, nil, nil)
}
