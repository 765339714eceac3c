package directus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/asaidimu/go-directus/core/query"
)

// CollectionsService exposes the collection and field metadata endpoints.
type CollectionsService struct {
	client *Client
}

// Collections returns the collection metadata service.
func (c *Client) Collections() *CollectionsService {
	return &CollectionsService{client: c}
}

// Relation describes a relational field between two collections.
type Relation struct {
	Collection        string `json:"collection"`
	Field             string `json:"field"`
	RelatedCollection string `json:"related_collection"`
}

// Get fetches the metadata of a single collection.
func (s *CollectionsService) Get(ctx context.Context, name string) (query.Document, error) {
	var collection query.Document
	if err := s.client.do(ctx, "GET", "/collections/"+name, nil, &collection); err != nil {
		return nil, err
	}
	return collection, nil
}

// Exists reports whether a collection with the given name is defined.
func (s *CollectionsService) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.Get(ctx, name)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusForbidden) {
		return false, nil
	}
	return false, err
}

// Names returns the names of all user-defined collections, skipping the
// directus_ system collections.
func (s *CollectionsService) Names(ctx context.Context) ([]string, error) {
	var collections []query.Document
	if err := s.client.do(ctx, "GET", "/collections", nil, &collections); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(collections))
	for _, collection := range collections {
		name, _ := collection["collection"].(string)
		if name == "" || strings.HasPrefix(name, "directus_") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Create defines a new collection from its metadata document.
func (s *CollectionsService) Create(ctx context.Context, collection any) (query.Document, error) {
	var created query.Document
	if err := s.client.do(ctx, "POST", "/collections", collection, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Delete removes a collection and all of its items.
func (s *CollectionsService) Delete(ctx context.Context, name string) error {
	return s.client.do(ctx, "DELETE", "/collections/"+name, nil, nil)
}

// Fields returns the field definitions of a collection. Server-generated
// metadata IDs are stripped so the result can be replayed against another
// instance.
func (s *CollectionsService) Fields(ctx context.Context, collection string) ([]query.Document, error) {
	var fields []query.Document
	if err := s.client.do(ctx, "GET", "/fields/"+collection, nil, &fields); err != nil {
		return nil, err
	}
	for _, field := range fields {
		if meta, ok := field["meta"].(map[string]any); ok {
			delete(meta, "id")
		}
	}
	return fields, nil
}

// PrimaryKeyField returns the field definition of the collection's primary
// key.
func (s *CollectionsService) PrimaryKeyField(ctx context.Context, collection string) (query.Document, error) {
	fields, err := s.Fields(ctx, collection)
	if err != nil {
		return nil, err
	}
	for _, field := range fields {
		if schema, ok := field["schema"].(map[string]any); ok {
			if pk, _ := schema["is_primary_key"].(bool); pk {
				return field, nil
			}
		}
	}
	return nil, fmt.Errorf("directus: collection %q has no primary key field", collection)
}

// ForeignKeyFields returns the fields of a collection whose schema declares a
// foreign key reference.
func (s *CollectionsService) ForeignKeyFields(ctx context.Context, collection string) ([]query.Document, error) {
	fields, err := s.Fields(ctx, collection)
	if err != nil {
		return nil, err
	}
	var foreign []query.Document
	for _, field := range fields {
		if schema, ok := field["schema"].(map[string]any); ok {
			if table, _ := schema["foreign_key_table"].(string); table != "" {
				foreign = append(foreign, field)
			}
		}
	}
	return foreign, nil
}

// Relations returns the relations that involve the given collection on
// either side.
func (s *CollectionsService) Relations(ctx context.Context, collection string) ([]Relation, error) {
	var relations []Relation
	if err := s.client.do(ctx, "GET", "/relations", nil, &relations); err != nil {
		return nil, err
	}
	var matched []Relation
	for _, rel := range relations {
		if rel.Collection == collection || rel.RelatedCollection == collection {
			matched = append(matched, rel)
		}
	}
	return matched, nil
}

// CreateRelation declares a new relation between two collections.
func (s *CollectionsService) CreateRelation(ctx context.Context, rel Relation) error {
	return s.client.do(ctx, "POST", "/relations", rel, nil)
}

// Duplicate recreates the schema of a collection under a new name: the
// collection metadata, its non-primary fields, and its relations.
func (s *CollectionsService) Duplicate(ctx context.Context, source, target string) error {
	meta, err := s.Get(ctx, source)
	if err != nil {
		return err
	}
	meta["collection"] = target
	if m, ok := meta["meta"].(map[string]any); ok {
		m["collection"] = target
	}
	if schema, ok := meta["schema"].(map[string]any); ok {
		schema["name"] = target
	}
	if _, err := s.Create(ctx, meta); err != nil {
		return err
	}

	fields, err := s.Fields(ctx, source)
	if err != nil {
		return err
	}
	for _, field := range fields {
		if schema, ok := field["schema"].(map[string]any); ok {
			if pk, _ := schema["is_primary_key"].(bool); pk {
				// The primary key is created with the collection itself.
				continue
			}
			schema["table"] = target
		}
		field["collection"] = target
		if m, ok := field["meta"].(map[string]any); ok {
			m["collection"] = target
		}
		name, _ := field["field"].(string)
		if err := s.client.do(ctx, "POST", "/fields/"+target, field, nil); err != nil {
			return fmt.Errorf("duplicate field %q: %w", name, err)
		}
	}

	relations, err := s.Relations(ctx, source)
	if err != nil {
		return err
	}
	for _, rel := range relations {
		if rel.Collection == source {
			rel.Collection = target
		}
		if rel.RelatedCollection == source {
			rel.RelatedCollection = target
		}
		if err := s.CreateRelation(ctx, rel); err != nil {
			return fmt.Errorf("duplicate relation %s.%s: %w", rel.Collection, rel.Field, err)
		}
	}
	return nil
}
