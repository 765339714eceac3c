package directus

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/asaidimu/go-directus/core/query"
	"github.com/asaidimu/go-directus/sqlitecache"
)

// defaultBatchSize is the number of records per request used by the bulk
// operations.
const defaultBatchSize = 100

// ItemsService exposes the item CRUD operations for a single collection.
type ItemsService struct {
	client     *Client
	collection string
}

// Items returns the item service for a collection.
func (c *Client) Items(collection string) *ItemsService {
	return &ItemsService{client: c, collection: collection}
}

func (s *ItemsService) path() string {
	return "/items/" + s.collection
}

// List returns the items matching the canonical query. A nil query returns
// the collection with API-default pagination. When a cache is configured the
// result is served from and written back to it.
func (s *ItemsService) List(ctx context.Context, q *query.Query) ([]query.Document, error) {
	var key string
	if s.client.cache != nil && q != nil {
		var err error
		key, err = sqlitecache.CacheKey(s.collection, *q)
		if err != nil {
			return nil, err
		}
		if payload, ok, err := s.client.cache.Get(ctx, key); err == nil && ok {
			var cached []query.Document
			if err := json.Unmarshal(payload, &cached); err == nil {
				s.client.logger.Debug("cache hit",
					zap.String("collection", s.collection), zap.String("key", key))
				return cached, nil
			}
		}
	}

	var items []query.Document
	if err := s.client.search(ctx, s.path(), q, &items); err != nil {
		return nil, err
	}

	if key != "" {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.client.cache.Put(ctx, key, payload); err != nil {
				s.client.logger.Warn("cache write failed", zap.Error(err))
			}
		}
	}
	return items, nil
}

// Get fetches a single item by primary key.
func (s *ItemsService) Get(ctx context.Context, id string) (query.Document, error) {
	var item query.Document
	if err := s.client.do(ctx, "GET", s.path()+"/"+id, nil, &item); err != nil {
		return nil, err
	}
	return item, nil
}

// Create inserts a new item and returns the created record.
func (s *ItemsService) Create(ctx context.Context, item any) (query.Document, error) {
	var created query.Document
	if err := s.client.do(ctx, "POST", s.path(), item, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update patches an item by primary key and returns the updated record.
func (s *ItemsService) Update(ctx context.Context, id string, item any) (query.Document, error) {
	var updated query.Document
	if err := s.client.do(ctx, "PATCH", s.path()+"/"+id, item, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an item by primary key.
func (s *ItemsService) Delete(ctx context.Context, id string) error {
	return s.client.do(ctx, "DELETE", s.path()+"/"+id, nil, nil)
}

// BulkInsert inserts items in batches. A non-positive batchSize falls back
// to the default of 100 records per request.
func (s *ItemsService) BulkInsert(ctx context.Context, items []query.Document, batchSize int) error {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		s.client.logger.Debug("bulk insert batch",
			zap.String("collection", s.collection),
			zap.Int("from", start), zap.Int("to", end), zap.Int("total", len(items)))
		if err := s.client.do(ctx, "POST", s.path(), items[start:end], nil); err != nil {
			return fmt.Errorf("bulk insert batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// DeleteAll removes every item in the collection, batching deletes by
// primary key.
func (s *ItemsService) DeleteAll(ctx context.Context) error {
	pk, err := s.client.Collections().PrimaryKeyField(ctx, s.collection)
	if err != nil {
		return err
	}
	pkName, _ := pk["field"].(string)
	if pkName == "" {
		return fmt.Errorf("directus: collection %q has no primary key field", s.collection)
	}

	// limit -1 asks the API for the full result set.
	all := -1
	items, err := s.List(ctx, &query.Query{Fields: []string{pkName}, Limit: &all})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	ids := make([]any, 0, len(items))
	for _, item := range items {
		ids = append(ids, item[pkName])
	}
	for start := 0; start < len(ids); start += defaultBatchSize {
		end := min(start+defaultBatchSize, len(ids))
		if err := s.client.do(ctx, "DELETE", s.path(), ids[start:end], nil); err != nil {
			return fmt.Errorf("delete batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}
