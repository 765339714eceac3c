package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/asaidimu/go-directus/core/query"
	"github.com/asaidimu/go-directus/core/sqlconv"
)

// Demonstrates the two ways of producing a canonical query - the fluent
// builder and the SQL converter - and evaluates the result against in-memory
// documents with the matcher.
func main() {
	built, err := query.NewQueryBuilder().
		Field("status", query.ComparisonOperatorEq, "published").
		OrCondition([]query.ConditionSet{
			{"views": {query.ComparisonOperatorGt: 1000}},
			{"tag": {query.ComparisonOperatorContains: "go"}},
		}).
		Sort("-views", "title").
		Limit(10).
		SelectFields("id", "title", "views").
		Build()
	if err != nil {
		log.Fatalf("build query: %v", err)
	}

	payload, _ := json.MarshalIndent(built.Payload(), "", "  ")
	fmt.Printf("builder payload:\n%s\n\n", payload)

	converted, err := sqlconv.NewConverter().Convert(
		`SELECT id, title, views FROM articles WHERE status = 'published' AND (views > 1000 OR tag LIKE '%go%') ORDER BY views DESC, title LIMIT 10`)
	if err != nil {
		log.Fatalf("convert sql: %v", err)
	}
	payload, _ = json.MarshalIndent(converted.Payload(), "", "  ")
	fmt.Printf("sql payload:\n%s\n\n", payload)

	docs := []query.Document{
		{"id": 1, "title": "Concurrency Patterns", "status": "published", "views": 4200, "tag": "golang"},
		{"id": 2, "title": "Draft Notes", "status": "draft", "views": 9000, "tag": "go"},
		{"id": 3, "title": "Release Checklist", "status": "published", "views": 12, "tag": "ops"},
	}
	matcher := query.NewMatcher(nil)
	matched, err := matcher.Filter(context.Background(), built.Filter, docs)
	if err != nil {
		log.Fatalf("filter documents: %v", err)
	}
	for _, doc := range matched {
		fmt.Printf("matched: %v %v\n", doc["id"], doc["title"])
	}
}
