// Package testsupport provides shared fixtures for the QBE test suites: a
// small blog-style registry, matching sqlite schema and seed rows, and sample
// form submissions.
package testsupport

import (
	"context"
	"database/sql"
	"net/url"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-qbe/pkg/registry"
)

// SampleRegistry builds the registry used across the test suites: a Blog app
// with related Post and Comment models plus an Auth app with the User they
// both point at.
func SampleRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New()
	add := func(model registry.Model) {
		if err := reg.Add(model); err != nil {
			t.Fatalf("add model %s: %v", model.Key(), err)
		}
	}

	add(registry.Model{
		App:   "Auth",
		Name:  "User",
		Table: "auth_user",
		Fields: []registry.Field{
			{Name: "id", Type: registry.FieldTypeInteger},
			{Name: "username", Type: registry.FieldTypeString},
			{Name: "email", Type: registry.FieldTypeString},
		},
	})
	add(registry.Model{
		App:   "Blog",
		Name:  "Post",
		Table: "blog_post",
		Fields: []registry.Field{
			{Name: "id", Type: registry.FieldTypeInteger},
			{Name: "title", Type: registry.FieldTypeString},
			{Name: "body", Type: registry.FieldTypeString},
			{Name: "author_id", Type: registry.FieldTypeInteger},
			{Name: "published", Type: registry.FieldTypeBoolean},
		},
		Relations: []registry.Relation{
			{
				Source:      "author_id",
				TargetApp:   "Auth",
				TargetModel: "User",
				TargetField: "id",
				Kind:        registry.RelationForeignKey,
			},
		},
	})
	add(registry.Model{
		App:   "Blog",
		Name:  "Comment",
		Table: "blog_comment",
		Fields: []registry.Field{
			{Name: "id", Type: registry.FieldTypeInteger},
			{Name: "post_id", Type: registry.FieldTypeInteger},
			{Name: "author_id", Type: registry.FieldTypeInteger},
			{Name: "body", Type: registry.FieldTypeString},
		},
		Relations: []registry.Relation{
			{
				Source:      "post_id",
				TargetApp:   "Blog",
				TargetModel: "Post",
				TargetField: "id",
				Kind:        registry.RelationForeignKey,
			},
			{
				Source:      "author_id",
				TargetApp:   "Auth",
				TargetModel: "User",
				TargetField: "id",
				Kind:        registry.RelationForeignKey,
			},
		},
	})

	if err := reg.Validate(); err != nil {
		t.Fatalf("validate sample registry: %v", err)
	}
	return reg
}

const sampleSchema = `
CREATE TABLE auth_user (
	id INTEGER PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL
);
CREATE TABLE blog_post (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	author_id INTEGER NOT NULL REFERENCES auth_user(id),
	published INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE blog_comment (
	id INTEGER PRIMARY KEY,
	post_id INTEGER NOT NULL REFERENCES blog_post(id),
	author_id INTEGER NOT NULL REFERENCES auth_user(id),
	body TEXT NOT NULL
);
`

const sampleSeed = `
INSERT INTO auth_user (id, username, email) VALUES
	(1, 'ada', 'ada@example.com'),
	(2, 'brian', 'brian@example.com');
INSERT INTO blog_post (id, title, body, author_id, published) VALUES
	(1, 'Hello world', 'first post', 1, 1),
	(2, 'Drafts', 'unpublished', 1, 0),
	(3, 'Queries', 'joins everywhere', 2, 1);
INSERT INTO blog_comment (id, post_id, author_id, body) VALUES
	(1, 1, 2, 'nice one'),
	(2, 1, 1, 'thanks'),
	(3, 3, 1, 'agreed');
`

// SampleDB opens an in-memory sqlite database seeded with data matching
// SampleRegistry.
func SampleDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sample db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, sampleSchema); err != nil {
		t.Fatalf("create sample schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, sampleSeed); err != nil {
		t.Fatalf("seed sample data: %v", err)
	}
	return db
}

// SampleSubmission returns form values for a two-row query joining posts to
// their authors: post titles sorted ascending plus the author username.
func SampleSubmission() url.Values {
	return url.Values{
		"form-TOTAL_FORMS":   {"2"},
		"form-INITIAL_FORMS": {"0"},
		"form-MAX_NUM_FORMS": {""},
		"limit":              {"100"},
		"form-0-show":        {"on"},
		"form-0-model":       {"Blog.Post"},
		"form-0-field":       {"title"},
		"form-0-sort":        {"asc"},
		"form-0-criteria_0":  {""},
		"form-0-criteria_1":  {""},
		"form-1-show":        {"on"},
		"form-1-model":       {"Auth.User"},
		"form-1-field":       {"username"},
		"form-1-sort":        {""},
		"form-1-criteria_0":  {""},
		"form-1-criteria_1":  {""},
	}
}
