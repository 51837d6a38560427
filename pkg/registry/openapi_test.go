package registry

import (
	"context"
	"testing"
)

const sampleOpenAPI = `
openapi: 3.0.3
info:
  title: Blog API
  version: 1.0.0
paths: {}
components:
  schemas:
    User:
      type: object
      x-qbe-app: Auth
      x-qbe-table: auth_user
      required: [id, username]
      properties:
        id:
          type: integer
        username:
          type: string
          title: Login name
        created_at:
          type: string
          format: date-time
    Post:
      type: object
      x-qbe-app: Blog
      required: [id, title]
      properties:
        id:
          type: integer
        title:
          type: string
        published_on:
          type: string
          format: date
        author_id:
          type: integer
          x-qbe-relation:
            target: Auth.User
            field: id
    Health:
      type: string
`

func TestLoadOpenAPI_BuildsModelsFromSchemas(t *testing.T) {
	reg, err := LoadOpenAPI(context.Background(), []byte(sampleOpenAPI))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Non-object schemas are skipped.
	if reg.Len() != 2 {
		t.Fatalf("expected 2 models, got %d", reg.Len())
	}

	user, ok := reg.Model("Auth", "User")
	if !ok {
		t.Fatal("expected Auth.User from x-qbe-app")
	}
	if user.TableName() != "auth_user" {
		t.Fatalf("expected x-qbe-table to win, got %q", user.TableName())
	}
	username, ok := user.Field("username")
	if !ok {
		t.Fatal("expected username field")
	}
	if username.Label != "Login name" {
		t.Fatalf("expected schema title as label, got %q", username.Label)
	}
	if username.Blank {
		t.Fatal("required properties should not be blank")
	}
	created, _ := user.Field("created_at")
	if created.Type != FieldTypeDateTime {
		t.Fatalf("expected datetime for date-time format, got %q", created.Type)
	}
	if !created.Blank {
		t.Fatal("optional properties should be blank")
	}

	post, ok := reg.Model("Blog", "Post")
	if !ok {
		t.Fatal("expected Blog.Post to be registered")
	}
	published, _ := post.Field("published_on")
	if published.Type != FieldTypeDate {
		t.Fatalf("expected date type, got %q", published.Type)
	}
	if len(post.Relations) != 1 {
		t.Fatalf("expected 1 relation, got %d", len(post.Relations))
	}
	rel := post.Relations[0]
	if rel.Source != "author_id" || rel.TargetKey() != "Auth.User" || rel.TargetField != "id" {
		t.Fatalf("unexpected relation: %#v", rel)
	}
}

func TestLoadOpenAPI_RejectsEmptyDocuments(t *testing.T) {
	if _, err := LoadOpenAPI(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty document")
	}
	noSchemas := `
openapi: 3.0.3
info:
  title: Empty
  version: 1.0.0
paths: {}
`
	if _, err := LoadOpenAPI(context.Background(), []byte(noSchemas)); err == nil {
		t.Fatal("expected error for document without schemas")
	}
}
