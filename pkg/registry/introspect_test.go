package registry

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func introspectionDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	schema := `
CREATE TABLE auth_user (
	id INTEGER PRIMARY KEY,
	username TEXT NOT NULL,
	joined_at DATETIME,
	score REAL
);
CREATE TABLE blog_post (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	author_id INTEGER NOT NULL REFERENCES auth_user(id)
);
`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func TestIntrospect_BuildsModelsFromSchema(t *testing.T) {
	db := introspectionDB(t)
	reg, err := Introspect(context.Background(), db, "Main")
	if err != nil {
		t.Fatalf("introspect: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 models, got %d", reg.Len())
	}

	user, ok := reg.Model("Main", "AuthUser")
	if !ok {
		t.Fatalf("expected AuthUser model, apps: %#v", reg.Apps())
	}
	if user.TableName() != "auth_user" {
		t.Fatalf("unexpected table: %q", user.TableName())
	}
	id, _ := user.Field("id")
	if id.Type != FieldTypeInteger {
		t.Fatalf("unexpected id type: %q", id.Type)
	}
	joined, _ := user.Field("joined_at")
	if joined.Type != FieldTypeDateTime {
		t.Fatalf("unexpected joined_at type: %q", joined.Type)
	}
	score, _ := user.Field("score")
	if score.Type != FieldTypeNumber {
		t.Fatalf("unexpected score type: %q", score.Type)
	}
	username, _ := user.Field("username")
	if username.Blank {
		t.Fatal("NOT NULL columns must not be blank")
	}

	post, ok := reg.Model("Main", "BlogPost")
	if !ok {
		t.Fatal("expected BlogPost model")
	}
	if len(post.Relations) != 1 {
		t.Fatalf("expected declared foreign key, got %#v", post.Relations)
	}
	rel := post.Relations[0]
	if rel.Source != "author_id" || rel.TargetModel != "AuthUser" || rel.TargetField != "id" {
		t.Fatalf("unexpected relation: %#v", rel)
	}
}

func TestIntrospect_DefaultsAppName(t *testing.T) {
	db := introspectionDB(t)
	reg, err := Introspect(context.Background(), db, "  ")
	if err != nil {
		t.Fatalf("introspect: %v", err)
	}
	if apps := reg.Apps(); len(apps) != 1 || apps[0] != defaultApp {
		t.Fatalf("unexpected apps: %#v", apps)
	}
}

func TestModelNameFromTable(t *testing.T) {
	cases := map[string]string{
		"auth_user":  "AuthUser",
		"blog-post":  "BlogPost",
		"orders":     "Orders",
		"a_b_c":      "ABC",
		"_leading":   "Leading",
		"trailing_":  "Trailing",
		"double__ok": "DoubleOk",
	}
	for table, want := range cases {
		if got := modelNameFromTable(table); got != want {
			t.Fatalf("%q: got %q want %q", table, got, want)
		}
	}
}
