package query

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-qbe/pkg/formset"
)

func TestBuildPredicate_CoversEveryLookup(t *testing.T) {
	col := column{Table: "blog_post", Name: "title"}
	ref := `"blog_post"."title"`

	cases := []struct {
		lookup string
		value  string
		sql    string
		params []any
	}{
		{formset.LookupExact, "go", ref + " = ?", []any{"go"}},
		{formset.LookupIExact, "go", "LOWER(" + ref + ") = LOWER(?)", []any{"go"}},
		{formset.LookupContains, "go", ref + ` LIKE ? ESCAPE '\'`, []any{"%go%"}},
		{formset.LookupIContains, "go", "LOWER(" + ref + `) LIKE LOWER(?) ESCAPE '\'`, []any{"%go%"}},
		{formset.LookupStartsWith, "go", ref + ` LIKE ? ESCAPE '\'`, []any{"go%"}},
		{formset.LookupEndsWith, "go", ref + ` LIKE ? ESCAPE '\'`, []any{"%go"}},
		{formset.LookupGT, "3", ref + " > ?", []any{"3"}},
		{formset.LookupGTE, "3", ref + " >= ?", []any{"3"}},
		{formset.LookupLT, "3", ref + " < ?", []any{"3"}},
		{formset.LookupLTE, "3", ref + " <= ?", []any{"3"}},
		{formset.LookupIn, "a, b,c", ref + " IN (?, ?, ?)", []any{"a", "b", "c"}},
		{formset.LookupIsNull, "true", ref + " IS NULL", nil},
	}
	for _, tc := range cases {
		pred, err := buildPredicate(col, tc.lookup, tc.value)
		if err != nil {
			t.Fatalf("%s: %v", tc.lookup, err)
		}
		if pred.SQL != tc.sql {
			t.Fatalf("%s: got %q want %q", tc.lookup, pred.SQL, tc.sql)
		}
		if diff := cmp.Diff(tc.params, pred.Params); diff != "" {
			t.Fatalf("%s params mismatch (-want +got):\n%s", tc.lookup, diff)
		}
	}
}

func TestBuildPredicate_IsNullFalseNegates(t *testing.T) {
	col := column{Table: "t", Name: "c"}
	for _, falsy := range []string{"false", "0", "no", "off", ""} {
		pred, err := buildPredicate(col, formset.LookupIsNull, falsy)
		if err != nil {
			t.Fatalf("%q: %v", falsy, err)
		}
		if pred.SQL != `"t"."c" IS NOT NULL` {
			t.Fatalf("%q: unexpected sql %q", falsy, pred.SQL)
		}
	}
}

func TestBuildPredicate_EscapesLikeWildcards(t *testing.T) {
	col := column{Table: "t", Name: "c"}
	pred, err := buildPredicate(col, formset.LookupContains, "50%_done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `%50\%\_done%`
	if pred.Params[0] != want {
		t.Fatalf("got %q want %q", pred.Params[0], want)
	}
}

// Wildcard-bearing criteria must match literally when run against a real
// database, not degrade into match-anything or match-nothing patterns.
func TestBuildPredicate_WildcardValuesMatchLiterally(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE TABLE notes (body TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, body := range []string{"50% done", "plain", "under_score", "understated"} {
		if _, err := db.ExecContext(ctx, `INSERT INTO notes (body) VALUES (?)`, body); err != nil {
			t.Fatalf("insert %q: %v", body, err)
		}
	}

	col := column{Table: "notes", Name: "body"}
	cases := []struct {
		lookup string
		value  string
		want   int
	}{
		{formset.LookupContains, "50%", 1},
		{formset.LookupContains, "%", 1},
		{formset.LookupIContains, "50% DONE", 1},
		{formset.LookupStartsWith, "under_", 1},
		{formset.LookupEndsWith, "_score", 1},
	}
	for _, tc := range cases {
		pred, err := buildPredicate(col, tc.lookup, tc.value)
		if err != nil {
			t.Fatalf("%s: %v", tc.lookup, err)
		}
		var count int
		stmt := `SELECT COUNT(*) FROM notes WHERE ` + pred.SQL
		if err := db.QueryRowContext(ctx, stmt, pred.Params...).Scan(&count); err != nil {
			t.Fatalf("%s %q: query: %v", tc.lookup, tc.value, err)
		}
		if count != tc.want {
			t.Fatalf("%s %q: got %d matches, want %d", tc.lookup, tc.value, count, tc.want)
		}
	}
}

func TestBuildPredicate_RejectsUnknownLookupAndEmptyIn(t *testing.T) {
	col := column{Table: "t", Name: "c"}
	if _, err := buildPredicate(col, "regex", "x"); err == nil {
		t.Fatal("expected unknown lookup error")
	}
	if _, err := buildPredicate(col, formset.LookupIn, " , "); err == nil {
		t.Fatal("expected empty in-list error")
	}
}
