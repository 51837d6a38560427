package query_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/goliatone/go-qbe/pkg/formset"
	"github.com/goliatone/go-qbe/pkg/query"
	"github.com/goliatone/go-qbe/pkg/registry"
	"github.com/goliatone/go-qbe/pkg/testsupport"
)

func parseValid(t *testing.T, reg *registry.Registry, values url.Values) *formset.FormSet {
	t.Helper()
	fs, err := formset.Parse(values)
	if err != nil {
		t.Fatalf("parse submission: %v", err)
	}
	if !fs.Validate(reg) {
		for _, form := range fs.Forms {
			t.Logf("row %d errors: %#v", form.Index, form.Errors)
		}
		t.Fatal("submission failed validation")
	}
	return fs
}

func singleRow(model, field string, extra map[string]string) url.Values {
	values := url.Values{
		"form-TOTAL_FORMS":   {"1"},
		"form-INITIAL_FORMS": {"0"},
		"form-MAX_NUM_FORMS": {""},
		"form-0-show":        {"on"},
		"form-0-model":       {model},
		"form-0-field":       {field},
	}
	for key, value := range extra {
		values.Set("form-0-"+key, value)
	}
	return values
}

func TestBuild_SingleModelSelect(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	fs := parseValid(t, reg, singleRow("Blog.Post", "title", map[string]string{"sort": "asc"}))

	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sql, params := q.SQL()
	want := `SELECT "blog_post"."title" FROM "blog_post" ORDER BY "blog_post"."title"`
	if sql != want {
		t.Fatalf("unexpected sql:\n got %s\nwant %s", sql, want)
	}
	if len(params) != 0 {
		t.Fatalf("expected no params, got %#v", params)
	}
}

func TestBuild_JoinsThroughRelations(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	fs := parseValid(t, reg, testsupport.SampleSubmission())

	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sql, _ := q.SQL()
	wantSelect := `SELECT "blog_post"."title", "auth_user"."username"`
	if !strings.HasPrefix(sql, wantSelect) {
		t.Fatalf("unexpected select clause: %s", sql)
	}
	if !strings.Contains(sql, `"blog_post"."author_id" = "auth_user"."id"`) {
		t.Fatalf("expected join equality in: %s", sql)
	}
	if !strings.Contains(sql, `FROM "blog_post", "auth_user"`) {
		t.Fatalf("expected both tables in FROM: %s", sql)
	}
	if !strings.HasSuffix(sql, `ORDER BY "blog_post"."title"`) {
		t.Fatalf("expected order clause: %s", sql)
	}
}

func TestBuild_FilterProducesParameter(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	fs := parseValid(t, reg, singleRow("Blog.Post", "title", map[string]string{
		"criteria_0": "icontains",
		"criteria_1": "hello",
	}))

	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sql, params := q.SQL()
	if !strings.Contains(sql, `LOWER("blog_post"."title") LIKE LOWER(?)`) {
		t.Fatalf("unexpected predicate: %s", sql)
	}
	if len(params) != 1 || params[0] != "%hello%" {
		t.Fatalf("unexpected params: %#v", params)
	}
}

func TestBuild_RequiresValidatedFormset(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	fs, err := formset.Parse(testsupport.SampleSubmission())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := query.Build(reg, fs); err == nil {
		t.Fatal("expected error for unvalidated formset")
	}
}

func TestBuild_NeedsAShownColumn(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	values := singleRow("Blog.Post", "title", map[string]string{
		"criteria_0": "exact",
		"criteria_1": "x",
	})
	values.Del("form-0-show")
	fs := parseValid(t, reg, values)
	if _, err := query.Build(reg, fs); err == nil {
		t.Fatal("expected error when no row is shown")
	}
}

func TestBuild_FailsWhenModelsAreNotConnected(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	if err := reg.Add(registry.Model{
		App:    "Shop",
		Name:   "Order",
		Fields: []registry.Field{{Name: "id", Type: registry.FieldTypeInteger}},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	values := testsupport.SampleSubmission()
	values.Set("form-1-model", "Shop.Order")
	values.Set("form-1-field", "id")
	fs := parseValid(t, reg, values)

	_, err := query.Build(reg, fs)
	if err == nil || !strings.Contains(err.Error(), "no join path") {
		t.Fatalf("expected join path error, got %v", err)
	}
}

func TestCountSQL_DropsSelectAndOrder(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	fs := parseValid(t, reg, testsupport.SampleSubmission())
	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sql, _ := q.CountSQL()
	if !strings.HasPrefix(sql, "SELECT COUNT(*) FROM ") {
		t.Fatalf("unexpected count sql: %s", sql)
	}
	if strings.Contains(sql, "ORDER BY") {
		t.Fatalf("count must not order: %s", sql)
	}
}

func TestRawSQL_InlinesQuotedLiterals(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	fs := parseValid(t, reg, singleRow("Auth.User", "username", map[string]string{
		"criteria_0": "exact",
		"criteria_1": "o'hara",
	}))
	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	raw := q.RawSQL(true)
	if strings.Contains(raw, "?") {
		t.Fatalf("expected markers to be replaced: %s", raw)
	}
	if !strings.Contains(raw, "'o''hara'") {
		t.Fatalf("expected escaped literal: %s", raw)
	}
	if withMarkers := q.RawSQL(false); !strings.Contains(withMarkers, "?") {
		t.Fatalf("expected markers to survive: %s", withMarkers)
	}
}
