package query_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-qbe/pkg/query"
	"github.com/goliatone/go-qbe/pkg/testsupport"
)

func TestExecute_FetchesJoinedRows(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	db := testsupport.SampleDB(t)
	fs := parseValid(t, reg, testsupport.SampleSubmission())

	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	results, err := q.Execute(context.Background(), db, query.ExecOptions{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(results.Rows) != 3 {
		t.Fatalf("expected 3 joined rows, got %#v", results.Rows)
	}
	// Sorted ascending by title: Drafts, Hello world, Queries.
	if results.Rows[0][0] != "Drafts" || results.Rows[0][1] != "ada" {
		t.Fatalf("unexpected first row: %#v", results.Rows[0])
	}
	if results.Rows[2][0] != "Queries" || results.Rows[2][1] != "brian" {
		t.Fatalf("unexpected last row: %#v", results.Rows[2])
	}
}

func TestExecute_PaginatesAndNumbersRows(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	db := testsupport.SampleDB(t)
	fs := parseValid(t, reg, testsupport.SampleSubmission())

	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	results, err := q.Execute(context.Background(), db, query.ExecOptions{
		Limit:      2,
		Offset:     2,
		RowNumbers: true,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(results.Rows) != 1 {
		t.Fatalf("expected 1 row on the second page, got %#v", results.Rows)
	}
	// Row numbers continue across pages.
	if results.Rows[0][0] != "3" {
		t.Fatalf("expected row number 3, got %#v", results.Rows[0])
	}
}

func TestCount_ReturnsFullResultSize(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	db := testsupport.SampleDB(t)
	fs := parseValid(t, reg, testsupport.SampleSubmission())

	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	count, err := q.Count(context.Background(), db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}

func TestExecute_FilterLimitsRows(t *testing.T) {
	reg := testsupport.SampleRegistry(t)
	db := testsupport.SampleDB(t)
	fs := parseValid(t, reg, singleRow("Blog.Post", "title", map[string]string{
		"criteria_0": "exact",
		"criteria_1": "Queries",
	}))

	q, err := query.Build(reg, fs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	results, err := q.Execute(context.Background(), db, query.ExecOptions{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(results.Rows) != 1 || results.Rows[0][0] != "Queries" {
		t.Fatalf("unexpected rows: %#v", results.Rows)
	}
}
