package query

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// ExecOptions controls result pagination and presentation.
type ExecOptions struct {
	Limit  int
	Offset int
	// RowNumbers prepends a 1-based row number column, offset included.
	RowNumbers bool
}

// Results holds the fetched rows as display-ready cell values.
type Results struct {
	Rows [][]any
}

// Execute runs the query against db. A non-positive limit fetches everything.
func (q *Query) Execute(ctx context.Context, db *sql.DB, opts ExecOptions) (*Results, error) {
	stmt, params := q.SQL()
	if opts.Limit > 0 {
		stmt += " LIMIT ? OFFSET ?"
		params = append(params, opts.Limit, opts.Offset)
	}

	rows, err := db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("query: execute: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query: read columns: %w", err)
	}

	results := &Results{}
	index := 0
	for rows.Next() {
		cells := make([]any, len(columns))
		refs := make([]any, len(columns))
		for i := range cells {
			refs[i] = &cells[i]
		}
		if err := rows.Scan(refs...); err != nil {
			return nil, fmt.Errorf("query: scan row: %w", err)
		}
		for i, cell := range cells {
			if raw, ok := cell.([]byte); ok {
				cells[i] = string(raw)
			}
		}
		if opts.RowNumbers {
			number := strconv.Itoa(opts.Offset + index + 1)
			cells = append([]any{number}, cells...)
		}
		results.Rows = append(results.Rows, cells)
		index++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: iterate rows: %w", err)
	}
	return results, nil
}

// Count returns the size of the unpaginated result set.
func (q *Query) Count(ctx context.Context, db *sql.DB) (int, error) {
	stmt, params := q.CountSQL()
	var count int
	if err := db.QueryRowContext(ctx, stmt, params...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query: count: %w", err)
	}
	return count, nil
}
