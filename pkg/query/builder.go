// Package query turns a validated condition formset into an executable SQL
// statement. Joins between the referenced models are discovered on the
// relation graph and expressed as WHERE equalities in the implicit-join
// style, so the generated statement stays readable in the results view.
package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-qbe/pkg/formset"
	"github.com/goliatone/go-qbe/pkg/graph"
	"github.com/goliatone/go-qbe/pkg/registry"
)

type column struct {
	Table string
	Name  string
}

func (c column) SQL() string {
	return fmt.Sprintf("%q.%q", c.Table, c.Name)
}

type predicate struct {
	SQL    string
	Params []any
}

type sortTerm struct {
	Column     column
	Descending bool
}

// Query is a built SELECT statement plus its parameters.
type Query struct {
	selects []column
	tables  []string
	joins   []string
	wheres  []predicate
	sorts   []sortTerm
}

// Build constructs a Query from a valid formset. The formset must have been
// validated against the same registry first.
func Build(reg *registry.Registry, fs *formset.FormSet) (*Query, error) {
	if !fs.IsValid() {
		return nil, fmt.Errorf("query: formset is not valid")
	}

	q := &Query{}
	for _, form := range fs.Forms {
		condition := form.Condition
		model, ok := reg.ModelByKey(condition.Model)
		if !ok {
			return nil, fmt.Errorf("query: unknown model %q", condition.Model)
		}
		col := column{Table: model.TableName(), Name: condition.Field}
		q.addTable(col.Table)
		if condition.Show {
			q.selects = append(q.selects, col)
		}
		if condition.Lookup != "" {
			pred, err := buildPredicate(col, condition.Lookup, condition.Value)
			if err != nil {
				return nil, err
			}
			q.wheres = append(q.wheres, pred)
		}
		switch condition.Sort {
		case formset.SortAscending:
			q.sorts = append(q.sorts, sortTerm{Column: col})
		case formset.SortDescending:
			q.sorts = append(q.sorts, sortTerm{Column: col, Descending: true})
		}
	}
	if len(q.selects) == 0 {
		return nil, fmt.Errorf("query: no condition row is marked as shown")
	}
	if err := q.addJoins(reg, fs.SelectedModels()); err != nil {
		return nil, err
	}
	return q, nil
}

// addJoins threads join equalities between every referenced model following
// the shortest relation path, pulling intermediate tables into FROM.
func (q *Query) addJoins(reg *registry.Registry, models []string) error {
	if len(models) < 2 {
		return nil
	}
	g := reg.Graph(registry.GraphOptions{})
	anchor := models[0]
	for _, target := range models[1:] {
		path := graph.ShortestPath(g, anchor, target)
		if path == nil {
			return fmt.Errorf("query: no join path between %s and %s", anchor, target)
		}
		for i := 0; i < len(path)-1; i++ {
			edge, ok := graph.EdgeBetween(g, path[i], path[i+1])
			if !ok {
				return fmt.Errorf("query: relation graph is missing edge %s -> %s", path[i], path[i+1])
			}
			left, err := tableOf(reg, path[i])
			if err != nil {
				return err
			}
			right, err := tableOf(reg, path[i+1])
			if err != nil {
				return err
			}
			q.addTable(left)
			q.addTable(right)
			join := fmt.Sprintf("%s = %s",
				column{Table: left, Name: edge.SourceField}.SQL(),
				column{Table: right, Name: edge.TargetField}.SQL())
			q.addJoin(join)
		}
	}
	return nil
}

// SQL returns the parameterized statement and its parameters.
func (q *Query) SQL() (string, []any) {
	var builder strings.Builder
	builder.WriteString("SELECT ")
	for i, col := range q.selects {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(col.SQL())
	}
	builder.WriteString(" FROM ")
	for i, table := range q.tables {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(fmt.Sprintf("%q", table))
	}

	var params []any
	conditions := append([]string(nil), q.joins...)
	for _, pred := range q.wheres {
		conditions = append(conditions, pred.SQL)
		params = append(params, pred.Params...)
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	if len(q.sorts) > 0 {
		builder.WriteString(" ORDER BY ")
		for i, term := range q.sorts {
			if i > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(term.Column.SQL())
			if term.Descending {
				builder.WriteString(" DESC")
			}
		}
	}
	return builder.String(), params
}

// CountSQL returns a statement counting the full result set.
func (q *Query) CountSQL() (string, []any) {
	var builder strings.Builder
	builder.WriteString("SELECT COUNT(*) FROM ")
	for i, table := range q.tables {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(fmt.Sprintf("%q", table))
	}
	var params []any
	conditions := append([]string(nil), q.joins...)
	for _, pred := range q.wheres {
		conditions = append(conditions, pred.SQL)
		params = append(params, pred.Params...)
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	return builder.String(), params
}

// RawSQL renders the statement for display. With inlineParams the positional
// markers are replaced by quoted literal values.
func (q *Query) RawSQL(inlineParams bool) string {
	sql, params := q.SQL()
	if !inlineParams || len(params) == 0 {
		return sql
	}
	var builder strings.Builder
	next := 0
	for _, r := range sql {
		if r == '?' && next < len(params) {
			builder.WriteString(quoteLiteral(params[next]))
			next++
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

func (q *Query) addTable(table string) {
	for _, existing := range q.tables {
		if existing == table {
			return
		}
	}
	q.tables = append(q.tables, table)
}

func (q *Query) addJoin(join string) {
	for _, existing := range q.joins {
		if existing == join {
			return
		}
	}
	q.joins = append(q.joins, join)
}

func tableOf(reg *registry.Registry, key string) (string, error) {
	model, ok := reg.ModelByKey(key)
	if !ok {
		return "", fmt.Errorf("query: unknown model %q", key)
	}
	return model.TableName(), nil
}

func quoteLiteral(param any) string {
	switch v := param.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case nil:
		return "NULL"
	default:
		return fmt.Sprint(v)
	}
}
