package registry

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Introspect builds a registry from a live sqlite connection: every user
// table becomes a model under the given app title and declared foreign keys
// become relations. Column affinities map onto the simplified field types.
func Introspect(ctx context.Context, db *sql.DB, app string) (*Registry, error) {
	if strings.TrimSpace(app) == "" {
		app = defaultApp
	}
	tables, err := listTables(ctx, db)
	if err != nil {
		return nil, err
	}

	reg := New()
	byTable := make(map[string]string, len(tables))
	for _, table := range tables {
		byTable[table] = modelNameFromTable(table)
	}

	for _, table := range tables {
		model := Model{
			App:   app,
			Name:  byTable[table],
			Table: table,
		}
		if err := loadColumns(ctx, db, table, &model); err != nil {
			return nil, err
		}
		if err := loadForeignKeys(ctx, db, table, app, byTable, &model); err != nil {
			return nil, err
		}
		if err := reg.Add(model); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("registry: list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("registry: scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func loadColumns(ctx context.Context, db *sql.DB, table string, model *Model) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return fmt.Errorf("registry: table_info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return fmt.Errorf("registry: scan column of %s: %w", table, err)
		}
		model.Fields = append(model.Fields, Field{
			Name:  name,
			Type:  fieldTypeFromAffinity(colType),
			Blank: notNull == 0 && pk == 0,
			Label: capitalize(name),
		})
	}
	return rows.Err()
}

func loadForeignKeys(ctx context.Context, db *sql.DB, table, app string, byTable map[string]string, model *Model) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%q)`, table))
	if err != nil {
		return fmt.Errorf("registry: foreign_key_list %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, seq            int
			target, from       string
			to                 sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &target, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return fmt.Errorf("registry: scan foreign key of %s: %w", table, err)
		}
		targetModel, ok := byTable[target]
		if !ok {
			continue
		}
		targetField := to.String
		if targetField == "" {
			targetField = "id"
		}
		model.Relations = append(model.Relations, Relation{
			Source:      from,
			TargetApp:   app,
			TargetModel: targetModel,
			TargetField: targetField,
			Kind:        RelationForeignKey,
		})
	}
	return rows.Err()
}

func fieldTypeFromAffinity(colType string) FieldType {
	upper := strings.ToUpper(colType)
	switch {
	case strings.Contains(upper, "INT"):
		return FieldTypeInteger
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"),
		strings.Contains(upper, "DOUB"), strings.Contains(upper, "NUMERIC"),
		strings.Contains(upper, "DECIMAL"):
		return FieldTypeNumber
	case strings.Contains(upper, "BOOL"):
		return FieldTypeBoolean
	case strings.Contains(upper, "DATETIME"), strings.Contains(upper, "TIMESTAMP"):
		return FieldTypeDateTime
	case strings.Contains(upper, "DATE"):
		return FieldTypeDate
	default:
		return FieldTypeString
	}
}

func modelNameFromTable(table string) string {
	parts := strings.FieldsFunc(table, func(r rune) bool { return r == '_' || r == '-' })
	var builder strings.Builder
	for _, part := range parts {
		builder.WriteString(capitalize(part))
	}
	if builder.Len() == 0 {
		return capitalize(table)
	}
	return builder.String()
}
