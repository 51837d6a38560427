package registry

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type documentModel struct {
	Table     string          `yaml:"table"`
	Collapse  bool            `yaml:"collapse"`
	Fields    []Field         `yaml:"fields"`
	Relations []relationEntry `yaml:"relations"`
}

type relationEntry struct {
	Source  string `yaml:"source"`
	Target  string `yaml:"target"`
	Field   string `yaml:"field"`
	Kind    string `yaml:"kind"`
	Through string `yaml:"through"`
	// ThroughField names the join column on the through model.
	ThroughField string `yaml:"through_field"`
}

type document struct {
	Apps map[string]struct {
		Models map[string]documentModel `yaml:"models"`
	} `yaml:"apps"`
}

// Load parses a YAML registry document.
func Load(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("registry: parse document: %w", err)
	}
	reg := New()
	for app, group := range doc.Apps {
		for name, entry := range group.Models {
			model, err := buildModel(app, name, entry)
			if err != nil {
				return nil, err
			}
			if err := reg.Add(model); err != nil {
				return nil, err
			}
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadFile reads and parses a registry document from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	return Load(data)
}

// LoadFS reads and parses a registry document from a filesystem.
func LoadFS(fsys fs.FS, path string) (*Registry, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	return Load(data)
}

func buildModel(app, name string, entry documentModel) (Model, error) {
	model := Model{
		App:      app,
		Name:     name,
		Table:    entry.Table,
		Fields:   entry.Fields,
		Collapse: entry.Collapse,
	}
	for i, field := range model.Fields {
		if field.Name == "" {
			return Model{}, fmt.Errorf("registry: %s.%s field %d has no name", app, name, i)
		}
		if field.Type == "" {
			model.Fields[i].Type = FieldTypeString
		}
	}
	for _, raw := range entry.Relations {
		rel, err := buildRelation(app, name, raw)
		if err != nil {
			return Model{}, err
		}
		model.Relations = append(model.Relations, rel)
	}
	return model, nil
}

func buildRelation(app, name string, raw relationEntry) (Relation, error) {
	targetApp, targetModel, ok := SplitKey(raw.Target)
	if !ok {
		return Relation{}, fmt.Errorf("registry: %s.%s relation target %q is not App.Model", app, name, raw.Target)
	}
	rel := Relation{
		Source:      raw.Source,
		TargetApp:   targetApp,
		TargetModel: targetModel,
		TargetField: raw.Field,
		Kind:        RelationKind(raw.Kind),
	}
	if rel.TargetField == "" {
		rel.TargetField = "id"
	}
	if rel.Kind == "" {
		rel.Kind = RelationForeignKey
	}
	switch rel.Kind {
	case RelationForeignKey, RelationOneToOne, RelationManyToMany:
	default:
		return Relation{}, fmt.Errorf("registry: %s.%s relation kind %q is unknown", app, name, raw.Kind)
	}
	if raw.Through != "" {
		throughApp, throughModel, ok := SplitKey(raw.Through)
		if !ok {
			return Relation{}, fmt.Errorf("registry: %s.%s relation through %q is not App.Model", app, name, raw.Through)
		}
		field := raw.ThroughField
		if field == "" {
			field = "id"
		}
		rel.Through = &Through{App: throughApp, Model: throughModel, Field: field}
	}
	return rel, nil
}
