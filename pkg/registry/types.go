package registry

import (
	"fmt"
	"sort"
	"strings"
)

// FieldType is the simplified enum for query-friendly field kinds.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeInteger  FieldType = "integer"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "datetime"
)

// RelationKind enumerates the supported relation flavours between models.
type RelationKind string

const (
	RelationForeignKey RelationKind = "fk"
	RelationOneToOne   RelationKind = "o2o"
	RelationManyToMany RelationKind = "m2m"
)

// Field describes a single queryable column on a model.
type Field struct {
	Name  string    `json:"name" yaml:"name"`
	Type  FieldType `json:"type" yaml:"type"`
	Blank bool      `json:"blank,omitempty" yaml:"blank,omitempty"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
}

// DisplayLabel returns the human label, falling back to a capitalized name.
func (f Field) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return capitalize(f.Name)
}

// Through identifies the intermediate model of a many-to-many relation.
type Through struct {
	App   string `json:"app" yaml:"app"`
	Model string `json:"model" yaml:"model"`
	Field string `json:"field" yaml:"field"`
}

// Key returns the "App.Model" identifier of the through model.
func (t Through) Key() string { return t.App + "." + t.Model }

// Relation links a source field to a target model/field pair.
type Relation struct {
	Source      string       `json:"source" yaml:"source"`
	TargetApp   string       `json:"target_app" yaml:"target_app"`
	TargetModel string       `json:"target_model" yaml:"target_model"`
	TargetField string       `json:"target_field" yaml:"target_field"`
	Kind        RelationKind `json:"kind" yaml:"kind"`
	Through     *Through     `json:"through,omitempty" yaml:"through,omitempty"`
}

// TargetKey returns the "App.Model" identifier of the relation target.
func (r Relation) TargetKey() string { return r.TargetApp + "." + r.TargetModel }

// Model is the schema/table abstraction the QBE UI exposes for browsing.
type Model struct {
	App       string     `json:"app" yaml:"app"`
	Name      string     `json:"name" yaml:"name"`
	Table     string     `json:"table,omitempty" yaml:"table,omitempty"`
	Fields    []Field    `json:"fields" yaml:"fields"`
	Relations []Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
	Collapse  bool       `json:"collapse,omitempty" yaml:"collapse,omitempty"`
}

// Key returns the canonical "App.Model" identifier.
func (m Model) Key() string { return m.App + "." + m.Name }

// TableName resolves the SQL table, deriving "<app>_<model>" when unset.
func (m Model) TableName() string {
	if strings.TrimSpace(m.Table) != "" {
		return m.Table
	}
	return strings.ToLower(m.App) + "_" + strings.ToLower(m.Name)
}

// Field looks up a field by name.
func (m Model) Field(name string) (Field, bool) {
	for _, field := range m.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames returns field names in declaration order.
func (m Model) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for _, field := range m.Fields {
		names = append(names, field.Name)
	}
	return names
}

// Registry maps application titles to the models they expose. It is the
// server-side equivalent of the nested mapping the models panel iterates.
type Registry struct {
	apps map[string]map[string]Model
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{apps: make(map[string]map[string]Model)}
}

// Add registers a model, rejecting duplicates within the same app.
func (r *Registry) Add(model Model) error {
	app := strings.TrimSpace(model.App)
	name := strings.TrimSpace(model.Name)
	if app == "" || name == "" {
		return fmt.Errorf("registry: model needs both app and name, got %q.%q", model.App, model.Name)
	}
	if r.apps == nil {
		r.apps = make(map[string]map[string]Model)
	}
	models, ok := r.apps[app]
	if !ok {
		models = make(map[string]Model)
		r.apps[app] = models
	}
	if _, exists := models[name]; exists {
		return fmt.Errorf("registry: duplicate model %s.%s", app, name)
	}
	models[name] = model
	return nil
}

// Apps returns application titles in sorted order.
func (r *Registry) Apps() []string {
	if r == nil || len(r.apps) == 0 {
		return nil
	}
	apps := make([]string, 0, len(r.apps))
	for app := range r.apps {
		apps = append(apps, app)
	}
	sort.Strings(apps)
	return apps
}

// Models returns the models of an app sorted by name.
func (r *Registry) Models(app string) []Model {
	if r == nil {
		return nil
	}
	byName, ok := r.apps[app]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	models := make([]Model, 0, len(names))
	for _, name := range names {
		models = append(models, byName[name])
	}
	return models
}

// Model looks up a model by app and name.
func (r *Registry) Model(app, name string) (Model, bool) {
	if r == nil {
		return Model{}, false
	}
	byName, ok := r.apps[app]
	if !ok {
		return Model{}, false
	}
	model, ok := byName[name]
	return model, ok
}

// ModelByKey resolves an "App.Model" identifier.
func (r *Registry) ModelByKey(key string) (Model, bool) {
	app, name, ok := SplitKey(key)
	if !ok {
		return Model{}, false
	}
	return r.Model(app, name)
}

// Len reports the total number of registered models.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	total := 0
	for _, models := range r.apps {
		total += len(models)
	}
	return total
}

// Validate ensures every relation resolves to a registered model and field.
func (r *Registry) Validate() error {
	for _, app := range r.Apps() {
		for _, model := range r.Models(app) {
			for _, rel := range model.Relations {
				if _, ok := model.Field(rel.Source); !ok {
					return fmt.Errorf("registry: %s relation source %q is not a field", model.Key(), rel.Source)
				}
				target, ok := r.Model(rel.TargetApp, rel.TargetModel)
				if !ok {
					return fmt.Errorf("registry: %s relation targets unknown model %s", model.Key(), rel.TargetKey())
				}
				if rel.TargetField != "" {
					if _, ok := target.Field(rel.TargetField); !ok {
						return fmt.Errorf("registry: %s relation targets unknown field %s.%s", model.Key(), rel.TargetKey(), rel.TargetField)
					}
				}
				if rel.Through != nil {
					if _, ok := r.Model(rel.Through.App, rel.Through.Model); !ok {
						return fmt.Errorf("registry: %s relation through unknown model %s", model.Key(), rel.Through.Key())
					}
				}
			}
		}
	}
	return nil
}

// SplitKey splits an "App.Model" identifier into its parts.
func SplitKey(key string) (app, model string, ok bool) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
