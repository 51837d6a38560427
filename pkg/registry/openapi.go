package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	appExtensionKey      = "x-qbe-app"
	tableExtensionKey    = "x-qbe-table"
	relationExtensionKey = "x-qbe-relation"
	collapseExtensionKey = "x-qbe-collapse"
)

const defaultApp = "Default"

// LoadOpenAPI builds a registry from the component schemas of an OpenAPI
// document. Each object schema becomes a model; the x-qbe-app extension
// groups models into applications and x-qbe-relation declares relations on
// individual properties.
func LoadOpenAPI(ctx context.Context, data []byte) (*Registry, error) {
	if len(data) == 0 {
		return nil, errors.New("registry: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("registry: load openapi document: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, errors.New("registry: openapi document has no component schemas")
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := New()
	for _, name := range names {
		ref := doc.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		if !isObjectSchema(ref.Value) {
			continue
		}
		model, err := modelFromSchema(name, ref.Value)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(model); err != nil {
			return nil, err
		}
	}
	if reg.Len() == 0 {
		return nil, errors.New("registry: openapi document produced no models")
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func modelFromSchema(name string, schema *openapi3.Schema) (Model, error) {
	model := Model{
		App:   stringExtension(schema.Extensions, appExtensionKey, defaultApp),
		Name:  name,
		Table: stringExtension(schema.Extensions, tableExtensionKey, ""),
	}
	if collapse, ok := schema.Extensions[collapseExtensionKey].(bool); ok {
		model.Collapse = collapse
	}

	propNames := make([]string, 0, len(schema.Properties))
	for prop := range schema.Properties {
		propNames = append(propNames, prop)
	}
	sort.Strings(propNames)

	required := make(map[string]struct{}, len(schema.Required))
	for _, req := range schema.Required {
		required[req] = struct{}{}
	}

	for _, prop := range propNames {
		ref := schema.Properties[prop]
		if ref == nil || ref.Value == nil {
			continue
		}
		value := ref.Value
		_, isRequired := required[prop]
		model.Fields = append(model.Fields, Field{
			Name:  prop,
			Type:  fieldTypeFromSchema(value),
			Blank: !isRequired,
			Label: value.Title,
		})
		rel, ok, err := relationFromExtension(model.App, name, prop, value.Extensions)
		if err != nil {
			return Model{}, err
		}
		if ok {
			model.Relations = append(model.Relations, rel)
		}
	}
	return model, nil
}

func relationFromExtension(app, model, prop string, ext map[string]any) (Relation, bool, error) {
	raw, ok := ext[relationExtensionKey].(map[string]any)
	if !ok || len(raw) == 0 {
		return Relation{}, false, nil
	}
	target, _ := raw["target"].(string)
	targetApp, targetModel, ok := SplitKey(target)
	if !ok {
		// Targets without an app segment stay within the host app.
		if strings.TrimSpace(target) == "" {
			return Relation{}, false, fmt.Errorf("registry: %s.%s property %s relation has no target", app, model, prop)
		}
		targetApp, targetModel = app, target
	}
	rel := Relation{
		Source:      prop,
		TargetApp:   targetApp,
		TargetModel: targetModel,
		TargetField: "id",
		Kind:        RelationForeignKey,
	}
	if field, ok := raw["field"].(string); ok && field != "" {
		rel.TargetField = field
	}
	if kind, ok := raw["kind"].(string); ok && kind != "" {
		rel.Kind = RelationKind(kind)
	}
	if through, ok := raw["through"].(string); ok && through != "" {
		throughApp, throughModel, ok := SplitKey(through)
		if !ok {
			throughApp, throughModel = app, through
		}
		field, _ := raw["through_field"].(string)
		if field == "" {
			field = "id"
		}
		rel.Through = &Through{App: throughApp, Model: throughModel, Field: field}
	}
	return rel, true, nil
}

func fieldTypeFromSchema(schema *openapi3.Schema) FieldType {
	switch firstSchemaType(schema.Type) {
	case "integer":
		return FieldTypeInteger
	case "number":
		return FieldTypeNumber
	case "boolean":
		return FieldTypeBoolean
	case "string":
		switch schema.Format {
		case "date":
			return FieldTypeDate
		case "date-time":
			return FieldTypeDateTime
		}
		return FieldTypeString
	default:
		return FieldTypeString
	}
}

func isObjectSchema(schema *openapi3.Schema) bool {
	kind := firstSchemaType(schema.Type)
	return (kind == "object" || kind == "") && len(schema.Properties) > 0
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func stringExtension(ext map[string]any, key, fallback string) string {
	if value, ok := ext[key].(string); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
