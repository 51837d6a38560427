package registry

import (
	"encoding/json"
	"sort"
)

// Edge is one hop of the relation graph: follow SourceField on the current
// model to reach TargetField on the Target model.
type Edge struct {
	SourceField string
	Target      string
	TargetField string
}

// Graph is an adjacency map keyed by "App.Model" identifiers.
type Graph map[string][]Edge

// GraphOptions tweaks graph construction.
type GraphOptions struct {
	// Directed keeps edges pointing from relation source to target only.
	// The default mirrors relations so join paths work in both directions.
	Directed bool
}

// Graph flattens the registry relations into an adjacency map. Many-to-many
// relations route through their intermediate model so join discovery walks
// the pivot table instead of jumping across it.
func (r *Registry) Graph(opts GraphOptions) Graph {
	graph := make(Graph)
	for _, app := range r.Apps() {
		for _, model := range r.Models(app) {
			key := model.Key()
			for _, rel := range model.Relations {
				edge := Edge{
					SourceField: rel.Source,
					Target:      rel.TargetKey(),
					TargetField: rel.TargetField,
				}
				if rel.Through != nil {
					edge.Target = rel.Through.Key()
					edge.TargetField = rel.Through.Field
				}
				if !containsEdge(graph[key], edge) {
					graph[key] = append(graph[key], edge)
				}
				if opts.Directed {
					continue
				}
				reverse := Edge{
					SourceField: edge.TargetField,
					Target:      key,
					TargetField: edge.SourceField,
				}
				if !containsEdge(graph[edge.Target], reverse) {
					graph[edge.Target] = append(graph[edge.Target], reverse)
				}
			}
		}
	}
	for key, edges := range graph {
		if len(edges) == 0 {
			delete(graph, key)
		}
	}
	return graph
}

func containsEdge(edges []Edge, candidate Edge) bool {
	for _, edge := range edges {
		if edge == candidate {
			return true
		}
	}
	return false
}

type diagramTarget struct {
	Name    string         `json:"name"`
	Model   string         `json:"model"`
	Field   string         `json:"field"`
	Through *diagramTarget `json:"through,omitempty"`
}

type diagramField struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Blank  bool           `json:"blank"`
	Label  string         `json:"label"`
	Target *diagramTarget `json:"target,omitempty"`
}

type diagramRelation struct {
	Target diagramTarget `json:"target"`
	Type   string        `json:"type"`
	Source string        `json:"source"`
	Arrows string        `json:"arrows"`
}

type diagramModel struct {
	Name      string                  `json:"name"`
	Fields    map[string]diagramField `json:"fields"`
	Relations []diagramRelation       `json:"relations"`
	Collapse  bool                    `json:"collapse"`
}

// Diagram returns the nested payload the diagram tab consumes: app title to
// model name to model description, relations included.
func (r *Registry) Diagram() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, app := range r.Apps() {
		models := make(map[string]any)
		for _, model := range r.Models(app) {
			models[model.Name] = buildDiagramModel(model)
		}
		out[app] = models
	}
	return out
}

// DiagramJSON serializes the diagram payload with stable key ordering.
func (r *Registry) DiagramJSON() ([]byte, error) {
	return json.Marshal(r.Diagram())
}

func buildDiagramModel(model Model) diagramModel {
	dm := diagramModel{
		Name:      model.Name,
		Fields:    make(map[string]diagramField, len(model.Fields)),
		Relations: []diagramRelation{},
		Collapse:  model.Collapse,
	}
	targets := make(map[string]*diagramTarget, len(model.Relations))
	for _, rel := range model.Relations {
		target := diagramTarget{
			Name:  rel.TargetApp,
			Model: rel.TargetModel,
			Field: rel.TargetField,
		}
		if rel.Through != nil {
			target.Through = &diagramTarget{
				Name:  rel.Through.App,
				Model: rel.Through.Model,
				Field: rel.Through.Field,
			}
		}
		dm.Relations = append(dm.Relations, diagramRelation{
			Target: target,
			Type:   string(rel.Kind),
			Source: rel.Source,
		})
		copied := target
		targets[rel.Source] = &copied
	}
	sort.Slice(dm.Relations, func(i, j int) bool {
		return dm.Relations[i].Source < dm.Relations[j].Source
	})
	for _, field := range model.Fields {
		df := diagramField{
			Name:  field.Name,
			Type:  string(field.Type),
			Blank: field.Blank,
			Label: field.DisplayLabel(),
		}
		if target, ok := targets[field.Name]; ok {
			df.Target = target
		}
		dm.Fields[field.Name] = df
	}
	return dm
}
