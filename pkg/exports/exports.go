// Package exports renders query results into downloadable formats. The
// format registry lets hosts add their own exporters next to the built-in
// CSV and JSON ones.
package exports

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Exporter writes a labeled result set into a specific output format.
type Exporter interface {
	Name() string
	ContentType() string
	FileExtension() string
	Write(w io.Writer, labels []string, rows [][]any) error
}

// Registry maps format names to exporters.
type Registry struct {
	mu        sync.RWMutex
	exporters map[string]Exporter
}

// NewRegistry constructs an empty format registry.
func NewRegistry() *Registry {
	return &Registry{exporters: make(map[string]Exporter)}
}

// DefaultRegistry returns a registry preloaded with the CSV and JSON formats.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	_ = reg.Register(CSV{})
	_ = reg.Register(JSON{})
	return reg
}

// Register adds an exporter under its name.
func (r *Registry) Register(exporter Exporter) error {
	if exporter == nil {
		return fmt.Errorf("exports: exporter is nil")
	}
	name := strings.ToLower(strings.TrimSpace(exporter.Name()))
	if name == "" {
		return fmt.Errorf("exports: exporter has no name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.exporters[name]; exists {
		return fmt.Errorf("exports: format %q already registered", name)
	}
	r.exporters[name] = exporter
	return nil
}

// Lookup resolves an exporter by format name.
func (r *Registry) Lookup(name string) (Exporter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exporter, ok := r.exporters[strings.ToLower(strings.TrimSpace(name))]
	return exporter, ok
}

// Names returns the registered format names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
