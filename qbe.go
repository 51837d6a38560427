// Package qbe assembles a Query-by-Example admin screen for relational data:
// hosts describe their models once, mount the component on a mux, and get a
// dynamic query builder with joins, results, bookmarks, and exports.
package qbe

import (
	"context"
	"io/fs"
	"net/url"

	"github.com/goliatone/go-qbe/pkg/bookmark"
	"github.com/goliatone/go-qbe/pkg/registry"
	"github.com/goliatone/go-qbe/pkg/render"
	"github.com/goliatone/go-qbe/pkg/server"
)

// Registry holds the queryable models grouped by application.
type Registry = registry.Registry

// Model describes one queryable model.
type Model = registry.Model

// Component serves the QBE views; alias exported via the root package for
// convenience.
type Component = server.Component

// Mux is the handler-registration surface RegisterRoutes needs. Satisfied by
// *http.ServeMux.
type Mux = server.Mux

// OptionFn configures the component.
type OptionFn = server.OptionFn

// GuardFunc gates access to every route.
type GuardFunc = server.GuardFunc

// New builds a component from options. See the server package for the full
// option list.
func New(fns ...OptionFn) (*Component, error) {
	return server.New(fns...)
}

// LoadRegistry parses a YAML model document.
func LoadRegistry(data []byte) (*Registry, error) {
	return registry.Load(data)
}

// LoadRegistryFromOpenAPI builds a registry from an OpenAPI 3 document,
// honoring the x-qbe-* extensions.
func LoadRegistryFromOpenAPI(ctx context.Context, data []byte) (*Registry, error) {
	return registry.LoadOpenAPI(ctx, data)
}

// EncodeBookmark signs submitted query values into a shareable token.
func EncodeBookmark(values url.Values, secret []byte) (string, error) {
	return bookmark.Encode(values, secret)
}

// DecodeBookmark verifies and restores a token produced by EncodeBookmark.
func DecodeBookmark(token string, secret []byte) (url.Values, error) {
	return bookmark.Decode(token, secret)
}

// EmbeddedTemplates exposes the built-in page templates so callers can reuse
// or extend them without importing the render package directly.
func EmbeddedTemplates() fs.FS {
	return render.TemplatesFS()
}

// Re-exported option constructors so simple hosts only import this package.
var (
	WithRegistry         = server.WithRegistry
	WithDB               = server.WithDB
	WithSecret           = server.WithSecret
	WithRenderer         = server.WithRenderer
	WithExports          = server.WithExports
	WithGuard            = server.WithGuard
	WithLogger           = server.WithLogger
	WithTitle            = server.WithTitle
	WithDefaultLimit     = server.WithDefaultLimit
	WithMediaURL         = server.WithMediaURL
	WithAdminMediaPrefix = server.WithAdminMediaPrefix
)
