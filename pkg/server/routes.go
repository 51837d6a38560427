package server

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register net/http handlers.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// RegisterRoutes mounts every QBE route under basePath on mux and returns
// the mount point of the form page.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("server: missing mux")
	}
	base := normalizeBasePath(basePath)
	c.basePath = base

	mux.Handle("GET "+routePattern(base, "/{$}"), http.HandlerFunc(c.handleForm))
	mux.Handle("POST "+routePattern(base, "/proxy"), http.HandlerFunc(c.handleProxy))
	mux.Handle("GET "+routePattern(base, "/results/{hash}"), http.HandlerFunc(c.handleResults))
	mux.Handle("GET "+routePattern(base, "/bookmark"), http.HandlerFunc(c.handleBookmark))
	mux.Handle("GET "+routePattern(base, "/export/{format}"), http.HandlerFunc(c.handleExport))
	mux.Handle("POST "+routePattern(base, "/autocomplete"), http.HandlerFunc(c.handleAutocomplete))
	mux.Handle("GET "+routePattern(base, "/qbe.js"), http.HandlerFunc(c.handleScript))

	return c.formURL(), nil
}

func normalizeBasePath(basePath string) string {
	base := strings.TrimSpace(basePath)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimRight(base, "/")
}

func routePattern(base, route string) string {
	return base + route
}

func (c *Component) url(route string) string {
	if route == "/" || route == "" {
		if c.basePath == "" {
			return "/"
		}
		return c.basePath + "/"
	}
	return c.basePath + route
}

func (c *Component) formURL() string { return c.url("/") }
