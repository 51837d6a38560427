package server

import (
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-qbe/pkg/exports"
	"github.com/goliatone/go-qbe/pkg/registry"
	"github.com/goliatone/go-qbe/pkg/render"
)

// GuardFunc gates access to every QBE route. Returning an error denies the
// request; errors implementing HTTPError choose the response status.
type GuardFunc func(r *http.Request) error

// Options configures the QBE component.
type Options struct {
	Registry *registry.Registry
	DB       *sql.DB
	Secret   []byte

	Renderer *render.PageRenderer
	Exports  *exports.Registry
	Guard    GuardFunc
	Logger   *zap.Logger

	Title            string
	DefaultLimit     int
	SessionCookie    string
	CSRFFieldName    string
	MediaURL         string
	AdminMediaPrefix string
}

// OptionFn mutates Options during construction.
type OptionFn func(*Options)

// DefaultOptions returns the baseline configuration.
func DefaultOptions() Options {
	return Options{
		Title:         "Query by Example",
		DefaultLimit:  100,
		SessionCookie: "qbe_session",
		CSRFFieldName: "csrfmiddlewaretoken",
	}
}

// NewOptions applies fns over the defaults and normalizes the result.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 100
	}
	if opts.SessionCookie == "" {
		opts.SessionCookie = "qbe_session"
	}
	if opts.CSRFFieldName == "" {
		opts.CSRFFieldName = "csrfmiddlewaretoken"
	}
	if opts.Title == "" {
		opts.Title = "Query by Example"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Exports == nil {
		opts.Exports = exports.DefaultRegistry()
	}
	return opts
}

// WithRegistry sets the model registry the UI exposes.
func WithRegistry(reg *registry.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Registry = reg
	}
}

// WithDB sets the database queries execute against.
func WithDB(db *sql.DB) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DB = db
	}
}

// WithSecret sets the key signing bookmarks and CSRF tokens.
func WithSecret(secret []byte) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Secret = append([]byte(nil), secret...)
	}
}

// WithRenderer overrides the page renderer.
func WithRenderer(renderer *render.PageRenderer) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderer = renderer
	}
}

// WithExports overrides the export format registry.
func WithExports(reg *exports.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Exports = reg
	}
}

// WithGuard installs an access guard on every route.
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}

// WithTitle overrides the page title.
func WithTitle(title string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Title = title
	}
}

// WithDefaultLimit overrides the default result limit.
func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

// WithMediaURL sets the base URL for the client-side scripts.
func WithMediaURL(url string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MediaURL = url
	}
}

// WithAdminMediaPrefix sets the admin static asset prefix.
func WithAdminMediaPrefix(prefix string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.AdminMediaPrefix = prefix
	}
}
