// Package server exposes the QBE admin screens over net/http: the tabbed
// query-builder form, the proxy endpoint it posts to, the paginated results
// listing, signed bookmarks, exports, and the relation autocomplete used by
// the diagram tab.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-qbe/pkg/bookmark"
	"github.com/goliatone/go-qbe/pkg/formset"
	"github.com/goliatone/go-qbe/pkg/graph"
	"github.com/goliatone/go-qbe/pkg/query"
	"github.com/goliatone/go-qbe/pkg/registry"
	"github.com/goliatone/go-qbe/pkg/render"
)

// Component serves the QBE views. Construct it with New and mount it with
// RegisterRoutes.
type Component struct {
	opts     Options
	store    *sessionStore
	basePath string
}

// New builds a Component from the provided options. A registry and a signing
// secret are required; everything else has defaults.
func New(fns ...OptionFn) (*Component, error) {
	opts := NewOptions(fns...)
	if opts.Registry == nil {
		return nil, fmt.Errorf("server: a model registry is required")
	}
	if len(opts.Secret) == 0 {
		return nil, fmt.Errorf("server: a signing secret is required")
	}
	if opts.Renderer == nil {
		renderer, err := render.New()
		if err != nil {
			return nil, fmt.Errorf("server: build default renderer: %w", err)
		}
		opts.Renderer = renderer
	}
	return &Component{opts: opts, store: newSessionStore()}, nil
}

func (c *Component) allow(w http.ResponseWriter, r *http.Request) bool {
	if c.opts.Guard == nil {
		return true
	}
	if err := c.opts.Guard(r); err != nil {
		c.opts.Logger.Warn("request denied",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeGuardError(w, err)
		return false
	}
	return true
}

// handleForm renders the query-builder page. With ?hash=<hash> a previously
// stored query is restored into the formset, matching the bookmark flow.
func (c *Component) handleForm(w http.ResponseWriter, r *http.Request) {
	if !c.allow(w, r) {
		return
	}
	sid := ensureSession(w, r, c.opts.SessionCookie)

	fs := formset.New()
	jsonData := ""
	if hash := r.URL.Query().Get("hash"); hash != "" {
		if values, ok := c.store.get(sid, hash); ok {
			if restored, err := formset.Parse(values); err == nil {
				fs = restored
				fs.Validate(c.opts.Registry)
				if raw, err := json.Marshal(values); err == nil {
					jsonData = string(raw)
				}
			} else {
				c.opts.Logger.Warn("stored query could not be restored",
					zap.String("hash", hash),
					zap.Error(err))
			}
		}
	}

	c.renderForm(w, r, sid, fs, jsonData)
}

func (c *Component) renderForm(w http.ResponseWriter, r *http.Request, sid string, fs *formset.FormSet, jsonData string) {
	token, err := issueCSRFToken(sid, c.opts.Secret)
	if err != nil {
		c.internalError(w, "issue csrf token", err)
		return
	}
	hidden := map[string]string{c.opts.CSRFFieldName: token}

	page, err := c.opts.Renderer.FormPage(r.Context(), render.FormPageData{
		Title:            c.opts.Title,
		Formset:          fs,
		Registry:         c.opts.Registry,
		Hidden:           hidden,
		JSONData:         jsonData,
		ProxyURL:         c.url("/proxy"),
		AutocompleteURL:  c.url("/autocomplete"),
		MediaURL:         c.opts.MediaURL,
		AdminMediaPrefix: c.opts.AdminMediaPrefix,
	})
	if err != nil {
		c.internalError(w, "render form page", err)
		return
	}
	w.Header().Set("Content-Type", c.opts.Renderer.ContentType())
	_, _ = w.Write(page)
}

// handleProxy validates a submitted formset, stores it under its hash, and
// redirects to the results page. Invalid submissions re-render the form with
// inline errors.
func (c *Component) handleProxy(w http.ResponseWriter, r *http.Request) {
	if !c.allow(w, r) {
		return
	}
	sid := ensureSession(w, r, c.opts.SessionCookie)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form data", http.StatusBadRequest)
		return
	}
	token := r.PostForm.Get(c.opts.CSRFFieldName)
	if !verifyCSRFToken(token, sid, c.opts.Secret) {
		c.opts.Logger.Warn("csrf verification failed", zap.String("session", sid))
		http.Error(w, "csrf verification failed", http.StatusForbidden)
		return
	}

	values := cloneValues(r.PostForm)
	values.Del(c.opts.CSRFFieldName)

	fs, err := formset.Parse(values)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !fs.Validate(c.opts.Registry) {
		c.opts.Logger.Debug("submission failed validation", zap.Int("rows", len(fs.Forms)))
		c.renderForm(w, r, sid, fs, "")
		return
	}

	stored := fs.Values()
	hash := bookmark.Hash(stored, c.opts.Secret)
	c.store.put(sid, hash, stored)

	c.opts.Logger.Info("query stored",
		zap.String("hash", hash),
		zap.Int("rows", len(fs.Forms)))
	http.Redirect(w, r, c.url("/results/"+hash), http.StatusSeeOther)
}

// handleResults executes a stored query and renders the paginated listing.
// ?p=<n> selects a zero-based page; ?show=1 lifts the limit to the full
// result count.
func (c *Component) handleResults(w http.ResponseWriter, r *http.Request) {
	if !c.allow(w, r) {
		return
	}
	sid := ensureSession(w, r, c.opts.SessionCookie)

	hash := r.PathValue("hash")
	values, ok := c.store.get(sid, hash)
	if !ok {
		http.Redirect(w, r, c.formURL(), http.StatusSeeOther)
		return
	}
	fs, err := formset.Parse(values)
	if err != nil || !fs.Validate(c.opts.Registry) {
		http.Redirect(w, r, c.formURL(), http.StatusSeeOther)
		return
	}
	if c.opts.DB == nil {
		c.internalError(w, "execute query", errors.New("no database configured"))
		return
	}

	q, err := query.Build(c.opts.Registry, fs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	count, err := q.Count(r.Context(), c.opts.DB)
	if err != nil {
		c.internalError(w, "count results", err)
		return
	}

	page := parsePage(r.URL.Query().Get("p"))
	limit := fs.Limit
	if limit <= 0 {
		limit = c.opts.DefaultLimit
	}
	if r.URL.Query().Get("show") != "" && count > 0 {
		limit = count
		page = 0
	}
	offset := limit * page

	results, err := q.Execute(r.Context(), c.opts.DB, query.ExecOptions{
		Limit:      limit,
		Offset:     offset,
		RowNumbers: true,
	})
	if err != nil {
		c.internalError(w, "execute query", err)
		return
	}

	token, err := bookmark.Encode(values, c.opts.Secret)
	if err != nil {
		c.internalError(w, "encode bookmark", err)
		return
	}

	displayOffset := 0
	if len(results.Rows) > 0 {
		displayOffset = offset + 1
	}
	body, err := c.opts.Renderer.ResultsPage(r.Context(), render.ResultsPageData{
		Title:     c.opts.Title,
		Labels:    fs.Labels(c.opts.Registry, true),
		Rows:      results.Rows,
		RawQuery:  q.RawSQL(true),
		Count:     count,
		Limit:     limit,
		Page:      page,
		Offset:    displayOffset,
		Bookmark:  token,
		QueryHash: hash,
		Formats:   c.opts.Exports.Names(),
		FormURL:   c.formURL(),
		ExportURL: c.url("/export"),
	})
	if err != nil {
		c.internalError(w, "render results page", err)
		return
	}
	w.Header().Set("Content-Type", c.opts.Renderer.ContentType())
	_, _ = w.Write(body)
}

// handleBookmark restores a signed ?data=<token> payload into the session and
// redirects to its results page.
func (c *Component) handleBookmark(w http.ResponseWriter, r *http.Request) {
	if !c.allow(w, r) {
		return
	}
	sid := ensureSession(w, r, c.opts.SessionCookie)

	data := r.URL.Query().Get("data")
	if data == "" {
		http.Error(w, "missing data parameter", http.StatusBadRequest)
		return
	}
	values, err := bookmark.Decode(data, c.opts.Secret)
	if err != nil {
		if errors.Is(err, bookmark.ErrTampered) {
			c.opts.Logger.Warn("bookmark rejected", zap.Error(err))
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash := bookmark.Hash(values, c.opts.Secret)
	c.store.put(sid, hash, values)
	http.Redirect(w, r, c.url("/results/"+hash), http.StatusSeeOther)
}

// handleExport streams a stored query's full result set in the requested
// format.
func (c *Component) handleExport(w http.ResponseWriter, r *http.Request) {
	if !c.allow(w, r) {
		return
	}
	sid := ensureSession(w, r, c.opts.SessionCookie)

	format := r.PathValue("format")
	exporter, ok := c.opts.Exports.Lookup(format)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown export format %q", format), http.StatusNotFound)
		return
	}
	hash := r.URL.Query().Get("hash")
	values, found := c.store.get(sid, hash)
	if !found {
		http.Error(w, "no stored query for hash", http.StatusNotFound)
		return
	}
	fs, err := formset.Parse(values)
	if err != nil || !fs.Validate(c.opts.Registry) {
		http.Error(w, "stored query is no longer valid", http.StatusBadRequest)
		return
	}
	if c.opts.DB == nil {
		c.internalError(w, "export query", errors.New("no database configured"))
		return
	}

	q, err := query.Build(c.opts.Registry, fs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	results, err := q.Execute(r.Context(), c.opts.DB, query.ExecOptions{})
	if err != nil {
		c.internalError(w, "export query", err)
		return
	}

	filename := exportFilename(hash, exporter.FileExtension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := exporter.Write(w, fs.Labels(c.opts.Registry, false), results.Rows); err != nil {
		c.opts.Logger.Error("export write failed",
			zap.String("format", exporter.Name()),
			zap.Error(err))
	}
}

// handleAutocomplete suggests join paths covering the posted models. The
// diagram tab calls it whenever the selection changes.
func (c *Component) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	if !c.allow(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form data", http.StatusBadRequest)
		return
	}
	selected := splitModels(r.PostForm.Get("models"))

	relations := c.opts.Registry.Graph(registry.GraphOptions{})
	paths := graph.Autocomplete(relations, selected)
	if paths == nil {
		paths = [][]string{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": paths}); err != nil {
		c.opts.Logger.Error("autocomplete encode failed", zap.Error(err))
	}
}

// handleScript serves the admin bootstrap script that injects the QBE link
// into the host admin navigation.
func (c *Component) handleScript(w http.ResponseWriter, r *http.Request) {
	passes := true
	if c.opts.Guard != nil {
		passes = c.opts.Guard(r) == nil
	}
	script, err := c.opts.Renderer.BootstrapScript(r.Context(), render.ScriptData{
		QBEURL:         c.formURL(),
		ReportsLabel:   "Reports",
		QBELabel:       c.opts.Title,
		UserPassesTest: passes,
	})
	if err != nil {
		c.internalError(w, "render bootstrap script", err)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	_, _ = w.Write(script)
}

func (c *Component) internalError(w http.ResponseWriter, action string, err error) {
	c.opts.Logger.Error(action, zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

func splitModels(raw string) []string {
	var models []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			models = append(models, part)
		}
	}
	return models
}

func exportFilename(hash, extension string) string {
	short := hash
	if len(short) > 8 {
		short = short[:8]
	}
	if short == "" {
		short = "query"
	}
	return "qbe_" + short + "." + extension
}
