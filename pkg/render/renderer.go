// Package render produces the QBE admin pages: the tabbed query-builder
// form, the results listing, and the admin bootstrap script. Pages are
// pongo2 templates fed from explicit view contexts.
package render

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-qbe/pkg/formset"
	"github.com/goliatone/go-qbe/pkg/registry"
)

// Option configures the page renderer.
type Option func(*config)

type config struct {
	templateFS fs.FS
	engine     *Engine
	theme      *theme.RendererConfig
	globals    map[string]any
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithEngine injects a pre-built template engine.
func WithEngine(engine *Engine) Option {
	return func(cfg *config) {
		if engine != nil {
			cfg.engine = engine
		}
	}
}

// WithTheme passes a resolved go-theme configuration so pages pick up CSS
// variables and themed asset URLs.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithGlobals seeds values available to every page render.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[key] = value
		}
	}
}

// PageRenderer renders the QBE pages from embedded or custom templates.
type PageRenderer struct {
	templates *Engine
	theme     *theme.RendererConfig
}

// New constructs a PageRenderer applying any provided options.
func New(options ...Option) (*PageRenderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	engine := cfg.engine
	if engine == nil {
		built, err := NewEngine(
			WithFS(cfg.templateFS),
			WithExtension(".tmpl"),
			WithGlobalData(cfg.globals),
		)
		if err != nil {
			return nil, fmt.Errorf("render: configure template engine: %w", err)
		}
		engine = built
	}
	return &PageRenderer{templates: engine, theme: cfg.theme}, nil
}

// ContentType returns the media type of rendered pages.
func (r *PageRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Choice is one option of a select widget.
type Choice struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// RowView is the render-ready form of one condition row.
type RowView struct {
	CSSClass      string              `json:"css_class"`
	Prefix        string              `json:"prefix"`
	ShowChecked   bool                `json:"show_checked"`
	ModelChoices  []Choice            `json:"model_choices"`
	FieldChoices  []Choice            `json:"field_choices"`
	SortChoices   []Choice            `json:"sort_choices"`
	LookupChoices []Choice            `json:"lookup_choices"`
	Value         string              `json:"value"`
	Errors        map[string][]string `json:"errors"`
}

// ModelItem is one entry of the models panel.
type ModelItem struct {
	Name   string `json:"name"`
	ItemID string `json:"item_id"`
	Label  string `json:"label"`
}

// AppGroup is one application heading of the models panel plus its models.
type AppGroup struct {
	Name   string      `json:"name"`
	Models []ModelItem `json:"models"`
}

// FormPageData carries everything the query-builder page needs.
type FormPageData struct {
	Title            string
	Formset          *formset.FormSet
	Registry         *registry.Registry
	Hidden           map[string]string
	JSONData         string
	ProxyURL         string
	AutocompleteURL  string
	MediaURL         string
	AdminMediaPrefix string
}

// FormPage renders the tabbed query-builder page.
func (r *PageRenderer) FormPage(_ context.Context, data FormPageData) ([]byte, error) {
	if data.Registry == nil {
		return nil, fmt.Errorf("render: form page needs a registry")
	}
	fs := data.Formset
	if fs == nil {
		fs = formset.New()
	}

	jsonModels, err := data.Registry.DiagramJSON()
	if err != nil {
		return nil, fmt.Errorf("render: encode diagram models: %w", err)
	}

	ctx := map[string]any{
		"title":              SanitizeLabel(data.Title),
		"rows":               buildRows(data.Registry, fs),
		"apps":               buildAppGroups(data.Registry),
		"hidden_fields":      SortedHiddenFields(data.Hidden),
		"total_forms":        len(fs.Forms),
		"limit":              fs.Limit,
		"positions":          fs.Positions,
		"non_form_errors":    fs.NonFormErrors(),
		"json_models":        string(jsonModels),
		"json_data":          data.JSONData,
		"proxy_url":          data.ProxyURL,
		"autocomplete_url":   data.AutocompleteURL,
		"media_url":          data.MediaURL,
		"admin_media_prefix": data.AdminMediaPrefix,
		"theme":              buildThemeContext(r.theme),
	}
	page, err := r.templates.RenderTemplate("templates/qbe.tmpl", ctx)
	if err != nil {
		return nil, fmt.Errorf("render: form page: %w", err)
	}
	return []byte(page), nil
}

// ResultsPageData carries the results listing context.
type ResultsPageData struct {
	Title     string
	Labels    []string
	Rows      [][]any
	RawQuery  string
	Count     int
	Limit     int
	Page      int
	Offset    int
	Bookmark  string
	QueryHash string
	Formats   []string
	FormURL   string
	ExportURL string
}

// ResultsPage renders the paginated results listing.
func (r *PageRenderer) ResultsPage(_ context.Context, data ResultsPageData) ([]byte, error) {
	offsetLimit := data.Offset + data.Limit - 1
	if offsetLimit > data.Count {
		offsetLimit = data.Count
	}
	rows := make([]map[string]any, 0, len(data.Rows))
	for i, cells := range data.Rows {
		rows = append(rows, map[string]any{
			"css_class": rowClass(i),
			"cells":     cells,
		})
	}
	ctx := map[string]any{
		"title":        SanitizeLabel(data.Title),
		"labels":       data.Labels,
		"rows":         rows,
		"query":        data.RawQuery,
		"count":        data.Count,
		"limit":        data.Limit,
		"page":         data.Page,
		"offset":       data.Offset,
		"offset_limit": offsetLimit,
		"bookmark":     data.Bookmark,
		"query_hash":   data.QueryHash,
		"formats":      data.Formats,
		"form_url":     data.FormURL,
		"export_url":   data.ExportURL,
		"theme":        buildThemeContext(r.theme),
	}
	page, err := r.templates.RenderTemplate("templates/results.tmpl", ctx)
	if err != nil {
		return nil, fmt.Errorf("render: results page: %w", err)
	}
	return []byte(page), nil
}

// ScriptData feeds the admin bootstrap script.
type ScriptData struct {
	QBEURL         string
	ReportsLabel   string
	QBELabel       string
	UserPassesTest bool
}

// BootstrapScript renders the script that links the QBE page into the admin
// index navigation.
func (r *PageRenderer) BootstrapScript(_ context.Context, data ScriptData) ([]byte, error) {
	ctx := map[string]any{
		"qbe_url":          data.QBEURL,
		"reports_label":    data.ReportsLabel,
		"qbe_label":        data.QBELabel,
		"user_passes_test": data.UserPassesTest,
	}
	script, err := r.templates.RenderTemplate("templates/bootstrap.js.tmpl", ctx)
	if err != nil {
		return nil, fmt.Errorf("render: bootstrap script: %w", err)
	}
	return []byte(script), nil
}

func buildRows(reg *registry.Registry, fs *formset.FormSet) []RowView {
	modelChoices := allModelChoices(reg)
	rows := make([]RowView, 0, len(fs.Forms))
	for i, form := range fs.Forms {
		condition := form.Condition
		row := RowView{
			CSSClass:    rowClass(i),
			Prefix:      fmt.Sprintf("%s-%d", fs.Prefix, i),
			ShowChecked: condition.Show,
			Value:       condition.Value,
			Errors:      form.Errors,
		}
		row.ModelChoices = selectChoices(modelChoices, condition.Model)
		row.FieldChoices = fieldChoices(reg, condition.Model, condition.Field)
		row.SortChoices = selectChoices([]Choice{
			{Value: "", Label: "---"},
			{Value: formset.SortAscending, Label: "Ascending"},
			{Value: formset.SortDescending, Label: "Descending"},
		}, condition.Sort)
		row.LookupChoices = lookupChoices(condition.Lookup)
		rows = append(rows, row)
	}
	return rows
}

func buildAppGroups(reg *registry.Registry) []AppGroup {
	var groups []AppGroup
	for _, app := range reg.Apps() {
		group := AppGroup{Name: app}
		for _, model := range reg.Models(app) {
			group.Models = append(group.Models, ModelItem{
				Name:   model.Name,
				ItemID: "qbeModelItem_" + model.Name,
				Label:  SanitizeLabel(model.Key()),
			})
		}
		groups = append(groups, group)
	}
	return groups
}

func allModelChoices(reg *registry.Registry) []Choice {
	choices := []Choice{{Value: "", Label: "---"}}
	var keys []string
	for _, app := range reg.Apps() {
		for _, model := range reg.Models(app) {
			keys = append(keys, model.Key())
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		choices = append(choices, Choice{Value: key, Label: SanitizeLabel(key)})
	}
	return choices
}

func fieldChoices(reg *registry.Registry, modelKey, selected string) []Choice {
	choices := []Choice{{Value: "", Label: "---"}}
	model, ok := reg.ModelByKey(modelKey)
	if !ok {
		// Unknown model: keep the submitted value selectable so the row
		// re-renders what the user picked alongside its error.
		if selected != "" {
			choices = append(choices, Choice{Value: selected, Label: SanitizeLabel(selected), Selected: true})
		}
		return choices
	}
	for _, field := range model.Fields {
		choices = append(choices, Choice{
			Value:    field.Name,
			Label:    SanitizeLabel(field.DisplayLabel()),
			Selected: field.Name == selected,
		})
	}
	return choices
}

func lookupChoices(selected string) []Choice {
	choices := make([]Choice, 0, 12)
	for _, name := range formset.Lookups() {
		choices = append(choices, Choice{
			Value:    name,
			Label:    formset.LookupLabel(name),
			Selected: name == selected,
		})
	}
	return choices
}

func selectChoices(choices []Choice, selected string) []Choice {
	out := make([]Choice, len(choices))
	copy(out, choices)
	for i := range out {
		out[i].Selected = out[i].Value == selected && selected != ""
	}
	return out
}

func rowClass(index int) string {
	if index%2 == 0 {
		return "row1"
	}
	return "row2"
}

type themeContext struct {
	Name       string            `json:"name"`
	Variant    string            `json:"variant"`
	CSSVars    map[string]string `json:"css_vars"`
	VarsStyle  string            `json:"vars_style"`
	Stylesheet string            `json:"stylesheet"`
}

func buildThemeContext(cfg *theme.RendererConfig) themeContext {
	if cfg == nil {
		return themeContext{}
	}
	ctx := themeContext{
		Name:    cfg.Theme,
		Variant: cfg.Variant,
		CSSVars: cfg.CSSVars,
	}
	ctx.VarsStyle = cssVarsStyle(cfg.CSSVars)
	if cfg.AssetURL != nil {
		ctx.Stylesheet = cfg.AssetURL("qbe.stylesheet")
	}
	return ctx
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	var builder strings.Builder
	for _, name := range names {
		key := name
		if !strings.HasPrefix(key, "--") {
			key = "--" + key
		}
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(vars[name])
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}
