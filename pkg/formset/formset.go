// Package formset implements the condition formset backing the tabular tab:
// a collection of structurally identical condition rows managed as a unit,
// parsed from form-encoded values with management keys describing the set.
package formset

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-qbe/pkg/registry"
)

// DefaultPrefix is the form prefix the management keys and row fields use.
const DefaultPrefix = "form"

// DefaultLimit applies when the submission carries no usable limit.
const DefaultLimit = 100

// Management form suffixes.
const (
	totalFormsKey   = "TOTAL_FORMS"
	initialFormsKey = "INITIAL_FORMS"
	maxNumFormsKey  = "MAX_NUM_FORMS"
)

// Sort directions a condition row accepts.
const (
	SortNone       = ""
	SortAscending  = "asc"
	SortDescending = "desc"
)

// Condition is one query condition row.
type Condition struct {
	Show   bool
	Model  string // "App.Model"
	Field  string
	Sort   string
	Lookup string // criteria operator
	Value  string // criteria operand
}

// Empty reports whether the row carries no user input at all. Fully empty
// extra rows are skipped rather than validated.
func (c Condition) Empty() bool {
	return !c.Show && c.Model == "" && c.Field == "" && c.Sort == "" && c.Lookup == "" && c.Value == ""
}

// Form is a bound condition row plus its validation errors keyed by field.
type Form struct {
	Index     int
	Condition Condition
	Errors    map[string][]string
}

func (f *Form) addError(field, message string) {
	if f.Errors == nil {
		f.Errors = make(map[string][]string)
	}
	f.Errors[field] = append(f.Errors[field], message)
}

// HasErrors reports whether the row failed validation.
func (f *Form) HasErrors() bool { return len(f.Errors) > 0 }

// FormSet is the bound collection of condition rows plus the page-level
// limit and diagram positions fields submitted alongside them.
type FormSet struct {
	Prefix    string
	Forms     []Form
	Limit     int
	Positions string

	nonFormErrors []string
	validated     bool
}

// New returns an unbound formset with a single blank row.
func New() *FormSet {
	return &FormSet{
		Prefix: DefaultPrefix,
		Forms:  []Form{{Index: 0}},
		Limit:  DefaultLimit,
	}
}

// Parse binds submitted values into a formset. Management keys are required;
// malformed counts are a parse error rather than a validation error.
func Parse(values url.Values) (*FormSet, error) {
	return ParseWithPrefix(values, DefaultPrefix)
}

// ParseWithPrefix binds values using a custom form prefix.
func ParseWithPrefix(values url.Values, prefix string) (*FormSet, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	totalRaw := values.Get(managementKey(prefix, totalFormsKey))
	if totalRaw == "" {
		return nil, fmt.Errorf("formset: missing management key %s", managementKey(prefix, totalFormsKey))
	}
	total, err := strconv.Atoi(totalRaw)
	if err != nil || total < 0 {
		return nil, fmt.Errorf("formset: invalid total forms count %q", totalRaw)
	}
	for _, suffix := range []string{initialFormsKey, maxNumFormsKey} {
		if !values.Has(managementKey(prefix, suffix)) {
			return nil, fmt.Errorf("formset: missing management key %s", managementKey(prefix, suffix))
		}
	}
	if initialRaw := values.Get(managementKey(prefix, initialFormsKey)); initialRaw != "" {
		if initial, err := strconv.Atoi(initialRaw); err != nil || initial < 0 {
			return nil, fmt.Errorf("formset: invalid initial forms count %q", initialRaw)
		}
	}

	fs := &FormSet{
		Prefix:    prefix,
		Limit:     parseLimit(values.Get("limit")),
		Positions: values.Get("positions"),
	}
	for i := 0; i < total; i++ {
		condition := Condition{
			Show:   isChecked(values.Get(rowKey(prefix, i, "show"))),
			Model:  strings.TrimSpace(values.Get(rowKey(prefix, i, "model"))),
			Field:  strings.TrimSpace(values.Get(rowKey(prefix, i, "field"))),
			Sort:   strings.TrimSpace(values.Get(rowKey(prefix, i, "sort"))),
			Lookup: strings.TrimSpace(values.Get(rowKey(prefix, i, "criteria_0"))),
			Value:  values.Get(rowKey(prefix, i, "criteria_1")),
		}
		if condition.Empty() {
			continue
		}
		fs.Forms = append(fs.Forms, Form{Index: i, Condition: condition})
	}
	return fs, nil
}

// Values re-encodes the formset into submittable form values, the same shape
// Parse accepts. Used when storing queries between requests.
func (fs *FormSet) Values() url.Values {
	values := url.Values{}
	values.Set(managementKey(fs.Prefix, totalFormsKey), strconv.Itoa(len(fs.Forms)))
	values.Set(managementKey(fs.Prefix, initialFormsKey), "0")
	values.Set(managementKey(fs.Prefix, maxNumFormsKey), "")
	values.Set("limit", strconv.Itoa(fs.Limit))
	if fs.Positions != "" {
		values.Set("positions", fs.Positions)
	}
	for i, form := range fs.Forms {
		if form.Condition.Show {
			values.Set(rowKey(fs.Prefix, i, "show"), "on")
		}
		values.Set(rowKey(fs.Prefix, i, "model"), form.Condition.Model)
		values.Set(rowKey(fs.Prefix, i, "field"), form.Condition.Field)
		values.Set(rowKey(fs.Prefix, i, "sort"), form.Condition.Sort)
		values.Set(rowKey(fs.Prefix, i, "criteria_0"), form.Condition.Lookup)
		values.Set(rowKey(fs.Prefix, i, "criteria_1"), form.Condition.Value)
	}
	return values
}

// Validate checks every bound row against the registry and records errors
// inline. It returns the overall validity.
func (fs *FormSet) Validate(reg *registry.Registry) bool {
	fs.validated = true
	fs.nonFormErrors = nil
	if len(fs.Forms) == 0 {
		fs.nonFormErrors = append(fs.nonFormErrors, "at least one condition row is required")
		return false
	}
	valid := true
	for i := range fs.Forms {
		form := &fs.Forms[i]
		form.Errors = nil
		condition := form.Condition

		model, ok := reg.ModelByKey(condition.Model)
		if condition.Model == "" {
			form.addError("model", "this field is required")
		} else if !ok {
			form.addError("model", fmt.Sprintf("unknown model %q", condition.Model))
		}
		if condition.Field == "" {
			form.addError("field", "this field is required")
		} else if ok {
			if _, exists := model.Field(condition.Field); !exists {
				form.addError("field", fmt.Sprintf("model %s has no field %q", condition.Model, condition.Field))
			}
		}
		switch condition.Sort {
		case SortNone, SortAscending, SortDescending:
		default:
			form.addError("sort", fmt.Sprintf("unknown sort direction %q", condition.Sort))
		}
		if condition.Lookup != "" && !IsLookup(condition.Lookup) {
			form.addError("criteria", fmt.Sprintf("unknown lookup %q", condition.Lookup))
		}
		if condition.Lookup != "" && condition.Lookup != LookupIsNull && condition.Value == "" {
			form.addError("criteria", "a value is required for this lookup")
		}
		if form.HasErrors() {
			valid = false
		}
	}
	return valid && len(fs.nonFormErrors) == 0
}

// IsValid reports the outcome of the last Validate call.
func (fs *FormSet) IsValid() bool {
	if !fs.validated {
		return false
	}
	if len(fs.nonFormErrors) > 0 {
		return false
	}
	for i := range fs.Forms {
		if fs.Forms[i].HasErrors() {
			return false
		}
	}
	return true
}

// NonFormErrors returns errors that do not belong to a single row.
func (fs *FormSet) NonFormErrors() []string {
	return append([]string(nil), fs.nonFormErrors...)
}

// Labels returns the result column headers for shown rows, formatted as
// "Model: Field label". With rowNumber a leading "#" column is included.
func (fs *FormSet) Labels(reg *registry.Registry, rowNumber bool) []string {
	var labels []string
	if rowNumber {
		labels = append(labels, "#")
	}
	for _, form := range fs.Forms {
		if !form.Condition.Show {
			continue
		}
		label := form.Condition.Field
		if model, ok := reg.ModelByKey(form.Condition.Model); ok {
			if field, exists := model.Field(form.Condition.Field); exists {
				label = field.DisplayLabel()
			}
			labels = append(labels, model.Name+": "+label)
			continue
		}
		labels = append(labels, form.Condition.Model+": "+label)
	}
	return labels
}

// SelectedModels returns the distinct model keys referenced by the rows, in
// first-appearance order.
func (fs *FormSet) SelectedModels() []string {
	seen := make(map[string]struct{}, len(fs.Forms))
	var models []string
	for _, form := range fs.Forms {
		key := form.Condition.Model
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		models = append(models, key)
	}
	return models
}

func managementKey(prefix, suffix string) string {
	return prefix + "-" + suffix
}

func rowKey(prefix string, index int, field string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, index, field)
}

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func isChecked(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
