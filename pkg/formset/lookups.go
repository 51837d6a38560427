package formset

// Lookup names mirror the criteria operators the condition form offers.
const (
	LookupExact      = "exact"
	LookupIExact     = "iexact"
	LookupContains   = "contains"
	LookupIContains  = "icontains"
	LookupStartsWith = "startswith"
	LookupEndsWith   = "endswith"
	LookupGT         = "gt"
	LookupGTE        = "gte"
	LookupLT         = "lt"
	LookupLTE        = "lte"
	LookupIn         = "in"
	LookupIsNull     = "isnull"
)

var lookupOrder = []string{
	LookupExact,
	LookupIExact,
	LookupContains,
	LookupIContains,
	LookupStartsWith,
	LookupEndsWith,
	LookupGT,
	LookupGTE,
	LookupLT,
	LookupLTE,
	LookupIn,
	LookupIsNull,
}

var lookupLabels = map[string]string{
	LookupExact:      "Equals",
	LookupIExact:     "Equals (case insensitive)",
	LookupContains:   "Contains",
	LookupIContains:  "Contains (case insensitive)",
	LookupStartsWith: "Starts with",
	LookupEndsWith:   "Ends with",
	LookupGT:         "Greater than",
	LookupGTE:        "Greater than or equal",
	LookupLT:         "Less than",
	LookupLTE:        "Less than or equal",
	LookupIn:         "In list",
	LookupIsNull:     "Is null",
}

// Lookups returns the known lookup names in display order.
func Lookups() []string {
	return append([]string(nil), lookupOrder...)
}

// LookupLabel returns the human label for a lookup name.
func LookupLabel(name string) string {
	if label, ok := lookupLabels[name]; ok {
		return label
	}
	return name
}

// IsLookup reports whether name is a known criteria lookup.
func IsLookup(name string) bool {
	_, ok := lookupLabels[name]
	return ok
}
