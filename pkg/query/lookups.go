package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-qbe/pkg/formset"
)

// likeEscape declares the backslash inserted by escapeLike as the LIKE
// escape character; sqlite's LIKE has none by default, so without the clause
// the backslash is matched literally.
const likeEscape = ` ESCAPE '\'`

func buildPredicate(col column, lookup, value string) (predicate, error) {
	ref := col.SQL()
	switch lookup {
	case formset.LookupExact:
		return predicate{SQL: ref + " = ?", Params: []any{value}}, nil
	case formset.LookupIExact:
		return predicate{SQL: "LOWER(" + ref + ") = LOWER(?)", Params: []any{value}}, nil
	case formset.LookupContains:
		return predicate{SQL: ref + " LIKE ?" + likeEscape, Params: []any{"%" + escapeLike(value) + "%"}}, nil
	case formset.LookupIContains:
		return predicate{SQL: "LOWER(" + ref + ") LIKE LOWER(?)" + likeEscape, Params: []any{"%" + escapeLike(value) + "%"}}, nil
	case formset.LookupStartsWith:
		return predicate{SQL: ref + " LIKE ?" + likeEscape, Params: []any{escapeLike(value) + "%"}}, nil
	case formset.LookupEndsWith:
		return predicate{SQL: ref + " LIKE ?" + likeEscape, Params: []any{"%" + escapeLike(value)}}, nil
	case formset.LookupGT:
		return predicate{SQL: ref + " > ?", Params: []any{value}}, nil
	case formset.LookupGTE:
		return predicate{SQL: ref + " >= ?", Params: []any{value}}, nil
	case formset.LookupLT:
		return predicate{SQL: ref + " < ?", Params: []any{value}}, nil
	case formset.LookupLTE:
		return predicate{SQL: ref + " <= ?", Params: []any{value}}, nil
	case formset.LookupIn:
		return buildInPredicate(ref, value)
	case formset.LookupIsNull:
		if isTruthy(value) {
			return predicate{SQL: ref + " IS NULL"}, nil
		}
		return predicate{SQL: ref + " IS NOT NULL"}, nil
	default:
		return predicate{}, fmt.Errorf("query: unknown lookup %q", lookup)
	}
}

func buildInPredicate(ref, value string) (predicate, error) {
	parts := strings.Split(value, ",")
	params := make([]any, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		params = append(params, trimmed)
	}
	if len(params) == 0 {
		return predicate{}, fmt.Errorf("query: in lookup needs at least one value")
	}
	markers := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return predicate{SQL: ref + " IN (" + markers + ")", Params: params}, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer("%", `\%`, "_", `\_`)
	return replacer.Replace(value)
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
