package erd

import (
	"regexp"
	"strings"
)

// LookupModelRef is the qualified reference of the shared hierarchical
// reference-value table. Relationships targeting it get a constrained-choice
// filter keyed on the derived lookup category.
const LookupModelRef = "lookup.Lookup"

// LookupFilterKey is the hierarchical "parent lookup equals category" filter
// key attached to lookup relationships.
const LookupFilterKey = "parent_lookup__name"

var (
	lookupSuffixRe  = regexp.MustCompile(`(_type|_status|_category|_kind|_class|_lookup)$`)
	lookupBareRe    = regexp.MustCompile(`^(type|status|category|kind|class|lookup)$`)
	genericSuffixRe = regexp.MustCompile(`_(type|status|category|kind|class)$`)
)

// IsLookupField reports whether a field name follows the naming conventions
// of a constrained-choice reference field.
func IsLookupField(name string) bool {
	n := strings.ToLower(name)
	return lookupSuffixRe.MatchString(n) || lookupBareRe.MatchString(n)
}

// DeriveLookupCategory derives the reference-value category name for a lookup
// field. Generic classification fields (type/status/category/kind/class,
// suffixed or bare) are qualified with the table name so that, say, an order
// status and an invoice status land in different categories. Fields using the
// explicit _lookup suffix keep their own cleaned name with a fixed qualifier.
// Deterministic: identical arguments always yield the identical string.
func DeriveLookupCategory(fieldName, tableName string) string {
	field := strings.ToLower(fieldName)

	if genericSuffixRe.MatchString(field) || lookupBareRe.MatchString(field) {
		return strings.TrimSpace(titleWords(tableName) + " " + titleWords(field))
	}

	cleaned := lookupSuffixRe.ReplaceAllString(field, "")
	if cleaned == "" {
		return strings.TrimSpace(titleWords(tableName) + " " + titleWords(field))
	}
	return titleWords(cleaned) + " Type"
}
