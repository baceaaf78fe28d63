package erd

import (
	"fmt"
	"strings"
)

// RelationKind names the three relationship shapes the engine expresses.
type RelationKind string

const (
	RelSingleReference       RelationKind = "single_reference"
	RelSingleUniqueReference RelationKind = "single_unique_reference"
	RelMultiReference        RelationKind = "multi_reference"
)

// OwningSide identifies which end of a relationship edge carries the
// reference field.
type OwningSide int

const (
	OwnSource OwningSide = iota
	OwnTarget
)

// Deletion policies accepted on relationship edges and reference fields.
const (
	DeleteCascade  = "cascade"
	DeleteSetNull  = "set_null"
	DeleteProtect  = "protect"
	DeleteRestrict = "restrict"
	DeleteNothing  = "do_nothing"
)

var deletePolicies = map[string]bool{
	DeleteCascade:  true,
	DeleteSetNull:  true,
	DeleteProtect:  true,
	DeleteRestrict: true,
	DeleteNothing:  true,
}

// ResolveCardinality maps a (source, target) cardinality pair to the
// relationship kind and the side that owns the reference field. A (one, many)
// edge authored from the "one" table puts the field on the target, so that
// the "many" side always carries the reference. Unknown combinations degrade
// to multi-reference with a warning rather than failing.
func ResolveCardinality(sourceCard, targetCard string) (RelationKind, OwningSide, string) {
	s := strings.ToLower(strings.TrimSpace(sourceCard))
	t := strings.ToLower(strings.TrimSpace(targetCard))

	switch {
	case s == "many" && t == "one":
		return RelSingleReference, OwnSource, ""
	case s == "one" && t == "many":
		return RelSingleReference, OwnTarget, ""
	case s == "one" && t == "one":
		return RelSingleUniqueReference, OwnSource, ""
	case s == "many" && t == "many":
		return RelMultiReference, OwnSource, ""
	}
	return RelMultiReference, OwnSource,
		fmt.Sprintf("unknown cardinality pair (%s, %s) - treating as multi-reference", sourceCard, targetCard)
}

// ResolveOnDelete normalizes and validates a deletion-policy value. The empty
// string defaults to cascade. Spelling variants from external tools
// ("SET NULL", "set-null", "SET_NULL") normalize to the canonical form; a
// value outside the enumerated set is an error.
func ResolveOnDelete(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return DeleteCascade, nil
	}
	policy := strings.ToLower(strings.TrimSpace(raw))
	policy = strings.ReplaceAll(policy, "-", "_")
	policy = strings.ReplaceAll(policy, " ", "_")
	if policy == "no_action" {
		policy = DeleteNothing
	}
	if !deletePolicies[policy] {
		return "", fmt.Errorf("invalid deletion policy %q", raw)
	}
	return policy, nil
}

// NormalizeLookupFilter rewrites any "parent_lookup_<x>" filter key lacking
// the double-underscore separator to "parent_lookup__<x>". External tooling
// keeps emitting the single-underscore form; every code path attaching a
// constrained-choice filter must go through this one function.
func NormalizeLookupFilter(filter map[string]string) map[string]string {
	if len(filter) == 0 {
		return nil
	}
	fixed := make(map[string]string, len(filter))
	for key, value := range filter {
		if strings.HasPrefix(key, "parent_lookup_") && !strings.Contains(key, "__") {
			key = strings.Replace(key, "parent_lookup_", "parent_lookup__", 1)
		}
		fixed[key] = value
	}
	return fixed
}
