package erd

import (
	"fmt"
	"regexp"
	"strings"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a converted model set for semantic problems the converter
// could not repair: duplicate or malformed names, dangling relationship
// targets, and incomplete option sets. It reports every problem found rather
// than stopping at the first.
func Validate(models []ModelDescriptor) (bool, []string) {
	var errs []string

	known := make(map[string]bool, len(models))
	for _, m := range models {
		if known[m.Name] {
			errs = append(errs, fmt.Sprintf("duplicate model name %q", m.Name))
		}
		known[m.Name] = true
	}

	for _, m := range models {
		if !identifierRe.MatchString(m.Name) {
			errs = append(errs, fmt.Sprintf("model %q is not a valid identifier", m.Name))
		}
		if len(m.Fields) == 0 && len(m.Relationships) == 0 {
			errs = append(errs, fmt.Sprintf("model %s has no fields or relationships", m.Name))
		}

		seenFields := make(map[string]bool, len(m.Fields))
		for _, f := range m.Fields {
			if !identifierRe.MatchString(f.Name) {
				errs = append(errs, fmt.Sprintf("model %s: field %q is not a valid identifier", m.Name, f.Name))
			}
			if seenFields[f.Name] {
				errs = append(errs, fmt.Sprintf("model %s: duplicate field %q", m.Name, f.Name))
			}
			seenFields[f.Name] = true

			if !fieldTypes[f.Type] {
				errs = append(errs, fmt.Sprintf("model %s: field %q has unknown type %q", m.Name, f.Name, f.Type))
			}
			if f.Type == TypeDecimal && (f.Options.MaxDigits == 0 || f.Options.DecimalPlaces == 0) {
				errs = append(errs, fmt.Sprintf(
					"model %s: decimal field %q requires max_digits and decimal_places", m.Name, f.Name))
			}
		}

		for _, r := range m.Relationships {
			if !identifierRe.MatchString(r.Name) {
				errs = append(errs, fmt.Sprintf("model %s: relationship %q is not a valid identifier", m.Name, r.Name))
			}
			if seenFields[r.Name] {
				errs = append(errs, fmt.Sprintf(
					"model %s: relationship %q collides with a field of the same name", m.Name, r.Name))
			}
			if r.RelatedModel == "" {
				errs = append(errs, fmt.Sprintf("model %s: relationship %q has no related model", m.Name, r.Name))
				continue
			}
			if !strings.Contains(r.RelatedModel, ".") && !known[r.RelatedModel] {
				errs = append(errs, fmt.Sprintf(
					"model %s: relationship %q references unknown model %q", m.Name, r.Name, r.RelatedModel))
			}
			if r.Options.OnDelete != "" && !deletePolicies[r.Options.OnDelete] {
				errs = append(errs, fmt.Sprintf(
					"model %s: relationship %q has invalid deletion policy %q", m.Name, r.Name, r.Options.OnDelete))
			}
		}
	}

	return len(errs) == 0, errs
}
