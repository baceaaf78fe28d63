package erd

import (
	"fmt"
	"regexp"
	"strings"
)

// Identifiers that collide with the record API surface of the runtime model
// layer. A table or column landing on one of these would shadow a method on
// the materialized model handle, so the sanitizer renames it and records a
// warning.
var reservedIdentifiers = map[string]bool{
	"save":     true,
	"delete":   true,
	"create":   true,
	"update":   true,
	"refresh":  true,
	"validate": true,
	"clean":    true,
	"check":    true,
	"exists":   true,
	"objects":  true,
	"fields":   true,
	"meta":     true,
	"pk":       true,
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w]`)
	multiScoreRe = regexp.MustCompile(`_+`)
)

// SanitizeModelName normalizes an arbitrary table name into a PascalCase
// model identifier. The returned warning is non-empty when collision handling
// renamed the input. Never fails; always returns a usable identifier.
func SanitizeModelName(raw string) (string, string) {
	return sanitizeName(raw, true)
}

// SanitizeFieldName normalizes an arbitrary column name into a snake_case
// field identifier.
func SanitizeFieldName(raw string) (string, string) {
	return sanitizeName(raw, false)
}

func sanitizeName(raw string, isModel bool) (string, string) {
	if raw == "" {
		if isModel {
			return "UnnamedModel", ""
		}
		return "unnamed_field", ""
	}

	name := raw

	// Strip namespace prefix.
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}

	name = nonWordRe.ReplaceAllString(name, "_")
	name = multiScoreRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		if isModel {
			name = "Model"
		} else {
			name = "field"
		}
	}

	if name[0] >= '0' && name[0] <= '9' {
		if isModel {
			name = "Model_" + name
		} else {
			name = "field_" + name
		}
	}

	var warning string
	if reservedIdentifiers[strings.ToLower(name)] {
		if isModel {
			name += "Model"
		} else {
			name += "_field"
		}
		warning = fmt.Sprintf("renamed %q to %q (reserved identifier)", raw, name)
	}

	if isModel {
		name = pascalCase(name)
	} else {
		name = strings.ToLower(name)
	}

	return name, warning
}

func pascalCase(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// titleWords converts a snake_case name to space-separated capitalized words,
// used for lookup category display names.
func titleWords(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	var words []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		words = append(words, strings.ToUpper(p[:1])+p[1:])
	}
	return strings.Join(words, " ")
}

// sanitizeIndexName normalizes an index name, truncating to stay under
// common backend identifier limits.
func sanitizeIndexName(name string) string {
	if name == "" {
		return "idx_unnamed"
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = nonWordRe.ReplaceAllString(name, "_")
	if len(name) > 60 {
		name = name[:60]
	}
	return strings.ToLower(name)
}
