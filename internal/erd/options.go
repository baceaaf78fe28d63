package erd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Choice is one (key, label) pair of a constrained-choice field.
type Choice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// FieldOptions is the typed form of a field's option set. Internally the
// engine only works with this struct; the legacy "key=value,key=value" string
// format exists solely at the persistence boundary (Encode / ParseFieldOptions).
type FieldOptions struct {
	Null          bool     `json:"null,omitempty"`
	Blank         bool     `json:"blank,omitempty"`
	Unique        bool     `json:"unique,omitempty"`
	MaxLength     int      `json:"max_length,omitempty"`
	MaxDigits     int      `json:"max_digits,omitempty"`
	DecimalPlaces int      `json:"decimal_places,omitempty"`
	Default       string   `json:"default,omitempty"`
	HasDefault    bool     `json:"has_default,omitempty"`
	AutoNowAdd    bool     `json:"auto_now_add,omitempty"`
	AutoNow       bool     `json:"auto_now,omitempty"`
	UploadTo      string   `json:"upload_to,omitempty"`
	Choices       []Choice `json:"choices,omitempty"`
}

// RelationOptions is the typed option set of a relationship descriptor.
type RelationOptions struct {
	OnDelete       string            `json:"on_delete,omitempty"`
	Null           bool              `json:"null,omitempty"`
	Blank          bool              `json:"blank,omitempty"`
	LimitChoicesTo map[string]string `json:"limit_choices_to,omitempty"`
	RelatedName    string            `json:"related_name,omitempty"`
}

// Encode serializes to the legacy comma-separated option string stored on
// field definition records.
func (o FieldOptions) Encode() string {
	var parts []string
	if o.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("max_length=%d", o.MaxLength))
	}
	if o.MaxDigits > 0 {
		parts = append(parts, fmt.Sprintf("max_digits=%d", o.MaxDigits))
	}
	if o.DecimalPlaces > 0 {
		parts = append(parts, fmt.Sprintf("decimal_places=%d", o.DecimalPlaces))
	}
	if o.UploadTo != "" {
		parts = append(parts, fmt.Sprintf("upload_to=%s", quote(o.UploadTo)))
	}
	if o.Null {
		parts = append(parts, "null=true")
	}
	if o.Blank {
		parts = append(parts, "blank=true")
	}
	if o.Unique {
		parts = append(parts, "unique=true")
	}
	if o.HasDefault {
		parts = append(parts, fmt.Sprintf("default=%s", quote(o.Default)))
	}
	if o.AutoNowAdd {
		parts = append(parts, "auto_now_add=true")
	}
	if o.AutoNow {
		parts = append(parts, "auto_now=true")
	}
	if len(o.Choices) > 0 {
		var cs []string
		for _, c := range o.Choices {
			cs = append(cs, fmt.Sprintf("(%s, %s)", quote(c.Key), quote(c.Label)))
		}
		parts = append(parts, fmt.Sprintf("choices=[%s]", strings.Join(cs, ", ")))
	}
	return strings.Join(parts, ",")
}

// Encode serializes relationship options to the legacy string format.
func (o RelationOptions) Encode() string {
	var parts []string
	if o.OnDelete != "" {
		parts = append(parts, fmt.Sprintf("on_delete=%s", o.OnDelete))
	}
	if o.Null {
		parts = append(parts, "null=true")
	}
	if o.Blank {
		parts = append(parts, "blank=true")
	}
	if len(o.LimitChoicesTo) > 0 {
		keys := make([]string, 0, len(o.LimitChoicesTo))
		for k := range o.LimitChoicesTo {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var kvs []string
		for _, k := range keys {
			kvs = append(kvs, fmt.Sprintf("%s=%s", k, quote(o.LimitChoicesTo[k])))
		}
		parts = append(parts, fmt.Sprintf("limit_choices_to={%s}", strings.Join(kvs, ", ")))
	}
	if o.RelatedName != "" {
		parts = append(parts, fmt.Sprintf("related_name=%s", quote(o.RelatedName)))
	}
	return strings.Join(parts, ",")
}

// ParseFieldOptions decodes a legacy option string back into a typed option
// set. The split is bracket-aware so list- and map-valued options survive
// commas inside their values.
func ParseFieldOptions(s string) (FieldOptions, error) {
	var o FieldOptions
	for _, part := range SplitOptions(s) {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return o, fmt.Errorf("malformed option segment %q", part)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "max_length":
			n, err := strconv.Atoi(value)
			if err != nil {
				return o, fmt.Errorf("option max_length: %w", err)
			}
			o.MaxLength = n
		case "max_digits":
			n, err := strconv.Atoi(value)
			if err != nil {
				return o, fmt.Errorf("option max_digits: %w", err)
			}
			o.MaxDigits = n
		case "decimal_places":
			n, err := strconv.Atoi(value)
			if err != nil {
				return o, fmt.Errorf("option decimal_places: %w", err)
			}
			o.DecimalPlaces = n
		case "upload_to":
			o.UploadTo = unquote(value)
		case "null":
			o.Null = value == "true"
		case "blank":
			o.Blank = value == "true"
		case "unique":
			o.Unique = value == "true"
		case "default":
			o.Default = unquote(value)
			o.HasDefault = true
		case "auto_now_add":
			o.AutoNowAdd = value == "true"
		case "auto_now":
			o.AutoNow = value == "true"
		case "choices":
			o.Choices = parseChoiceList(value)
		default:
			return o, fmt.Errorf("unknown field option %q", key)
		}
	}
	return o, nil
}

// ParseRelationOptions decodes a legacy relationship option string.
func ParseRelationOptions(s string) (RelationOptions, error) {
	var o RelationOptions
	for _, part := range SplitOptions(s) {
		key, value, found := strings.Cut(part, "=")
		if !found {
			return o, fmt.Errorf("malformed option segment %q", part)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "on_delete":
			o.OnDelete = value
		case "null":
			o.Null = value == "true"
		case "blank":
			o.Blank = value == "true"
		case "related_name":
			o.RelatedName = unquote(value)
		case "limit_choices_to":
			o.LimitChoicesTo = parseFilterMap(value)
		default:
			return o, fmt.Errorf("unknown relationship option %q", key)
		}
	}
	return o, nil
}

// SplitOptions splits a legacy option string on top-level commas only.
// Commas nested inside (), [] or {} are part of the value.
func SplitOptions(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				if seg := strings.TrimSpace(s[start:i]); seg != "" {
					parts = append(parts, seg)
				}
				start = i + 1
			}
		}
	}
	if seg := strings.TrimSpace(s[start:]); seg != "" {
		parts = append(parts, seg)
	}
	return parts
}

// parseChoiceList decodes "[('k', 'Label'), ('k2', 'Label2')]".
func parseChoiceList(s string) []Choice {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	var choices []Choice
	for _, item := range SplitOptions(s) {
		item = strings.TrimSpace(item)
		item = strings.TrimPrefix(item, "(")
		item = strings.TrimSuffix(item, ")")
		key, label, found := strings.Cut(item, ",")
		if !found {
			continue
		}
		choices = append(choices, Choice{
			Key:   unquote(strings.TrimSpace(key)),
			Label: unquote(strings.TrimSpace(label)),
		})
	}
	return choices
}

// parseFilterMap decodes "{parent_lookup__name='Order Payment Status'}".
func parseFilterMap(s string) map[string]string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	m := make(map[string]string)
	for _, item := range SplitOptions(s) {
		key, value, found := strings.Cut(item, "=")
		if !found {
			continue
		}
		m[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func quote(s string) string {
	return "'" + s + "'"
}

func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return s[1 : len(s)-1]
	}
	return s
}
