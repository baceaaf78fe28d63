package erd

import (
	"reflect"
	"testing"
)

func TestFieldOptionsEncodeParse(t *testing.T) {
	tests := []struct {
		name string
		opts FieldOptions
	}{
		{"string field", FieldOptions{MaxLength: 255, Null: true, Blank: true}},
		{"decimal field", FieldOptions{MaxDigits: 12, DecimalPlaces: 4, Unique: true}},
		{"boolean default", FieldOptions{Default: "false", HasDefault: true}},
		{"timestamps", FieldOptions{AutoNowAdd: true}},
		{"file field", FieldOptions{MaxLength: 100, UploadTo: "images/"}},
		{"choices", FieldOptions{
			MaxLength: 20,
			Choices: []Choice{
				{Key: "draft", Label: "Draft"},
				{Key: "published", Label: "Published, Live"},
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.opts.Encode()
			parsed, err := ParseFieldOptions(encoded)
			if err != nil {
				t.Fatalf("ParseFieldOptions(%q): %v", encoded, err)
			}
			if !reflect.DeepEqual(parsed, tt.opts) {
				t.Errorf("round trip mismatch:\nencoded %q\ngot  %+v\nwant %+v", encoded, parsed, tt.opts)
			}
		})
	}
}

func TestRelationOptionsEncodeParse(t *testing.T) {
	opts := RelationOptions{
		OnDelete: DeleteSetNull,
		Null:     true,
		Blank:    true,
		LimitChoicesTo: map[string]string{
			"parent_lookup__name": "Order Payment Status",
		},
		RelatedName: "order_payment_status_set",
	}

	encoded := opts.Encode()
	parsed, err := ParseRelationOptions(encoded)
	if err != nil {
		t.Fatalf("ParseRelationOptions(%q): %v", encoded, err)
	}
	if !reflect.DeepEqual(parsed, opts) {
		t.Errorf("round trip mismatch:\nencoded %q\ngot  %+v\nwant %+v", encoded, parsed, opts)
	}
}

// The filter value carries commas and the choice labels carry commas; the
// top-level split must not break on them.
func TestSplitOptionsBracketAware(t *testing.T) {
	in := "max_length=20,choices=[('a', 'One, Two'), ('b', 'Three')],null=true"
	got := SplitOptions(in)
	want := []string{"max_length=20", "choices=[('a', 'One, Two'), ('b', 'Three')]", "null=true"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitOptions = %v, want %v", got, want)
	}

	in = "on_delete=cascade,limit_choices_to={parent_lookup__name='Invoice Status, Extended'}"
	got = SplitOptions(in)
	if len(got) != 2 {
		t.Errorf("SplitOptions = %v, want 2 segments", got)
	}
}

func TestParseOptionsErrors(t *testing.T) {
	if _, err := ParseFieldOptions("max_length=abc"); err == nil {
		t.Error("expected error for non-numeric max_length")
	}
	if _, err := ParseFieldOptions("bogus_key=1"); err == nil {
		t.Error("expected error for unknown field option")
	}
	if _, err := ParseRelationOptions("bogus_key=1"); err == nil {
		t.Error("expected error for unknown relationship option")
	}
	if _, err := ParseFieldOptions("no_equals_sign"); err == nil {
		t.Error("expected error for malformed segment")
	}
}

// Encoding is deterministic: map-backed options always serialize in the same
// order.
func TestRelationOptionsEncodeDeterministic(t *testing.T) {
	opts := RelationOptions{
		LimitChoicesTo: map[string]string{
			"parent_lookup__name": "A",
			"category":            "B",
			"zone":                "C",
		},
	}
	first := opts.Encode()
	for i := 0; i < 20; i++ {
		if got := opts.Encode(); got != first {
			t.Fatalf("non-deterministic encoding: %q vs %q", got, first)
		}
	}
}
