package erd

import (
	"strings"
	"testing"
)

func TestValidateCleanModels(t *testing.T) {
	models := []ModelDescriptor{
		{
			Name: "Customer",
			Fields: []FieldDescriptor{
				{Name: "email", Type: TypeEmail, Options: FieldOptions{MaxLength: 255}},
			},
		},
		{
			Name: "Invoice",
			Fields: []FieldDescriptor{
				{Name: "total", Type: TypeDecimal, Options: FieldOptions{MaxDigits: 10, DecimalPlaces: 2}},
			},
			Relationships: []RelationshipDescriptor{
				{Name: "customer", Kind: RelSingleReference, RelatedModel: "Customer",
					Options: RelationOptions{OnDelete: DeleteCascade}},
			},
		},
	}
	valid, errs := Validate(models)
	if !valid {
		t.Fatalf("expected valid, got errors: %v", errs)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name    string
		models  []ModelDescriptor
		wantErr string
	}{
		{
			"duplicate model names",
			[]ModelDescriptor{{Name: "Order"}, {Name: "Order"}},
			"duplicate model name",
		},
		{
			"duplicate field names",
			[]ModelDescriptor{{
				Name: "Order",
				Fields: []FieldDescriptor{
					{Name: "total", Type: TypeInteger},
					{Name: "total", Type: TypeInteger},
				},
			}},
			"duplicate field",
		},
		{
			"model without fields or relationships",
			[]ModelDescriptor{{Name: "Order"}},
			"has no fields or relationships",
		},
		{
			"unknown field type",
			[]ModelDescriptor{{
				Name:   "Order",
				Fields: []FieldDescriptor{{Name: "total", Type: "hyperloglog"}},
			}},
			"unknown type",
		},
		{
			"empty field type",
			[]ModelDescriptor{{
				Name:   "Order",
				Fields: []FieldDescriptor{{Name: "total"}},
			}},
			"unknown type",
		},
		{
			"malformed field name",
			[]ModelDescriptor{{
				Name:   "Order",
				Fields: []FieldDescriptor{{Name: "not valid", Type: TypeString}},
			}},
			"not a valid identifier",
		},
		{
			"decimal without precision",
			[]ModelDescriptor{{
				Name:   "Order",
				Fields: []FieldDescriptor{{Name: "total", Type: TypeDecimal}},
			}},
			"requires max_digits and decimal_places",
		},
		{
			"dangling relationship",
			[]ModelDescriptor{{
				Name: "Order",
				Relationships: []RelationshipDescriptor{
					{Name: "customer", Kind: RelSingleReference, RelatedModel: "Ghost"},
				},
			}},
			"unknown model",
		},
		{
			"relationship without target",
			[]ModelDescriptor{{
				Name: "Order",
				Relationships: []RelationshipDescriptor{
					{Name: "customer", Kind: RelSingleReference},
				},
			}},
			"no related model",
		},
		{
			"field and relationship collide",
			[]ModelDescriptor{{
				Name:   "Order",
				Fields: []FieldDescriptor{{Name: "customer", Type: TypeString}},
				Relationships: []RelationshipDescriptor{
					{Name: "customer", Kind: RelSingleReference, RelatedModel: "Order"},
				},
			}},
			"collides with a field",
		},
		{
			"bad deletion policy",
			[]ModelDescriptor{{
				Name: "Order",
				Relationships: []RelationshipDescriptor{
					{Name: "customer", Kind: RelSingleReference, RelatedModel: "Order",
						Options: RelationOptions{OnDelete: "explode"}},
				},
			}},
			"invalid deletion policy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := Validate(tt.models)
			if valid {
				t.Fatal("expected validation failure")
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error containing %q in %v", tt.wantErr, errs)
			}
		})
	}
}

// External references (app-qualified or shared-table) are not resolvable
// locally and must not be flagged.
func TestValidateExternalReferences(t *testing.T) {
	models := []ModelDescriptor{{
		Name: "Order",
		Relationships: []RelationshipDescriptor{
			{Name: "status", Kind: RelSingleReference, RelatedModel: "lookup.Lookup",
				Options: RelationOptions{OnDelete: DeleteSetNull, Null: true}},
		},
	}}
	valid, errs := Validate(models)
	if !valid {
		t.Fatalf("external reference should pass, got: %v", errs)
	}
}
