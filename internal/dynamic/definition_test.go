package dynamic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestModelDefinitionTableName(t *testing.T) {
	def := &ModelDefinition{AppName: "Shop", Name: "OrderItem"}
	assert.Equal(t, "shop_orderitem", def.TableName())
	assert.Equal(t, "Shop.OrderItem", def.QualifiedName())

	bare := &ModelDefinition{Name: "Standalone"}
	assert.Equal(t, "standalone", bare.TableName())
	assert.Equal(t, "Standalone", bare.QualifiedName())
}

func TestFieldColumnName(t *testing.T) {
	plain := FieldDefinition{Name: "title", Type: FieldString}
	assert.Equal(t, "title", plain.ColumnName())

	fk := FieldDefinition{Name: "customer", Type: FieldForeignKey}
	assert.Equal(t, "customer_id", fk.ColumnName())

	// Already suffixed names are not suffixed twice.
	fkSuffixed := FieldDefinition{Name: "customer_id", Type: FieldForeignKey}
	assert.Equal(t, "customer_id", fkSuffixed.ColumnName())

	m2m := FieldDefinition{Name: "tags", Type: FieldManyToMany}
	assert.Equal(t, "tags", m2m.ColumnName())

	hinted := FieldDefinition{Name: "customer", Type: FieldForeignKey, PreviousName: "client"}
	assert.Equal(t, "client_id", hinted.PreviousColumnName())
}

func TestValidateDecimalRequiresBothAttributes(t *testing.T) {
	def := &ModelDefinition{
		AppName: "shop",
		Name:    "Invoice",
		Fields: []FieldDefinition{
			{Name: "total", Type: FieldDecimal, MaxDigits: intPtr(10)},
		},
	}
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_digits")
	assert.Contains(t, err.Error(), "decimal_places")

	def.Fields[0].DecimalPlaces = intPtr(2)
	require.NoError(t, def.Validate())
}

func TestValidateReferenceRequiresRelatedModel(t *testing.T) {
	for _, kind := range []FieldType{FieldForeignKey, FieldOneToOne, FieldManyToMany} {
		def := &ModelDefinition{
			Name:   "Order",
			Fields: []FieldDefinition{{Name: "customer", Type: kind}},
		}
		err := def.Validate()
		require.Error(t, err, string(kind))
		assert.Contains(t, err.Error(), "related model")
	}
}

func TestValidateRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		def     ModelDefinition
		wantErr string
	}{
		{
			"empty model name",
			ModelDefinition{Fields: []FieldDefinition{{Name: "a", Type: FieldString}}},
			"model name is required",
		},
		{
			"no fields",
			ModelDefinition{Name: "Empty"},
			"has no fields",
		},
		{
			"bad field name",
			ModelDefinition{Name: "M", Fields: []FieldDefinition{{Name: "Bad Name", Type: FieldString}}},
			"not a valid identifier",
		},
		{
			"unknown type",
			ModelDefinition{Name: "M", Fields: []FieldDefinition{{Name: "x", Type: "matrix"}}},
			"unknown type",
		},
		{
			"bad deletion policy",
			ModelDefinition{Name: "M", Fields: []FieldDefinition{
				{Name: "ref", Type: FieldForeignKey, RelatedModel: "app.Other", OnDelete: "explode"},
			}},
			"invalid deletion policy",
		},
		{
			"duplicate columns",
			ModelDefinition{Name: "M", Fields: []FieldDefinition{
				{Name: "customer_id", Type: FieldBigInt},
				{Name: "customer", Type: FieldForeignKey, RelatedModel: "app.Customer"},
			}},
			"duplicate column",
		},
		{
			"auto timestamp on non-date field",
			ModelDefinition{Name: "M", Fields: []FieldDefinition{
				{Name: "counter", Type: FieldInteger, AutoNow: true},
			}},
			"auto timestamps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestColumnsExcludeManyToMany(t *testing.T) {
	def := &ModelDefinition{
		AppName: "shop",
		Name:    "Product",
		Fields: []FieldDefinition{
			{Name: "title", Type: FieldString, MaxLength: 100},
			{Name: "tags", Type: FieldManyToMany, RelatedModel: "shop.Tag", RelatedTable: "shop_tag"},
		},
	}
	cols := def.Columns()
	require.Len(t, cols, 1)
	assert.Equal(t, "title", cols[0].Name)

	junctions := def.JunctionFields()
	require.Len(t, junctions, 1)
	assert.Equal(t, "shop_product_tags", def.JunctionTableName(&junctions[0]))
}
