package erd

import (
	"strings"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func commerceGraph() *Graph {
	return &Graph{
		Tables: []Table{
			{
				ID:   "t1",
				Name: "users",
				Fields: []Field{
					{ID: "f1", Name: "id", Type: TypeRef{Name: "int"}, PrimaryKey: true},
					{ID: "f2", Name: "email", Type: TypeRef{Name: "varchar(255)"}, Nullable: boolPtr(false), Unique: true},
					{ID: "f3", Name: "is_active", Type: TypeRef{Name: "tinyint(1)"}, Nullable: boolPtr(false)},
					{ID: "f4", Name: "created_at", Type: TypeRef{Name: "timestamp"}, Nullable: boolPtr(false)},
				},
			},
			{
				ID:   "t2",
				Name: "orders",
				Fields: []Field{
					{ID: "f5", Name: "id", Type: TypeRef{Name: "bigint"}, PrimaryKey: true},
					{ID: "f6", Name: "user_id", Type: TypeRef{Name: "int"}, Nullable: boolPtr(false)},
					{ID: "f7", Name: "amount", Type: TypeRef{Name: "decimal(10,2)"}, Nullable: boolPtr(false)},
				},
			},
		},
		Relationships: []Relationship{
			{
				ID:                "r1",
				Name:              "order_user",
				SourceTableID:     "t2",
				TargetTableID:     "t1",
				SourceFieldID:     "f6",
				SourceCardinality: "many",
				TargetCardinality: "one",
				OnDelete:          "cascade",
			},
		},
	}
}

func findModel(t *testing.T, models []ModelDescriptor, name string) *ModelDescriptor {
	t.Helper()
	for i := range models {
		if models[i].Name == name {
			return &models[i]
		}
	}
	t.Fatalf("model %q not found in %v", name, models)
	return nil
}

func findField(m *ModelDescriptor, name string) *FieldDescriptor {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

func TestConvertGraphBasic(t *testing.T) {
	result := ConvertGraph(commerceGraph(), "")

	if !result.IsValid {
		t.Fatalf("conversion should be valid, errors: %v", result.Errors)
	}
	if result.ModelCount != 2 {
		t.Fatalf("ModelCount = %d, want 2", result.ModelCount)
	}

	users := findModel(t, result.Models, "Users")
	orders := findModel(t, result.Models, "Orders")

	// The implicit auto primary key must not survive as a regular field.
	if findField(users, "id") != nil {
		t.Error("auto primary key should be dropped")
	}

	email := findField(users, "email")
	if email == nil {
		t.Fatal("email field missing")
	}
	if email.Type != TypeEmail {
		t.Errorf("email type = %q, want %q", email.Type, TypeEmail)
	}
	if email.Options.MaxLength != 255 {
		t.Errorf("email max length = %d, want 255", email.Options.MaxLength)
	}
	if !email.Options.Unique {
		t.Error("email should be unique")
	}

	active := findField(users, "is_active")
	if active == nil || active.Type != TypeBoolean {
		t.Fatalf("is_active should be boolean, got %+v", active)
	}
	if !active.Options.HasDefault || active.Options.Default != "false" {
		t.Errorf("required boolean should default to false, got %+v", active.Options)
	}

	// created_at came from the source; updated_at is synthesized. Neither is
	// duplicated.
	for _, m := range result.Models {
		created, updated := 0, 0
		for _, f := range m.Fields {
			if f.Name == "created_at" {
				created++
			}
			if f.Name == "updated_at" {
				updated++
			}
		}
		if created != 1 || updated != 1 {
			t.Errorf("model %s: created_at x%d, updated_at x%d, want one each", m.Name, created, updated)
		}
	}

	if len(orders.Relationships) != 1 {
		t.Fatalf("orders should carry one relationship, got %v", orders.Relationships)
	}
	rel := orders.Relationships[0]
	if rel.Kind != RelSingleReference {
		t.Errorf("relationship kind = %q, want %q", rel.Kind, RelSingleReference)
	}
	if rel.Name != "user_id" {
		t.Errorf("relationship name = %q, want user_id", rel.Name)
	}
	if rel.RelatedModel != "Users" {
		t.Errorf("related model = %q, want Users", rel.RelatedModel)
	}
	if rel.Options.OnDelete != DeleteCascade {
		t.Errorf("on delete = %q, want cascade", rel.Options.OnDelete)
	}
	if rel.Options.RelatedName != "orders_user_id_set" {
		t.Errorf("related name = %q, want orders_user_id_set", rel.Options.RelatedName)
	}

	// The consumed column must not survive as a plain field.
	if findField(orders, "user_id") != nil {
		t.Error("user_id column should be replaced by the relationship")
	}
}

func TestConvertGraphAppQualification(t *testing.T) {
	result := ConvertGraph(commerceGraph(), "shop")
	orders := findModel(t, result.Models, "Orders")
	if got := orders.Relationships[0].RelatedModel; got != "shop.Users" {
		t.Errorf("related model = %q, want shop.Users", got)
	}
}

func TestConvertGraphSetNullMakesNullable(t *testing.T) {
	g := commerceGraph()
	g.Relationships[0].OnDelete = "SET NULL"
	result := ConvertGraph(g, "")
	rel := findModel(t, result.Models, "Orders").Relationships[0]
	if rel.Options.OnDelete != DeleteSetNull {
		t.Errorf("on delete = %q, want set_null", rel.Options.OnDelete)
	}
	if !rel.Options.Null || !rel.Options.Blank {
		t.Errorf("set_null reference should be nullable, got %+v", rel.Options)
	}
}

func TestConvertGraphInvalidOnDeleteDegrades(t *testing.T) {
	g := commerceGraph()
	g.Relationships[0].OnDelete = "explode"
	result := ConvertGraph(g, "")

	if !result.IsValid {
		t.Fatalf("invalid policy should degrade, not fail: %v", result.Errors)
	}
	rel := findModel(t, result.Models, "Orders").Relationships[0]
	if rel.Options.OnDelete != DeleteCascade {
		t.Errorf("on delete = %q, want cascade fallback", rel.Options.OnDelete)
	}
	if !hasWarningContaining(result.Warnings, "invalid deletion policy") {
		t.Errorf("expected a policy warning, got %v", result.Warnings)
	}
}

func TestConvertGraphLookupRelationship(t *testing.T) {
	g := &Graph{
		Tables: []Table{
			{
				ID:   "t1",
				Name: "order",
				Fields: []Field{
					{ID: "f1", Name: "id", Type: TypeRef{Name: "int"}, PrimaryKey: true},
					{ID: "f2", Name: "payment_status", Type: TypeRef{Name: "varchar(50)"}, Nullable: boolPtr(false)},
				},
			},
			{ID: "t2", Name: "lookup.Lookup"},
		},
		Relationships: []Relationship{
			{
				ID:                "r1",
				SourceTableID:     "t1",
				TargetTableID:     "t2",
				SourceFieldID:     "f2",
				SourceCardinality: "many",
				TargetCardinality: "one",
				OnDelete:          "set_null",
			},
		},
	}

	result := ConvertGraph(g, "")
	if !result.IsValid {
		t.Fatalf("errors: %v", result.Errors)
	}
	if result.ModelCount != 1 {
		t.Fatalf("external lookup table should not become a model, got %d models", result.ModelCount)
	}

	order := findModel(t, result.Models, "Order")
	if len(order.Relationships) != 1 {
		t.Fatalf("want one lookup relationship, got %v", order.Relationships)
	}
	rel := order.Relationships[0]
	if rel.RelatedModel != LookupModelRef {
		t.Errorf("related model = %q, want %q", rel.RelatedModel, LookupModelRef)
	}
	want := map[string]string{LookupFilterKey: "Order Payment Status"}
	if got := rel.Options.LimitChoicesTo; len(got) != 1 || got[LookupFilterKey] != want[LookupFilterKey] {
		t.Errorf("limit filter = %v, want %v", got, want)
	}
}

func TestConvertGraphDuplicateModelNames(t *testing.T) {
	g := &Graph{
		Tables: []Table{
			{
				ID:     "t1",
				Name:   "order",
				Fields: []Field{{ID: "f1", Name: "title", Type: TypeRef{Name: "varchar(50)"}}},
			},
			{
				ID:     "t2",
				Name:   "order_",
				Fields: []Field{{ID: "f2", Name: "label", Type: TypeRef{Name: "varchar(50)"}}},
			},
		},
	}

	result := ConvertGraph(g, "")
	if !result.IsValid {
		t.Fatalf("errors: %v", result.Errors)
	}

	names := make(map[string]bool)
	for _, m := range result.Models {
		names[m.Name] = true
	}
	if !names["Order"] || !names["Order2"] {
		t.Errorf("want Order and Order2, got %v", names)
	}
	if !hasWarningContaining(result.Warnings, "duplicate model") {
		t.Errorf("expected a duplicate-name warning, got %v", result.Warnings)
	}
}

func TestConvertGraphViewBecomesUnmanaged(t *testing.T) {
	g := &Graph{
		Tables: []Table{
			{
				ID:     "t1",
				Name:   "sales_summary",
				IsView: true,
				Fields: []Field{{ID: "f1", Name: "total", Type: TypeRef{Name: "decimal(12,2)"}}},
			},
		},
	}
	result := ConvertGraph(g, "")
	m := findModel(t, result.Models, "SalesSummary")
	if !m.Meta.Unmanaged {
		t.Error("view should convert to an unmanaged model")
	}
	if m.Meta.DBTable != "sales_summary" {
		t.Errorf("db table = %q, want sales_summary", m.Meta.DBTable)
	}
	if !hasWarningContaining(result.Warnings, "unmanaged") {
		t.Errorf("expected an unmanaged warning, got %v", result.Warnings)
	}
}

func TestConvertGraphSkipsPlatformTables(t *testing.T) {
	g := &Graph{
		Tables: []Table{
			{ID: "t1", Name: "auth_user", Fields: []Field{{ID: "f1", Name: "login", Type: TypeRef{Name: "varchar(50)"}}}},
			{ID: "t2", Name: "customers", Fields: []Field{{ID: "f2", Name: "title", Type: TypeRef{Name: "varchar(50)"}}}},
		},
	}
	result := ConvertGraph(g, "")
	if result.ModelCount != 1 {
		t.Fatalf("platform table should be skipped, got %d models", result.ModelCount)
	}
	if result.Models[0].Name != "Customers" {
		t.Errorf("surviving model = %q, want Customers", result.Models[0].Name)
	}
}

func TestConvertGraphMissingRelationshipTarget(t *testing.T) {
	g := commerceGraph()
	g.Relationships[0].TargetTableID = "nope"
	result := ConvertGraph(g, "")

	if !result.IsValid {
		t.Fatalf("dangling relationship should degrade to a warning: %v", result.Errors)
	}
	orders := findModel(t, result.Models, "Orders")
	if len(orders.Relationships) != 0 {
		t.Errorf("dangling relationship should be skipped, got %v", orders.Relationships)
	}
	if !hasWarningContaining(result.Warnings, "missing table") {
		t.Errorf("expected a missing-table warning, got %v", result.Warnings)
	}
}

func TestConvertGraphEmptyTableGetsNameField(t *testing.T) {
	g := &Graph{Tables: []Table{{ID: "t1", Name: "placeholder"}}}
	result := ConvertGraph(g, "")
	m := findModel(t, result.Models, "Placeholder")
	name := findField(m, "name")
	if name == nil {
		t.Fatal("empty table should get a synthesized name field")
	}
	if name.Type != TypeString || name.Options.MaxLength != 255 {
		t.Errorf("synthesized field should be string(255), got %+v", name)
	}
}

func TestConvertGraphRelationshipOwnedByEarlierTable(t *testing.T) {
	// The owning table converts first and two more tables follow it, so the
	// relationship must land on the model regardless of where the owner sits
	// in the output slice.
	g := &Graph{
		Tables: []Table{
			{
				ID:   "t1",
				Name: "books",
				Fields: []Field{
					{ID: "f1", Name: "id", Type: TypeRef{Name: "int"}, PrimaryKey: true},
					{ID: "f2", Name: "title", Type: TypeRef{Name: "varchar(200)"}, Nullable: boolPtr(false)},
					{ID: "f3", Name: "author_id", Type: TypeRef{Name: "int"}, Nullable: boolPtr(false)},
				},
			},
			{
				ID:   "t2",
				Name: "authors",
				Fields: []Field{
					{ID: "f4", Name: "id", Type: TypeRef{Name: "int"}, PrimaryKey: true},
					{ID: "f5", Name: "full_name", Type: TypeRef{Name: "varchar(120)"}, Nullable: boolPtr(false)},
				},
			},
			{
				ID:   "t3",
				Name: "shelves",
				Fields: []Field{
					{ID: "f6", Name: "id", Type: TypeRef{Name: "int"}, PrimaryKey: true},
					{ID: "f7", Name: "label", Type: TypeRef{Name: "varchar(50)"}, Nullable: boolPtr(false)},
				},
			},
		},
		Relationships: []Relationship{
			{
				ID:                "r1",
				SourceTableID:     "t1",
				TargetTableID:     "t2",
				SourceFieldID:     "f3",
				SourceCardinality: "many",
				TargetCardinality: "one",
				OnDelete:          "cascade",
			},
		},
	}

	result := ConvertGraph(g, "")
	if !result.IsValid {
		t.Fatalf("errors: %v", result.Errors)
	}

	books := findModel(t, result.Models, "Books")
	if len(books.Relationships) != 1 {
		t.Fatalf("Books should own one relationship, got %v", books.Relationships)
	}
	rel := books.Relationships[0]
	if rel.Kind != RelSingleReference {
		t.Errorf("relationship kind = %q, want %q", rel.Kind, RelSingleReference)
	}
	if rel.RelatedModel != "Authors" {
		t.Errorf("related model = %q, want Authors", rel.RelatedModel)
	}
	if findField(books, "author_id") != nil {
		t.Error("author_id column should be replaced by the relationship")
	}

	for _, name := range []string{"Authors", "Shelves"} {
		if m := findModel(t, result.Models, name); len(m.Relationships) != 0 {
			t.Errorf("%s should carry no relationships, got %v", name, m.Relationships)
		}
	}
}

func TestConvertGraphDuplicateRelationshipsDeduped(t *testing.T) {
	g := commerceGraph()
	dup := g.Relationships[0]
	dup.ID = "r2"
	g.Relationships = append(g.Relationships, dup)

	result := ConvertGraph(g, "")
	orders := findModel(t, result.Models, "Orders")
	if len(orders.Relationships) != 1 {
		t.Errorf("identical relationships should be deduped, got %v", orders.Relationships)
	}
}

func TestParseGraphTypeForms(t *testing.T) {
	data := []byte(`{
		"tables": [{
			"id": "t1",
			"name": "items",
			"fields": [
				{"id": "f1", "name": "title", "type": "varchar(80)"},
				{"id": "f2", "name": "payload", "type": {"name": "jsonb"}}
			]
		}]
	}`)
	g, err := ParseGraph(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Tables[0].Fields[0].Type.Name; got != "varchar(80)" {
		t.Errorf("string form: got %q", got)
	}
	if got := g.Tables[0].Fields[1].Type.Name; got != "jsonb" {
		t.Errorf("object form: got %q", got)
	}
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
