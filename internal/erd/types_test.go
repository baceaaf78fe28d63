package erd

import "testing"

func TestResolveTypeNamePatterns(t *testing.T) {
	tests := []struct {
		field string
		raw   string
		want  FieldType
	}{
		{"is_active", "varchar(10)", TypeBoolean},
		{"has_children", "int", TypeBoolean},
		{"account_enabled", "tinyint", TypeBoolean},
		{"email", "varchar(255)", TypeEmail},
		{"contact_email", "text", TypeEmail},
		{"website_url", "varchar(500)", TypeURL},
		{"slug", "varchar(50)", TypeSlug},
		{"session_uuid", "char(36)", TypeUUID},
		{"attachment", "varchar(255)", TypeFile},
		{"source_file", "varchar(255)", TypeFile},
		{"profile_photo", "varchar(255)", TypeImage},
		// "profile" contains "file" but is not a file field.
		{"profile", "varchar(255)", TypeString},
		{"remote_addr", "varchar(45)", TypeIPAddress},
		{"metadata", "text", TypeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, _ := ResolveType(tt.field, tt.raw)
			if got != tt.want {
				t.Errorf("ResolveType(%q, %q) = %q, want %q", tt.field, tt.raw, got, tt.want)
			}
		})
	}
}

// Name rules must win over the raw type, tinyint(1) must win over the raw
// table, and the raw table must win over substring heuristics.
func TestResolveTypePrecedence(t *testing.T) {
	if got, _ := ResolveType("is_deleted", "datetime"); got != TypeBoolean {
		t.Errorf("name rule should beat raw type, got %q", got)
	}
	if got, _ := ResolveType("flag", "tinyint(1)"); got != TypeBoolean {
		t.Errorf("tinyint(1) should resolve to boolean, got %q", got)
	}
	if got, _ := ResolveType("count", "tinyint(4)"); got != TypeSmallInt {
		t.Errorf("tinyint(4) should resolve through the raw table, got %q", got)
	}
}

func TestResolveTypeRawTypes(t *testing.T) {
	tests := []struct {
		raw  string
		want FieldType
	}{
		{"varchar(100)", TypeString},
		{"TEXT", TypeText},
		{"bigint", TypeBigInt},
		{"smallint", TypeSmallInt},
		{"serial", TypeAuto},
		{"bigserial", TypeBigAuto},
		{"decimal(10,2)", TypeDecimal},
		{"numeric(8, 3)", TypeDecimal},
		{"double precision", TypeFloat},
		{"timestamp with time zone", TypeDateTime},
		{"timetz", TypeTime},
		{"interval", TypeDuration},
		{"bytea", TypeBinary},
		{"jsonb", TypeJSON},
		{"inet", TypeIPAddress},
		{"tsvector", TypeText},
		{"enum('a','b')", TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, _ := ResolveType("amount_value", tt.raw)
			if got != tt.want {
				t.Errorf("ResolveType(_, %q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolveTypeFallbacks(t *testing.T) {
	if got, _ := ResolveType("qty", "unsigned int"); got != TypeInteger {
		t.Errorf("substring heuristic for int failed, got %q", got)
	}
	got, warning := ResolveType("thing", "hyperloglog")
	if got != TypeString {
		t.Errorf("unknown type should fall back to string, got %q", got)
	}
	if warning == "" {
		t.Error("unknown type should produce a warning")
	}
}

func TestBuildOptionsStringLength(t *testing.T) {
	f := &Field{Name: "title", Type: TypeRef{Name: "varchar(120)"}}
	o, _ := BuildOptions(f, TypeString)
	if o.MaxLength != 120 {
		t.Errorf("max length from raw type: got %d, want 120", o.MaxLength)
	}

	f = &Field{Name: "title", Type: TypeRef{Name: "varchar"}}
	o, _ = BuildOptions(f, TypeString)
	if o.MaxLength != 255 {
		t.Errorf("default max length: got %d, want 255", o.MaxLength)
	}

	f = &Field{Name: "title", Type: TypeRef{Name: "varchar(64)"}, MaxLength: 90}
	o, _ = BuildOptions(f, TypeString)
	if o.MaxLength != 90 {
		t.Errorf("explicit attribute should win: got %d, want 90", o.MaxLength)
	}
}

func TestBuildOptionsDecimal(t *testing.T) {
	f := &Field{Name: "price", Type: TypeRef{Name: "decimal(12,4)"}}
	o, _ := BuildOptions(f, TypeDecimal)
	if o.MaxDigits != 12 || o.DecimalPlaces != 4 {
		t.Errorf("got (%d, %d), want (12, 4)", o.MaxDigits, o.DecimalPlaces)
	}

	f = &Field{Name: "price", Type: TypeRef{Name: "decimal"}}
	o, _ = BuildOptions(f, TypeDecimal)
	if o.MaxDigits != 10 || o.DecimalPlaces != 2 {
		t.Errorf("defaults: got (%d, %d), want (10, 2)", o.MaxDigits, o.DecimalPlaces)
	}
}

func TestBuildOptionsNullability(t *testing.T) {
	yes, no := true, false

	f := &Field{Name: "notes", Type: TypeRef{Name: "text"}, Nullable: &yes}
	o, _ := BuildOptions(f, TypeText)
	if !o.Null || !o.Blank {
		t.Errorf("nullable text field should be null+blank, got %+v", o)
	}

	// Nullable booleans stay three-state but never blank.
	f = &Field{Name: "is_active", Type: TypeRef{Name: "tinyint(1)"}, Nullable: &yes}
	o, _ = BuildOptions(f, TypeBoolean)
	if !o.Null || o.Blank {
		t.Errorf("nullable boolean should be null without blank, got %+v", o)
	}

	// Required booleans default to false.
	f = &Field{Name: "is_active", Type: TypeRef{Name: "tinyint(1)"}, Nullable: &no}
	o, _ = BuildOptions(f, TypeBoolean)
	if o.Null || !o.HasDefault || o.Default != "false" {
		t.Errorf("required boolean should default to false, got %+v", o)
	}

	// Nullability omitted means nullable.
	f = &Field{Name: "nickname", Type: TypeRef{Name: "varchar(30)"}}
	o, _ = BuildOptions(f, TypeString)
	if !o.Null {
		t.Errorf("omitted nullability should default to nullable, got %+v", o)
	}
}

func TestBuildOptionsTimestamps(t *testing.T) {
	no := false
	f := &Field{Name: "created_at", Type: TypeRef{Name: "timestamp"}, Nullable: &no}
	o, _ := BuildOptions(f, TypeDateTime)
	if !o.AutoNowAdd || o.AutoNow {
		t.Errorf("created_at should be auto_now_add, got %+v", o)
	}

	f = &Field{Name: "updated_at", Type: TypeRef{Name: "timestamp"}, Nullable: &no}
	o, _ = BuildOptions(f, TypeDateTime)
	if !o.AutoNow {
		t.Errorf("updated_at should be auto_now, got %+v", o)
	}

	def := "CURRENT_TIMESTAMP"
	f = &Field{Name: "logged_on", Type: TypeRef{Name: "timestamp"}, Nullable: &no, Default: &def}
	o, _ = BuildOptions(f, TypeDateTime)
	if !o.AutoNowAdd {
		t.Errorf("now-sentinel default should become auto_now_add, got %+v", o)
	}
	if o.HasDefault {
		t.Errorf("now-sentinel should not survive as a literal default, got %+v", o)
	}
}

func TestBuildOptionsCollationWarning(t *testing.T) {
	no := false
	f := &Field{Name: "title", Type: TypeRef{Name: "varchar(50)"}, Nullable: &no, Collation: "utf8mb4_general_ci"}
	_, warnings := BuildOptions(f, TypeString)
	if len(warnings) != 1 {
		t.Fatalf("expected one collation warning, got %v", warnings)
	}
}
