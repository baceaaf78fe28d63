package erd

import "testing"

func TestSanitizeModelName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "users", "Users"},
		{"snake case", "order_items", "OrderItems"},
		{"already pascal", "OrderItems", "OrderItems"},
		{"spaces and dashes", "my table-name", "MyTableName"},
		{"namespace stripped", "public.customer_accounts", "CustomerAccounts"},
		{"leading digit", "2fa_tokens", "Model2faTokens"},
		{"special characters", "weird!!table##name", "WeirdTableName"},
		{"empty", "", "UnnamedModel"},
		{"only symbols", "!!!", "Model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := SanitizeModelName(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeModelName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFieldName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "email", "email"},
		{"uppercase", "FirstName", "firstname"},
		{"spaces", "first name", "first_name"},
		{"leading digit", "1st_place", "field_1st_place"},
		{"double underscores collapse", "a__b___c", "a_b_c"},
		{"empty", "", "unnamed_field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := SanitizeFieldName(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeFieldName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeReservedIdentifiers(t *testing.T) {
	got, warning := SanitizeFieldName("delete")
	if got != "delete_field" {
		t.Errorf("reserved field: got %q, want %q", got, "delete_field")
	}
	if warning == "" {
		t.Error("expected a rename warning for reserved identifier")
	}

	got, warning = SanitizeModelName("meta")
	if got != "MetaModel" {
		t.Errorf("reserved model: got %q, want %q", got, "MetaModel")
	}
	if warning == "" {
		t.Error("expected a rename warning for reserved identifier")
	}
}

// Sanitization must be idempotent: feeding an output back in yields the same
// name again.
func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{"users", "order items", "2fa_tokens", "public.accounts", "delete", "weird!!name"}

	for _, in := range inputs {
		once, _ := SanitizeModelName(in)
		twice, _ := SanitizeModelName(once)
		if once != twice {
			t.Errorf("model sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
	for _, in := range inputs {
		once, _ := SanitizeFieldName(in)
		twice, _ := SanitizeFieldName(once)
		if once != twice {
			t.Errorf("field sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeIndexName(t *testing.T) {
	long := "idx_abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
	got := sanitizeIndexName(long)
	if len(got) > 60 {
		t.Errorf("index name not truncated: %d chars", len(got))
	}
	if got := sanitizeIndexName(""); got != "idx_unnamed" {
		t.Errorf("empty index name: got %q", got)
	}
}
