package dialect

import (
	"strings"
	"testing"

	"schemakit/internal/dynamic"
)

func intPtr(n int) *int { return &n }

func TestGetDialect(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{"postgres", "postgres", false},
		{"pgx", "postgres", false},
		{"sqlite", "sqlite", false},
		{"sqlite3", "sqlite", false},
		{"mysql", "mysql", false},
		{"mariadb", "mysql", false},
		{"oracle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := GetDialect(tt.driver)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("GetDialect(%q): expected error", tt.driver)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if d.Name() != tt.want {
				t.Errorf("GetDialect(%q).Name() = %q, want %q", tt.driver, d.Name(), tt.want)
			}
		})
	}
}

func TestColumnTypes(t *testing.T) {
	pg := NewPostgresDialect()
	lite := NewSQLiteDialect()
	my := NewMySQLDialect()

	tests := []struct {
		field  dynamic.FieldDefinition
		pg     string
		sqlite string
		mysql  string
	}{
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldString, MaxLength: 80}, "VARCHAR(80)", "VARCHAR(80)", "VARCHAR(80)"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldString}, "VARCHAR(255)", "VARCHAR(255)", "VARCHAR(255)"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldText}, "TEXT", "TEXT", "LONGTEXT"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldBigInt}, "BIGINT", "BIGINT", "BIGINT"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldDecimal, MaxDigits: intPtr(10), DecimalPlaces: intPtr(2)}, "NUMERIC(10,2)", "DECIMAL(10,2)", "DECIMAL(10,2)"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldBoolean}, "BOOLEAN", "BOOLEAN", "TINYINT(1)"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldDateTime}, "TIMESTAMPTZ", "DATETIME", "DATETIME(6)"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldUUID}, "UUID", "CHAR(36)", "CHAR(36)"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldJSON}, "JSONB", "TEXT", "JSON"},
		{dynamic.FieldDefinition{Name: "t", Type: dynamic.FieldIPAddress}, "INET", "VARCHAR(45)", "VARCHAR(45)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.field.Type), func(t *testing.T) {
			if got, err := pg.ColumnType(&tt.field); err != nil || got != tt.pg {
				t.Errorf("postgres: got (%q, %v), want %q", got, err, tt.pg)
			}
			if got, err := lite.ColumnType(&tt.field); err != nil || got != tt.sqlite {
				t.Errorf("sqlite: got (%q, %v), want %q", got, err, tt.sqlite)
			}
			if got, err := my.ColumnType(&tt.field); err != nil || got != tt.mysql {
				t.Errorf("mysql: got (%q, %v), want %q", got, err, tt.mysql)
			}
		})
	}
}

func TestDecimalWithoutPrecisionErrors(t *testing.T) {
	f := dynamic.FieldDefinition{Name: "total", Type: dynamic.FieldDecimal}
	for _, d := range []dynamic.Dialect{NewPostgresDialect(), NewSQLiteDialect(), NewMySQLDialect()} {
		if _, err := d.ColumnType(&f); err == nil {
			t.Errorf("%s: expected error for decimal without precision", d.Name())
		}
	}
}

func TestPostgresCreateTableSQL(t *testing.T) {
	d := NewPostgresDialect()
	fields := []dynamic.FieldDefinition{
		{Name: "title", Type: dynamic.FieldString, MaxLength: 100},
		{Name: "owner", Type: dynamic.FieldForeignKey, RelatedModel: "app.User", RelatedTable: "app_user", OnDelete: "set_null", Null: true},
		{Name: "created_at", Type: dynamic.FieldDateTime, AutoNowAdd: true},
	}
	stmts, err := d.CreateTableSQL("app_doc", fields)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("want one statement, got %d", len(stmts))
	}
	sql := stmts[0]

	for _, want := range []string{
		`CREATE TABLE "app_doc"`,
		`"id" BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY`,
		`"title" VARCHAR(100) NOT NULL`,
		`"owner_id" BIGINT REFERENCES "app_user"("id") ON DELETE SET NULL`,
		`"created_at" TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP`,
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("missing %q in:\n%s", want, sql)
		}
	}
}

func TestPostgresAlterColumnSQL(t *testing.T) {
	d := NewPostgresDialect()
	f := dynamic.FieldDefinition{Name: "notes", Type: dynamic.FieldText, Null: true}
	stmts, err := d.AlterColumnSQL("app_doc", &f)
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(stmts, "; ")
	for _, want := range []string{
		`ALTER COLUMN "notes" TYPE TEXT USING "notes"::TEXT`,
		`ALTER COLUMN "notes" DROP NOT NULL`,
		`ALTER COLUMN "notes" DROP DEFAULT`,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %q", want, joined)
		}
	}
}

func TestMySQLRenameUsesChangeColumn(t *testing.T) {
	d := NewMySQLDialect()
	f := dynamic.FieldDefinition{Name: "headline", Type: dynamic.FieldString, MaxLength: 100}
	stmts, err := d.RenameColumnSQL("cms_article", "title", &f)
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 1 {
		t.Fatalf("want one statement, got %v", stmts)
	}
	want := "ALTER TABLE `cms_article` CHANGE COLUMN `title` `headline` VARCHAR(100) NOT NULL"
	if stmts[0] != want {
		t.Errorf("got  %q\nwant %q", stmts[0], want)
	}
}

func TestSQLiteVersionGate(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"3.25.0", true},
		{"3.24.0", false},
		{"3.46.1", true},
		{"2.9.9", false},
		{"4.0", true},
		{"garbage", false},
	}
	for _, tt := range tests {
		if got := sqliteVersionAtLeast(tt.version, 3, 25); got != tt.want {
			t.Errorf("sqliteVersionAtLeast(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestSQLiteRebuildTableSQL(t *testing.T) {
	d := NewSQLiteDialect()
	fields := []dynamic.FieldDefinition{
		{Name: "headline", Type: dynamic.FieldString, MaxLength: 100},
		{Name: "views", Type: dynamic.FieldInteger},
	}
	stmts, err := d.RebuildTableSQL("cms_article", fields, map[string]string{
		"headline": "title",
		"views":    "views",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(stmts) != 4 {
		t.Fatalf("want create/copy/drop/rename, got %d statements", len(stmts))
	}
	if !strings.HasPrefix(stmts[0], `CREATE TABLE "cms_article__rebuild"`) {
		t.Errorf("statement 0 = %q", stmts[0])
	}
	wantCopy := `INSERT INTO "cms_article__rebuild" ("id", "headline", "views") SELECT "id", "title", "views" FROM "cms_article"`
	if stmts[1] != wantCopy {
		t.Errorf("copy statement:\ngot  %q\nwant %q", stmts[1], wantCopy)
	}
	if stmts[2] != `DROP TABLE "cms_article"` {
		t.Errorf("statement 2 = %q", stmts[2])
	}
	if stmts[3] != `ALTER TABLE "cms_article__rebuild" RENAME TO "cms_article"` {
		t.Errorf("statement 3 = %q", stmts[3])
	}
}

func TestOnDeleteActionMapping(t *testing.T) {
	tests := []struct {
		policy string
		want   string
	}{
		{"cascade", "CASCADE"},
		{"", "CASCADE"},
		{"set_null", "SET NULL"},
		{"restrict", "RESTRICT"},
		{"protect", "NO ACTION"},
		{"do_nothing", "NO ACTION"},
	}
	for _, tt := range tests {
		if got := onDeleteAction(tt.policy); got != tt.want {
			t.Errorf("onDeleteAction(%q) = %q, want %q", tt.policy, got, tt.want)
		}
	}
}
