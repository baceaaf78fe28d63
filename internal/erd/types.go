package erd

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldType is the converter's ORM-agnostic type tag.
type FieldType string

const (
	TypeString    FieldType = "string"
	TypeText      FieldType = "text"
	TypeInteger   FieldType = "integer"
	TypeSmallInt  FieldType = "small_integer"
	TypeBigInt    FieldType = "big_integer"
	TypeAuto      FieldType = "auto"
	TypeBigAuto   FieldType = "big_auto"
	TypeSmallAuto FieldType = "small_auto"
	TypeDecimal   FieldType = "decimal"
	TypeFloat     FieldType = "float"
	TypeBoolean   FieldType = "boolean"
	TypeDate      FieldType = "date"
	TypeTime      FieldType = "time"
	TypeDateTime  FieldType = "datetime"
	TypeDuration  FieldType = "duration"
	TypeUUID      FieldType = "uuid"
	TypeJSON      FieldType = "json"
	TypeBinary    FieldType = "binary"
	TypeEmail     FieldType = "email"
	TypeURL       FieldType = "url"
	TypeSlug      FieldType = "slug"
	TypeFile      FieldType = "file"
	TypeImage     FieldType = "image"
	TypeIPAddress FieldType = "ip_address"
)

var fieldTypes = map[FieldType]bool{
	TypeString: true, TypeText: true, TypeInteger: true, TypeSmallInt: true,
	TypeBigInt: true, TypeAuto: true, TypeBigAuto: true, TypeSmallAuto: true,
	TypeDecimal: true, TypeFloat: true, TypeBoolean: true, TypeDate: true,
	TypeTime: true, TypeDateTime: true, TypeDuration: true, TypeUUID: true,
	TypeJSON: true, TypeBinary: true, TypeEmail: true, TypeURL: true,
	TypeSlug: true, TypeFile: true, TypeImage: true, TypeIPAddress: true,
}

type namePattern struct {
	re   *regexp.Regexp
	kind FieldType
}

// Ordered rule table for name-based type inference. First match wins; rule
// precedence is part of the contract and covered by tests.
var namePatterns = []namePattern{
	{regexp.MustCompile(`^(is_|has_|can_|should_|was_|will_|did_|does_|are_|were_)`), TypeBoolean},
	{regexp.MustCompile(`_(active|enabled|disabled|deleted|verified|confirmed|approved|published|draft|archived|locked|public|private)$`), TypeBoolean},
	{regexp.MustCompile(`^(active|enabled|disabled|deleted|verified|confirmed|approved|published|visible)$`), TypeBoolean},
	{regexp.MustCompile(`(email|e_mail|mail)`), TypeEmail},
	{regexp.MustCompile(`(url|link|website|homepage|site)`), TypeURL},
	{regexp.MustCompile(`slug`), TypeSlug},
	{regexp.MustCompile(`(uuid|guid|unique_id)`), TypeUUID},
	// Anchored on a word start so "profile" does not read as "file".
	{regexp.MustCompile(`(^|_)(file|attachment|document)`), TypeFile},
	{regexp.MustCompile(`(image|photo|picture|avatar|logo|icon)`), TypeImage},
	{regexp.MustCompile(`(ip_address|ipv4|ipv6|remote_addr|^ip$|_ip$)`), TypeIPAddress},
	{regexp.MustCompile(`(data|metadata|config|settings|options|preferences|properties|attributes|params|extra)$`), TypeJSON},
}

// rawTypeMap maps a bare database type name (parenthesized size stripped) to
// a type tag. Covers the common vendor spellings across MySQL, Postgres,
// SQL Server and Oracle exports.
var rawTypeMap = map[string]FieldType{
	// integers
	"tinyint":     TypeSmallInt,
	"smallint":    TypeSmallInt,
	"mediumint":   TypeInteger,
	"int":         TypeInteger,
	"integer":     TypeInteger,
	"bigint":      TypeBigInt,
	"serial":      TypeAuto,
	"bigserial":   TypeBigAuto,
	"smallserial": TypeSmallAuto,
	"year":        TypeInteger,

	// decimal / floating point
	"decimal":          TypeDecimal,
	"numeric":          TypeDecimal,
	"money":            TypeDecimal,
	"float":            TypeFloat,
	"real":             TypeFloat,
	"double":           TypeFloat,
	"double precision": TypeFloat,

	// strings
	"char":              TypeString,
	"varchar":           TypeString,
	"character":         TypeString,
	"character varying": TypeString,
	"nchar":             TypeString,
	"nvarchar":          TypeString,
	"text":              TypeText,
	"tinytext":          TypeText,
	"mediumtext":        TypeText,
	"longtext":          TypeText,
	"ntext":             TypeText,
	"clob":              TypeText,
	"xml":               TypeText,

	// binary
	"binary":     TypeBinary,
	"varbinary":  TypeBinary,
	"blob":       TypeBinary,
	"tinyblob":   TypeBinary,
	"mediumblob": TypeBinary,
	"longblob":   TypeBinary,
	"bytea":      TypeBinary,

	// date / time
	"date":                        TypeDate,
	"datetime":                    TypeDateTime,
	"datetime2":                   TypeDateTime,
	"smalldatetime":               TypeDateTime,
	"timestamp":                   TypeDateTime,
	"timestamp with time zone":    TypeDateTime,
	"timestamp without time zone": TypeDateTime,
	"timestamptz":                 TypeDateTime,
	"time":                        TypeTime,
	"time with time zone":         TypeTime,
	"time without time zone":      TypeTime,
	"timetz":                      TypeTime,
	"interval":                    TypeDuration,

	// boolean
	"boolean": TypeBoolean,
	"bool":    TypeBoolean,
	"bit":     TypeBoolean,

	// special
	"uuid":     TypeUUID,
	"guid":     TypeUUID,
	"json":     TypeJSON,
	"jsonb":    TypeJSON,
	"array":    TypeJSON,
	"inet":     TypeIPAddress,
	"cidr":     TypeIPAddress,
	"macaddr":  TypeString,
	"macaddr8": TypeString,

	// geometric, range and vendor-specific types fall back to text
	"point":     TypeText,
	"line":      TypeText,
	"lseg":      TypeText,
	"box":       TypeText,
	"polygon":   TypeText,
	"circle":    TypeText,
	"geometry":  TypeText,
	"geography": TypeText,
	"int4range": TypeText,
	"int8range": TypeText,
	"tsrange":   TypeText,
	"tstzrange": TypeText,
	"daterange": TypeText,
	"tsvector":  TypeText,
	"tsquery":   TypeText,
	"rowid":     TypeBigInt,
	"enum":      TypeString,
	"set":       TypeString,
}

var (
	sizeSuffixRe    = regexp.MustCompile(`\((\d+)\)`)
	decimalSizeRe   = regexp.MustCompile(`\((\d+),\s*(\d+)\)`)
	tinyintBoolRe   = regexp.MustCompile(`^tinyint\s*\(\s*1\s*\)$`)
	typeParenStrip  = regexp.MustCompile(`\s*\(.*\)\s*$`)
	stringLikeTypes = map[FieldType]bool{TypeString: true, TypeEmail: true, TypeSlug: true}
)

// ResolveType infers a type tag for a field from its name and raw database
// type. Resolution order: name pattern rules, the tinyint(1) boolean special
// case, the raw type table, then substring heuristics. Never fails; the final
// fallback is a generic string type with a warning.
func ResolveType(fieldName, rawType string) (FieldType, string) {
	name := strings.ToLower(fieldName)
	raw := strings.ToLower(strings.TrimSpace(rawType))

	for _, p := range namePatterns {
		if p.re.MatchString(name) {
			return p.kind, ""
		}
	}

	// tinyint(1) is the MySQL boolean convention regardless of name.
	if tinyintBoolRe.MatchString(raw) {
		return TypeBoolean, ""
	}

	base := strings.TrimSpace(typeParenStrip.ReplaceAllString(raw, ""))
	if kind, ok := rawTypeMap[base]; ok {
		return kind, ""
	}

	switch {
	case strings.Contains(base, "int"), strings.Contains(base, "serial"):
		return TypeInteger, ""
	case strings.Contains(base, "char"), strings.Contains(base, "text"), strings.Contains(base, "string"):
		return TypeString, ""
	case strings.Contains(base, "date"), strings.Contains(base, "time"):
		return TypeDateTime, ""
	case strings.Contains(base, "bool"), strings.Contains(base, "bit"):
		return TypeBoolean, ""
	case strings.Contains(base, "dec"), strings.Contains(base, "float"), strings.Contains(base, "double"), strings.Contains(base, "real"):
		return TypeDecimal, ""
	}

	return TypeString, fmt.Sprintf("unknown type %q for field %q - using string", rawType, fieldName)
}

// autoCreateNames and autoUpdateNames are the timestamp naming conventions
// that flip a datetime field to auto-populate behavior.
var (
	autoCreateNames = map[string]bool{"created_at": true, "created": true, "created_on": true, "date_created": true}
	autoUpdateNames = map[string]bool{"updated_at": true, "updated": true, "modified": true, "modified_at": true, "last_modified": true}
	nowSentinels    = map[string]bool{"current_timestamp": true, "now()": true, "current_timestamp()": true}
)

// BuildOptions derives the option set for a resolved field. Returned warnings
// cover non-convertible attributes such as collation.
func BuildOptions(field *Field, kind FieldType) (FieldOptions, []string) {
	var o FieldOptions
	var warnings []string
	raw := field.Type.Name
	name := strings.ToLower(field.Name)

	if stringLikeTypes[kind] {
		maxLen := field.MaxLength
		if maxLen == 0 {
			if m := sizeSuffixRe.FindStringSubmatch(raw); m != nil {
				fmt.Sscanf(m[1], "%d", &maxLen)
			}
		}
		if maxLen == 0 {
			maxLen = 255
		}
		o.MaxLength = maxLen
	}

	if kind == TypeDecimal {
		digits, places := field.Precision, field.Scale
		if m := decimalSizeRe.FindStringSubmatch(raw); m != nil {
			fmt.Sscanf(m[1], "%d", &digits)
			fmt.Sscanf(m[2], "%d", &places)
		}
		if digits == 0 {
			digits = 10
		}
		if places == 0 {
			places = 2
		}
		o.MaxDigits = digits
		o.DecimalPlaces = places
	}

	if kind == TypeFile || kind == TypeImage {
		o.UploadTo = uploadBucket(name)
	}

	nullable := field.IsNullable()
	if !field.PrimaryKey {
		if nullable {
			o.Null = true
			if kind != TypeBoolean {
				o.Blank = true
			}
		} else if kind == TypeBoolean {
			o.Default = "false"
			o.HasDefault = true
		}
	}

	if field.Unique && !field.PrimaryKey {
		o.Unique = true
	}

	if field.Default != nil {
		def := *field.Default
		if nowSentinels[strings.ToLower(def)] {
			if kind == TypeDateTime || kind == TypeDate {
				o.AutoNowAdd = true
			}
		} else if !o.HasDefault {
			o.Default = def
			o.HasDefault = true
		}
	}

	if kind == TypeDateTime || kind == TypeDate {
		if autoCreateNames[name] {
			o.AutoNowAdd = true
		} else if autoUpdateNames[name] {
			o.AutoNow = true
		}
	}

	if choices, ok := parseChoices(field.Choices); ok {
		o.Choices = choices
	}

	if field.Collation != "" && (kind == TypeString || kind == TypeText) {
		warnings = append(warnings, fmt.Sprintf(
			"field %q has collation %q - not convertible, configure on the database side", field.Name, field.Collation))
	}

	return o, warnings
}

func uploadBucket(fieldName string) string {
	switch {
	case strings.Contains(fieldName, "image"), strings.Contains(fieldName, "photo"):
		return "images/"
	case strings.Contains(fieldName, "document"):
		return "documents/"
	case strings.Contains(fieldName, "avatar"):
		return "avatars/"
	default:
		return "uploads/"
	}
}
