package data

// Kind is the tag of a JSON-like Value.
type Kind string

// The closed set of Value kinds. INT and FLOAT are both the Number variant, split by the
// representation that won the conversion.
const (
	NULL    Kind = "null"
	BOOL    Kind = "bool"
	INT     Kind = "int"
	FLOAT   Kind = "float"
	STRING  Kind = "string"
	ARRAY   Kind = "array"
	OBJECT  Kind = "object"
	INVALID Kind = "invalid"
)

// KindOf classifies an already normalized value. Anything outside the normalized shapes is
// reported as INVALID.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return NULL
	case bool:
		return BOOL
	case int64:
		return INT
	case float64:
		return FLOAT
	case string:
		return STRING
	case []any:
		return ARRAY
	case map[string]any:
		return OBJECT
	default:
		return INVALID
	}
}

// IsNumber reports whether the kind is one of the Number representations.
func (k Kind) IsNumber() bool {
	return k == INT || k == FLOAT
}
