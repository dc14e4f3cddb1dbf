package types

// Type identifies an interpreter machine.
type Type string

const (
	Starlark Type = "starlark"
	Risor    Type = "risor"
)

// Valid reports whether t names a supported machine.
func (t Type) Valid() bool {
	switch t {
	case Starlark, Risor:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	return string(t)
}
