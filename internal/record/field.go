package record

// FieldName is an optional column name. The zero value is NoName.
type FieldName struct {
	value string
	ok    bool
}

// NoName marks an anonymous field.
var NoName = FieldName{}

// Name returns a present FieldName. The empty string is a valid name.
func Name(s string) FieldName {
	return FieldName{value: s, ok: true}
}

// Names is a shorthand for building a fully named list.
func Names(ss ...string) []FieldName {
	out := make([]FieldName, len(ss))
	for i, s := range ss {
		out[i] = Name(s)
	}
	return out
}

func (n FieldName) Get() (string, bool) { return n.value, n.ok }
func (n FieldName) IsSet() bool         { return n.ok }

// Matches reports whether n is present and equal to s. An absent name
// matches nothing.
func (n FieldName) Matches(s string) bool {
	return n.ok && n.value == s
}

// Or returns the name, or def when absent.
func (n FieldName) Or(def string) string {
	if !n.ok {
		return def
	}
	return n.value
}

func (n FieldName) String() string { return n.Or("null") }

// FieldDesc is one column of a TupleDesc.
type FieldDesc struct {
	Type FieldType
	Name FieldName
}

func (f FieldDesc) String() string {
	return f.Name.String() + "(" + f.Type.String() + ")"
}
