package regtype

import "github.com/jeanleflambeur/silkopter/errcode"

// Range is a numeric range attribute (UI hint, not an enforced invariant
// unless the declaring code chooses to check it).
type Range struct {
	Min, Max float64
}

// Attrs is the keyed attribute bag carried on a declaration: UI name,
// native-type hint, numeric range, default value. Attribute validation is
// kind-specific — a Range on a string type is rejected at declare time.
type Attrs struct {
	UIName     string
	NativeType string
	Range      *Range
	HasDefault bool
	Default    any
}

// Field is a named, ordered record field.
type Field struct {
	Name string
	Type *Type
}

// Type is an entry in the Type Registry. Its kind-specific shape (VecN,
// record field list, variant branch list, enum symbols) is immutable once
// registered — Declare* calls return a new *Type; nothing mutates it after.
type Type struct {
	kind Kind
	name string

	// scalar vector width (2,3,4) for KindVector
	vecN int

	// KindOptional / KindSequence
	elem *Type

	// KindVariant
	branches []*Type

	// KindRecord
	fields []Field

	// KindEnum
	symbols []string
	base    int

	attrs Attrs
}

func (t *Type) Kind() Kind    { return t.kind }
func (t *Type) Name() string  { return t.name }
func (t *Type) Attrs() Attrs  { return t.attrs }
func (t *Type) VecN() int     { return t.vecN }
func (t *Type) Elem() *Type   { return t.elem }
func (t *Type) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}
func (t *Type) Branches() []*Type {
	out := make([]*Type, len(t.branches))
	copy(out, t.branches)
	return out
}
func (t *Type) Symbols() []string {
	out := make([]string, len(t.symbols))
	copy(out, t.symbols)
	return out
}
func (t *Type) EnumBase() int { return t.base }

// Same reports whether two type handles describe the identical registered
// shape. Registered types are compared by identity; this also lets port
// binding do a simple pointer-equality type match per spec §4.3 (rates are
// compared separately).
func (t *Type) Same(other *Type) bool {
	return t == other
}

func (t *Type) fieldIndex(name string) (int, bool) {
	for i, f := range t.fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

func validateAttrs(kind Kind, a Attrs) error {
	if a.Range != nil && !(kind.isFloat() || kind.isSignedInt() || kind.isUnsignedInt()) {
		return &errcode.E{C: errcode.InvalidParams, Op: "validateAttrs", Msg: "range attribute only valid on numeric kinds"}
	}
	return nil
}
