// Package sz is the neutral serialization tree that regtype.Value round-trips
// through: a small, self-contained tagged tree independent of any wire
// format, so callers can serialize to JSON/CBOR/whatever without regtype
// knowing about any of them.
package sz

// Value is one node of the tree. Exactly one of the typed fields is
// meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	List  []Value
	// Fields holds named children in declared order, used for both Record
	// values and Variant values (two fields: "branch", the active branch
	// index, and "value", that branch's tree).
	Fields []Field
}

type Field struct {
	Name  string
	Value Value
}

// Kind identifies which payload field of a Value is populated.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindList
	KindFields
)

func Nil() Value                 { return Value{Kind: KindNil} }
func OfBool(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func OfInt(i int64) Value         { return Value{Kind: KindInt, Int: i} }
func OfUint(u uint64) Value       { return Value{Kind: KindUint, Uint: u} }
func OfFloat(f float64) Value     { return Value{Kind: KindFloat, Float: f} }
func OfString(s string) Value     { return Value{Kind: KindString, Str: s} }
func OfList(l []Value) Value      { return Value{Kind: KindList, List: l} }
func OfFields(f []Field) Value    { return Value{Kind: KindFields, Fields: f} }

// Field looks up a named child, used when decoding Record/Variant trees.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}
