package regtype

import (
	"fmt"
	"math"

	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/sz"
)

// variantPayload is the active-branch payload of a Variant value: exactly
// one branch is live at a time, mirroring IVariant_Value's single-slot
// storage rather than keeping a slot per branch.
type variantPayload struct {
	idx int
	val Value
}

// Value is a typed, constructible instance of a registered Type. The zero
// Value is invalid; use Type.Default to construct one.
type Value struct {
	typ     *Type
	payload any
}

// Type returns the Value's registered type.
func (v Value) Type() *Type { return v.typ }

// Default constructs the zero-initialized value of t: false, 0, empty
// string, zero vector, first enum symbol, absent optional, empty sequence,
// branch 0 of a variant, and every field defaulted recursively for a record.
func (t *Type) Default() Value {
	switch t.kind {
	case KindBool:
		return Value{typ: t, payload: false}
	case KindString:
		return Value{typ: t, payload: ""}
	case KindVector:
		return Value{typ: t, payload: make([]float64, t.vecN)}
	case KindEnum:
		return Value{typ: t, payload: 0}
	case KindOptional:
		return Value{typ: t, payload: (*Value)(nil)}
	case KindSequence:
		return Value{typ: t, payload: []Value{}}
	case KindVariant:
		first := t.branches[0].Default()
		return Value{typ: t, payload: variantPayload{idx: 0, val: first}}
	case KindRecord:
		fields := make([]Value, len(t.fields))
		for i, f := range t.fields {
			if t.attrs.HasDefault {
				// record-level default is handled by the caller constructing
				// field-by-field; fall through to the field's own default.
			}
			fields[i] = f.Type.Default()
		}
		return Value{typ: t, payload: fields}
	default:
		if t.kind.isSignedInt() {
			return Value{typ: t, payload: int64(0)}
		}
		if t.kind.isUnsignedInt() {
			return Value{typ: t, payload: uint64(0)}
		}
		if t.kind.isFloat() {
			return Value{typ: t, payload: float64(0)}
		}
		panic("regtype: Default: unhandled kind " + t.kind.String())
	}
}

// Copy produces an independent deep copy of v.
func (v Value) Copy() Value {
	switch v.typ.kind {
	case KindOptional:
		p := v.payload.(*Value)
		if p == nil {
			return Value{typ: v.typ, payload: (*Value)(nil)}
		}
		c := p.Copy()
		return Value{typ: v.typ, payload: &c}
	case KindSequence:
		src := v.payload.([]Value)
		out := make([]Value, len(src))
		for i, e := range src {
			out[i] = e.Copy()
		}
		return Value{typ: v.typ, payload: out}
	case KindVariant:
		vp := v.payload.(variantPayload)
		return Value{typ: v.typ, payload: variantPayload{idx: vp.idx, val: vp.val.Copy()}}
	case KindRecord:
		src := v.payload.([]Value)
		out := make([]Value, len(src))
		for i, e := range src {
			out[i] = e.Copy()
		}
		return Value{typ: v.typ, payload: out}
	case KindVector:
		src := v.payload.([]float64)
		out := make([]float64, len(src))
		copy(out, src)
		return Value{typ: v.typ, payload: out}
	default:
		// scalar payloads (bool, ints, floats, string, enum index) are
		// immutable value types in Go; sharing the interface word is safe.
		return Value{typ: v.typ, payload: v.payload}
	}
}

// CopyAssign replaces v's payload with src's, after checking the two share
// the same registered type. This is the typed assignment every stream
// sample push and every node input port goes through.
func (v *Value) CopyAssign(src Value) error {
	if !v.typ.Same(src.typ) {
		return &errcode.E{C: errcode.KindMismatch, Op: "CopyAssign", Msg: fmt.Sprintf("%s != %s", v.typ.name, src.typ.name)}
	}
	*v = src.Copy()
	return nil
}

// Equal reports deep, type-checked equality. Values of differing type are
// never equal, including a numeric kind against another numeric kind of
// different width.
func (v Value) Equal(o Value) bool {
	if !v.typ.Same(o.typ) {
		return false
	}
	switch v.typ.kind {
	case KindOptional:
		pa, pb := v.payload.(*Value), o.payload.(*Value)
		if (pa == nil) != (pb == nil) {
			return false
		}
		if pa == nil {
			return true
		}
		return pa.Equal(*pb)
	case KindSequence, KindRecord:
		a, b := v.payload.([]Value), o.payload.([]Value)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case KindVariant:
		a, b := v.payload.(variantPayload), o.payload.(variantPayload)
		return a.idx == b.idx && a.val.Equal(b.val)
	case KindVector:
		a, b := v.payload.([]float64), o.payload.([]float64)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	case KindF32, KindF64:
		return v.payload.(float64) == o.payload.(float64)
	default:
		return v.payload == o.payload
	}
}

// --- scalar constructors/accessors ---

// NewBool constructs a Bool value.
func (t *Type) NewBool(b bool) (Value, error) {
	if t.kind != KindBool {
		return Value{}, kindErr(t, KindBool)
	}
	return Value{typ: t, payload: b}, nil
}

func (v Value) Bool() bool { return v.payload.(bool) }

// NewInt constructs a signed-integer value, range-checked against the
// declared bit width.
func (t *Type) NewInt(i int64) (Value, error) {
	if !t.kind.isSignedInt() {
		return Value{}, kindErrMsg(t, "signed integer")
	}
	w := t.kind.bitWidth()
	if w < 64 {
		lo, hi := -(int64(1) << (w - 1)), (int64(1)<<(w-1))-1
		if i < lo || i > hi {
			return Value{}, &errcode.E{C: errcode.InvalidParams, Op: "NewInt", Msg: fmt.Sprintf("%d out of range for %s", i, t.kind)}
		}
	}
	return Value{typ: t, payload: i}, nil
}

func (v Value) Int() int64 { return v.payload.(int64) }

// NewUint constructs an unsigned-integer value, range-checked.
func (t *Type) NewUint(u uint64) (Value, error) {
	if !t.kind.isUnsignedInt() {
		return Value{}, kindErrMsg(t, "unsigned integer")
	}
	w := t.kind.bitWidth()
	if w < 64 {
		hi := (uint64(1) << w) - 1
		if u > hi {
			return Value{}, &errcode.E{C: errcode.InvalidParams, Op: "NewUint", Msg: fmt.Sprintf("%d out of range for %s", u, t.kind)}
		}
	}
	return Value{typ: t, payload: u}, nil
}

func (v Value) Uint() uint64 { return v.payload.(uint64) }

// NewFloat constructs an F32/F64 value. F32 truncates to float32 precision
// on construction so later Equal calls behave like real 32-bit storage.
func (t *Type) NewFloat(f float64) (Value, error) {
	if !t.kind.isFloat() {
		return Value{}, kindErrMsg(t, "float")
	}
	if t.kind == KindF32 {
		f = float64(float32(f))
	}
	return Value{typ: t, payload: f}, nil
}

func (v Value) Float() float64 { return v.payload.(float64) }

// NewString constructs a String value.
func (t *Type) NewString(s string) (Value, error) {
	if t.kind != KindString {
		return Value{}, kindErr(t, KindString)
	}
	return Value{typ: t, payload: s}, nil
}

func (v Value) String() string { return v.payload.(string) }

// NewVector constructs a fixed-width float vector, arity-checked.
func (t *Type) NewVector(components ...float64) (Value, error) {
	if t.kind != KindVector {
		return Value{}, kindErr(t, KindVector)
	}
	if len(components) != t.vecN {
		return Value{}, &errcode.E{C: errcode.ArityMismatch, Op: "NewVector", Msg: fmt.Sprintf("want %d components, got %d", t.vecN, len(components))}
	}
	out := make([]float64, t.vecN)
	copy(out, components)
	return Value{typ: t, payload: out}, nil
}

func (v Value) VectorComponents() []float64 {
	src := v.payload.([]float64)
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// NewEnum constructs an enum value from a symbol name.
func (t *Type) NewEnum(symbol string) (Value, error) {
	if t.kind != KindEnum {
		return Value{}, kindErr(t, KindEnum)
	}
	for i, s := range t.symbols {
		if s == symbol {
			return Value{typ: t, payload: i}, nil
		}
	}
	return Value{}, &errcode.E{C: errcode.VariantOutOfRange, Op: "NewEnum", Msg: "unknown symbol: " + symbol}
}

// EnumSymbol returns the active symbol name.
func (v Value) EnumSymbol() string {
	return v.typ.symbols[v.payload.(int)]
}

// EnumOrdinal returns the symbol's numeric value (index + the enum's base).
func (v Value) EnumOrdinal() int {
	return v.payload.(int) + v.typ.base
}

// NewOptionalEmpty constructs an absent optional.
func (t *Type) NewOptionalEmpty() (Value, error) {
	if t.kind != KindOptional {
		return Value{}, kindErr(t, KindOptional)
	}
	return Value{typ: t, payload: (*Value)(nil)}, nil
}

// NewOptionalOf wraps inner, which must match t.Elem().
func (t *Type) NewOptionalOf(inner Value) (Value, error) {
	if t.kind != KindOptional {
		return Value{}, kindErr(t, KindOptional)
	}
	if !t.elem.Same(inner.typ) {
		return Value{}, kindErr(t.elem, inner.typ.kind)
	}
	c := inner.Copy()
	return Value{typ: t, payload: &c}, nil
}

// OptionalGet returns the wrapped value and whether it is present.
func (v Value) OptionalGet() (Value, bool) {
	p := v.payload.(*Value)
	if p == nil {
		return Value{}, false
	}
	return *p, true
}

// NewSequence constructs a sequence from elements, each checked against
// t.Elem().
func (t *Type) NewSequence(elems ...Value) (Value, error) {
	if t.kind != KindSequence {
		return Value{}, kindErr(t, KindSequence)
	}
	out := make([]Value, len(elems))
	for i, e := range elems {
		if !t.elem.Same(e.typ) {
			return Value{}, kindErr(t.elem, e.typ.kind)
		}
		out[i] = e.Copy()
	}
	return Value{typ: t, payload: out}, nil
}

func (v Value) SequenceLen() int { return len(v.payload.([]Value)) }

func (v Value) SequenceAt(i int) Value {
	return v.payload.([]Value)[i]
}

// SequenceAppend returns a new sequence value with elem appended.
func (v Value) SequenceAppend(elem Value) (Value, error) {
	if !v.typ.elem.Same(elem.typ) {
		return Value{}, kindErr(v.typ.elem, elem.typ.kind)
	}
	src := v.payload.([]Value)
	out := make([]Value, len(src)+1)
	copy(out, src)
	out[len(src)] = elem.Copy()
	return Value{typ: v.typ, payload: out}, nil
}

// NewVariant constructs a variant with the given branch index active.
func (t *Type) NewVariant(branch int, inner Value) (Value, error) {
	if t.kind != KindVariant {
		return Value{}, kindErr(t, KindVariant)
	}
	if branch < 0 || branch >= len(t.branches) {
		return Value{}, &errcode.E{C: errcode.VariantOutOfRange, Op: "NewVariant", Msg: fmt.Sprintf("branch %d out of range [0,%d)", branch, len(t.branches))}
	}
	if !t.branches[branch].Same(inner.typ) {
		return Value{}, kindErr(t.branches[branch], inner.typ.kind)
	}
	return Value{typ: t, payload: variantPayload{idx: branch, val: inner.Copy()}}, nil
}

// VariantBranch returns the active branch index and its value.
func (v Value) VariantBranch() (int, Value) {
	vp := v.payload.(variantPayload)
	return vp.idx, vp.val
}

// SetVariantBranch re-initializes v in place to branch idx carrying inner,
// mirroring IVariant_Value::set_specific_value's re-init-on-switch behavior.
func (v *Value) SetVariantBranch(idx int, inner Value) error {
	nv, err := v.typ.NewVariant(idx, inner)
	if err != nil {
		return err
	}
	*v = nv
	return nil
}

// NewRecord constructs a record from field values supplied in declared
// field order.
func (t *Type) NewRecord(values ...Value) (Value, error) {
	if t.kind != KindRecord {
		return Value{}, kindErr(t, KindRecord)
	}
	if len(values) != len(t.fields) {
		return Value{}, &errcode.E{C: errcode.ArityMismatch, Op: "NewRecord", Msg: fmt.Sprintf("want %d fields, got %d", len(t.fields), len(values))}
	}
	out := make([]Value, len(values))
	for i, fv := range values {
		if !t.fields[i].Type.Same(fv.typ) {
			return Value{}, kindErr(t.fields[i].Type, fv.typ.kind)
		}
		out[i] = fv.Copy()
	}
	return Value{typ: t, payload: out}, nil
}

// RecordField returns the value of a named field.
func (v Value) RecordField(name string) (Value, error) {
	idx, ok := v.typ.fieldIndex(name)
	if !ok {
		return Value{}, &errcode.E{C: errcode.MissingField, Op: "RecordField", Msg: "no such field: " + name}
	}
	return v.payload.([]Value)[idx], nil
}

// WithRecordField returns a copy of v with field name replaced by val.
func (v Value) WithRecordField(name string, val Value) (Value, error) {
	idx, ok := v.typ.fieldIndex(name)
	if !ok {
		return Value{}, &errcode.E{C: errcode.MissingField, Op: "WithRecordField", Msg: "no such field: " + name}
	}
	if !v.typ.fields[idx].Type.Same(val.typ) {
		return Value{}, kindErr(v.typ.fields[idx].Type, val.typ.kind)
	}
	src := v.payload.([]Value)
	out := make([]Value, len(src))
	copy(out, src)
	out[idx] = val.Copy()
	return Value{typ: v.typ, payload: out}, nil
}

func kindErr(t *Type, got Kind) error {
	return &errcode.E{C: errcode.KindMismatch, Op: "regtype", Msg: fmt.Sprintf("expected %s, got %s", t.kind, got)}
}

func kindErrMsg(t *Type, want string) error {
	return &errcode.E{C: errcode.KindMismatch, Op: "regtype", Msg: fmt.Sprintf("expected %s, got %s", want, t.kind)}
}

// --- Select: deep path navigation ---

// PathElem is one step of a Select path: a record field name or a sequence
// index. Optionals and variants take no step: Select unwraps them into the
// present value or the active branch on its own.
type PathElem struct {
	Field string
	Index int
	IsIdx bool
}

func FieldStep(name string) PathElem { return PathElem{Field: name} }
func IndexStep(i int) PathElem       { return PathElem{Index: i, IsIdx: true} }

// Select navigates a path of fields/indices through nested
// records/sequences/optionals/variants, returning the value found.
func (v Value) Select(path ...PathElem) (Value, error) {
	cur := v
	i := 0
	for i < len(path) {
		step := path[i]
		switch cur.typ.kind {
		case KindRecord:
			if step.IsIdx {
				return Value{}, kindErrMsg(cur.typ, "record (field step)")
			}
			fv, err := cur.RecordField(step.Field)
			if err != nil {
				return Value{}, err
			}
			cur = fv
			i++
		case KindSequence:
			if !step.IsIdx {
				return Value{}, kindErrMsg(cur.typ, "sequence (index step)")
			}
			if step.Index < 0 || step.Index >= cur.SequenceLen() {
				return Value{}, &errcode.E{C: errcode.InvalidParams, Op: "Select", Msg: "sequence index out of range"}
			}
			cur = cur.SequenceAt(step.Index)
			i++
		case KindOptional:
			// transparent unwrap: does not consume a path step.
			inner, ok := cur.OptionalGet()
			if !ok {
				return Value{}, &errcode.E{C: errcode.InvalidParams, Op: "Select", Msg: "select through empty optional"}
			}
			cur = inner
		case KindVariant:
			// transparent unwrap into the active branch.
			_, inner := cur.VariantBranch()
			cur = inner
		default:
			return Value{}, kindErrMsg(cur.typ, "container (record/sequence/optional/variant)")
		}
	}
	return cur, nil
}

// --- Serialize / Deserialize through the neutral sz tree ---

// Serialize converts v into the neutral sz.Value tree.
func (v Value) Serialize() sz.Value {
	switch v.typ.kind {
	case KindBool:
		return sz.OfBool(v.Bool())
	case KindString:
		return sz.OfString(v.String())
	case KindEnum:
		return sz.OfString(v.EnumSymbol())
	case KindVector:
		comps := v.VectorComponents()
		out := make([]sz.Value, len(comps))
		for i, c := range comps {
			out[i] = sz.OfFloat(c)
		}
		return sz.OfList(out)
	case KindOptional:
		inner, ok := v.OptionalGet()
		if !ok {
			return sz.Nil()
		}
		return inner.Serialize()
	case KindSequence:
		n := v.SequenceLen()
		out := make([]sz.Value, n)
		for i := 0; i < n; i++ {
			out[i] = v.SequenceAt(i).Serialize()
		}
		return sz.OfList(out)
	case KindVariant:
		idx, inner := v.VariantBranch()
		return sz.OfFields([]sz.Field{
			{Name: "branch", Value: sz.OfInt(int64(idx))},
			{Name: "value", Value: inner.Serialize()},
		})
	case KindRecord:
		fields := make([]sz.Field, len(v.typ.fields))
		for i, f := range v.typ.fields {
			fv, _ := v.RecordField(f.Name)
			fields[i] = sz.Field{Name: f.Name, Value: fv.Serialize()}
		}
		return sz.OfFields(fields)
	default:
		if v.typ.kind.isSignedInt() {
			return sz.OfInt(v.Int())
		}
		if v.typ.kind.isUnsignedInt() {
			return sz.OfUint(v.Uint())
		}
		return sz.OfFloat(v.Float())
	}
}

// Deserialize overwrites v in place from an sz.Value tree previously
// produced by Serialize against the same Type.
func (v *Value) Deserialize(n sz.Value) error {
	t := v.typ
	switch t.kind {
	case KindBool:
		if n.Kind != sz.KindBool {
			return kindErrMsg(t, "bool tree node")
		}
		nv, _ := t.NewBool(n.Bool)
		*v = nv
	case KindString:
		if n.Kind != sz.KindString {
			return kindErrMsg(t, "string tree node")
		}
		nv, _ := t.NewString(n.Str)
		*v = nv
	case KindEnum:
		if n.Kind != sz.KindString {
			return kindErrMsg(t, "string tree node")
		}
		nv, err := t.NewEnum(n.Str)
		if err != nil {
			return err
		}
		*v = nv
	case KindVector:
		if n.Kind != sz.KindList || len(n.List) != t.vecN {
			return &errcode.E{C: errcode.ArityMismatch, Op: "Deserialize", Msg: "vector arity mismatch"}
		}
		comps := make([]float64, t.vecN)
		for i, e := range n.List {
			comps[i] = e.Float
		}
		nv, _ := t.NewVector(comps...)
		*v = nv
	case KindOptional:
		if n.Kind == sz.KindNil {
			nv, _ := t.NewOptionalEmpty()
			*v = nv
			return nil
		}
		inner := t.elem.Default()
		if err := inner.Deserialize(n); err != nil {
			return err
		}
		nv, _ := t.NewOptionalOf(inner)
		*v = nv
	case KindSequence:
		if n.Kind != sz.KindList {
			return kindErrMsg(t, "list tree node")
		}
		elems := make([]Value, len(n.List))
		for i, e := range n.List {
			elems[i] = t.elem.Default()
			if err := elems[i].Deserialize(e); err != nil {
				return err
			}
		}
		nv, err := t.NewSequence(elems...)
		if err != nil {
			return err
		}
		*v = nv
	case KindVariant:
		if n.Kind != sz.KindFields {
			return kindErrMsg(t, "fields tree node")
		}
		bf, ok := n.Field("branch")
		if !ok {
			return &errcode.E{C: errcode.ParseError, Op: "Deserialize", Msg: "variant missing branch tag"}
		}
		idx := int(bf.Int)
		if idx < 0 || idx >= len(t.branches) {
			return &errcode.E{C: errcode.VariantOutOfRange, Op: "Deserialize", Msg: fmt.Sprintf("branch %d out of range", idx)}
		}
		vf, ok := n.Field("value")
		if !ok {
			return &errcode.E{C: errcode.ParseError, Op: "Deserialize", Msg: "variant missing value"}
		}
		inner := t.branches[idx].Default()
		if err := inner.Deserialize(vf); err != nil {
			return err
		}
		nv, err := t.NewVariant(idx, inner)
		if err != nil {
			return err
		}
		*v = nv
	case KindRecord:
		if n.Kind != sz.KindFields {
			return kindErrMsg(t, "fields tree node")
		}
		out := t.Default()
		vals := out.payload.([]Value)
		for i, f := range t.fields {
			fv, ok := n.Field(f.Name)
			if !ok {
				return &errcode.E{C: errcode.MissingField, Op: "Deserialize", Msg: "missing field: " + f.Name}
			}
			fieldVal := f.Type.Default()
			if err := fieldVal.Deserialize(fv); err != nil {
				return err
			}
			vals[i] = fieldVal
		}
		*v = out
	default:
		switch {
		case t.kind.isSignedInt():
			if n.Kind != sz.KindInt {
				return kindErrMsg(t, "int tree node")
			}
			nv, err := t.NewInt(n.Int)
			if err != nil {
				return err
			}
			*v = nv
		case t.kind.isUnsignedInt():
			if n.Kind != sz.KindUint {
				return kindErrMsg(t, "uint tree node")
			}
			nv, err := t.NewUint(n.Uint)
			if err != nil {
				return err
			}
			*v = nv
		case t.kind.isFloat():
			if n.Kind != sz.KindFloat {
				return kindErrMsg(t, "float tree node")
			}
			nv, err := t.NewFloat(n.Float)
			if err != nil {
				return err
			}
			*v = nv
		default:
			return &errcode.E{C: errcode.TypeRegistryCorruption, Op: "Deserialize", Msg: "unhandled kind " + t.kind.String()}
		}
	}
	return nil
}

// --- UI string parse/emit ---

// UIString renders a human-readable single-line form, used for config files
// and the remote command surface's text encoding.
func (v Value) UIString() string {
	switch v.typ.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.Bool())
	case KindString:
		return v.String()
	case KindEnum:
		return v.EnumSymbol()
	case KindVector:
		comps := v.VectorComponents()
		s := "("
		for i, c := range comps {
			if i > 0 {
				s += ", "
			}
			s += fmt.Sprintf("%g", c)
		}
		return s + ")"
	case KindOptional:
		inner, ok := v.OptionalGet()
		if !ok {
			return "none"
		}
		return inner.UIString()
	default:
		if v.typ.kind.isSignedInt() {
			return fmt.Sprintf("%d", v.Int())
		}
		if v.typ.kind.isUnsignedInt() {
			return fmt.Sprintf("%d", v.Uint())
		}
		if v.typ.kind.isFloat() {
			return fmt.Sprintf("%g", v.Float())
		}
		return "<" + v.typ.kind.String() + ">"
	}
}

// ParseUIString parses the UIString form back into v in place. Only bool,
// string, enum and the integer and float kinds are parsed; vector, optional
// and compound container kinds return Unsupported and are configured through
// the sz tree instead (§6 config surface).
func (v *Value) ParseUIString(s string) error {
	t := v.typ
	switch t.kind {
	case KindBool:
		switch s {
		case "true":
			nv, _ := t.NewBool(true)
			*v = nv
		case "false":
			nv, _ := t.NewBool(false)
			*v = nv
		default:
			return &errcode.E{C: errcode.ParseError, Op: "ParseUIString", Msg: "not a bool: " + s}
		}
	case KindString:
		nv, _ := t.NewString(s)
		*v = nv
	case KindEnum:
		nv, err := t.NewEnum(s)
		if err != nil {
			return &errcode.E{C: errcode.ParseError, Op: "ParseUIString", Msg: err.Error()}
		}
		*v = nv
	default:
		if t.kind.isSignedInt() {
			var i int64
			if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
				return &errcode.E{C: errcode.ParseError, Op: "ParseUIString", Msg: err.Error()}
			}
			nv, err := t.NewInt(i)
			if err != nil {
				return err
			}
			*v = nv
			return nil
		}
		if t.kind.isUnsignedInt() {
			var u uint64
			if _, err := fmt.Sscanf(s, "%d", &u); err != nil {
				return &errcode.E{C: errcode.ParseError, Op: "ParseUIString", Msg: err.Error()}
			}
			nv, err := t.NewUint(u)
			if err != nil {
				return err
			}
			*v = nv
			return nil
		}
		if t.kind.isFloat() {
			var f float64
			if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
				return &errcode.E{C: errcode.ParseError, Op: "ParseUIString", Msg: err.Error()}
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return &errcode.E{C: errcode.ParseError, Op: "ParseUIString", Msg: "non-finite float: " + s}
			}
			nv, err := t.NewFloat(f)
			if err != nil {
				return err
			}
			*v = nv
			return nil
		}
		return &errcode.E{C: errcode.Unsupported, Op: "ParseUIString", Msg: "kind " + t.kind.String() + " has no scalar UI form"}
	}
	return nil
}
