package regtype

import "testing"

func TestScalarRoundTrip(t *testing.T) {
	r := NewRegistry()
	f64 := r.Scalar(KindF64)
	v, err := f64.NewFloat(3.25)
	if err != nil {
		t.Fatalf("NewFloat: %v", err)
	}
	tree := v.Serialize()
	out := f64.Default()
	if err := out.Deserialize(tree); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !v.Equal(out) {
		t.Fatalf("round trip mismatch: %v != %v", v.UIString(), out.UIString())
	}
}

func TestIntRangeCheck(t *testing.T) {
	r := NewRegistry()
	i8 := r.Scalar(KindI8)
	if _, err := i8.NewInt(200); err == nil {
		t.Fatalf("expected range error for 200 in i8")
	}
	if _, err := i8.NewInt(-128); err != nil {
		t.Fatalf("unexpected error at lower bound: %v", err)
	}
}

func TestVectorArity(t *testing.T) {
	r := NewRegistry()
	vec3, err := r.Vector(3)
	if err != nil {
		t.Fatalf("Vector(3): %v", err)
	}
	if _, err := vec3.NewVector(1, 2); err == nil {
		t.Fatalf("expected arity mismatch for 2 components into vec3")
	}
	v, err := vec3.NewVector(1, 2, 3)
	if err != nil {
		t.Fatalf("NewVector: %v", err)
	}
	if got := v.VectorComponents(); got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("unexpected components: %v", got)
	}
}

func TestEnumRoundTrip(t *testing.T) {
	r := NewRegistry()
	et, err := r.DeclareEnum("link_state", []string{"down", "connecting", "up"}, 0, Attrs{})
	if err != nil {
		t.Fatalf("DeclareEnum: %v", err)
	}
	v, err := et.NewEnum("connecting")
	if err != nil {
		t.Fatalf("NewEnum: %v", err)
	}
	if v.EnumOrdinal() != 1 {
		t.Fatalf("expected ordinal 1, got %d", v.EnumOrdinal())
	}
	tree := v.Serialize()
	out := et.Default()
	if err := out.Deserialize(tree); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out.EnumSymbol() != "connecting" {
		t.Fatalf("expected connecting, got %s", out.EnumSymbol())
	}
	if _, err := et.NewEnum("bogus"); err == nil {
		t.Fatalf("expected VariantOutOfRange for unknown symbol")
	}
}

func TestOptionalAbsentAndPresent(t *testing.T) {
	r := NewRegistry()
	f32 := r.Scalar(KindF32)
	opt, err := r.DeclareOptional("", f32)
	if err != nil {
		t.Fatalf("DeclareOptional: %v", err)
	}
	empty, err := opt.NewOptionalEmpty()
	if err != nil {
		t.Fatalf("NewOptionalEmpty: %v", err)
	}
	if _, ok := empty.OptionalGet(); ok {
		t.Fatalf("expected absent optional")
	}
	inner, _ := f32.NewFloat(1.5)
	full, err := opt.NewOptionalOf(inner)
	if err != nil {
		t.Fatalf("NewOptionalOf: %v", err)
	}
	got, ok := full.OptionalGet()
	if !ok || got.Float() != 1.5 {
		t.Fatalf("expected present optional with 1.5, got %v ok=%v", got, ok)
	}
}

func TestSequenceAppendIsNonDestructive(t *testing.T) {
	r := NewRegistry()
	i32 := r.Scalar(KindI32)
	seqT, err := r.DeclareSequence("", i32)
	if err != nil {
		t.Fatalf("DeclareSequence: %v", err)
	}
	a, _ := i32.NewInt(1)
	b, _ := i32.NewInt(2)
	seq, err := seqT.NewSequence(a, b)
	if err != nil {
		t.Fatalf("NewSequence: %v", err)
	}
	c, _ := i32.NewInt(3)
	longer, err := seq.SequenceAppend(c)
	if err != nil {
		t.Fatalf("SequenceAppend: %v", err)
	}
	if seq.SequenceLen() != 2 {
		t.Fatalf("original sequence mutated, len=%d", seq.SequenceLen())
	}
	if longer.SequenceLen() != 3 || longer.SequenceAt(2).Int() != 3 {
		t.Fatalf("unexpected appended sequence: len=%d", longer.SequenceLen())
	}
}

func TestVariantSwitchAndOutOfRangeDeserialize(t *testing.T) {
	r := NewRegistry()
	i32 := r.Scalar(KindI32)
	str := r.Scalar(KindString)
	vt, err := r.DeclareVariant("cmd_arg", []*Type{i32, str})
	if err != nil {
		t.Fatalf("DeclareVariant: %v", err)
	}
	iv, _ := i32.NewInt(42)
	v, err := vt.NewVariant(0, iv)
	if err != nil {
		t.Fatalf("NewVariant: %v", err)
	}
	idx, inner := v.VariantBranch()
	if idx != 0 || inner.Int() != 42 {
		t.Fatalf("unexpected branch: idx=%d inner=%v", idx, inner)
	}
	sv, _ := str.NewString("hello")
	if err := v.SetVariantBranch(1, sv); err != nil {
		t.Fatalf("SetVariantBranch: %v", err)
	}
	idx, inner = v.VariantBranch()
	if idx != 1 || inner.String() != "hello" {
		t.Fatalf("re-init failed: idx=%d inner=%v", idx, inner)
	}

	tree := v.Serialize()
	tree.Fields[0].Value.Int = 99 // forge an out-of-range branch tag
	out := vt.Default()
	if err := out.Deserialize(tree); err == nil {
		t.Fatalf("expected VariantOutOfRange on forged branch tag")
	}
}

func TestRecordFieldUpdateAndEqual(t *testing.T) {
	r := NewRegistry()
	f64 := r.Scalar(KindF64)
	str := r.Scalar(KindString)
	rt, err := r.DeclareRecord("waypoint", []Field{
		{Name: "lat", Type: f64},
		{Name: "lon", Type: f64},
		{Name: "label", Type: str},
	}, Attrs{})
	if err != nil {
		t.Fatalf("DeclareRecord: %v", err)
	}
	lat, _ := f64.NewFloat(41.39)
	lon, _ := f64.NewFloat(2.15)
	label, _ := str.NewString("home")
	rec, err := rt.NewRecord(lat, lon, label)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	moved, err := rec.WithRecordField("label", func() Value { v, _ := str.NewString("away"); return v }())
	if err != nil {
		t.Fatalf("WithRecordField: %v", err)
	}
	if rec.Equal(moved) {
		t.Fatalf("expected original and modified record to differ")
	}
	again, err := rec.Select(FieldStep("lat"))
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if again.Float() != 41.39 {
		t.Fatalf("unexpected selected value: %v", again.Float())
	}

	tree := rec.Serialize()
	out := rt.Default()
	if err := out.Deserialize(tree); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !rec.Equal(out) {
		t.Fatalf("record round trip mismatch")
	}
}

func TestCopyAssignRejectsTypeMismatch(t *testing.T) {
	r := NewRegistry()
	i32 := r.Scalar(KindI32)
	f64 := r.Scalar(KindF64)
	a := i32.Default()
	b, _ := f64.NewFloat(1)
	if err := a.CopyAssign(b); err == nil {
		t.Fatalf("expected KindMismatch assigning f64 into i32")
	}
}
