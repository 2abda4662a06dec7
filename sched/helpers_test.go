package sched

import "github.com/jeanleflambeur/silkopter/regtype"

var testRegistry = regtype.NewRegistry()

func regtypeIntForTest(i int) regtype.Value {
	v, _ := testRegistry.Scalar(regtype.KindI32).NewInt(int64(i))
	return v
}
