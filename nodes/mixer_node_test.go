package nodes

import (
	"testing"

	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
)

func buildMixerDescriptor(t *testing.T, reg *regtype.Registry, shared *Types, geom []motorSpec, rateHz float64) regtype.Value {
	t.Helper()
	descType, err := RegisterMixerDescriptorType(reg, shared)
	if err != nil {
		t.Fatalf("RegisterMixerDescriptorType: %v", err)
	}
	motorType, _ := reg.Lookup("mixer_motor")
	motorSeqType, _ := reg.Lookup("mixer_motor_seq")

	seq := motorSeqType.Default()
	for _, m := range geom {
		mv := motorType.Default()
		pos, _ := shared.Vec3.NewVector(m.pos[0], m.pos[1], m.pos[2])
		cw, _ := shared.Bool.NewBool(m.clockwise)
		thrust, _ := shared.F64.NewFloat(m.thrust)
		zTorque, _ := shared.F64.NewFloat(m.zTorque)
		mv, _ = mv.WithRecordField("position", pos)
		mv, _ = mv.WithRecordField("clockwise", cw)
		mv, _ = mv.WithRecordField("thrust", thrust)
		mv, _ = mv.WithRecordField("z_torque", zTorque)
		seq, err = seq.SequenceAppend(mv)
		if err != nil {
			t.Fatalf("SequenceAppend: %v", err)
		}
	}

	desc := descType.Default()
	rate, _ := shared.F64.NewFloat(rateHz)
	desc, _ = desc.WithRecordField("rate_hz", rate)
	desc, _ = desc.WithRecordField("motors", seq)
	return desc
}

type motorSpec struct {
	pos       [3]float64
	clockwise bool
	thrust    float64
	zTorque   float64
}

func quadXMotorSpecs() []motorSpec {
	return []motorSpec{
		{pos: [3]float64{0.25, 0.25, 0}, clockwise: true, thrust: 10, zTorque: 0.2},
		{pos: [3]float64{-0.25, -0.25, 0}, clockwise: true, thrust: 10, zTorque: 0.2},
		{pos: [3]float64{0.25, -0.25, 0}, clockwise: false, thrust: 10, zTorque: 0.2},
		{pos: [3]float64{-0.25, 0.25, 0}, clockwise: false, thrust: 10, zTorque: 0.2},
	}
}

func TestMixerNodeHoverProducesEqualThrottles(t *testing.T) {
	reg := regtype.NewRegistry()
	shared, err := Register(reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	desc := buildMixerDescriptor(t, reg, shared, quadXMotorSpecs(), 100)

	factory := NewMixerFactory(shared)
	node, outs, err := factory("mixer0", graph.Descriptor{Kind: MixerKind, Value: desc})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected 1 output stream, got %d", len(outs))
	}

	node.Start(0)
	node.Process(1000)

	sample, ok := outs[0].Latest()
	if !ok {
		t.Fatalf("expected a pushed sample")
	}
	if sample.Value.SequenceLen() != 4 {
		t.Fatalf("expected 4 throttle values, got %d", sample.Value.SequenceLen())
	}
	if !sample.Healthy {
		t.Fatalf("expected healthy sample with zero force/torque input")
	}
}
