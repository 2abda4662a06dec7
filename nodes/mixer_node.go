package nodes

import (
	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/mixer"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/stream"
)

// MixerKind is the catalog name for the motor mixer processor, grounded in
// original_source's processor/Motor_Mixer.cpp.
const MixerKind = "motor_mixer"

// RegisterMixerDescriptorType declares the motor-geometry descriptor shape
// against reg, using shared.Vec3 for motor positions.
func RegisterMixerDescriptorType(reg *regtype.Registry, shared *Types) (*regtype.Type, error) {
	motor, err := reg.DeclareRecord("mixer_motor", []regtype.Field{
		{Name: "position", Type: shared.Vec3},
		{Name: "clockwise", Type: shared.Bool},
		{Name: "thrust", Type: shared.F64},
		{Name: "z_torque", Type: shared.F64},
	}, regtype.Attrs{})
	if err != nil {
		return nil, err
	}
	motorSeq, err := reg.DeclareSequence("mixer_motor_seq", motor)
	if err != nil {
		return nil, err
	}
	descriptor, err := reg.DeclareRecord("motor_mixer_descriptor", []regtype.Field{
		{Name: "rate_hz", Type: shared.F64},
		{Name: "motors", Type: motorSeq},
	}, regtype.Attrs{})
	if err != nil {
		return nil, err
	}
	return descriptor, nil
}

// MixerNode wraps a mixer.Mixer as a graph.Node: two vec3 inputs
// (commanded force, commanded torque), one throttle-sequence output.
type MixerNode struct {
	name   string
	shared *Types

	rateHz float64
	geom   mixer.Geometry
	mix    *mixer.Mixer

	desc graph.Descriptor
	cfg  graph.Config

	inForce, inTorque *stream.Stream
	out               *stream.Stream

	tickOriginUS int64
	lastEmitUS   int64
}

// NewMixerFactory builds the catalog Factory for MixerKind.
func NewMixerFactory(shared *Types) graph.Factory {
	return func(name string, d graph.Descriptor) (graph.Node, []*stream.Stream, error) {
		n := &MixerNode{name: name, shared: shared}
		if err := n.Init(d); err != nil {
			return nil, nil, err
		}
		return n, []*stream.Stream{n.out}, nil
	}
}

func (n *MixerNode) Init(d graph.Descriptor) error {
	rateHz, err := d.Value.RecordField("rate_hz")
	if err != nil {
		return err
	}
	motorsVal, err := d.Value.RecordField("motors")
	if err != nil {
		return err
	}

	geom := mixer.Geometry{}
	count := motorsVal.SequenceLen()
	geom.Motors = make([]mixer.Motor, count)
	for i := 0; i < count; i++ {
		m := motorsVal.SequenceAt(i)
		posVal, err := m.RecordField("position")
		if err != nil {
			return err
		}
		cwVal, err := m.RecordField("clockwise")
		if err != nil {
			return err
		}
		thrustVal, err := m.RecordField("thrust")
		if err != nil {
			return err
		}
		zTorqueVal, err := m.RecordField("z_torque")
		if err != nil {
			return err
		}
		pos := posVal.VectorComponents()
		geom.Motors[i] = mixer.Motor{
			Position:  [3]float64{pos[0], pos[1], pos[2]},
			Clockwise: cwVal.Bool(),
		}
		// mixer.Geometry shares one thrust/z_torque constant across all
		// motors; the wire shape carries it per-motor for descriptor
		// symmetry, so only the first entry is read.
		if i == 0 {
			geom.MotorThrust = thrustVal.Float()
			geom.MotorZTorque = zTorqueVal.Float()
		}
	}

	mx, err := mixer.New(geom)
	if err != nil {
		return err
	}

	n.rateHz = rateHz.Float()
	n.geom = geom
	n.mix = mx
	n.desc = d

	out, err := stream.New(n.name+"/throttle", n.shared.Throttle, n.rateHz, n.name)
	if err != nil {
		return err
	}
	n.out = out
	return nil
}

func (n *MixerNode) ApplyConfig(c graph.Config) error {
	n.cfg = c
	return nil
}

func (n *MixerNode) Describe() graph.Descriptor { return n.desc }
func (n *MixerNode) Config() graph.Config       { return n.cfg }

func (n *MixerNode) Inputs() []graph.PortSpec {
	return []graph.PortSpec{
		{Name: "force", Type: n.shared.Vec3, RateHz: n.rateHz},
		{Name: "torque", Type: n.shared.Vec3, RateHz: n.rateHz},
	}
}

func (n *MixerNode) Outputs() []graph.StreamSpec {
	return []graph.StreamSpec{{Name: "throttle", Type: n.shared.Throttle, RateHz: n.rateHz}}
}

func (n *MixerNode) SendMessage(msg regtype.Value) (regtype.Value, error) {
	return regtype.Value{}, &errcode.E{C: errcode.Unsupported, Op: "MixerNode.SendMessage", Msg: "motor_mixer has no out-of-band messages"}
}

func (n *MixerNode) Start(tickOriginUS int64) {
	n.tickOriginUS = tickOriginUS
	n.lastEmitUS = tickOriginUS
}

func (n *MixerNode) BindInputs(streams []*stream.Stream) {
	if len(streams) > 0 {
		n.inForce = streams[0]
	}
	if len(streams) > 1 {
		n.inTorque = streams[1]
	}
}

func (n *MixerNode) Process(nowUS int64) {
	n.out.Clear()

	force := [3]float64{}
	torque := [3]float64{}
	if n.inForce != nil {
		if s, ok := n.inForce.Latest(); ok {
			c := s.Value.VectorComponents()
			force = [3]float64{c[0], c[1], c[2]}
		}
	}
	if n.inTorque != nil {
		if s, ok := n.inTorque.Latest(); ok {
			c := s.Value.VectorComponents()
			torque = [3]float64{c[0], c[1], c[2]}
		}
	}

	result, err := n.mix.Mix(force, torque, len(n.geom.Motors))
	healthy := err == nil

	throttleVal := n.shared.Throttle.Default()
	for _, t := range result.Throttle {
		elem, _ := n.shared.F64.NewFloat(t)
		throttleVal, _ = throttleVal.SequenceAppend(elem)
	}

	_ = n.out.Push(throttleVal, nowUS, healthy)
}

var _ graph.Node = (*MixerNode)(nil)
