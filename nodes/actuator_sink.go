package nodes

import (
	"github.com/jeanleflambeur/silkopter/bushandle"
	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/stream"
)

// ActuatorSinkKind is the catalog name for the hardware throttle sink,
// grounded in original_source's sink/Motors.cpp — the mixer's per-motor
// throttle output driven out to PWM/ESC registers over a bushandle.Handle.
const ActuatorSinkKind = "actuator_sink"

// Encoder writes one throttle sequence out to hardware. A returned error
// is discarded by Process: it is not recorded or reported, and the
// scheduler keeps running, matching spec §4.7's "process() ... must not
// fail" rule.
type Encoder func(h bushandle.Handle, throttle []float64) error

// ActuatorSinkNode is a graph.KindSink: one throttle-sequence input,
// written out through a bushandle.Handle each tick.
type ActuatorSinkNode struct {
	name   string
	inType *regtype.Type
	rateHz float64
	handle bushandle.Handle
	encode Encoder

	in *stream.Stream

	desc graph.Descriptor
	cfg  graph.Config
}

// NewActuatorSinkFactory builds the catalog Factory for ActuatorSinkKind.
func NewActuatorSinkFactory(inType *regtype.Type, rateHz float64, handle bushandle.Handle, encode Encoder) graph.Factory {
	return func(name string, d graph.Descriptor) (graph.Node, []*stream.Stream, error) {
		n := &ActuatorSinkNode{name: name, inType: inType, rateHz: rateHz, handle: handle, encode: encode, desc: d}
		return n, nil, nil
	}
}

func (n *ActuatorSinkNode) Init(d graph.Descriptor) error {
	n.desc = d
	return nil
}

func (n *ActuatorSinkNode) ApplyConfig(c graph.Config) error {
	n.cfg = c
	return nil
}

func (n *ActuatorSinkNode) Describe() graph.Descriptor { return n.desc }
func (n *ActuatorSinkNode) Config() graph.Config       { return n.cfg }

func (n *ActuatorSinkNode) Inputs() []graph.PortSpec {
	return []graph.PortSpec{{Name: "throttle", Type: n.inType, RateHz: n.rateHz}}
}

func (n *ActuatorSinkNode) Outputs() []graph.StreamSpec { return nil }

func (n *ActuatorSinkNode) SendMessage(msg regtype.Value) (regtype.Value, error) {
	return regtype.Value{}, &errcode.E{C: errcode.Unsupported, Op: "ActuatorSinkNode.SendMessage", Msg: "actuator_sink has no out-of-band messages"}
}

func (n *ActuatorSinkNode) Start(tickOriginUS int64) {}

func (n *ActuatorSinkNode) BindInputs(streams []*stream.Stream) {
	if len(streams) > 0 {
		n.in = streams[0]
	}
}

func (n *ActuatorSinkNode) Process(nowUS int64) {
	if n.in == nil {
		return
	}
	sample, ok := n.in.Latest()
	if !ok {
		return
	}
	cnt := sample.Value.SequenceLen()
	throttle := make([]float64, cnt)
	for i := 0; i < cnt; i++ {
		throttle[i] = sample.Value.SequenceAt(i).Float()
	}
	_ = n.encode(n.handle, throttle)
}

var _ graph.Node = (*ActuatorSinkNode)(nil)
