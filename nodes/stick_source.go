package nodes

import (
	"sync"

	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/stream"
)

// StickSourceKind is the catalog name for the pilot input source,
// grounded in original_source's source/Stick_Source.cpp. Unlike a
// hardware sensor source, new values arrive out-of-band (remote input
// lane, spec §6) via SendMessage rather than a bus transfer, so Process
// only republishes the last received command: one sample per output on
// every Process call, whatever the node's declared rate; it does not pace
// its output to that rate.
const StickSourceKind = "stick_source"

// RegisterStickCommandType declares the stick command record type: a
// commanded force and torque vector in body frame, the same shape
// motor_mixer's input ports consume.
func RegisterStickCommandType(reg *regtype.Registry, shared *Types) (*regtype.Type, error) {
	return reg.DeclareRecord("stick_command", []regtype.Field{
		{Name: "force", Type: shared.Vec3},
		{Name: "torque", Type: shared.Vec3},
	}, regtype.Attrs{})
}

// StickSourceNode is a graph.KindSource with two outputs (force, torque)
// and no inputs; its value is set externally via SendMessage.
type StickSourceNode struct {
	name   string
	shared *Types
	cmdT   *regtype.Type
	rateHz float64

	mu     sync.Mutex // SendMessage arrives from the remote link's goroutine, not the scheduler
	force  [3]float64
	torque [3]float64

	outForce, outTorque *stream.Stream

	desc graph.Descriptor
	cfg  graph.Config
}

// NewStickSourceFactory builds the catalog Factory for StickSourceKind.
func NewStickSourceFactory(shared *Types, cmdType *regtype.Type, rateHz float64) graph.Factory {
	return func(name string, d graph.Descriptor) (graph.Node, []*stream.Stream, error) {
		n := &StickSourceNode{name: name, shared: shared, cmdT: cmdType, rateHz: rateHz, desc: d}
		outForce, err := stream.New(name+"/force", shared.Vec3, rateHz, name)
		if err != nil {
			return nil, nil, err
		}
		outTorque, err := stream.New(name+"/torque", shared.Vec3, rateHz, name)
		if err != nil {
			return nil, nil, err
		}
		n.outForce, n.outTorque = outForce, outTorque
		return n, []*stream.Stream{outForce, outTorque}, nil
	}
}

func (n *StickSourceNode) Init(d graph.Descriptor) error {
	n.desc = d
	return nil
}

func (n *StickSourceNode) ApplyConfig(c graph.Config) error {
	n.cfg = c
	return nil
}

func (n *StickSourceNode) Describe() graph.Descriptor { return n.desc }
func (n *StickSourceNode) Config() graph.Config       { return n.cfg }
func (n *StickSourceNode) Inputs() []graph.PortSpec   { return nil }

func (n *StickSourceNode) Outputs() []graph.StreamSpec {
	return []graph.StreamSpec{
		{Name: "force", Type: n.shared.Vec3, RateHz: n.rateHz},
		{Name: "torque", Type: n.shared.Vec3, RateHz: n.rateHz},
	}
}

// SendMessage accepts a stick_command record and latches it as the value
// every subsequent Process republishes, until the next message arrives.
func (n *StickSourceNode) SendMessage(msg regtype.Value) (regtype.Value, error) {
	if !msg.Type().Same(n.cmdT) {
		return regtype.Value{}, &errcode.E{C: errcode.KindMismatch, Op: "StickSourceNode.SendMessage", Msg: "expected stick_command"}
	}
	forceVal, err := msg.RecordField("force")
	if err != nil {
		return regtype.Value{}, err
	}
	torqueVal, err := msg.RecordField("torque")
	if err != nil {
		return regtype.Value{}, err
	}
	fc := forceVal.VectorComponents()
	tc := torqueVal.VectorComponents()

	n.mu.Lock()
	n.force = [3]float64{fc[0], fc[1], fc[2]}
	n.torque = [3]float64{tc[0], tc[1], tc[2]}
	n.mu.Unlock()
	return regtype.Value{}, nil
}

func (n *StickSourceNode) Start(tickOriginUS int64) {}

func (n *StickSourceNode) BindInputs(streams []*stream.Stream) {}

func (n *StickSourceNode) Process(nowUS int64) {
	n.outForce.Clear()
	n.outTorque.Clear()

	n.mu.Lock()
	force, torque := n.force, n.torque
	n.mu.Unlock()

	forceVal, _ := n.shared.Vec3.NewVector(force[0], force[1], force[2])
	torqueVal, _ := n.shared.Vec3.NewVector(torque[0], torque[1], torque[2])
	_ = n.outForce.Push(forceVal, nowUS, true)
	_ = n.outTorque.Push(torqueVal, nowUS, true)
}

var _ graph.Node = (*StickSourceNode)(nil)
