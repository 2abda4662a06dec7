package nodes

import (
	"github.com/jeanleflambeur/silkopter/bushandle"
	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/stream"
)

// Sensor kind catalog names, one hardware-backed source per physical
// device, grounded in original_source's source/ directory (IMU_Source,
// Magnetometer_Source, Baro_Source, Sonar_Source, GPS_Source) and the
// teacher's per-device driver split (drivers/ltc4015, services/hal/devices).
const (
	IMUSourceKind   = "imu_source"
	MagSourceKind   = "mag_source"
	BaroSourceKind  = "baro_source"
	SonarSourceKind = "sonar_source"
	GPSSourceKind   = "gps_source"
)

// Decoder turns a raw register read into a regtype.Value of the source's
// declared output type. Kept separate from the bus transfer itself so the
// same SensorSourceNode shape serves every physical sensor; only the
// register layout and decode differ per device.
type Decoder func(h bushandle.Handle) (regtype.Value, bool, error)

// SensorSourceNode is a generic hardware-backed graph.KindSource: each
// tick it performs one non-blocking bus transfer via Decoder and pushes
// the decoded value, or an unhealthy sample if the transfer failed,
// paced to its own configured rate via stream.SamplesNeeded — exactly
// the pacing rule the simulator's pacer also implements, generalized
// here to a rate-gated hardware poll instead of an accumulate-and-emit
// synthetic signal.
type SensorSourceNode struct {
	name    string
	kind    string
	outType *regtype.Type
	rateHz  float64
	handle  bushandle.Handle
	decode  Decoder

	out *stream.Stream

	desc graph.Descriptor
	cfg  graph.Config

	lastTickUS int64
}

// NewSensorSourceFactory builds a catalog Factory for one physical sensor
// kind, reading through handle via decode at rateHz.
func NewSensorSourceFactory(kind string, outType *regtype.Type, rateHz float64, handle bushandle.Handle, decode Decoder) graph.Factory {
	return func(name string, d graph.Descriptor) (graph.Node, []*stream.Stream, error) {
		n := &SensorSourceNode{name: name, kind: kind, outType: outType, rateHz: rateHz, handle: handle, decode: decode, desc: d}
		out, err := stream.New(name+"/value", outType, rateHz, name)
		if err != nil {
			return nil, nil, err
		}
		n.out = out
		return n, []*stream.Stream{out}, nil
	}
}

func (n *SensorSourceNode) Init(d graph.Descriptor) error {
	n.desc = d
	return nil
}

func (n *SensorSourceNode) ApplyConfig(c graph.Config) error {
	n.cfg = c
	return nil
}

func (n *SensorSourceNode) Describe() graph.Descriptor { return n.desc }
func (n *SensorSourceNode) Config() graph.Config       { return n.cfg }
func (n *SensorSourceNode) Inputs() []graph.PortSpec   { return nil }

func (n *SensorSourceNode) Outputs() []graph.StreamSpec {
	return []graph.StreamSpec{{Name: "value", Type: n.outType, RateHz: n.rateHz}}
}

func (n *SensorSourceNode) SendMessage(msg regtype.Value) (regtype.Value, error) {
	return regtype.Value{}, &errcode.E{C: errcode.Unsupported, Op: "SensorSourceNode.SendMessage", Msg: n.kind + " has no out-of-band messages"}
}

func (n *SensorSourceNode) Start(tickOriginUS int64) { n.lastTickUS = tickOriginUS }

func (n *SensorSourceNode) BindInputs(streams []*stream.Stream) {}

func (n *SensorSourceNode) Process(nowUS int64) {
	n.out.Clear()

	needed, newLastTick := stream.SamplesNeeded(nowUS, n.lastTickUS, n.rateHz)
	n.lastTickUS = newLastTick
	if needed == 0 {
		return
	}

	val, healthy, err := n.decode(n.handle)
	if err != nil {
		healthy = false
		val = n.outType.Default()
	}
	_ = n.out.Push(val, nowUS, healthy)
}

var _ graph.Node = (*SensorSourceNode)(nil)
