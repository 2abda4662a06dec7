package nodes

import (
	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/mixer"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/simulator"
	"github.com/jeanleflambeur/silkopter/stream"
)

// PlantKind is the catalog name for the multirotor simulator plant,
// grounded in original_source's simulator/Multirotor_Simulator.cpp. It is
// the graph's one permitted graph.KindSimulator node (spec §4.3 point 4).
const PlantKind = "multirotor_simulator"

// plantOutputs names the 9 sensor streams the plant produces, in a fixed
// order matching simulator.SensorKind.
var plantOutputs = []struct {
	name string
	kind simulator.SensorKind
}{
	{"angular_velocity", simulator.SensorAngularVelocity},
	{"acceleration", simulator.SensorAcceleration},
	{"magnetic_field", simulator.SensorMagneticField},
	{"pressure", simulator.SensorPressure},
	{"temperature", simulator.SensorTemperature},
	{"sonar_distance", simulator.SensorSonarDistance},
	{"gps_info", simulator.SensorGPSInfo},
	{"ecef_position", simulator.SensorECEFPosition},
	{"ecef_velocity", simulator.SensorECEFVelocity},
}

// PlantNode wraps a simulator.Plant as the graph's designated
// graph.KindSimulator node: one throttle-sequence input (the motor mixer's
// output of the same tick; graph.Graph.Validate runs the plant last, so
// readers of its outputs see them one tick delayed), nine sensor outputs at
// independently configured rates.
type PlantNode struct {
	name   string
	shared *Types

	plant  *simulator.Plant
	rates  simulator.RatesConfig
	params PlantParams
	cfg    graph.Config
	desc   graph.Descriptor

	inThrottle *stream.Stream
	out        [9]*stream.Stream

	lastStepUS   int64
	tickOriginUS int64
}

// PlantParams is the Go-side construction input for a PlantNode: the
// plant is owned and parameterized by the same process that builds the
// graph (no remote descriptor-authoring path exists for it yet), so it is
// supplied directly rather than decoded from a regtype.Value descriptor.
type PlantParams struct {
	Geometry mixer.Geometry
	Config   simulator.Config
	Seed     int64
}

// NewPlantFactory builds the catalog Factory for PlantKind, constructing
// the wrapped simulator.Plant from params.
func NewPlantFactory(shared *Types, params PlantParams, rates simulator.RatesConfig) graph.Factory {
	return func(name string, d graph.Descriptor) (graph.Node, []*stream.Stream, error) {
		n := &PlantNode{name: name, shared: shared, rates: rates, params: params}
		if err := n.Init(d); err != nil {
			return nil, nil, err
		}
		outs := make([]*stream.Stream, len(n.out))
		copy(outs, n.out[:])
		return n, outs, nil
	}
}

// Init constructs the wrapped simulator.Plant from the params fixed at
// factory time and allocates the nine sensor output streams.
func (n *PlantNode) Init(d graph.Descriptor) error {
	n.desc = d
	n.plant = simulator.New(n.params.Geometry, n.params.Config, n.params.Seed)

	rateOf := map[simulator.SensorKind]float64{
		simulator.SensorAngularVelocity: n.rates.AngularVelocity,
		simulator.SensorAcceleration:    n.rates.Acceleration,
		simulator.SensorMagneticField:   n.rates.MagneticField,
		simulator.SensorPressure:        n.rates.Pressure,
		simulator.SensorTemperature:     n.rates.Temperature,
		simulator.SensorSonarDistance:   n.rates.SonarDistance,
		simulator.SensorGPSInfo:         n.rates.GPSInfo,
		simulator.SensorECEFPosition:    n.rates.ECEFPosition,
		simulator.SensorECEFVelocity:    n.rates.ECEFVelocity,
	}
	for i, o := range plantOutputs {
		typ := n.shared.Vec3
		if o.kind == simulator.SensorPressure || o.kind == simulator.SensorTemperature || o.kind == simulator.SensorSonarDistance {
			typ = n.shared.F64
		}
		if o.kind == simulator.SensorGPSInfo {
			typ = n.shared.GPSInfo
		}
		s, err := stream.New(n.name+"/"+o.name, typ, rateOf[o.kind], n.name)
		if err != nil {
			return err
		}
		n.out[i] = s
	}
	return nil
}

func (n *PlantNode) ApplyConfig(c graph.Config) error {
	n.cfg = c
	return nil
}

func (n *PlantNode) Describe() graph.Descriptor { return n.desc }
func (n *PlantNode) Config() graph.Config       { return n.cfg }

func (n *PlantNode) Inputs() []graph.PortSpec {
	rate := n.out[0].RateHz()
	return []graph.PortSpec{{Name: "throttle", Type: n.shared.Throttle, RateHz: rate}}
}

func (n *PlantNode) Outputs() []graph.StreamSpec {
	specs := make([]graph.StreamSpec, len(n.out))
	for i, o := range plantOutputs {
		specs[i] = graph.StreamSpec{Name: o.name, Type: n.out[i].Type(), RateHz: n.out[i].RateHz()}
	}
	return specs
}

func (n *PlantNode) SendMessage(msg regtype.Value) (regtype.Value, error) {
	return regtype.Value{}, &errcode.E{C: errcode.Unsupported, Op: "PlantNode.SendMessage", Msg: "multirotor_simulator has no out-of-band messages"}
}

func (n *PlantNode) Start(tickOriginUS int64) {
	n.tickOriginUS = tickOriginUS
	n.lastStepUS = tickOriginUS
}

func (n *PlantNode) BindInputs(streams []*stream.Stream) {
	if len(streams) > 0 {
		n.inThrottle = streams[0]
	}
}

func (n *PlantNode) Process(nowUS int64) {
	for _, s := range n.out {
		s.Clear()
	}

	dt := float64(nowUS-n.lastStepUS) / 1e6
	n.lastStepUS = nowUS

	var throttle []float64
	if n.inThrottle != nil {
		if s, ok := n.inThrottle.Latest(); ok {
			cnt := s.Value.SequenceLen()
			throttle = make([]float64, cnt)
			for i := 0; i < cnt; i++ {
				throttle[i] = s.Value.SequenceAt(i).Float()
			}
		}
	}

	samples := n.plant.Step(throttle, dt)
	for _, sample := range samples {
		idx := sensorIndex(sample.Kind)
		if idx < 0 {
			continue
		}
		val, err := n.valueFor(sample)
		if err != nil {
			continue
		}
		_ = n.out[idx].Push(val, nowUS, true)
	}
}

func sensorIndex(k simulator.SensorKind) int {
	for i, o := range plantOutputs {
		if o.kind == k {
			return i
		}
	}
	return -1
}

func (n *PlantNode) valueFor(s simulator.SensorSample) (regtype.Value, error) {
	switch s.Kind {
	case simulator.SensorAngularVelocity, simulator.SensorAcceleration, simulator.SensorMagneticField, simulator.SensorECEFPosition, simulator.SensorECEFVelocity:
		return n.shared.Vec3.NewVector(s.Vector[0], s.Vector[1], s.Vector[2])
	case simulator.SensorPressure, simulator.SensorTemperature, simulator.SensorSonarDistance:
		return n.shared.F64.NewFloat(s.Scalar)
	case simulator.SensorGPSInfo:
		v := n.shared.GPSInfo.Default()
		lat, _ := n.shared.F64.NewFloat(s.GPS.LatDeg)
		lon, _ := n.shared.F64.NewFloat(s.GPS.LonDeg)
		alt, _ := n.shared.F64.NewFloat(s.GPS.AltM)
		fix, _ := n.shared.Bool.NewBool(s.GPS.FixOK)
		v, _ = v.WithRecordField("lat_deg", lat)
		v, _ = v.WithRecordField("lon_deg", lon)
		v, _ = v.WithRecordField("alt_m", alt)
		v, _ = v.WithRecordField("fix_ok", fix)
		return v, nil
	default:
		return regtype.Value{}, &errcode.E{C: errcode.InvalidParams, Op: "PlantNode.valueFor", Msg: "unknown sensor kind"}
	}
}

var _ graph.Node = (*PlantNode)(nil)
