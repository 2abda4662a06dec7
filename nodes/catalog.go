package nodes

import (
	"github.com/jeanleflambeur/silkopter/bushandle"
	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/mixer"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/simulator"
)

// BuildCatalog registers every node kind this package implements into a
// fresh graph.Catalog, alongside the shared regtype.Type declarations
// they depend on. plant is optional — pass a zero PlantParams with a nil
// Geometry.Motors to omit the simulator kind on hardware-only builds.
func BuildCatalog(reg *regtype.Registry, plant PlantParams, rates simulator.RatesConfig) (*graph.Catalog, *Types, error) {
	shared, err := Register(reg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := RegisterMixerDescriptorType(reg, shared); err != nil {
		return nil, nil, err
	}
	cmdType, err := RegisterStickCommandType(reg, shared)
	if err != nil {
		return nil, nil, err
	}

	catalog := graph.NewCatalog()
	catalog.Register(MixerKind, graph.KindProcessor, NewMixerFactory(shared))
	catalog.Register(StickSourceKind, graph.KindSource, NewStickSourceFactory(shared, cmdType, 50))

	if len(plant.Geometry.Motors) > 0 {
		catalog.Register(PlantKind, graph.KindSimulator, NewPlantFactory(shared, plant, rates))
	}

	return catalog, shared, nil
}

// RegisterHardwareSensor adds a hardware-backed sensor source kind (one
// of IMUSourceKind/MagSourceKind/BaroSourceKind/SonarSourceKind/
// GPSSourceKind) to an already-built catalog, bound to a live
// bushandle.Handle. Kept separate from BuildCatalog since hardware
// wiring is a per-board concern the simulator path doesn't need.
func RegisterHardwareSensor(catalog *graph.Catalog, kind string, outType *regtype.Type, rateHz float64, h bushandle.Handle, decode Decoder) {
	catalog.Register(kind, graph.KindSource, NewSensorSourceFactory(kind, outType, rateHz, h, decode))
}

// RegisterHardwareActuator adds the hardware throttle sink to an
// already-built catalog.
func RegisterHardwareActuator(catalog *graph.Catalog, shared *Types, rateHz float64, h bushandle.Handle, encode Encoder) {
	catalog.Register(ActuatorSinkKind, graph.KindSink, NewActuatorSinkFactory(shared.Throttle, rateHz, h, encode))
}

// DefaultQuadXGeometry is a reference quad-X layout for tests and the
// simulator default config, grounded in original_source's default
// multirotor preset (four motors, alternating rotation, arm length
// 0.25m).
func DefaultQuadXGeometry(motorThrust, motorZTorque float64) mixer.Geometry {
	arm := 0.25
	return mixer.Geometry{
		Motors: []mixer.Motor{
			{Position: [3]float64{arm, arm, 0}, Clockwise: true},
			{Position: [3]float64{-arm, -arm, 0}, Clockwise: true},
			{Position: [3]float64{arm, -arm, 0}, Clockwise: false},
			{Position: [3]float64{-arm, arm, 0}, Clockwise: false},
		},
		MotorThrust:  motorThrust,
		MotorZTorque: motorZTorque,
	}
}
