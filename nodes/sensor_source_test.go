package nodes

import (
	"testing"

	"github.com/jeanleflambeur/silkopter/bushandle"
	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
)

func TestSensorSourceNodeDecodesAtConfiguredRate(t *testing.T) {
	reg := regtype.NewRegistry()
	shared, err := Register(reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var reads int
	h := bushandle.NewSimBus(func(reg byte) (byte, error) {
		reads++
		return 42, nil
	}, nil)

	decode := func(h bushandle.Handle) (regtype.Value, bool, error) {
		b, err := h.ReadRegister(0)
		if err != nil {
			return regtype.Value{}, false, err
		}
		v, _ := shared.F64.NewFloat(float64(b))
		return v, true, nil
	}

	factory := NewSensorSourceFactory(BaroSourceKind, shared.F64, 100, h, decode)
	node, outs, err := factory("baro0", graph.Descriptor{Kind: BaroSourceKind})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	node.Start(0)
	node.Process(10_000) // 10ms elapsed at 100Hz (10ms period) -> exactly one sample due

	sample, ok := outs[0].Latest()
	if !ok {
		t.Fatalf("expected a sample after one full period elapsed")
	}
	if !sample.Healthy {
		t.Fatalf("expected healthy sample")
	}
	if sample.Value.Float() != 42 {
		t.Fatalf("expected decoded value 42, got %v", sample.Value.Float())
	}
	if reads != 1 {
		t.Fatalf("expected exactly one register read, got %d", reads)
	}
}

func TestSensorSourceNodeDegradesOnTransferFailure(t *testing.T) {
	reg := regtype.NewRegistry()
	shared, err := Register(reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	h := bushandle.NewSimBus(nil, nil) // read always fails

	decode := func(h bushandle.Handle) (regtype.Value, bool, error) {
		_, err := h.ReadRegister(0)
		if err != nil {
			return regtype.Value{}, false, err
		}
		return shared.F64.Default(), true, nil
	}

	factory := NewSensorSourceFactory(SonarSourceKind, shared.F64, 50, h, decode)
	node, outs, err := factory("sonar0", graph.Descriptor{Kind: SonarSourceKind})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}

	node.Start(0)
	node.Process(20_000) // 20ms period at 50Hz

	sample, ok := outs[0].Latest()
	if !ok {
		t.Fatalf("expected a degraded sample to still be pushed")
	}
	if sample.Healthy {
		t.Fatalf("expected unhealthy sample on transfer failure")
	}
}

func TestActuatorSinkNodeEncodesBoundThrottle(t *testing.T) {
	reg := regtype.NewRegistry()
	shared, err := Register(reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var encoded []float64
	encode := func(h bushandle.Handle, throttle []float64) error {
		encoded = append([]float64(nil), throttle...)
		return nil
	}
	h := bushandle.NewSimBus(nil, func(reg, val byte) error { return nil })

	mixerFactory := NewMixerFactory(shared)
	mixerDesc := buildMixerDescriptor(t, reg, shared, quadXMotorSpecs(), 100)
	mixerNode, mixerOuts, err := mixerFactory("mixer0", graph.Descriptor{Kind: MixerKind, Value: mixerDesc})
	if err != nil {
		t.Fatalf("mixer factory: %v", err)
	}

	sinkFactory := NewActuatorSinkFactory(shared.Throttle, 100, h, encode)
	sinkNode, _, err := sinkFactory("motors0", graph.Descriptor{Kind: ActuatorSinkKind})
	if err != nil {
		t.Fatalf("sink factory: %v", err)
	}

	mixerNode.Start(0)
	sinkNode.Start(0)
	sinkNode.BindInputs(mixerOuts)

	mixerNode.Process(10_000)
	sinkNode.Process(10_000)

	if len(encoded) != 4 {
		t.Fatalf("expected 4 encoded throttle values, got %d", len(encoded))
	}
}
