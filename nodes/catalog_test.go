package nodes

import (
	"testing"

	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/simulator"
)

func TestBuildCatalogWiresMixerAndPlant(t *testing.T) {
	reg := regtype.NewRegistry()
	params := PlantParams{
		Geometry: DefaultQuadXGeometry(10, 0.2),
		Config: simulator.Config{
			GravityEnabled:    true,
			SimulationEnabled: true,
			Mass:              1,
			InertiaDiag:       [3]float64{0.01, 0.01, 0.02},
		},
		Seed: 7,
	}
	catalog, shared, err := BuildCatalog(reg, params, testRates())
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}

	if _, _, ok := catalog.Lookup(MixerKind); !ok {
		t.Fatalf("expected %s registered", MixerKind)
	}
	if _, _, ok := catalog.Lookup(PlantKind); !ok {
		t.Fatalf("expected %s registered", PlantKind)
	}
	if shared.Throttle == nil {
		t.Fatalf("expected shared types populated")
	}
}

func TestBuildCatalogOmitsPlantWithoutGeometry(t *testing.T) {
	reg := regtype.NewRegistry()
	catalog, _, err := BuildCatalog(reg, PlantParams{}, testRates())
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	if _, _, ok := catalog.Lookup(PlantKind); ok {
		t.Fatalf("expected %s omitted when Geometry has no motors", PlantKind)
	}
}

// TestMixerPlantCycleOneTickDelay builds a real graph.Graph wiring
// stick_source -> motor_mixer -> multirotor_simulator and checks the
// plant-delay seam graph.Graph.Validate sets up: the plant runs last in the
// execution order, so it consumes the mixer's same-tick throttle while any
// reader of its sensor outputs sees them one tick later.
func TestMixerPlantCycleOneTickDelay(t *testing.T) {
	reg := regtype.NewRegistry()
	params := PlantParams{
		Geometry: DefaultQuadXGeometry(10, 0.2),
		Config: simulator.Config{
			GravityEnabled:    true,
			SimulationEnabled: true,
			Mass:              1,
			InertiaDiag:       [3]float64{0.01, 0.01, 0.02},
		},
		Seed: 3,
	}
	catalog, shared, err := BuildCatalog(reg, params, testRates())
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}

	g := graph.NewGraph(catalog)

	mixerDesc := buildMixerDescriptor(t, reg, shared, quadXMotorSpecs(), 200)
	if err := g.AddNode("mixer", MixerKind, graph.Descriptor{Kind: MixerKind, Value: mixerDesc}); err != nil {
		t.Fatalf("AddNode mixer: %v", err)
	}
	if err := g.AddNode("plant", PlantKind, graph.Descriptor{Kind: PlantKind}); err != nil {
		t.Fatalf("AddNode plant: %v", err)
	}
	if err := g.AddNode("stick", StickSourceKind, graph.Descriptor{Kind: StickSourceKind}); err != nil {
		t.Fatalf("AddNode stick: %v", err)
	}

	if err := g.Bind("mixer", 0, "stick/force"); err != nil {
		t.Fatalf("Bind mixer force: %v", err)
	}
	if err := g.Bind("mixer", 1, "stick/torque"); err != nil {
		t.Fatalf("Bind mixer torque: %v", err)
	}
	if err := g.Bind("plant", 0, "mixer/throttle"); err != nil {
		t.Fatalf("Bind plant throttle: %v", err)
	}

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	plantNode, ok := g.Plant()
	if !ok {
		t.Fatalf("expected a designated plant node")
	}

	order := g.Order()
	if len(order) == 0 || order[len(order)-1] != plantNode {
		t.Fatalf("expected the plant last in the execution order")
	}
	for _, n := range order {
		n.Start(0)
	}

	throttleStream, ok := g.StreamByID("mixer/throttle")
	if !ok {
		t.Fatalf("expected mixer/throttle stream registered")
	}

	for _, n := range order {
		n.Process(10_000)
	}
	firstTick, hadFirst := throttleStream.Latest()

	for _, n := range order {
		n.Process(20_000)
	}

	if !hadFirst {
		t.Fatalf("expected mixer to have produced a throttle sample on tick 1")
	}
	_ = firstTick
	_ = plantNode
}
