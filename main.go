// Command silkopter runs the flight-control node graph: it builds the
// node catalog, instantiates a quad-X mixer/stick/simulator graph (or one
// loaded from a configuration-tree JSON file), validates it, and drives
// it with the fixed-tick scheduler. A remote link (setup/input/telemetry/
// video lanes) is brought up alongside it when -remote-transport names a
// registered transport.
//
// Grounded in the teacher's cmd/pico-hal-main bootstrap shape (bus/lane
// construction, then a single blocking run loop) generalized from MQTT-
// style capability polling to fixed-period graph ticking.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/mixer"
	"github.com/jeanleflambeur/silkopter/nodes"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/remote"
	"github.com/jeanleflambeur/silkopter/sched"
	"github.com/jeanleflambeur/silkopter/services/config"
	"github.com/jeanleflambeur/silkopter/simulator"
)

const tickPeriod = 10 * time.Millisecond // 100Hz scheduler tick

func main() {
	configPath := flag.String("config", "", "configuration-tree JSON file (defaults to a built-in quad-X simulator graph)")
	remoteTransport := flag.String("remote-transport", "", "transport name registered for the remote link (unset disables it)")
	flag.Parse()

	reg := regtype.NewRegistry()
	geom := nodes.DefaultQuadXGeometry(defaultMotorThrust, defaultMotorZTorque)
	plantParams := nodes.PlantParams{Geometry: geom, Config: defaultPlantConfig(), Seed: 1}
	rates := defaultSensorRates()

	catalog, _, err := nodes.BuildCatalog(reg, plantParams, rates)
	if err != nil {
		log.Fatalf("build catalog: %v", err)
	}
	mixerDescType, ok := reg.Lookup("motor_mixer_descriptor")
	if !ok {
		log.Fatalf("motor_mixer_descriptor type not registered")
	}
	schemas := map[string]config.KindSchema{
		nodes.MixerKind:       {DescriptorType: mixerDescType},
		nodes.StickSourceKind: {},
		nodes.PlantKind:       {},
	}

	tree := defaultTree(geom)
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("read config: %v", err)
		}
		parsed, err := config.Parse(raw)
		if err != nil {
			log.Fatalf("parse config: %v", err)
		}
		if _, err := config.DeclareTypes(reg, parsed.Types); err != nil {
			log.Fatalf("declare config types: %v", err)
		}
		tree = parsed
	}

	g, err := config.BuildGraph(catalog, schemas, tree)
	if err != nil {
		log.Fatalf("build graph: %v", err)
	}
	if err := g.Validate(); err != nil {
		log.Fatalf("validate graph: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := sched.New(g)
	originUS := time.Now().UnixMicro()
	sc.Start(originUS)

	var svc *remote.Service
	var lanes *remote.Lanes
	if *remoteTransport != "" {
		lanes = remote.NewLanes()
		dispatcher := remote.NewDispatcher(g, sc.Now)
		svc = remote.NewService(dispatcher, lanes)
		go svc.Run(ctx, remote.Config{Type: *remoteTransport})
		go publishTelemetry(ctx, g, lanes, dispatcher)
	}

	log.Printf("silkopter: graph validated, %d nodes, ticking at %s", len(g.Order()), tickPeriod)
	runLoop(ctx, sc)
	if svc != nil {
		svc.Stop()
	}
}

func runLoop(ctx context.Context, sc *sched.Scheduler) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sc.Stop()
			return
		case t := <-ticker.C:
			if err := sc.Tick(t.UnixMicro()); err != nil {
				log.Printf("tick: %v", err)
			}
		}
	}
}

// publishTelemetry drains the active telemetry-active stream set onto the
// telemetry lane every 20ms (every second scheduler tick), packing each
// stream's latest sample with
// PackSampleHeader. It runs independently of the scheduler goroutine,
// matching spec §5's separation between the single-threaded graph tick and
// the I/O goroutines that drain/feed it.
func publishTelemetry(ctx context.Context, g *graph.Graph, lanes *remote.Lanes, d *remote.Dispatcher) {
	conn := lanes.NewConnection(remote.LaneTelemetry, "telemetry-publisher")
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range g.NodeNames() {
				inputs, outputs, ok := g.PortsForNode(name)
				_ = inputs
				if !ok {
					continue
				}
				for _, out := range outputs {
					streamID := name + "/" + out.Name
					if !d.TelemetryActive(streamID) {
						continue
					}
					s, ok := g.StreamByID(streamID)
					if !ok {
						continue
					}
					sample, ok := s.Latest()
					if !ok {
						continue
					}
					hdr, err := remote.PackSampleHeader(remote.SampleHeader{
						DtUS:        sample.PeriodUS,
						TimestampUS: sample.TimestampUS,
						SampleIndex: uint16(sample.Index % (1 << 15)),
						Healthy:     sample.Healthy,
					})
					if err != nil {
						continue
					}
					conn.Publish(conn.NewMessage(remote.SampleTopic(streamID), hdr[:]))
				}
			}
		}
	}
}

const (
	defaultMotorThrust  = 4.5  // N at full throttle, reference quad
	defaultMotorZTorque = 0.10 // N*m reaction torque at full throttle
)

func defaultPlantConfig() simulator.Config {
	return simulator.Config{
		GravityEnabled:    true,
		GroundEnabled:     true,
		DragEnabled:       true,
		SimulationEnabled: true,
		MotorAccel:        8,
		MotorDecel:        8,
		Mass:              1.2,
		InertiaDiag:       [3]float64{0.02, 0.02, 0.04},
		DragLinear:        0.2,
		DragQuadratic:     0.05,
		Rates:             defaultSensorRates(),
		Noise: simulator.NoiseConfig{
			AngularVelocity: 0.01,
			Acceleration:    0.05,
			MagneticField:   0.002,
			Pressure:        2,
			Temperature:     0.1,
			SonarDistance:   0.02,
			GPSHorizontal:   1.5,
			ECEFPosition:    1.5,
			ECEFVelocity:    0.1,
		},
	}
}

func defaultSensorRates() simulator.RatesConfig {
	return simulator.RatesConfig{
		AngularVelocity: 500,
		Acceleration:    500,
		MagneticField:   50,
		Pressure:        50,
		Temperature:     10,
		SonarDistance:   20,
		GPSInfo:         5,
		ECEFPosition:    5,
		ECEFVelocity:    5,
	}
}

// defaultTree builds the built-in quad-X simulator graph as a
// config.Tree, so the same config.BuildGraph path handles both it and a
// user-supplied -config file.
func defaultTree(geom mixer.Geometry) *config.Tree {
	motors := make([]any, len(geom.Motors))
	for i, m := range geom.Motors {
		motors[i] = map[string]any{
			"position":  []any{m.Position[0], m.Position[1], m.Position[2]},
			"clockwise": m.Clockwise,
			"thrust":    geom.MotorThrust,
			"z_torque":  geom.MotorZTorque,
		}
	}
	mixerDescriptor := map[string]any{
		"rate_hz": 100.0,
		"motors":  motors,
	}
	return &config.Tree{
		Nodes: []config.NodeDecl{
			{Name: "stick", Kind: nodes.StickSourceKind},
			{Name: "mixer", Kind: nodes.MixerKind, Descriptor: mixerDescriptor, Inputs: []string{"stick/force", "stick/torque"}},
			{Name: "plant", Kind: nodes.PlantKind, Inputs: []string{"mixer/throttle"}},
		},
	}
}
