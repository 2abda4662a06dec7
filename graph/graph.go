// Package graph implements the Node Catalog, the Node Contract Surface, and
// the bound Graph of node instances the scheduler drives.
//
// Grounded in the node/port shape of
// _examples/original_source/silkopter/libs/common/node/INode.h (and the
// sibling ISource.h/IProcessor.h/ISink.h taxonomy), and in the teacher's
// services/hal/internal/registry/registry.go builder-table idiom for the
// Catalog.
package graph

import (
	"fmt"

	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/stream"
)

// NodeKind categorizes a node's port shape, mirroring original_source's
// node:: subclass taxonomy (ISource, processor/, sink/, generator/,
// simulator/ directories).
type NodeKind uint8

const (
	KindSource NodeKind = iota
	KindSink
	KindProcessor
	KindGenerator
	KindSimulator
)

func (k NodeKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindSink:
		return "sink"
	case KindProcessor:
		return "processor"
	case KindGenerator:
		return "generator"
	case KindSimulator:
		return "simulator"
	default:
		return "unknown"
	}
}

// PortSpec describes one input port: its declared name, required element
// type, and required rate. Rate is fixed per port at node init; any bound
// stream must match exactly.
type PortSpec struct {
	Name     string
	Type     *regtype.Type
	RateHz   float64
}

// StreamSpec describes one output a node allocates at init.
type StreamSpec struct {
	Name   string
	Type   *regtype.Type
	RateHz float64
}

// Descriptor is the immutable, typed-record shape fixed at node init.
type Descriptor struct {
	Kind  string
	Value regtype.Value
}

// Config is the mutable tunables plus input port bindings (stream ids, in
// port-declaration order) applied after init and on reconfiguration.
type Config struct {
	Value  regtype.Value
	Inputs []string // port index -> bound stream id ("" = unbound)
}

// Node is the contract every node kind implements, matching spec §4.7
// exactly. BindInputs is the one addition beyond the spec's literal list:
// spec §4.7 describes config as carrying stream paths, and §4 notes
// "consumers hold weak references resolved at bind time" — BindInputs is
// that resolution step, handing the node the live *stream.Stream for each
// input port (nil for an unbound port) so Process can read samples
// without re-resolving ids itself every tick.
type Node interface {
	Init(d Descriptor) error
	ApplyConfig(c Config) error
	Describe() Descriptor
	Config() Config
	Inputs() []PortSpec
	Outputs() []StreamSpec
	SendMessage(msg regtype.Value) (regtype.Value, error)
	Start(tickOriginUS int64)
	// Process runs the scheduled step for tick timestamp nowUS (spec §4.4's
	// "snapshot now as the tick timestamp T"). A node paces any output
	// rate slower than the scheduler's own tick rate internally, using
	// nowUS against its own last-emission timestamp.
	Process(nowUS int64)
	BindInputs(streams []*stream.Stream)
}

// Factory builds a Node instance from a name and descriptor, returning the
// node and the output streams it allocated during Init. name is used to
// form each output's "<name>/<output>" stream id.
type Factory func(name string, d Descriptor) (Node, []*stream.Stream, error)

// Catalog maps node kind names to factories.
type Catalog struct {
	factories map[string]Factory
	kinds     map[string]NodeKind
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory), kinds: make(map[string]NodeKind)}
}

// Register adds a node kind's factory. Re-registering the same kind name
// panics — this mirrors the teacher's RegisterBuilder contract, a
// programmer error caught at init time, not a runtime condition.
func (c *Catalog) Register(kindName string, kind NodeKind, f Factory) {
	if _, exists := c.factories[kindName]; exists {
		panic("graph: kind already registered: " + kindName)
	}
	c.factories[kindName] = f
	c.kinds[kindName] = kind
}

// Lookup resolves a factory by kind name.
func (c *Catalog) Lookup(kindName string) (Factory, NodeKind, bool) {
	f, ok := c.factories[kindName]
	if !ok {
		return nil, 0, false
	}
	return f, c.kinds[kindName], true
}

// instance is one node as held by the Graph.
type instance struct {
	name    string
	kind    NodeKind
	node    Node
	outputs map[string]*stream.Stream // output name -> stream
}

// Graph is the validated, bound node set the scheduler executes.
type Graph struct {
	catalog *Catalog

	order []*instance          // topological order, plant cycle broken
	byName map[string]*instance
	streamsByID map[string]*stream.Stream

	plant      *instance // the one designated plant node, if any
	plantEdges map[string]bool // consumer names fed by the plant cycle edge
}

// NewGraph builds an empty graph bound to catalog.
func NewGraph(catalog *Catalog) *Graph {
	return &Graph{
		catalog:     catalog,
		byName:      make(map[string]*instance),
		streamsByID: make(map[string]*stream.Stream),
		plantEdges:  make(map[string]bool),
	}
}

// AddNode instantiates kindName as name via the catalog, registering its
// output streams under "<name>/<output>".
func (g *Graph) AddNode(name, kindName string, d Descriptor) error {
	if _, exists := g.byName[name]; exists {
		return &errcode.E{C: errcode.DuplicateNodeName, Op: "AddNode", Msg: name}
	}
	factory, kind, ok := g.catalog.Lookup(kindName)
	if !ok {
		return &errcode.E{C: errcode.UnknownNodeKind, Op: "AddNode", Msg: kindName}
	}
	node, outs, err := factory(name, d)
	if err != nil {
		return err
	}
	inst := &instance{name: name, kind: kind, node: node, outputs: make(map[string]*stream.Stream, len(outs))}
	for _, s := range outs {
		id := s.ID()
		if _, dup := g.streamsByID[id]; dup {
			return &errcode.E{C: errcode.DuplicateNodeName, Op: "AddNode", Msg: "duplicate stream ownership: " + id}
		}
		inst.outputs[id] = s
		g.streamsByID[id] = s
	}
	if kind == KindSimulator {
		if g.plant != nil {
			return &errcode.E{C: errcode.DuplicateNodeName, Op: "AddNode", Msg: "only one plant node is permitted"}
		}
		g.plant = inst
	}
	g.byName[name] = inst
	return nil
}

// RemoveNode tears name out of the graph: its output streams are released
// and it is dropped from the node set. Fails with InvalidParams if another
// node still has an input bound to one of its streams — the caller must
// rebind or remove the dependent first. Validate must be re-run afterward
// to recompute the topological order before the next Start/Tick.
func (g *Graph) RemoveNode(name string) error {
	inst, ok := g.byName[name]
	if !ok {
		return &errcode.E{C: errcode.UnknownNodeKind, Op: "RemoveNode", Msg: "unknown node: " + name}
	}
	for other, otherInst := range g.byName {
		if other == name {
			continue
		}
		for _, id := range otherInst.node.Config().Inputs {
			if id == "" {
				continue
			}
			if s, ok := inst.outputs[id]; ok {
				_ = s
				return &errcode.E{C: errcode.InvalidParams, Op: "RemoveNode", Msg: fmt.Sprintf("%s still bound to %s's %s", other, name, id)}
			}
		}
	}
	for id := range inst.outputs {
		delete(g.streamsByID, id)
	}
	delete(g.byName, name)
	if g.plant == inst {
		g.plant = nil
	}
	g.order = nil
	return nil
}

// Bind wires consumer's input port (by index, matching node.Inputs() order)
// to the stream produced at streamID.
func (g *Graph) Bind(consumer string, portIndex int, streamID string) error {
	inst, ok := g.byName[consumer]
	if !ok {
		return &errcode.E{C: errcode.UnknownNodeKind, Op: "Bind", Msg: "unknown node: " + consumer}
	}
	ports := inst.node.Inputs()
	if portIndex < 0 || portIndex >= len(ports) {
		return &errcode.E{C: errcode.InvalidParams, Op: "Bind", Msg: fmt.Sprintf("port index %d out of range", portIndex)}
	}
	cfg := inst.node.Config()
	for len(cfg.Inputs) <= portIndex {
		cfg.Inputs = append(cfg.Inputs, "")
	}
	cfg.Inputs[portIndex] = streamID
	if err := inst.node.ApplyConfig(cfg); err != nil {
		return err
	}

	resolved := make([]*stream.Stream, len(cfg.Inputs))
	for i, id := range cfg.Inputs {
		if id == "" {
			continue
		}
		s, ok := g.streamsByID[id]
		if !ok {
			return &errcode.E{C: errcode.UnknownStream, Op: "Bind", Msg: id}
		}
		resolved[i] = s
	}
	inst.node.BindInputs(resolved)
	return nil
}

// StreamByID resolves a fully-qualified "<node>/<output>" id.
func (g *Graph) StreamByID(id string) (*stream.Stream, bool) {
	s, ok := g.streamsByID[id]
	return s, ok
}

// SetNodeConfig applies a new tunables value to name's config, preserving
// its existing input port bindings untouched (the remote surface's
// SetNodeConfig is a tunables-only call; SetNodeInputStreamPath is the
// dedicated path for rebinding inputs via Bind).
func (g *Graph) SetNodeConfig(name string, value regtype.Value) error {
	inst, ok := g.byName[name]
	if !ok {
		return &errcode.E{C: errcode.UnknownNodeKind, Op: "SetNodeConfig", Msg: "unknown node: " + name}
	}
	cfg := inst.node.Config()
	cfg.Value = value
	return inst.node.ApplyConfig(cfg)
}

// SendMessage delivers an out-of-band message to name, per spec §6's
// SendNodeMessage RPC.
func (g *Graph) SendMessage(name string, msg regtype.Value) (regtype.Value, error) {
	inst, ok := g.byName[name]
	if !ok {
		return regtype.Value{}, &errcode.E{C: errcode.UnknownNodeKind, Op: "SendMessage", Msg: "unknown node: " + name}
	}
	return inst.node.SendMessage(msg)
}

// NodeNames returns every instantiated node's name, for EnumerateNodes.
func (g *Graph) NodeNames() []string {
	names := make([]string, 0, len(g.byName))
	for n := range g.byName {
		names = append(names, n)
	}
	sortStrings(names)
	return names
}

// NodeInfo returns name's kind, descriptor and config, for
// EnumerateNodes/GetNodeData.
func (g *Graph) NodeInfo(name string) (kind string, d Descriptor, c Config, ok bool) {
	inst, ok := g.byName[name]
	if !ok {
		return "", Descriptor{}, Config{}, false
	}
	d = inst.node.Describe()
	return d.Kind, d, inst.node.Config(), true
}

// PortsForNode returns name's declared input ports and output streams, for
// EnumerateNodeDefs.
func (g *Graph) PortsForNode(name string) (inputs []PortSpec, outputs []StreamSpec, ok bool) {
	inst, ok := g.byName[name]
	if !ok {
		return nil, nil, false
	}
	return inst.node.Inputs(), inst.node.Outputs(), true
}

// Validate checks every binding per spec §4.3: stream existence and
// producer presence, type/rate match, acyclicity except the single
// designated plant cycle, and no duplicate stream ownership (already
// enforced incrementally by AddNode). It also computes the topological
// execution order, with the plant cycle's edges excluded from the ordering
// dependency and the plant placed last: the plant reads its inputs from the
// current tick, and its consumers read its outputs from the previous tick.
func (g *Graph) Validate() error {
	// 1 & 2: binding existence, type, rate.
	deps := make(map[string]map[string]bool, len(g.byName))
	for name, inst := range g.byName {
		deps[name] = make(map[string]bool)
		ports := inst.node.Inputs()
		cfg := inst.node.Config()
		for i, port := range ports {
			if i >= len(cfg.Inputs) || cfg.Inputs[i] == "" {
				continue // unbound input is permitted (e.g. pilot stick absent in sim)
			}
			streamID := cfg.Inputs[i]
			s, ok := g.streamsByID[streamID]
			if !ok {
				return &errcode.E{C: errcode.UnknownStream, Op: "Validate", Msg: streamID}
			}
			if !s.Type().Same(port.Type) {
				return &errcode.E{C: errcode.TypeMismatch, Op: "Validate", Msg: fmt.Sprintf("%s port %s", name, port.Name)}
			}
			if s.RateHz() != port.RateHz {
				return &errcode.E{C: errcode.RateMismatch, Op: "Validate", Msg: fmt.Sprintf("%s port %s", name, port.Name)}
			}
			producer := s.Producer()
			if _, ok := g.byName[producer]; !ok {
				return &errcode.E{C: errcode.UnknownStream, Op: "Validate", Msg: "producer not in graph: " + producer}
			}
			// Edges out of the plant are not ordering dependencies: the plant
			// runs last (see below), so its consumers read the samples it
			// pushed on the previous tick. The plant's own inbound edges are
			// left out too, since every node it reads already runs before it.
			if g.plant != nil && producer == g.plant.name && name != g.plant.name {
				continue
			}
			if g.plant != nil && name == g.plant.name {
				continue
			}
			deps[name][producer] = true
		}
	}

	order, err := topoSort(deps)
	if err != nil {
		return err
	}
	g.order = make([]*instance, 0, len(order))
	for _, n := range order {
		if inst := g.byName[n]; inst != g.plant {
			g.order = append(g.order, inst)
		}
	}
	if g.plant != nil {
		g.order = append(g.order, g.plant)
	}
	return nil
}

func topoSort(deps map[string]map[string]bool) ([]string, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(deps))
	var order []string
	var visit func(n string) error
	visit = func(n string) error {
		switch color[n] {
		case black:
			return nil
		case gray:
			return &errcode.E{C: errcode.CycleDetected, Op: "topoSort", Msg: n}
		}
		color[n] = gray
		// deterministic order, teacher's style favors explicit iteration
		// over map-order sensitivity; sort dep names for reproducibility.
		depNames := make([]string, 0, len(deps[n]))
		for d := range deps[n] {
			depNames = append(depNames, d)
		}
		sortStrings(depNames)
		for _, d := range depNames {
			if err := visit(d); err != nil {
				return err
			}
		}
		color[n] = black
		order = append(order, n)
		return nil
	}
	names := make([]string, 0, len(deps))
	for n := range deps {
		names = append(names, n)
	}
	sortStrings(names)
	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Order returns the validated topological execution order.
func (g *Graph) Order() []Node {
	out := make([]Node, len(g.order))
	for i, inst := range g.order {
		out[i] = inst.node
	}
	return out
}

// Plant returns the designated plant node, if one was added.
func (g *Graph) Plant() (Node, bool) {
	if g.plant == nil {
		return nil, false
	}
	return g.plant.node, true
}
