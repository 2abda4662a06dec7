package remote

import (
	"sync"

	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
)

// Method identifies one of the command surface's RPC kinds (spec §6).
type Method string

const (
	MethodClock                   Method = "clock"
	MethodEnumerateNodeDefs       Method = "enumerate_node_defs"
	MethodEnumerateNodes          Method = "enumerate_nodes"
	MethodGetNodeData             Method = "get_node_data"
	MethodAddNode                 Method = "add_node"
	MethodRemoveNode              Method = "remove_node"
	MethodSetNodeConfig           Method = "set_node_config"
	MethodSetNodeInputStreamPath  Method = "set_node_input_stream_path"
	MethodSendNodeMessage         Method = "send_node_message"
	MethodSetStreamTelemetryActive Method = "set_stream_telemetry_active"
)

// Request is one remote call, identified by a caller-assigned request id.
type Request struct {
	ID     uint64
	Method Method

	// Populated per Method; zero-valued fields for methods that don't use
	// them.
	NodeName       string
	NodeKind       string
	Descriptor     regtype.Value
	Config         regtype.Value
	PortIndex      int
	StreamID       string
	Message        regtype.Value
	TelemetryActive bool
}

// NodeDef describes one catalog entry, for EnumerateNodeDefs.
type NodeDef struct {
	Kind    string
	Inputs  []graph.PortSpec
	Outputs []graph.StreamSpec
}

// NodeState describes one live node instance, for EnumerateNodes/
// GetNodeData/AddNode.
type NodeState struct {
	Name        string
	Kind        string
	Descriptor  regtype.Value
	Config      regtype.Value
	ErrorCount  uint64
	LastErrorKind string
}

// Response is the uniform reply envelope; exactly one of the typed fields
// is meaningful depending on the originating Request's Method.
type Response struct {
	ID  uint64
	Err error

	ClockUS     int64
	NodeDefs    []NodeDef
	Nodes       []NodeState
	Node        NodeState
	Value       regtype.Value
}

// Dispatcher binds the RPC surface to a live graph.Graph plus a clock
// source, translating each Request into graph operations.
type Dispatcher struct {
	g     *graph.Graph
	nowUS func() int64

	mu        sync.Mutex
	telemetry map[string]bool // stream id -> active, for SetStreamTelemetryActive
}

// NewDispatcher builds a Dispatcher over g, using nowUS for MethodClock.
func NewDispatcher(g *graph.Graph, nowUS func() int64) *Dispatcher {
	return &Dispatcher{g: g, nowUS: nowUS, telemetry: make(map[string]bool)}
}

// TelemetryActive reports whether streamID was last activated via
// SetStreamTelemetryActive. Used by the command's telemetry publisher
// (main.go) to decide what to publish onto the telemetry lane.
func (d *Dispatcher) TelemetryActive(streamID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.telemetry[streamID]
}

func nodeState(g *graph.Graph, name string) (NodeState, bool) {
	kind, desc, cfg, ok := g.NodeInfo(name)
	if !ok {
		return NodeState{}, false
	}
	return NodeState{Name: name, Kind: kind, Descriptor: desc.Value, Config: cfg.Value}, true
}

// Handle dispatches one Request and produces its Response.
func (d *Dispatcher) Handle(req Request) Response {
	switch req.Method {
	case MethodClock:
		return Response{ID: req.ID, ClockUS: d.nowUS()}
	case MethodAddNode:
		err := d.g.AddNode(req.NodeName, req.NodeKind, graph.Descriptor{Kind: req.NodeKind, Value: req.Descriptor})
		if err != nil {
			return Response{ID: req.ID, Err: err}
		}
		return Response{ID: req.ID, Node: NodeState{Name: req.NodeName, Kind: req.NodeKind, Descriptor: req.Descriptor}}
	case MethodRemoveNode:
		if err := d.g.RemoveNode(req.NodeName); err != nil {
			return Response{ID: req.ID, Err: err}
		}
		return Response{ID: req.ID}
	case MethodSetNodeConfig:
		if err := d.g.SetNodeConfig(req.NodeName, req.Config); err != nil {
			return Response{ID: req.ID, Err: err}
		}
		return Response{ID: req.ID}
	case MethodSetNodeInputStreamPath:
		if err := d.g.Bind(req.NodeName, req.PortIndex, req.StreamID); err != nil {
			return Response{ID: req.ID, Err: err}
		}
		return Response{ID: req.ID}
	case MethodSendNodeMessage:
		val, err := d.g.SendMessage(req.NodeName, req.Message)
		if err != nil {
			return Response{ID: req.ID, Err: err}
		}
		return Response{ID: req.ID, Value: val}
	case MethodSetStreamTelemetryActive:
		d.mu.Lock()
		if req.TelemetryActive {
			d.telemetry[req.StreamID] = true
		} else {
			delete(d.telemetry, req.StreamID)
		}
		d.mu.Unlock()
		return Response{ID: req.ID}
	case MethodGetNodeData:
		ns, ok := nodeState(d.g, req.NodeName)
		if !ok {
			return Response{ID: req.ID, Err: &nodeNotFoundError{req.NodeName}}
		}
		return Response{ID: req.ID, Node: ns}
	case MethodEnumerateNodes:
		names := d.g.NodeNames()
		out := make([]NodeState, 0, len(names))
		for _, name := range names {
			if ns, ok := nodeState(d.g, name); ok {
				out = append(out, ns)
			}
		}
		return Response{ID: req.ID, Nodes: out}
	case MethodEnumerateNodeDefs:
		// Approximated from the currently-instantiated nodes rather than the
		// catalog's full registered-kind set: graph.Catalog's Factory needs a
		// descriptor to build a node before Inputs()/Outputs() can be read,
		// so an un-instantiated kind has no port/stream shape to report yet.
		seen := make(map[string]bool)
		var defs []NodeDef
		for _, name := range d.g.NodeNames() {
			kind, _, _, ok := d.g.NodeInfo(name)
			if !ok || seen[kind] {
				continue
			}
			seen[kind] = true
			inputs, outputs, ok := d.g.PortsForNode(name)
			if !ok {
				continue
			}
			defs = append(defs, NodeDef{Kind: kind, Inputs: inputs, Outputs: outputs})
		}
		return Response{ID: req.ID, NodeDefs: defs}
	default:
		return Response{ID: req.ID, Err: unsupportedMethod(req.Method)}
	}
}

type nodeNotFoundError struct{ name string }

func (e *nodeNotFoundError) Error() string { return "remote: unknown node: " + e.name }

func unsupportedMethod(m Method) error {
	return &methodError{m}
}

type methodError struct{ m Method }

func (e *methodError) Error() string { return "remote: unsupported or not-yet-wired method: " + string(e.m) }
