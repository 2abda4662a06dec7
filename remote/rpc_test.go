package remote

import (
	"testing"

	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/stream"
)

type stubNode struct{}

func (stubNode) Init(d graph.Descriptor) error                        { return nil }
func (stubNode) ApplyConfig(c graph.Config) error                     { return nil }
func (stubNode) Describe() graph.Descriptor                           { return graph.Descriptor{} }
func (stubNode) Config() graph.Config                                 { return graph.Config{} }
func (stubNode) Inputs() []graph.PortSpec                             { return nil }
func (stubNode) Outputs() []graph.StreamSpec                          { return nil }
func (stubNode) SendMessage(msg regtype.Value) (regtype.Value, error) { return regtype.Value{}, nil }
func (stubNode) Start(tickOriginUS int64)                             {}
func (stubNode) Process(nowUS int64)                                  {}
func (stubNode) BindInputs(streams []*stream.Stream)                  {}

func newTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	catalog := graph.NewCatalog()
	catalog.Register("stub", graph.KindSource, func(name string, d graph.Descriptor) (graph.Node, []*stream.Stream, error) {
		return stubNode{}, nil, nil
	})
	return graph.NewGraph(catalog)
}

func TestDispatcherClock(t *testing.T) {
	d := NewDispatcher(newTestGraph(t), func() int64 { return 42 })
	resp := d.Handle(Request{ID: 1, Method: MethodClock})
	if resp.ClockUS != 42 {
		t.Fatalf("expected clock 42, got %d", resp.ClockUS)
	}
}

func TestDispatcherAddNode(t *testing.T) {
	d := NewDispatcher(newTestGraph(t), func() int64 { return 0 })
	resp := d.Handle(Request{ID: 2, Method: MethodAddNode, NodeName: "imu0", NodeKind: "stub"})
	if resp.Err != nil {
		t.Fatalf("AddNode: %v", resp.Err)
	}
	if resp.Node.Name != "imu0" {
		t.Fatalf("expected node name imu0, got %q", resp.Node.Name)
	}

	// duplicate add must fail through the graph's own validation.
	resp2 := d.Handle(Request{ID: 3, Method: MethodAddNode, NodeName: "imu0", NodeKind: "stub"})
	if resp2.Err == nil {
		t.Fatalf("expected duplicate node name error")
	}
}

func TestDispatcherUnsupportedMethod(t *testing.T) {
	d := NewDispatcher(newTestGraph(t), func() int64 { return 0 })
	resp := d.Handle(Request{ID: 4, Method: Method("not_a_real_method")})
	if resp.Err == nil {
		t.Fatalf("expected unsupported method error")
	}
}

func TestDispatcherEnumerateAndRemoveNode(t *testing.T) {
	d := NewDispatcher(newTestGraph(t), func() int64 { return 0 })
	if resp := d.Handle(Request{ID: 1, Method: MethodAddNode, NodeName: "imu0", NodeKind: "stub"}); resp.Err != nil {
		t.Fatalf("AddNode: %v", resp.Err)
	}

	enum := d.Handle(Request{ID: 2, Method: MethodEnumerateNodes})
	if enum.Err != nil {
		t.Fatalf("EnumerateNodes: %v", enum.Err)
	}
	if len(enum.Nodes) != 1 || enum.Nodes[0].Name != "imu0" {
		t.Fatalf("expected one node named imu0, got %+v", enum.Nodes)
	}

	got := d.Handle(Request{ID: 3, Method: MethodGetNodeData, NodeName: "imu0"})
	if got.Err != nil || got.Node.Name != "imu0" {
		t.Fatalf("GetNodeData: %+v", got)
	}

	rm := d.Handle(Request{ID: 4, Method: MethodRemoveNode, NodeName: "imu0"})
	if rm.Err != nil {
		t.Fatalf("RemoveNode: %v", rm.Err)
	}

	after := d.Handle(Request{ID: 5, Method: MethodGetNodeData, NodeName: "imu0"})
	if after.Err == nil {
		t.Fatalf("expected GetNodeData to fail after RemoveNode")
	}
}

func TestDispatcherTelemetryActiveToggle(t *testing.T) {
	d := NewDispatcher(newTestGraph(t), func() int64 { return 0 })
	if d.TelemetryActive("imu0/acceleration") {
		t.Fatalf("expected inactive by default")
	}
	d.Handle(Request{ID: 1, Method: MethodSetStreamTelemetryActive, StreamID: "imu0/acceleration", TelemetryActive: true})
	if !d.TelemetryActive("imu0/acceleration") {
		t.Fatalf("expected active after SetStreamTelemetryActive(true)")
	}
	d.Handle(Request{ID: 2, Method: MethodSetStreamTelemetryActive, StreamID: "imu0/acceleration", TelemetryActive: false})
	if d.TelemetryActive("imu0/acceleration") {
		t.Fatalf("expected inactive after SetStreamTelemetryActive(false)")
	}
}
