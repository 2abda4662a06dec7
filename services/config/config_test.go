package config

import (
	"testing"

	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/stream"
)

type stubNode struct {
	inputs  []graph.PortSpec
	outputs []graph.StreamSpec
	desc    graph.Descriptor
	cfg     graph.Config
}

func (n *stubNode) Init(d graph.Descriptor) error                        { n.desc = d; return nil }
func (n *stubNode) ApplyConfig(c graph.Config) error                     { n.cfg = c; return nil }
func (n *stubNode) Describe() graph.Descriptor                           { return n.desc }
func (n *stubNode) Config() graph.Config                                 { return n.cfg }
func (n *stubNode) Inputs() []graph.PortSpec                            { return n.inputs }
func (n *stubNode) Outputs() []graph.StreamSpec                         { return n.outputs }
func (n *stubNode) SendMessage(msg regtype.Value) (regtype.Value, error) { return regtype.Value{}, nil }
func (n *stubNode) Start(tickOriginUS int64)                            {}
func (n *stubNode) Process(nowUS int64)                                  {}
func (n *stubNode) BindInputs(streams []*stream.Stream)                  {}

func TestParseTypesAndNodes(t *testing.T) {
	raw := []byte(`{
		"types": [
			{"name": "greeting", "kind": "record", "fields": [
				{"name": "text", "type": "string"},
				{"name": "loud", "type": "bool"}
			]}
		],
		"nodes": [
			{"name": "g0", "kind": "greeter", "descriptor": {"text": "hi", "loud": true}, "config": null, "inputs": []}
		]
	}`)
	tree, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tree.Types) != 1 || tree.Types[0].Name != "greeting" {
		t.Fatalf("expected one type decl named greeting, got %+v", tree.Types)
	}
	if len(tree.Nodes) != 1 || tree.Nodes[0].Name != "g0" || tree.Nodes[0].Kind != "greeter" {
		t.Fatalf("expected one node g0/greeter, got %+v", tree.Nodes)
	}
}

func TestDeclareTypesAndBuildValue(t *testing.T) {
	reg := regtype.NewRegistry()
	decls := []TypeDecl{
		{Name: "greeting", Kind: "record", Fields: []FieldDecl{
			{Name: "text", Type: "string"},
			{Name: "loud", Type: "bool"},
		}},
	}
	types, err := DeclareTypes(reg, decls)
	if err != nil {
		t.Fatalf("DeclareTypes: %v", err)
	}
	greeting, ok := types["greeting"]
	if !ok {
		t.Fatalf("expected greeting type registered")
	}

	v, err := BuildValue(greeting, map[string]any{"text": "hi", "loud": true})
	if err != nil {
		t.Fatalf("BuildValue: %v", err)
	}
	textVal, err := v.RecordField("text")
	if err != nil || textVal.String() != "hi" {
		t.Fatalf("expected text=hi, got %v err=%v", textVal, err)
	}
	loudVal, err := v.RecordField("loud")
	if err != nil || !loudVal.Bool() {
		t.Fatalf("expected loud=true, got %v err=%v", loudVal, err)
	}
}

func TestBuildValueVectorAndSequence(t *testing.T) {
	reg := regtype.NewRegistry()
	vec3, err := reg.Vector(3)
	if err != nil {
		t.Fatalf("Vector: %v", err)
	}
	f64 := reg.Scalar(regtype.KindF64)
	seq, err := reg.DeclareSequence("f64_seq", f64)
	if err != nil {
		t.Fatalf("DeclareSequence: %v", err)
	}

	v, err := BuildValue(vec3, []any{1.0, 2.0, 3.0})
	if err != nil {
		t.Fatalf("BuildValue vector: %v", err)
	}
	comps := v.VectorComponents()
	if comps[0] != 1 || comps[1] != 2 || comps[2] != 3 {
		t.Fatalf("unexpected vector components: %v", comps)
	}

	sv, err := BuildValue(seq, []any{1.0, 2.0})
	if err != nil {
		t.Fatalf("BuildValue sequence: %v", err)
	}
	if sv.SequenceLen() != 2 || sv.SequenceAt(1).Float() != 2 {
		t.Fatalf("unexpected sequence: len=%d", sv.SequenceLen())
	}
}

func TestBuildGraphBindsInputs(t *testing.T) {
	reg := regtype.NewRegistry()
	f64 := reg.Scalar(regtype.KindF64)

	catalog := graph.NewCatalog()
	catalog.Register("source", graph.KindSource, func(name string, d graph.Descriptor) (graph.Node, []*stream.Stream, error) {
		s, err := stream.New(name+"/out", f64, 50, name)
		if err != nil {
			return nil, nil, err
		}
		n := &stubNode{outputs: []graph.StreamSpec{{Name: "out", Type: f64, RateHz: 50}}}
		return n, []*stream.Stream{s}, nil
	})
	catalog.Register("sink", graph.KindSink, func(name string, d graph.Descriptor) (graph.Node, []*stream.Stream, error) {
		n := &stubNode{inputs: []graph.PortSpec{{Name: "in", Type: f64, RateHz: 50}}}
		return n, nil, nil
	})

	tree := &Tree{
		Nodes: []NodeDecl{
			{Name: "src", Kind: "source"},
			{Name: "snk", Kind: "sink", Inputs: []string{"src/out"}},
		},
	}

	g, err := BuildGraph(catalog, map[string]KindSchema{"source": {}, "sink": {}}, tree)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(g.Order()) != 2 {
		t.Fatalf("expected both nodes validated, got %d", len(g.Order()))
	}
}
