package config

import (
	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/graph"
	"github.com/jeanleflambeur/silkopter/regtype"
)

// KindSchema names the descriptor/config types a node kind expects, so
// BuildGraph can decode a NodeDecl's raw JSON descriptor/config against
// the right regtype.Type. ConfigType may be nil for kinds with no
// meaningful startup tunables (the loaded Config.Value stays the type's
// zero value; bindings still apply).
type KindSchema struct {
	DescriptorType *regtype.Type
	ConfigType     *regtype.Type
}

// BuildGraph instantiates every NodeDecl in tree against catalog, decoding
// each descriptor/config through the schema registered for its Kind, then
// binds every declared input in a second pass once all nodes (and their
// output streams) exist. Bindings run after every AddNode so a node may
// reference a stream produced by an entry declared later in tree.Nodes.
func BuildGraph(catalog *graph.Catalog, schemas map[string]KindSchema, tree *Tree) (*graph.Graph, error) {
	g := graph.NewGraph(catalog)

	for _, nd := range tree.Nodes {
		schema, ok := schemas[nd.Kind]
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownNodeKind, Op: "config.BuildGraph", Msg: "no schema registered for kind: " + nd.Kind}
		}

		var desc graph.Descriptor
		if schema.DescriptorType != nil {
			v, err := BuildValue(schema.DescriptorType, nd.Descriptor)
			if err != nil {
				return nil, err
			}
			desc = graph.Descriptor{Kind: nd.Kind, Value: v}
		}

		if err := g.AddNode(nd.Name, nd.Kind, desc); err != nil {
			return nil, err
		}

		if schema.ConfigType != nil && nd.Config != nil {
			v, err := BuildValue(schema.ConfigType, nd.Config)
			if err != nil {
				return nil, err
			}
			if err := g.SetNodeConfig(nd.Name, v); err != nil {
				return nil, err
			}
		}
	}

	for _, nd := range tree.Nodes {
		for port, streamID := range nd.Inputs {
			if streamID == "" {
				continue
			}
			if err := g.Bind(nd.Name, port, streamID); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}
