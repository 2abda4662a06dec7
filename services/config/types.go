// Package config implements the configuration-tree loader (spec §6): a
// JSON document declaring user-defined types plus a node instantiation
// list, decoded into live regtype.Type registrations and a bound
// graph.Graph.
//
// Grounded in the teacher's services/config package, which read an
// embedded per-device JSON blob with github.com/andreyvit/tinyjson and
// republished it key-by-key onto the bus; the wire format and tinyjson
// dependency are kept, generalized from a flat device-settings map to
// the type-declaration-plus-node-list shape spec §6 describes.
package config

import (
	"fmt"

	"github.com/andreyvit/tinyjson"

	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/regtype"
)

// TypeDecl is one entry of the configuration tree's "types" list: a
// user-defined record/variant/sequence/vector/enum/optional type,
// declared against a regtype.Registry before any node descriptor or
// config referencing it can be decoded.
type TypeDecl struct {
	Name string
	Kind string // "record" | "sequence" | "vector" | "enum" | "optional" | "variant"

	// record
	Fields []FieldDecl
	// sequence / optional
	Elem string
	// vector
	N int
	// enum
	Symbols []string
	Base    int
	// variant
	Branches []string
}

// FieldDecl is one named field of a record TypeDecl. Type names a
// previously-declared type (by registration name) or a built-in scalar's
// canonical name ("bool", "f64", "i32", ...).
type FieldDecl struct {
	Name string
	Type string
}

// NodeDecl is one entry of the configuration tree's "nodes" list: a
// graph node to instantiate, its descriptor and config values (decoded
// against caller-supplied types keyed by Kind), and its input port
// bindings.
//
// Inputs is a supplement beyond spec §6's literal {name, kind,
// descriptor, config} shape: the spec only exposes SetNodeInputStreamPath
// as a live-reconfiguration RPC, but a static configuration tree used to
// build a graph at startup needs its bindings expressed declaratively
// too, or the loaded graph would have no wiring until an operator issued
// RPCs one port at a time. Inputs[i] is the stream id bound to input
// port i ("" leaves the port unbound).
type NodeDecl struct {
	Name       string
	Kind       string
	Descriptor any // raw decoded JSON, walked against the kind's descriptor type
	Config     any // raw decoded JSON, walked against the kind's config type, if any
	Inputs     []string
}

// Tree is a parsed, not-yet-typed configuration tree.
type Tree struct {
	Types []TypeDecl
	Nodes []NodeDecl
}

// Parse decodes raw JSON into a Tree. It does not touch any
// regtype.Registry — call DeclareTypes next to register Types in order.
func Parse(raw []byte) (*Tree, error) {
	r := tinyjson.Raw(raw)
	root := r.Value()
	r.EnsureEOF()
	rootMap, ok := root.(map[string]any)
	if !ok {
		return nil, &errcode.E{C: errcode.ParseError, Op: "config.Parse", Msg: "root is not a JSON object"}
	}

	var tree Tree
	if rawTypes, ok := rootMap["types"]; ok {
		list, ok := rawTypes.([]any)
		if !ok {
			return nil, &errcode.E{C: errcode.ParseError, Op: "config.Parse", Msg: "types must be a JSON array"}
		}
		for _, rt := range list {
			decl, err := parseTypeDecl(rt)
			if err != nil {
				return nil, err
			}
			tree.Types = append(tree.Types, decl)
		}
	}

	if rawNodes, ok := rootMap["nodes"]; ok {
		list, ok := rawNodes.([]any)
		if !ok {
			return nil, &errcode.E{C: errcode.ParseError, Op: "config.Parse", Msg: "nodes must be a JSON array"}
		}
		for _, rn := range list {
			decl, err := parseNodeDecl(rn)
			if err != nil {
				return nil, err
			}
			tree.Nodes = append(tree.Nodes, decl)
		}
	}
	return &tree, nil
}

func parseTypeDecl(raw any) (TypeDecl, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return TypeDecl{}, &errcode.E{C: errcode.ParseError, Op: "config.parseTypeDecl", Msg: "type declaration must be a JSON object"}
	}
	decl := TypeDecl{
		Name: str(m["name"]),
		Kind: str(m["kind"]),
		Elem: str(m["elem"]),
		N:    int(num(m["n"])),
		Base: int(num(m["base"])),
	}
	if decl.Name == "" {
		return TypeDecl{}, &errcode.E{C: errcode.MissingField, Op: "config.parseTypeDecl", Msg: "type declaration missing name"}
	}
	if fs, ok := m["fields"].([]any); ok {
		for _, rf := range fs {
			fm, ok := rf.(map[string]any)
			if !ok {
				return TypeDecl{}, &errcode.E{C: errcode.ParseError, Op: "config.parseTypeDecl", Msg: "field must be a JSON object"}
			}
			decl.Fields = append(decl.Fields, FieldDecl{Name: str(fm["name"]), Type: str(fm["type"])})
		}
	}
	if ss, ok := m["symbols"].([]any); ok {
		for _, s := range ss {
			decl.Symbols = append(decl.Symbols, str(s))
		}
	}
	if bs, ok := m["branches"].([]any); ok {
		for _, b := range bs {
			decl.Branches = append(decl.Branches, str(b))
		}
	}
	return decl, nil
}

func parseNodeDecl(raw any) (NodeDecl, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return NodeDecl{}, &errcode.E{C: errcode.ParseError, Op: "config.parseNodeDecl", Msg: "node entry must be a JSON object"}
	}
	decl := NodeDecl{
		Name:       str(m["name"]),
		Kind:       str(m["kind"]),
		Descriptor: m["descriptor"],
		Config:     m["config"],
	}
	if decl.Name == "" || decl.Kind == "" {
		return NodeDecl{}, &errcode.E{C: errcode.MissingField, Op: "config.parseNodeDecl", Msg: "node entry requires name and kind"}
	}
	if ins, ok := m["inputs"].([]any); ok {
		decl.Inputs = make([]string, len(ins))
		for i, in := range ins {
			decl.Inputs[i] = str(in)
		}
	}
	return decl, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) float64 {
	f, _ := v.(float64)
	return f
}

// DeclareTypes registers every TypeDecl against reg, in list order — a
// record/sequence/optional/variant referencing another declared type
// requires that type to appear earlier in Types. Built-in scalar names
// ("bool", "f64", "i32", ...) resolve without a prior declaration.
func DeclareTypes(reg *regtype.Registry, decls []TypeDecl) (map[string]*regtype.Type, error) {
	out := make(map[string]*regtype.Type, len(decls))
	resolve := func(name string) (*regtype.Type, error) {
		if t, ok := out[name]; ok {
			return t, nil
		}
		if t, ok := reg.Lookup(name); ok {
			return t, nil
		}
		return nil, &errcode.E{C: errcode.MissingField, Op: "config.DeclareTypes", Msg: "unknown type reference: " + name}
	}

	for _, d := range decls {
		var (
			t   *regtype.Type
			err error
		)
		switch d.Kind {
		case "record":
			fields := make([]regtype.Field, len(d.Fields))
			for i, f := range d.Fields {
				ft, ferr := resolve(f.Type)
				if ferr != nil {
					return nil, ferr
				}
				fields[i] = regtype.Field{Name: f.Name, Type: ft}
			}
			t, err = reg.DeclareRecord(d.Name, fields, regtype.Attrs{})
		case "sequence":
			elem, eerr := resolve(d.Elem)
			if eerr != nil {
				return nil, eerr
			}
			t, err = reg.DeclareSequence(d.Name, elem)
		case "optional":
			elem, eerr := resolve(d.Elem)
			if eerr != nil {
				return nil, eerr
			}
			t, err = reg.DeclareOptional(d.Name, elem)
		case "vector":
			t, err = reg.Vector(d.N)
		case "enum":
			t, err = reg.DeclareEnum(d.Name, d.Symbols, d.Base, regtype.Attrs{})
		case "variant":
			branches := make([]*regtype.Type, len(d.Branches))
			for i, b := range d.Branches {
				bt, berr := resolve(b)
				if berr != nil {
					return nil, berr
				}
				branches[i] = bt
			}
			t, err = reg.DeclareVariant(d.Name, branches)
		default:
			return nil, &errcode.E{C: errcode.ParseError, Op: "config.DeclareTypes", Msg: fmt.Sprintf("unknown type kind %q for %s", d.Kind, d.Name)}
		}
		if err != nil {
			return nil, err
		}
		out[d.Name] = t
	}
	return out, nil
}
