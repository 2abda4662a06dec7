package regtype

import (
	"fmt"
	"sync"

	"github.com/jeanleflambeur/silkopter/errcode"
)

// Registry is the process-wide catalog of declared types. It is read-mostly
// after startup (spec §3: "Types are registered once at startup; the
// registry is read-mostly thereafter") — nodes and values hold stable *Type
// handles into it rather than owning shared, reference-counted type objects.
type Registry struct {
	mu    sync.RWMutex
	named map[string]*Type

	scalars [KindRecord + 1]*Type // cache for the built-in unnamed scalar kinds
	vectors [5]*Type              // vectors[2], vectors[3], vectors[4]
}

// NewRegistry builds a registry with the built-in scalar kinds pre-declared.
func NewRegistry() *Registry {
	r := &Registry{named: make(map[string]*Type)}
	for _, k := range []Kind{
		KindBool, KindI8, KindU8, KindI16, KindU16, KindI32, KindU32,
		KindI64, KindU64, KindF32, KindF64, KindString,
	} {
		r.scalars[k] = &Type{kind: k, name: k.String()}
	}
	return r
}

// Scalar returns the singleton Type for a built-in scalar kind.
func (r *Registry) Scalar(k Kind) *Type {
	if int(k) >= len(r.scalars) || r.scalars[k] == nil {
		panic(fmt.Sprintf("regtype: %s is not a scalar kind", k))
	}
	return r.scalars[k]
}

// Vector returns (declaring on first use) the fixed-length float vector type
// for n in {2,3,4}.
func (r *Registry) Vector(n int) (*Type, error) {
	if n < 2 || n > 4 {
		return nil, &errcode.E{C: errcode.ArityMismatch, Op: "Vector", Msg: fmt.Sprintf("n=%d not in {2,3,4}", n)}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vectors[n] == nil {
		r.vectors[n] = &Type{kind: KindVector, name: fmt.Sprintf("vec%d", n), vecN: n}
	}
	return r.vectors[n], nil
}

func (r *Registry) declareNamed(name string, t *Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.named[name]; exists {
		return &errcode.E{C: errcode.DuplicateNodeName, Op: "declareNamed", Msg: "type already registered: " + name}
	}
	t.name = name
	r.named[name] = t
	return nil
}

// Lookup resolves a previously-declared named type (enum/optional/sequence/
// variant/record declared with a name, or a scalar/vector by its canonical
// name).
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	t, ok := r.named[name]
	r.mu.RUnlock()
	if ok {
		return t, true
	}
	for _, s := range r.scalars {
		if s != nil && s.name == name {
			return s, true
		}
	}
	if len(name) == 4 && name[:3] == "vec" {
		if t, err := r.Vector(int(name[3]) - '0'); err == nil {
			return t, true
		}
	}
	return nil, false
}

// DeclareEnum registers a named enum type: a fixed set of symbols with a
// numeric base (the integer each symbol's ordinal is offset by).
func (r *Registry) DeclareEnum(name string, symbols []string, base int, attrs Attrs) (*Type, error) {
	if len(symbols) == 0 {
		return nil, &errcode.E{C: errcode.MissingField, Op: "DeclareEnum", Msg: "enum requires at least one symbol"}
	}
	if err := validateAttrs(KindEnum, attrs); err != nil {
		return nil, err
	}
	t := &Type{kind: KindEnum, symbols: append([]string(nil), symbols...), base: base, attrs: attrs}
	if err := r.declareNamed(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeclareOptional registers optional<T>.
func (r *Registry) DeclareOptional(name string, inner *Type) (*Type, error) {
	t := &Type{kind: KindOptional, elem: inner}
	if name == "" {
		t.name = "optional<" + inner.name + ">"
		return t, nil
	}
	if err := r.declareNamed(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeclareSequence registers sequence<T>, an ordered dynamic-length container.
func (r *Registry) DeclareSequence(name string, inner *Type) (*Type, error) {
	t := &Type{kind: KindSequence, elem: inner}
	if name == "" {
		t.name = "sequence<" + inner.name + ">"
		return t, nil
	}
	if err := r.declareNamed(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeclareVariant registers variant<T1,...,Tk>: a tagged union storing one
// active branch index plus the value of that branch.
func (r *Registry) DeclareVariant(name string, branches []*Type) (*Type, error) {
	if len(branches) == 0 {
		return nil, &errcode.E{C: errcode.ArityMismatch, Op: "DeclareVariant", Msg: "variant requires at least one branch"}
	}
	t := &Type{kind: KindVariant, branches: append([]*Type(nil), branches...)}
	if name == "" {
		t.name = "variant"
		return t, nil
	}
	if err := r.declareNamed(name, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeclareRecord registers a named record with a stable declared field order.
func (r *Registry) DeclareRecord(name string, fields []Field, attrs Attrs) (*Type, error) {
	if err := validateAttrs(KindRecord, attrs); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return nil, &errcode.E{C: errcode.DuplicateNodeName, Op: "DeclareRecord", Msg: "duplicate field: " + f.Name}
		}
		seen[f.Name] = true
	}
	t := &Type{kind: KindRecord, fields: append([]Field(nil), fields...), attrs: attrs}
	if err := r.declareNamed(name, t); err != nil {
		return nil, err
	}
	return t, nil
}
