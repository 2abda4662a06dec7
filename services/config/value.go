package config

import (
	"github.com/jeanleflambeur/silkopter/errcode"
	"github.com/jeanleflambeur/silkopter/regtype"
	"github.com/jeanleflambeur/silkopter/sz"
)

// BuildValue decodes raw (tinyjson-decoded JSON: map[string]any, []any,
// string, float64, bool, nil) into a regtype.Value of type t, walking t's
// shape the same way regtype.Value.Deserialize walks an sz.Value tree —
// jsonToSZ produces that intermediate sz.Value tree so construction
// reuses Deserialize's existing field-order and arity checks rather than
// duplicating them.
func BuildValue(t *regtype.Type, raw any) (regtype.Value, error) {
	n, err := jsonToSZ(t, raw)
	if err != nil {
		return regtype.Value{}, err
	}
	v := t.Default()
	if err := v.Deserialize(n); err != nil {
		return regtype.Value{}, err
	}
	return v, nil
}

func jsonToSZ(t *regtype.Type, raw any) (sz.Value, error) {
	if raw == nil {
		if t.Kind() == regtype.KindOptional {
			return sz.Nil(), nil
		}
		return sz.Value{}, &errcode.E{C: errcode.MissingField, Op: "config.jsonToSZ", Msg: "null value for non-optional type " + t.Name()}
	}

	switch t.Kind() {
	case regtype.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return sz.Value{}, typeErr(t, raw)
		}
		return sz.OfBool(b), nil

	case regtype.KindString, regtype.KindEnum:
		s, ok := raw.(string)
		if !ok {
			return sz.Value{}, typeErr(t, raw)
		}
		return sz.OfString(s), nil

	case regtype.KindI8, regtype.KindI16, regtype.KindI32, regtype.KindI64:
		f, ok := raw.(float64)
		if !ok {
			return sz.Value{}, typeErr(t, raw)
		}
		return sz.OfInt(int64(f)), nil

	case regtype.KindU8, regtype.KindU16, regtype.KindU32, regtype.KindU64:
		f, ok := raw.(float64)
		if !ok {
			return sz.Value{}, typeErr(t, raw)
		}
		return sz.OfUint(uint64(f)), nil

	case regtype.KindF32, regtype.KindF64:
		f, ok := raw.(float64)
		if !ok {
			return sz.Value{}, typeErr(t, raw)
		}
		return sz.OfFloat(f), nil

	case regtype.KindVector:
		list, ok := raw.([]any)
		if !ok || len(list) != t.VecN() {
			return sz.Value{}, &errcode.E{C: errcode.ArityMismatch, Op: "config.jsonToSZ", Msg: "vector arity mismatch for " + t.Name()}
		}
		out := make([]sz.Value, len(list))
		for i, e := range list {
			f, ok := e.(float64)
			if !ok {
				return sz.Value{}, typeErr(t, raw)
			}
			out[i] = sz.OfFloat(f)
		}
		return sz.OfList(out), nil

	case regtype.KindOptional:
		inner, err := jsonToSZ(t.Elem(), raw)
		if err != nil {
			return sz.Value{}, err
		}
		return inner, nil

	case regtype.KindSequence:
		list, ok := raw.([]any)
		if !ok {
			return sz.Value{}, typeErr(t, raw)
		}
		out := make([]sz.Value, len(list))
		for i, e := range list {
			n, err := jsonToSZ(t.Elem(), e)
			if err != nil {
				return sz.Value{}, err
			}
			out[i] = n
		}
		return sz.OfList(out), nil

	case regtype.KindVariant:
		m, ok := raw.(map[string]any)
		if !ok {
			return sz.Value{}, typeErr(t, raw)
		}
		branchF, ok := m["branch"].(float64)
		if !ok {
			return sz.Value{}, &errcode.E{C: errcode.ParseError, Op: "config.jsonToSZ", Msg: "variant missing numeric branch"}
		}
		idx := int(branchF)
		branches := t.Branches()
		if idx < 0 || idx >= len(branches) {
			return sz.Value{}, &errcode.E{C: errcode.VariantOutOfRange, Op: "config.jsonToSZ", Msg: "branch out of range"}
		}
		inner, err := jsonToSZ(branches[idx], m["value"])
		if err != nil {
			return sz.Value{}, err
		}
		return sz.OfFields([]sz.Field{
			{Name: "branch", Value: sz.OfInt(int64(idx))},
			{Name: "value", Value: inner},
		}), nil

	case regtype.KindRecord:
		m, ok := raw.(map[string]any)
		if !ok {
			return sz.Value{}, typeErr(t, raw)
		}
		fields := t.Fields()
		out := make([]sz.Field, len(fields))
		for i, f := range fields {
			rv, ok := m[f.Name]
			if !ok {
				return sz.Value{}, &errcode.E{C: errcode.MissingField, Op: "config.jsonToSZ", Msg: "missing field: " + f.Name}
			}
			fv, err := jsonToSZ(f.Type, rv)
			if err != nil {
				return sz.Value{}, err
			}
			out[i] = sz.Field{Name: f.Name, Value: fv}
		}
		return sz.OfFields(out), nil

	default:
		return sz.Value{}, &errcode.E{C: errcode.TypeRegistryCorruption, Op: "config.jsonToSZ", Msg: "unhandled kind " + t.Kind().String()}
	}
}

func typeErr(t *regtype.Type, raw any) error {
	return &errcode.E{C: errcode.KindMismatch, Op: "config.jsonToSZ", Msg: "JSON value does not match type " + t.Name()}
}
