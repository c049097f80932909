package dtype

import (
	"reflect"
)

// leafType descends through nested slice/array types to the scalar
// element type, without touching any values — n-dim arrays in this
// coercer are concretely-typed Go slices, so their element dtype is
// static and needs no sampling.
func leafType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return t
}

func kindOfType(t reflect.Type) (Canonical, error) {
	return kindOf(reflect.Zero(t))
}

// mapLeaves rebuilds rv's nested slice/array shape, replacing every
// scalar leaf with fn(leaf), and infers the resulting element type from
// fn's own return value rather than assuming it matches rv's original
// element type — this is what lets it serve both numeric re-casts and
// string coercion.
func mapLeaves(rv reflect.Value, fn func(reflect.Value) (any, error)) (any, error) {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fn(rv)
	}
	n := rv.Len()
	vals := make([]reflect.Value, n)
	var elemType reflect.Type
	for i := 0; i < n; i++ {
		v, err := mapLeaves(rv.Index(i), fn)
		if err != nil {
			return nil, err
		}
		vals[i] = reflect.ValueOf(v)
		elemType = vals[i].Type()
	}
	if elemType == nil {
		return reflect.MakeSlice(rv.Type(), 0, 0).Interface(), nil
	}
	out := reflect.MakeSlice(reflect.SliceOf(elemType), n, n)
	for i, v := range vals {
		out.Index(i).Set(v)
	}
	return out.Interface(), nil
}

// convertArray implements spec.md §4.1's n-dim array case: on a text
// target, convert every leaf to a unicode string; on ascii, to a byte
// string; otherwise resolve the array's (static) element dtype against
// the spec dtype once and cast every leaf.
func convertArray(c Canonical, rv reflect.Value) (any, Reported, error) {
	if c == Text || c == Ascii {
		out, err := mapLeaves(rv, func(v reflect.Value) (any, error) { return stringCoerce(c, v) })
		if err != nil {
			return nil, "", err
		}
		return out, c.Reported(), nil
	}

	leaf := leafType(rv.Type())
	given, err := kindOfType(leaf)
	if err != nil {
		return nil, "", err
	}
	resolved, err := Resolve(given, c)
	if err != nil {
		return nil, "", err
	}
	out, err := mapLeaves(rv, func(v reflect.Value) (any, error) { return castTo(resolved, v) })
	if err != nil {
		return nil, "", err
	}
	return out, resolved.Reported(), nil
}

// convertSequence implements spec.md §4.1's ordered-sequence case:
// element-wise recursion preserving sequence kind (a Go []any here,
// since ordered sequences are heterogeneous/container-valued), reporting
// the last element's dtype.
func convertSequence(c Canonical, rv reflect.Value) (any, Reported, error) {
	n := rv.Len()
	out := make([]any, n)
	var last Reported
	for i := 0; i < n; i++ {
		elem := rv.Index(i).Interface()
		cv, rep, err := convertPrimitive(string(c), elem)
		if err != nil {
			return nil, "", err
		}
		out[i] = cv
		last = rep
	}
	return out, last, nil
}
