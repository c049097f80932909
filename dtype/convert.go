package dtype

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/hdmferrors"
	"github.com/hdmf-go/hdmf/internal/spec"
)

// Wrapped is implemented by lazy chunk-iterator/I/O-backed data values
// (spec.md §3: a Data's payload may be "a lazy chunk iterator"). Convert
// never materializes the full dataset to determine its reported dtype;
// it runs the coercion logic against SampleElement() instead and returns
// the wrapper itself unchanged, per spec.md §4.1's "If the value wraps a
// chunked/I/O object, coerce the inner data's reported dtype but return
// the wrapper unchanged."
type Wrapped interface {
	SampleElement() any
}

// Convert implements the C1 operation from spec.md §4.1:
//
//	convert(spec, value) -> (value', reported_dtype)
func Convert(d spec.Dtype, value any) (any, Reported, error) {
	if value == nil {
		return nil, reportedForAbsent(d), nil
	}
	if w, ok := value.(Wrapped); ok {
		_, reported, err := Convert(d, w.SampleElement())
		if err != nil {
			return nil, "", err
		}
		return value, reported, nil
	}

	switch dt := d.(type) {
	case nil:
		return value, "", nil
	case spec.Primitive:
		return convertPrimitive(string(dt), value)
	case *spec.RefSpec:
		// Already-resolved reference value (a *builder.Reference or
		// *builder.Region); the object mapper builds it, this layer
		// only reports its kind.
		return value, Reported(dt.RefType.String()), nil
	case spec.CompoundDtype:
		return nil, "", errors.New("compound dtype rows are handled by the object mapper, not dtype.Convert")
	default:
		return nil, "", errors.Errorf("unsupported dtype node %T", d)
	}
}

func reportedForAbsent(d spec.Dtype) Reported {
	switch dt := d.(type) {
	case *spec.RefSpec:
		return Reported(dt.RefType.String())
	case spec.Primitive:
		return Reported(dt)
	default:
		return ""
	}
}

func convertPrimitive(raw string, value any) (any, Reported, error) {
	c, err := Parse(raw)
	if err != nil {
		return nil, "", err
	}
	if c == None || c == Numeric {
		return value, "", nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if (c == Text || c == Ascii) && rv.Type().Elem().Kind() == reflect.Uint8 {
			// A []byte is a byte string (ascii/text scalar), not a uint8
			// ndarray, whenever the target dtype is string-shaped.
			v, err := convertScalar(c, rv)
			if err != nil {
				return nil, "", err
			}
			return v, c.Reported(), nil
		}
		if isGenericSequence(rv) {
			return convertSequence(c, rv)
		}
		return convertArray(c, rv)
	default:
		v, err := convertScalar(c, rv)
		if err != nil {
			return nil, "", err
		}
		return v, c.Reported(), nil
	}
}

// isGenericSequence reports whether rv is an "ordered sequence" (a Go
// []any representing a Python list/tuple of possibly heterogeneous or
// container-valued elements) as opposed to an "n-dim array" (a
// concretely-typed numeric/bool/string slice, Go's natural analogue of a
// homogeneous ndarray).
func isGenericSequence(rv reflect.Value) bool {
	return rv.Type().Elem().Kind() == reflect.Interface
}

func convertScalar(c Canonical, rv reflect.Value) (any, error) {
	if c == Text || c == Ascii {
		return stringCoerce(c, rv)
	}
	given, err := kindOf(rv)
	if err != nil {
		return nil, err
	}
	resolved, err := Resolve(given, c)
	if err != nil {
		return nil, err
	}
	return castTo(resolved, rv)
}

func stringCoerce(c Canonical, rv reflect.Value) (any, error) {
	var s string
	switch rv.Kind() {
	case reflect.String:
		s = rv.String()
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			s = string(rv.Bytes())
		} else {
			return nil, errors.Wrapf(hdmferrors.ErrDtypeMismatch, "cannot coerce %s to %s", rv.Type(), c)
		}
	default:
		return nil, errors.Wrapf(hdmferrors.ErrDtypeMismatch, "cannot coerce %s to %s", rv.Kind(), c)
	}
	if c == Ascii {
		return []byte(s), nil
	}
	return s, nil
}
