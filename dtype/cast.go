package dtype

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/hdmferrors"
)

var goTypes = map[Canonical]reflect.Type{
	Int8:    reflect.TypeOf(int8(0)),
	Int16:   reflect.TypeOf(int16(0)),
	Int32:   reflect.TypeOf(int32(0)),
	Int64:   reflect.TypeOf(int64(0)),
	Uint8:   reflect.TypeOf(uint8(0)),
	Uint16:  reflect.TypeOf(uint16(0)),
	Uint32:  reflect.TypeOf(uint32(0)),
	Uint64:  reflect.TypeOf(uint64(0)),
	Float32: reflect.TypeOf(float32(0)),
	Float64: reflect.TypeOf(float64(0)),
	Bool:    reflect.TypeOf(false),
}

// kindOf maps a concrete Go numeric/bool kind to its default Canonical,
// used to discover the "given" dtype of a scalar container value.
func kindOf(rv reflect.Value) (Canonical, error) {
	switch rv.Kind() {
	case reflect.Int8:
		return Int8, nil
	case reflect.Int16:
		return Int16, nil
	case reflect.Int32, reflect.Int:
		return Int32, nil
	case reflect.Int64:
		return Int64, nil
	case reflect.Uint8:
		return Uint8, nil
	case reflect.Uint16:
		return Uint16, nil
	case reflect.Uint32, reflect.Uint:
		return Uint32, nil
	case reflect.Uint64:
		return Uint64, nil
	case reflect.Float32:
		return Float32, nil
	case reflect.Float64:
		return Float64, nil
	case reflect.Bool:
		return Bool, nil
	default:
		return "", errors.Wrapf(hdmferrors.ErrDtypeMismatch, "value of Go kind %s has no numeric dtype", rv.Kind())
	}
}

// castTo converts rv to the Go type associated with the resolved
// Canonical dtype. Callers must only pass a Canonical present in
// goTypes (i.e. not Text/Ascii/Numeric/None).
func castTo(c Canonical, rv reflect.Value) (any, error) {
	gt, ok := goTypes[c]
	if !ok {
		return nil, errors.Wrapf(hdmferrors.ErrDtypeMismatch, "dtype %s has no concrete Go representation", c)
	}
	if !rv.CanConvert(gt) {
		return nil, errors.Wrapf(hdmferrors.ErrDtypeMismatch, "cannot cast %s to %s", rv.Kind(), c)
	}
	return rv.Convert(gt).Interface(), nil
}
