// Package dtype implements the C1 Dtype Coercer (spec.md §4.1): resolving
// a value's concrete element type against a spec-declared dtype, widening
// precision, and coercing scalars, sequences and n-dimensional arrays.
package dtype

import (
	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/hdmferrors"
)

// Canonical is one member of the closed dtype alphabet from spec.md §4.1,
// after alias resolution (e.g. "int" -> "int32", "long" -> "int64").
type Canonical string

const (
	Int8    Canonical = "int8"
	Int16   Canonical = "int16"
	Int32   Canonical = "int32"
	Int64   Canonical = "int64"
	Uint8   Canonical = "uint8"
	Uint16  Canonical = "uint16"
	Uint32  Canonical = "uint32"
	Uint64  Canonical = "uint64"
	Float32 Canonical = "float32"
	Float64 Canonical = "float64"
	Bool    Canonical = "bool"
	Text    Canonical = "text"  // unicode string
	Ascii   Canonical = "ascii" // byte string
	Numeric Canonical = "numeric"
	None    Canonical = "none"
)

var aliases = map[string]Canonical{
	"int8":       Int8,
	"int16":      Int16,
	"int32":      Int32,
	"int":        Int32,
	"int64":      Int64,
	"long":       Int64,
	"uint8":      Uint8,
	"uint16":     Uint16,
	"uint32":     Uint32,
	"uint64":     Uint64,
	"float32":    Float32,
	"float":      Float32,
	"float64":    Float64,
	"double":     Float64,
	"bool":       Bool,
	"boolean":    Bool,
	"text":       Text,
	"utf":        Text,
	"utf8":       Text,
	"utf-8":      Text,
	"ascii":      Ascii,
	"str":        Ascii,
	"isodatetime": Ascii,
	"numeric":    Numeric,
	"none":       None,
	"":           None,
}

// Parse resolves a raw schema dtype token to its Canonical form,
// validating it against the closed alphabet.
func Parse(raw string) (Canonical, error) {
	if c, ok := aliases[raw]; ok {
		return c, nil
	}
	return "", errors.Wrapf(hdmferrors.ErrUnknownDtype, "dtype %q", raw)
}

var widths = map[Canonical]int{
	Int8: 1, Uint8: 1, Bool: 1,
	Int16: 2, Uint16: 2,
	Int32: 4, Uint32: 4, Float32: 4,
	Int64: 8, Uint64: 8, Float64: 8,
}

// family returns the first three letters of the canonical name, used by
// Resolve to decide whether two dtypes are "the same family" per
// spec.md §4.1.
func family(c Canonical) string {
	s := string(c)
	if len(s) < 3 {
		return s
	}
	return s[:3]
}

func isIntegral(c Canonical) bool {
	f := family(c)
	return f == "int" || f == "uin"
}

func isFloat(c Canonical) bool {
	return family(c) == "flo"
}

// Reported is the dtype actually stamped on the produced value: either a
// Canonical primitive, or the literal string "object"/"region" when the
// value came from a reference, or "" when the spec declared no dtype
// (none/numeric passthrough).
type Reported string

func (c Canonical) Reported() Reported { return Reported(c) }
