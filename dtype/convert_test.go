package dtype_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdmf-go/hdmf/dtype"
	"github.com/hdmf-go/hdmf/internal/spec"
)

func TestParseResolvesAliases(t *testing.T) {
	c, err := dtype.Parse("int")
	require.NoError(t, err)
	require.Equal(t, dtype.Int32, c)

	c, err = dtype.Parse("double")
	require.NoError(t, err)
	require.Equal(t, dtype.Float64, c)

	_, err = dtype.Parse("not-a-dtype")
	require.Error(t, err)
}

func TestResolveWidensWithinFamily(t *testing.T) {
	got, err := dtype.Resolve(dtype.Int8, dtype.Int32)
	require.NoError(t, err)
	require.Equal(t, dtype.Int32, got)
}

func TestResolveWidensAcrossSignedness(t *testing.T) {
	got, err := dtype.Resolve(dtype.Int16, dtype.Uint32)
	require.NoError(t, err)
	require.Equal(t, dtype.Uint32, got)
}

func TestResolveWidensIntegralIntoFloat(t *testing.T) {
	got, err := dtype.Resolve(dtype.Int32, dtype.Float64)
	require.NoError(t, err)
	require.Equal(t, dtype.Float64, got)
}

func TestResolveRejectsFloatIntoIntegral(t *testing.T) {
	_, err := dtype.Resolve(dtype.Float32, dtype.Int32)
	require.Error(t, err)
}

func TestResolveFallsBackToGivenWithinFamilyWhenLarger(t *testing.T) {
	got, err := dtype.Resolve(dtype.Int64, dtype.Int8)
	require.NoError(t, err)
	require.Equal(t, dtype.Int64, got)
}

func TestConvertScalarCoercesAndReportsDtype(t *testing.T) {
	v, reported, err := dtype.Convert(spec.Primitive("int32"), int8(5))
	require.NoError(t, err)
	require.Equal(t, int32(5), v)
	require.Equal(t, dtype.Reported("int32"), reported)
}

func TestConvertStringCoercesByteSliceToText(t *testing.T) {
	v, reported, err := dtype.Convert(spec.Primitive("text"), []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "hello", v)
	require.Equal(t, dtype.Reported("text"), reported)
}

func TestConvertAbsentValueReportsDeclaredDtype(t *testing.T) {
	v, reported, err := dtype.Convert(spec.Primitive("int32"), nil)
	require.NoError(t, err)
	require.Nil(t, v)
	require.Equal(t, dtype.Reported("int32"), reported)
}

func TestConvertAbsentReferenceReportsRefKind(t *testing.T) {
	_, reported, err := dtype.Convert(&spec.RefSpec{TargetType: "Widget", RefType: spec.RefRegion}, nil)
	require.NoError(t, err)
	require.Equal(t, dtype.Reported("region"), reported)
}

func TestConvertNumericPassesValueThroughUnreported(t *testing.T) {
	v, reported, err := dtype.Convert(spec.Primitive("numeric"), 3.14)
	require.NoError(t, err)
	require.Equal(t, 3.14, v)
	require.Equal(t, dtype.Reported(""), reported)
}

func TestConvertRejectsUnknownDtype(t *testing.T) {
	_, _, err := dtype.Convert(spec.Primitive("bogus"), 1)
	require.Error(t, err)
}
