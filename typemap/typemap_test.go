package typemap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdmf-go/hdmf/builder"
	"github.com/hdmf-go/hdmf/container"
	"github.com/hdmf-go/hdmf/internal/specx"
	"github.com/hdmf-go/hdmf/objectmapper"
	"github.com/hdmf-go/hdmf/typemap"
)

const fixture = `
namespace: core
type_key: neurodata_type

groups:
  NWBContainer:
    data_type_def: NWBContainer
    attributes:
      - name: description
        dtype: text

  TimeSeries:
    data_type_def: TimeSeries
    inherits: NWBContainer
    attributes:
      - name: unit
        dtype: text
    datasets:
      - name: data
        dtype: numeric
`

func newTestCatalog(t *testing.T) *specx.Catalog {
	t.Helper()
	c := specx.New("")
	_, err := c.LoadNamespaces("core.yaml",
		func(p string) (string, error) { return p, nil },
		func(string) ([]byte, error) { return []byte(fixture), nil },
	)
	require.NoError(t, err)
	return c
}

func TestGetMapIsMemoized(t *testing.T) {
	c := newTestCatalog(t)
	tm := typemap.New(c, c.TypeKey())

	m1, err := tm.GetMap("core", "TimeSeries")
	require.NoError(t, err)
	m2, err := tm.GetMap("core", "TimeSeries")
	require.NoError(t, err)
	require.Same(t, m1, m2)
}

func TestRegisterMapperAppliesMostSpecificByHierarchy(t *testing.T) {
	c := newTestCatalog(t)
	tm := typemap.New(c, c.TypeKey())

	var tagged string
	tm.RegisterMapper("core", "NWBContainer", 0, func(m *objectmapper.ObjectMapper) { tagged = "base" })
	tm.RegisterMapper("core", "TimeSeries", 0, func(m *objectmapper.ObjectMapper) { tagged = "specific" })

	_, err := tm.GetMap("core", "TimeSeries")
	require.NoError(t, err)
	require.Equal(t, "specific", tagged)
}

func TestRegisterMapperLastWinsAtEqualPriority(t *testing.T) {
	c := newTestCatalog(t)
	tm := typemap.New(c, c.TypeKey())

	var got string
	tm.RegisterMapper("core", "TimeSeries", 1, func(m *objectmapper.ObjectMapper) { got = "first" })
	tm.RegisterMapper("core", "TimeSeries", 1, func(m *objectmapper.ObjectMapper) { got = "second" })

	_, err := tm.GetMap("core", "TimeSeries")
	require.NoError(t, err)
	require.Equal(t, "second", got)
}

func TestRegisterMapperHigherPriorityWinsRegardlessOfOrder(t *testing.T) {
	c := newTestCatalog(t)
	tm := typemap.New(c, c.TypeKey())

	var got string
	tm.RegisterMapper("core", "TimeSeries", 5, func(m *objectmapper.ObjectMapper) { got = "high" })
	tm.RegisterMapper("core", "TimeSeries", 1, func(m *objectmapper.ObjectMapper) { got = "low" })

	_, err := tm.GetMap("core", "TimeSeries")
	require.NoError(t, err)
	require.Equal(t, "high", got)
}

func TestNewInstanceSynthesizesGenericContainer(t *testing.T) {
	c := newTestCatalog(t)
	tm := typemap.New(c, c.TypeKey())

	inst, err := tm.NewInstance("core", "TimeSeries", "ts1", map[string]any{"unit": "volts"})
	require.NoError(t, err)
	ns, dt := inst.TypeTag()
	require.Equal(t, "core", ns)
	require.Equal(t, "TimeSeries", dt)

	v, ok := inst.Attr("unit")
	require.True(t, ok)
	require.Equal(t, "volts", v)
}

func TestNewInstancePrefersRegisteredFactory(t *testing.T) {
	c := newTestCatalog(t)
	tm := typemap.New(c, c.TypeKey())

	called := false
	tm.RegisterContainerType("core", "TimeSeries", func(name string, cargs map[string]any) (objectmapper.Containerish, error) {
		called = true
		c := container.New(name)
		for k, v := range cargs {
			c.SetAttr(k, v)
		}
		c.SetType("core", "TimeSeries")
		return c, nil
	})

	_, err := tm.NewInstance("core", "TimeSeries", "ts1", map[string]any{})
	require.NoError(t, err)
	require.True(t, called)
}

func TestGetBuilderDtAndNsFollowLinkTarget(t *testing.T) {
	c := newTestCatalog(t)
	tm := typemap.New(c, c.TypeKey())

	gb := builder.NewGroupBuilder("ts1", nil, "session.h5")
	gb.SetAttribute("namespace", "core")
	gb.SetAttribute("neurodata_type", "TimeSeries")

	link := builder.NewLinkBuilder(gb, "linked", nil)

	dt, err := tm.GetBuilderDt(link)
	require.NoError(t, err)
	require.Equal(t, "TimeSeries", dt)

	ns, err := tm.GetBuilderNs(link)
	require.NoError(t, err)
	require.Equal(t, "core", ns)
}

func TestGetSubspecReturnsNilWithoutHierarchyMatch(t *testing.T) {
	c := newTestCatalog(t)
	tm := typemap.New(c, c.TypeKey())

	sp, err := c.GetSpec("core", "TimeSeries")
	require.NoError(t, err)

	gb := builder.NewGroupBuilder("ts1", nil, "session.h5")
	gb.SetAttribute("namespace", "core")
	gb.SetAttribute("neurodata_type", "TimeSeries")

	found, err := tm.GetSubspec(sp, gb)
	require.NoError(t, err)
	require.Nil(t, found) // TimeSeries declares no sub-group of its own kind
}
