package specx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hdmf-go/hdmf/internal/spec"
)

const coreFixture = `
namespace: core
type_key: neurodata_type

groups:
  NWBContainer:
    data_type_def: NWBContainer
    attributes:
      - name: name
        dtype: text

  TimeSeries:
    data_type_def: TimeSeries
    inherits: NWBContainer
    attributes:
      - name: description
        dtype: text
        required: true
    datasets:
      - name: data
        dtype: numeric

datasets:
  VectorData:
    data_type_def: VectorData
    dtype: numeric
`

func loadFixture(t *testing.T, yamlSrc string) *Catalog {
	t.Helper()
	c := New("")
	_, err := c.LoadNamespaces("core.yaml",
		func(p string) (string, error) { return p, nil },
		func(string) ([]byte, error) { return []byte(yamlSrc), nil },
	)
	require.NoError(t, err)
	return c
}

func TestGetSpecResolvesGroupAndDataset(t *testing.T) {
	c := loadFixture(t, coreFixture)

	gs, err := c.GetSpec("core", "TimeSeries")
	require.NoError(t, err)
	require.Equal(t, "TimeSeries", gs.TypeDef())

	ds, err := c.GetSpec("core", "VectorData")
	require.NoError(t, err)
	require.Equal(t, "VectorData", ds.TypeDef())
}

func TestGetHierarchyWalksInherits(t *testing.T) {
	c := loadFixture(t, coreFixture)

	h, err := c.GetHierarchy("core", "TimeSeries")
	require.NoError(t, err)
	want := []string{"TimeSeries", "NWBContainer"}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("hierarchy mismatch (-want +got):\n%s", diff)
	}
}

func TestGetHierarchyUnknownType(t *testing.T) {
	c := loadFixture(t, coreFixture)

	_, err := c.GetHierarchy("core", "DoesNotExist")
	require.Error(t, err)
}

func TestTypeKeyDefaultsThenOverridesFromFixture(t *testing.T) {
	c := New("data_type")
	require.Equal(t, "data_type", c.TypeKey())

	_, err := c.LoadNamespaces("core.yaml",
		func(p string) (string, error) { return p, nil },
		func(string) ([]byte, error) { return []byte(coreFixture), nil },
	)
	require.NoError(t, err)
	require.Equal(t, "neurodata_type", c.TypeKey())
}

var _ spec.NamespaceCatalog = (*Catalog)(nil)
var _ spec.GroupSpecClass = (*Catalog)(nil)
