package fieldmap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdmf-go/hdmf/fieldmap"
	"github.com/hdmf-go/hdmf/internal/spec"
)

func testSpec() *spec.GroupSpec {
	return &spec.GroupSpec{
		Name:        "root",
		DataTypeDef: "TestGroup",
		Attributes: []*spec.AttributeSpec{
			{Name: "session_description", Dtype: spec.Primitive("text")},
		},
	}
}

func TestBuildDerivesDefaultNames(t *testing.T) {
	root := testSpec()
	ix, err := fieldmap.Build(root, nil)
	require.NoError(t, err)

	a := root.Attributes[0]
	attrName, ok := ix.GetSpecAttr(a)
	require.True(t, ok)
	require.Equal(t, "session_description", attrName)

	cargName, ok := ix.GetSpecCarg(a)
	require.True(t, ok)
	require.Equal(t, "session_description", cargName)
}

// TestCargSpecDivergesFromAttrSpec is the regression test for the
// GetCargSpec fix: when only the constructor-arg mapping is overridden,
// looking the new name up via GetCargSpec must find it, while the old
// name must still resolve via GetAttrSpec (the object-attribute mapping
// is untouched). The two tables are allowed to disagree; GetCargSpec
// must never fall back to attr->spec to paper over that.
func TestCargSpecDivergesFromAttrSpec(t *testing.T) {
	root := testSpec()
	ix, err := fieldmap.Build(root, nil)
	require.NoError(t, err)

	a := root.Attributes[0]
	require.NoError(t, ix.MapConstArg(a, "description"))

	// object-attribute mapping is unchanged.
	attrName, ok := ix.GetSpecAttr(a)
	require.True(t, ok)
	require.Equal(t, "session_description", attrName)
	node, ok := ix.GetAttrSpec("session_description")
	require.True(t, ok)
	require.Same(t, a, node)

	// constructor-arg mapping reflects the override.
	cargName, ok := ix.GetSpecCarg(a)
	require.True(t, ok)
	require.Equal(t, "description", cargName)
	node, ok = ix.GetCargSpec("description")
	require.True(t, ok)
	require.Same(t, a, node)

	// the old carg name is gone. It is still an attr name, so a
	// GetCargSpec that fell back to attr->spec would wrongly resolve it.
	_, ok = ix.GetCargSpec("session_description")
	require.False(t, ok)
}

func TestUnmapClearsAllFourTables(t *testing.T) {
	root := testSpec()
	ix, err := fieldmap.Build(root, nil)
	require.NoError(t, err)

	a := root.Attributes[0]
	ix.Unmap(a)

	_, ok := ix.GetSpecAttr(a)
	require.False(t, ok)
	_, ok = ix.GetSpecCarg(a)
	require.False(t, ok)
	_, ok = ix.GetAttrSpec("session_description")
	require.False(t, ok)
	_, ok = ix.GetCargSpec("session_description")
	require.False(t, ok)
}
