package buildmanager_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdmf-go/hdmf/builder"
	"github.com/hdmf-go/hdmf/buildmanager"
	"github.com/hdmf-go/hdmf/container"
	"github.com/hdmf-go/hdmf/internal/specx"
	"github.com/hdmf-go/hdmf/typemap"
)

const treeFixture = `
namespace: core
type_key: neurodata_type

groups:
  Root:
    data_type_def: Root
    attributes:
      - name: label
        dtype: text
    groups:
      - name: child
        data_type_inc: Child
        quantity: "1"

  Child:
    data_type_def: Child
    attributes:
      - name: name
        dtype: text
`

func newSession(t *testing.T) (*buildmanager.BuildManager, *typemap.TypeMap) {
	t.Helper()
	c := specx.New("")
	_, err := c.LoadNamespaces("core.yaml",
		func(p string) (string, error) { return p, nil },
		func(string) ([]byte, error) { return []byte(treeFixture), nil },
	)
	require.NoError(t, err)
	tm := typemap.New(c, c.TypeKey())
	return buildmanager.New(tm), tm
}

func TestBuildEmitsNestedTypedGroup(t *testing.T) {
	bm, _ := newSession(t)

	root := container.New("root1")
	root.SetType("core", "Root")
	root.SetAttr("label", "top")

	child := container.New("child1")
	child.SetType("core", "Child")
	child.SetAttr("name", "kid")
	child.SetParent(root)
	root.SetAttr("child", child)

	built, err := bm.Build(root, nil, "session.h5")
	require.NoError(t, err)

	gb, ok := built.(*builder.GroupBuilder)
	require.True(t, ok)
	require.Equal(t, "top", gb.Attributes()["label"])

	sub, ok := gb.Groups()["child"]
	require.True(t, ok)
	require.Equal(t, "kid", sub.Attributes()["name"])
}

func TestBuildIsIdempotentUntilModified(t *testing.T) {
	bm, _ := newSession(t)

	root := container.New("root1")
	root.SetType("core", "Root")
	root.SetAttr("label", "top")

	first, err := bm.Build(root, nil, "session.h5")
	require.NoError(t, err)

	second, err := bm.Build(root, nil, "session.h5")
	require.NoError(t, err)
	require.Same(t, first, second)

	root.SetAttr("label", "changed")
	third, err := bm.Build(root, nil, "session.h5")
	require.NoError(t, err)
	require.Same(t, first, third) // rebuilt onto the same builder, not a new one
	require.Equal(t, "changed", first.(*builder.GroupBuilder).Attributes()["label"])
}

func TestPrebuiltSeedsIdentityCacheWithoutBuilding(t *testing.T) {
	bm, _ := newSession(t)

	root := container.New("root1")
	root.SetType("core", "Root")
	existing := builder.NewGroupBuilder("root1", nil, "session.h5")

	bm.Prebuilt(root, existing)

	got, err := bm.Build(root, nil, "session.h5")
	require.NoError(t, err)
	require.Same(t, existing, got)
}

func TestConstructResolvesDeferredParentViaProxy(t *testing.T) {
	bm, _ := newSession(t)

	rootB := builder.NewGroupBuilder("root1", nil, "session.h5")
	rootB.SetAttribute("namespace", "core")
	rootB.SetAttribute("neurodata_type", "Root")
	rootB.SetAttribute("label", "top")

	childB := builder.NewGroupBuilder("child", rootB, "session.h5")
	childB.SetAttribute("namespace", "core")
	childB.SetAttribute("neurodata_type", "Child")
	childB.SetAttribute("name", "kid")

	rootC, err := bm.Construct(rootB)
	require.NoError(t, err)

	root, ok := rootC.(*container.Container)
	require.True(t, ok)
	require.Equal(t, "top", mustAttr(t, root, "label"))

	childVal, ok := root.Attr("child")
	require.True(t, ok)
	child, ok := childVal.(*container.Container)
	require.True(t, ok)

	// Resolved by BuildManager.resolveParents once the outermost Construct
	// call unwound, not left pointing at the Proxy it started with.
	parent, ok := child.Parent().(*container.Container)
	require.True(t, ok)
	require.Same(t, root, parent)
}

func TestConstructDereferencesTopLevelLink(t *testing.T) {
	bm, _ := newSession(t)

	rootB := builder.NewGroupBuilder("root1", nil, "session.h5")
	rootB.SetAttribute("namespace", "core")
	rootB.SetAttribute("neurodata_type", "Root")
	rootB.SetAttribute("label", "top")

	link := builder.NewLinkBuilder(rootB, "root1", nil)

	c, err := bm.Construct(link)
	require.NoError(t, err)

	root, ok := c.(*container.Container)
	require.True(t, ok)
	require.Equal(t, "top", mustAttr(t, root, "label"))

	// Constructing the target directly afterward must hit the same cached
	// identity, not reconstruct it under the link's own pointer.
	again, err := bm.Construct(rootB)
	require.NoError(t, err)
	require.Same(t, c, again)
}

func mustAttr(t *testing.T, c *container.Container, name string) any {
	t.Helper()
	v, ok := c.Attr(name)
	require.True(t, ok)
	return v
}

func TestIsRoot(t *testing.T) {
	rootB := builder.NewGroupBuilder("root1", nil, "session.h5")
	childB := builder.NewGroupBuilder("child", rootB, "session.h5")

	require.True(t, buildmanager.IsRoot(rootB))
	require.False(t, buildmanager.IsRoot(childB))
}
