package container_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdmf-go/hdmf/container"
)

func TestLocationOfJoinsTypedAncestors(t *testing.T) {
	root := container.New("root")
	root.SetType("core", "Root")

	mid := container.New("mid")
	mid.SetType("core", "Mid")
	mid.SetParent(root)

	leaf := container.New("leaf")
	leaf.SetType("core", "Leaf")
	leaf.SetParent(mid)

	require.Equal(t, "root/mid", container.LocationOf(leaf))
}

func TestLocationOfSkipsUntypedAncestors(t *testing.T) {
	root := container.New("root")
	root.SetType("core", "Root")

	mid := container.New("mid") // no SetType: carries no data type
	mid.SetParent(root)

	leaf := container.New("leaf")
	leaf.SetType("core", "Leaf")
	leaf.SetParent(mid)

	require.Equal(t, "root", container.LocationOf(leaf))
}

func TestLocationOfStopsAtProxyAncestor(t *testing.T) {
	p := container.NewProxy("session.h5", "root", "core", "Root")

	leaf := container.New("leaf")
	leaf.SetType("core", "Leaf")
	leaf.SetParent(p)

	require.Equal(t, "root", container.LocationOf(leaf))
}

func newLeafCandidate(name, source, namespace, dataType string, parent container.ParentRef) *container.Container {
	c := container.New(name)
	c.SetType(namespace, dataType)
	_ = c.SetContainerSource(source)
	c.SetParent(parent)
	return c
}

func TestProxyResolvesUniqueCandidate(t *testing.T) {
	root := container.New("root")
	root.SetType("core", "Root")

	p := container.NewProxy("session.h5", "root", "core", "Leaf")

	p.AddCandidate(newLeafCandidate("wrong-type", "session.h5", "core", "Other", root))
	p.AddCandidate(newLeafCandidate("wrong-source", "other.h5", "core", "Leaf", root))
	match := newLeafCandidate("leaf", "session.h5", "core", "Leaf", root)
	p.AddCandidate(match)

	resolved, ok := p.Resolve()
	require.True(t, ok)
	require.Same(t, match, resolved)
}

func TestProxyLeavesAmbiguousMatchUnresolved(t *testing.T) {
	root := container.New("root")
	root.SetType("core", "Root")

	p := container.NewProxy("session.h5", "root", "core", "Leaf")
	p.AddCandidate(newLeafCandidate("leaf1", "session.h5", "core", "Leaf", root))
	p.AddCandidate(newLeafCandidate("leaf2", "session.h5", "core", "Leaf", root))

	_, ok := p.Resolve()
	require.False(t, ok)
}

func TestProxyLeavesNoMatchUnresolved(t *testing.T) {
	p := container.NewProxy("session.h5", "root", "core", "Leaf")
	_, ok := p.Resolve()
	require.False(t, ok)
}

func TestProxyEqual(t *testing.T) {
	a := container.NewProxy("session.h5", "root", "core", "Leaf")
	b := container.NewProxy("session.h5", "root", "core", "Leaf")
	c := container.NewProxy("session.h5", "root", "core", "Other")

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(nil))
}
