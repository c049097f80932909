// Package fieldmap implements the Spec<->Field Index (spec.md's C3): the
// four bijections an ObjectMapper consults to translate between a spec
// node (an *spec.AttributeSpec, or a sub-group/sub-dataset/link's
// spec.BaseStorageSpec/*spec.LinkSpec) and the two Go-side names derived
// from it — the object-attribute name used when reading a built
// Container back out, and the constructor-arg name used when
// constructing one.
//
// The two name tables are kept independent, mirroring
// dynamic.MessageFactory's separate known-extension and unknown-field
// registries in the teacher: by default they agree (both derived from
// the same nameutil.DeriveName call), but map_attr/map_const_arg let a
// caller diverge them per instance, and GetCargSpec must read the
// carg->spec table to see that divergence rather than silently falling
// back to attr->spec.
package fieldmap

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/hdmferrors"
	"github.com/hdmf-go/hdmf/internal/spec"
	"github.com/hdmf-go/hdmf/nameutil"
)

// SpecNode is any schema node the index can carry a mapping for:
// *spec.AttributeSpec, spec.BaseStorageSpec (*spec.GroupSpec or
// *spec.DatasetSpec), or *spec.LinkSpec. All three are pointer types, so
// SpecNode values compare by identity, which is exactly what the index
// needs: two sub-specs with identical shape are still distinct fields.
type SpecNode any

// Index holds the four bijections for one type's ObjectMapper.
type Index struct {
	mu         sync.RWMutex
	specToAttr map[SpecNode]string
	attrToSpec map[string]SpecNode
	specToCarg map[SpecNode]string
	cargToSpec map[string]SpecNode
}

// NewIndex returns an empty Index. Build is the usual entry point;
// NewIndex is exported for tests that want to assemble entries by hand.
func NewIndex() *Index {
	return &Index{
		specToAttr: map[SpecNode]string{},
		attrToSpec: map[string]SpecNode{},
		specToCarg: map[SpecNode]string{},
		cargToSpec: map[string]SpecNode{},
	}
}

type fieldEntry struct {
	node SpecNode
	name string
}

// Build walks root and, recursively, every untyped sub-group/sub-dataset
// reachable from it without crossing a typed boundary (spec.md §4.2:
// "the entire tree walks attributes, then groups, then datasets, then
// links of each BaseStorageSpec, but stops descending into any subspec
// that itself carries data_type_def/data_type_inc"). At each level,
// sibling disambiguation runs across all four kinds together (they all
// land in the same constructor-arg/attribute namespace on the built
// container), prefixed by that level's ancestor name-stack.
func Build(root spec.BaseStorageSpec, parentStack []string) (*Index, error) {
	ix := NewIndex()
	if err := collect(ix, root, parentStack); err != nil {
		return nil, err
	}
	return ix, nil
}

func collect(ix *Index, root spec.BaseStorageSpec, parentStack []string) error {
	var entries []fieldEntry

	for _, a := range root.Attrs() {
		name, err := nameutil.DeriveName(a.Name, "", "", false)
		if err != nil {
			return errors.Wrapf(err, "attribute of %s", root.SpecName())
		}
		entries = append(entries, fieldEntry{a, name})
	}
	for _, g := range root.SubGroups() {
		name, err := nameutil.DeriveName(g.Name, g.DataTypeDef, g.DataTypeInc, g.Quantity.IsMany())
		if err != nil {
			return errors.Wrapf(err, "sub-group of %s", root.SpecName())
		}
		entries = append(entries, fieldEntry{g, name})
	}
	for _, d := range root.SubDatasets() {
		name, err := nameutil.DeriveName(d.Name, d.DataTypeDef, d.DataTypeInc, d.Quantity.IsMany())
		if err != nil {
			return errors.Wrapf(err, "sub-dataset of %s", root.SpecName())
		}
		entries = append(entries, fieldEntry{d, name})
	}
	for _, l := range root.SubLinks() {
		name, err := nameutil.DeriveName(l.Name, "", "", l.Quantity.IsMany())
		if err != nil {
			return errors.Wrapf(err, "link of %s", root.SpecName())
		}
		entries = append(entries, fieldEntry{l, name})
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	names = nameutil.Disambiguate(names, parentStack)

	for i, e := range entries {
		ix.add(e.node, names[i], names[i])
	}

	for _, g := range root.SubGroups() {
		if spec.HasDataType(g) {
			continue
		}
		idx := indexOf(entries, g)
		if err := collect(ix, g, append(append([]string{}, parentStack...), names[idx])); err != nil {
			return err
		}
	}
	for _, d := range root.SubDatasets() {
		if spec.HasDataType(d) {
			continue
		}
		idx := indexOf(entries, d)
		if err := collect(ix, d, append(append([]string{}, parentStack...), names[idx])); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(entries []fieldEntry, node SpecNode) int {
	for i, e := range entries {
		if e.node == node {
			return i
		}
	}
	return -1
}

func (ix *Index) add(node SpecNode, attrName, cargName string) {
	ix.specToAttr[node] = attrName
	ix.attrToSpec[attrName] = node
	ix.specToCarg[node] = cargName
	ix.cargToSpec[cargName] = node
}

// GetSpecAttr returns the object-attribute name mapped to node.
func (ix *Index) GetSpecAttr(node SpecNode) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	name, ok := ix.specToAttr[node]
	return name, ok
}

// GetAttrSpec returns the spec node mapped to an object-attribute name.
func (ix *Index) GetAttrSpec(attrName string) (SpecNode, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	node, ok := ix.attrToSpec[attrName]
	return node, ok
}

// GetSpecCarg returns the constructor-arg name mapped to node.
func (ix *Index) GetSpecCarg(node SpecNode) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	name, ok := ix.specToCarg[node]
	return name, ok
}

// GetCargSpec returns the spec node mapped to a constructor-arg name.
// This reads the carg->spec table, not attr->spec: once an instance
// override has diverged the two (via MapAttr or MapConstArg alone),
// looking a carg name up against attr->spec would silently return the
// wrong spec node, or none at all.
func (ix *Index) GetCargSpec(cargName string) (SpecNode, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	node, ok := ix.cargToSpec[cargName]
	return node, ok
}

// MapAttr overrides node's object-attribute name, leaving its
// constructor-arg mapping untouched.
func (ix *Index) MapAttr(node SpecNode, attrName string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.specToAttr[node]; !ok {
		return errors.Wrap(hdmferrors.ErrNameUndetermined, "map_attr: unknown spec node")
	}
	if old, ok := ix.specToAttr[node]; ok {
		delete(ix.attrToSpec, old)
	}
	ix.specToAttr[node] = attrName
	ix.attrToSpec[attrName] = node
	return nil
}

// MapConstArg overrides node's constructor-arg name, leaving its
// object-attribute mapping untouched.
func (ix *Index) MapConstArg(node SpecNode, cargName string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.specToCarg[node]; !ok {
		return errors.Wrap(hdmferrors.ErrNameUndetermined, "map_const_arg: unknown spec node")
	}
	if old, ok := ix.specToCarg[node]; ok {
		delete(ix.cargToSpec, old)
	}
	ix.specToCarg[node] = cargName
	ix.cargToSpec[cargName] = node
	return nil
}

// MapSpec is map_attr with its arguments in the (name, spec) order the
// original API exposes it in; it is otherwise identical to MapAttr.
func (ix *Index) MapSpec(attrName string, node SpecNode) error {
	return ix.MapAttr(node, attrName)
}

// Unmap removes node from all four tables: it will no longer be read
// from or written to when the owning ObjectMapper builds or constructs.
func (ix *Index) Unmap(node SpecNode) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if name, ok := ix.specToAttr[node]; ok {
		delete(ix.attrToSpec, name)
		delete(ix.specToAttr, node)
	}
	if name, ok := ix.specToCarg[node]; ok {
		delete(ix.cargToSpec, name)
		delete(ix.specToCarg, node)
	}
}
