// Package builder implements the neutral builder tree described in
// spec.md §3/§6: GroupBuilder, DatasetBuilder, LinkBuilder,
// ReferenceBuilder and RegionBuilder. Builders own their children;
// LinkBuilder only references its target. Identity for BuildManager's
// cache is the Go pointer itself (spec.md §9's "stable object identity"),
// so no separate id field is carried.
package builder

// Builder is the common interface over the three tree-node kinds
// (GroupBuilder, DatasetBuilder, LinkBuilder). Reference and Region
// are values that point *at* a Builder; they are not tree
// nodes themselves and do not implement this interface.
type Builder interface {
	BuilderName() string
	BuilderParent() Builder
	BuilderSource() string
	IsEmpty() bool

	setParent(Builder)
}

// Reference is an object reference: a pointer from one dataset/attribute
// to another container's builder.
type Reference struct {
	Target Builder
}

func NewReference(target Builder) *Reference {
	return &Reference{Target: target}
}

// Region is a region reference: a reference plus a region selector
// (opaque to the mapping core; the serialization layer interprets it).
type Region struct {
	Selector any
	Target   Builder
}

func NewRegion(selector any, target Builder) *Region {
	return &Region{Selector: selector, Target: target}
}
