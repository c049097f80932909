// Package spec models the read-only Specification layer that the mapping
// core is driven by. Nothing in this package parses a schema from disk;
// it is the contract described in spec.md §6 ("Consumed from Spec
// layer") — the same role desc.Descriptor/desc.MessageDescriptor/
// desc.FieldDescriptor play for github.com/jhump/protoreflect's dynamic
// package, without that package owning the .proto grammar itself.
package spec

// RefType distinguishes an object reference from a region reference.
type RefType int

const (
	RefObject RefType = iota
	RefRegion
)

func (t RefType) String() string {
	if t == RefRegion {
		return "region"
	}
	return "object"
}

// RefSpec describes a reference-typed field or dataset/attribute dtype.
type RefSpec struct {
	TargetType string
	RefType    RefType
}

// Dtype is the closed alphabet of things a dtype token can resolve to:
// a primitive name (from the alphabet in spec.md §4.1), a *RefSpec, or a
// CompoundDtype (ordered named fields). nil means "not declared"
// (spec.md's `none`).
type Dtype interface {
	isDtype()
}

// Primitive wraps a raw dtype string as written in the schema (e.g.
// "int32", "text", "numeric"). Alphabet validation and alias resolution
// happen in package dtype, not here — this package only carries what the
// schema declared.
type Primitive string

func (Primitive) isDtype() {}

func (*RefSpec) isDtype() {}

// CompoundField is one named column of a compound (record) dtype.
type CompoundField struct {
	Name  string
	Dtype Dtype
}

// CompoundDtype is an ordered list of named, typed fields, used by
// DatasetSpec.Dtype when a dataset's rows are records rather than scalars.
type CompoundDtype []CompoundField

func (CompoundDtype) isDtype() {}

// Quantity expresses how many instances of a sub-spec are allowed/required.
type QuantityKind int

const (
	QtyOne QuantityKind = iota
	QtyZeroOrOne
	QtyZeroOrMany
	QtyOneOrMany
	QtyFixed
)

type Quantity struct {
	Kind  QuantityKind
	Fixed int // only meaningful when Kind == QtyFixed
}

// IsMany reports whether this quantity allows more than one instance,
// which both pluralizes the derived attribute name (nameutil) and
// accumulates constructor-argument values into a list (objectmapper).
func (q Quantity) IsMany() bool {
	switch q.Kind {
	case QtyZeroOrMany, QtyOneOrMany:
		return true
	case QtyFixed:
		return q.Fixed != 1
	default:
		return false
	}
}

// Required reports whether at least one instance must be present.
func (q Quantity) Required() bool {
	switch q.Kind {
	case QtyOne, QtyOneOrMany:
		return true
	case QtyFixed:
		return q.Fixed > 0
	default:
		return false
	}
}

// AttributeSpec is a leaf scalar/array value attached to a group or
// dataset.
type AttributeSpec struct {
	Name         string
	Dtype        Dtype
	Shape        []int
	Required     bool
	DefaultValue any
	// Value, when non-nil, is a literal value fixed by the schema itself
	// (every instance of the owning type carries this exact value).
	Value any
}

// DatasetSpec describes a dataset: either a plain typed dataset, one
// whose dtype is a RefSpec (a scalar reference dataset), or one whose
// dtype is a CompoundDtype (rows are records, possibly containing
// reference-typed columns).
type DatasetSpec struct {
	Name         string // "" means wildcard: name comes from the container/default_name
	Dtype        Dtype
	Shape        []int
	Dims         []string
	Attributes   []*AttributeSpec
	DataTypeDef  string
	DataTypeInc  string
	Quantity     Quantity
	DefaultName  string
}

// GroupSpec describes a group: its own attributes plus nested datasets,
// groups and links.
type GroupSpec struct {
	Name        string
	Attributes  []*AttributeSpec
	Datasets    []*DatasetSpec
	Groups      []*GroupSpec
	Links       []*LinkSpec
	DataTypeDef string
	DataTypeInc string
	DefaultName string
	Quantity    Quantity
}

// LinkSpec declares a named link to a container of TargetType.
type LinkSpec struct {
	Name       string
	TargetType string
	Quantity   Quantity
}

// BaseStorageSpec is implemented by GroupSpec and DatasetSpec: the two
// spec node kinds that can carry a data_type_def/data_type_inc and are
// therefore walked by fieldmap.Build and matched by
// TypeMap.GetSubspec's hierarchy search.
type BaseStorageSpec interface {
	SpecName() string
	TypeDef() string
	TypeInc() string
	Qty() Quantity
	Attrs() []*AttributeSpec
	SubGroups() []*GroupSpec
	SubDatasets() []*DatasetSpec
	SubLinks() []*LinkSpec
}

func (g *GroupSpec) SpecName() string          { return g.Name }
func (g *GroupSpec) TypeDef() string           { return g.DataTypeDef }
func (g *GroupSpec) TypeInc() string           { return g.DataTypeInc }
func (g *GroupSpec) Qty() Quantity             { return g.Quantity }
func (g *GroupSpec) Attrs() []*AttributeSpec   { return g.Attributes }
func (g *GroupSpec) SubGroups() []*GroupSpec   { return g.Groups }
func (g *GroupSpec) SubDatasets() []*DatasetSpec { return g.Datasets }
func (g *GroupSpec) SubLinks() []*LinkSpec     { return g.Links }

func (d *DatasetSpec) SpecName() string            { return d.Name }
func (d *DatasetSpec) TypeDef() string              { return d.DataTypeDef }
func (d *DatasetSpec) TypeInc() string              { return d.DataTypeInc }
func (d *DatasetSpec) Qty() Quantity                { return d.Quantity }
func (d *DatasetSpec) Attrs() []*AttributeSpec      { return d.Attributes }
func (d *DatasetSpec) SubGroups() []*GroupSpec      { return nil }
func (d *DatasetSpec) SubDatasets() []*DatasetSpec  { return nil }
func (d *DatasetSpec) SubLinks() []*LinkSpec        { return nil }

// HasDataType reports whether a spec node declares its own type (def or
// inc), meaning name derivation stops descending into it and the mapper
// surfaces it as a single field rather than expanding its children.
func HasDataType(s BaseStorageSpec) bool {
	return s.TypeDef() != "" || s.TypeInc() != ""
}

// NamespaceCatalog is the read-only collaborator that resolves a
// (namespace, data_type) pair to its Specification and exposes the type
// hierarchy (leaf to root) used by TypeMap's ancestor search. A real
// implementation lives outside this module's scope (spec.md §1); tests
// and cmd/hdmfcheck use internal/specx's fixture-backed implementation.
type NamespaceCatalog interface {
	// LoadNamespaces parses the given namespace file and returns, for
	// each newly loaded namespace, the set of types it imports from each
	// dependency namespace.
	LoadNamespaces(path string, resolve func(string) (string, error), read func(string) ([]byte, error)) (map[string]map[string][]string, error)
	// GetSpec returns the Specification (GroupSpec or DatasetSpec) for a
	// data type within a namespace.
	GetSpec(namespace, dataType string) (BaseStorageSpec, error)
	// GetHierarchy returns the ancestor chain of dataType, ordered
	// leaf-to-root (index 0 is dataType itself).
	GetHierarchy(namespace, dataType string) ([]string, error)
}

// GroupSpecClass exposes the namespace-wide key used to tag a built
// group's neutral data-type attribute (spec.md §6, e.g. "neurodata_type").
type GroupSpecClass interface {
	TypeKey() string
}
