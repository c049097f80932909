// Package container provides the minimal concrete Container/Data types
// the mapping core builds and constructs against. spec.md §1 treats the
// real container base classes as an external collaborator; this package
// is the concrete stand-in a Go module needs to exercise objectmapper,
// typemap and buildmanager against, the same role dynamic.Message plays
// in the teacher as a stand-in for "some protobuf message" rather than a
// generated one.
//
// Container intentionally keeps its declared fields in a generic
// name-keyed bag (mirroring dynamic.Message's tag-keyed value map)
// instead of being a fixed Go struct: TypeMap's class synthesis (C5)
// needs a container shape that can grow an arbitrary, schema-declared
// set of fields at registration time, which a statically-defined struct
// cannot do. Hand-written domain types embed *Container and add typed
// accessor methods over the same bag for ergonomic call sites.
package container

import (
	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/hdmferrors"
)

// ParentRef is the sum type from spec.md design note "Cyclic graph with
// deferred parents": a Container's parent is either another Container or
// a not-yet-resolved Proxy. Proxy implements this interface;
// Container implements it too so the two are interchangeable as a
// parent value.
type ParentRef interface {
	isParentRef()
}

// Container is the in-memory domain object the mapping core builds from
// and constructs into.
type Container struct {
	name      string
	namespace string
	dataType  string
	parent    ParentRef
	source    string
	modified  bool
	children  []*Container
	attrs     map[string]any
}

// New creates a fresh, unmodified, unparented, unsourced Container.
func New(name string) *Container {
	return &Container{name: name, attrs: map[string]any{}}
}

func (c *Container) isParentRef() {}

// TypeTag returns the (namespace, data_type) this container was built
// or constructed under — the Go-native stand-in for a registered
// container class's reverse (namespace, data_type) lookup (spec.md §3's
// "class -> (namespace, data_type)" table), since nothing here carries
// an actual Go class per schema type.
func (c *Container) TypeTag() (string, string) { return c.namespace, c.dataType }

// SetType stamps the (namespace, data_type) a container was synthesized
// or registered under. Called once, by typemap's synthesis path or by a
// hand-written factory, never by user code directly.
func (c *Container) SetType(namespace, dataType string) {
	c.namespace = namespace
	c.dataType = dataType
}

func (c *Container) Name() string { return c.name }

func (c *Container) Parent() ParentRef { return c.parent }

// SetParent is called by BuildManager bookkeeping only; callers outside
// this module's own packages should never need it directly.
func (c *Container) SetParent(p ParentRef) { c.parent = p }

func (c *Container) Children() []*Container { return c.children }

// AddChild appends ch to this container's children and parents it here.
// It does not mark either container modified: child attachment on its
// own is not a semantic mutation the mapper needs to re-observe.
func (c *Container) AddChild(ch *Container) {
	c.children = append(c.children, ch)
	ch.parent = c
}

func (c *Container) ContainerSource() string { return c.source }

// SetContainerSource implements the write-once invariant from spec.md §3
// invariant 2: once non-empty, a different source is rejected.
func (c *Container) SetContainerSource(source string) error {
	if c.source != "" && c.source != source {
		return errors.Wrapf(hdmferrors.ErrSourceImmutable, "container %q already has source %q, cannot set %q", c.name, c.source, source)
	}
	c.source = source
	return nil
}

func (c *Container) Modified() bool { return c.modified }

func (c *Container) SetModified(m bool) { c.modified = m }

// Attr looks up a declared field by name.
func (c *Container) Attr(name string) (any, bool) {
	v, ok := c.attrs[name]
	return v, ok
}

// SetAttr sets a declared field and marks the container modified, as a
// real setter generated from a Specification would.
func (c *Container) SetAttr(name string, value any) {
	c.attrs[name] = value
	c.modified = true
}

// AttrNames returns the names of every field currently set. Iteration
// order is unspecified, matching the map it is backed by.
func (c *Container) AttrNames() []string {
	names := make([]string, 0, len(c.attrs))
	for n := range c.attrs {
		names = append(names, n)
	}
	return names
}

// Data is a Container that additionally carries a data payload: a
// scalar, list, tuple, ndarray, or a dtype.Wrapped lazy chunk iterator.
type Data struct {
	*Container
	Value any
}

func NewData(name string, value any) *Data {
	return &Data{Container: New(name), Value: value}
}

// DataValue and SetDataValue give objectmapper a method-based accessor
// to the payload, so a hand-written type embedding *Data (rather than
// using it directly) still satisfies the same structural interface.
func (d *Data) DataValue() any      { return d.Value }
func (d *Data) SetDataValue(v any)  { d.Value = v }

// DataRegion is a Data further restricted to a region of its payload
// (spec.md §6: "for DataRegion, container.region, container.data").
type DataRegion struct {
	*Data
	Region any
}

func NewDataRegion(name string, value, region any) *DataRegion {
	return &DataRegion{Data: NewData(name, value), Region: region}
}

func (r *DataRegion) RegionValue() any { return r.Region }
