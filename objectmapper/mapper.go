// Package objectmapper implements C4: given a container and the spec for
// its data type, emit a builder tree (Build); given a builder tree and
// the spec, reconstruct a container (Construct). One ObjectMapper is
// bound to exactly one BaseStorageSpec; typemap.TypeMap owns the
// (namespace, data_type) -> *ObjectMapper registry and memoization.
//
// ObjectMapper depends only on internal/spec, fieldmap, builder,
// container, dtype and hdmferrors — never on typemap or buildmanager. Both of those depend on
// ObjectMapper instead, and satisfy the Manager interface declared here
// (the consumer-side interface pattern the teacher's dynamic package
// uses for MessageFactory/KnownTypeRegistry: the narrow thing a callee
// needs, not the concrete type of whichever package happens to own it).
package objectmapper

import (
	"sync"

	"github.com/hdmf-go/hdmf/builder"
	"github.com/hdmf-go/hdmf/container"
	"github.com/hdmf-go/hdmf/fieldmap"
	"github.com/hdmf-go/hdmf/internal/spec"
)

// Containerish is the contract spec.md §6 consumes from the Container
// layer. *container.Container satisfies it directly; any hand-written
// type that embeds *container.Container or *container.Data inherits it
// for free.
type Containerish interface {
	Name() string
	Parent() container.ParentRef
	SetParent(container.ParentRef)
	Children() []*container.Container
	ContainerSource() string
	SetContainerSource(string) error
	Modified() bool
	SetModified(bool)
	Attr(name string) (any, bool)
	SetAttr(name string, value any)
	// TypeTag returns the (namespace, data_type) this container was
	// built or constructed under, letting BuildManager route Build
	// purely from the container value itself.
	TypeTag() (namespace, dataType string)
}

// Manager is the narrow view of BuildManager (itself backed by TypeMap)
// that a mapper needs while recursing into nested typed fields. A
// *buildmanager.BuildManager satisfies this.
type Manager interface {
	Build(c Containerish, parent builder.Builder, source string) (builder.Builder, error)
	Construct(b builder.Builder) (Containerish, error)
	GetBuilderDt(b builder.Builder) (string, error)
	GetBuilderNs(b builder.Builder) (string, error)
	GetSubspec(parent spec.BaseStorageSpec, b builder.Builder) (spec.BaseStorageSpec, error)
	GetMap(namespace, dataType string) (*ObjectMapper, error)
	NewInstance(namespace, dataType, name string, cargs map[string]any) (Containerish, error)
}

// ConstructorArgFn supplies a custom value for constructor argument name
// from the builder being constructed, overriding the aggregated
// spec-derived value (spec.md §4.3's constructor_arg override handler).
type ConstructorArgFn func(b builder.Builder, m Manager) (any, error)

// ObjectAttrFn supplies a custom value for object attribute name from
// the container being built, overriding plain attribute lookup
// (spec.md §4.3's object_attr override handler).
type ObjectAttrFn func(c Containerish, m Manager) (any, error)

// AfterConstructFn is the supplemented post-construct hook: run once a
// container and all its declared sub-objects are constructed, for
// cross-field validation the generic constructor-argument path can't
// express.
type AfterConstructFn func(c Containerish, m Manager) error

// ObjectMapper maps one BaseStorageSpec's data type to and from builder
// trees.
type ObjectMapper struct {
	Namespace string
	DataType  string
	TypeKey   string // e.g. "neurodata_type" (spec.GroupSpecClass.TypeKey())

	spec  spec.BaseStorageSpec
	index *fieldmap.Index

	mu              sync.RWMutex
	constructorArgs map[string]ConstructorArgFn
	objAttrs        map[string]ObjectAttrFn
	afterConstruct  AfterConstructFn
}

// New builds an ObjectMapper for sp, deriving its field index via C2/C3.
// parentStack is the ancestor name chain used for sibling-name
// disambiguation (empty for a top-level registered type).
func New(namespace, dataType, typeKey string, sp spec.BaseStorageSpec, parentStack []string) (*ObjectMapper, error) {
	idx, err := fieldmap.Build(sp, parentStack)
	if err != nil {
		return nil, err
	}
	return &ObjectMapper{
		Namespace:       namespace,
		DataType:        dataType,
		TypeKey:         typeKey,
		spec:            sp,
		index:           idx,
		constructorArgs: map[string]ConstructorArgFn{},
		objAttrs:        map[string]ObjectAttrFn{},
	}, nil
}

// Index exposes the C3 field index so callers (typemap's class
// synthesis, tests) can inspect or override mappings.
func (m *ObjectMapper) Index() *fieldmap.Index { return m.index }

// Spec returns the BaseStorageSpec this mapper is bound to.
func (m *ObjectMapper) Spec() spec.BaseStorageSpec { return m.spec }

// RegisterConstructorArg installs an override handler for a constructor
// argument, collected at mapper-finalization time in the real system;
// here it is simply a direct call made once after New, typically from
// an init() in a hand-written mapper subclass.
func (m *ObjectMapper) RegisterConstructorArg(name string, fn ConstructorArgFn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constructorArgs[name] = fn
}

// RegisterObjectAttr installs an override handler for an object
// attribute.
func (m *ObjectMapper) RegisterObjectAttr(name string, fn ObjectAttrFn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objAttrs[name] = fn
}

// SetAfterConstruct installs the supplemented post-construct hook.
func (m *ObjectMapper) SetAfterConstruct(fn AfterConstructFn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.afterConstruct = fn
}

func (m *ObjectMapper) constructorArg(name string) (ConstructorArgFn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.constructorArgs[name]
	return fn, ok
}

func (m *ObjectMapper) objAttr(name string) (ObjectAttrFn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.objAttrs[name]
	return fn, ok
}
