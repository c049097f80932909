// Package typemap implements C5: the registry from (namespace,
// data_type) to container factory and to mapper, synthesizing a
// container factory and an ObjectMapper from the Specification alone
// when neither has been hand-registered. It satisfies
// objectmapper.Manager's TypeMap-facing methods; buildmanager.BuildManager
// composes a *TypeMap to satisfy the rest (Build/Construct recursion and
// the identity cache).
//
// The registry tables mirror dynamic.MessageFactory/ExtensionRegistry's
// layering in the teacher: a coarse RWMutex around plain maps, looked up
// by a small comparable key struct, with last-registration-wins semantics
// made explicit rather than accidental.
package typemap

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/hdmf-go/hdmf/builder"
	"github.com/hdmf-go/hdmf/hdmferrors"
	"github.com/hdmf-go/hdmf/internal/spec"
	"github.com/hdmf-go/hdmf/objectmapper"
)

// Key identifies a registered type by namespace and data type name.
type Key struct {
	Namespace string
	DataType  string
}

// Factory constructs a container instance from its aggregated
// constructor arguments (spec.md §4.5 step 5). Hand-written namespace
// packages register one per type they define a real Go type for;
// unregistered types fall back to TypeMap's synthesized factory
// (Design Note "Dynamic class synthesis").
type Factory func(name string, cargs map[string]any) (objectmapper.Containerish, error)

// MapperConfig customizes a freshly-built ObjectMapper before it is
// memoized — registering override handlers, an AfterConstruct hook, or
// per-instance field-index overrides.
type MapperConfig func(*objectmapper.ObjectMapper)

type mapperReg struct {
	fn       MapperConfig
	priority int
	seq      int
}

// TypeMap owns the namespace catalog and every registration table.
type TypeMap struct {
	catalog spec.NamespaceCatalog
	typeKey string

	mu         sync.RWMutex
	factories  map[Key]Factory
	mapperCfgs map[Key]mapperReg
	mappers    map[Key]*objectmapper.ObjectMapper
	sources    map[Key]string // unresolved cross-namespace TypeSource stand-ins: Key -> owning (dependency) namespace
	seq        int

	synthGroup singleflight.Group
}

// New creates a TypeMap bound to catalog. typeKey is the spec layer's
// type_key (spec.GroupSpecClass.TypeKey(), e.g. "neurodata_type"): the
// attribute name every built typed group/dataset is tagged with.
func New(catalog spec.NamespaceCatalog, typeKey string) *TypeMap {
	return &TypeMap{
		catalog:    catalog,
		typeKey:    typeKey,
		factories:  map[Key]Factory{},
		mapperCfgs: map[Key]mapperReg{},
		mappers:    map[Key]*objectmapper.ObjectMapper{},
		sources:    map[Key]string{},
	}
}

// RegisterContainerType installs a hand-written factory for (namespace,
// dataType), overriding the default class-synthesis path for it.
func (tm *TypeMap) RegisterContainerType(namespace, dataType string, factory Factory) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.factories[Key{namespace, dataType}] = factory
}

// RegisterMapper installs a mapper configuration callback for
// (namespace, dataType). priority breaks ties deterministically when two
// packages register for the same type during independent init()
// functions; among equal priorities, the most recent registration wins.
func (tm *TypeMap) RegisterMapper(namespace, dataType string, priority int, cfg MapperConfig) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.seq++
	key := Key{namespace, dataType}
	cur, exists := tm.mapperCfgs[key]
	if !exists || priority > cur.priority || (priority == cur.priority && tm.seq > cur.seq) {
		tm.mapperCfgs[key] = mapperReg{fn: cfg, priority: priority, seq: tm.seq}
	}
}

// GetContainerCls reports whether a hand-written factory (as opposed to
// a synthesized one) is registered for (namespace, dataType).
func (tm *TypeMap) GetContainerCls(namespace, dataType string) (Factory, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	f, ok := tm.factories[Key{namespace, dataType}]
	return f, ok
}

// resolveSpec resolves a TypeSource stand-in transitively to the real
// (namespace, data_type) before consulting the catalog, per spec.md
// §4.6's load_namespaces/TypeSource contract.
func (tm *TypeMap) resolveSpec(namespace, dataType string) (spec.BaseStorageSpec, string, error) {
	ns := namespace
	for depth := 0; depth < 32; depth++ {
		tm.mu.RLock()
		real, isSource := tm.sources[Key{ns, dataType}]
		tm.mu.RUnlock()
		if !isSource {
			break
		}
		ns = real
	}
	sp, err := tm.catalog.GetSpec(ns, dataType)
	if err != nil {
		return nil, "", err
	}
	return sp, ns, nil
}

// GetMap implements spec.md §4.6 get_map: the memoized ObjectMapper for
// (namespace, dataType), built on first request and configured by the
// most specific registered MapperConfig found walking the ancestor
// chain leaf-to-root.
func (tm *TypeMap) GetMap(namespace, dataType string) (*objectmapper.ObjectMapper, error) {
	key := Key{namespace, dataType}

	tm.mu.RLock()
	if mp, ok := tm.mappers[key]; ok {
		tm.mu.RUnlock()
		return mp, nil
	}
	tm.mu.RUnlock()

	v, err, _ := tm.synthGroup.Do(namespace+"\x00"+dataType, func() (any, error) {
		tm.mu.RLock()
		if mp, ok := tm.mappers[key]; ok {
			tm.mu.RUnlock()
			return mp, nil
		}
		tm.mu.RUnlock()

		sp, realNs, err := tm.resolveSpec(namespace, dataType)
		if err != nil {
			return nil, err
		}
		mp, err := objectmapper.New(realNs, dataType, tm.typeKey, sp, nil)
		if err != nil {
			return nil, err
		}

		hierarchy, err := tm.catalog.GetHierarchy(realNs, dataType)
		if err != nil {
			hierarchy = []string{dataType}
		}
		tm.mu.RLock()
		for _, dt := range hierarchy {
			if reg, ok := tm.mapperCfgs[Key{realNs, dt}]; ok {
				tm.mu.RUnlock()
				reg.fn(mp)
				tm.mu.RLock()
				break
			}
		}
		tm.mu.RUnlock()

		tm.mu.Lock()
		tm.mappers[key] = mp
		tm.mu.Unlock()
		return mp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*objectmapper.ObjectMapper), nil
}

// NewInstance implements spec.md §4.6's synthesis fallback together
// with the registered-factory fast path: prefer a hand-written factory
// found by walking the ancestor chain, else synthesize a generic
// container/data instance from the spec's own shape.
func (tm *TypeMap) NewInstance(namespace, dataType, name string, cargs map[string]any) (objectmapper.Containerish, error) {
	sp, realNs, err := tm.resolveSpec(namespace, dataType)
	if err != nil {
		return nil, err
	}

	hierarchy, err := tm.catalog.GetHierarchy(realNs, dataType)
	if err != nil {
		hierarchy = []string{dataType}
	}
	for _, dt := range hierarchy {
		if f, ok := tm.GetContainerCls(realNs, dt); ok {
			return f(name, cargs)
		}
	}
	return synthesize(sp, realNs, dataType, name, cargs)
}

// GetBuilderDt implements spec.md §4.6 get_builder_dt: for a
// LinkBuilder, the underlying target's data type is used.
func (tm *TypeMap) GetBuilderDt(b builder.Builder) (string, error) {
	if l, ok := b.(*builder.LinkBuilder); ok {
		return tm.GetBuilderDt(l.Target())
	}
	attrs, ok := attributesOf(b)
	if !ok {
		return "", errors.Wrap(hdmferrors.ErrUntypedBuilder, "builder kind has no attributes")
	}
	v, ok := attrs[tm.typeKey]
	if !ok {
		return "", errors.Wrapf(hdmferrors.ErrUntypedBuilder, "missing %q attribute", tm.typeKey)
	}
	return decodeText(v)
}

// GetBuilderNs implements spec.md §4.6 get_builder_ns.
func (tm *TypeMap) GetBuilderNs(b builder.Builder) (string, error) {
	if l, ok := b.(*builder.LinkBuilder); ok {
		return tm.GetBuilderNs(l.Target())
	}
	attrs, ok := attributesOf(b)
	if !ok {
		return "", errors.Wrap(hdmferrors.ErrUntypedBuilder, "builder kind has no attributes")
	}
	v, ok := attrs["namespace"]
	if !ok {
		return "", errors.Wrap(hdmferrors.ErrUntypedBuilder, "missing namespace attribute")
	}
	return decodeText(v)
}

func attributesOf(b builder.Builder) (map[string]any, bool) {
	switch bt := b.(type) {
	case *builder.GroupBuilder:
		return bt.Attributes(), true
	case *builder.DatasetBuilder:
		return bt.Attributes(), true
	default:
		return nil, false
	}
}

func decodeText(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", errors.Errorf("data-type attribute has unexpected type %T", v)
	}
}

// GetSubspec implements spec.md §4.6 get_subspec: by name if available,
// else by walking the builder's declared-type hierarchy until a match
// is found among parentSpec's child specs.
func (tm *TypeMap) GetSubspec(parentSpec spec.BaseStorageSpec, b builder.Builder) (spec.BaseStorageSpec, error) {
	name := b.BuilderName()
	for _, gs := range parentSpec.SubGroups() {
		if gs.Name != "" && gs.Name == name {
			return gs, nil
		}
	}
	for _, ds := range parentSpec.SubDatasets() {
		if ds.Name != "" && ds.Name == name {
			return ds, nil
		}
	}

	dt, err := tm.GetBuilderDt(b)
	if err != nil {
		return nil, nil //nolint:nilnil // "no match" is a valid, non-error outcome here
	}
	ns, err := tm.GetBuilderNs(b)
	if err != nil {
		ns = ""
	}
	hierarchy, err := tm.catalog.GetHierarchy(ns, dt)
	if err != nil {
		hierarchy = []string{dt}
	}
	for _, candidate := range hierarchy {
		for _, gs := range parentSpec.SubGroups() {
			if gs.DataTypeDef == candidate || gs.DataTypeInc == candidate {
				return gs, nil
			}
		}
		for _, ds := range parentSpec.SubDatasets() {
			if ds.DataTypeDef == candidate || ds.DataTypeInc == candidate {
				return ds, nil
			}
		}
	}
	return nil, nil
}

// LoadNamespaces delegates to the catalog and registers a TypeSource
// stand-in for every cross-namespace dependency it reports, per
// spec.md §4.6.
func (tm *TypeMap) LoadNamespaces(path string, resolve func(string) (string, error), read func(string) ([]byte, error)) error {
	deps, err := tm.catalog.LoadNamespaces(path, resolve, read)
	if err != nil {
		return err
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for newNs, fromDeps := range deps {
		for srcNs, types := range fromDeps {
			for _, t := range types {
				tm.sources[Key{newNs, t}] = srcNs
			}
		}
	}
	return nil
}
