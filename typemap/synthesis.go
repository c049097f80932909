package typemap

import (
	"github.com/hdmf-go/hdmf/container"
	"github.com/hdmf-go/hdmf/internal/spec"
	"github.com/hdmf-go/hdmf/objectmapper"
)

// synthesize implements the Design Note "Dynamic class synthesis"
// fallback: a generic container.Container/container.Data instance,
// every constructor argument set through SetAttr rather than a
// generated per-type Go struct. The spec returned by NamespaceCatalog
// is assumed to already carry inherited fields merged in (a typical
// schema-resolution contract), so no separate own-field/inherited-field
// filter is needed here: every carg key is set.
//
// Ergonomic, hand-written wrapper types that embed *container.Container
// or *container.Data and add typed accessor methods over the same
// attribute bag remain fully compatible with this path; they only need
// to be registered via TypeMap.RegisterContainerType when a caller wants
// the richer API instead of the generic one.
func synthesize(sp spec.BaseStorageSpec, namespace, dataType, name string, cargs map[string]any) (objectmapper.Containerish, error) {
	switch sp.(type) {
	case *spec.DatasetSpec:
		c := container.NewData(name, cargs["data"])
		for k, v := range cargs {
			if k == "data" {
				continue
			}
			c.SetAttr(k, v)
		}
		c.SetType(namespace, dataType)
		c.SetModified(false)
		return c, nil
	default:
		c := container.New(name)
		for k, v := range cargs {
			c.SetAttr(k, v)
		}
		c.SetType(namespace, dataType)
		c.SetModified(false)
		return c, nil
	}
}
