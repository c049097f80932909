// Package specx is a YAML-fixture-backed internal/spec.NamespaceCatalog:
// the stand-in schema reader tests and cmd/hdmfcheck load a Specification
// tree from, playing the role a real on-disk schema-language parser would
// in production (spec.md §1 treats that parser as an external
// collaborator). It never touches objectmapper, typemap or buildmanager
// directly; it only produces the BaseStorageSpec trees those packages
// consume, via gopkg.in/yaml.v3, the same library the teacher's config
// loader and fixture data use.
package specx

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hdmf-go/hdmf/internal/spec"
)

type namespaceData struct {
	specs  map[string]spec.BaseStorageSpec
	parent map[string]string // type name -> "inherits" token, "" or "ns:Type" for cross-namespace
}

// Catalog implements spec.NamespaceCatalog and spec.GroupSpecClass.
type Catalog struct {
	mu         sync.RWMutex
	namespaces map[string]*namespaceData
	typeKey    string
}

// New creates an empty Catalog. defaultTypeKey names the attribute every
// built typed group/dataset is tagged with when a loaded namespace file
// doesn't declare its own type_key.
func New(defaultTypeKey string) *Catalog {
	if defaultTypeKey == "" {
		defaultTypeKey = "data_type"
	}
	return &Catalog{namespaces: map[string]*namespaceData{}, typeKey: defaultTypeKey}
}

// TypeKey implements spec.GroupSpecClass.
func (c *Catalog) TypeKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.typeKey
}

// LoadNamespaces reads and parses one namespace fixture file, registering
// every group and dataset type it declares. resolve turns a logical path
// into a concrete one (e.g. relative to an import root); read loads the
// resolved path's bytes. Both are injected so tests can back them with an
// in-memory fixture instead of a real filesystem.
func (c *Catalog) LoadNamespaces(path string, resolve func(string) (string, error), read func(string) ([]byte, error)) (map[string]map[string][]string, error) {
	resolvedPath := path
	if resolve != nil {
		p, err := resolve(path)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving namespace path %q", path)
		}
		resolvedPath = p
	}
	data, err := read(resolvedPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading namespace file %q", resolvedPath)
	}

	var raw rawNamespace
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing namespace file %q", resolvedPath)
	}
	if raw.Name == "" {
		return nil, errors.Errorf("namespace file %q declares no namespace name", resolvedPath)
	}

	nd := &namespaceData{specs: map[string]spec.BaseStorageSpec{}, parent: map[string]string{}}
	for name, g := range raw.Groups {
		g := g
		gs, err := convertGroup(&g)
		if err != nil {
			return nil, errors.Wrapf(err, "namespace %q, group %q", raw.Name, name)
		}
		nd.specs[name] = gs
		nd.parent[name] = g.Inherits
	}
	for name, d := range raw.Datasets {
		d := d
		ds, err := convertDataset(&d)
		if err != nil {
			return nil, errors.Wrapf(err, "namespace %q, dataset %q", raw.Name, name)
		}
		nd.specs[name] = ds
		nd.parent[name] = d.Inherits
	}

	c.mu.Lock()
	c.namespaces[raw.Name] = nd
	if raw.TypeKey != "" {
		c.typeKey = raw.TypeKey
	}
	c.mu.Unlock()

	return map[string]map[string][]string{raw.Name: raw.Depends}, nil
}

// GetSpec implements spec.NamespaceCatalog.
func (c *Catalog) GetSpec(namespace, dataType string) (spec.BaseStorageSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nd, ok := c.namespaces[namespace]
	if !ok {
		return nil, errors.Errorf("unknown namespace %q", namespace)
	}
	sp, ok := nd.specs[dataType]
	if !ok {
		return nil, errors.Errorf("unknown data type %q in namespace %q", dataType, namespace)
	}
	return sp, nil
}

// GetHierarchy implements spec.NamespaceCatalog: the ancestor chain
// leaf-to-root, following each type's "inherits" token, which may cross
// into a dependency namespace via the "namespace:Type" form.
func (c *Catalog) GetHierarchy(namespace, dataType string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if nd, ok := c.namespaces[namespace]; !ok || nd.specs[dataType] == nil {
		return nil, errors.Errorf("unknown data type %q in namespace %q", dataType, namespace)
	}

	var out []string
	ns, dt := namespace, dataType
	seen := map[string]bool{}
	for dt != "" {
		key := ns + "\x00" + dt
		if seen[key] {
			break
		}
		seen[key] = true
		out = append(out, dt)

		nd, ok := c.namespaces[ns]
		if !ok {
			break
		}
		parent, ok := nd.parent[dt]
		if !ok || parent == "" {
			break
		}
		if i := strings.IndexByte(parent, ':'); i >= 0 {
			ns, dt = parent[:i], parent[i+1:]
		} else {
			dt = parent
		}
	}
	if len(out) == 0 {
		return nil, errors.Errorf("unknown data type %q in namespace %q", dataType, namespace)
	}
	return out, nil
}
