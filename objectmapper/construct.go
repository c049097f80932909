package objectmapper

import (
	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/builder"
	"github.com/hdmf-go/hdmf/fieldmap"
	"github.com/hdmf-go/hdmf/hdmferrors"
	"github.com/hdmf-go/hdmf/internal/spec"
)

// Construct reconstructs a container from b per spec.md §4.5. Class
// instantiation itself is delegated to mgr.NewInstance (TypeMap's job,
// §4.6); this method's responsibility ends at aggregating spec-keyed
// values into named constructor arguments.
func (m *ObjectMapper) Construct(b builder.Builder, mgr Manager) (Containerish, error) {
	values, err := m.getSubspecValues(m.spec, b, mgr)
	if err != nil {
		return nil, err
	}

	cargs := map[string]any{}
	for node, v := range values {
		if node == m.spec {
			// The top-level DatasetSpec's own payload isn't a child of
			// itself, so it never appears in the field index; it always
			// lands on the conventional "data" constructor argument.
			cargs["data"] = v
			continue
		}
		name, ok := m.index.GetSpecCarg(node)
		if !ok {
			continue
		}
		cargs[name] = v
	}
	for name, fn := range m.snapshotConstructorArgs() {
		v, err := fn(b, mgr)
		if err != nil {
			return nil, errors.Wrapf(err, "constructor_arg %q", name)
		}
		cargs[name] = v
	}

	inst, err := mgr.NewInstance(m.Namespace, m.DataType, b.BuilderName(), cargs)
	if err != nil {
		return nil, errors.Wrapf(hdmferrors.ErrConstructFailed, "%s: %v", m.DataType, err)
	}
	if err := inst.SetContainerSource(b.BuilderSource()); err != nil {
		return nil, err
	}

	if m.afterConstruct != nil {
		if err := m.afterConstruct(inst, mgr); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (m *ObjectMapper) snapshotConstructorArgs() map[string]ConstructorArgFn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]ConstructorArgFn, len(m.constructorArgs))
	for k, v := range m.constructorArgs {
		out[k] = v
	}
	return out
}

// getSubspecValues implements __get_subspec_values from spec.md §4.5
// step 2, keyed by spec node so Construct can map each through C3 on
// its own.
func (m *ObjectMapper) getSubspecValues(sp spec.BaseStorageSpec, b builder.Builder, mgr Manager) (map[fieldmap.SpecNode]any, error) {
	out := map[fieldmap.SpecNode]any{}

	switch bt := b.(type) {
	case *builder.GroupBuilder:
		for _, a := range sp.Attrs() {
			name, _ := m.index.GetSpecAttr(a)
			raw, ok := bt.Attributes()[name]
			if !ok {
				continue
			}
			v, err := m.resolveAttrValue(raw, mgr)
			if err != nil {
				return nil, errors.Wrapf(err, "attribute %q", name)
			}
			out[a] = v
		}

		byType := bucketByType(bt, mgr)

		for _, ls := range sp.SubLinks() {
			if ls.Name != "" {
				if l, ok := bt.Links()[ls.Name]; ok {
					v, err := m.constructTarget(l.Target(), mgr)
					if err != nil {
						return nil, err
					}
					out[ls] = v
				}
				continue
			}
			matches := byType[ls.TargetType]
			if len(matches) == 0 {
				continue
			}
			vals := make([]any, 0, len(matches))
			for _, cand := range matches {
				v, err := m.constructTarget(cand, mgr)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
			}
			out[ls] = vals
		}

		for _, gs := range sp.SubGroups() {
			var named builder.Builder
			if g, ok := bt.Groups()[gs.Name]; ok {
				named = g
			}
			v, err := m.resolveChildGroupOrDataset(gs, named, func() []builder.Builder {
				return m.groupCandidates(bt, gs, mgr)
			}, mgr)
			if err != nil {
				return nil, err
			}
			if v != nil {
				out[gs] = v
			}
		}
		for _, ds := range sp.SubDatasets() {
			var named builder.Builder
			if d, ok := bt.Datasets()[ds.Name]; ok {
				named = d
			}
			v, err := m.resolveChildGroupOrDataset(ds, named, func() []builder.Builder {
				return m.datasetCandidates(bt, ds, mgr)
			}, mgr)
			if err != nil {
				return nil, err
			}
			if v != nil {
				out[ds] = v
			}
		}

	case *builder.DatasetBuilder:
		for _, a := range sp.Attrs() {
			name, _ := m.index.GetSpecAttr(a)
			raw, ok := bt.Attributes()[name]
			if !ok {
				continue
			}
			v, err := m.resolveAttrValue(raw, mgr)
			if err != nil {
				return nil, errors.Wrapf(err, "attribute %q", name)
			}
			out[a] = v
		}
	}

	if ds, ok := sp.(*spec.DatasetSpec); ok {
		if db, ok := b.(*builder.DatasetBuilder); ok {
			out[ds] = db.Data()
		}
	}

	return out, nil
}

func (m *ObjectMapper) resolveAttrValue(raw any, mgr Manager) (any, error) {
	switch v := raw.(type) {
	case *builder.Reference:
		return m.constructTarget(v.Target, mgr)
	case *builder.Region:
		return nil, errors.Wrap(hdmferrors.ErrUnsupportedRegionAttr, "region reference as attribute value")
	case builder.Builder:
		return m.constructTarget(v, mgr)
	default:
		return raw, nil
	}
}

func (m *ObjectMapper) constructTarget(b builder.Builder, mgr Manager) (Containerish, error) {
	return mgr.Construct(b)
}

// resolveChildGroupOrDataset handles one declared group/dataset subspec:
// a direct name match wins; otherwise candidates() supplies hierarchy
// matches (spec.md §4.6 get_subspec). An untyped subspec has its inner
// fields harvested recursively rather than being constructed on its own.
func (m *ObjectMapper) resolveChildGroupOrDataset(sp spec.BaseStorageSpec, named builder.Builder, candidates func() []builder.Builder, mgr Manager) (any, error) {
	var match builder.Builder
	if named != nil {
		match = named
	} else {
		cands := candidates()
		if len(cands) == 0 {
			return nil, nil
		}
		if sp.Qty().IsMany() {
			vals := make([]any, 0, len(cands))
			for _, c := range cands {
				v, err := m.resolveOneChild(sp, c, mgr)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
			}
			return vals, nil
		}
		match = cands[0]
	}
	return m.resolveOneChild(sp, match, mgr)
}

func (m *ObjectMapper) resolveOneChild(sp spec.BaseStorageSpec, b builder.Builder, mgr Manager) (any, error) {
	if !spec.HasDataType(sp) {
		nested, err := m.getSubspecValues(sp, b, mgr)
		if err != nil {
			return nil, err
		}
		flat := map[string]any{}
		for node, v := range nested {
			if name, ok := m.index.GetSpecAttr(node); ok {
				flat[name] = v
			}
		}
		return flat, nil
	}
	return m.constructTarget(b, mgr)
}

// bucketByType indexes every data-typed link target of gb by its
// declared data type, for unnamed LinkSpec resolution.
func bucketByType(gb *builder.GroupBuilder, mgr Manager) map[string][]builder.Builder {
	out := map[string][]builder.Builder{}
	for _, l := range gb.Links() {
		dt, err := mgr.GetBuilderDt(l.Target())
		if err != nil {
			continue
		}
		out[dt] = append(out[dt], l.Target())
	}
	return out
}

// groupCandidates and datasetCandidates implement the hierarchy-matching
// half of spec.md §4.5 step 2 / §4.6 get_subspec: a child builder with
// no exact name match is attributed to whichever declared sub-spec of
// m.spec its data-type hierarchy resolves to.
func (m *ObjectMapper) groupCandidates(gb *builder.GroupBuilder, want *spec.GroupSpec, mgr Manager) []builder.Builder {
	var out []builder.Builder
	for _, sub := range gb.Groups() {
		if m.matchesSubspec(sub, want, mgr) {
			out = append(out, sub)
		}
	}
	return out
}

func (m *ObjectMapper) datasetCandidates(gb *builder.GroupBuilder, want *spec.DatasetSpec, mgr Manager) []builder.Builder {
	var out []builder.Builder
	for _, sub := range gb.Datasets() {
		if m.matchesSubspec(sub, want, mgr) {
			out = append(out, sub)
		}
	}
	return out
}

func (m *ObjectMapper) matchesSubspec(child builder.Builder, want spec.BaseStorageSpec, mgr Manager) bool {
	found, err := mgr.GetSubspec(m.spec, child)
	if err != nil || found == nil {
		return false
	}
	return found == want
}
