package objectmapper

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/builder"
	"github.com/hdmf-go/hdmf/container"
	"github.com/hdmf-go/hdmf/dtype"
	"github.com/hdmf-go/hdmf/fieldmap"
	"github.com/hdmf-go/hdmf/hdmferrors"
	"github.com/hdmf-go/hdmf/internal/spec"
)

// dataValuer is the subset of container.Data's surface Build needs.
type dataValuer interface {
	Containerish
	DataValue() any
}

// Build emits the builder tree for c per spec.md §4.4. existing, when
// non-nil, is the builder to rebuild onto (BuildManager's "present but
// modified" re-build path); it must be of the kind this mapper's spec
// expects. warn receives every non-fatal warning raised along the way.
func (m *ObjectMapper) Build(c Containerish, mgr Manager, warn func(hdmferrors.Warning), parent builder.Builder, source string, existing builder.Builder) (builder.Builder, error) {
	name, err := m.getBuilderName(c)
	if err != nil {
		return nil, err
	}

	switch sp := m.spec.(type) {
	case *spec.GroupSpec:
		gb, _ := existing.(*builder.GroupBuilder)
		if gb == nil {
			gb = builder.NewGroupBuilder(name, parent, source)
		}
		if m.TypeKey != "" {
			gb.SetAttribute("namespace", m.Namespace)
			gb.SetAttribute(m.TypeKey, m.DataType)
		}
		if err := m.addAttributes(gb, c, mgr, warn, sp.Attributes); err != nil {
			return nil, err
		}
		if err := m.addDatasets(gb, c, mgr, warn, sp.Datasets); err != nil {
			return nil, err
		}
		if err := m.addGroups(gb, c, mgr, warn, sp.Groups); err != nil {
			return nil, err
		}
		if err := m.addLinks(gb, c, mgr, warn, sp.Links); err != nil {
			return nil, err
		}
		return gb, nil

	case *spec.DatasetSpec:
		dv, ok := c.(dataValuer)
		if !ok {
			return nil, errors.Wrapf(hdmferrors.ErrTypeMismatch, "%s: dataset spec requires a Data container", name)
		}
		db, _ := existing.(*builder.DatasetBuilder)
		if db == nil {
			db = builder.NewDatasetBuilder(name, nil, parent, source, nil)
		}
		if m.TypeKey != "" {
			db.SetAttribute("namespace", m.Namespace)
			db.SetAttribute(m.TypeKey, m.DataType)
		}
		if err := m.buildDatasetBody(db, dv.DataValue(), mgr, sp); err != nil {
			return nil, err
		}
		if err := m.addAttributes(db, c, mgr, warn, sp.Attributes); err != nil {
			return nil, err
		}
		return db, nil

	default:
		return nil, errors.Errorf("%s: unsupported top spec %T", name, m.spec)
	}
}

// getBuilderName implements spec.md §4.4 step 1.
func (m *ObjectMapper) getBuilderName(c Containerish) (string, error) {
	if fixed := m.spec.SpecName(); fixed != "" {
		return fixed, nil
	}
	if c != nil && c.Name() != "" {
		return c.Name(), nil
	}
	if ds, ok := m.spec.(*spec.DatasetSpec); ok && ds.DefaultName != "" {
		return ds.DefaultName, nil
	}
	if gs, ok := m.spec.(*spec.GroupSpec); ok && gs.DefaultName != "" {
		return gs.DefaultName, nil
	}
	return "", errors.Wrap(hdmferrors.ErrNameUndetermined, "no fixed spec name, container name, or default_name")
}

// buildDatasetBody implements the three DatasetSpec sub-cases of
// spec.md §4.4 step 3, against a raw payload value (a Data container's
// own value when called from Build, or a just-fetched field value when
// called from addDatasets for an untyped inline dataset).
func (m *ObjectMapper) buildDatasetBody(db *builder.DatasetBuilder, value any, mgr Manager, sp *spec.DatasetSpec) error {
	switch dt := sp.Dtype.(type) {
	case *spec.RefSpec:
		c, ok := value.(Containerish)
		if !ok {
			return errors.Wrapf(hdmferrors.ErrInvalidReference, "%s: scalar reference dataset requires a Container value", db.BuilderName())
		}
		ref, err := m.buildReference(mgr, c, dt)
		if err != nil {
			return err
		}
		db.SetData(ref)
		db.SetDtype(dtype.Reported(dt.RefType.String()))
		return nil

	case spec.CompoundDtype:
		rows, ok := asRows(value)
		if !ok {
			return errors.Wrapf(hdmferrors.ErrTypeMismatch, "%s: compound dataset requires a sequence of rows", db.BuilderName())
		}
		out := make([][]any, len(rows))
		for i, row := range rows {
			if len(row) != len(dt) {
				return errors.Errorf("%s: row %d has %d fields, spec declares %d", db.BuilderName(), i, len(row), len(dt))
			}
			newRow := make([]any, len(row))
			for j, field := range dt {
				v := row[j]
				if rs, ok := field.Dtype.(*spec.RefSpec); ok {
					c, ok := v.(Containerish)
					if !ok {
						return errors.Wrapf(hdmferrors.ErrInvalidReference, "%s: field %q is not a Container", db.BuilderName(), field.Name)
					}
					ref, err := m.buildReference(mgr, c, rs)
					if err != nil {
						return err
					}
					newRow[j] = ref
					continue
				}
				conv, _, err := dtype.Convert(field.Dtype, v)
				if err != nil {
					return errors.Wrapf(err, "%s: field %q", db.BuilderName(), field.Name)
				}
				newRow[j] = conv
			}
			out[i] = newRow
		}
		db.SetData(out)
		return nil

	default:
		if sp.Dtype == nil && containsContainers(value) {
			refs, err := buildContainerList(mgr, value)
			if err != nil {
				return err
			}
			db.SetData(refs)
			db.SetDtype("object")
			return nil
		}
		conv, reported, err := dtype.Convert(sp.Dtype, value)
		if err != nil {
			return errors.Wrapf(err, "%s", db.BuilderName())
		}
		db.SetData(conv)
		if db.Dtype() == "" {
			db.SetDtype(reported)
		}
		return nil
	}
}

func (m *ObjectMapper) buildReference(mgr Manager, c Containerish, rs *spec.RefSpec) (any, error) {
	target, err := mgr.Build(c, nil, "")
	if err != nil {
		return nil, err
	}
	if rs.RefType == spec.RefRegion {
		return builder.NewRegion(nil, target), nil
	}
	return builder.NewReference(target), nil
}

// buildContainerList resolves value (a lone Container, or a
// slice/array of them) into the matching ReferenceBuilder shape.
func buildContainerList(mgr Manager, value any) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		c, ok := value.(Containerish)
		if !ok {
			return nil, errors.Wrap(hdmferrors.ErrTypeMismatch, "expected a Container or list of Containers")
		}
		b, err := mgr.Build(c, nil, "")
		if err != nil {
			return nil, err
		}
		return builder.NewReference(b), nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i).Interface()
		c, ok := el.(Containerish)
		if !ok {
			return nil, errors.Wrap(hdmferrors.ErrTypeMismatch, "expected a Container or list of Containers")
		}
		b, err := mgr.Build(c, nil, "")
		if err != nil {
			return nil, err
		}
		out[i] = builder.NewReference(b)
	}
	return out, nil
}

// containsContainers implements the "array of Containers" detection
// from Design Note "RefSpec element typing in arrays": descend the
// first element of nested sequences until a Container or a primitive
// scalar is reached, never iterating past the first element of a long
// numeric vector.
func containsContainers(value any) bool {
	if value == nil {
		return false
	}
	if _, ok := value.(Containerish); ok {
		return true
	}
	rv := reflect.ValueOf(value)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() == 0 {
		return false
	}
	return containsContainers(rv.Index(0).Interface())
}

func asRows(value any) ([][]any, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	rows := make([][]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		row, ok := rv.Index(i).Interface().([]any)
		if !ok {
			return nil, false
		}
		rows[i] = row
	}
	return rows, true
}

type attributeSetter interface {
	SetAttribute(name string, value any)
}

// addAttributes implements spec.md §4.4 "Adding attributes".
func (m *ObjectMapper) addAttributes(dst attributeSetter, owner Containerish, mgr Manager, warn func(hdmferrors.Warning), attrs []*spec.AttributeSpec) error {
	for _, a := range attrs {
		attrName, _ := m.index.GetSpecAttr(a)

		var value any
		switch {
		case a.Value != nil:
			value = a.Value
		default:
			if fn, ok := m.objAttr(attrName); ok {
				v, err := fn(owner, mgr)
				if err != nil {
					return errors.Wrapf(err, "object_attr %q", attrName)
				}
				value = v
			} else if v, ok := owner.Attr(attrName); ok {
				value = v
			} else {
				value = a.DefaultValue
			}
		}

		if _, ok := a.Dtype.(*spec.RefSpec); ok {
			if value == nil {
				if a.Required {
					warn(hdmferrors.NewMissingRequired(m.DataType, attrName))
				}
				continue
			}
			built, err := buildContainerList(mgr, value)
			if err != nil {
				return errors.Wrapf(err, "attribute %q", attrName)
			}
			dst.SetAttribute(attrName, built)
			continue
		}

		conv, _, err := dtype.Convert(a.Dtype, value)
		if err != nil {
			return errors.Wrapf(err, "attribute %q", attrName)
		}
		if conv == nil {
			if a.Required {
				warn(hdmferrors.NewMissingRequired(m.DataType, attrName))
			}
			continue
		}
		dst.SetAttribute(attrName, conv)
	}
	return nil
}

// isEmptyValue reports whether v counts as "empty" for the "fetch
// value; if empty and required, warn and skip" rule: absent, or a
// zero-length sequence that is not a chunk iterator.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(dtype.Wrapped); ok {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	default:
		return false
	}
}

func (m *ObjectMapper) fetchFieldValue(node fieldmap.SpecNode, owner Containerish, mgr Manager) (any, string, error) {
	attrName, _ := m.index.GetSpecAttr(node)
	if fn, ok := m.objAttr(attrName); ok {
		v, err := fn(owner, mgr)
		return v, attrName, err
	}
	v, _ := owner.Attr(attrName)
	return v, attrName, nil
}

// addDatasets implements spec.md §4.4 "Adding datasets".
func (m *ObjectMapper) addDatasets(gb *builder.GroupBuilder, owner Containerish, mgr Manager, warn func(hdmferrors.Warning), datasets []*spec.DatasetSpec) error {
	for _, ds := range datasets {
		value, attrName, err := m.fetchFieldValue(ds, owner, mgr)
		if err != nil {
			return err
		}
		if isEmptyValue(value) {
			if ds.Quantity.Required() {
				warn(hdmferrors.NewMissingRequired(m.DataType, attrName))
			}
			continue
		}
		if !spec.HasDataType(ds) {
			name := ds.Name
			if name == "" {
				name = attrName
			}
			db := gb.Datasets()[name]
			if db == nil {
				db = builder.NewDatasetBuilder(name, nil, gb, gb.BuilderSource(), nil)
			}
			if err := m.buildDatasetBody(db, value, mgr, ds); err != nil {
				return err
			}
			if c, ok := value.(Containerish); ok {
				if err := m.addAttributes(db, c, mgr, warn, ds.Attributes); err != nil {
					return err
				}
			}
			continue
		}
		if err := m.addContainers(gb, mgr, warn, owner, ds.Name, false, ds.Dtype, value); err != nil {
			return err
		}
	}
	return nil
}

// addGroups implements spec.md §4.4 "Adding groups".
func (m *ObjectMapper) addGroups(gb *builder.GroupBuilder, owner Containerish, mgr Manager, warn func(hdmferrors.Warning), groups []*spec.GroupSpec) error {
	for _, gs := range groups {
		if !spec.HasDataType(gs) {
			name := gs.Name
			if name == "" {
				name, _ = m.index.GetSpecAttr(gs)
			}
			sub := gb.Groups()[name]
			if sub == nil {
				sub = builder.NewGroupBuilder(name, nil, gb.BuilderSource())
			}
			if err := m.addAttributes(sub, owner, mgr, warn, gs.Attributes); err != nil {
				return err
			}
			if err := m.addDatasets(sub, owner, mgr, warn, gs.Datasets); err != nil {
				return err
			}
			if attrName, ok := m.index.GetSpecAttr(gs); ok {
				if v, ok := owner.Attr(attrName); ok {
					if err := addContainersInline(sub, mgr, v); err != nil {
						return err
					}
				}
			}
			if err := m.addGroups(sub, owner, mgr, warn, gs.Groups); err != nil {
				return err
			}
			if sub.IsEmpty() && gs.Quantity.Kind != spec.QtyFixed {
				continue
			}
			gb.SetGroup(sub)
			continue
		}
		value, attrName, err := m.fetchFieldValue(gs, owner, mgr)
		if err != nil {
			return err
		}
		if isEmptyValue(value) {
			if gs.Quantity.Required() {
				warn(hdmferrors.NewMissingRequired(m.DataType, attrName))
			}
			continue
		}
		if err := m.addContainers(gb, mgr, warn, owner, gs.Name, false, nil, value); err != nil {
			return err
		}
	}
	return nil
}

// addContainersInline recurses per-child for an untyped sub-group whose
// children come from an explicitly mapped container-valued attribute,
// without the ownership/link bookkeeping addContainers performs for
// typed sub-specs.
func addContainersInline(gb *builder.GroupBuilder, mgr Manager, value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i).Interface()
		c, ok := el.(Containerish)
		if !ok {
			continue
		}
		if _, err := mgr.Build(c, gb, gb.BuilderSource()); err != nil {
			return err
		}
	}
	return nil
}

// addLinks implements spec.md §4.4 "Adding links".
func (m *ObjectMapper) addLinks(gb *builder.GroupBuilder, owner Containerish, mgr Manager, warn func(hdmferrors.Warning), links []*spec.LinkSpec) error {
	for _, ls := range links {
		value, _, err := m.fetchFieldValue(ls, owner, mgr)
		if err != nil {
			return err
		}
		if isEmptyValue(value) {
			continue
		}
		name := ls.Name
		if name == "" {
			name = ls.TargetType
		}
		if err := m.addContainers(gb, mgr, warn, owner, name, true, nil, value); err != nil {
			return err
		}
	}
	return nil
}

// addContainers implements spec.md §4.4's ownership/link decision for a
// typed GroupSpec/DatasetSpec/LinkSpec sub-spec. owner is the container
// this ObjectMapper is currently building (spec.md's "this container");
// linkName is the name used when the value ends up emitted as a
// LinkBuilder (whether because isLinkSpec or because ownership says so).
// datasetDtype is the containing DatasetSpec's own declared dtype (nil for
// groups and links), used to stamp a built sub-dataset's dtype when its
// own mapper left it unset.
func (m *ObjectMapper) addContainers(gb *builder.GroupBuilder, mgr Manager, warn func(hdmferrors.Warning), owner Containerish, linkName string, isLinkSpec bool, datasetDtype spec.Dtype, value any) error {
	rv := reflect.ValueOf(value)
	if value != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		for i := 0; i < rv.Len(); i++ {
			if err := m.addContainers(gb, mgr, warn, owner, linkName, isLinkSpec, datasetDtype, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	if m2, ok := value.(map[string]any); ok {
		for _, v := range m2 {
			if err := m.addContainers(gb, mgr, warn, owner, linkName, isLinkSpec, datasetDtype, v); err != nil {
				return err
			}
		}
		return nil
	}

	c, ok := value.(Containerish)
	if !ok {
		return errors.Wrap(hdmferrors.ErrTypeMismatch, "expected a Container or collection of Containers")
	}

	ownerRef, _ := owner.(container.ParentRef)
	ownedHere := c.Parent() != nil && ownerRef != nil && c.Parent() == ownerRef

	if c.Parent() == nil {
		warn(hdmferrors.NewOrphanContainer(m.DataType, linkName))
	}

	if c.Modified() {
		built, err := mgr.Build(c, gb, gb.BuilderSource())
		if err != nil {
			return err
		}
		if isLinkSpec || !ownedHere {
			builder.NewLinkBuilder(built, linkName, gb)
			return nil
		}
		switch b := built.(type) {
		case *builder.DatasetBuilder:
			if b.Dtype() == "" && datasetDtype != nil {
				_, reported, err := dtype.Convert(datasetDtype, nil)
				if err != nil {
					return errors.Wrapf(err, "%s %q", m.DataType, linkName)
				}
				if reported != "" {
					b.SetDtype(reported)
				}
			}
			gb.SetDataset(b)
		case *builder.GroupBuilder:
			gb.SetGroup(b)
		default:
			builder.NewLinkBuilder(built, linkName, gb)
		}
		return nil
	}

	if c.ContainerSource() != gb.BuilderSource() || !ownedHere {
		built, err := mgr.Build(c, nil, c.ContainerSource())
		if err != nil {
			return err
		}
		builder.NewLinkBuilder(built, linkName, gb)
		return nil
	}

	return errors.Wrapf(hdmferrors.ErrUnmodifiedUnsourced, "%s %q", m.DataType, linkName)
}
