package builder

// GroupBuilder is the neutral representation of a group: a named
// container of attributes, datasets, sub-groups and links.
type GroupBuilder struct {
	name       string
	source     string
	parent     Builder
	attributes map[string]any
	datasets   map[string]*DatasetBuilder
	groups     map[string]*GroupBuilder
	links      map[string]*LinkBuilder
}

var _ Builder = (*GroupBuilder)(nil)

// NewGroupBuilder creates a detached GroupBuilder. Pass a non-nil parent
// to attach it immediately (mirrors the GroupBuilder(name, parent?,
// source?) constructor from spec.md §6); source only needs to be set on
// roots, since BuildManager write-once-checks it against the container.
func NewGroupBuilder(name string, parent Builder, source string) *GroupBuilder {
	g := &GroupBuilder{
		name:       name,
		source:     source,
		attributes: map[string]any{},
		datasets:   map[string]*DatasetBuilder{},
		groups:     map[string]*GroupBuilder{},
		links:      map[string]*LinkBuilder{},
	}
	if gp, ok := parent.(*GroupBuilder); ok {
		gp.SetGroup(g)
	} else if parent != nil {
		g.setParent(parent)
	}
	return g
}

func (g *GroupBuilder) BuilderName() string    { return g.name }
func (g *GroupBuilder) BuilderParent() Builder { return g.parent }
func (g *GroupBuilder) BuilderSource() string  { return g.source }
func (g *GroupBuilder) setParent(p Builder)    { g.parent = p }

func (g *GroupBuilder) IsEmpty() bool {
	return len(g.attributes) == 0 && len(g.datasets) == 0 && len(g.groups) == 0 && len(g.links) == 0
}

func (g *GroupBuilder) Attributes() map[string]any {
	return g.attributes
}

func (g *GroupBuilder) Datasets() map[string]*DatasetBuilder {
	return g.datasets
}

func (g *GroupBuilder) Groups() map[string]*GroupBuilder {
	return g.groups
}

func (g *GroupBuilder) Links() map[string]*LinkBuilder {
	return g.links
}

// SetAttribute stores (or overwrites) a value for the named attribute.
func (g *GroupBuilder) SetAttribute(name string, value any) {
	if g.attributes == nil {
		g.attributes = map[string]any{}
	}
	g.attributes[name] = value
}

// SetGroup attaches an already-constructed sub-group, re-parenting it.
func (g *GroupBuilder) SetGroup(sub *GroupBuilder) {
	if g.groups == nil {
		g.groups = map[string]*GroupBuilder{}
	}
	sub.setParent(g)
	g.groups[sub.name] = sub
}

// SetDataset attaches an already-constructed dataset, re-parenting it.
func (g *GroupBuilder) SetDataset(sub *DatasetBuilder) {
	if g.datasets == nil {
		g.datasets = map[string]*DatasetBuilder{}
	}
	sub.setParent(g)
	g.datasets[sub.name] = sub
}

// SetLink attaches a link under this group.
func (g *GroupBuilder) SetLink(l *LinkBuilder) {
	if g.links == nil {
		g.links = map[string]*LinkBuilder{}
	}
	l.setParent(g)
	g.links[l.name] = l
}

// AddDataset is a convenience that builds and attaches a new
// DatasetBuilder in one call, as spec.md §6 names it directly
// (`add_dataset(name, data, dtype?)`), returning the existing dataset of
// that name if one is already attached (so callers can re-use/extend it
// across the declared-attributes pass).
func (g *GroupBuilder) AddDataset(name string, data any, dt any) *DatasetBuilder {
	if g.datasets != nil {
		if existing, ok := g.datasets[name]; ok {
			return existing
		}
	}
	d := NewDatasetBuilder(name, data, nil, g.source, dt)
	g.SetDataset(d)
	return d
}
