package builder

// LinkBuilder is a named reference to another builder's tree. Unlike a
// GroupBuilder/DatasetBuilder attachment, a LinkBuilder does not own its
// target: spec.md §5 is explicit that memory ownership flows through
// embedding, never through a link.
type LinkBuilder struct {
	name   string
	target Builder
	parent Builder
}

var _ Builder = (*LinkBuilder)(nil)

func NewLinkBuilder(target Builder, name string, parent Builder) *LinkBuilder {
	l := &LinkBuilder{name: name, target: target}
	if gp, ok := parent.(*GroupBuilder); ok {
		gp.SetLink(l)
	} else if parent != nil {
		l.setParent(parent)
	}
	return l
}

func (l *LinkBuilder) BuilderName() string    { return l.name }
func (l *LinkBuilder) BuilderParent() Builder { return l.parent }
func (l *LinkBuilder) BuilderSource() string {
	if l.target == nil {
		return ""
	}
	return l.target.BuilderSource()
}
func (l *LinkBuilder) setParent(p Builder) { l.parent = p }

// IsEmpty is always false: a link, once created, is never considered
// empty for the purposes of the "attach iff not empty" rule (spec.md
// §4.4's "Adding groups").
func (l *LinkBuilder) IsEmpty() bool { return false }

func (l *LinkBuilder) Target() Builder { return l.target }
