package builder

import "github.com/hdmf-go/hdmf/dtype"

// DatasetBuilder is the neutral representation of a dataset: its raw
// payload plus a reported dtype/shape and its own attributes.
type DatasetBuilder struct {
	name       string
	source     string
	parent     Builder
	data       any
	dt         dtype.Reported
	shape      []int
	attributes map[string]any
}

var _ Builder = (*DatasetBuilder)(nil)

// NewDatasetBuilder creates a DatasetBuilder. dt may be nil, a
// dtype.Reported, or a dtype.Canonical — all are normalized to
// dtype.Reported, matching the "dtype?" optional constructor parameter
// from spec.md §6.
func NewDatasetBuilder(name string, data any, parent Builder, source string, dt any) *DatasetBuilder {
	d := &DatasetBuilder{
		name:       name,
		source:     source,
		data:       data,
		dt:         asReported(dt),
		attributes: map[string]any{},
	}
	if parent != nil {
		if gp, ok := parent.(*GroupBuilder); ok {
			gp.SetDataset(d)
		} else {
			d.setParent(parent)
		}
	}
	return d
}

func asReported(dt any) dtype.Reported {
	switch v := dt.(type) {
	case nil:
		return ""
	case dtype.Reported:
		return v
	case dtype.Canonical:
		return v.Reported()
	case string:
		return dtype.Reported(v)
	default:
		return ""
	}
}

func (d *DatasetBuilder) BuilderName() string    { return d.name }
func (d *DatasetBuilder) BuilderParent() Builder { return d.parent }
func (d *DatasetBuilder) BuilderSource() string  { return d.source }
func (d *DatasetBuilder) setParent(p Builder)    { d.parent = p }

func (d *DatasetBuilder) IsEmpty() bool {
	return d.data == nil && len(d.attributes) == 0
}

func (d *DatasetBuilder) Data() any             { return d.data }
func (d *DatasetBuilder) SetData(data any)      { d.data = data }
func (d *DatasetBuilder) Dtype() dtype.Reported { return d.dt }
func (d *DatasetBuilder) SetDtype(dt any)       { d.dt = asReported(dt) }
func (d *DatasetBuilder) Shape() []int          { return d.shape }
func (d *DatasetBuilder) SetShape(shape []int)  { d.shape = shape }

func (d *DatasetBuilder) Attributes() map[string]any {
	return d.attributes
}

func (d *DatasetBuilder) SetAttribute(name string, value any) {
	if d.attributes == nil {
		d.attributes = map[string]any{}
	}
	d.attributes[name] = value
}
