package specx

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/internal/spec"
)

// parseDtype turns a YAML dtype token into a spec.Dtype. "ref:Type" and
// "region:Type" produce a *spec.RefSpec; anything else is a bare
// spec.Primitive, left for package dtype to validate against its own
// alphabet at conversion time.
func parseDtype(token string, refTarget string, refRegion bool) spec.Dtype {
	if token == "" && refTarget == "" {
		return nil
	}
	if refTarget != "" {
		rt := spec.RefObject
		if refRegion {
			rt = spec.RefRegion
		}
		return &spec.RefSpec{TargetType: refTarget, RefType: rt}
	}
	if rest, ok := strings.CutPrefix(token, "ref:"); ok {
		return &spec.RefSpec{TargetType: rest, RefType: spec.RefObject}
	}
	if rest, ok := strings.CutPrefix(token, "region:"); ok {
		return &spec.RefSpec{TargetType: rest, RefType: spec.RefRegion}
	}
	return spec.Primitive(token)
}

func parseCompound(fields []rawCompoundField) spec.CompoundDtype {
	if len(fields) == 0 {
		return nil
	}
	out := make(spec.CompoundDtype, len(fields))
	for i, f := range fields {
		out[i] = spec.CompoundField{Name: f.Name, Dtype: parseDtype(f.Dtype, "", false)}
	}
	return out
}

// parseQuantity accepts the quantity shorthand a schema author writes:
// "" or "1" (exactly one), "?" (zero or one), "*" (zero or many), "+"
// (one or many), or a bare integer N (fixed count).
func parseQuantity(token string) (spec.Quantity, error) {
	switch token {
	case "", "1":
		return spec.Quantity{Kind: spec.QtyOne}, nil
	case "?":
		return spec.Quantity{Kind: spec.QtyZeroOrOne}, nil
	case "*":
		return spec.Quantity{Kind: spec.QtyZeroOrMany}, nil
	case "+":
		return spec.Quantity{Kind: spec.QtyOneOrMany}, nil
	default:
		n, err := strconv.Atoi(token)
		if err != nil {
			return spec.Quantity{}, errors.Wrapf(err, "invalid quantity %q", token)
		}
		return spec.Quantity{Kind: spec.QtyFixed, Fixed: n}, nil
	}
}

func convertAttribute(a rawAttribute) *spec.AttributeSpec {
	return &spec.AttributeSpec{
		Name:         a.Name,
		Dtype:        parseDtype(a.Dtype, a.RefTarget, a.RefRegion),
		Shape:        a.Shape,
		Required:     a.Required,
		DefaultValue: a.Default,
		Value:        a.Value,
	}
}

func convertLink(l rawLink) (*spec.LinkSpec, error) {
	qty, err := parseQuantity(l.Quantity)
	if err != nil {
		return nil, errors.Wrapf(err, "link %q", l.Name)
	}
	return &spec.LinkSpec{Name: l.Name, TargetType: l.TargetType, Quantity: qty}, nil
}

func convertDataset(d *rawDataset) (*spec.DatasetSpec, error) {
	qty, err := parseQuantity(d.Quantity)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", d.Name)
	}
	var dt spec.Dtype
	switch {
	case len(d.Compound) > 0:
		dt = parseCompound(d.Compound)
	default:
		dt = parseDtype(d.Dtype, d.RefTarget, d.RefRegion)
	}
	attrs := make([]*spec.AttributeSpec, len(d.Attributes))
	for i, a := range d.Attributes {
		attrs[i] = convertAttribute(a)
	}
	return &spec.DatasetSpec{
		Name:        d.Name,
		Dtype:       dt,
		Shape:       d.Shape,
		Dims:        d.Dims,
		Attributes:  attrs,
		DataTypeDef: d.DataTypeDef,
		DataTypeInc: d.DataTypeInc,
		Quantity:    qty,
		DefaultName: d.DefaultName,
	}, nil
}

func convertGroup(g *rawGroup) (*spec.GroupSpec, error) {
	qty, err := parseQuantity(g.Quantity)
	if err != nil {
		return nil, errors.Wrapf(err, "group %q", g.Name)
	}
	attrs := make([]*spec.AttributeSpec, len(g.Attributes))
	for i, a := range g.Attributes {
		attrs[i] = convertAttribute(a)
	}
	datasets := make([]*spec.DatasetSpec, len(g.Datasets))
	for i, d := range g.Datasets {
		d := d
		ds, err := convertDataset(&d)
		if err != nil {
			return nil, err
		}
		datasets[i] = ds
	}
	groups := make([]*spec.GroupSpec, len(g.Groups))
	for i, sub := range g.Groups {
		sub := sub
		gs, err := convertGroup(&sub)
		if err != nil {
			return nil, err
		}
		groups[i] = gs
	}
	links := make([]*spec.LinkSpec, len(g.Links))
	for i, l := range g.Links {
		ls, err := convertLink(l)
		if err != nil {
			return nil, err
		}
		links[i] = ls
	}
	return &spec.GroupSpec{
		Name:        g.Name,
		Attributes:  attrs,
		Datasets:    datasets,
		Groups:      groups,
		Links:       links,
		DataTypeDef: g.DataTypeDef,
		DataTypeInc: g.DataTypeInc,
		DefaultName: g.DefaultName,
		Quantity:    qty,
	}, nil
}
