package container

import "strings"

// Identifiable is the subset of Containerish a Proxy needs to identify
// and compare candidates. It lives here (rather than objectmapper's
// broader Containerish) so Proxy can implement ParentRef's unexported
// marker method without container importing objectmapper — every
// Containerish value already satisfies this structurally.
type Identifiable interface {
	Name() string
	Parent() ParentRef
	ContainerSource() string
	TypeTag() (namespace, dataType string)
}

// Proxy is C7: an opaque handle describing a not-yet-bound container by
// (source, location, namespace, data_type), accumulating candidates
// until Resolve finds the unique match.
type Proxy struct {
	Source    string
	Location  string
	Namespace string
	DataType  string

	candidates []Identifiable
}

func NewProxy(source, location, namespace, dataType string) *Proxy {
	return &Proxy{Source: source, Location: location, Namespace: namespace, DataType: dataType}
}

func (p *Proxy) isParentRef() {}

// AddCandidate registers c as a possible resolution target.
func (p *Proxy) AddCandidate(c Identifiable) {
	p.candidates = append(p.candidates, c)
}

// Equal compares the four identifying fields, per spec.md §3 invariant 5.
func (p *Proxy) Equal(other *Proxy) bool {
	if other == nil {
		return false
	}
	return p.Source == other.Source && p.Location == other.Location &&
		p.Namespace == other.Namespace && p.DataType == other.DataType
}

// Resolve implements spec.md §4.7/§8 property 6: the unique candidate
// whose own (source, location, namespace, data_type) equals p's,
// or none if zero or more than one match.
func (p *Proxy) Resolve() (Identifiable, bool) {
	var matched Identifiable
	matches := 0
	for _, c := range p.candidates {
		ns, dt := c.TypeTag()
		if c.ContainerSource() == p.Source && LocationOf(c) == p.Location && ns == p.Namespace && dt == p.DataType {
			matched = c
			matches++
		}
	}
	if matches == 1 {
		return matched, true
	}
	return nil, false
}

// LocationOf computes the "/"-joined name-stack from root to c,
// following Parent() chains, per spec.md §4.7: only ancestors that
// carry a data type participate, and a Proxy ancestor's own location is
// spliced in rather than walked further (short-circuit).
func LocationOf(c Identifiable) string {
	var parts []string
	var walk func(ref ParentRef)
	walk = func(ref ParentRef) {
		switch v := ref.(type) {
		case nil:
			return
		case *Proxy:
			if v.Location != "" {
				parts = append(parts, v.Location)
			}
		case Identifiable:
			if ns, dt := v.TypeTag(); ns != "" || dt != "" {
				parts = append(parts, v.Name())
			}
			walk(v.Parent())
		}
	}
	walk(c.Parent())

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
