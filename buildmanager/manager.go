// Package buildmanager implements C6: the per-session bridge between
// containers and builders. It owns the identity cache that makes Build
// and Construct idempotent within one session (spec.md §4.7's "builders:
// identity(container) -> builder, containers: identity(builder) ->
// container"), and resolves the deferred parents a Proxy (C7, in package
// container) stands in for once every ancestor has been constructed.
//
// BuildManager composes a *typemap.TypeMap for everything that doesn't
// need session state (GetBuilderDt/Ns, GetSubspec, GetMap, NewInstance)
// and implements objectmapper.Manager's Build/Construct itself, the same
// split the teacher draws between a stateless descriptor registry and a
// stateful per-call resolution session.
package buildmanager

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hdmf-go/hdmf/builder"
	"github.com/hdmf-go/hdmf/container"
	"github.com/hdmf-go/hdmf/hdmferrors"
	"github.com/hdmf-go/hdmf/internal/spec"
	"github.com/hdmf-go/hdmf/objectmapper"
	"github.com/hdmf-go/hdmf/typemap"
)

type proxyKey struct {
	source, location, namespace, dataType string
}

// BuildManager is C6.
type BuildManager struct {
	tm *typemap.TypeMap

	// SessionID identifies one build/construct session, for logging and
	// for namespacing any disk artifacts a caller writes alongside it.
	SessionID string

	// OnWarning, when set, is called synchronously for every warning as
	// it is raised, in addition to it being collected into Warnings().
	OnWarning func(hdmferrors.Warning)

	mu         sync.Mutex
	builders   map[objectmapper.Containerish]builder.Builder
	containers map[builder.Builder]objectmapper.Containerish
	proxies    map[proxyKey]*container.Proxy
	warnings   []hdmferrors.Warning
	depth      int
}

// New creates a BuildManager over tm, with a fresh session identity.
func New(tm *typemap.TypeMap) *BuildManager {
	return &BuildManager{
		tm:         tm,
		SessionID:  uuid.NewString(),
		builders:   map[objectmapper.Containerish]builder.Builder{},
		containers: map[builder.Builder]objectmapper.Containerish{},
		proxies:    map[proxyKey]*container.Proxy{},
	}
}

// Warnings returns every non-fatal warning raised by Build calls in this
// session, in the order they occurred.
func (bm *BuildManager) Warnings() []hdmferrors.Warning {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	out := make([]hdmferrors.Warning, len(bm.warnings))
	copy(out, bm.warnings)
	return out
}

func (bm *BuildManager) warn(w hdmferrors.Warning) {
	bm.mu.Lock()
	bm.warnings = append(bm.warnings, w)
	bm.mu.Unlock()
	if bm.OnWarning != nil {
		bm.OnWarning(w)
	}
}

// Prebuilt seeds the identity cache with an already-built pair, without
// running the mapper — used to prime a session from a prior build (e.g.
// a round-trip test) so later ownership/link decisions see it.
func (bm *BuildManager) Prebuilt(c objectmapper.Containerish, b builder.Builder) {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.builders[c] = b
	bm.containers[b] = c
}

// Build implements objectmapper.Manager's Build: resolve c's mapper from
// its own type tag, rebuild onto the cached builder if c was built
// before and has since been modified, otherwise return the cached
// builder untouched (spec.md §4.7's idempotent-within-a-session rule).
func (bm *BuildManager) Build(c objectmapper.Containerish, parent builder.Builder, source string) (builder.Builder, error) {
	bm.mu.Lock()
	existing, wasBuilt := bm.builders[c]
	bm.mu.Unlock()

	if wasBuilt && !c.Modified() {
		return existing, nil
	}

	if source == "" {
		switch {
		case existing != nil:
			source = existing.BuilderSource()
		case parent != nil:
			source = parent.BuilderSource()
		default:
			source = c.ContainerSource()
		}
	}
	if err := c.SetContainerSource(source); err != nil {
		return nil, err
	}

	ns, dt := c.TypeTag()
	mapper, err := bm.tm.GetMap(ns, dt)
	if err != nil {
		return nil, err
	}

	built, err := mapper.Build(c, bm, bm.warn, parent, source, existing)
	if err != nil {
		return nil, err
	}
	c.SetModified(false)

	bm.mu.Lock()
	bm.builders[c] = built
	bm.containers[built] = c
	bm.mu.Unlock()

	return built, nil
}

// Construct implements objectmapper.Manager's Construct: resolve b's
// mapper from its declared type tag, reconstruct (or return the cached
// container if b was already constructed this session), and defer its
// parent link to a Proxy when the ancestor builder hasn't been
// constructed into a container yet. Once the outermost call unwinds, the
// session's deferred parents are resolved in one pass.
func (bm *BuildManager) Construct(b builder.Builder) (objectmapper.Containerish, error) {
	if l, ok := b.(*builder.LinkBuilder); ok {
		b = l.Target()
	}

	bm.mu.Lock()
	if c, ok := bm.containers[b]; ok {
		bm.mu.Unlock()
		return c, nil
	}
	bm.depth++
	bm.mu.Unlock()

	c, err := bm.construct(b)

	bm.mu.Lock()
	bm.depth--
	root := bm.depth == 0
	bm.mu.Unlock()
	if root {
		bm.resolveParents()
	}
	return c, err
}

func (bm *BuildManager) construct(b builder.Builder) (objectmapper.Containerish, error) {
	ns, err := bm.tm.GetBuilderNs(b)
	if err != nil {
		return nil, err
	}
	dt, err := bm.tm.GetBuilderDt(b)
	if err != nil {
		return nil, err
	}
	mapper, err := bm.tm.GetMap(ns, dt)
	if err != nil {
		return nil, err
	}
	c, err := mapper.Construct(b, bm)
	if err != nil {
		return nil, err
	}

	bm.mu.Lock()
	bm.containers[b] = c
	bm.builders[c] = b
	bm.mu.Unlock()

	if err := bm.bindParent(c, b); err != nil {
		return nil, err
	}
	return c, nil
}

// bindParent implements the child-constructed-before-parent half of
// spec.md §4.7: if the parent builder already has a constructed
// container, link to it directly; otherwise hand out (or reuse) a Proxy
// describing the expected parent, to be resolved once it exists.
func (bm *BuildManager) bindParent(c objectmapper.Containerish, b builder.Builder) error {
	pb := b.BuilderParent()
	if pb == nil {
		return nil
	}

	bm.mu.Lock()
	parentContainer, ok := bm.containers[pb]
	bm.mu.Unlock()
	if ok {
		if ref, ok := any(parentContainer).(container.ParentRef); ok {
			c.SetParent(ref)
		}
		return nil
	}

	proxy, err := bm.GetProxy(pb, b.BuilderSource())
	if err != nil {
		return err
	}
	c.SetParent(proxy)
	return nil
}

// GetProxy returns the Proxy standing in for the container that will
// eventually be constructed from parentBuilder, memoized by its
// identifying (source, location, namespace, data_type) so repeated
// children of the same not-yet-constructed ancestor share one Proxy.
func (bm *BuildManager) GetProxy(parentBuilder builder.Builder, source string) (*container.Proxy, error) {
	ns, err := bm.tm.GetBuilderNs(parentBuilder)
	if err != nil {
		return nil, err
	}
	dt, err := bm.tm.GetBuilderDt(parentBuilder)
	if err != nil {
		return nil, err
	}
	loc := bm.locationOfBuilder(parentBuilder)
	key := proxyKey{source, loc, ns, dt}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	if p, ok := bm.proxies[key]; ok {
		return p, nil
	}
	p := container.NewProxy(source, loc, ns, dt)
	bm.proxies[key] = p
	return p, nil
}

// locationOfBuilder is container.LocationOf's builder-side counterpart,
// needed because a Proxy is created before the matching container (and
// therefore its Parent() chain) exists.
func (bm *BuildManager) locationOfBuilder(b builder.Builder) string {
	var parts []string
	for cur := b.BuilderParent(); cur != nil; cur = cur.BuilderParent() {
		if dt, err := bm.tm.GetBuilderDt(cur); err == nil && dt != "" {
			parts = append(parts, cur.BuilderName())
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// resolveParents implements the post-order resolveParents pass of
// spec.md §4.7: every outstanding Proxy is offered every constructed
// container in the session as a candidate (filtered by source,
// namespace and data type before the more expensive location
// comparison inside Proxy.Resolve), and every container still parented
// by a Proxy that resolves uniquely is repointed at the real container.
func (bm *BuildManager) resolveParents() {
	bm.mu.Lock()
	proxies := make([]*container.Proxy, 0, len(bm.proxies))
	for _, p := range bm.proxies {
		proxies = append(proxies, p)
	}
	all := make([]container.Identifiable, 0, len(bm.containers))
	for _, c := range bm.containers {
		if id, ok := any(c).(container.Identifiable); ok {
			all = append(all, id)
		}
	}
	bm.mu.Unlock()

	var g errgroup.Group
	for _, p := range proxies {
		p := p
		g.Go(func() error {
			for _, cand := range all {
				ns, dt := cand.TypeTag()
				if cand.ContainerSource() == p.Source && ns == p.Namespace && dt == p.DataType {
					p.AddCandidate(cand)
				}
			}
			return nil
		})
	}
	_ = g.Wait() // candidate collection never errors; kept for the errgroup idiom

	bm.mu.Lock()
	defer bm.mu.Unlock()
	for _, p := range proxies {
		resolved, ok := p.Resolve()
		if !ok {
			continue
		}
		ref, ok := resolved.(container.ParentRef)
		if !ok {
			continue
		}
		for _, c := range bm.containers {
			if cur, ok := c.Parent().(*container.Proxy); ok && cur == p {
				c.SetParent(ref)
			}
		}
	}
}

// IsRoot reports whether b has no builder parent, i.e. is the top of a
// build/construct tree.
func IsRoot(b builder.Builder) bool { return b.BuilderParent() == nil }

// --- objectmapper.Manager pass-throughs, delegated straight to TypeMap ---

func (bm *BuildManager) GetBuilderDt(b builder.Builder) (string, error) { return bm.tm.GetBuilderDt(b) }

func (bm *BuildManager) GetBuilderNs(b builder.Builder) (string, error) { return bm.tm.GetBuilderNs(b) }

func (bm *BuildManager) GetSubspec(parent spec.BaseStorageSpec, b builder.Builder) (spec.BaseStorageSpec, error) {
	return bm.tm.GetSubspec(parent, b)
}

func (bm *BuildManager) GetMap(namespace, dataType string) (*objectmapper.ObjectMapper, error) {
	return bm.tm.GetMap(namespace, dataType)
}

func (bm *BuildManager) NewInstance(namespace, dataType, name string, cargs map[string]any) (objectmapper.Containerish, error) {
	return bm.tm.NewInstance(namespace, dataType, name, cargs)
}
