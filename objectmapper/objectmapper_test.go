package objectmapper_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hdmf-go/hdmf/builder"
	"github.com/hdmf-go/hdmf/container"
	"github.com/hdmf-go/hdmf/hdmferrors"
	"github.com/hdmf-go/hdmf/internal/spec"
	"github.com/hdmf-go/hdmf/objectmapper"
)

// fakeManager is a hand-rolled objectmapper.Manager for tests that don't
// need a real typemap/buildmanager session, only specific hooks.
type fakeManager struct {
	buildFn       func(c objectmapper.Containerish, parent builder.Builder, source string) (builder.Builder, error)
	constructFn   func(b builder.Builder) (objectmapper.Containerish, error)
	newInstanceFn func(namespace, dataType, name string, cargs map[string]any) (objectmapper.Containerish, error)
}

func (f *fakeManager) Build(c objectmapper.Containerish, parent builder.Builder, source string) (builder.Builder, error) {
	return f.buildFn(c, parent, source)
}

func (f *fakeManager) Construct(b builder.Builder) (objectmapper.Containerish, error) {
	return f.constructFn(b)
}

func (f *fakeManager) GetBuilderDt(b builder.Builder) (string, error) { return "", nil }
func (f *fakeManager) GetBuilderNs(b builder.Builder) (string, error) { return "", nil }

func (f *fakeManager) GetSubspec(parent spec.BaseStorageSpec, b builder.Builder) (spec.BaseStorageSpec, error) {
	return nil, nil
}

func (f *fakeManager) GetMap(namespace, dataType string) (*objectmapper.ObjectMapper, error) {
	return nil, nil
}

func (f *fakeManager) NewInstance(namespace, dataType, name string, cargs map[string]any) (objectmapper.Containerish, error) {
	return f.newInstanceFn(namespace, dataType, name, cargs)
}

func noWarn(hdmferrors.Warning) {}

func TestBuildMissingRequiredAttributeWarns(t *testing.T) {
	sp := &spec.GroupSpec{
		DataTypeDef: "Widget",
		Attributes: []*spec.AttributeSpec{
			{Name: "label", Dtype: spec.Primitive("text"), Required: true},
		},
	}
	m, err := objectmapper.New("core", "Widget", "neurodata_type", sp, nil)
	require.NoError(t, err)

	c := container.New("w1")
	c.SetType("core", "Widget")

	var warnings []hdmferrors.Warning
	mgr := &fakeManager{}
	built, err := m.Build(c, mgr, func(w hdmferrors.Warning) { warnings = append(warnings, w) }, nil, "session.h5", nil)
	require.NoError(t, err)

	gb := built.(*builder.GroupBuilder)
	_, hasLabel := gb.Attributes()["label"]
	require.False(t, hasLabel)

	require.Len(t, warnings, 1)
	require.Equal(t, hdmferrors.KindMissingRequired, warnings[0].Kind)
	require.Equal(t, "label", warnings[0].FieldName)
}

func TestBuildUntypedInlineDataset(t *testing.T) {
	sp := &spec.GroupSpec{
		DataTypeDef: "Widget",
		Datasets: []*spec.DatasetSpec{
			{Name: "data", Dtype: spec.Primitive("numeric")},
		},
	}
	m, err := objectmapper.New("core", "Widget", "neurodata_type", sp, nil)
	require.NoError(t, err)

	c := container.New("w1")
	c.SetType("core", "Widget")
	c.SetAttr("data", []int64{1, 2, 3})

	mgr := &fakeManager{}
	built, err := m.Build(c, mgr, noWarn, nil, "session.h5", nil)
	require.NoError(t, err)

	gb := built.(*builder.GroupBuilder)
	db, ok := gb.Datasets()["data"]
	require.True(t, ok)
	require.Equal(t, []int64{1, 2, 3}, db.Data())
}

func TestBuildScalarReferenceDataset(t *testing.T) {
	sp := &spec.DatasetSpec{
		DataTypeDef: "Ref",
		Dtype:       &spec.RefSpec{TargetType: "Widget", RefType: spec.RefObject},
	}
	m, err := objectmapper.New("core", "Ref", "neurodata_type", sp, nil)
	require.NoError(t, err)

	target := container.New("w1")
	target.SetType("core", "Widget")
	d := container.NewData("ref1", target)
	d.SetType("core", "Ref")

	targetBuilder := builder.NewGroupBuilder("w1", nil, "session.h5")
	mgr := &fakeManager{
		buildFn: func(c objectmapper.Containerish, parent builder.Builder, source string) (builder.Builder, error) {
			return targetBuilder, nil
		},
	}

	built, err := m.Build(d, mgr, noWarn, nil, "session.h5", nil)
	require.NoError(t, err)

	db := built.(*builder.DatasetBuilder)
	ref, ok := db.Data().(*builder.Reference)
	require.True(t, ok)
	require.Same(t, targetBuilder, ref.Target)
	require.Equal(t, "object", string(db.Dtype()))
}

func TestAddContainersLinksOwnedContainerRebuiltElsewhere(t *testing.T) {
	sp := &spec.GroupSpec{
		DataTypeDef: "Widget",
		Groups: []*spec.GroupSpec{
			{Name: "part", DataTypeInc: "Part", Quantity: spec.Quantity{Kind: spec.QtyZeroOrOne}},
		},
	}
	m, err := objectmapper.New("core", "Widget", "neurodata_type", sp, nil)
	require.NoError(t, err)

	owner := container.New("w1")
	owner.SetType("core", "Widget")

	part := container.New("p1")
	part.SetType("core", "Part")
	part.SetParent(owner)
	require.NoError(t, part.SetContainerSource("other.h5"))
	owner.SetAttr("part", part)

	var partBuilder builder.Builder
	mgr := &fakeManager{
		buildFn: func(c objectmapper.Containerish, parent builder.Builder, source string) (builder.Builder, error) {
			partBuilder = builder.NewGroupBuilder(c.Name(), nil, source)
			return partBuilder, nil
		},
	}

	var warnings []hdmferrors.Warning
	built, err := m.Build(owner, mgr, func(w hdmferrors.Warning) { warnings = append(warnings, w) }, nil, "session.h5", nil)
	require.NoError(t, err)

	require.Empty(t, warnings) // part.Parent() is set, so no orphan warning

	gb := built.(*builder.GroupBuilder)
	link, ok := gb.Links()["part"]
	require.True(t, ok)
	require.Same(t, partBuilder, link.Target())
	require.Empty(t, gb.Groups()) // linked, not embedded: source differs from the owner's
}

func TestAddContainersStampsDtypeFromContainingSpec(t *testing.T) {
	sp := &spec.GroupSpec{
		DataTypeDef: "Widget",
		Datasets: []*spec.DatasetSpec{
			{Name: "values", DataTypeDef: "ValueData", Dtype: spec.Primitive("int32"), Quantity: spec.Quantity{Kind: spec.QtyOne}},
		},
	}
	m, err := objectmapper.New("core", "Widget", "neurodata_type", sp, nil)
	require.NoError(t, err)

	owner := container.New("w1")
	owner.SetType("core", "Widget")

	child := container.New("v1")
	child.SetType("core", "ValueData")
	child.SetParent(owner)
	child.SetModified(true)
	owner.SetAttr("values", child)

	mgr := &fakeManager{
		buildFn: func(c objectmapper.Containerish, parent builder.Builder, source string) (builder.Builder, error) {
			// The nested mapper left dtype unset, as happens when the
			// sub-container's own spec declares no dtype of its own.
			return builder.NewDatasetBuilder("values", nil, nil, source, nil), nil
		},
	}

	built, err := m.Build(owner, mgr, noWarn, nil, "session.h5", nil)
	require.NoError(t, err)

	gb := built.(*builder.GroupBuilder)
	db, ok := gb.Datasets()["values"]
	require.True(t, ok)
	require.Equal(t, "int32", string(db.Dtype()))
}

func TestConstructAggregatesConstructorArgs(t *testing.T) {
	sp := &spec.GroupSpec{
		DataTypeDef: "Widget",
		Attributes: []*spec.AttributeSpec{
			{Name: "label", Dtype: spec.Primitive("text")},
		},
	}
	m, err := objectmapper.New("core", "Widget", "neurodata_type", sp, nil)
	require.NoError(t, err)

	gb := builder.NewGroupBuilder("w1", nil, "session.h5")
	gb.SetAttribute("label", "hello")

	var gotNamespace, gotDataType, gotName string
	var gotCargs map[string]any
	mgr := &fakeManager{
		newInstanceFn: func(namespace, dataType, name string, cargs map[string]any) (objectmapper.Containerish, error) {
			gotNamespace, gotDataType, gotName, gotCargs = namespace, dataType, name, cargs
			c := container.New(name)
			c.SetType(namespace, dataType)
			return c, nil
		},
	}

	inst, err := m.Construct(gb, mgr)
	require.NoError(t, err)

	require.Equal(t, "core", gotNamespace)
	require.Equal(t, "Widget", gotDataType)
	require.Equal(t, "w1", gotName)
	require.Equal(t, "hello", gotCargs["label"])

	ns, dt := inst.TypeTag()
	require.Equal(t, "core", ns)
	require.Equal(t, "Widget", dt)
	require.Equal(t, "session.h5", inst.ContainerSource())
}

func TestConstructRunsAfterConstructHook(t *testing.T) {
	sp := &spec.GroupSpec{DataTypeDef: "Widget"}
	m, err := objectmapper.New("core", "Widget", "neurodata_type", sp, nil)
	require.NoError(t, err)

	var hookCalled bool
	m.SetAfterConstruct(func(c objectmapper.Containerish, mgr objectmapper.Manager) error {
		hookCalled = true
		c.SetAttr("validated", true)
		return nil
	})

	gb := builder.NewGroupBuilder("w1", nil, "session.h5")
	mgr := &fakeManager{
		newInstanceFn: func(namespace, dataType, name string, cargs map[string]any) (objectmapper.Containerish, error) {
			c := container.New(name)
			c.SetType(namespace, dataType)
			return c, nil
		},
	}

	inst, err := m.Construct(gb, mgr)
	require.NoError(t, err)
	require.True(t, hookCalled)

	v, ok := inst.Attr("validated")
	require.True(t, ok)
	require.Equal(t, true, v)
}
