// Package hdmferrors declares the error and warning kinds raised by the
// mapping core. Every fallible operation wraps one of the sentinel errors
// below with github.com/pkg/errors so that callers can still recover the
// kind via errors.Is/errors.Cause while getting a message that names the
// container type and field involved.
package hdmferrors

import "github.com/pkg/errors"

// Fatal error kinds (spec.md §7).
var (
	ErrUnknownDtype          = errors.New("unknown dtype")
	ErrDtypeMismatch         = errors.New("dtype mismatch")
	ErrSourceImmutable       = errors.New("container source is immutable once set")
	ErrUnmodifiedUnsourced   = errors.New("unmodified container has no source")
	ErrTypeMismatch          = errors.New("value is not a container or collection of containers")
	ErrInvalidReference      = errors.New("reference attribute is not a container or list of containers")
	ErrUntypedBuilder        = errors.New("builder has no namespace/data_type attribute")
	ErrUnsupportedRegionAttr = errors.New("region references are not supported as attribute values")
	ErrConstructFailed       = errors.New("container constructor failed")
	ErrNameUndetermined      = errors.New("could not determine builder name")
)

// Warning kinds (spec.md §7). These never halt a build; they are
// accumulated and optionally streamed via BuildManager.OnWarning.
var (
	WarnMissingRequired  = errors.New("missing required value")
	WarnOrphanContainer  = errors.New("container used as child has no parent")
)

// Kind classifies a Warning for callers that want to switch on it without
// string-matching.
type Kind int

const (
	KindMissingRequired Kind = iota
	KindOrphanContainer
)

// Warning is the payload delivered to BuildManager.OnWarning and collected
// into BuildManager.Warnings(). It names enough context (container type,
// field name) for a caller to act on it without re-deriving it from the
// spec tree.
type Warning struct {
	Kind          Kind
	ContainerType string
	FieldName     string
	Message       string
}

func (w Warning) Error() string {
	return w.Message
}

// NewMissingRequired builds a Warning for a required attribute, dataset,
// group or link that had no value on the container.
func NewMissingRequired(containerType, fieldName string) Warning {
	return Warning{
		Kind:          KindMissingRequired,
		ContainerType: containerType,
		FieldName:     fieldName,
		Message:       errors.Wrapf(WarnMissingRequired, "%s.%s", containerType, fieldName).Error(),
	}
}

// NewOrphanContainer builds a Warning for a child Container whose Parent()
// is absent at build time.
func NewOrphanContainer(containerType, fieldName string) Warning {
	return Warning{
		Kind:          KindOrphanContainer,
		ContainerType: containerType,
		FieldName:     fieldName,
		Message:       errors.Wrapf(WarnOrphanContainer, "%s.%s", containerType, fieldName).Error(),
	}
}
