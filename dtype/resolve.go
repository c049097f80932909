package dtype

import (
	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/hdmferrors"
)

// Resolve implements the precision-widening rule from spec.md §4.1:
//
//  1. If given fits within specified, return specified.
//  2. Else if given and specified share a family, return given (widened).
//  3. Else fail with DtypeMismatch.
//
// "Fits within" means: same family and given's byte width is no larger
// than specified's, or given is integral (signed or unsigned) and
// specified is also integral with width >= given's (this is what lets an
// unsigned spec accept a signed container value, and vice versa, as long
// as the value already fits — see spec.md scenario S2), or given is
// integral and specified is floating point (any width — integers widen
// safely into floats for this coercer's purposes). A floating-point given
// never "fits within" an integral or boolean specified dtype: that is
// always lossy and must fail outright rather than fall through to
// same-family widening.
func Resolve(given, specified Canonical) (Canonical, error) {
	if given == specified {
		return specified, nil
	}
	if fitsWithin(given, specified) {
		return specified, nil
	}
	if family(given) == family(specified) {
		return given, nil
	}
	return "", errors.Wrapf(hdmferrors.ErrDtypeMismatch,
		"value of dtype %s cannot be widened to required dtype %s", given, specified)
}

func fitsWithin(given, specified Canonical) bool {
	if family(given) == family(specified) {
		return widths[given] <= widths[specified]
	}
	if isIntegral(given) && isIntegral(specified) {
		return widths[given] <= widths[specified]
	}
	if isIntegral(given) && isFloat(specified) {
		return true
	}
	return false
}
