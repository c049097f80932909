// Package nameutil implements the C2 Name Deriver (spec.md §4.2): turning
// spec nodes into stable container attribute names.
package nameutil

import (
	"strings"
	"unicode"
)

// SnakeCase inserts '_' between a lowercase/digit and a following
// uppercase letter, then lowercases the whole string. E.g. "NWBFile" ->
// "nwbfile" (no boundary inside a run of uppercase), "TimeSeries" ->
// "time_series", "VoltageClamp2Stim" -> "voltage_clamp2_stim".
func SnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Pluralize appends "s" unless the name already ends in "s".
func Pluralize(name string) string {
	if strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}
