package nameutil

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/hdmf-go/hdmf/hdmferrors"
)

// DeriveName implements spec.md §4.2: a sub-spec's attribute name is its
// declared name; failing that, the snake_case of its defined type, else
// its included type; the result is pluralized when many is true and it
// does not already end in "s".
func DeriveName(explicitName, typeDef, typeInc string, many bool) (string, error) {
	name := explicitName
	if name == "" {
		switch {
		case typeDef != "":
			name = SnakeCase(typeDef)
		case typeInc != "":
			name = SnakeCase(typeInc)
		default:
			return "", errors.Wrap(hdmferrors.ErrNameUndetermined, "no explicit name, data_type_def, or data_type_inc to derive from")
		}
	}
	if many {
		name = Pluralize(name)
	}
	return name, nil
}

// Disambiguate resolves name collisions among siblings by prefixing every
// colliding name with its parent's name-stack, joined by "_" — exactly
// the rule spec.md §4.2 and §8 property 4 require, and nothing more
// elaborate: a second collision after prefixing is left as-is.
func Disambiguate(names []string, parentStack []string) []string {
	counts := make(map[string]int, len(names))
	for _, n := range names {
		counts[n]++
	}
	prefix := strings.Join(parentStack, "_")
	out := make([]string, len(names))
	for i, n := range names {
		if counts[n] > 1 && prefix != "" {
			out[i] = prefix + "_" + n
		} else {
			out[i] = n
		}
	}
	return out
}
