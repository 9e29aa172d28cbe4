package modelconfig

import (
	"slices"
	"strings"

	"github.com/Faultbox/ccmodels/pkg/encoding"
)

// PersonalMarker ends the name of a player's own primary model.
const PersonalMarker = "+"

// ModelName is a base model name plus a set of modifier tags. Its canonical
// form is "base(tag1,tag2)" with tags lowercase, deduplicated and sorted.
type ModelName struct {
	Base      string
	Modifiers []string
}

// ParseModelName splits "Name(tag,tag)" into base and modifiers. The base is
// case folded; a name without a well-formed tag list is all base.
func ParseModelName(s string) ModelName {
	s = strings.TrimSpace(s)
	if open := strings.IndexByte(s, '('); open > 0 && strings.HasSuffix(s, ")") {
		return ModelName{
			Base:      encoding.FoldName(s[:open]),
			Modifiers: normalizeModifiers(strings.Split(s[open+1:len(s)-1], ",")),
		}
	}
	return ModelName{Base: encoding.FoldName(s)}
}

func normalizeModifiers(raw []string) []string {
	var mods []string
	for _, m := range raw {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			mods = append(mods, m)
		}
	}
	slices.Sort(mods)
	return slices.Compact(mods)
}

// String returns the canonical fully-qualified name.
func (n ModelName) String() string {
	if len(n.Modifiers) == 0 {
		return n.Base
	}
	return n.Base + "(" + strings.Join(n.Modifiers, ",") + ")"
}

// Has reports whether the modifier tag is present.
func (n ModelName) Has(mod string) bool {
	_, found := slices.BinarySearch(n.Modifiers, mod)
	return found
}

// WithModifiers returns a copy with extra tags merged in.
func (n ModelName) WithModifiers(mods ...string) ModelName {
	merged := append(slices.Clone(n.Modifiers), mods...)
	return ModelName{Base: n.Base, Modifiers: normalizeModifiers(merged)}
}

// IsPersonal reports whether this is a player's primary personal model.
func (n ModelName) IsPersonal() bool {
	return strings.HasSuffix(n.Base, PersonalMarker)
}
