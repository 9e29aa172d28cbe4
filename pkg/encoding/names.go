package encoding

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldName normalizes a model or skin name for case-insensitive lookup.
func FoldName(name string) string {
	// A Caser keeps state and can't be shared between goroutines.
	return cases.Fold().String(strings.TrimSpace(name))
}

// IsSafeName reports whether name can be used as a single file name.
func IsSafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}
