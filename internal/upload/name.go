package upload

import (
	"fmt"
	"strings"
	"time"
)

// URLPrefix is the public path under which stored images are served.
const URLPrefix = "/uploads/"

// SanitizeFilename replaces every character outside [A-Za-z0-9.-_] with '_'.
// Characters are counted in UTF-16 code units, the way browsers report file
// names: "é" becomes "_" and an emoji outside the BMP becomes "__".
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case safeChar(r):
			b.WriteRune(r)
		case r > 0xFFFF:
			b.WriteString("__")
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func safeChar(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '.' || r == '-' || r == '_'
}

// StoredName builds "<unix-millis>-<sanitized original>".
func StoredName(now time.Time, original string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFilename(original))
}

// URLFor returns the public URL of a stored file.
func URLFor(name string) string {
	return URLPrefix + name
}

// ValidName reports whether name is a single path element a store can hold.
// Dots inside a name ("photo..png") are fine; "." and ".." are not.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
