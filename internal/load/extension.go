package load

import (
	"strings"
)

// extensionOf derives the lower-cased format tag from a location name: the
// substring after the final dot, with any URL query or fragment stripped
// first. A name without a dot has no tag, which is an error rather than a
// default.
func extensionOf(loc Location) (string, error) {
	name := loc.Name()

	trimmed := name
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}

	dot := strings.LastIndexByte(trimmed, '.')
	if dot < 0 || dot == len(trimmed)-1 {
		return "", &NoExtensionError{Name: name}
	}
	tag := trimmed[dot+1:]
	if strings.ContainsAny(tag, "/\\") {
		// The final dot belongs to a directory component.
		return "", &NoExtensionError{Name: name}
	}
	return strings.ToLower(tag), nil
}
