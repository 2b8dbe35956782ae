package file

import (
	"path"
	"strings"
)

// Clean normalises a storage key: forward slashes, no leading slash, no
// dot segments.
func Clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	cleaned := path.Clean("/" + name)
	return strings.TrimPrefix(cleaned, "/")
}

// WithinDirectory reports whether name resolves to a file inside dir.
// Both are keys relative to the same root.
func WithinDirectory(name, dir string) bool {
	if strings.Contains(strings.ReplaceAll(name, "\\", "/"), "../") {
		return false
	}

	name = Clean(name)
	dir = Clean(dir)
	if name == "" {
		return false
	}
	if dir == "" {
		return true
	}

	return strings.HasPrefix(name, dir+"/")
}
