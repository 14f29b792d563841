package contextfiles

import (
	"path/filepath"
	"strings"
)

// ignoredDirs are dependency, build and version-control directories whose
// contents are never attached, whatever the glob says.
var ignoredDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".next":        {},
	"dist":         {},
	"vendor":       {},
}

// IsIgnored reports whether any directory segment of path is an ignored directory.
func IsIgnored(path string) bool {
	dir := filepath.ToSlash(filepath.Dir(path))
	for _, segment := range strings.Split(dir, "/") {
		if _, ok := ignoredDirs[segment]; ok {
			return true
		}
	}
	return false
}

// IsDenylisted returns true if the file path should never be read.
func IsDenylisted(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	base := strings.ToLower(filepath.Base(path))

	if strings.HasPrefix(base, ".env") || strings.HasPrefix(base, "id_rsa") || base == ".npmrc" {
		return true
	}
	for _, ext := range []string{".pem", ".key", ".p12", ".pfx"} {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return strings.Contains(lower, ".aws/credentials") || strings.Contains(lower, ".docker/config.json")
}
