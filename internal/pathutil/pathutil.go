// Package pathutil implements small path helpers shared by the CLIs and
// the output-file strategy: extension checks and sibling temp-file naming.
package pathutil

import (
	"path/filepath"
	"strings"
)

// IsOggExtension reports whether path's extension (ASCII-lowercased, per
// spec.md §9's Open Question resolution) is one of the recognized
// Ogg-family media extensions.
func IsOggExtension(path string, recognized []string) bool {
	ext := strings.TrimPrefix(lowerASCII(filepath.Ext(path)), ".")
	for _, r := range recognized {
		if ext == r {
			return true
		}
	}
	return false
}

// SiblingTempPath returns the path of the temporary file outputfile.NewTarget
// writes to before an atomic rename: same directory as finalPath, stem suffixed
// "-new", original extension preserved.
func SiblingTempPath(finalPath string) string {
	dir := filepath.Dir(finalPath)
	ext := filepath.Ext(finalPath)
	stem := strings.TrimSuffix(filepath.Base(finalPath), ext)
	return filepath.Join(dir, stem+"-new"+ext)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
