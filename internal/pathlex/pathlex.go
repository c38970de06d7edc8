// Package pathlex implements the pure path-lexing operations the Categorizer
// relies on: ASCII lowercasing, POSIX-style extension splitting, and
// disc-image sub-path canonicalization.
package pathlex

import "strings"

// ToLower ASCII-lowercases path. Non-ASCII bytes pass through unchanged.
func ToLower(path string) string {
	b := []byte(path)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return path
	}
	return string(b)
}

// SplitExt splits path into (root, ext) the way the classical "split
// extension" rule does: the extension is the substring after the last '.'
// that lies strictly after the last '/' and is preceded by at least one
// non-'.' character within the same path component. The dot itself is not
// included in ext. If no such '.' exists, ext is empty and root is path
// unchanged.
func SplitExt(path string) (root, ext string) {
	sep := strings.LastIndexByte(path, '/')
	component := path[sep+1:]

	dot := strings.LastIndexByte(component, '.')
	if dot <= 0 {
		return path, ""
	}
	if strings.Trim(component[:dot], ".") == "" {
		// Everything before the dot in this component is itself dots
		// (e.g. "..foo" has no "real" stem), so there is no extension.
		return path, ""
	}

	base := sep + 1
	return path[:base+dot], component[dot+1:]
}

// Canonicalize reduces disc-image sub-files to the directory identity so
// that multi-file disc images count as one logical video. root and ext are
// assumed already lowercased.
func Canonicalize(root, ext string) string {
	switch ext {
	case "m2ts":
		if dir, ok := stripBdmvStream(root); ok {
			return dir
		}
	case "vob":
		if dir, ok := replaceVtsComponent(root); ok {
			return dir
		}
	}
	return root
}

// stripBdmvStream strips a trailing "/bdmv/stream/<any>" suffix from root,
// returning the directory that contains "bdmv/".
func stripBdmvStream(root string) (string, bool) {
	segs := strings.Split(root, "/")
	if len(segs) < 3 {
		return "", false
	}
	n := len(segs)
	if segs[n-2] != "stream" || segs[n-3] != "bdmv" || segs[n-1] == "" {
		return "", false
	}
	return strings.Join(segs[:n-3], "/"), true
}

// replaceVtsComponent replaces the terminal path component with "video_ts"
// if it ends in "vts" followed by only digits and/or underscores.
func replaceVtsComponent(root string) (string, bool) {
	sep := strings.LastIndexByte(root, '/')
	component := root[sep+1:]
	if !endsInVts(component) {
		return "", false
	}
	return root[:sep+1] + "video_ts", true
}

// endsInVts reports whether s contains "vts" somewhere, followed to the end
// of the string by only digits and/or underscores.
func endsInVts(s string) bool {
	i := strings.LastIndex(s, "vts")
	if i < 0 {
		return false
	}
	for _, c := range s[i+3:] {
		if c != '_' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
