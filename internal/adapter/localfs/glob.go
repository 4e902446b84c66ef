package localfs

import (
	"path/filepath"
	"strings"
)

// matchGlob matches a slash-separated relative path against one exclusion
// glob. Supported syntax:
//   - *  matches any non-separator characters
//   - ** matches zero or more whole path segments
//   - ?  matches a single non-separator character
//   - [abc] character class
//
// Patterns without a separator, like ".git" or "*.log", apply to every
// path segment. Literal parts bind to whole segments only: "**/.git/**"
// excludes ".git" directories, never "a.github.go".
func matchGlob(pattern, path string) bool {
	if !strings.Contains(pattern, "/") {
		for _, seg := range strings.Split(path, "/") {
			if ok, _ := filepath.Match(pattern, seg); ok {
				return true
			}
		}
		return false
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

// matchSegments matches pattern segments against path segments, with "**"
// consuming zero or more of them.
func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			if len(pat) == 1 {
				return true
			}
			for skip := 0; skip <= len(segs); skip++ {
				if matchSegments(pat[1:], segs[skip:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, _ := filepath.Match(pat[0], segs[0]); !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

// excluded reports whether the relative path matches any exclusion glob.
func excluded(path string, globs []string) bool {
	path = filepath.ToSlash(path)
	for _, g := range globs {
		if matchGlob(g, path) {
			return true
		}
	}
	return false
}
