package namespace

import (
	"regexp"
	"strings"
)

// Path grammar
// ============
//
// A full path is absolute: a leading '/', zero or more "component/" segments,
// and a final component. Components are restricted to word characters plus
// '-' and '.'. There is no escaping, no "." or ".." traversal, and no
// trailing slash on a full path.
//
//	/a/b/c.txt  →  dir "/a/b/"  name "c.txt"
//	/c.txt      →  dir "/"      name "c.txt"
//
// The directory prefix keeps its trailing slash and is what the traversal
// engine walks; the final name is the leaf used for the node lookup.

var (
	fullPathRE  = regexp.MustCompile(`^(/(?:[\w\-.]+/)*)([\w\-.]+)$`)
	componentRE = regexp.MustCompile(`^[\w\-.]+$`)
)

// SplitPath splits a full path into its directory prefix (including the
// trailing slash) and final component.
//
// On any grammar violation (not absolute, empty, disallowed characters,
// missing final component) it returns a CodeInvalidPath error and never a
// partial parse.
func SplitPath(full string) (dir, name string, err error) {
	m := fullPathRE.FindStringSubmatch(full)
	if m == nil {
		return "", "", NewInvalidPath(full, "must match /dir1/dir2/.../name")
	}
	return m[1], m[2], nil
}

// ValidName reports whether name is a legal path component.
func ValidName(name string) bool {
	return componentRE.MatchString(name)
}

// splitComponents breaks a directory path into its ordered non-empty
// components. Both "/" and "" yield no components: the path resolves to the
// root itself, which is a valid traversal result.
func splitComponents(path string) []string {
	parts := strings.Split(path, "/")
	components := parts[:0]
	for _, p := range parts {
		if p != "" {
			components = append(components, p)
		}
	}
	return components
}
