package doctree

import (
	"path"
	"strings"
)

// RelPath returns target relative to the slash-separated directory fromDir.
// Both are taken relative to the same output root.
func RelPath(fromDir, target string) string {
	from, to := segments(fromDir), segments(target)
	i := 0
	for i < len(from) && i < len(to) && from[i] == to[i] {
		i++
	}
	parts := make([]string, 0, len(from)-i+len(to)-i)
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}

// RelLink returns the link from the file self to the file target, both
// relative to the output root. An empty target yields "".
func RelLink(self, target string) string {
	if target == "" {
		return ""
	}
	frag := ""
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target, frag = target[:i], target[i:]
	}
	return RelPath(path.Dir(self), target) + frag
}

func segments(p string) []string {
	p = path.Clean(p)
	if p == "." || p == "/" || p == "" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}
