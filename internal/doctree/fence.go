package doctree

import "strings"

// Fence tracks fenced code blocks line by line. A block opened by a run of
// backticks or tildes closes only on a bare run of the same character that
// is at least as long.
type Fence struct {
	char byte
	n    int
}

// Next consumes one line and reports whether it is a fence line or lies
// inside a fenced block.
func (f *Fence) Next(line string) bool {
	c, n, info := fenceMarker(line)
	if f.n == 0 {
		if n == 0 {
			return false
		}
		f.char, f.n = c, n
		return true
	}
	if c == f.char && n >= f.n && strings.TrimSpace(info) == "" {
		f.char, f.n = 0, 0
	}
	return true
}

// Open reports whether a fenced block is still unclosed.
func (f *Fence) Open() bool { return f.n > 0 }

func fenceMarker(line string) (byte, int, string) {
	t := strings.TrimSpace(line)
	if len(t) < 3 || (t[0] != '`' && t[0] != '~') {
		return 0, 0, ""
	}
	c := t[0]
	n := 0
	for n < len(t) && t[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, ""
	}
	info := t[n:]
	if c == '`' && strings.ContainsRune(info, '`') {
		return 0, 0, ""
	}
	return c, n, info
}
