package doctree

import "testing"

func TestRelPath(t *testing.T) {
	tests := []struct{ from, target, want string }{
		{"", "images/a.png", "images/a.png"},
		{"chapters", "images/a.png", "../images/a.png"},
		{"images/sub", "images/a.png", "../a.png"},
		{"a/b/c", "a/x.png", "../../x.png"},
	}
	for _, tt := range tests {
		if got := RelPath(tt.from, tt.target); got != tt.want {
			t.Errorf("RelPath(%q, %q) = %q, want %q", tt.from, tt.target, got, tt.want)
		}
	}
}

func TestRelLink(t *testing.T) {
	tests := []struct{ self, target, want string }{
		{"sections/01-01_a.md", "chapters/01_x.md", "../chapters/01_x.md"},
		{"chapters/01_x.md", "chapters/02_y.md", "02_y.md"},
		{"chapters/01_x.md", "README.md#unit-1", "../README.md#unit-1"},
		{"README.md", "chapters/01_x.md", "chapters/01_x.md"},
		{"chapters/01_x.md", "", ""},
	}
	for _, tt := range tests {
		if got := RelLink(tt.self, tt.target); got != tt.want {
			t.Errorf("RelLink(%q, %q) = %q, want %q", tt.self, tt.target, got, tt.want)
		}
	}
}
