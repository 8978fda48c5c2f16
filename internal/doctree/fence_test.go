package doctree

import "testing"

func TestFence(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []bool
	}{
		{
			name:  "backticks",
			lines: []string{"text", "```go", "code", "```", "after"},
			want:  []bool{false, true, true, true, false},
		},
		{
			name:  "tilde inside backtick block",
			lines: []string{"```md", "~~~", "# inside", "```", "# outside"},
			want:  []bool{true, true, true, true, false},
		},
		{
			name:  "shorter closer is content",
			lines: []string{"````", "```", "still code", "````", "out"},
			want:  []bool{true, true, true, true, false},
		},
		{
			name:  "closer with info string is content",
			lines: []string{"~~~", "~~~ python", "x", "~~~~", "y"},
			want:  []bool{true, true, true, true, false},
		},
		{
			name:  "inline code is not a fence",
			lines: []string{"``not a fence``", "```js ` x", "plain"},
			want:  []bool{false, false, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Fence
			for i, line := range tt.lines {
				if got := f.Next(line); got != tt.want[i] {
					t.Errorf("line %d %q: got %v, want %v", i, line, got, tt.want[i])
				}
			}
			if f.Open() {
				t.Error("fence left open")
			}
		})
	}
}
