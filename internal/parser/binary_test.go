package parser

import (
	"io"
	"os"
	"strings"
	"testing"
)

func TestPageNumberLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"12", true},
		{"- 12 -", true},
		{"— 7 —", true},
		{"第 3 页", true},
		{"第12页", true},
		{"# 第一章 总论", false},
		{"1.2 节", false},
		{"12 Angry Men", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := pageNumberLine.MatchString(tt.line); got != tt.want {
			t.Errorf("pageNumberLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestSpool(t *testing.T) {
	f, size, cleanup, err := spool(strings.NewReader("hello"), "booksplit-test-*")
	if err != nil {
		t.Fatalf("spool: %v", err)
	}
	path := f.Name()
	if size != 5 {
		t.Errorf("expected size 5, got %d", size)
	}
	data, err := io.ReadAll(f)
	if err != nil || string(data) != "hello" {
		t.Errorf("expected spooled content from the start, got %q (%v)", data, err)
	}
	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected temp file removed, stat err = %v", err)
	}
}

func TestBlank(t *testing.T) {
	if !blank([]string{"", " \n"}) {
		t.Error("expected whitespace pages to be blank")
	}
	if blank([]string{"", "text"}) {
		t.Error("expected a page with text to be non-blank")
	}
}
