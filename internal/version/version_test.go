package version

import "testing"

func TestString(t *testing.T) {
	prev := Version
	Version = "1.2.3"
	defer func() { Version = prev }()

	want := "1.2.3 (commit: unknown, built: unknown)"
	if got := String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
