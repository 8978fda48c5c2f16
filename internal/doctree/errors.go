package doctree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoChaptersFound = errors.New("no chapters found")
	ErrEncoding        = errors.New("encoding error")
)

// StructureError is returned when analysis cannot produce a hierarchy.
type StructureError struct {
	Kind     string
	Line     int      // last line scanned
	Patterns []string // rule names in precedence order
	Orphans  int
	Warnings []Warning
	Sentinel error
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: scanned %d lines with %d patterns [%s], %d orphan sections",
		e.Kind, e.Line, len(e.Patterns), strings.Join(e.Patterns, ", "), e.Orphans)
}

func (e *StructureError) Unwrap() error { return e.Sentinel }

// NoChapters builds the NoChaptersFound error.
func NoChapters(lines int, patterns []string, warnings []Warning) *StructureError {
	return &StructureError{
		Kind:     "NoChaptersFound",
		Line:     lines,
		Patterns: patterns,
		Orphans:  countKind(warnings, WarnOrphanSection),
		Warnings: warnings,
		Sentinel: ErrNoChaptersFound,
	}
}

// EncodingError reports a buffer that cannot be indexed by line.
type EncodingError struct {
	Line   int
	Offset int
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error at line %d byte %d: %s", e.Line, e.Offset, e.Reason)
}

func (e *EncodingError) Unwrap() error { return ErrEncoding }

// WarningKind classifies a recoverable condition.
type WarningKind string

const (
	WarnOrphanSection  WarningKind = "orphan_section"
	WarnMalformedAsset WarningKind = "malformed_asset_reference"
	WarnUnderTagged    WarningKind = "under_tagged_block"
)

// Warning is a recoverable condition collected during a run.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Line    int         `json:"line,omitempty"`
	Unit    string      `json:"unit,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(string(w.Kind))
	if w.Line > 0 {
		fmt.Fprintf(&b, " line %d", w.Line)
	}
	if w.Unit != "" {
		fmt.Fprintf(&b, " unit %s", w.Unit)
	}
	b.WriteString(": ")
	b.WriteString(w.Message)
	return b.String()
}

func countKind(ws []Warning, k WarningKind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == k {
			n++
		}
	}
	return n
}
