package main

import (
	"strings"
	"testing"
)

func TestRenderTableKeepsPathTail(t *testing.T) {
	long := "/srv/library/" + strings.Repeat("Very Long Author Name ", 4) + "/Dune/Dune.epub"
	out := renderTable([]column{
		{header: "ID"},
		{header: "Destination", maxWidth: 20, keepTail: true},
	}, [][]string{{"1", long}})

	if strings.Contains(out, "/srv/library/") {
		t.Fatalf("expected path head to be trimmed:\n%s", out)
	}
	if !strings.Contains(out, "…") || !strings.Contains(out, "Dune/Dune.epub") {
		t.Fatalf("expected trimmed path tail:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{{header: "A"}, {header: "B"}}, [][]string{{"only"}})
	if !strings.Contains(out, "only") || !strings.Contains(out, "B") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without columns")
	}
}

func TestTrimLeft(t *testing.T) {
	cases := []struct {
		value string
		max   int
		want  string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 4, "…def"},
		{"abcdef", 1, "…"},
		{"abcdef", 0, "abcdef"},
	}
	for _, tc := range cases {
		if got := trimLeft(tc.value, tc.max); got != tc.want {
			t.Fatalf("trimLeft(%q, %d) = %q, want %q", tc.value, tc.max, got, tc.want)
		}
	}
}
