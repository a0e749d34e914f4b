package app

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestRenderMarkdownFormatsEmphasis(t *testing.T) {
	out := xansi.Strip(renderMarkdown("Done: **three** files updated", 60))
	if !strings.Contains(out, "three") || strings.Contains(out, "**") {
		t.Fatalf("expected markdown emphasis to render, got %q", out)
	}
}

func TestRenderMarkdownRespectsWidth(t *testing.T) {
	out := renderMarkdown(strings.Repeat("lorem ipsum ", 20), 30)
	for _, line := range strings.Split(xansi.Strip(out), "\n") {
		if xansi.StringWidth(line) > 30 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if got := renderMarkdown("\n\n", 40); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestLooksStructured(t *testing.T) {
	tests := map[string]bool{
		"{\n  \"a\": 1\n}": true,
		"[1, 2]":           true,
		"plain reply":      false,
		"{":                false,
	}
	for input, want := range tests {
		if got := looksStructured(input); got != want {
			t.Fatalf("looksStructured(%q) = %v, want %v", input, got, want)
		}
	}
	if got := fenceCode("{}\n"); got != "```json\n{}\n```" {
		t.Fatalf("unexpected fence: %q", got)
	}
}
