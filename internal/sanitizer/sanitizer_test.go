package sanitizer

import (
	"regexp"
	"strings"
	"testing"
)

func TestTerminalSanitizer_Sanitize(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		input    string
		expected string
	}{
		{
			name:     "message config keeps newlines",
			config:   MessageConfig(),
			input:    "line1\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "line config replaces newlines with space",
			config:   LineConfig(),
			input:    "line1\nline2",
			expected: "line1 line2",
		},
		{
			name:     "crlf normalized",
			config:   MessageConfig(),
			input:    "a\r\nb\rc",
			expected: "a\nbc",
		},
		{
			name:     "ANSI color code",
			config:   MessageConfig(),
			input:    "\x1b[31mred text\x1b[0m",
			expected: "red text",
		},
		{
			name:     "OSC window title",
			config:   MessageConfig(),
			input:    "\x1b]0;My Title\x07text",
			expected: "text",
		},
		{
			name:     "OSC hyperlink",
			config:   MessageConfig(),
			input:    "\x1b]8;;http://example.com\x07link\x1b]8;;\x07",
			expected: "link",
		},
		{
			name:     "clear screen",
			config:   MessageConfig(),
			input:    "\x1b[2J\x1b[Hdone",
			expected: "done",
		},
		{
			name:     "orphaned mouse pattern without ESC",
			config:   MessageConfig(),
			input:    "[<65;155;38M[<65;155;38Mtext",
			expected: "text",
		},
		{
			name:     "removes control characters",
			config:   MessageConfig(),
			input:    "hello\x00world\x1ftest\x7f",
			expected: "helloworldtest",
		},
		{
			name:     "tabs expanded",
			config:   MessageConfig(),
			input:    "col1\tcol2",
			expected: "col1    col2",
		},
		{
			name:     "tabs dropped without width",
			config:   Config{},
			input:    "col1\tcol2",
			expected: "col1col2",
		},
		{
			name:     "preserves unicode",
			config:   MessageConfig(),
			input:    "日本語\n中文\n한국어",
			expected: "日本語\n中文\n한국어",
		},
		{
			name:     "max runes does not split characters",
			config:   Config{MaxRunes: 2},
			input:    "日本語",
			expected: "日本",
		},
		{
			name:     "html left alone",
			config:   MessageConfig(),
			input:    "<script>alert(1)</script>",
			expected: "<script>alert(1)</script>",
		},
		{
			name:     "custom pattern",
			config:   Config{CustomPatterns: []*EscapePattern{{Name: "custom", Pattern: regexp.MustCompile(`FOO`)}}},
			input:    "FOObarFOO",
			expected: "bar",
		},
		{
			name:     "empty input",
			config:   MessageConfig(),
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTerminalSanitizer(tt.config)
			got := s.Sanitize(tt.input)
			if got != tt.expected {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLineTruncates(t *testing.T) {
	got := Line(strings.Repeat("x", 600))
	if len(got) != 512 {
		t.Fatalf("expected 512 runes, got %d", len(got))
	}
}

func TestNopSanitizer(t *testing.T) {
	input := "\x1b[31mhello\x1b[0m"
	if got := (NopSanitizer{}).Sanitize(input); got != input {
		t.Errorf("NopSanitizer.Sanitize(%q) = %q, want %q", input, got, input)
	}
}

func BenchmarkTerminalSanitizer_Sanitize(b *testing.B) {
	input := strings.Repeat("\x1b[31m", 100) + "hello world\n" + strings.Repeat("test ", 100)
	s := NewTerminalSanitizer(MessageConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Sanitize(input)
	}
}
