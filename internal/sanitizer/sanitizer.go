// Package sanitizer removes terminal control sequences from text that
// came from the agent server before it reaches the screen.
package sanitizer

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

type Sanitizer interface {
	Sanitize(input string) string
}

type Config struct {
	AllowNewlines      bool
	ReplaceNewlineWith string
	// TabWidth expands tabs to spaces; zero drops them.
	TabWidth       int
	MaxRunes       int
	CustomPatterns []*EscapePattern
}

type TerminalSanitizer struct {
	config   Config
	patterns []*EscapePattern
}

func NewTerminalSanitizer(config Config) *TerminalSanitizer {
	patterns := make([]*EscapePattern, 0, len(ResidualPatterns)+len(config.CustomPatterns))
	patterns = append(patterns, ResidualPatterns...)
	patterns = append(patterns, config.CustomPatterns...)
	return &TerminalSanitizer{config: config, patterns: patterns}
}

// MessageConfig keeps the layout of multi-line chat messages.
func MessageConfig() Config {
	return Config{
		AllowNewlines: true,
		TabWidth:      4,
	}
}

// LineConfig flattens text for one-line displays such as the status bar.
func LineConfig() Config {
	return Config{
		AllowNewlines:      false,
		ReplaceNewlineWith: " ",
		TabWidth:           1,
		MaxRunes:           512,
	}
}

var (
	defaultMessage = NewTerminalSanitizer(MessageConfig())
	defaultLine    = NewTerminalSanitizer(LineConfig())
)

// Message sanitizes with MessageConfig.
func Message(input string) string {
	return defaultMessage.Sanitize(input)
}

// Line sanitizes with LineConfig.
func Line(input string) string {
	return defaultLine.Sanitize(input)
}

func (s *TerminalSanitizer) Sanitize(input string) string {
	if input == "" {
		return input
	}
	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = ansi.Strip(input)
	for _, p := range s.patterns {
		input = p.Pattern.ReplaceAllString(input, "")
	}

	var b strings.Builder
	b.Grow(len(input))
	runes := 0
	for _, r := range input {
		if s.config.MaxRunes > 0 && runes >= s.config.MaxRunes {
			break
		}
		switch {
		case r == utf8.RuneError:
			continue
		case r == '\n':
			if s.config.AllowNewlines {
				b.WriteRune(r)
				runes++
				continue
			}
			b.WriteString(s.config.ReplaceNewlineWith)
			runes += utf8.RuneCountInString(s.config.ReplaceNewlineWith)
		case r == '\t':
			if s.config.TabWidth > 0 {
				b.WriteString(strings.Repeat(" ", s.config.TabWidth))
				runes += s.config.TabWidth
			}
		case r < 32 || r == 127 || (r >= 0x80 && r < 0xa0):
			continue
		default:
			b.WriteRune(r)
			runes++
		}
	}
	return b.String()
}

type NopSanitizer struct{}

func (NopSanitizer) Sanitize(input string) string {
	return input
}
