package sanitizer

import "regexp"

type EscapePattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// OrphanedMousePattern matches SGR mouse reports whose ESC byte was lost,
// which ansi.Strip leaves behind as plain text.
var OrphanedMousePattern = &EscapePattern{
	Name:    "OrphanedMouse",
	Pattern: regexp.MustCompile(`\[<[0-9]+;[0-9]+;[0-9]+[Mm]`),
}

// BareEscapePattern matches a lone ESC left at the end of truncated output.
var BareEscapePattern = &EscapePattern{
	Name:    "BareEscape",
	Pattern: regexp.MustCompile(`\x1b$`),
}

var ResidualPatterns = []*EscapePattern{
	OrphanedMousePattern,
	BareEscapePattern,
}
