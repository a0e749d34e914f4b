package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"taskchat/internal/types"
)

type ExportFormat string

const (
	ExportText ExportFormat = "text"
	ExportHTML ExportFormat = "html"
	ExportJSON ExportFormat = "json"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportText:
		return ExportText, nil
	case ExportHTML:
		return ExportHTML, nil
	case ExportJSON:
		return ExportJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want text, html or json)", raw)
	}
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML makes text safe to place inside HTML element content or a
// quoted attribute.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// Export writes history as a transcript in the given format.
func Export(w io.Writer, history []types.Message, format ExportFormat) error {
	switch format {
	case ExportText, "":
		return exportText(w, history)
	case ExportHTML:
		return exportHTML(w, history)
	case ExportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(types.CloneMessages(history))
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func exportText(w io.Writer, history []types.Message) error {
	out := bufio.NewWriter(w)
	for _, msg := range history {
		prefix := string(msg.Role) + ": "
		if ts := strings.TrimSpace(msg.Timestamp); ts != "" {
			prefix = "[" + ts + "] " + prefix
		}
		lines := strings.Split(msg.Text, "\n")
		fmt.Fprintln(out, prefix+lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintln(out, "  "+line)
		}
	}
	return out.Flush()
}

const htmlHead = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>taskchat transcript</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
.msg { margin: 0.5rem 0; padding: 0.5rem 0.75rem; border-radius: 6px; white-space: pre-wrap; }
.user { background: #e8f0fe; }
.agent { background: #f1f3f4; }
.ts { color: #777; font-size: 0.8rem; display: block; }
</style>
</head>
<body>
`

func exportHTML(w io.Writer, history []types.Message) error {
	out := bufio.NewWriter(w)
	out.WriteString(htmlHead)
	for _, msg := range history {
		fmt.Fprintf(out, `<div class="msg %s">`, EscapeHTML(string(msg.Role)))
		if ts := strings.TrimSpace(msg.Timestamp); ts != "" {
			fmt.Fprintf(out, `<span class="ts">%s</span>`, EscapeHTML(ts))
		}
		out.WriteString(EscapeHTML(msg.Text))
		out.WriteString("</div>\n")
	}
	out.WriteString("</body>\n</html>\n")
	return out.Flush()
}
