package app

import (
	"fmt"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

const statusPlaceholder = "Waiting for status"

// composeStatusLine lays out "<activity> <status> ... queue N" in width
// cells, truncating the status text first.
func composeStatusLine(activity, status string, queue, width int) string {
	if width <= 0 {
		return ""
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = statusPlaceholder
	}
	right := fmt.Sprintf("queue %d", queue)
	rightWidth := runewidth.StringWidth(right)

	prefix := ""
	prefixWidth := 0
	if activity != "" {
		prefix = activity + " "
		prefixWidth = xansi.StringWidth(prefix)
	}

	available := width - prefixWidth - rightWidth - 1
	if available < 1 {
		return runewidth.Truncate(status, width, "…")
	}
	status = runewidth.Truncate(status, available, "…")
	gap := width - prefixWidth - runewidth.StringWidth(status) - rightWidth
	if gap < 1 {
		gap = 1
	}
	return prefix + statusStyle.Render(status) + strings.Repeat(" ", gap) + queueStyle.Render(right)
}
