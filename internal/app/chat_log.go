package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"taskchat/internal/sanitizer"
	"taskchat/internal/types"
)

type entryKind int

const (
	entryMessage entryKind = iota
	entryNotice
)

type chatEntry struct {
	kind entryKind
	msg  types.Message
	text string
	at   time.Time
}

type chatRenderOptions struct {
	width         int
	timestampMode ChatTimestampMode
	markdown      bool
	formatter     ChatTimestampFormatter
	now           time.Time
}

// chatLog holds what the viewport shows and caches each entry's rendered
// block until the width or timestamp bucket changes.
type chatLog struct {
	entries     []chatEntry
	blocks      []string
	cacheWidth  int
	cacheBucket int64
}

func (l *chatLog) appendMessage(msg types.Message) {
	l.entries = append(l.entries, chatEntry{kind: entryMessage, msg: msg, at: msg.Time()})
}

func (l *chatLog) appendNotice(text string, at time.Time) {
	l.entries = append(l.entries, chatEntry{kind: entryNotice, text: text, at: at})
}

func (l *chatLog) reset() {
	l.entries = nil
	l.blocks = nil
}

func (l *chatLog) len() int {
	return len(l.entries)
}

// lastAgentText returns the newest agent message, skipping notices.
func (l *chatLog) lastAgentText() string {
	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]
		if entry.kind == entryMessage && entry.msg.Role == types.RoleAgent {
			return entry.msg.Text
		}
	}
	return ""
}

func (l *chatLog) render(opts chatRenderOptions) string {
	if len(l.entries) == 0 {
		return ""
	}
	bucket := chatTimestampRenderBucket(opts.timestampMode, opts.now)
	if opts.width != l.cacheWidth || bucket != l.cacheBucket || len(l.blocks) > len(l.entries) {
		l.blocks = nil
		l.cacheWidth = opts.width
		l.cacheBucket = bucket
	}
	for i := len(l.blocks); i < len(l.entries); i++ {
		l.blocks = append(l.blocks, renderChatEntry(l.entries[i], opts))
	}
	return strings.Join(l.blocks, "\n")
}

func renderChatEntry(entry chatEntry, opts chatRenderOptions) string {
	width := opts.width
	if width < 20 {
		width = 20
	}
	formatter := opts.formatter
	if formatter == nil {
		formatter = defaultChatTimestampFormatter{}
	}
	stamp := formatter.FormatTimestamp(entry.at, opts.now, opts.timestampMode)

	if entry.kind == entryNotice {
		line := "· " + sanitizer.Line(entry.text)
		if stamp != "" {
			line += "  " + stamp
		}
		return noticeStyle.Render(xansi.Truncate(line, width, "…"))
	}

	msg := entry.msg
	text := sanitizer.Message(msg.Text)
	isUser := msg.Role == types.RoleUser
	isError := !isUser && strings.HasPrefix(text, "Error: ")

	bubbleWidth := width * 4 / 5
	if bubbleWidth < 20 {
		bubbleWidth = width
	}
	frame := agentBubbleStyle.GetHorizontalFrameSize()
	bodyWidth := bubbleWidth - frame
	if bodyWidth < 10 {
		bodyWidth = 10
	}

	var body string
	switch {
	case !isUser && !isError && opts.markdown:
		source := text
		if looksStructured(text) {
			source = fenceCode(text)
		}
		body = renderMarkdown(source, bodyWidth)
	default:
		body = xansi.Wrap(text, bodyWidth, "")
	}

	label := "agent"
	style := agentBubbleStyle
	switch {
	case isUser:
		label = "you"
		style = userBubbleStyle
	case isError:
		style = errorBubbleStyle
	}
	meta := label
	if stamp != "" {
		meta += " · " + stamp
	}
	block := lipgloss.JoinVertical(lipgloss.Left, chatMetaStyle.Render(meta), style.Render(body))
	if isUser {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}
	return block
}
