package app

import (
	"strings"
	"testing"
	"time"

	xansi "github.com/charmbracelet/x/ansi"

	"taskchat/internal/types"
)

var chatTestNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

func plainRender(l *chatLog, markdown bool) string {
	return xansi.Strip(l.render(chatRenderOptions{
		width:         80,
		timestampMode: ChatTimestampModeClock,
		markdown:      markdown,
		now:           chatTestNow,
	}))
}

func TestChatLogRendersRolesAndNotices(t *testing.T) {
	var l chatLog
	l.appendMessage(types.NewMessage(types.RoleUser, "open settings", chatTestNow.Add(-time.Minute)))
	l.appendNotice("Task queued", chatTestNow)
	l.appendMessage(types.NewMessage(types.RoleAgent, "Settings opened", chatTestNow))

	out := plainRender(&l, false)
	for _, want := range []string{"you · 10:29", "open settings", "· Task queued", "agent · 10:30", "Settings opened"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in render:\n%s", want, out)
		}
	}
	if strings.Index(out, "open settings") > strings.Index(out, "Settings opened") {
		t.Fatalf("expected history order to be preserved:\n%s", out)
	}
}

func TestChatLogLegacyMessageHasNoStamp(t *testing.T) {
	var l chatLog
	l.appendMessage(types.Message{Role: types.RoleAgent, Text: "old reply"})
	out := plainRender(&l, false)
	if !strings.Contains(out, "agent\n") && !strings.HasPrefix(out, "agent") {
		t.Fatalf("expected bare label, got:\n%s", out)
	}
	if strings.Contains(out, "agent ·") {
		t.Fatalf("expected no timestamp for legacy message:\n%s", out)
	}
}

func TestChatLogStripsTerminalEscapes(t *testing.T) {
	var l chatLog
	l.appendMessage(types.NewMessage(types.RoleAgent, "\x1b]0;pwned\x07safe \x1b[31mtext\x1b[0m", chatTestNow))
	raw := l.render(chatRenderOptions{width: 80, timestampMode: ChatTimestampModeOff, now: chatTestNow})
	if strings.Contains(raw, "pwned") || strings.Contains(raw, "\x07") {
		t.Fatalf("expected OSC payload to be removed: %q", raw)
	}
	if !strings.Contains(xansi.Strip(raw), "safe text") {
		t.Fatalf("expected text to survive: %q", raw)
	}
}

func TestChatLogErrorRepliesSkipMarkdown(t *testing.T) {
	var l chatLog
	l.appendMessage(types.NewMessage(types.RoleAgent, "Error: **boom**", chatTestNow))
	out := plainRender(&l, true)
	if !strings.Contains(out, "Error: **boom**") {
		t.Fatalf("expected literal error text, got:\n%s", out)
	}
}

func TestChatLogResetAndLastAgentText(t *testing.T) {
	var l chatLog
	if got := l.lastAgentText(); got != "" {
		t.Fatalf("expected empty log to have no reply, got %q", got)
	}
	l.appendMessage(types.NewMessage(types.RoleAgent, "first", chatTestNow))
	l.appendMessage(types.NewMessage(types.RoleUser, "again", chatTestNow))
	l.appendNotice("Running task", chatTestNow)
	if got := l.lastAgentText(); got != "first" {
		t.Fatalf("expected newest agent text, got %q", got)
	}
	l.reset()
	if l.len() != 0 || l.render(chatRenderOptions{width: 80}) != "" {
		t.Fatalf("expected reset to empty the log")
	}
}

func TestChatLogCacheTracksWidth(t *testing.T) {
	var l chatLog
	l.appendMessage(types.NewMessage(types.RoleAgent, strings.Repeat("word ", 30), chatTestNow))
	wide := l.render(chatRenderOptions{width: 120, now: chatTestNow})
	narrow := l.render(chatRenderOptions{width: 40, now: chatTestNow})
	if wide == narrow {
		t.Fatalf("expected re-render when width changes")
	}
	for _, line := range strings.Split(xansi.Strip(narrow), "\n") {
		if xansi.StringWidth(line) > 40 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestRenderQueueDrainsInOrder(t *testing.T) {
	q := newRenderQueue()
	q.SetStatus("Idle")
	q.RenderMessage(types.NewMessage(types.RoleUser, "hi", chatTestNow))
	q.SetQueue(2)
	q.SetInputsEnabled(false)
	q.Notice("Task queued")
	q.SetDraft("better")
	q.ResetLog()

	ops := q.drain()
	kinds := []renderOpKind{opStatus, opMessage, opQueue, opInputs, opNotice, opDraft, opReset}
	if len(ops) != len(kinds) {
		t.Fatalf("expected %d ops, got %d", len(kinds), len(ops))
	}
	for i, kind := range kinds {
		if ops[i].kind != kind {
			t.Fatalf("op %d: expected kind %d, got %d", i, kind, ops[i].kind)
		}
	}
	if ops[2].size != 2 || ops[3].enabled || ops[5].text != "better" {
		t.Fatalf("unexpected op payloads: %+v", ops)
	}
	if len(q.drain()) != 0 {
		t.Fatalf("expected drain to empty the queue")
	}
}
