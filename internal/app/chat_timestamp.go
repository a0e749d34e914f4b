package app

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type ChatTimestampMode string

const (
	ChatTimestampModeClock    ChatTimestampMode = "clock"
	ChatTimestampModeRelative ChatTimestampMode = "relative"
	ChatTimestampModeISO      ChatTimestampMode = "iso"
	ChatTimestampModeOff      ChatTimestampMode = "off"
)

var chatTimestampModes = map[string]ChatTimestampMode{
	string(ChatTimestampModeClock):    ChatTimestampModeClock,
	string(ChatTimestampModeRelative): ChatTimestampModeRelative,
	string(ChatTimestampModeISO):      ChatTimestampModeISO,
	string(ChatTimestampModeOff):      ChatTimestampModeOff,
}

type ChatTimestampFormatter interface {
	FormatTimestamp(createdAt time.Time, now time.Time, mode ChatTimestampMode) string
}

type defaultChatTimestampFormatter struct{}

// normalizeChatTimestampMode maps unknown or blank values to clock.
func normalizeChatTimestampMode(raw ChatTimestampMode) ChatTimestampMode {
	if mode, ok := chatTimestampModes[strings.ToLower(strings.TrimSpace(string(raw)))]; ok {
		return mode
	}
	return ChatTimestampModeClock
}

func parseChatTimestampMode(raw string) ChatTimestampMode {
	return normalizeChatTimestampMode(ChatTimestampMode(raw))
}

// chatTimestampRenderBucket changes whenever rendered timestamps may
// change; only relative mode depends on the clock.
func chatTimestampRenderBucket(mode ChatTimestampMode, now time.Time) int64 {
	if normalizeChatTimestampMode(mode) != ChatTimestampModeRelative {
		return -1
	}
	return orNow(now).UTC().Unix() / 60
}

func (defaultChatTimestampFormatter) FormatTimestamp(createdAt time.Time, now time.Time, mode ChatTimestampMode) string {
	if createdAt.IsZero() {
		return ""
	}
	switch normalizeChatTimestampMode(mode) {
	case ChatTimestampModeOff:
		return ""
	case ChatTimestampModeISO:
		return createdAt.UTC().Format(time.RFC3339)
	case ChatTimestampModeRelative:
		return formatRelative(orNow(now).Sub(createdAt))
	default:
		return formatClock(createdAt, orNow(now))
	}
}

// formatClock shows the time of day, with the date for older messages.
func formatClock(createdAt, now time.Time) string {
	local := createdAt.In(now.Location())
	ly, lm, ld := local.Date()
	ny, nm, nd := now.Date()
	if ly == ny && lm == nm && ld == nd {
		return local.Format("15:04")
	}
	return local.Format("Jan 2 15:04")
}

var relativeSteps = []struct {
	below time.Duration
	unit  time.Duration
	name  string
}{
	{below: time.Minute, unit: time.Second, name: "second"},
	{below: time.Hour, unit: time.Minute, name: "minute"},
	{below: 24 * time.Hour, unit: time.Hour, name: "hour"},
	{below: time.Duration(math.MaxInt64), unit: 24 * time.Hour, name: "day"},
}

func formatRelative(delta time.Duration) string {
	if delta < 30*time.Second {
		return "just now"
	}
	for _, step := range relativeSteps {
		if delta >= step.below {
			continue
		}
		n := int(delta.Round(step.unit) / step.unit)
		if n <= 1 {
			return "1 " + step.name + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, step.name)
	}
	return ""
}

func orNow(now time.Time) time.Time {
	if now.IsZero() {
		return time.Now()
	}
	return now
}
