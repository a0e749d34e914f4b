package types

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one chat turn. The persisted shape keeps the flat
// {type, text} layout; ts was added later and may be missing.
type Message struct {
	Role      Role   `json:"type"`
	Text      string `json:"text"`
	Timestamp string `json:"ts,omitempty"`
}

func NewMessage(role Role, text string, at time.Time) Message {
	ts := ""
	if !at.IsZero() {
		ts = at.UTC().Format(time.RFC3339)
	}
	return Message{Role: normalizeRole(role), Text: text, Timestamp: ts}
}

func (m Message) Time() time.Time {
	raw := strings.TrimSpace(m.Timestamp)
	if raw == "" {
		return time.Time{}
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return at
}

// normalizeRole maps anything that is not a user turn to the agent side,
// matching how stored history has always been painted.
func normalizeRole(role Role) Role {
	if role == RoleUser {
		return RoleUser
	}
	return RoleAgent
}

func CloneMessages(in []Message) []Message {
	if len(in) == 0 {
		return []Message{}
	}
	out := make([]Message, len(in))
	copy(out, in)
	return out
}

// NormalizeMessages fixes up roles on messages loaded from storage.
func NormalizeMessages(in []Message) []Message {
	out := CloneMessages(in)
	for i := range out {
		out[i].Role = normalizeRole(out[i].Role)
	}
	return out
}
