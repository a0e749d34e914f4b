package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
)

type EventType string

const (
	EventStatus   EventType = "status"
	EventUserTask EventType = "user_task"
	EventQueued   EventType = "queued"
	EventDequeued EventType = "dequeued"
	EventQueue    EventType = "queue"
	EventUpdate   EventType = "update"
	EventFinal    EventType = "final"
	EventError    EventType = "error"
	EventHello    EventType = "hello"
)

var ErrMissingEventType = errors.New("event type is required")

// Event is one decoded stream notification. Fields that do not apply to
// the event type are left zero.
type Event struct {
	Type    EventType       `json:"type"`
	Status  string          `json:"status,omitempty"`
	Text    string          `json:"text,omitempty"`
	Size    *int            `json:"size,omitempty"`
	Node    string          `json:"node,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
	TaskID  string          `json:"task_id,omitempty"`
	Goal    string          `json:"goal,omitempty"`
}

// DecodeEvent parses a stream payload. Fields of the wrong JSON kind are
// treated as absent rather than failing the whole event; only a payload
// that is not an object or has no string type is rejected.
func DecodeEvent(data []byte) (Event, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, err
	}
	typ := rawString(raw["type"])
	if strings.TrimSpace(typ) == "" {
		return Event{}, ErrMissingEventType
	}
	event := Event{
		Type:    EventType(typ),
		Status:  rawString(raw["status"]),
		Text:    rawString(raw["text"]),
		Size:    rawInt(raw["size"]),
		Node:    rawString(raw["node"]),
		Message: rawString(raw["message"]),
		TaskID:  rawString(raw["task_id"]),
		Goal:    rawString(raw["goal"]),
	}
	if result, ok := raw["result"]; ok {
		event.Result = append(json.RawMessage(nil), result...)
	}
	return event, nil
}

// ResultText renders a final payload for display: strings verbatim,
// anything else as two-space indented JSON.
func (e Event) ResultText() string {
	trimmed := bytes.TrimSpace(e.Result)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return text
		}
	}
	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return out.String()
}

func IntPtr(v int) *int {
	return &v
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func rawInt(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	return IntPtr(int(f))
}
