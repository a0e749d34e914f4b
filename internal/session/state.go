package session

import (
	"strings"
	"time"

	"taskchat/internal/types"
)

const (
	noticeQueued   = "Task queued"
	noticeDequeued = "Running task"
	activePrefix   = "Active: "
	errorPrefix    = "Error: "

	maxSettledTasks  = 256
	maxPendingEchoes = 32
)

// State is everything the chat view shows. It is a value: Apply never
// mutates its input, so transitions can be checked in isolation.
type State struct {
	History    []types.Message
	Status     string
	Queue      int
	Sending    bool
	Enhancing  bool
	ActiveNode string
	ShutDown   bool
	// StatusFromStream is set once the stream has reported a status; the
	// startup snapshot must not overwrite it afterwards.
	StatusFromStream bool

	settled       []string
	lastResult    string
	pendingEchoes []string
	// awaiting counts user turns whose result has not arrived yet.
	awaiting int
}

func (s State) clone() State {
	out := s
	out.History = types.CloneMessages(s.History)
	out.settled = append([]string(nil), s.settled...)
	out.pendingEchoes = append([]string(nil), s.pendingEchoes...)
	return out
}

// Snapshot returns a copy that shares no slices with s.
func (s State) Snapshot() State {
	return s.clone()
}

type EffectKind int

const (
	EffectAppend EffectKind = iota + 1
	EffectNotice
	EffectStatus
	EffectQueue
)

func (k EffectKind) String() string {
	switch k {
	case EffectAppend:
		return "append"
	case EffectNotice:
		return "notice"
	case EffectStatus:
		return "status"
	case EffectQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// Effect is one thing the renderer (and, for appends, the store) has to
// reflect after a transition.
type Effect struct {
	Kind    EffectKind
	Message types.Message
	Text    string
	Queue   int
}

type Transition struct {
	State   State
	Effects []Effect
	// Dropped names why an event was discarded without effect, if it was.
	Dropped string
}

func (t Transition) Appended() bool {
	for _, effect := range t.Effects {
		if effect.Kind == EffectAppend {
			return true
		}
	}
	return false
}

// Apply maps one stream event onto the state. Messages it creates carry
// no timestamp; see ApplyAt.
func Apply(s State, event types.Event) Transition {
	return ApplyAt(s, event, time.Time{})
}

func ApplyAt(s State, event types.Event, now time.Time) Transition {
	next := s.clone()
	switch event.Type {
	case types.EventStatus:
		next.Status = event.Status
		next.StatusFromStream = true
		return Transition{State: next, Effects: []Effect{{Kind: EffectStatus, Text: next.Status}}}

	case types.EventUserTask:
		if next.consumeEcho(event.Text) {
			return Transition{State: next, Dropped: "local echo"}
		}
		msg := types.NewMessage(types.RoleUser, event.Text, now)
		next.appendMessage(msg)
		next.lastResult = ""
		next.awaiting++
		return Transition{State: next, Effects: []Effect{{Kind: EffectAppend, Message: msg}}}

	case types.EventQueued:
		notice := noticeQueued
		if goal := strings.TrimSpace(event.Goal); goal != "" {
			notice += ": " + goal
		}
		effects := []Effect{{Kind: EffectNotice, Text: notice}}
		if event.Size != nil {
			next.Queue = clampQueue(*event.Size)
			effects = append(effects, Effect{Kind: EffectQueue, Queue: next.Queue})
		}
		return Transition{State: next, Effects: effects}

	case types.EventDequeued:
		return Transition{State: next, Effects: []Effect{{Kind: EffectNotice, Text: noticeDequeued}}}

	case types.EventQueue:
		if event.Size == nil {
			return Transition{State: next, Dropped: "queue without size"}
		}
		next.Queue = clampQueue(*event.Size)
		return Transition{State: next, Effects: []Effect{{Kind: EffectQueue, Queue: next.Queue}}}

	case types.EventUpdate:
		node := strings.TrimSpace(event.Node)
		if node == "" {
			return Transition{State: next, Dropped: "update without node"}
		}
		next.ActiveNode = node
		next.Status = activePrefix + node
		return Transition{State: next, Effects: []Effect{{Kind: EffectStatus, Text: next.Status}}}

	case types.EventFinal:
		return next.settle(event.TaskID, event.ResultText(), now)

	case types.EventError:
		return next.settle(event.TaskID, errorPrefix+event.Message, now)

	default:
		return Transition{State: next, Dropped: "unknown event type"}
	}
}

// settle appends a task result unless it repeats one already applied:
// the same task id, or without ids the same text while no task is
// waiting for its result.
func (s State) settle(taskID, text string, now time.Time) Transition {
	taskID = strings.TrimSpace(taskID)
	if taskID != "" {
		for _, id := range s.settled {
			if id == taskID {
				return Transition{State: s, Dropped: "task already settled"}
			}
		}
	} else if s.awaiting == 0 && s.lastResult != "" && s.lastResult == text {
		return Transition{State: s, Dropped: "repeated result"}
	}
	msg := types.NewMessage(types.RoleAgent, text, now)
	s.appendMessage(msg)
	s.lastResult = text
	if s.awaiting > 0 {
		s.awaiting--
	}
	if taskID != "" {
		s.settled = append(s.settled, taskID)
		if len(s.settled) > maxSettledTasks {
			s.settled = s.settled[len(s.settled)-maxSettledTasks:]
		}
	}
	return Transition{State: s, Effects: []Effect{{Kind: EffectAppend, Message: msg}}}
}

// Echo appends the local copy of a task the user just submitted and
// remembers it so the server's user_task confirmation is not shown twice.
func Echo(s State, task string, now time.Time) Transition {
	next := s.clone()
	msg := types.NewMessage(types.RoleUser, task, now)
	next.appendMessage(msg)
	next.lastResult = ""
	next.awaiting++
	next.pendingEchoes = append(next.pendingEchoes, strings.TrimSpace(task))
	if len(next.pendingEchoes) > maxPendingEchoes {
		next.pendingEchoes = next.pendingEchoes[len(next.pendingEchoes)-maxPendingEchoes:]
	}
	return Transition{State: next, Effects: []Effect{{Kind: EffectAppend, Message: msg}}}
}

// Fail appends a synthetic agent error for a task the server never
// accepted. The task no longer expects a server echo or a result.
func Fail(s State, task, reason string, now time.Time) Transition {
	next := s.clone()
	if next.consumeEcho(task) && next.awaiting > 0 {
		next.awaiting--
	}
	text := errorPrefix + reason
	msg := types.NewMessage(types.RoleAgent, text, now)
	next.appendMessage(msg)
	return Transition{State: next, Effects: []Effect{{Kind: EffectAppend, Message: msg}}}
}

// Cleared is s with an empty history and no dedup memory.
func Cleared(s State) State {
	next := s.clone()
	next.History = []types.Message{}
	next.settled = nil
	next.lastResult = ""
	next.pendingEchoes = nil
	next.awaiting = 0
	return next
}

func (s *State) appendMessage(msg types.Message) {
	s.History = append(s.History, msg)
}

func (s *State) consumeEcho(text string) bool {
	text = strings.TrimSpace(text)
	for i, pending := range s.pendingEchoes {
		if pending == text {
			s.pendingEchoes = append(s.pendingEchoes[:i], s.pendingEchoes[i+1:]...)
			return true
		}
	}
	return false
}

func clampQueue(size int) int {
	if size < 0 {
		return 0
	}
	return size
}
