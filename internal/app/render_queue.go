package app

import (
	"sync"

	"taskchat/internal/types"
)

type renderOpKind int

const (
	opMessage renderOpKind = iota
	opStatus
	opQueue
	opInputs
	opNotice
	opDraft
	opReset
)

type renderOp struct {
	kind    renderOpKind
	message types.Message
	text    string
	size    int
	enabled bool
}

// renderQueue is the session renderer for the TUI. The controller may
// call it from command goroutines, so it only records operations; the
// model drains them on its own goroutine.
type renderQueue struct {
	mu  sync.Mutex
	ops []renderOp
}

func newRenderQueue() *renderQueue {
	return &renderQueue{}
}

func (q *renderQueue) push(op renderOp) {
	q.mu.Lock()
	q.ops = append(q.ops, op)
	q.mu.Unlock()
}

func (q *renderQueue) drain() []renderOp {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops
	q.ops = nil
	return ops
}

func (q *renderQueue) RenderMessage(msg types.Message) {
	q.push(renderOp{kind: opMessage, message: msg})
}

func (q *renderQueue) SetStatus(status string) {
	q.push(renderOp{kind: opStatus, text: status})
}

func (q *renderQueue) SetQueue(size int) {
	q.push(renderOp{kind: opQueue, size: size})
}

func (q *renderQueue) SetInputsEnabled(enabled bool) {
	q.push(renderOp{kind: opInputs, enabled: enabled})
}

func (q *renderQueue) Notice(text string) {
	q.push(renderOp{kind: opNotice, text: text})
}

func (q *renderQueue) SetDraft(text string) {
	q.push(renderOp{kind: opDraft, text: text})
}

func (q *renderQueue) ResetLog() {
	q.push(renderOp{kind: opReset})
}
