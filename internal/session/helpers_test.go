package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskchat/internal/client"
	"taskchat/internal/store"
	"taskchat/internal/types"
)

type recordingRenderer struct {
	mu       sync.Mutex
	messages []types.Message
	statuses []string
	queues   []int
	inputs   []bool
	notices  []string
	drafts   []string
	resets   int
}

func (r *recordingRenderer) RenderMessage(msg types.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingRenderer) SetStatus(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recordingRenderer) SetQueue(size int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues = append(r.queues, size)
}

func (r *recordingRenderer) SetInputsEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, enabled)
}

func (r *recordingRenderer) Notice(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, text)
}

func (r *recordingRenderer) SetDraft(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, text)
}

func (r *recordingRenderer) ResetLog() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
	r.messages = nil
}

type fakeGateway struct {
	mu sync.Mutex

	submitReqs  []client.SubmitTaskRequest
	submitResp  *client.SubmitTaskResponse
	submitErr   error
	submitBlock chan struct{}
	submitSeen  chan struct{}

	enhanceResp *client.EnhanceResponse
	enhanceErr  error
	enhanceHits int

	status      *client.StatusResponse
	statusErr   error
	shutdownErr error
	shutdowns   int
	clears      int
}

func (g *fakeGateway) SubmitTask(ctx context.Context, req client.SubmitTaskRequest) (*client.SubmitTaskResponse, error) {
	g.mu.Lock()
	g.submitReqs = append(g.submitReqs, req)
	block, seen := g.submitBlock, g.submitSeen
	resp, err := g.submitResp, g.submitErr
	g.mu.Unlock()
	if seen != nil {
		seen <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if resp == nil && err == nil {
		resp = &client.SubmitTaskResponse{OK: true, Queued: true}
	}
	return resp, err
}

func (g *fakeGateway) EnhanceTask(ctx context.Context, text string) (*client.EnhanceResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enhanceHits++
	return g.enhanceResp, g.enhanceErr
}

func (g *fakeGateway) Status(ctx context.Context) (*client.StatusResponse, error) {
	return g.status, g.statusErr
}

func (g *fakeGateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdowns++
	return g.shutdownErr
}

func (g *fakeGateway) ClearRemoteHistory(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clears++
	return nil
}

func (g *fakeGateway) submitCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.submitReqs)
}

// failingStore fails every operation.
type failingStore struct{}

var errDiskFull = errors.New("disk full")

func (failingStore) Load(context.Context) ([]types.Message, error) {
	return nil, errDiskFull
}
func (failingStore) Save(context.Context, []types.Message) error { return errDiskFull }
func (failingStore) Clear(context.Context) error                 { return errDiskFull }
func (failingStore) Backend() string                             { return "failing" }
func (failingStore) Close() error                                { return nil }

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestController(g *fakeGateway) (*Controller, *recordingRenderer, *store.MemoryHistoryStore) {
	mem := store.NewMemoryHistoryStore()
	r := &recordingRenderer{}
	c := NewController(g, NewPersistence(mem, nil), r, nil)
	c.now = func() time.Time { return fixedNow }
	return c, r, mem
}

func loadStored(mem *store.MemoryHistoryStore) []types.Message {
	history, err := mem.Load(context.Background())
	if err != nil {
		return nil
	}
	return history
}

func describe(history []types.Message) string {
	out := ""
	for _, msg := range history {
		out += fmt.Sprintf("[%s %q]", msg.Role, msg.Text)
	}
	return out
}
