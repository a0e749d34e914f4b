package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"taskchat/internal/client"
	"taskchat/internal/store"
	"taskchat/internal/types"
)

func TestSubmitEchoesThenFinalAppends(t *testing.T) {
	g := &fakeGateway{}
	c, r, mem := newTestController(g)

	if got := c.Submit(context.Background(), "open settings", ""); got != SubmitSent {
		t.Fatalf("expected sent, got %s", got)
	}
	state := c.State()
	if len(state.History) != 1 || state.History[0].Role != types.RoleUser || state.History[0].Text != "open settings" {
		t.Fatalf("expected local echo, got %s", describe(state.History))
	}
	if len(g.submitReqs) != 1 || g.submitReqs[0].Task != "open settings" || g.submitReqs[0].OutputDescription != "" {
		t.Fatalf("unexpected request: %+v", g.submitReqs)
	}

	c.HandleEvent(types.Event{Type: types.EventFinal, Result: json.RawMessage(`"Settings opened"`)})
	state = c.State()
	if len(state.History) != 2 || state.History[1].Role != types.RoleAgent || state.History[1].Text != "Settings opened" {
		t.Fatalf("expected agent result, got %s", describe(state.History))
	}
	if !reflect.DeepEqual(loadStored(mem), state.History) {
		t.Fatalf("store diverged from memory: %s vs %s", describe(loadStored(mem)), describe(state.History))
	}
	if len(r.messages) != 2 {
		t.Fatalf("expected two rendered messages, got %d", len(r.messages))
	}
	if !reflect.DeepEqual(r.inputs, []bool{false, true}) {
		t.Fatalf("expected inputs disabled then enabled, got %v", r.inputs)
	}
}

func TestSubmitIgnoresDirectResult(t *testing.T) {
	g := &fakeGateway{submitResp: &client.SubmitTaskResponse{OK: true, Result: "Settings opened"}}
	c, _, _ := newTestController(g)
	c.Submit(context.Background(), "open settings", "")
	c.HandleEvent(types.Event{Type: types.EventFinal, Result: json.RawMessage(`"Settings opened"`)})
	if n := len(c.State().History); n != 2 {
		t.Fatalf("expected echo plus one result, got %s", describe(c.State().History))
	}
}

func TestSubmitTransportFailureAppendsOneError(t *testing.T) {
	g := &fakeGateway{submitErr: errors.New("connection refused")}
	c, r, _ := newTestController(g)

	if got := c.Submit(context.Background(), "open settings", "a list"); got != SubmitFailed {
		t.Fatalf("expected failed, got %s", got)
	}
	state := c.State()
	if state.Sending {
		t.Fatalf("sending flag should be cleared")
	}
	errorsSeen := 0
	for _, msg := range state.History {
		if msg.Role == types.RoleAgent && strings.HasPrefix(msg.Text, "Error: ") {
			errorsSeen++
		}
	}
	if errorsSeen != 1 || state.History[1].Text != "Error: connection refused" {
		t.Fatalf("expected exactly one error message, got %s", describe(state.History))
	}
	if r.inputs[len(r.inputs)-1] != true {
		t.Fatalf("inputs should be re-enabled, got %v", r.inputs)
	}
	if g.submitReqs[0].OutputDescription != "a list" {
		t.Fatalf("output description not forwarded: %+v", g.submitReqs[0])
	}
}

func TestSubmitServerRejection(t *testing.T) {
	tests := []struct {
		name string
		resp *client.SubmitTaskResponse
		err  error
		want string
	}{
		{name: "ok false with error", resp: &client.SubmitTaskResponse{OK: false, Error: "agent offline"}, want: "Error: agent offline"},
		{name: "ok false without error", resp: &client.SubmitTaskResponse{OK: false}, want: "Error: unknown"},
		{name: "api error", err: &client.APIError{StatusCode: http.StatusBadRequest, Message: "Missing 'task' (string)"}, want: "Error: Missing 'task' (string)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGateway{submitResp: tt.resp, submitErr: tt.err}
			c, _, _ := newTestController(g)
			if got := c.Submit(context.Background(), "x", ""); got != SubmitFailed {
				t.Fatalf("expected failed, got %s", got)
			}
			history := c.State().History
			if len(history) != 2 || history[1].Text != tt.want {
				t.Fatalf("unexpected history: %s", describe(history))
			}
		})
	}
}

func TestSubmitBlankIsRejectedLocally(t *testing.T) {
	g := &fakeGateway{}
	c, r, _ := newTestController(g)
	if got := c.Submit(context.Background(), "  \n ", "desc"); got != SubmitRejectedEmpty {
		t.Fatalf("expected rejected_empty, got %s", got)
	}
	if g.submitCount() != 0 || len(c.State().History) != 0 || len(r.inputs) != 0 {
		t.Fatalf("blank submit must have no effect")
	}
}

func TestSubmitWhileSendingHasNoEffect(t *testing.T) {
	g := &fakeGateway{submitBlock: make(chan struct{}), submitSeen: make(chan struct{}, 1)}
	c, _, _ := newTestController(g)

	done := make(chan SubmitOutcome, 1)
	go func() {
		done <- c.Submit(context.Background(), "first", "")
	}()
	select {
	case <-g.submitSeen:
	case <-time.After(2 * time.Second):
		t.Fatalf("first submit never reached the gateway")
	}

	if !c.State().Sending {
		t.Fatalf("expected sending flag while request is in flight")
	}
	if got := c.Submit(context.Background(), "second", ""); got != SubmitRejectedBusy {
		t.Fatalf("expected rejected_busy, got %s", got)
	}
	if g.submitCount() != 1 {
		t.Fatalf("expected one request, got %d", g.submitCount())
	}
	if n := len(c.State().History); n != 1 {
		t.Fatalf("second submit should not echo, got %s", describe(c.State().History))
	}

	// Stream events are applied while the request is outstanding.
	c.HandleEvent(types.Event{Type: types.EventQueue, Size: types.IntPtr(1)})
	if c.State().Queue != 1 {
		t.Fatalf("event not applied during send")
	}

	close(g.submitBlock)
	select {
	case got := <-done:
		if got != SubmitSent {
			t.Fatalf("expected first submit sent, got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("first submit did not finish")
	}
	if c.State().Sending {
		t.Fatalf("sending flag should clear")
	}
}

func TestServerEchoOfLocalSubmitIsNotDuplicated(t *testing.T) {
	g := &fakeGateway{}
	c, _, _ := newTestController(g)
	c.Submit(context.Background(), "open settings", "")
	c.HandleEvent(types.Event{Type: types.EventUserTask, Text: "open settings"})
	c.HandleEvent(types.Event{Type: types.EventFinal, Result: json.RawMessage(`"done"`)})
	c.HandleEvent(types.Event{Type: types.EventFinal, Result: json.RawMessage(`"done"`)})
	if got := describe(c.State().History); got != `[user "open settings"][agent "done"]` {
		t.Fatalf("unexpected history: %s", got)
	}
}

func TestFailedSubmitDoesNotSwallowLaterUserTask(t *testing.T) {
	g := &fakeGateway{submitErr: errors.New("connection refused")}
	c, r, _ := newTestController(g)
	c.Submit(context.Background(), "open settings", "")
	c.HandleEvent(types.Event{Type: types.EventUserTask, Text: "open settings"})
	want := `[user "open settings"][agent "Error: connection refused"][user "open settings"]`
	if got := describe(c.State().History); got != want {
		t.Fatalf("unexpected history: %s", got)
	}
	if len(r.messages) != 3 {
		t.Fatalf("expected 3 rendered messages, got %d", len(r.messages))
	}
}

func TestEnhanceOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		resp   *client.EnhanceResponse
		err    error
		draft  string
		want   EnhanceOutcome
		drafts []string
	}{
		{name: "applied", resp: &client.EnhanceResponse{OK: true, Enhanced: "Open the Settings app"}, draft: "settings", want: EnhanceApplied, drafts: []string{"Open the Settings app"}},
		{name: "blank draft", draft: "   ", want: EnhanceSkipped},
		{name: "transport failure", err: errors.New("timeout"), draft: "settings", want: EnhanceFailed},
		{name: "rate limited", err: &client.APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}, draft: "settings", want: EnhanceRateLimited},
		{name: "not ok", resp: &client.EnhanceResponse{OK: false, Error: "no key"}, draft: "settings", want: EnhanceRejected},
		{name: "empty rewrite", resp: &client.EnhanceResponse{OK: true}, draft: "settings", want: EnhanceRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGateway{enhanceResp: tt.resp, enhanceErr: tt.err}
			c, r, _ := newTestController(g)
			if got := c.Enhance(context.Background(), tt.draft); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
			if !reflect.DeepEqual(r.drafts, tt.drafts) {
				t.Fatalf("unexpected drafts: %v", r.drafts)
			}
			if len(c.State().History) != 0 || len(r.notices) != 0 {
				t.Fatalf("enhance must not add messages or notices")
			}
			if c.State().Enhancing {
				t.Fatalf("enhancing flag should clear")
			}
		})
	}
}

func TestEnhanceBusyWhileSending(t *testing.T) {
	g := &fakeGateway{enhanceResp: &client.EnhanceResponse{OK: true, Enhanced: "x"}}
	c, _, _ := newTestController(g)
	pending, outcome := c.BeginSubmit("task", "")
	if outcome != SubmitSent {
		t.Fatalf("unexpected begin outcome %s", outcome)
	}
	if got := c.Enhance(context.Background(), "draft"); got != EnhanceBusy {
		t.Fatalf("expected busy, got %s", got)
	}
	if g.enhanceHits != 0 {
		t.Fatalf("enhance should not reach the gateway while sending")
	}
	c.FinishSubmit(pending, "")
	if got := c.Enhance(context.Background(), "draft"); got != EnhanceApplied {
		t.Fatalf("expected applied after finish, got %s", got)
	}
}

func TestShutdownSuccessDisablesInputs(t *testing.T) {
	g := &fakeGateway{}
	c, r, _ := newTestController(g)
	if got := c.Shutdown(context.Background()); got != ShutdownDone {
		t.Fatalf("expected done, got %v", got)
	}
	state := c.State()
	if !state.ShutDown || state.Status != "Stopped" {
		t.Fatalf("unexpected state: %+v", state)
	}
	if !reflect.DeepEqual(r.notices, []string{"Shutting down..."}) || !reflect.DeepEqual(r.inputs, []bool{false}) {
		t.Fatalf("unexpected renderer calls: notices=%v inputs=%v", r.notices, r.inputs)
	}
	if got := c.Submit(context.Background(), "x", ""); got != SubmitRejectedStopped {
		t.Fatalf("expected submit rejected after shutdown, got %s", got)
	}
	if got := c.Shutdown(context.Background()); got != ShutdownSkipped || g.shutdowns != 1 {
		t.Fatalf("second shutdown should be skipped")
	}
}

func TestShutdownFailureIsNoticeOnly(t *testing.T) {
	g := &fakeGateway{shutdownErr: errors.New("refused")}
	c, r, _ := newTestController(g)
	if got := c.Shutdown(context.Background()); got != ShutdownFailed {
		t.Fatalf("expected failed, got %v", got)
	}
	if len(c.State().History) != 0 {
		t.Fatalf("shutdown failure must not add history")
	}
	if !reflect.DeepEqual(r.notices, []string{"Shutting down...", "Shutdown request failed"}) {
		t.Fatalf("unexpected notices: %v", r.notices)
	}
	if c.State().ShutDown {
		t.Fatalf("failed shutdown must not mark state stopped")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	g := &fakeGateway{}
	c, r, mem := newTestController(g)

	for i := 0; i < 2; i++ {
		c.Clear(context.Background())
		if len(c.State().History) != 0 {
			t.Fatalf("clear %d: memory not empty", i)
		}
		history, _ := NewPersistence(mem, nil).Load()
		if len(history) != 0 {
			t.Fatalf("clear %d: store not empty", i)
		}
	}

	c.Submit(context.Background(), "x", "")
	c.Clear(context.Background())
	c.Clear(context.Background())
	if len(c.State().History) != 0 || loadStored(mem) != nil {
		t.Fatalf("expected empty history after clear")
	}
	if c.State().Status != "Ready" || r.statuses[len(r.statuses)-1] != "Ready" {
		t.Fatalf("clear should set status Ready")
	}
	if r.resets != 4 || g.clears != 4 {
		t.Fatalf("expected four resets and remote clears, got %d and %d", r.resets, g.clears)
	}
}

func TestHydratePaintsStoredHistory(t *testing.T) {
	mem := store.NewMemoryHistoryStore()
	stored := []types.Message{
		{Role: types.RoleUser, Text: "<script>alert(1)</script>"},
		{Role: types.RoleAgent, Text: "ok", Timestamp: "2026-01-01T00:00:00Z"},
	}
	if err := mem.Save(context.Background(), stored); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r := &recordingRenderer{}
	c := NewController(&fakeGateway{}, NewPersistence(mem, nil), r, nil)
	if got := c.Hydrate(); got != OutcomeOK {
		t.Fatalf("expected ok, got %s", got)
	}
	if !reflect.DeepEqual(c.State().History, stored) || !reflect.DeepEqual(r.messages, stored) {
		t.Fatalf("unexpected hydrate: state=%s rendered=%s", describe(c.State().History), describe(r.messages))
	}
}

func TestHydrateCorruptStartsEmpty(t *testing.T) {
	mem := store.NewMemoryHistoryStore()
	mem.SetRaw([]byte(`{not json`))
	c := NewController(&fakeGateway{}, NewPersistence(mem, nil), nil, nil)
	if got := c.Hydrate(); got != OutcomeCorrupt {
		t.Fatalf("expected corrupt, got %s", got)
	}
	if len(c.State().History) != 0 {
		t.Fatalf("expected empty history")
	}
}

func TestPersistenceFailureKeepsHistoryInMemory(t *testing.T) {
	g := &fakeGateway{}
	c := NewController(g, NewPersistence(failingStore{}, nil), nil, nil)
	if got := c.Hydrate(); got != OutcomeFailed {
		t.Fatalf("expected failed hydrate, got %s", got)
	}
	c.Submit(context.Background(), "x", "")
	if got := c.LastPersistOutcome(); got != OutcomeFailed {
		t.Fatalf("expected failed save outcome, got %s", got)
	}
	if len(c.State().History) != 1 {
		t.Fatalf("history should continue in memory")
	}
	if got := c.Clear(context.Background()); got != OutcomeFailed {
		t.Fatalf("expected failed clear outcome, got %s", got)
	}
}

func TestRefreshStatusYieldsToStream(t *testing.T) {
	g := &fakeGateway{status: &client.StatusResponse{Status: "Ready"}}
	c, r, _ := newTestController(g)
	if !c.RefreshStatus(context.Background()) || c.State().Status != "Ready" {
		t.Fatalf("expected snapshot to apply")
	}

	c.HandleEvent(types.Event{Type: types.EventStatus, Status: "Busy"})
	g.status = &client.StatusResponse{Status: "Ready"}
	if c.RefreshStatus(context.Background()) {
		t.Fatalf("snapshot must not overwrite a streamed status")
	}
	if c.State().Status != "Busy" || r.statuses[len(r.statuses)-1] != "Busy" {
		t.Fatalf("unexpected status: %q", c.State().Status)
	}

	g.statusErr = errors.New("down")
	if c.RefreshStatus(context.Background()) {
		t.Fatalf("failed fetch should report false")
	}
}

func TestRunAppliesEventsInOrder(t *testing.T) {
	c, r, _ := newTestController(&fakeGateway{})
	events := make(chan types.Event, 4)
	events <- types.Event{Type: types.EventQueue, Size: types.IntPtr(2)}
	events <- types.Event{Type: types.EventQueue, Size: types.IntPtr(0)}
	events <- types.Event{Type: types.EventDequeued}
	events <- types.Event{Type: types.EventFinal, Result: json.RawMessage(`[1,2]`)}
	close(events)

	if err := c.Run(context.Background(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(r.queues, []int{2, 0}) || c.State().Queue != 0 {
		t.Fatalf("unexpected queue updates: %v", r.queues)
	}
	if !reflect.DeepEqual(r.notices, []string{"Running task"}) {
		t.Fatalf("unexpected notices: %v", r.notices)
	}
	if got := c.State().History[0].Text; got != "[\n  1,\n  2\n]" {
		t.Fatalf("unexpected final rendering %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Run(ctx, make(chan types.Event)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancel, got %v", err)
	}
}

func TestNoticesAreNotPersisted(t *testing.T) {
	c, _, mem := newTestController(&fakeGateway{})
	c.HandleEvent(types.Event{Type: types.EventQueued, Size: types.IntPtr(1), Goal: "open settings"})
	c.HandleEvent(types.Event{Type: types.EventDequeued})
	if len(c.State().History) != 0 || loadStored(mem) != nil {
		t.Fatalf("notices must not reach history")
	}
}
