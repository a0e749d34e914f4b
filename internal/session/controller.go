package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskchat/internal/client"
	"taskchat/internal/logging"
	"taskchat/internal/types"
)

const (
	statusReady   = "Ready"
	statusStopped = "Stopped"

	noticeShuttingDown   = "Shutting down..."
	noticeShutdownFailed = "Shutdown request failed"
)

// Gateway is the request/response half of the agent API.
type Gateway interface {
	SubmitTask(ctx context.Context, req client.SubmitTaskRequest) (*client.SubmitTaskResponse, error)
	EnhanceTask(ctx context.Context, text string) (*client.EnhanceResponse, error)
	Status(ctx context.Context) (*client.StatusResponse, error)
	Shutdown(ctx context.Context) error
	ClearRemoteHistory(ctx context.Context) error
}

type SubmitOutcome int

const (
	SubmitSent SubmitOutcome = iota
	SubmitFailed
	SubmitRejectedEmpty
	SubmitRejectedBusy
	SubmitRejectedStopped
)

func (o SubmitOutcome) String() string {
	switch o {
	case SubmitSent:
		return "sent"
	case SubmitFailed:
		return "failed"
	case SubmitRejectedEmpty:
		return "rejected_empty"
	case SubmitRejectedBusy:
		return "rejected_busy"
	case SubmitRejectedStopped:
		return "rejected_stopped"
	default:
		return "unknown"
	}
}

func (o SubmitOutcome) Rejected() bool {
	return o >= SubmitRejectedEmpty
}

type EnhanceOutcome int

const (
	EnhanceApplied EnhanceOutcome = iota
	EnhanceSkipped
	EnhanceBusy
	EnhanceFailed
	EnhanceRateLimited
	EnhanceRejected
)

func (o EnhanceOutcome) String() string {
	switch o {
	case EnhanceApplied:
		return "applied"
	case EnhanceSkipped:
		return "skipped"
	case EnhanceBusy:
		return "busy"
	case EnhanceFailed:
		return "failed"
	case EnhanceRateLimited:
		return "rate_limited"
	case EnhanceRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type ShutdownOutcome int

const (
	ShutdownDone ShutdownOutcome = iota
	ShutdownFailed
	ShutdownSkipped
)

// PendingSubmit is a submission that passed the local guards and has
// been echoed, but not yet sent.
type PendingSubmit struct {
	Task              string
	OutputDescription string
}

// Controller owns the chat State and is the only writer of it. Every
// method applies its update atomically; network calls happen outside
// the lock so stream events keep flowing while a request is in flight.
type Controller struct {
	mu       sync.Mutex
	state    State
	gateway  Gateway
	persist  *Persistence
	renderer Renderer
	logger   logging.Logger
	now      func() time.Time

	lastPersist Outcome
}

func NewController(gateway Gateway, persist *Persistence, renderer Renderer, logger logging.Logger) *Controller {
	if renderer == nil {
		renderer = NopRenderer()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Controller{
		state:    State{History: []types.Message{}},
		gateway:  gateway,
		persist:  persist,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// LastPersistOutcome reports how the most recent store call ended.
func (c *Controller) LastPersistOutcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPersist
}

// Hydrate loads stored history and paints it. Nothing is written back.
func (c *Controller) Hydrate() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	history, outcome := c.persist.Load()
	c.lastPersist = outcome
	c.state.History = history
	c.renderer.ResetLog()
	for _, msg := range history {
		c.renderer.RenderMessage(msg)
	}
	c.logger.Debug("history hydrated",
		logging.F("messages", len(history)),
		logging.F("outcome", outcome.String()),
	)
	return outcome
}

// Submit runs a whole submission: guards, local echo, request, and the
// return to idle.
func (c *Controller) Submit(ctx context.Context, task, outputDescription string) SubmitOutcome {
	pending, outcome := c.BeginSubmit(task, outputDescription)
	if outcome.Rejected() {
		return outcome
	}
	return c.Complete(ctx, pending)
}

// BeginSubmit checks the guards and, when they pass, enters the sending
// state and echoes the task into the log.
func (c *Controller) BeginSubmit(task, outputDescription string) (PendingSubmit, SubmitOutcome) {
	task = strings.TrimSpace(task)
	if task == "" {
		return PendingSubmit{}, SubmitRejectedEmpty
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.ShutDown {
		return PendingSubmit{}, SubmitRejectedStopped
	}
	if c.state.Sending {
		return PendingSubmit{}, SubmitRejectedBusy
	}
	c.state.Sending = true
	c.renderer.SetInputsEnabled(false)
	c.commitLocked(Echo(c.state, task, c.now()))
	return PendingSubmit{Task: task, OutputDescription: strings.TrimSpace(outputDescription)}, SubmitSent
}

// Complete sends a pending submission and leaves the sending state no
// matter how the call ends. A result in the direct response is not
// shown; the stream delivers it.
func (c *Controller) Complete(ctx context.Context, pending PendingSubmit) SubmitOutcome {
	resp, err := c.gateway.SubmitTask(ctx, client.SubmitTaskRequest{
		Task:              pending.Task,
		OutputDescription: pending.OutputDescription,
	})
	reason := ""
	switch {
	case err != nil:
		reason = submitErrorReason(err)
		c.logger.Warn("submit failed", logging.Err(err))
	case resp == nil || !resp.OK:
		reason = "unknown"
		if resp != nil && strings.TrimSpace(resp.Error) != "" {
			reason = resp.Error
		}
		c.logger.Warn("submit rejected", logging.F("reason", reason))
	}
	return c.FinishSubmit(pending, reason)
}

// FinishSubmit returns to idle. A non-empty reason is shown as an agent
// error message and the task stops waiting for a server echo.
func (c *Controller) FinishSubmit(pending PendingSubmit, reason string) SubmitOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	outcome := SubmitSent
	if reason != "" {
		c.commitLocked(Fail(c.state, pending.Task, reason, c.now()))
		outcome = SubmitFailed
	}
	c.state.Sending = false
	c.renderer.SetInputsEnabled(!c.state.ShutDown)
	return outcome
}

func submitErrorReason(err error) string {
	if apiErr := client.AsAPIError(err); apiErr != nil && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return err.Error()
}

// Enhance asks the server to rewrite the draft and, on success, replaces
// the draft with the rewrite. Failures change nothing visible.
func (c *Controller) Enhance(ctx context.Context, draft string) EnhanceOutcome {
	if strings.TrimSpace(draft) == "" {
		return EnhanceSkipped
	}
	c.mu.Lock()
	if c.state.Sending || c.state.Enhancing || c.state.ShutDown {
		c.mu.Unlock()
		return EnhanceBusy
	}
	c.state.Enhancing = true
	c.mu.Unlock()

	resp, err := c.gateway.EnhanceTask(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Enhancing = false
	switch {
	case client.IsRateLimited(err):
		c.logger.Info("enhance rate limited")
		return EnhanceRateLimited
	case err != nil:
		c.logger.Warn("enhance failed", logging.Err(err))
		return EnhanceFailed
	case resp == nil || !resp.OK || strings.TrimSpace(resp.Enhanced) == "":
		return EnhanceRejected
	}
	c.renderer.SetDraft(resp.Enhanced)
	return EnhanceApplied
}

// Shutdown asks the server to stop. Success disables input for good;
// failure is reported as a notice only.
func (c *Controller) Shutdown(ctx context.Context) ShutdownOutcome {
	c.mu.Lock()
	if c.state.ShutDown {
		c.mu.Unlock()
		return ShutdownSkipped
	}
	c.renderer.Notice(noticeShuttingDown)
	c.mu.Unlock()

	err := c.gateway.Shutdown(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn("shutdown failed", logging.Err(err))
		c.renderer.Notice(noticeShutdownFailed)
		return ShutdownFailed
	}
	c.state.ShutDown = true
	c.state.Status = statusStopped
	c.renderer.SetStatus(statusStopped)
	c.renderer.SetInputsEnabled(false)
	return ShutdownDone
}

// Clear empties history in memory and in the store, then asks the server
// to drop its copy. The remote call is best effort.
func (c *Controller) Clear(ctx context.Context) Outcome {
	c.mu.Lock()
	c.state = Cleared(c.state)
	outcome := c.persist.Clear()
	c.lastPersist = outcome
	c.renderer.ResetLog()
	c.state.Status = statusReady
	c.renderer.SetStatus(statusReady)
	c.mu.Unlock()

	if c.gateway != nil {
		if err := c.gateway.ClearRemoteHistory(ctx); err != nil {
			c.logger.Debug("remote history clear failed", logging.Err(err))
		}
	}
	return outcome
}

// RefreshStatus applies the server's status snapshot unless the stream
// has already reported a newer one.
func (c *Controller) RefreshStatus(ctx context.Context) bool {
	resp, err := c.gateway.Status(ctx)
	if err != nil || resp == nil {
		if err != nil {
			c.logger.Debug("status fetch failed", logging.Err(err))
		}
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.StatusFromStream || c.state.ShutDown {
		return false
	}
	c.state.Status = resp.Status
	c.renderer.SetStatus(resp.Status)
	return true
}

// HandleEvent applies one stream event.
func (c *Controller) HandleEvent(event types.Event) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	transition := ApplyAt(c.state, event, c.now())
	if transition.Dropped != "" {
		c.logger.Debug("event dropped",
			logging.F("type", string(event.Type)),
			logging.F("reason", transition.Dropped),
		)
	}
	c.commitLocked(transition)
	return transition
}

// Run applies events in delivery order until ctx ends or the channel
// closes.
func (c *Controller) Run(ctx context.Context, events <-chan types.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(event)
		}
	}
}

func (c *Controller) commitLocked(t Transition) {
	c.state = t.State
	for _, effect := range t.Effects {
		switch effect.Kind {
		case EffectAppend:
			c.renderer.RenderMessage(effect.Message)
		case EffectNotice:
			c.renderer.Notice(effect.Text)
		case EffectStatus:
			c.renderer.SetStatus(effect.Text)
		case EffectQueue:
			c.renderer.SetQueue(effect.Queue)
		}
	}
	if t.Appended() {
		c.lastPersist = c.persist.Save(c.state.History)
	}
}
