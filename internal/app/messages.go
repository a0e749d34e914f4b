package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskchat/internal/session"
	"taskchat/internal/types"
)

const (
	toastDuration         = 3 * time.Second
	timestampTickInterval = 30 * time.Second
)

type streamEventMsg struct {
	event types.Event
}

type streamClosedMsg struct{}

type submitDoneMsg struct {
	outcome session.SubmitOutcome
}

type enhanceDoneMsg struct {
	outcome session.EnhanceOutcome
}

type shutdownDoneMsg struct {
	outcome session.ShutdownOutcome
}

type clearDoneMsg struct {
	outcome session.Outcome
}

type statusRefreshedMsg struct {
	applied bool
}

type copyDoneMsg struct {
	method clipboardMethod
	err    error
}

type toastExpiredMsg struct{}

type timestampTickMsg time.Time

func waitForEvent(events <-chan types.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{event: event}
	}
}

func completeSubmitCmd(ctx context.Context, controller *session.Controller, pending session.PendingSubmit) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{outcome: controller.Complete(ctx, pending)}
	}
}

func enhanceCmd(ctx context.Context, controller *session.Controller, draft string) tea.Cmd {
	return func() tea.Msg {
		return enhanceDoneMsg{outcome: controller.Enhance(ctx, draft)}
	}
}

func shutdownCmd(ctx context.Context, controller *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return shutdownDoneMsg{outcome: controller.Shutdown(ctx)}
	}
}

func clearCmd(ctx context.Context, controller *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return clearDoneMsg{outcome: controller.Clear(ctx)}
	}
}

func refreshStatusCmd(ctx context.Context, controller *session.Controller) tea.Cmd {
	return func() tea.Msg {
		return statusRefreshedMsg{applied: controller.RefreshStatus(ctx)}
	}
}

func copyTextCmd(text string) tea.Cmd {
	return func() tea.Msg {
		method, err := copyTextToClipboard(text)
		return copyDoneMsg{method: method, err: err}
	}
}

func toastExpireCmd() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

func timestampTickCmd() tea.Cmd {
	return tea.Tick(timestampTickInterval, func(at time.Time) tea.Msg {
		return timestampTickMsg(at)
	})
}
