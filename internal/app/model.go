package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"taskchat/internal/config"
	"taskchat/internal/logging"
	"taskchat/internal/sanitizer"
	"taskchat/internal/session"
	"taskchat/internal/types"
)

const (
	minViewportHeight = 3
	emptyChatText     = "No messages yet. Describe a task below and press enter."
)

// EventSource opens the agent's push stream. The returned channel is
// closed when ctx ends.
type EventSource interface {
	Events(ctx context.Context) <-chan types.Event
}

type EventSourceFunc func(ctx context.Context) <-chan types.Event

func (f EventSourceFunc) Events(ctx context.Context) <-chan types.Event {
	return f(ctx)
}

type Deps struct {
	Gateway     session.Gateway
	Events      EventSource
	Persistence *session.Persistence
	Logger      logging.Logger
	UI          config.UIConfig
	ServerURL   string
}

type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	controller *session.Controller
	queue      *renderQueue
	source     EventSource
	events     <-chan types.Event
	logger     logging.Logger
	serverURL  string
	now        func() time.Time

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	input    textarea.Model
	output   textinput.Model
	spinner  spinner.Model

	log           chatLog
	timestampMode ChatTimestampMode
	markdown      bool
	formatter     ChatTimestampFormatter

	width     int
	height    int
	inputMin  int
	inputMax  int
	status    string
	queueSize int

	inputsEnabled   bool
	sending         bool
	enhancing       bool
	clearing        bool
	showOutput      bool
	focusOutput     bool
	confirmShutdown bool
	showFullHelp    bool

	toastText  string
	toastLevel toastLevel
	toastUntil time.Time
}

func NewModel(ctx context.Context, deps Deps) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(ctx)
	queue := newRenderQueue()
	inputMin, inputMax := deps.UI.InputHeights()

	input := textarea.New()
	input.Placeholder = "Describe a task for the agent..."
	input.ShowLineNumbers = false
	input.Prompt = inputPromptStyle.Render("┃ ")
	input.CharLimit = 0
	input.MaxHeight = inputMax
	input.SetHeight(inputMin)
	input.KeyMap.InsertNewline.SetEnabled(false)
	input.Focus()

	output := textinput.New()
	output.Placeholder = "Expected output format (optional)"
	output.Prompt = inputPromptStyle.Render("out> ")
	output.CharLimit = 512

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = activityStyle

	m := &Model{
		ctx:           ctx,
		cancel:        cancel,
		controller:    session.NewController(deps.Gateway, deps.Persistence, queue, logger),
		queue:         queue,
		source:        deps.Events,
		logger:        logger,
		serverURL:     strings.TrimSpace(deps.ServerURL),
		now:           time.Now,
		keys:          defaultKeyMap(),
		help:          help.New(),
		viewport:      viewport.New(0, minViewportHeight),
		input:         input,
		output:        output,
		spinner:       spin,
		timestampMode: parseChatTimestampMode(deps.UI.TimestampMode()),
		markdown:      deps.UI.MarkdownEnabled(),
		formatter:     defaultChatTimestampFormatter{},
		inputMin:      inputMin,
		inputMax:      inputMax,
		inputsEnabled: true,
	}
	switch outcome := m.controller.Hydrate(); outcome {
	case session.OutcomeCorrupt:
		m.showToast(toastLevelWarning, "saved history was unreadable and has been discarded")
	case session.OutcomeFailed:
		m.showToast(toastLevelError, "could not load saved history")
	}
	m.applyRenderOps()
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, textarea.Blink, refreshStatusCmd(m.ctx, m.controller)}
	if m.source != nil {
		m.events = m.source.Events(m.ctx)
		if m.events != nil {
			cmds = append(cmds, waitForEvent(m.events))
		}
	}
	if m.timestampMode == ChatTimestampModeRelative {
		cmds = append(cmds, timestampTickCmd())
	}
	if m.toastText != "" {
		cmds = append(cmds, toastExpireCmd())
	}
	return tea.Batch(cmds...)
}

// Close cancels in-flight requests and the event stream.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Controller work from command goroutines lands in the queue; paint
	// it before handling anything else.
	m.applyRenderOps()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case streamEventMsg:
		m.controller.HandleEvent(msg.event)
		m.applyRenderOps()
		return m, waitForEvent(m.events)
	case streamClosedMsg:
		m.logger.Info("stream_closed")
		return m, nil
	case submitDoneMsg:
		m.sending = false
		m.applyRenderOps()
		if msg.outcome == session.SubmitFailed {
			return m, m.showToast(toastLevelError, "task was not sent")
		}
		return m, nil
	case enhanceDoneMsg:
		m.enhancing = false
		m.applyRenderOps()
		return m, m.enhanceToast(msg.outcome)
	case shutdownDoneMsg:
		m.applyRenderOps()
		if msg.outcome == session.ShutdownDone {
			return m, m.showToast(toastLevelWarning, "agent server stopped")
		}
		return m, nil
	case clearDoneMsg:
		m.clearing = false
		m.applyRenderOps()
		if msg.outcome == session.OutcomeFailed {
			return m, m.showToast(toastLevelError, "could not clear saved history")
		}
		return m, m.showToast(toastLevelInfo, "history cleared")
	case statusRefreshedMsg:
		m.applyRenderOps()
		return m, nil
	case copyDoneMsg:
		if msg.err != nil {
			return m, m.showToast(toastLevelError, "copy failed: "+msg.err.Error())
		}
		if msg.method == clipboardMethodOSC52 {
			return m, m.showToast(toastLevelInfo, "copied reply via "+msg.method.String())
		}
		return m, m.showToast(toastLevelInfo, "copied reply")
	case toastExpiredMsg:
		return m, nil
	case timestampTickMsg:
		m.refreshViewport()
		return m, timestampTickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.focusOutput {
		m.output, cmd = m.output.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return m, tea.Quit
	}
	if m.confirmShutdown {
		switch {
		case key.Matches(msg, m.keys.ConfirmYes):
			m.confirmShutdown = false
			return m, shutdownCmd(m.ctx, m.controller)
		case key.Matches(msg, m.keys.ConfirmCancel):
			m.confirmShutdown = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.ToggleHelp):
		m.showFullHelp = !m.showFullHelp
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.CopyLast):
		text := m.log.lastAgentText()
		if strings.TrimSpace(text) == "" {
			return m, m.showToast(toastLevelWarning, "no agent reply to copy")
		}
		return m, copyTextCmd(text)
	case key.Matches(msg, m.keys.Clear):
		if m.clearing {
			return m, nil
		}
		m.clearing = true
		return m, clearCmd(m.ctx, m.controller)
	case key.Matches(msg, m.keys.Shutdown):
		if m.controller.State().ShutDown {
			return m, m.showToast(toastLevelWarning, "agent server already stopped")
		}
		m.confirmShutdown = true
		return m, nil
	}

	if !m.inputsEnabled {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Newline):
		if !m.focusOutput {
			m.input.InsertString("\n")
			m.adjustInputHeight()
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()
	case key.Matches(msg, m.keys.Enhance):
		return m, m.enhance()
	case key.Matches(msg, m.keys.ToggleOutput):
		m.showOutput = !m.showOutput
		if !m.showOutput {
			m.focusOutput = false
		}
		m.focusInputs()
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.SwitchField):
		if m.showOutput {
			m.focusOutput = !m.focusOutput
			m.focusInputs()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusOutput {
		m.output, cmd = m.output.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
		m.adjustInputHeight()
	}
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	pending, outcome := m.controller.BeginSubmit(m.input.Value(), m.outputDescription())
	m.applyRenderOps()
	if outcome.Rejected() {
		return nil
	}
	m.sending = true
	m.input.Reset()
	m.adjustInputHeight()
	return completeSubmitCmd(m.ctx, m.controller, pending)
}

// outputDescription is only sent while the field is visible.
func (m *Model) outputDescription() string {
	if !m.showOutput {
		return ""
	}
	return m.output.Value()
}

func (m *Model) enhance() tea.Cmd {
	if m.enhancing {
		return m.showToast(toastLevelWarning, "already enhancing")
	}
	draft := m.input.Value()
	if strings.TrimSpace(draft) == "" {
		return nil
	}
	m.enhancing = true
	return enhanceCmd(m.ctx, m.controller, draft)
}

func (m *Model) enhanceToast(outcome session.EnhanceOutcome) tea.Cmd {
	switch outcome {
	case session.EnhanceApplied:
		return m.showToast(toastLevelInfo, "task enhanced")
	case session.EnhanceRateLimited:
		return m.showToast(toastLevelWarning, "enhance is rate limited, try again shortly")
	case session.EnhanceFailed:
		return m.showToast(toastLevelError, "enhance failed")
	case session.EnhanceRejected:
		return m.showToast(toastLevelWarning, "enhance returned nothing")
	}
	return nil
}

func (m *Model) applyRenderOps() {
	ops := m.queue.drain()
	if len(ops) == 0 {
		return
	}
	logChanged := false
	for _, op := range ops {
		switch op.kind {
		case opMessage:
			m.log.appendMessage(op.message)
			logChanged = true
		case opNotice:
			m.log.appendNotice(op.text, m.now())
			logChanged = true
		case opReset:
			m.log.reset()
			logChanged = true
		case opStatus:
			m.status = sanitizer.Line(op.text)
		case opQueue:
			m.queueSize = op.size
		case opInputs:
			m.setInputsEnabled(op.enabled)
		case opDraft:
			m.input.SetValue(op.text)
			m.adjustInputHeight()
		}
	}
	if logChanged {
		m.refreshViewport()
	}
}

func (m *Model) setInputsEnabled(enabled bool) {
	m.inputsEnabled = enabled
	if enabled {
		m.focusInputs()
		return
	}
	m.input.Blur()
	m.output.Blur()
}

func (m *Model) focusInputs() {
	if !m.inputsEnabled {
		return
	}
	if m.focusOutput {
		m.input.Blur()
		m.output.Focus()
		return
	}
	m.output.Blur()
	m.input.Focus()
}

func (m *Model) adjustInputHeight() {
	height := m.input.LineCount()
	if height < m.inputMin {
		height = m.inputMin
	}
	if height > m.inputMax {
		height = m.inputMax
	}
	if height == m.input.Height() {
		return
	}
	m.input.SetHeight(height)
	m.layout()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width)
	m.output.Width = width - lipgloss.Width(m.output.Prompt) - 1
	m.help.Width = width
	m.layout()
}

func (m *Model) layout() {
	if m.width <= 0 {
		return
	}
	m.help.ShowAll = m.showFullHelp
	// header, status, toast and divider take one line each.
	chrome := 4 + m.input.Height() + lipgloss.Height(m.help.View(m.keys))
	if m.showOutput {
		chrome++
	}
	height := m.height - chrome
	if height < minViewportHeight {
		height = minViewportHeight
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	atBottom := m.viewport.AtBottom()
	content := m.log.render(chatRenderOptions{
		width:         m.viewport.Width,
		timestampMode: m.timestampMode,
		markdown:      m.markdown,
		formatter:     m.formatter,
		now:           m.now(),
	})
	if content == "" {
		content = noticeStyle.Render(emptyChatText)
	}
	m.viewport.SetContent(content)
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) View() string {
	if m.width <= 0 {
		return "Starting taskchat..."
	}
	header := headerStyle.Render("taskchat")
	if m.serverURL != "" {
		header += " " + headerMetaStyle.Render(m.serverURL)
	}
	header = xansi.Truncate(header, m.width, "…")

	activity := ""
	if m.sending || m.enhancing {
		activity = m.spinner.View()
	}
	status := composeStatusLine(activity, m.status, m.queueSize, m.width)
	divider := dividerStyle.Render(strings.Repeat("─", m.width))

	inputView := m.input.View()
	if !m.inputsEnabled {
		inputView = disabledInputStyle.Render(xansi.Strip(inputView))
	}
	if m.showOutput {
		inputView += "\n" + m.output.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		m.toastView(),
		divider,
		inputView,
		helpStyle.Render(m.help.View(m.keys)),
	)
}

// Run drives the chat UI until the user quits or ctx ends.
func Run(ctx context.Context, deps Deps) error {
	model := NewModel(ctx, deps)
	defer model.Close()
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
