// Package console renders a chat session as plain lines for headless
// commands.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"taskchat/internal/sanitizer"
	"taskchat/internal/types"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

func ParseColorMode(raw string) (ColorMode, error) {
	switch ColorMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways:
		return ColorAlways, nil
	case ColorNever:
		return ColorNever, nil
	default:
		return "", fmt.Errorf("invalid color mode %q: must be auto, always or never", raw)
	}
}

type Options struct {
	Color ColorMode
	// ShowStatus prints status and queue changes, not just messages.
	ShowStatus bool
	// Timestamps prefixes messages with their stored time.
	Timestamps bool
}

type styles struct {
	user    lipgloss.Style
	agent   lipgloss.Style
	errText lipgloss.Style
	notice  lipgloss.Style
	status  lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		user:    r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		agent:   r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		errText: r.NewStyle().Foreground(lipgloss.Color("203")),
		notice:  r.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		status:  r.NewStyle().Foreground(lipgloss.Color("244")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Printer writes one line per message, notice and (optionally) status
// change. It implements session.Renderer.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	opts   Options
	styles styles

	status string
	queue  int
	drafts []string
}

func NewPrinter(out io.Writer, opts Options) *Printer {
	renderer := lipgloss.NewRenderer(out)
	switch opts.Color {
	case ColorNever:
		renderer.SetColorProfile(termenv.Ascii)
	case ColorAlways:
		renderer.SetColorProfile(termenv.ANSI256)
	default:
		renderer.SetColorProfile(termenv.NewOutput(out).EnvColorProfile())
	}
	return &Printer{
		out:    out,
		opts:   opts,
		styles: newStyles(renderer),
		queue:  -1,
	}
}

func (p *Printer) RenderMessage(msg types.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	label := p.styles.agent.Render("agent")
	text := sanitizer.Message(msg.Text)
	if msg.Role == types.RoleUser {
		label = p.styles.user.Render("you")
	} else if strings.HasPrefix(text, "Error: ") {
		text = p.styles.errText.Render(text)
	}
	prefix := label + " > "
	if p.opts.Timestamps {
		if at := msg.Time(); !at.IsZero() {
			prefix = p.styles.dim.Render(at.Local().Format("15:04:05")) + " " + prefix
		}
	}
	lines := strings.Split(text, "\n")
	fmt.Fprintln(p.out, prefix+lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintln(p.out, "  "+line)
	}
}

func (p *Printer) SetStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status = sanitizer.Line(status)
	if status == p.status {
		return
	}
	p.status = status
	if p.opts.ShowStatus && status != "" {
		fmt.Fprintln(p.out, p.styles.status.Render("status: "+status))
	}
}

func (p *Printer) SetQueue(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if size == p.queue {
		return
	}
	p.queue = size
	if p.opts.ShowStatus {
		fmt.Fprintln(p.out, p.styles.status.Render(fmt.Sprintf("queue: %d", size)))
	}
}

func (p *Printer) SetInputsEnabled(bool) {}

func (p *Printer) Notice(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.styles.notice.Render("* "+sanitizer.Line(text)))
}

// SetDraft prints the replacement draft on its own so it can be piped.
func (p *Printer) SetDraft(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drafts = append(p.drafts, text)
	fmt.Fprintln(p.out, sanitizer.Message(text))
}

func (p *Printer) ResetLog() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.ShowStatus {
		fmt.Fprintln(p.out, p.styles.notice.Render("* history cleared"))
	}
}

// Status returns the last status the printer was given.
func (p *Printer) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
