package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

type clipboardMethod uint8

const (
	clipboardMethodSystem clipboardMethod = iota
	clipboardMethodOSC52
)

func (m clipboardMethod) String() string {
	if m == clipboardMethodOSC52 {
		return "terminal"
	}
	return "system"
}

var clipboardWriteAll = clipboard.WriteAll
var clipboardWriteOSC52 = writeOSC52Clipboard

var errOSC52Unavailable = errors.New("OSC52 unavailable for this terminal")

// copyTextToClipboard tries the system clipboard first and falls back to
// an OSC52 sequence on the controlling terminal.
func copyTextToClipboard(text string) (clipboardMethod, error) {
	systemErr := clipboardWriteAll(text)
	if systemErr == nil {
		return clipboardMethodSystem, nil
	}
	oscErr := clipboardWriteOSC52(text)
	if oscErr == nil {
		return clipboardMethodOSC52, nil
	}
	return clipboardMethodSystem, &clipboardError{system: systemErr, osc: oscErr, headless: missingDisplay()}
}

type clipboardError struct {
	system   error
	osc      error
	headless bool
}

func (e *clipboardError) Error() string {
	osc := describeClipboardFailure(e.osc, e.headless)
	if e.headless {
		return "no GUI clipboard available (DISPLAY/WAYLAND_DISPLAY unset); OSC52 fallback failed: " + osc
	}
	return fmt.Sprintf("system clipboard failed: %s; OSC52 fallback failed: %s", describeClipboardFailure(e.system, false), osc)
}

func (e *clipboardError) Unwrap() []error {
	return []error{e.system, e.osc}
}

// describeClipboardFailure turns the bare exit status of xclip/xsel
// into something a user can act on.
func describeClipboardFailure(err error, headless bool) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if msg != "exit status 1" {
		return msg
	}
	if headless {
		return "no GUI clipboard available (DISPLAY/WAYLAND_DISPLAY unset)"
	}
	return "clipboard helper exited with status 1"
}

func writeOSC52Clipboard(text string) error {
	if !shouldAttemptOSC52() {
		return errOSC52Unavailable
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()
	return writeOSC52Sequence(tty, text)
}

func writeOSC52Sequence(w io.Writer, text string) error {
	for _, seq := range osc52Sequences(text) {
		if _, err := seq.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// osc52Sequences picks the escape forms for the current multiplexer.
// Under tmux the plain form is sent too, since passthrough depends on
// the tmux clipboard setting.
func osc52Sequences(text string) []osc52.Sequence {
	plain := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		return []osc52.Sequence{plain, plain.Tmux()}
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(os.Getenv("TERM"))), "screen"):
		return []osc52.Sequence{plain.Screen()}
	default:
		return []osc52.Sequence{plain}
	}
}

func shouldAttemptOSC52() bool {
	if envFlagSet("TASKCHAT_DISABLE_OSC52") {
		return false
	}
	term := strings.TrimSpace(os.Getenv("TERM"))
	return term != "" && !strings.EqualFold(term, "dumb")
}

func envFlagSet(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func missingDisplay() bool {
	return strings.TrimSpace(os.Getenv("DISPLAY")) == "" && strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) == ""
}
