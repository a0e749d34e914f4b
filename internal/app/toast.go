package app

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type toastLevel int

const (
	toastLevelInfo toastLevel = iota
	toastLevelWarning
	toastLevelError
)

func (m *Model) showToast(level toastLevel, message string) tea.Cmd {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	m.toastText = message
	m.toastLevel = level
	m.toastUntil = m.now().Add(toastDuration)
	return toastExpireCmd()
}

func (m *Model) toastActive(at time.Time) bool {
	if strings.TrimSpace(m.toastText) == "" {
		return false
	}
	return at.Before(m.toastUntil)
}

func (m *Model) toastView() string {
	if m.confirmShutdown {
		return toastWarningStyle.Render(" Stop the agent server? y/n ")
	}
	if !m.toastActive(m.now()) {
		return ""
	}
	var style lipgloss.Style
	switch m.toastLevel {
	case toastLevelWarning:
		style = toastWarningStyle
	case toastLevelError:
		style = toastErrorStyle
	default:
		style = toastInfoStyle
	}
	return style.Render(" " + m.toastText + " ")
}
