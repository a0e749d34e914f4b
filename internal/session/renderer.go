package session

import "taskchat/internal/types"

// Renderer is the display side of a chat session. Implementations must
// not call back into the Controller.
type Renderer interface {
	RenderMessage(msg types.Message)
	SetStatus(status string)
	SetQueue(size int)
	SetInputsEnabled(enabled bool)
	Notice(text string)
	SetDraft(text string)
	ResetLog()
}

type nopRenderer struct{}

func (nopRenderer) RenderMessage(types.Message) {}
func (nopRenderer) SetStatus(string)            {}
func (nopRenderer) SetQueue(int)                {}
func (nopRenderer) SetInputsEnabled(bool)       {}
func (nopRenderer) Notice(string)               {}
func (nopRenderer) SetDraft(string)             {}
func (nopRenderer) ResetLog()                   {}

// NopRenderer discards everything.
func NopRenderer() Renderer {
	return nopRenderer{}
}
