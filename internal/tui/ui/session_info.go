package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// SessionData holds session information for display.
type SessionData struct {
	Session       string
	Viewer        string
	Conversations int
	Active        string
	Status        string
	Pending       int
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}
	_, _ = fmt.Fprint(si, si.format(data))
}

func (si *SessionInfo) format(data *SessionData) string {
	fg := colorName(si.theme.FgColor)
	ct := colorName(si.theme.CounterColor)

	active, st := data.Active, data.Status
	if active == "" {
		active, st = "-", "-"
	}
	row := func(label, value string) string {
		return fmt.Sprintf("[%s::b]%-8s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, tview.Escape(value))
	}
	return row("Session", data.Session) +
		row("Viewer", data.Viewer) +
		row("Threads", fmt.Sprint(data.Conversations)) +
		row("Open", active) +
		row("Status", st) +
		row("Pending", fmt.Sprint(data.Pending))
}
