package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/tui/ui"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Init implements Component.
func (ci *ConversationInfo) Init() {}

// Start implements Component.
func (ci *ConversationInfo) Start() {}

// Stop implements Component.
func (ci *ConversationInfo) Stop() {}

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders conversation details.
func (ci *ConversationInfo) Update(c *api.Conversation) {
	ci.Clear()
	if c == nil {
		return
	}
	_, _ = fmt.Fprint(ci, formatInfo(ci.theme, c))
	ci.SetTitle(fmt.Sprintf(" %s Details ", escape(c.Snapshot.Item.Name)))
}

func formatInfo(theme *ui.Theme, c *api.Conversation) string {
	fg := hex(theme.FgColor)
	ct := hex(theme.CounterColor)
	snap := c.Snapshot

	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	actions := make([]string, len(c.Affordances))
	for i, a := range c.Affordances {
		actions[i] = string(a)
	}
	karma := "no"
	if snap.KarmaGiven {
		karma = "yes"
	}

	rows := [][2]string{
		{"ID", snap.ID},
		{"Item", snap.Item.Name},
		{"Category", orDash(snap.Item.Category)},
		{"Found at", orDash(snap.Item.Location)},
		{"Owner", fmt.Sprintf("%s (%s)", snap.Owner.Name, snap.Owner.UserID)},
		{"Finder", fmt.Sprintf("%s (%s)", snap.Finder.Name, snap.Finder.UserID)},
		{"Status", statusLabel(snap.Status)},
		{"Meetup", orDash(meetupLine(snap.Meetup))},
		{"Karma given", karma},
		{"Messages", fmt.Sprint(len(snap.Messages))},
		{"Actions", orDash(strings.Join(actions, ", "))},
		{"Created", snap.CreatedAt.Local().Format("Jan 2 15:04")},
		{"Updated", snap.UpdatedAt.Local().Format("Jan 2 15:04")},
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, " [%s::b]%-12s[-:-:-] [%s]%s[-]\n", fg, r[0]+":", ct, display(r[1]))
	}
	return b.String()
}
