package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/lnf/internal/conversation"
)

var escape = tview.Escape

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func hex(c tcell.Color) string {
	return fmt.Sprintf("#%06x", c.Hex())
}

// statusLabel turns verification_in_progress into "verification in progress".
func statusLabel(s conversation.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

func meetupLine(m *conversation.Meetup) string {
	if m == nil || m.Empty() {
		return ""
	}
	var parts []string
	for _, p := range []string{m.Time, m.Location, m.Date} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " · ")
}

func senderName(snap conversation.Snapshot, s conversation.Sender, viewer conversation.Sender) string {
	if s == viewer {
		return "You"
	}
	switch s {
	case conversation.SenderOwner:
		return snap.Owner.Name
	case conversation.SenderFinder:
		return snap.Finder.Name
	default:
		return "System"
	}
}
