package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

var logoArt = []string{
	" ╦  ╔╗╔╔═╗",
	" ║  ║║║╠╣ ",
	" ╩═╝╝╚╝╚  ",
}

// Logo is the header mark with a one-line tagline under it.
type Logo struct {
	*tview.TextView
	theme   *Theme
	tagline string
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)

	l := &Logo{
		TextView: tv,
		theme:    theme,
		tagline:  "Lost & Found",
	}
	l.render()
	return l
}

// SetTagline replaces the line under the mark.
func (l *Logo) SetTagline(s string) {
	l.tagline = s
	l.render()
}

func (l *Logo) render() {
	l.Clear()
	art := colorName(l.theme.TitleColor)
	var b strings.Builder
	for _, line := range logoArt {
		fmt.Fprintf(&b, "[%s::b]%s[-:-:-]\n", art, line)
	}
	fmt.Fprintf(&b, "[%s]%s[-:-:-]", colorName(l.theme.FgColor), tview.Escape(l.tagline))
	_, _ = fmt.Fprint(l, b.String())
}
