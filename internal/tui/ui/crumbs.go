package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// crumbWidth caps a crumb label; item names can be long.
const crumbWidth = 24

// Crumbs shows the page stack as a trail, e.g. "Conversations > iPhone 13 > Details".
type Crumbs struct {
	*tview.TextView
	theme *Theme
	label func(page string) string
}

// NewCrumbs creates a new breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &Crumbs{
		TextView: tv,
		theme:    theme,
	}
}

// SetLabeler sets how page names are shown, e.g. the item name for a thread.
func (c *Crumbs) SetLabeler(fn func(page string) string) {
	c.label = fn
}

// Update renders the trail for stack.
func (c *Crumbs) Update(stack []string) {
	c.Clear()
	_, _ = fmt.Fprint(c, c.trail(stack))
}

func (c *Crumbs) trail(stack []string) string {
	var b strings.Builder
	for i, page := range stack {
		name := page
		if c.label != nil {
			name = c.label(page)
		}
		name = tview.Escape(clip(name, crumbWidth))

		fg, bg, attr := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg, ""
		if i == len(stack)-1 {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		if i > 0 {
			b.WriteString(" > ")
		}
		fmt.Fprintf(&b, "[%s:%s:%s] %s [-:-:-]", colorName(fg), colorName(bg), attr, name)
	}
	return b.String()
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
