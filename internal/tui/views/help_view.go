package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/lnf/internal/tui/ui"
)

// HelpView displays key binding and command reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	_, _ = fmt.Fprint(hv, renderHelp(theme))
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Init implements Component.
func (hv *HelpView) Init() {}

// Start implements Component.
func (hv *HelpView) Start() {}

// Stop implements Component.
func (hv *HelpView) Stop() {}

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"?", "Help"},
		{"Esc", "Cancel / Go back"},
		{"q", "Quit / Back"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Conversation List", [][2]string{
		{"Enter", "Open conversation"},
		{"/", "Filter by item, finder or status"},
		{"1-9", "Jump to Nth conversation"},
		{"0", "Clear filter"},
		{"s", "Search messages"},
	}},
	{"Thread", [][2]string{
		{"i", "Focus composer"},
		{"d", "Conversation details"},
		{"w", "Switch between owner and finder"},
		{"v", "Request verification (finder)"},
		{"a / x", "Approve / reject the latest submission (finder)"},
		{"r", "Mark returned"},
		{"k", "Give karma (owner)"},
		{"h", "Show the handoff QR code"},
	}},
	{"Commands (: mode)", [][2]string{
		{":open <id>", "Open a conversation"},
		{":search <query>", "Search messages"},
		{":submit <details>", "Verify with details only the owner knows"},
		{":photo <uri>", "Verify with a photo"},
		{":attach <uri>", "Send a plain image"},
		{":meet <text>", "Propose a time and place"},
		{":request :approve :reject", "Verification steps"},
		{":returned :karma", "Close out the handoff"},
		{":handoff / :redeem <token>", "Issue or redeem a handoff token"},
		{":as owner|finder", "Switch sides"},
		{":help / :quit", "Help / Quit"},
	}},
}

func renderHelp(theme *ui.Theme) string {
	kc := hex(theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "  [%s]%-28s[-:-:-] %s\n", kc, escape(r[0]), r[1])
		}
	}
	return b.String()
}
