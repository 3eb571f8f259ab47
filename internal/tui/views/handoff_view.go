package views

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/tui/ui"
)

// HandoffView shows the QR code the finder presents at the meetup.
type HandoffView struct {
	*tview.TextView
	theme *ui.Theme
	token string
}

// NewHandoffView creates a new handoff view.
func NewHandoffView(theme *ui.Theme) *HandoffView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Handoff ")
	tv.SetTitleColor(theme.TitleColor)

	return &HandoffView{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (hv *HandoffView) Name() string { return "Handoff" }

// Init implements Component.
func (hv *HandoffView) Init() {}

// Start implements Component.
func (hv *HandoffView) Start() {}

// Stop clears the token so it does not linger on screen.
func (hv *HandoffView) Stop() {
	hv.token = ""
	hv.Clear()
}

// Hints implements Component.
func (hv *HandoffView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Token returns the token on screen.
func (hv *HandoffView) Token() string { return hv.token }

// ShowTicket renders an issued handoff token and its QR code.
func (hv *HandoffView) ShowTicket(item string, resp *api.HandoffResponse) {
	hv.Clear()
	hv.token = resp.Token
	hv.SetTitle(fmt.Sprintf(" Handoff: %s ", escape(item)))
	_, _ = fmt.Fprintf(hv,
		"\n  Show this code when you hand back the %s.\n\n%s\n  [::d]Expires %s · redeem with :redeem <token>[-:-:-]\n",
		escape(item), resp.QR, resp.ExpiresAt.Local().Format("Jan 2 15:04"))
}

// ShowMessage displays a status message.
func (hv *HandoffView) ShowMessage(msg string) {
	hv.Clear()
	hv.token = ""
	_, _ = fmt.Fprintf(hv, "\n\n%s", escape(msg))
}
