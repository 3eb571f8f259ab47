package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/status"
	"github.com/matheus3301/lnf/internal/tui/ui"
)

const progressWidth = 20

// MessageThread shows the status banner, the transcript and a composer for one conversation.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	banner   *tview.TextView
	messages *tview.TextView
	composer *tview.InputField
	conv     *api.Conversation
	viewer   conversation.Sender
	onSend   func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	banner := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	banner.SetBorder(true)
	banner.SetBorderColor(theme.BorderColor)
	banner.SetBackgroundColor(theme.BgColor)
	banner.SetTextColor(theme.FgColor)

	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(banner, 5, 0, false).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		banner:   banner,
		messages: messages,
		composer: composer,
		viewer:   conversation.SenderOwner,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			text := strings.TrimSpace(composer.GetText())
			if text != "" {
				mt.onSend(text)
				composer.SetText("")
			}
		}
	})

	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.conv != nil {
		return mt.conv.Snapshot.Item.Name
	}
	return "Messages"
}

// Init implements Component.
func (mt *MessageThread) Init() {}

// Start implements Component.
func (mt *MessageThread) Start() {}

// Stop implements Component.
func (mt *MessageThread) Stop() {}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "d", Description: "Details"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnSend sets the callback when a message is sent.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// SetViewer selects whose side of the thread is shown as "You".
func (mt *MessageThread) SetViewer(v conversation.Sender) {
	mt.viewer = v
	if mt.conv != nil {
		mt.Update(mt.conv)
	}
}

// Conversation returns the conversation on screen, or nil.
func (mt *MessageThread) Conversation() *api.Conversation {
	return mt.conv
}

// Update renders a conversation view.
func (mt *MessageThread) Update(c *api.Conversation) {
	mt.conv = c
	snap := c.Snapshot

	tone := mt.theme.ToneColor(c.Banner.Tone)
	mt.banner.SetBorderColor(tone)
	mt.banner.SetTitle(fmt.Sprintf(" %s · %s ", escape(snap.Item.Name), escape(snap.Finder.Name)))
	mt.banner.SetTitleColor(tone)
	mt.banner.Clear()
	_, _ = fmt.Fprint(mt.banner, renderBanner(mt.theme, c.Banner, c.Pending))

	mt.messages.Clear()
	var b strings.Builder
	for _, m := range snap.Messages {
		b.WriteString(renderMessage(mt.theme, snap, m, mt.viewer))
	}
	_, _ = fmt.Fprint(mt.messages, b.String())
	mt.messages.ScrollToEnd()
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}

func renderBanner(theme *ui.Theme, b status.Banner, pending int) string {
	tone := hex(theme.ToneColor(b.Tone))
	filled := b.Progress * progressWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled)

	out := fmt.Sprintf(" [%s::b]%s[-:-:-]\n", tone, escape(b.Title))
	if b.Description != "" {
		out += fmt.Sprintf(" %s\n", escape(b.Description))
	}
	out += fmt.Sprintf(" [%s]%s[-] %d%%", tone, bar, b.Progress)
	if pending > 0 {
		out += " [::d]· typing...[-:-:-]"
	}
	return out
}

func renderMessage(theme *ui.Theme, snap conversation.Snapshot, m conversation.Message, viewer conversation.Sender) string {
	name := senderName(snap, m.Sender, viewer)
	header := fmt.Sprintf("[%s::b]%s[-:-:-] [::d]#%d %s[-:-:-]\n",
		hex(theme.SenderColor(m.Sender)), display(name), m.Seq, formatTimestamp(m.Timestamp))

	var body strings.Builder
	if v := m.Verification; v != nil {
		body.WriteString(renderVerification(theme, v))
	}
	if m.Text != "" && (m.Verification == nil || m.Verification.Kind != conversation.VerificationResponse) {
		body.WriteString(display(m.Text))
		body.WriteString("\n")
	}
	if a := m.Attachment; a != nil {
		fmt.Fprintf(&body, "[::u]%s[-:-:-] %s\n", a.Kind, display(a.URI))
	}
	if m.Karma != nil {
		karma := "★ Karma can be given to the finder"
		if snap.KarmaGiven {
			karma = "★ Karma given"
		}
		fmt.Fprintf(&body, "[%s]%s[-]\n", hex(theme.ToneSuccessColor), karma)
	}
	return header + body.String() + "\n"
}

func renderVerification(theme *ui.Theme, v *conversation.Verification) string {
	switch v.Kind {
	case conversation.VerificationRequest:
		return fmt.Sprintf("[%s]⚑ Verification requested[-]\n", hex(theme.ToneWarningColor))
	case conversation.VerificationResponse:
		line := fmt.Sprintf("[%s]✎ Verification (%s, %s)[-]\n", hex(theme.ToneInfoColor), v.Method, v.Status)
		switch v.Method {
		case conversation.MethodPhoto:
			line += fmt.Sprintf("[::u]photo[-:-:-] %s\n", display(v.Image))
		default:
			line += fmt.Sprintf("\"%s\"\n", display(v.Details))
		}
		return line
	case conversation.VerificationDecision:
		if v.Status == conversation.VerificationApproved {
			return fmt.Sprintf("[%s]✔ Approved #%d[-]\n", hex(theme.ToneSuccessColor), v.Ref)
		}
		return fmt.Sprintf("[%s]✘ Rejected #%d[-]\n", hex(theme.FlashErrColor), v.Ref)
	}
	return ""
}
