package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashOK
	FlashWarn
	FlashErr
)

var flashTTL = map[FlashLevel]time.Duration{
	FlashInfo: 5 * time.Second,
	FlashOK:   4 * time.Second,
	FlashWarn: 8 * time.Second,
	FlashErr:  10 * time.Second,
}

// FlashMessage is one notification. Repeats counts identical messages raised while it was showing.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Repeats int
	Expires time.Time
}

// FlashModel holds the current notification and fans new ones out to the flash bar.
type FlashModel struct {
	mu      sync.Mutex
	current FlashMessage
	now     func() time.Time
	watchCh chan FlashMessage
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{
		now:     time.Now,
		watchCh: make(chan FlashMessage, 8),
	}
}

// Info reports something neutral, such as a viewer switch.
func (f *FlashModel) Info(msg string) { f.raise(msg, FlashInfo) }

// OK reports an intent that changed a conversation.
func (f *FlashModel) OK(msg string) { f.raise(msg, FlashOK) }

// Warn reports an intent the conversation did not accept.
func (f *FlashModel) Warn(msg string) { f.raise(msg, FlashWarn) }

// Err reports a failed call to the daemon.
func (f *FlashModel) Err(err error) { f.raise(err.Error(), FlashErr) }

func (f *FlashModel) raise(msg string, level FlashLevel) {
	now := f.now()
	f.mu.Lock()
	if f.current.Text == msg && f.current.Level == level && now.Before(f.current.Expires) {
		f.current.Repeats++
	} else {
		f.current = FlashMessage{Text: msg, Level: level}
	}
	f.current.Expires = now.Add(flashTTL[level])
	fm := f.current
	f.mu.Unlock()

	select {
	case f.watchCh <- fm:
	default:
	}
}

// Clear drops the current message.
func (f *FlashModel) Clear() {
	f.mu.Lock()
	f.current = FlashMessage{}
	f.mu.Unlock()
}

// GetMessage returns the current flash message, or nil if expired.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current.Text == "" || !f.now().Before(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch returns a channel that receives flash messages.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar is the one-line notification strip above the prompt.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders msg, or blanks the bar when msg is nil.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	_, _ = fmt.Fprint(fb, fb.format(msg))
}

func (fb *FlashBar) format(msg *FlashMessage) string {
	var color, glyph string
	switch msg.Level {
	case FlashOK:
		color, glyph = colorName(fb.theme.FlashOKColor), "✓"
	case FlashWarn:
		color, glyph = colorName(fb.theme.FlashWarnColor), "!"
	case FlashErr:
		color, glyph = colorName(fb.theme.FlashErrColor), "✗"
	default:
		color, glyph = colorName(fb.theme.FlashInfoColor), "·"
	}
	text := tview.Escape(msg.Text)
	if msg.Repeats > 0 {
		text += fmt.Sprintf(" (x%d)", msg.Repeats+1)
	}
	return fmt.Sprintf(" [%s::b]%s[-:-:-] [%s]%s[-]", color, glyph, color, text)
}
