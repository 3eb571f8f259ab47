package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/status"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	NumericKeyColor   tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	FlashInfoColor    tcell.Color
	FlashOKColor      tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color

	ToneNeutralColor tcell.Color
	ToneWarningColor tcell.Color
	ToneInfoColor    tcell.Color
	ToneSuccessColor tcell.Color

	OwnerColor  tcell.Color
	FinderColor tcell.Color
	SystemColor tcell.Color
}

// DefaultTheme returns a k9s-inspired dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		BorderColor:       tcell.ColorDodgerBlue,
		BorderFocusColor:  tcell.ColorLightSkyBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorOrange,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		NumericKeyColor:   tcell.ColorFuchsia,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashOKColor:      tcell.ColorLimeGreen,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,

		ToneNeutralColor: tcell.ColorSilver,
		ToneWarningColor: tcell.ColorGold,
		ToneInfoColor:    tcell.ColorDeepSkyBlue,
		ToneSuccessColor: tcell.ColorLimeGreen,

		OwnerColor:  tcell.ColorAqua,
		FinderColor: tcell.ColorPapayaWhip,
		SystemColor: tcell.ColorGray,
	}
}

// ToneColor maps a banner tone to a color.
func (t *Theme) ToneColor(tone status.Tone) tcell.Color {
	switch tone {
	case status.ToneWarning:
		return t.ToneWarningColor
	case status.ToneInfo:
		return t.ToneInfoColor
	case status.ToneSuccess:
		return t.ToneSuccessColor
	default:
		return t.ToneNeutralColor
	}
}

// StatusColor colors a conversation status the way its banner is toned.
func (t *Theme) StatusColor(s conversation.Status) tcell.Color {
	return t.ToneColor(status.BannerFor(conversation.Snapshot{Status: s}).Tone)
}

// SenderColor colors a message author.
func (t *Theme) SenderColor(s conversation.Sender) tcell.Color {
	switch s {
	case conversation.SenderOwner:
		return t.OwnerColor
	case conversation.SenderFinder:
		return t.FinderColor
	default:
		return t.SystemColor
	}
}

// colorName returns a tview color tag for c.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
