package ui

import "github.com/rivo/tview"

// MenuHint is one shortcut shown in the header menu.
type MenuHint struct {
	Key         string
	Description string
	// Numeric hints (jump to row N) use NumericKeyColor.
	Numeric bool
}

// Component is a page of the TUI. Start runs when it comes to the front of the
// stack and Stop when it is popped.
type Component interface {
	tview.Primitive
	Name() string
	Init()
	Start()
	Stop()
	Hints() []MenuHint
}
