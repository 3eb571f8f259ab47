package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages is a navigation stack over tview.Pages: only the top page is visible.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

// NewPages creates an empty stack.
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// SetOnChange sets a callback that fires after every stack change.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack.
func (p *Pages) Push(name string) {
	p.hideTop()
	p.stack = append(p.stack, name)
	p.showTop()
}

// Pop removes the top page and reveals the one below. It returns the popped
// name, or "" on an empty stack.
func (p *Pages) Pop() string {
	if len(p.stack) == 0 {
		return ""
	}
	top := p.Current()
	p.hideTop()
	p.stack = p.stack[:len(p.stack)-1]
	p.showTop()
	return top
}

// PopTo pops until name is on top and returns the popped names, topmost first.
// Nothing is popped when name is not on the stack.
func (p *Pages) PopTo(name string) []string {
	i := slices.Index(p.stack, name)
	if i < 0 || i == len(p.stack)-1 {
		return nil
	}
	popped := slices.Clone(p.stack[i+1:])
	slices.Reverse(popped)
	p.hideTop()
	p.stack = p.stack[:i+1]
	p.showTop()
	return popped
}

// Replace swaps the top page for name.
func (p *Pages) Replace(name string) {
	if len(p.stack) == 0 {
		p.Push(name)
		return
	}
	p.hideTop()
	p.stack[len(p.stack)-1] = name
	p.showTop()
}

// Reset leaves name as the only page.
func (p *Pages) Reset(name string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{name}
	p.showTop()
}

// Contains reports whether name is anywhere on the stack.
func (p *Pages) Contains(name string) bool {
	return slices.Contains(p.stack, name)
}

// Current returns the top page, or "".
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the page stack, bottom first.
func (p *Pages) Stack() []string {
	return slices.Clone(p.stack)
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

func (p *Pages) hideTop() {
	if top := p.Current(); top != "" {
		p.HidePage(top)
	}
}

// showTop reveals the new top page and notifies listeners.
func (p *Pages) showTop() {
	if top := p.Current(); top != "" {
		p.ShowPage(top)
		p.SendToFront(top)
	}
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
