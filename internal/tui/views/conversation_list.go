package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/tui/ui"
)

// ConversationList is the main conversation table.
type ConversationList struct {
	*tview.Table
	theme  *ui.Theme
	rows   []conversation.Summary
	filter string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Init implements Component.
func (cl *ConversationList) Init() {}

// Start implements Component.
func (cl *ConversationList) Start() {}

// Stop implements Component.
func (cl *ConversationList) Stop() {}

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "0-9", Description: "Jump", Numeric: true},
	}
}

// Update refreshes the list, keeping the selected conversation selected.
func (cl *ConversationList) Update(rows []conversation.Summary) {
	selected := cl.SelectedID()
	cl.rows = rows
	cl.render()
	if selected != "" {
		cl.SelectID(selected)
	}
}

// SetFilter sets the active filter text and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = filter
	cl.render()
}

// ClearFilter clears the active filter.
func (cl *ConversationList) ClearFilter() {
	cl.filter = ""
	cl.render()
}

// Filter returns the active filter.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) visible() []conversation.Summary {
	if cl.filter == "" {
		return cl.rows
	}
	var out []conversation.Summary
	for _, r := range cl.rows {
		if containsFold(r.Item.Name, cl.filter) ||
			containsFold(r.Finder, cl.filter) ||
			containsFold(string(r.Status), cl.filter) ||
			containsFold(r.LastMessage, cl.filter) {
			out = append(out, r)
		}
	}
	return out
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" ITEM", 1},
		{" FINDER", 1},
		{" STATUS", 1},
		{" LAST MESSAGE", 3},
		{" UPDATED", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		cl.SetCell(0, col, cell)
	}

	rows := cl.visible()
	for i, r := range rows {
		row := i + 1
		fg := cl.theme.FgColor
		cl.SetCell(row, 0, tview.NewTableCell(" "+display(r.Item.Name)).SetExpansion(1).SetTextColor(fg))
		cl.SetCell(row, 1, tview.NewTableCell(" "+display(r.Finder)).SetExpansion(1).SetTextColor(fg))
		cl.SetCell(row, 2, tview.NewTableCell(" "+statusLabel(r.Status)).SetExpansion(1).SetTextColor(cl.theme.StatusColor(r.Status)))
		cl.SetCell(row, 3, tview.NewTableCell(" "+display(r.LastMessage)).SetExpansion(3).SetMaxWidth(60).SetTextColor(fg))
		cl.SetCell(row, 4, tview.NewTableCell(formatTimestamp(r.UpdatedAt)+" ").SetAlign(tview.AlignRight).SetTextColor(fg))
	}

	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(rows), len(cl.rows), escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(cl.rows)))
	}
}

// SelectedID returns the id of the selected conversation.
func (cl *ConversationList) SelectedID() string {
	row, _ := cl.GetSelection()
	return cl.IDByIndex(row)
}

// IDByIndex returns the id of the Nth visible conversation (1-based).
func (cl *ConversationList) IDByIndex(n int) string {
	rows := cl.visible()
	if n < 1 || n > len(rows) {
		return ""
	}
	return rows[n-1].ID
}

// SelectID moves the cursor to id if it is visible.
func (cl *ConversationList) SelectID(id string) {
	for i, r := range cl.visible() {
		if r.ID == id {
			cl.Select(i+1, 0)
			return
		}
	}
}

// Item returns the item name of a listed conversation.
func (cl *ConversationList) Item(id string) string {
	for _, r := range cl.rows {
		if r.ID == id {
			return r.Item.Name
		}
	}
	return ""
}
