package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/tui/ui"
)

var searchColumns = []struct {
	title    string
	maxWidth int
}{
	{" ITEM", 25},
	{" FROM", 0},
	{" SNIPPET", 0},
	{" TIME", 12},
}

// SearchView runs full-text queries over every conversation, or over one when scoped.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	input   *tview.InputField
	results *tview.Table
	data    []api.SearchResult

	scopeID   string
	scopeItem string
	onQuery   func(query, conversationID string)
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	sv := &SearchView{
		Flex: tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(input, 1, 0, true).
			AddItem(results, 0, 1, false),
		theme:   theme,
		input:   input,
		results: results,
	}
	input.SetDoneFunc(func(key tcell.Key) {
		q := strings.TrimSpace(input.GetText())
		if key == tcell.KeyEnter && q != "" && sv.onQuery != nil {
			sv.onQuery(q, sv.scopeID)
		}
	})
	sv.Scope("", "")
	return sv
}

// Name implements Component.
func (sv *SearchView) Name() string {
	if sv.scopeItem != "" {
		return "Search " + sv.scopeItem
	}
	return "Search"
}

// Init implements Component.
func (sv *SearchView) Init() {}

// Start implements Component.
func (sv *SearchView) Start() {}

// Stop forgets the previous results so a new search starts clean.
func (sv *SearchView) Stop() {
	sv.input.SetText("")
	sv.Update(nil)
}

// Hints implements Component.
func (sv *SearchView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Search/Open"},
		{Key: "Tab", Description: "Results"},
		{Key: "Esc", Description: "Back"},
	}
}

// Scope restricts searches to one conversation. An empty id searches everything.
func (sv *SearchView) Scope(conversationID, item string) {
	sv.scopeID, sv.scopeItem = conversationID, item
	if conversationID == "" {
		sv.input.SetLabel(" Search all: ")
		return
	}
	sv.input.SetLabel(fmt.Sprintf(" Search %s: ", escape(item)))
}

// ScopeID returns the conversation searches are limited to, or "".
func (sv *SearchView) ScopeID() string { return sv.scopeID }

// SetOnQuery sets the callback for a submitted query and the current scope.
func (sv *SearchView) SetOnQuery(fn func(query, conversationID string)) {
	sv.onQuery = fn
}

// Update renders results; a nil slice clears the table.
func (sv *SearchView) Update(results []api.SearchResult) {
	sv.data = results
	sv.results.Clear()

	for col, c := range searchColumns {
		sv.results.SetCell(0, col, tview.NewTableCell(c.title).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	for i, r := range results {
		cells := []string{
			display(r.Item),
			string(r.Message.Sender),
			display(r.Snippet),
			formatTimestamp(r.Message.Timestamp),
		}
		for col, text := range cells {
			cell := tview.NewTableCell(" " + text).SetTextColor(sv.theme.FgColor)
			if w := searchColumns[col].maxWidth; w > 0 {
				cell.SetMaxWidth(w)
			}
			switch col {
			case 1:
				cell.SetTextColor(sv.theme.SenderColor(r.Message.Sender))
			case 2:
				cell.SetExpansion(1)
			}
			sv.results.SetCell(i+1, col, cell)
		}
	}

	switch {
	case results == nil:
		sv.results.SetTitle(" Results ")
	case len(results) == 0:
		sv.results.SetTitle(" Results: none ")
	default:
		sv.results.SetTitle(fmt.Sprintf(" Results (%d) ", len(results)))
	}
}

// SelectedResult returns the conversation id and message sequence of the selected row.
func (sv *SearchView) SelectedResult() (string, int64) {
	row, _ := sv.results.GetSelection()
	if idx := row - 1; idx >= 0 && idx < len(sv.data) {
		return sv.data[idx].ConversationID, sv.data[idx].Message.Seq
	}
	return "", 0
}

// SetOnOpen sets the callback when a result is chosen.
func (sv *SearchView) SetOnOpen(fn func(conversationID string)) {
	sv.results.SetSelectedFunc(func(int, int) {
		if id, _ := sv.SelectedResult(); id != "" {
			fn(id)
		}
	})
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
