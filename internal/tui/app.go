package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/status"
	"github.com/matheus3301/lnf/internal/tui/client"
	"github.com/matheus3301/lnf/internal/tui/keys"
	"github.com/matheus3301/lnf/internal/tui/model"
	"github.com/matheus3301/lnf/internal/tui/ui"
	"github.com/matheus3301/lnf/internal/tui/views"
)

const (
	pageConversations = "conversations"
	pageThread        = "thread"
	pageDetails       = "details"
	pageSearch        = "search"
	pageHelp          = "help"
	pageHandoff       = "handoff"

	headerHeight = 7
	promptHeight = 3

	closeTimeout = 2 * time.Second
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	root     *tview.Flex
	pages    *ui.Pages
	theme    *ui.Theme
	vm       *model.ViewModel
	registry *keys.Registry
	flash    *ui.FlashModel
	session  string

	info     *ui.SessionInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	flashBar *ui.FlashBar
	prompt   *ui.Prompt

	list    *views.ConversationList
	thread  *views.MessageThread
	details *views.ConversationInfo
	search  *views.SearchView
	help    *views.HelpView
	handoff *views.HandoffView

	components map[string]ui.Component

	ctx         context.Context
	cancel      context.CancelFunc
	stopWatch   context.CancelFunc
	promptFocus tview.Primitive
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, sessionName string) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		pages:    ui.NewPages(),
		theme:    theme,
		vm:       model.NewViewModel(c),
		registry: keys.NewRegistry(),
		flash:    ui.NewFlashModel(),
		session:  sessionName,
		info:     ui.NewSessionInfo(theme),
		menu:     ui.NewMenu(theme),
		crumbs:   ui.NewCrumbs(theme),
		flashBar: ui.NewFlashBar(theme),
		prompt:   ui.NewPrompt(theme),
		list:     views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		details:  views.NewConversationInfo(theme),
		search:   views.NewSearchView(theme),
		help:     views.NewHelpView(theme),
		handoff:  views.NewHandoffView(theme),
		ctx:      ctx,
		cancel:   cancel,
	}
	a.components = map[string]ui.Component{
		pageConversations: a.list,
		pageThread:        a.thread,
		pageDetails:       a.details,
		pageSearch:        a.search,
		pageHelp:          a.help,
		pageHandoff:       a.handoff,
	}
	for _, comp := range a.components {
		comp.Init()
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Description: "Command", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Description: "Help", Visible: true,
		Handler: func() { a.show(pageHelp) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Description: "Quit/Back", Visible: true,
		Handler: func() {
			if a.pages.Depth() <= 1 {
				a.Stop()
				return
			}
			a.back()
		},
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyEscape, Description: "Back",
		Handler: a.back,
	})

	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: '/', Description: "Filter",
		Handler: func() { a.showPrompt(ui.PromptFilter) },
	})
	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: 's', Description: "Search", Visible: true,
		Handler: func() { a.openSearch("", "") },
	})
	a.registry.AddView(pageConversations, &keys.Action{
		Key: tcell.KeyRune, Rune: '0', Description: "Clear filter",
		Handler: func() { a.list.ClearFilter() },
	})
	for n := 1; n <= 9; n++ {
		a.registry.AddView(pageConversations, &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n),
			Handler: func() {
				if id := a.list.IDByIndex(n); id != "" {
					a.open(id)
				}
			},
		})
	}

	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Handler: func() { a.show(pageDetails) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 's', Description: "Search thread", Visible: true,
		Handler: func() {
			if c := a.vm.Active(); c != nil {
				a.openSearch(c.Snapshot.ID, c.Snapshot.Item.Name)
			}
		},
	})
	a.registry.AddView(pageSearch, &keys.Action{
		Key: tcell.KeyTab,
		Handler: func() { a.app.SetFocus(a.search.Input()) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'w', Description: "Switch side", Visible: true,
		Handler: a.toggleViewer,
	})
	a.addIntentKey('v', "Request proof", status.RequestVerification)
	a.addIntentKey('a', "Approve", status.ApproveVerification)
	a.addIntentKey('x', "Reject", status.RejectVerification)
	a.addIntentKey('r', "Returned", status.MarkReturned)
	a.addIntentKey('k', "Karma", status.GiveKarma)
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'h', Description: "Handoff QR", Visible: true,
		Handler: a.showHandoff,
		Enabled: func() bool {
			c := a.vm.Active()
			return c != nil && c.Snapshot.Status == conversation.StatusMeetupArranged
		},
	})
}

// addIntentKey binds r on the thread to ev, shown only while the conversation accepts it.
func (a *App) addIntentKey(r rune, label string, ev status.EventKind) {
	a.registry.AddView(pageThread, &keys.Action{
		Key: tcell.KeyRune, Rune: r, Description: label, Visible: true,
		Handler: func() {
			a.runIntent(label, func(ctx context.Context) (bool, error) { return a.vm.Do(ctx, ev) })
		},
		Enabled: func() bool { return a.vm.Allows(ev) },
	})
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, col int) {
		if id := a.list.SelectedID(); id != "" {
			a.open(id)
		}
	})

	a.thread.SetOnSend(func(text string) {
		a.runIntent("Sent", func(ctx context.Context) (bool, error) { return a.vm.Send(ctx, text) })
	})

	a.search.SetOnQuery(a.runSearch)
	a.search.SetOnOpen(a.open)

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		case ui.PromptFilter:
			a.list.SetFilter(text)
		}
		a.updateHeader()
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.list.ClearFilter()
		}
		a.hidePrompt()
	})

	a.crumbs.SetLabeler(func(page string) string {
		if comp, ok := a.components[page]; ok {
			return comp.Name()
		}
		return page
	})
	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		a.updateHeader()
	})
}

func (a *App) setupLayout() {
	for name, comp := range a.components {
		a.pages.AddPage(name, comp, true, false)
	}

	logo := ui.NewLogo(a.theme)
	logo.SetTagline("Lost & Found · " + a.session)

	header := tview.NewFlex().
		AddItem(a.info, 0, 1, false).
		AddItem(a.menu, 0, 2, false).
		AddItem(logo, 26, 0, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, headerHeight, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.prompt, 0, 0, false)

	a.app.SetRoot(a.root, true)
	a.pages.Reset(pageConversations)
	a.app.SetFocus(a.list)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.typing() {
			if event.Key() == tcell.KeyTab && a.search.Input().HasFocus() {
				a.app.SetFocus(a.search.Results())
				return nil
			}
			if event.Key() != tcell.KeyEscape {
				return event
			}
			switch {
			case a.thread.Composer().HasFocus():
				a.app.SetFocus(a.thread.Messages())
				return nil
			case a.search.Input().HasFocus():
				a.back()
				return nil
			}
			return event
		}

		if a.registry.HandleEvent(a.pages.Current(), event) {
			a.updateHeader()
			return nil
		}
		return event
	})
}

// typing reports whether a text input has focus and should receive raw keys.
func (a *App) typing() bool {
	return a.prompt.HasFocus() || a.thread.Composer().HasFocus() || a.search.Input().HasFocus()
}

func (a *App) focusFor(page string) tview.Primitive {
	switch page {
	case pageThread:
		return a.thread.Messages()
	case pageSearch:
		return a.search.Input()
	}
	if comp, ok := a.components[page]; ok {
		return comp
	}
	return a.list
}

// show pushes page unless it is already on top.
func (a *App) show(page string) {
	if a.pages.Current() == page {
		return
	}
	a.pages.Push(page)
	a.components[page].Start()
	a.app.SetFocus(a.focusFor(page))
}

// back pops the current page. On the root it clears the list filter instead.
func (a *App) back() {
	if a.pages.Depth() <= 1 {
		a.list.ClearFilter()
		return
	}
	top := a.pages.Pop()
	a.components[top].Stop()
	if top == pageThread {
		a.leaveThread()
	}
	a.app.SetFocus(a.focusFor(a.pages.Current()))
}

// unwind pops back to the conversation list. The open conversation and its watch are kept.
func (a *App) unwind() {
	for _, name := range a.pages.PopTo(pageConversations) {
		a.components[name].Stop()
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.promptFocus = a.app.GetFocus()
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, promptHeight, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	if a.promptFocus != nil {
		a.app.SetFocus(a.promptFocus)
		a.promptFocus = nil
		return
	}
	a.app.SetFocus(a.focusFor(a.pages.Current()))
}

// open loads a conversation and shows its thread on top of the list.
func (a *App) open(id string) {
	go func() {
		c, err := a.vm.Open(a.ctx, id)
		if err != nil {
			a.flash.Err(fmt.Errorf("open %s: %w", id, err))
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.unwind()
			a.list.SelectID(id)
			a.renderThread(c)
			a.show(pageThread)
			a.watch(id)
		})
	}()
}

// watch follows the open conversation until the thread is left.
func (a *App) watch(id string) {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.stopWatch = cancel
	go func() {
		err := a.vm.Watch(ctx, id, func(api.ConversationEvent) {
			a.app.QueueUpdateDraw(a.refreshThread)
		})
		if err != nil {
			a.flash.Err(fmt.Errorf("watch %s: %w", id, err))
		}
	}()
}

func (a *App) leaveThread() {
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
	ctx, cancel := context.WithTimeout(a.ctx, closeTimeout)
	defer cancel()
	if err := a.vm.Close(ctx); err != nil {
		a.flash.Err(err)
	}
	a.updateHeader()
}

func (a *App) renderThread(c *api.Conversation) {
	if c == nil {
		return
	}
	a.thread.SetViewer(a.vm.Viewer())
	a.thread.Update(c)
	a.details.Update(c)
	a.updateHeader()
}

func (a *App) refreshThread() {
	if a.pages.Contains(pageThread) {
		a.renderThread(a.vm.Active())
	}
}

func (a *App) toggleViewer() {
	v := a.vm.ToggleViewer()
	a.thread.SetViewer(v)
	a.flash.Info("Acting as " + string(v))
}

// runIntent calls fn off the UI goroutine and reports the outcome on the flash bar.
func (a *App) runIntent(label string, fn func(ctx context.Context) (bool, error)) {
	go func() {
		applied, err := fn(a.ctx)
		switch {
		case err != nil:
			a.flash.Err(err)
		case applied:
			a.flash.OK(label)
		default:
			a.flash.Warn(label + ": not available right now")
		}
		a.app.QueueUpdateDraw(a.refreshThread)
	}()
}

// openSearch shows the search page, limited to one conversation when id is set.
func (a *App) openSearch(id, item string) {
	a.search.Scope(id, item)
	a.show(pageSearch)
}

func (a *App) runSearch(query, conversationID string) {
	go func() {
		results, err := a.vm.SearchMessages(a.ctx, query, conversationID)
		if err != nil {
			a.flash.Err(fmt.Errorf("search: %w", err))
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.search.Update(results)
			if len(results) > 0 {
				a.app.SetFocus(a.search.Results())
			}
		})
	}()
}

func (a *App) showHandoff() {
	c := a.vm.Active()
	if c == nil {
		a.flash.Warn("Open a conversation first")
		return
	}
	item := c.Snapshot.Item.Name
	go func() {
		resp, err := a.vm.IssueHandoff(a.ctx)
		if err != nil {
			a.flash.Err(fmt.Errorf("handoff: %w", err))
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.handoff.ShowTicket(item, resp)
			a.show(pageHandoff)
		})
	}()
}

func (a *App) runCommand(cmd Command) {
	if err := cmd.Validate(); err != nil {
		a.flash.Warn(err.Error())
		return
	}
	switch cmd.Name {
	case "open":
		a.open(cmd.Args)
	case "search":
		a.openSearch("", "")
		a.search.Input().SetText(cmd.Args)
		a.runSearch(cmd.Args, "")
	case "submit":
		a.runIntent("Details submitted", func(ctx context.Context) (bool, error) {
			return a.vm.Submit(ctx, conversation.MethodDetails, cmd.Args)
		})
	case "photo":
		a.runIntent("Photo submitted", func(ctx context.Context) (bool, error) {
			return a.vm.Submit(ctx, conversation.MethodPhoto, cmd.Args)
		})
	case "attach":
		a.runIntent("Image sent", func(ctx context.Context) (bool, error) {
			return a.vm.Attach(ctx, cmd.Args, "")
		})
	case "meet":
		a.runIntent("Meetup proposed", func(ctx context.Context) (bool, error) {
			return a.vm.ProposeMeetup(ctx, cmd.Args)
		})
	case "request", "approve", "reject", "returned", "karma":
		ev := commandEvents[cmd.Name]
		a.runIntent(strings.ToUpper(cmd.Name[:1])+cmd.Name[1:], func(ctx context.Context) (bool, error) {
			return a.vm.Do(ctx, ev)
		})
	case "handoff":
		a.showHandoff()
	case "redeem":
		a.redeem(cmd.Args)
	case "as":
		if err := a.vm.SetViewer(conversation.Sender(strings.ToLower(cmd.Args))); err != nil {
			a.flash.Warn(err.Error())
			return
		}
		a.thread.SetViewer(a.vm.Viewer())
		a.flash.Info("Acting as " + cmd.Args)
	case "help":
		a.show(pageHelp)
	case "quit":
		a.Stop()
	}
}

var commandEvents = map[string]status.EventKind{
	"request":  status.RequestVerification,
	"approve":  status.ApproveVerification,
	"reject":   status.RejectVerification,
	"returned": status.MarkReturned,
	"karma":    status.GiveKarma,
}

func (a *App) redeem(token string) {
	go func() {
		applied, err := a.vm.Redeem(a.ctx, token)
		if err != nil {
			a.flash.Err(fmt.Errorf("redeem: %w", err))
			return
		}
		if applied {
			a.flash.OK("Item returned")
		} else {
			a.flash.Warn("Token accepted but the conversation did not change")
		}
		if c := a.vm.Active(); c != nil {
			a.open(c.Snapshot.ID)
		}
	}()
}

// updateHeader redraws the session panel and the key hints for the current page.
func (a *App) updateHeader() {
	data := &ui.SessionData{
		Session:       a.session,
		Viewer:        string(a.vm.Viewer()),
		Conversations: len(a.vm.Conversations()),
	}
	if c := a.vm.Active(); c != nil {
		data.Active = c.Snapshot.Item.Name
		data.Status = c.Banner.Title
		data.Pending = c.Pending
	}
	a.info.Update(data)

	page := a.pages.Current()
	var hints []ui.MenuHint
	if comp, ok := a.components[page]; ok {
		hints = append(hints, comp.Hints()...)
	}
	a.menu.Update(append(hints, a.registry.Hints(page)...))
}

// Run starts the TUI application.
func (a *App) Run() error {
	go func() {
		if err := a.vm.LoadConversations(a.ctx); err != nil {
			a.flash.Err(fmt.Errorf("load conversations: %w", err))
		}
		a.app.QueueUpdateDraw(func() {
			a.list.Update(a.vm.Conversations())
			a.updateHeader()
		})
		a.startRefreshLoop()
	}()
	go a.watchFlash()

	return a.app.Run()
}

func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(5 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = a.vm.LoadConversations(a.ctx)
				a.app.QueueUpdateDraw(func() {
					a.list.Update(a.vm.Conversations())
					a.flashBar.Update(a.flash.GetMessage())
					a.updateHeader()
				})
			case <-a.ctx.Done():
				return
			}
		}
	}()
}

func (a *App) watchFlash() {
	for {
		select {
		case msg := <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(&msg) })
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
