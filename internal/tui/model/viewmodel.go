package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/status"
	"github.com/matheus3301/lnf/internal/tui/client"
)

// ErrNoConversation is returned by thread intents when nothing is open.
var ErrNoConversation = errors.New("no conversation open")

// ViewModel caches daemon state for the views and runs intents on the open conversation.
type ViewModel struct {
	mu sync.RWMutex

	client        *client.Client
	conversations []conversation.Summary
	active        *api.Conversation
	activeID      string
	viewer        conversation.Sender

	refreshCh chan struct{}
}

// NewViewModel creates a new view model connected to the daemon client.
// The viewer starts on the owner's side.
func NewViewModel(c *client.Client) *ViewModel {
	return &ViewModel{
		client:    c,
		viewer:    conversation.SenderOwner,
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// LoadConversations fetches the conversation list.
func (vm *ViewModel) LoadConversations(ctx context.Context) error {
	resp, err := vm.client.Claim.ListConversations(ctx, &api.ListConversationsRequest{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.conversations = resp.Conversations
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// Open loads a conversation and makes it the active one.
func (vm *ViewModel) Open(ctx context.Context, id string) (*api.Conversation, error) {
	resp, err := vm.client.Claim.GetConversation(ctx, &api.ConversationRequest{ID: id})
	if err != nil {
		return nil, err
	}
	vm.mu.Lock()
	prev := vm.activeID
	vm.activeID = id
	vm.active = resp
	vm.mu.Unlock()
	if prev != "" && prev != id {
		// The replaced thread is gone from the screen either way.
		_, _ = vm.client.Claim.CloseConversation(ctx, &api.ConversationRequest{ID: prev})
	}
	vm.signalRefresh()
	return resp, nil
}

// Close forgets the active conversation and tears down its daemon session, which
// cancels any replies still scheduled for it.
func (vm *ViewModel) Close(ctx context.Context) error {
	vm.mu.Lock()
	id := vm.activeID
	vm.activeID = ""
	vm.active = nil
	vm.mu.Unlock()
	if id == "" {
		return nil
	}
	if _, err := vm.client.Claim.CloseConversation(ctx, &api.ConversationRequest{ID: id}); err != nil {
		return fmt.Errorf("close %s: %w", id, err)
	}
	return nil
}

// setActive stores c if it is still the open conversation.
func (vm *ViewModel) setActive(c api.Conversation) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if c.Snapshot.ID != vm.activeID {
		return false
	}
	vm.active = &c
	return true
}

// Viewer returns whose side of the thread is acted on.
func (vm *ViewModel) Viewer() conversation.Sender {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.viewer
}

// SetViewer switches between the owner's and the finder's side.
func (vm *ViewModel) SetViewer(s conversation.Sender) error {
	if s != conversation.SenderOwner && s != conversation.SenderFinder {
		return fmt.Errorf("viewer must be owner or finder, got %q", s)
	}
	vm.mu.Lock()
	vm.viewer = s
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// ToggleViewer flips the viewer and returns the new side.
func (vm *ViewModel) ToggleViewer() conversation.Sender {
	vm.mu.Lock()
	if vm.viewer == conversation.SenderOwner {
		vm.viewer = conversation.SenderFinder
	} else {
		vm.viewer = conversation.SenderOwner
	}
	v := vm.viewer
	vm.mu.Unlock()
	vm.signalRefresh()
	return v
}

// Allows reports whether the open conversation currently accepts ev.
func (vm *ViewModel) Allows(ev status.EventKind) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.active == nil {
		return false
	}
	for _, a := range vm.active.Affordances {
		if a == ev {
			return true
		}
	}
	return false
}

func (vm *ViewModel) activeConversationID() (string, error) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.activeID == "" {
		return "", ErrNoConversation
	}
	return vm.activeID, nil
}

// intent runs fn against the active conversation and stores the returned view.
func (vm *ViewModel) intent(fn func(id string) (*api.IntentResponse, error)) (bool, error) {
	id, err := vm.activeConversationID()
	if err != nil {
		return false, err
	}
	resp, err := fn(id)
	if err != nil {
		return false, err
	}
	vm.setActive(resp.Conversation)
	vm.signalRefresh()
	return resp.Applied, nil
}

// Do runs a no-argument intent: request, approve, reject, returned or karma.
func (vm *ViewModel) Do(ctx context.Context, ev status.EventKind) (bool, error) {
	c := vm.client.Claim
	return vm.intent(func(id string) (*api.IntentResponse, error) {
		req := &api.ConversationRequest{ID: id}
		switch ev {
		case status.RequestVerification:
			return c.RequestVerification(ctx, req)
		case status.ApproveVerification:
			return c.ApproveVerification(ctx, req)
		case status.RejectVerification:
			return c.RejectVerification(ctx, req)
		case status.MarkReturned:
			return c.MarkReturned(ctx, req)
		case status.GiveKarma:
			return c.GiveKarma(ctx, req)
		}
		return nil, fmt.Errorf("%s needs arguments", ev)
	})
}

// Submit sends a verification submission.
func (vm *ViewModel) Submit(ctx context.Context, method conversation.Method, value string) (bool, error) {
	return vm.intent(func(id string) (*api.IntentResponse, error) {
		req := &api.SubmitVerificationRequest{ID: id, Method: method}
		if method == conversation.MethodPhoto {
			req.Image = value
		} else {
			req.Details = value
		}
		return vm.client.Claim.SubmitVerification(ctx, req)
	})
}

// Send sends a chat message as the current viewer.
func (vm *ViewModel) Send(ctx context.Context, text string) (bool, error) {
	sender := vm.Viewer()
	return vm.intent(func(id string) (*api.IntentResponse, error) {
		return vm.client.Claim.SendMessage(ctx, &api.SendMessageRequest{ID: id, Sender: sender, Text: text})
	})
}

// Attach sends an image as the current viewer. A verification target makes it a photo submission.
func (vm *ViewModel) Attach(ctx context.Context, uri, target string) (bool, error) {
	sender := vm.Viewer()
	return vm.intent(func(id string) (*api.IntentResponse, error) {
		return vm.client.Claim.SendMessage(ctx, &api.SendMessageRequest{
			ID:         id,
			Sender:     sender,
			Attachment: &conversation.Attachment{Kind: conversation.AttachmentImage, URI: uri},
			Target:     target,
		})
	})
}

// ProposeMeetup proposes a time and place as the current viewer.
func (vm *ViewModel) ProposeMeetup(ctx context.Context, text string) (bool, error) {
	sender := vm.Viewer()
	return vm.intent(func(id string) (*api.IntentResponse, error) {
		return vm.client.Claim.ProposeMeetup(ctx, &api.ProposeMeetupRequest{ID: id, Sender: sender, Text: text})
	})
}

// IssueHandoff issues a handoff token for the open conversation.
func (vm *ViewModel) IssueHandoff(ctx context.Context) (*api.HandoffResponse, error) {
	id, err := vm.activeConversationID()
	if err != nil {
		return nil, err
	}
	return vm.client.Claim.IssueHandoff(ctx, &api.ConversationRequest{ID: id})
}

// Redeem redeems a handoff token. The redeemed conversation becomes the active one.
func (vm *ViewModel) Redeem(ctx context.Context, token string) (bool, error) {
	resp, err := vm.client.Claim.RedeemHandoff(ctx, &api.RedeemHandoffRequest{Token: token})
	if err != nil {
		return false, err
	}
	c := resp.Conversation
	vm.mu.Lock()
	vm.activeID = c.Snapshot.ID
	vm.active = &c
	vm.mu.Unlock()
	vm.signalRefresh()
	return resp.Applied, nil
}

// SearchMessages runs a full-text query, limited to conversationID when it is set.
func (vm *ViewModel) SearchMessages(ctx context.Context, query, conversationID string) ([]api.SearchResult, error) {
	resp, err := vm.client.Claim.SearchMessages(ctx, &api.SearchMessagesRequest{
		Query:          query,
		ConversationID: conversationID,
		Limit:          50,
	})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Watch streams updates of conversation id until ctx is done. Each event that still
// concerns the active conversation is stored and passed to onChange.
func (vm *ViewModel) Watch(ctx context.Context, id string, onChange func(api.ConversationEvent)) error {
	stream, err := vm.client.Claim.WatchConversation(ctx, &api.ConversationRequest{ID: id})
	if err != nil {
		return err
	}
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if vm.setActive(ev.Conversation) {
			vm.signalRefresh()
			onChange(*ev)
		}
	}
}

// Conversations returns a snapshot of the conversation list.
func (vm *ViewModel) Conversations() []conversation.Summary {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.conversations
}

// Active returns the open conversation, or nil.
func (vm *ViewModel) Active() *api.Conversation {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.active
}
