// Package claim runs the verification pipeline of each conversation: compose, transition,
// persist, publish and schedule counterparty replies.
package claim

import (
	"context"
	"errors"

	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/profile"
	"github.com/matheus3301/lnf/internal/store"
)

var (
	// ErrClosed is returned by sessions after Close.
	ErrClosed = errors.New("conversation session closed")
	// ErrNotReady is returned when a handoff is requested before a meetup was arranged.
	ErrNotReady = errors.New("conversation is not ready for handoff")
	// ErrSearchUnavailable is returned when the manager has no search index.
	ErrSearchUnavailable = errors.New("search is not available")
)

// Result reports what an intent did. Applied is false when the intent was inert in the
// conversation's status; nothing changed in that case.
type Result struct {
	Applied  bool                   `json:"applied"`
	Status   conversation.Status    `json:"status"`
	Appended []conversation.Message `json:"appended,omitempty"`
}

// StatusChange is the payload of bus.KindStatusChanged.
type StatusChange struct {
	ConversationID string              `json:"conversation_id"`
	From           conversation.Status `json:"from"`
	To             conversation.Status `json:"to"`
}

// MessageAppended is the payload of bus.KindMessageAppended.
type MessageAppended struct {
	ConversationID string               `json:"conversation_id"`
	Message        conversation.Message `json:"message"`
}

// KarmaGiven is the payload of bus.KindKarmaGiven.
type KarmaGiven struct {
	ConversationID string `json:"conversation_id"`
	FinderID       string `json:"finder_id"`
	Score          int    `json:"score"`
}

// KarmaBackend credits the finder when the owner gives karma.
type KarmaBackend interface {
	IncrementKarma(ctx context.Context, userID string, amount int) (int, error)
}

// Searcher runs full-text queries over message text.
type Searcher interface {
	SearchMessages(ctx context.Context, query, conversationID string, limit int) ([]store.SearchResult, error)
}

// UserSeeder creates demo users.
type UserSeeder interface {
	EnsureUser(ctx context.Context, u profile.User) error
}

// NewConversation describes a thread to create.
type NewConversation struct {
	ID     string
	Owner  conversation.Participant
	Finder conversation.Participant
	Item   conversation.Item
}
