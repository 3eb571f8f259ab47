package api

import (
	"time"

	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/profile"
	"github.com/matheus3301/lnf/internal/status"
)

// Conversation is the wire view of one conversation.
type Conversation struct {
	Snapshot    conversation.Snapshot `json:"snapshot"`
	Banner      status.Banner         `json:"banner"`
	Affordances []status.EventKind    `json:"affordances"`
	Pending     int                   `json:"pending_replies"`
}

type ConversationRequest struct {
	ID string `json:"id"`
}

type ListConversationsRequest struct{}

type ListConversationsResponse struct {
	Conversations []conversation.Summary `json:"conversations"`
}

type CreateConversationRequest struct {
	ID     string                   `json:"id,omitempty"`
	Owner  conversation.Participant `json:"owner"`
	Finder conversation.Participant `json:"finder"`
	Item   conversation.Item        `json:"item"`
}

type SubmitVerificationRequest struct {
	ID      string              `json:"id"`
	Method  conversation.Method `json:"method"`
	Details string              `json:"details,omitempty"`
	Image   string              `json:"image,omitempty"`
}

type SendMessageRequest struct {
	ID         string                   `json:"id"`
	Sender     conversation.Sender      `json:"sender"`
	Text       string                   `json:"text"`
	Attachment *conversation.Attachment `json:"attachment,omitempty"`
	// Target routes an attachment-only message: "message" or "verification".
	Target string `json:"target,omitempty"`
}

type ProposeMeetupRequest struct {
	ID     string              `json:"id"`
	Sender conversation.Sender `json:"sender"`
	Text   string              `json:"text"`
}

// IntentResponse is returned by every intent. Applied is false when the intent was inert.
type IntentResponse struct {
	Applied      bool         `json:"applied"`
	Conversation Conversation `json:"conversation"`
}

type CloseConversationResponse struct {
	Cancelled int `json:"cancelled_replies"`
}

type HandoffResponse struct {
	Token     string    `json:"token"`
	QR        string    `json:"qr"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RedeemHandoffRequest struct {
	Token string `json:"token"`
}

type SearchMessagesRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

type SearchResult struct {
	ConversationID string               `json:"conversation_id"`
	Item           string               `json:"item"`
	Message        conversation.Message `json:"message"`
	Snippet        string               `json:"snippet"`
}

type SearchMessagesResponse struct {
	Results []SearchResult `json:"results"`
}

// ConversationEvent is streamed by WatchConversation.
type ConversationEvent struct {
	ID           string       `json:"id"`
	Kind         string       `json:"kind"`
	OccurredAt   time.Time    `json:"occurred_at"`
	Conversation Conversation `json:"conversation"`
}

type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Pronouns  string `json:"pronouns,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      profile.User `json:"user"`
}

type ProfileRequest struct {
	UserID string `json:"user_id"`
}

type UpdateProfileRequest struct {
	UserID    string  `json:"user_id"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Pronouns  *string `json:"pronouns,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Image     []byte  `json:"image,omitempty"`
}

type ProfileResponse struct {
	User profile.User `json:"user"`
}

type KarmaResponse struct {
	UserID string `json:"user_id"`
	Karma  int    `json:"karma"`
}
