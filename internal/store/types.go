package store

import "github.com/matheus3301/lnf/internal/conversation"

// SearchResult is a message matching a full-text query.
type SearchResult struct {
	ConversationID string
	Item           string
	Message        conversation.Message
	Snippet        string
}
