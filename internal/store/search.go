package store

import (
	"context"
	"fmt"
)

// SearchMessages runs a full-text query over message text, newest first.
// conversationID narrows the search to one conversation when set.
func (db *DB) SearchMessages(ctx context.Context, query, conversationID string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `
		SELECT m.seq, m.sender, m.text, m.timestamp, m.attachment, m.verification, m.karma,
		       m.conversation_id, c.item_name,
		       snippet(messages_fts, '<<', '>>', '...', -1, 16)
		FROM messages_fts
		JOIN messages m ON m.id = messages_fts.docid
		JOIN conversations c ON c.id = m.conversation_id
		WHERE messages_fts MATCH ?`
	args := []any{query}
	if conversationID != "" {
		q += " AND m.conversation_id = ?"
		args = append(args, conversationID)
	}
	q += " ORDER BY m.timestamp DESC, m.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		msg, err := scanMessage(rows, &r.ConversationID, &r.Item, &r.Snippet)
		if err != nil {
			return nil, err
		}
		r.Message = msg
		results = append(results, r)
	}
	return results, rows.Err()
}
