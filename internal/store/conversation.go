package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/lnf/internal/conversation"
)

var _ conversation.Repository = (*DB)(nil)

// Get loads a conversation with its full message log.
func (db *DB) Get(ctx context.Context, id string) (*conversation.Conversation, error) {
	var (
		s       conversation.Snapshot
		meetup  sql.NullString
		karma   bool
		created int64
		updated int64
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, owner_id, owner_name, finder_id, finder_name,
		       item_name, item_location, item_category,
		       status, meetup, karma_given, created_at, updated_at
		FROM conversations WHERE id = ?`, id).Scan(
		&s.ID, &s.Owner.UserID, &s.Owner.Name, &s.Finder.UserID, &s.Finder.Name,
		&s.Item.Name, &s.Item.Location, &s.Item.Category,
		&s.Status, &meetup, &karma, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", conversation.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	s.Owner.Role = conversation.RoleOwner
	s.Finder.Role = conversation.RoleFinder
	s.KarmaGiven = karma
	s.CreatedAt = time.UnixMilli(created)
	s.UpdatedAt = time.UnixMilli(updated)
	if meetup.Valid {
		var m conversation.Meetup
		if err := json.Unmarshal([]byte(meetup.String), &m); err != nil {
			return nil, fmt.Errorf("decode meetup of %s: %w", id, err)
		}
		s.Meetup = &m
	}

	s.Messages, err = db.messages(ctx, id)
	if err != nil {
		return nil, err
	}
	return conversation.Restore(s)
}

// Save writes the conversation row and appends messages not stored yet.
// Stored messages are never rewritten.
func (db *DB) Save(ctx context.Context, c *conversation.Conversation) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return saveConversation(ctx, tx, c)
	})
}

func saveConversation(ctx context.Context, tx *sql.Tx, c *conversation.Conversation) error {
	var meetup sql.NullString
	if m := c.Meetup(); m != nil {
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode meetup: %w", err)
		}
		meetup = sql.NullString{String: string(raw), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, owner_id, owner_name, finder_id, finder_name,
			item_name, item_location, item_category, status, meetup, karma_given, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			meetup = excluded.meetup,
			karma_given = excluded.karma_given,
			updated_at = excluded.updated_at`,
		c.ID, c.Owner.UserID, c.Owner.Name, c.Finder.UserID, c.Finder.Name,
		c.Item.Name, c.Item.Location, c.Item.Category,
		string(c.Status()), meetup, c.KarmaGiven(), c.CreatedAt.UnixMilli(), c.UpdatedAt().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert conversation %s: %w", c.ID, err)
	}

	var stored int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM messages WHERE conversation_id = ?`, c.ID).Scan(&stored); err != nil {
		return fmt.Errorf("read last seq: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (conversation_id, seq, sender, text, timestamp, attachment, verification, karma)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range c.Messages() {
		if m.Seq <= stored {
			continue
		}
		att, err := encodeJSON(m.Attachment)
		if err != nil {
			return err
		}
		ver, err := encodeJSON(m.Verification)
		if err != nil {
			return err
		}
		karma, err := encodeJSON(m.Karma)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, c.ID, m.Seq, string(m.Sender), m.Text, m.Timestamp.UnixMilli(), att, ver, karma); err != nil {
			return fmt.Errorf("insert message %d of %s: %w", m.Seq, c.ID, err)
		}
	}
	return nil
}

// List returns conversation rows, most recently updated first.
func (db *DB) List(ctx context.Context) ([]conversation.Summary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.owner_name, c.finder_name, c.item_name, c.item_location, c.item_category,
		       c.status, c.updated_at,
		       COALESCE((SELECT m.text FROM messages m WHERE m.conversation_id = c.id ORDER BY m.seq DESC LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []conversation.Summary
	for rows.Next() {
		var (
			s       conversation.Summary
			updated int64
		)
		if err := rows.Scan(&s.ID, &s.Owner, &s.Finder, &s.Item.Name, &s.Item.Location, &s.Item.Category,
			&s.Status, &updated, &s.LastMessage); err != nil {
			return nil, err
		}
		s.UpdatedAt = time.UnixMilli(updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountConversations returns the number of stored conversations.
func (db *DB) CountConversations(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&n)
	return n, err
}

func (db *DB) messages(ctx context.Context, convID string) ([]conversation.Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT seq, sender, text, timestamp, attachment, verification, karma
		FROM messages WHERE conversation_id = ? ORDER BY seq`, convID)
	if err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", convID, err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []conversation.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner, extra ...any) (conversation.Message, error) {
	var (
		m             conversation.Message
		ts            int64
		att, ver, kar sql.NullString
	)
	dest := append([]any{&m.Seq, &m.Sender, &m.Text, &ts, &att, &ver, &kar}, extra...)
	if err := row.Scan(dest...); err != nil {
		return m, err
	}
	m.Timestamp = time.UnixMilli(ts)
	if err := decodeJSON(att, &m.Attachment); err != nil {
		return m, err
	}
	if err := decodeJSON(ver, &m.Verification); err != nil {
		return m, err
	}
	if err := decodeJSON(kar, &m.Karma); err != nil {
		return m, err
	}
	return m, nil
}

// encodeJSON stores nil pointers as NULL.
func encodeJSON[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode %T: %w", v, err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeJSON[T any](col sql.NullString, dst **T) error {
	if !col.Valid {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal([]byte(col.String), v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	*dst = v
	return nil
}
