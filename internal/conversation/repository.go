package conversation

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Repository loads and persists conversations.
type Repository interface {
	Get(ctx context.Context, id string) (*Conversation, error)
	Save(ctx context.Context, c *Conversation) error
	List(ctx context.Context) ([]Summary, error)
}

// MemoryRepository is an in-process Repository used by tests and ephemeral sessions.
type MemoryRepository struct {
	mu    sync.RWMutex
	convs map[string]Snapshot
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{convs: make(map[string]Snapshot)}
}

// Get returns a fresh copy of the stored conversation.
func (r *MemoryRepository) Get(_ context.Context, id string) (*Conversation, error) {
	r.mu.RLock()
	snap, ok := r.convs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return Restore(snap)
}

// Save stores a snapshot of c.
func (r *MemoryRepository) Save(_ context.Context, c *Conversation) error {
	snap := c.Snapshot()
	r.mu.Lock()
	r.convs[c.ID] = snap
	r.mu.Unlock()
	return nil
}

// List returns summaries ordered by most recent activity.
func (r *MemoryRepository) List(_ context.Context) ([]Summary, error) {
	r.mu.RLock()
	out := make([]Summary, 0, len(r.convs))
	for _, snap := range r.convs {
		s := Summary{
			ID:        snap.ID,
			Item:      snap.Item,
			Owner:     snap.Owner.Name,
			Finder:    snap.Finder.Name,
			Status:    snap.Status,
			UpdatedAt: snap.UpdatedAt,
		}
		if n := len(snap.Messages); n > 0 {
			s.LastMessage = snap.Messages[n-1].Text
		}
		out = append(out, s)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}
