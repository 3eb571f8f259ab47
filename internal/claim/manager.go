package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/bus"
	"github.com/matheus3301/lnf/internal/composer"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/handoff"
	"github.com/matheus3301/lnf/internal/metrics"
	"github.com/matheus3301/lnf/internal/outbox"
	"github.com/matheus3301/lnf/internal/status"
	"github.com/matheus3301/lnf/internal/store"
)

// Config tunes the pipeline.
type Config struct {
	// SimulateReplies schedules canned finder replies after owner actions.
	SimulateReplies bool
	// ReplyDelay scales the canned reply delays; one second keeps them as is.
	ReplyDelay time.Duration
	Now        func() time.Time
}

// Deps are the collaborators of a Manager. Only Repo and Logger are required.
type Deps struct {
	Repo     conversation.Repository
	Bus      *bus.Bus
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Karma    KarmaBackend
	Handoff  *handoff.Issuer
	Searcher Searcher
	Users    UserSeeder
}

// Manager owns the live sessions and the reply scheduler.
type Manager struct {
	repo      conversation.Repository
	bus       *bus.Bus
	metrics   *metrics.Metrics
	logger    *zap.Logger
	karma     KarmaBackend
	handoff   *handoff.Issuer
	searcher  Searcher
	users     UserSeeder
	machine   *status.Machine
	composer  *composer.Composer
	replies   *composer.Replies
	scheduler *outbox.Scheduler
	simulate  bool
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	// credited holds finder scores for karma increments whose commit failed, by conversation.
	credited map[string]int
}

// NewManager creates a manager. Call Start to let scheduled replies fire.
func NewManager(deps Deps, cfg Config) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	m := &Manager{
		repo:     deps.Repo,
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		karma:    deps.Karma,
		handoff:  deps.Handoff,
		searcher: deps.Searcher,
		users:    deps.Users,
		machine:  status.NewMachine(now),
		composer: composer.New(now),
		replies:  composer.NewReplies(cfg.ReplyDelay, now),
		simulate: cfg.SimulateReplies,
		now:      now,
		sessions: make(map[string]*Session),
		credited: make(map[string]int),
	}
	m.scheduler = outbox.NewScheduler(m.deliver, deps.Logger)
	return m
}

// Start starts the reply scheduler.
func (m *Manager) Start(ctx context.Context) {
	m.scheduler.Start(ctx)
}

// Stop closes every session and stops the scheduler.
func (m *Manager) Stop() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Close(id)
	}
	m.scheduler.Stop()
}

// Create starts a new conversation in status none.
func (m *Manager) Create(ctx context.Context, nc NewConversation) (*Session, error) {
	if strings.TrimSpace(nc.Item.Name) == "" {
		return nil, &composer.ValidationError{Field: "item", Prompt: "Item name is required"}
	}
	id := nc.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := conversation.New(id, nc.Owner, nc.Finder, nc.Item, m.now())
	if err := m.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	m.logger.Info("conversation created", zap.String("conversation", id), zap.String("item", nc.Item.Name))
	m.publish(bus.KindCreated, id, c.Summary())
	return m.register(c), nil
}

// Open returns the live session of a conversation, loading it on first use.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}
	c, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.register(c), nil
}

// incrementKarma credits finderID once per conversation until settleKarma is called.
func (m *Manager) incrementKarma(ctx context.Context, conversationID, finderID string) (int, error) {
	m.mu.Lock()
	score, ok := m.credited[conversationID]
	m.mu.Unlock()
	if ok {
		return score, nil
	}
	if m.karma == nil {
		return 0, nil
	}
	score, err := m.karma.IncrementKarma(ctx, finderID, 1)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.credited[conversationID] = score
	m.mu.Unlock()
	return score, nil
}

// settleKarma forgets the pending credit once karmaGiven is stored.
func (m *Manager) settleKarma(conversationID string) {
	m.mu.Lock()
	delete(m.credited, conversationID)
	m.mu.Unlock()
}

// Close tears a session down and cancels its pending replies, returning how many were
// cancelled. Closing an unknown id is a no-op.
func (m *Manager) Close(id string) int {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return 0
	}
	s.close()
	n := m.scheduler.Cancel(id)
	if n > 0 {
		m.repliesCancelled(id, n)
	}
	if m.metrics != nil {
		m.metrics.OpenSessions.Dec()
	}
	return n
}

// List returns conversation rows, most recently updated first.
func (m *Manager) List(ctx context.Context) ([]conversation.Summary, error) {
	return m.repo.List(ctx)
}

// Search runs a full-text query over message text.
func (m *Manager) Search(ctx context.Context, query, conversationID string, limit int) ([]store.SearchResult, error) {
	if m.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, &composer.ValidationError{Field: "query", Prompt: "Search query is empty"}
	}
	return m.searcher.SearchMessages(ctx, query, conversationID, limit)
}

// IssueHandoff signs a handoff token for a conversation whose meetup is arranged, and
// renders it as a terminal QR code.
func (m *Manager) IssueHandoff(ctx context.Context, id string) (handoff.Ticket, string, error) {
	if m.handoff == nil {
		return handoff.Ticket{}, "", errors.New("handoff tokens are not configured")
	}
	s, err := m.Open(ctx, id)
	if err != nil {
		return handoff.Ticket{}, "", err
	}
	snap := s.Snapshot()
	if snap.Status != conversation.StatusMeetupArranged {
		return handoff.Ticket{}, "", fmt.Errorf("%w: status is %s", ErrNotReady, snap.Status)
	}
	ticket, err := m.handoff.Issue(id, snap.Item.Name)
	if err != nil {
		return handoff.Ticket{}, "", err
	}
	qr, err := handoff.RenderQR(ticket.Token)
	if err != nil {
		return handoff.Ticket{}, "", err
	}
	m.logger.Info("handoff issued", zap.String("conversation", id), zap.Time("expires_at", ticket.ExpiresAt))
	return ticket, qr, nil
}

// RedeemHandoff verifies a handoff token and marks its conversation returned.
func (m *Manager) RedeemHandoff(ctx context.Context, token string) (string, Result, error) {
	if m.handoff == nil {
		return "", Result{}, errors.New("handoff tokens are not configured")
	}
	claims, err := m.handoff.Verify(token)
	if err != nil {
		return "", Result{}, err
	}
	s, err := m.Open(ctx, claims.ConversationID)
	if err != nil {
		return "", Result{}, err
	}
	res, err := s.MarkReturned(ctx)
	return claims.ConversationID, res, err
}

func (m *Manager) register(c *conversation.Conversation) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[c.ID]; ok {
		return s
	}
	s := newSession(m, c)
	m.sessions[c.ID] = s
	if m.metrics != nil {
		m.metrics.OpenSessions.Inc()
	}
	return s
}

func (m *Manager) deliver(ctx context.Context, task outbox.Task) {
	m.mu.Lock()
	s, ok := m.sessions[task.ConversationID]
	m.mu.Unlock()
	if !ok {
		if m.metrics != nil {
			m.metrics.RepliesStale.Inc()
		}
		return
	}
	s.deliver(ctx, task)
}

func (m *Manager) publish(kind, subject string, payload any) {
	if m.bus != nil {
		m.bus.Publish(bus.NewEvent(kind, subject, payload))
	}
}

func (m *Manager) repliesCancelled(id string, n int) {
	if m.metrics != nil {
		m.metrics.RepliesCancelled.Add(float64(n))
	}
	m.publish(bus.KindReplyCancelled, id, n)
}

func (m *Manager) validationFailed(err error) {
	var ve *composer.ValidationError
	if m.metrics != nil && errors.As(err, &ve) {
		m.metrics.ValidationFailures.WithLabelValues(ve.Field).Inc()
	}
}
