package claim

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/bus"
	"github.com/matheus3301/lnf/internal/composer"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/outbox"
	"github.com/matheus3301/lnf/internal/status"
)

// Session is the live pipeline of one conversation. All intents are serialized.
type Session struct {
	m  *Manager
	id string

	mu     sync.Mutex
	conv   *conversation.Conversation
	gen    uint64
	closed bool
}

func newSession(m *Manager, c *conversation.Conversation) *Session {
	return &Session{m: m, id: c.ID, conv: c}
}

// ID returns the conversation id.
func (s *Session) ID() string { return s.id }

// Snapshot returns a read-only copy of the conversation.
func (s *Session) Snapshot() conversation.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Snapshot()
}

// Affordances lists the intents that currently have an effect.
func (s *Session) Affordances() []status.EventKind {
	return AffordancesFor(s.Snapshot())
}

// AffordancesFor lists the intents that have an effect on snap.
func AffordancesFor(snap conversation.Snapshot) []status.EventKind {
	allowed := status.Allowed(snap.Status)
	if snap.KarmaGiven {
		allowed = slices.DeleteFunc(allowed, func(ev status.EventKind) bool { return ev == status.GiveKarma })
	}
	return allowed
}

// Banner returns the status banner.
func (s *Session) Banner() status.Banner {
	return status.BannerFor(s.Snapshot())
}

// RequestVerification asks the owner for proof of ownership.
func (s *Session) RequestVerification(ctx context.Context) (Result, error) {
	return s.dispatch(ctx, status.Event{Kind: status.RequestVerification, Actor: conversation.SenderFinder})
}

// SubmitVerification validates sub and submits it for review. Validation failures wrap
// composer.ErrValidation and change nothing.
func (s *Session) SubmitVerification(ctx context.Context, sub composer.Submission) (Result, error) {
	_, ev, err := s.m.composer.ComposeVerificationSubmission(sub)
	if err != nil {
		s.m.validationFailed(err)
		return Result{}, err
	}
	return s.dispatch(ctx, ev)
}

// ApproveVerification records the finder's approval of the latest submission.
func (s *Session) ApproveVerification(ctx context.Context) (Result, error) {
	return s.dispatch(ctx, status.Event{Kind: status.ApproveVerification, Actor: conversation.SenderFinder})
}

// RejectVerification records the finder's rejection; the owner may resubmit.
func (s *Session) RejectVerification(ctx context.Context) (Result, error) {
	return s.dispatch(ctx, status.Event{Kind: status.RejectVerification, Actor: conversation.SenderFinder})
}

// SendMessage appends a chat message. While verification is approved, a message that
// names a time or place arranges the meetup.
func (s *Session) SendMessage(ctx context.Context, sender conversation.Sender, text string, att *conversation.Attachment) (Result, error) {
	msg, err := s.m.composer.ComposePlainMessage(sender, text, att)
	if err != nil {
		s.m.validationFailed(err)
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, ErrClosed
	}
	if isMeetupProposal(s.conv.Status(), msg) {
		return s.dispatchLocked(ctx, status.Event{Kind: status.ProposeMeetup, Actor: sender, Message: &msg})
	}
	var replies []status.Reply
	if sender == conversation.SenderOwner {
		replies = []status.Reply{status.ReplyChat}
	}
	return s.appendLocked(ctx, msg, replies)
}

// SendAttachment sends an image either as a plain message or as photo verification.
func (s *Session) SendAttachment(ctx context.Context, sender conversation.Sender, uri string, target composer.Target) (Result, error) {
	msg, ev, err := s.m.composer.ComposeAttachment(sender, uri, target)
	if err != nil {
		s.m.validationFailed(err)
		return Result{}, err
	}
	if ev != nil {
		return s.dispatch(ctx, *ev)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, ErrClosed
	}
	return s.appendLocked(ctx, msg, nil)
}

// ProposeMeetup sends free text proposing a time and place. It arranges the meetup
// whenever verification is approved, even if nothing could be extracted.
func (s *Session) ProposeMeetup(ctx context.Context, sender conversation.Sender, text string) (Result, error) {
	_, ev, err := s.m.composer.ComposeMeetupProposal(sender, text)
	if err != nil {
		s.m.validationFailed(err)
		return Result{}, err
	}
	return s.dispatch(ctx, ev)
}

// MarkReturned asserts that the meetup happened and the item is back with its owner.
func (s *Session) MarkReturned(ctx context.Context) (Result, error) {
	return s.dispatch(ctx, status.Event{Kind: status.MarkReturned, Actor: conversation.SenderFinder})
}

// GiveKarma credits the finder once. Backend errors are returned unmodified and leave
// the conversation unchanged so the intent can be retried. A retry after a failed save
// does not credit the finder again.
func (s *Session) GiveKarma(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, ErrClosed
	}
	ev := status.Event{Kind: status.GiveKarma, Actor: conversation.SenderOwner}
	eff, ok := s.m.machine.Apply(s.conv, ev)
	if !ok {
		return s.ignored(ev), nil
	}

	score, err := s.m.incrementKarma(ctx, s.id, s.conv.Finder.UserID)
	if err != nil {
		return Result{}, err
	}
	res, err := s.commit(ctx, eff.Transition, eff.Replies)
	if err != nil {
		return Result{}, err
	}
	s.m.settleKarma(s.id)
	s.m.publish(bus.KindKarmaGiven, s.id, KarmaGiven{ConversationID: s.id, FinderID: s.conv.Finder.UserID, Score: score})
	return res, nil
}

// Pending returns the number of scheduled replies not yet delivered.
func (s *Session) Pending() int {
	return s.m.scheduler.Pending(s.id)
}

func (s *Session) dispatch(ctx context.Context, ev status.Event) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Result{}, ErrClosed
	}
	return s.dispatchLocked(ctx, ev)
}

func (s *Session) dispatchLocked(ctx context.Context, ev status.Event) (Result, error) {
	eff, ok := s.m.machine.Apply(s.conv, ev)
	if !ok {
		return s.ignored(ev), nil
	}
	return s.commit(ctx, eff.Transition, eff.Replies)
}

func (s *Session) ignored(ev status.Event) Result {
	st := s.conv.Status()
	s.m.logger.Debug("event ignored",
		zap.String("conversation", s.id),
		zap.String("event", string(ev.Kind)),
		zap.String("status", string(st)),
	)
	if s.m.metrics != nil {
		s.m.metrics.IgnoredEvents.WithLabelValues(string(ev.Kind), string(st)).Inc()
	}
	return Result{Applied: false, Status: st}
}

// appendLocked adds msg without changing status.
func (s *Session) appendLocked(ctx context.Context, msg conversation.Message, replies []status.Reply) (Result, error) {
	st := s.conv.Status()
	return s.commit(ctx, conversation.Transition{From: st, To: st, Messages: []conversation.Message{msg}}, replies)
}

// commit applies t to a copy, persists the copy and only then makes it current.
// A status change supersedes every reply scheduled under the previous status.
func (s *Session) commit(ctx context.Context, t conversation.Transition, replies []status.Reply) (Result, error) {
	next := s.conv.Clone()
	appended, err := next.Apply(t)
	if err != nil {
		return Result{}, err
	}
	if err := s.m.repo.Save(ctx, next); err != nil {
		s.m.logger.Error("failed to save conversation", zap.String("conversation", s.id), zap.Error(err))
		return Result{}, fmt.Errorf("save conversation %s: %w", s.id, err)
	}
	s.conv = next

	if t.From != t.To {
		s.gen++
		if n := s.m.scheduler.Cancel(s.id); n > 0 {
			s.m.repliesCancelled(s.id, n)
		}
		s.m.logger.Info("status changed",
			zap.String("conversation", s.id),
			zap.String("from", string(t.From)),
			zap.String("to", string(t.To)),
		)
		if s.m.metrics != nil {
			s.m.metrics.Transitions.WithLabelValues(string(t.From), string(t.To)).Inc()
		}
	}
	for _, msg := range appended {
		s.m.publish(bus.KindMessageAppended, s.id, MessageAppended{ConversationID: s.id, Message: msg})
	}
	if t.From != t.To {
		s.m.publish(bus.KindStatusChanged, s.id, StatusChange{ConversationID: s.id, From: t.From, To: t.To})
	}
	if s.m.simulate {
		for _, r := range replies {
			sr := s.m.replies.SimulateCounterpartyReply(r, next.Item)
			s.m.scheduler.Schedule(s.id, s.gen, sr.Message, sr.Delay)
			if s.m.metrics != nil {
				s.m.metrics.RepliesScheduled.Inc()
			}
		}
	}
	return Result{Applied: true, Status: next.Status(), Appended: appended}, nil
}

// deliver appends a fired reply unless the conversation moved on since it was scheduled.
func (s *Session) deliver(ctx context.Context, task outbox.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || task.Gen != s.gen {
		s.m.logger.Debug("stale reply dropped",
			zap.String("conversation", s.id),
			zap.String("task", task.ID),
			zap.Uint64("task_gen", task.Gen),
			zap.Uint64("gen", s.gen),
		)
		if s.m.metrics != nil {
			s.m.metrics.RepliesStale.Inc()
		}
		return
	}

	msg := s.m.replies.Stamp(task.Message)
	var err error
	if isMeetupProposal(s.conv.Status(), msg) {
		_, err = s.dispatchLocked(ctx, status.Event{Kind: status.ProposeMeetup, Actor: msg.Sender, Message: &msg})
	} else {
		_, err = s.appendLocked(ctx, msg, nil)
	}
	if err != nil {
		s.m.logger.Error("failed to deliver reply", zap.String("conversation", s.id), zap.String("task", task.ID), zap.Error(err))
		return
	}
	if s.m.metrics != nil {
		s.m.metrics.RepliesDelivered.Inc()
	}
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// isMeetupProposal reports whether msg, sent in st, arranges the meetup.
func isMeetupProposal(st conversation.Status, msg conversation.Message) bool {
	if st != conversation.StatusVerificationApproved || msg.Sender == conversation.SenderSystem {
		return false
	}
	return !conversation.ExtractMeetupFromText(msg.Text).Empty()
}
