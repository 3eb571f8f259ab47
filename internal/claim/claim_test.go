package claim

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/bus"
	"github.com/matheus3301/lnf/internal/composer"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/handoff"
	"github.com/matheus3301/lnf/internal/metrics"
	"github.com/matheus3301/lnf/internal/outbox"
	"github.com/matheus3301/lnf/internal/profile"
	"github.com/matheus3301/lnf/internal/status"
	"github.com/matheus3301/lnf/internal/store"
)

type testEnv struct {
	m       *Manager
	repo    *conversation.MemoryRepository
	bus     *bus.Bus
	metrics *metrics.Metrics
	karma   *profile.Service
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	met := metrics.New()
	karma := profile.NewService(profile.NewMemoryStore(), profile.Options{Secret: []byte("k")}, met, zap.NewNop())
	require.NoError(t, karma.EnsureUser(context.Background(), profile.User{ID: "user-3", FirstName: "Andrew", LastName: "Lam", Karma: 5}))

	env := &testEnv{
		repo:    conversation.NewMemoryRepository(),
		bus:     bus.New(),
		metrics: met,
		karma:   karma,
	}
	env.m = NewManager(Deps{
		Repo:    env.repo,
		Bus:     env.bus,
		Metrics: met,
		Logger:  zap.NewNop(),
		Karma:   karma,
		Handoff: handoff.NewIssuer([]byte("handoff-secret"), time.Hour),
	}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	env.m.Start(ctx)
	t.Cleanup(func() {
		env.m.Stop()
		cancel()
	})
	return env
}

func (e *testEnv) create(t *testing.T) *Session {
	t.Helper()
	s, err := e.m.Create(context.Background(), NewConversation{
		Owner:  conversation.Participant{UserID: "user-0", Name: "Adrian Lam"},
		Finder: conversation.Participant{UserID: "user-3", Name: "Andrew Lam"},
		Item:   conversation.Item{Name: "Water Bottle", Location: "Shields Library"},
	})
	require.NoError(t, err)
	return s
}

var details = composer.Submission{
	Method:  conversation.MethodDetails,
	Details: "Navy Hydroflask with a UC Davis sticker and AL on the bottom",
}

// advance drives s through the happy path up to and including want.
func advance(t *testing.T, s *Session, want conversation.Status) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		reach conversation.Status
		do    func() (Result, error)
	}{
		{conversation.StatusVerificationRequested, func() (Result, error) { return s.RequestVerification(ctx) }},
		{conversation.StatusVerificationInProgress, func() (Result, error) { return s.SubmitVerification(ctx, details) }},
		{conversation.StatusVerificationApproved, func() (Result, error) { return s.ApproveVerification(ctx) }},
		{conversation.StatusMeetupArranged, func() (Result, error) {
			return s.ProposeMeetup(ctx, conversation.SenderOwner, "Let's meet at the library entrance at 3:30 PM tomorrow")
		}},
		{conversation.StatusItemReturned, func() (Result, error) { return s.MarkReturned(ctx) }},
	}
	for _, step := range steps {
		res, err := step.do()
		require.NoError(t, err)
		require.True(t, res.Applied, "step to %s", step.reach)
		require.Equal(t, step.reach, res.Status)
		if step.reach == want {
			return
		}
	}
}

func messageCount(s *Session) int {
	return len(s.Snapshot().Messages)
}

func TestFullClaimWithSimulatedReplies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{SimulateReplies: true, ReplyDelay: time.Millisecond})
	s := env.create(t)

	events, unsubscribe := env.bus.SubscribeSubject("conversation.status_changed", s.ID(), 16)
	defer unsubscribe()

	res, err := s.RequestVerification(ctx)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusVerificationRequested, res.Status)
	require.Len(t, res.Appended, 1)
	assert.Equal(t, conversation.VerificationRequest, res.Appended[0].Verification.Kind)

	res, err = s.SubmitVerification(ctx, details)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusVerificationInProgress, res.Status)

	// Submission plus the finder's acknowledgement.
	require.Eventually(t, func() bool { return messageCount(s) == 3 }, 2*time.Second, 5*time.Millisecond)
	last := s.Snapshot().Messages[2]
	assert.Equal(t, conversation.SenderFinder, last.Sender)
	assert.Equal(t, "Thank you for the verification! Let me compare it with the water bottle I found.", last.Text)
	assert.False(t, last.Timestamp.IsZero())

	res, err = s.ApproveVerification(ctx)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusVerificationApproved, res.Status)
	decision := res.Appended[0]
	assert.Equal(t, conversation.SenderSystem, decision.Sender)
	assert.Equal(t, int64(2), decision.Verification.Ref)

	require.Eventually(t, func() bool { return messageCount(s) == 5 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, conversation.StatusVerificationApproved, s.Snapshot().Status)

	res, err = s.ProposeMeetup(ctx, conversation.SenderOwner, "Let's meet at the library entrance at 3:30 PM tomorrow")
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusMeetupArranged, res.Status)
	meetup := s.Snapshot().Meetup
	require.NotNil(t, meetup)
	assert.Equal(t, conversation.Meetup{Time: "3:30 PM", Location: "library entrance", Date: "tomorrow"}, *meetup)

	res, err = s.MarkReturned(ctx)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusItemReturned, res.Status)
	require.NotNil(t, res.Appended[0].Karma)

	res, err = s.GiveKarma(ctx)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	score, err := env.karma.GetKarmaScore(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, 6, score)

	var seen []conversation.Status
	for len(seen) < 5 {
		select {
		case evt := <-events:
			seen = append(seen, evt.Payload.(StatusChange).To)
		case <-time.After(time.Second):
			t.Fatalf("status events = %v", seen)
		}
	}
	assert.Equal(t, []conversation.Status{
		conversation.StatusVerificationRequested,
		conversation.StatusVerificationInProgress,
		conversation.StatusVerificationApproved,
		conversation.StatusMeetupArranged,
		conversation.StatusItemReturned,
	}, seen)
}

func TestSequenceIdsIncreaseAndMatchStore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	s := env.create(t)

	_, err := s.SendMessage(ctx, conversation.SenderOwner, "Hi, I think that's mine", nil)
	require.NoError(t, err)
	_, err = s.SendAttachment(ctx, conversation.SenderOwner, "file:///tmp/bottle.jpg", composer.TargetMessage)
	require.NoError(t, err)
	advance(t, s, conversation.StatusMeetupArranged)

	snap := s.Snapshot()
	var last int64
	for _, msg := range snap.Messages {
		assert.Greater(t, msg.Seq, last)
		last = msg.Seq
	}

	stored, err := env.repo.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, snap, stored.Snapshot())
}

func TestInvalidEventsAreInert(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	s := env.create(t)
	before := s.Snapshot()

	intents := map[string]func() (Result, error){
		"approve":  func() (Result, error) { return s.ApproveVerification(ctx) },
		"reject":   func() (Result, error) { return s.RejectVerification(ctx) },
		"submit":   func() (Result, error) { return s.SubmitVerification(ctx, details) },
		"meetup":   func() (Result, error) { return s.ProposeMeetup(ctx, conversation.SenderOwner, "at the MU at 1 PM") },
		"returned": func() (Result, error) { return s.MarkReturned(ctx) },
		"karma":    func() (Result, error) { return s.GiveKarma(ctx) },
	}
	for name, do := range intents {
		t.Run(name, func(t *testing.T) {
			res, err := do()
			require.NoError(t, err)
			assert.False(t, res.Applied)
			assert.Equal(t, conversation.StatusNone, res.Status)
			assert.Equal(t, before, s.Snapshot())
		})
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.IgnoredEvents.WithLabelValues("approve_verification", "none")))
}

func TestValidationBlocksMutation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationRequested)
	before := s.Snapshot()

	_, err := s.SubmitVerification(ctx, composer.Submission{Method: conversation.MethodPhoto})
	require.ErrorIs(t, err, composer.ErrValidation)
	var ve *composer.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please upload a photo of your item", ve.Prompt)

	_, err = s.SubmitVerification(ctx, composer.Submission{Method: conversation.MethodDetails, Details: "  "})
	require.ErrorIs(t, err, composer.ErrValidation)

	_, err = s.SendMessage(ctx, conversation.SenderOwner, "   ", nil)
	require.ErrorIs(t, err, composer.ErrValidation)

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ValidationFailures.WithLabelValues("image")))
}

func TestRejectionLoop(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationInProgress)

	for i := 0; i < 3; i++ {
		res, err := s.RejectVerification(ctx)
		require.NoError(t, err)
		require.Equal(t, conversation.StatusAwaitingVerification, res.Status)
		decision := res.Appended[0]
		assert.Equal(t, conversation.VerificationRejected, decision.Verification.Status)
		sub, ok := func() (conversation.Message, bool) {
			c, _ := conversation.Restore(s.Snapshot())
			return c.LatestSubmission()
		}()
		require.True(t, ok)
		assert.Equal(t, sub.Seq, decision.Verification.Ref)

		res, err = s.SubmitVerification(ctx, composer.Submission{Method: conversation.MethodPhoto, Image: "file:///tmp/proof.jpg"})
		require.NoError(t, err)
		require.Equal(t, conversation.StatusVerificationInProgress, res.Status)
	}

	res, err := s.ApproveVerification(ctx)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusVerificationApproved, res.Status)
	assert.Equal(t, conversation.MethodPhoto, res.Appended[0].Verification.Method)
}

func TestStatusChangeCancelsPendingReplies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{SimulateReplies: true, ReplyDelay: time.Hour})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationInProgress)
	require.Equal(t, 1, s.Pending())

	cancelled, unsubscribe := env.bus.SubscribeSubject("reply.", s.ID(), 4)
	defer unsubscribe()

	_, err := s.RejectVerification(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RepliesCancelled))
	select {
	case evt := <-cancelled:
		assert.Equal(t, bus.KindReplyCancelled, evt.Kind)
		assert.Equal(t, 1, evt.Payload)
	case <-time.After(time.Second):
		t.Fatal("no reply.cancelled event")
	}
}

func TestPlainMessagesDoNotCancelReplies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{SimulateReplies: true, ReplyDelay: time.Hour})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationInProgress)

	_, err := s.SendMessage(ctx, conversation.SenderOwner, "Let me know!", nil)
	require.NoError(t, err)
	// The acknowledgement plus the chat reply.
	assert.Equal(t, 2, s.Pending())
}

func TestCloseCancelsReplies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{SimulateReplies: true, ReplyDelay: time.Hour})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationInProgress)

	env.m.Close(s.ID())
	assert.Equal(t, 0, env.m.scheduler.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(env.metrics.OpenSessions))

	_, err := s.ApproveVerification(ctx)
	assert.ErrorIs(t, err, ErrClosed)

	reopened, err := env.m.Open(ctx, s.ID())
	require.NoError(t, err)
	assert.NotSame(t, s, reopened)
	assert.Equal(t, conversation.StatusVerificationInProgress, reopened.Snapshot().Status)
}

func TestStaleReplyIsDropped(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationRequested)
	before := s.Snapshot()

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	env.m.deliver(ctx, outbox.Task{
		ID:             "t1",
		ConversationID: s.ID(),
		Gen:            gen - 1,
		Message:        conversation.Message{Sender: conversation.SenderFinder, Text: "late"},
	})
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.RepliesStale))

	env.m.deliver(ctx, outbox.Task{
		ID:             "t2",
		ConversationID: s.ID(),
		Gen:            gen,
		Message:        conversation.Message{Sender: conversation.SenderFinder, Text: "on time"},
	})
	assert.Equal(t, "on time", s.Snapshot().Messages[len(before.Messages)].Text)
}

func TestPlainMessageArrangesMeetupOnceApproved(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationApproved)

	res, err := s.SendMessage(ctx, conversation.SenderFinder, "Thanks for confirming!", nil)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusVerificationApproved, res.Status)

	res, err = s.SendMessage(ctx, conversation.SenderOwner, "How about 1 PM at the Memorial Union?", nil)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusMeetupArranged, res.Status)
	assert.Equal(t, &conversation.Meetup{Time: "1 PM", Location: "Memorial Union"}, s.Snapshot().Meetup)
}

func TestProposeMeetupWithoutDetails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationApproved)

	res, err := s.ProposeMeetup(ctx, conversation.SenderOwner, "Whenever suits you")
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusMeetupArranged, res.Status)
	assert.Nil(t, s.Snapshot().Meetup)
	assert.Equal(t, "Meetup Arranged", s.Banner().Title)
	assert.Equal(t, "Meet to hand the item back.", s.Banner().Description)
}

type flakyKarma struct {
	err   error
	calls int
}

func (f *flakyKarma) IncrementKarma(_ context.Context, _ string, _ int) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return 8, nil
}

func TestGiveKarmaBackendError(t *testing.T) {
	ctx := context.Background()
	errBackend := errors.New("karma backend unavailable")
	backend := &flakyKarma{err: errBackend}
	m := NewManager(Deps{Repo: conversation.NewMemoryRepository(), Logger: zap.NewNop(), Karma: backend}, Config{})
	s, err := m.Create(ctx, NewConversation{Item: conversation.Item{Name: "Pencil"}})
	require.NoError(t, err)
	advance(t, s, conversation.StatusItemReturned)
	before := s.Snapshot()

	_, err = s.GiveKarma(ctx)
	assert.Equal(t, errBackend, err)
	assert.Equal(t, before, s.Snapshot())
	assert.False(t, s.Snapshot().KarmaGiven)

	backend.err = nil
	res, err := s.GiveKarma(ctx)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, s.Snapshot().KarmaGiven)
	assert.NotContains(t, s.Affordances(), status.GiveKarma)

	res, err = s.GiveKarma(ctx)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, 2, backend.calls)
}

// failingRepo fails the next failNext saves.
type failingRepo struct {
	*conversation.MemoryRepository
	failNext int
}

func (r *failingRepo) Save(ctx context.Context, c *conversation.Conversation) error {
	if r.failNext > 0 {
		r.failNext--
		return errors.New("disk full")
	}
	return r.MemoryRepository.Save(ctx, c)
}

func TestGiveKarmaSaveFailureCreditsOnce(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{MemoryRepository: conversation.NewMemoryRepository()}
	backend := &flakyKarma{}
	m := NewManager(Deps{Repo: repo, Logger: zap.NewNop(), Karma: backend}, Config{})
	s, err := m.Create(ctx, NewConversation{Item: conversation.Item{Name: "Pencil"}})
	require.NoError(t, err)
	advance(t, s, conversation.StatusItemReturned)

	repo.failNext = 1
	_, err = s.GiveKarma(ctx)
	require.Error(t, err)
	assert.False(t, s.Snapshot().KarmaGiven)
	assert.Equal(t, 1, backend.calls)

	// The session may be torn down between attempts.
	m.Close(s.ID())
	s, err = m.Open(ctx, s.ID())
	require.NoError(t, err)

	res, err := s.GiveKarma(ctx)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, s.Snapshot().KarmaGiven)
	assert.Equal(t, 1, backend.calls)

	stored, err := repo.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, stored.KarmaGiven())
}

func TestHandoff(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, Config{})
	s := env.create(t)
	advance(t, s, conversation.StatusVerificationApproved)

	_, _, err := env.m.IssueHandoff(ctx, s.ID())
	require.ErrorIs(t, err, ErrNotReady)

	res, err := s.ProposeMeetup(ctx, conversation.SenderFinder, "I'll be at the library at noon")
	require.NoError(t, err)
	require.Equal(t, conversation.StatusMeetupArranged, res.Status)

	ticket, qr, err := env.m.IssueHandoff(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), ticket.ConversationID)
	assert.NotEmpty(t, qr)

	_, _, err = env.m.RedeemHandoff(ctx, "not a token")
	assert.ErrorIs(t, err, handoff.ErrInvalidToken)

	id, res, err := env.m.RedeemHandoff(ctx, ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, s.ID(), id)
	assert.True(t, res.Applied)
	assert.Equal(t, conversation.StatusItemReturned, res.Status)

	// Redeeming again is inert.
	_, res, err = env.m.RedeemHandoff(ctx, ticket.Token)
	require.NoError(t, err)
	assert.False(t, res.Applied)
}

func TestCreateRequiresItem(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, err := env.m.Create(context.Background(), NewConversation{})
	assert.ErrorIs(t, err, composer.ErrValidation)

	_, err = env.m.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestSeedAndSearch(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "lnf.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Migrate()
	require.NoError(t, err)

	met := metrics.New()
	users := profile.NewService(db, profile.Options{Secret: []byte("k")}, met, zap.NewNop())
	m := NewManager(Deps{
		Repo:     db,
		Metrics:  met,
		Logger:   zap.NewNop(),
		Karma:    users,
		Searcher: db,
		Users:    users,
	}, Config{})

	n, err := m.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	n, err = m.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 6)

	want := map[string]conversation.Status{
		"iphone":       conversation.StatusVerificationRequested,
		"airpods":      conversation.StatusVerificationApproved,
		"water-bottle": conversation.StatusMeetupArranged,
		"uc-davis-id":  conversation.StatusMeetupArranged,
		"backpack":     conversation.StatusVerificationInProgress,
		"pencil":       conversation.StatusNone,
	}
	for _, row := range list {
		assert.Equal(t, want[row.ID], row.Status, row.ID)
		assert.Equal(t, "Adrian Lam", row.Owner)
	}

	s, err := m.Open(ctx, "water-bottle")
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Equal(t, "John Doe", snap.Finder.Name)
	assert.Equal(t, &conversation.Meetup{Time: "3:30 PM", Location: "library entrance", Date: "today"}, snap.Meetup)

	karma, err := users.GetKarmaScore(ctx, "user-5")
	require.NoError(t, err)
	assert.Equal(t, 25, karma)

	results, err := m.Search(ctx, "hydroflask", "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "water-bottle", results[0].ConversationID)

	_, err = m.Search(ctx, " ", "", 10)
	assert.ErrorIs(t, err, composer.ErrValidation)
}
