package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/matheus3301/lnf/internal/bus"
	"github.com/matheus3301/lnf/internal/claim"
	"github.com/matheus3301/lnf/internal/composer"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/handoff"
	"github.com/matheus3301/lnf/internal/metrics"
	"github.com/matheus3301/lnf/internal/profile"
	"github.com/matheus3301/lnf/internal/status"
)

type testClients struct {
	claim   *ClaimServiceClient
	profile *ProfileServiceClient
}

func startServer(t *testing.T) testClients {
	t.Helper()
	return startServerWith(t, claim.Config{})
}

func startServerWith(t *testing.T, cfg claim.Config) testClients {
	t.Helper()
	logger := zap.NewNop()
	b := bus.New()
	met := metrics.New()
	users := profile.NewService(profile.NewMemoryStore(), profile.Options{Secret: []byte("k"), SignInBurst: 5}, met, logger)
	m := claim.NewManager(claim.Deps{
		Repo:    conversation.NewMemoryRepository(),
		Bus:     b,
		Metrics: met,
		Logger:  logger,
		Karma:   users,
		Handoff: handoff.NewIssuer([]byte("h"), time.Hour),
		Users:   users,
	}, cfg)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterClaimService(srv, NewClaimService(m, b, logger))
	RegisterProfileService(srv, NewProfileService(users, b, logger))
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		srv.Stop()
		m.Stop()
	})
	return testClients{claim: NewClaimServiceClient(conn), profile: NewProfileServiceClient(conn)}
}

func codeOf(err error) codes.Code {
	return grpcstatus.Code(err)
}

func TestClaimOverGRPC(t *testing.T) {
	ctx := context.Background()
	c := startServer(t)

	conv, err := c.claim.CreateConversation(ctx, &CreateConversationRequest{
		ID:     "bottle",
		Owner:  conversation.Participant{UserID: "user-0", Name: "Adrian Lam"},
		Finder: conversation.Participant{UserID: "user-1", Name: "John Doe"},
		Item:   conversation.Item{Name: "Water Bottle"},
	})
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusNone, conv.Snapshot.Status)
	assert.Equal(t, []status.EventKind{status.RequestVerification}, conv.Affordances)

	// Inert intents succeed with Applied=false.
	resp, err := c.claim.ApproveVerification(ctx, &ConversationRequest{ID: "bottle"})
	require.NoError(t, err)
	assert.False(t, resp.Applied)

	resp, err = c.claim.RequestVerification(ctx, &ConversationRequest{ID: "bottle"})
	require.NoError(t, err)
	assert.True(t, resp.Applied)
	assert.Equal(t, "Verification Needed", resp.Conversation.Banner.Title)

	_, err = c.claim.SubmitVerification(ctx, &SubmitVerificationRequest{ID: "bottle", Method: conversation.MethodDetails})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
	assert.Contains(t, grpcstatus.Convert(err).Message(), "Please provide unique details about your item")

	resp, err = c.claim.SubmitVerification(ctx, &SubmitVerificationRequest{ID: "bottle", Method: conversation.MethodDetails, Details: "navy, AL on the bottom"})
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusVerificationInProgress, resp.Conversation.Snapshot.Status)

	_, err = c.claim.IssueHandoff(ctx, &ConversationRequest{ID: "bottle"})
	assert.Equal(t, codes.FailedPrecondition, codeOf(err))

	_, err = c.claim.GetConversation(ctx, &ConversationRequest{ID: "missing"})
	assert.Equal(t, codes.NotFound, codeOf(err))

	list, err := c.claim.ListConversations(ctx, &ListConversationsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Conversations, 1)
	assert.Equal(t, "Water Bottle", list.Conversations[0].Item.Name)

	_, err = c.claim.SearchMessages(ctx, &SearchMessagesRequest{Query: "navy"})
	assert.Equal(t, codes.Unavailable, codeOf(err))
}

func TestHandoffOverGRPC(t *testing.T) {
	ctx := context.Background()
	c := startServer(t)
	id := &ConversationRequest{ID: "id-card"}

	_, err := c.claim.CreateConversation(ctx, &CreateConversationRequest{ID: "id-card", Item: conversation.Item{Name: "UC Davis ID"}})
	require.NoError(t, err)
	_, err = c.claim.RequestVerification(ctx, id)
	require.NoError(t, err)
	_, err = c.claim.SendMessage(ctx, &SendMessageRequest{
		ID:         "id-card",
		Sender:     conversation.SenderOwner,
		Attachment: &conversation.Attachment{URI: "file:///tmp/id.jpg"},
		Target:     string(composer.TargetVerification),
	})
	require.NoError(t, err)
	_, err = c.claim.ApproveVerification(ctx, id)
	require.NoError(t, err)
	resp, err := c.claim.SendMessage(ctx, &SendMessageRequest{ID: "id-card", Sender: conversation.SenderFinder, Text: "Tomorrow at 1 PM at the Memorial Union?"})
	require.NoError(t, err)
	require.Equal(t, conversation.StatusMeetupArranged, resp.Conversation.Snapshot.Status)

	ticket, err := c.claim.IssueHandoff(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.QR)

	_, err = c.claim.RedeemHandoff(ctx, &RedeemHandoffRequest{Token: "forged"})
	assert.Equal(t, codes.Unauthenticated, codeOf(err))

	resp, err = c.claim.RedeemHandoff(ctx, &RedeemHandoffRequest{Token: ticket.Token})
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusItemReturned, resp.Conversation.Snapshot.Status)
	assert.Contains(t, resp.Conversation.Affordances, status.GiveKarma)
}

func TestWatchConversation(t *testing.T) {
	c := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := c.claim.CreateConversation(ctx, &CreateConversationRequest{ID: "pencil", Item: conversation.Item{Name: "Pencil"}})
	require.NoError(t, err)

	stream, err := c.claim.WatchConversation(ctx, &ConversationRequest{ID: "pencil"})
	require.NoError(t, err)
	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "snapshot", first.Kind)

	_, err = c.claim.RequestVerification(ctx, &ConversationRequest{ID: "pencil"})
	require.NoError(t, err)

	kinds := map[string]bool{}
	for len(kinds) < 2 {
		evt, err := stream.Recv()
		require.NoError(t, err)
		kinds[evt.Kind] = true
		if evt.Kind == bus.KindStatusChanged {
			assert.Equal(t, conversation.StatusVerificationRequested, evt.Conversation.Snapshot.Status)
		}
	}
	assert.True(t, kinds[bus.KindMessageAppended])
	assert.True(t, kinds[bus.KindStatusChanged])
}

func TestCloseConversationCancelsReplies(t *testing.T) {
	ctx := context.Background()
	c := startServerWith(t, claim.Config{SimulateReplies: true, ReplyDelay: time.Hour})

	_, err := c.claim.CreateConversation(ctx, &CreateConversationRequest{ID: "keys", Item: conversation.Item{Name: "Keys"}})
	require.NoError(t, err)
	_, err = c.claim.RequestVerification(ctx, &ConversationRequest{ID: "keys"})
	require.NoError(t, err)
	resp, err := c.claim.SubmitVerification(ctx, &SubmitVerificationRequest{ID: "keys", Method: conversation.MethodDetails, Details: "red lanyard"})
	require.NoError(t, err)
	require.Positive(t, resp.Conversation.Pending)

	closed, err := c.claim.CloseConversation(ctx, &ConversationRequest{ID: "keys"})
	require.NoError(t, err)
	assert.Equal(t, resp.Conversation.Pending, closed.Cancelled)

	// The conversation survives and reopens without the cancelled replies.
	conv, err := c.claim.GetConversation(ctx, &ConversationRequest{ID: "keys"})
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusVerificationInProgress, conv.Snapshot.Status)
	assert.Zero(t, conv.Pending)

	closed, err = c.claim.CloseConversation(ctx, &ConversationRequest{ID: "unknown"})
	require.NoError(t, err)
	assert.Zero(t, closed.Cancelled)
}

func TestViewAgreesWithSnapshot(t *testing.T) {
	ctx := context.Background()
	c := startServer(t)

	_, err := c.claim.CreateConversation(ctx, &CreateConversationRequest{ID: "mug", Item: conversation.Item{Name: "Mug"}})
	require.NoError(t, err)
	resp, err := c.claim.RequestVerification(ctx, &ConversationRequest{ID: "mug"})
	require.NoError(t, err)

	snap := resp.Conversation.Snapshot
	assert.Equal(t, status.BannerFor(snap), resp.Conversation.Banner)
	assert.Equal(t, claim.AffordancesFor(snap), resp.Conversation.Affordances)
}

func TestProfileOverGRPC(t *testing.T) {
	ctx := context.Background()
	c := startServer(t)

	sess, err := c.profile.SignUp(ctx, &SignUpRequest{Email: "adrian@example.com", Password: "correct horse", FirstName: "Adrian"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, err = c.profile.SignUp(ctx, &SignUpRequest{Email: "adrian@example.com", Password: "correct horse"})
	assert.Equal(t, codes.AlreadyExists, codeOf(err))

	_, err = c.profile.SignIn(ctx, &SignInRequest{Email: "adrian@example.com", Password: "nope nope"})
	assert.Equal(t, codes.Unauthenticated, codeOf(err))

	pronouns := "he/him"
	upd, err := c.profile.UpdateProfile(ctx, &UpdateProfileRequest{UserID: sess.User.ID, Pronouns: &pronouns})
	require.NoError(t, err)
	assert.Equal(t, "he/him", upd.User.Pronouns)

	karma, err := c.profile.GetKarmaScore(ctx, &ProfileRequest{UserID: sess.User.ID})
	require.NoError(t, err)
	assert.Zero(t, karma.Karma)

	_, err = c.profile.GetProfile(ctx, &ProfileRequest{UserID: "user-404"})
	assert.Equal(t, codes.NotFound, codeOf(err))
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{&composer.ValidationError{Field: "details", Prompt: "x"}, codes.InvalidArgument},
		{profile.ErrInvalidInput, codes.InvalidArgument},
		{fmt.Errorf("load: %w", conversation.ErrNotFound), codes.NotFound},
		{profile.ErrInvalidCredentials, codes.Unauthenticated},
		{handoff.ErrInvalidToken, codes.Unauthenticated},
		{profile.ErrRateLimited, codes.ResourceExhausted},
		{fmt.Errorf("%w: status is none", claim.ErrNotReady), codes.FailedPrecondition},
		{errors.New("disk on fire"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, codeOf(toStatus("op", tt.err)), tt.err.Error())
	}
}
