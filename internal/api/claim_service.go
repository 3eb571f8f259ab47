package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/bus"
	"github.com/matheus3301/lnf/internal/claim"
	"github.com/matheus3301/lnf/internal/composer"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/status"
)

const defaultSearchLimit = 50

// ClaimService implements ClaimServiceServer on top of a claim.Manager.
type ClaimService struct {
	manager *claim.Manager
	bus     *bus.Bus
	logger  *zap.Logger
}

var _ ClaimServiceServer = (*ClaimService)(nil)

// NewClaimService creates the conversation API.
func NewClaimService(m *claim.Manager, b *bus.Bus, logger *zap.Logger) *ClaimService {
	return &ClaimService{manager: m, bus: b, logger: logger}
}

func (s *ClaimService) ListConversations(ctx context.Context, _ *ListConversationsRequest) (*ListConversationsResponse, error) {
	list, err := s.manager.List(ctx)
	if err != nil {
		return nil, toStatus("list conversations", err)
	}
	return &ListConversationsResponse{Conversations: list}, nil
}

func (s *ClaimService) GetConversation(ctx context.Context, req *ConversationRequest) (*Conversation, error) {
	sess, err := s.manager.Open(ctx, req.ID)
	if err != nil {
		return nil, toStatus("get conversation", err)
	}
	v := view(sess)
	return &v, nil
}

func (s *ClaimService) CreateConversation(ctx context.Context, req *CreateConversationRequest) (*Conversation, error) {
	sess, err := s.manager.Create(ctx, claim.NewConversation{
		ID:     req.ID,
		Owner:  req.Owner,
		Finder: req.Finder,
		Item:   req.Item,
	})
	if err != nil {
		return nil, toStatus("create conversation", err)
	}
	v := view(sess)
	return &v, nil
}

func (s *ClaimService) RequestVerification(ctx context.Context, req *ConversationRequest) (*IntentResponse, error) {
	return s.intent(ctx, "request verification", req.ID, func(sess *claim.Session) (claim.Result, error) {
		return sess.RequestVerification(ctx)
	})
}

func (s *ClaimService) SubmitVerification(ctx context.Context, req *SubmitVerificationRequest) (*IntentResponse, error) {
	sub := composer.Submission{Method: req.Method, Details: req.Details, Image: req.Image}
	return s.intent(ctx, "submit verification", req.ID, func(sess *claim.Session) (claim.Result, error) {
		return sess.SubmitVerification(ctx, sub)
	})
}

func (s *ClaimService) ApproveVerification(ctx context.Context, req *ConversationRequest) (*IntentResponse, error) {
	return s.intent(ctx, "approve verification", req.ID, func(sess *claim.Session) (claim.Result, error) {
		return sess.ApproveVerification(ctx)
	})
}

func (s *ClaimService) RejectVerification(ctx context.Context, req *ConversationRequest) (*IntentResponse, error) {
	return s.intent(ctx, "reject verification", req.ID, func(sess *claim.Session) (claim.Result, error) {
		return sess.RejectVerification(ctx)
	})
}

func (s *ClaimService) SendMessage(ctx context.Context, req *SendMessageRequest) (*IntentResponse, error) {
	return s.intent(ctx, "send message", req.ID, func(sess *claim.Session) (claim.Result, error) {
		if req.Attachment != nil && req.Text == "" && req.Target != "" {
			return sess.SendAttachment(ctx, req.Sender, req.Attachment.URI, composer.Target(req.Target))
		}
		return sess.SendMessage(ctx, req.Sender, req.Text, req.Attachment)
	})
}

func (s *ClaimService) ProposeMeetup(ctx context.Context, req *ProposeMeetupRequest) (*IntentResponse, error) {
	return s.intent(ctx, "propose meetup", req.ID, func(sess *claim.Session) (claim.Result, error) {
		return sess.ProposeMeetup(ctx, req.Sender, req.Text)
	})
}

func (s *ClaimService) MarkReturned(ctx context.Context, req *ConversationRequest) (*IntentResponse, error) {
	return s.intent(ctx, "mark returned", req.ID, func(sess *claim.Session) (claim.Result, error) {
		return sess.MarkReturned(ctx)
	})
}

func (s *ClaimService) GiveKarma(ctx context.Context, req *ConversationRequest) (*IntentResponse, error) {
	return s.intent(ctx, "give karma", req.ID, func(sess *claim.Session) (claim.Result, error) {
		return sess.GiveKarma(ctx)
	})
}

// CloseConversation tears down the daemon-side session, cancelling its scheduled replies.
// The conversation itself stays stored and can be reopened.
func (s *ClaimService) CloseConversation(_ context.Context, req *ConversationRequest) (*CloseConversationResponse, error) {
	return &CloseConversationResponse{Cancelled: s.manager.Close(req.ID)}, nil
}

func (s *ClaimService) IssueHandoff(ctx context.Context, req *ConversationRequest) (*HandoffResponse, error) {
	ticket, qr, err := s.manager.IssueHandoff(ctx, req.ID)
	if err != nil {
		return nil, toStatus("issue handoff", err)
	}
	return &HandoffResponse{Token: ticket.Token, QR: qr, ExpiresAt: ticket.ExpiresAt}, nil
}

func (s *ClaimService) RedeemHandoff(ctx context.Context, req *RedeemHandoffRequest) (*IntentResponse, error) {
	id, res, err := s.manager.RedeemHandoff(ctx, req.Token)
	if err != nil {
		return nil, toStatus("redeem handoff", err)
	}
	sess, err := s.manager.Open(ctx, id)
	if err != nil {
		return nil, toStatus("redeem handoff", err)
	}
	return &IntentResponse{Applied: res.Applied, Conversation: view(sess)}, nil
}

func (s *ClaimService) SearchMessages(ctx context.Context, req *SearchMessagesRequest) (*SearchMessagesResponse, error) {
	limit := defaultSearchLimit
	if req.Limit > 0 {
		limit = req.Limit
	}
	results, err := s.manager.Search(ctx, req.Query, req.ConversationID, limit)
	if err != nil {
		return nil, toStatus("search messages", err)
	}
	resp := &SearchMessagesResponse{Results: make([]SearchResult, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, SearchResult{
			ConversationID: r.ConversationID,
			Item:           r.Item,
			Message:        r.Message,
			Snippet:        r.Snippet,
		})
	}
	return resp, nil
}

// WatchConversation sends the current view, then a fresh view after every change.
func (s *ClaimService) WatchConversation(req *ConversationRequest, stream ConversationEventSender) error {
	ctx := stream.Context()
	sess, err := s.manager.Open(ctx, req.ID)
	if err != nil {
		return toStatus("watch conversation", err)
	}

	ch, unsub := s.bus.SubscribeSubject("conversation.", req.ID, 64)
	defer unsub()

	if err := stream.Send(&ConversationEvent{Kind: "snapshot", OccurredAt: sess.Snapshot().UpdatedAt, Conversation: view(sess)}); err != nil {
		return err
	}
	for {
		select {
		case evt := <-ch:
			if err := stream.Send(&ConversationEvent{
				ID:           evt.ID,
				Kind:         evt.Kind,
				OccurredAt:   evt.Timestamp,
				Conversation: view(sess),
			}); err != nil {
				return err
			}
		case <-ctx.Done():
			s.logger.Debug("watch ended", zap.String("conversation", req.ID))
			return nil
		}
	}
}

func (s *ClaimService) intent(ctx context.Context, op, id string, do func(*claim.Session) (claim.Result, error)) (*IntentResponse, error) {
	sess, err := s.manager.Open(ctx, id)
	if err != nil {
		return nil, toStatus(op, err)
	}
	res, err := do(sess)
	if err != nil {
		return nil, toStatus(op, err)
	}
	return &IntentResponse{Applied: res.Applied, Conversation: view(sess)}, nil
}

// view derives banner and affordances from one snapshot so they always agree with it.
func view(sess *claim.Session) Conversation {
	snap := sess.Snapshot()
	if snap.Messages == nil {
		snap.Messages = []conversation.Message{}
	}
	return Conversation{
		Snapshot:    snap,
		Banner:      status.BannerFor(snap),
		Affordances: claim.AffordancesFor(snap),
		Pending:     sess.Pending(),
	}
}
