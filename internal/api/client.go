package api

import (
	"context"
	"io"

	"google.golang.org/grpc"
)

// ClaimServiceClient is the client side of ClaimService.
type ClaimServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewClaimServiceClient creates a client over cc.
func NewClaimServiceClient(cc grpc.ClientConnInterface) *ClaimServiceClient {
	return &ClaimServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, FullMethod(service, method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClaimServiceClient) ListConversations(ctx context.Context, req *ListConversationsRequest, opts ...grpc.CallOption) (*ListConversationsResponse, error) {
	return invoke[ListConversationsResponse](ctx, c.cc, ClaimServiceName, "ListConversations", req, opts...)
}

func (c *ClaimServiceClient) GetConversation(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*Conversation, error) {
	return invoke[Conversation](ctx, c.cc, ClaimServiceName, "GetConversation", req, opts...)
}

func (c *ClaimServiceClient) CreateConversation(ctx context.Context, req *CreateConversationRequest, opts ...grpc.CallOption) (*Conversation, error) {
	return invoke[Conversation](ctx, c.cc, ClaimServiceName, "CreateConversation", req, opts...)
}

func (c *ClaimServiceClient) RequestVerification(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "RequestVerification", req, opts...)
}

func (c *ClaimServiceClient) SubmitVerification(ctx context.Context, req *SubmitVerificationRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "SubmitVerification", req, opts...)
}

func (c *ClaimServiceClient) ApproveVerification(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "ApproveVerification", req, opts...)
}

func (c *ClaimServiceClient) RejectVerification(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "RejectVerification", req, opts...)
}

func (c *ClaimServiceClient) SendMessage(ctx context.Context, req *SendMessageRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "SendMessage", req, opts...)
}

func (c *ClaimServiceClient) ProposeMeetup(ctx context.Context, req *ProposeMeetupRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "ProposeMeetup", req, opts...)
}

func (c *ClaimServiceClient) MarkReturned(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "MarkReturned", req, opts...)
}

func (c *ClaimServiceClient) GiveKarma(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "GiveKarma", req, opts...)
}

func (c *ClaimServiceClient) CloseConversation(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*CloseConversationResponse, error) {
	return invoke[CloseConversationResponse](ctx, c.cc, ClaimServiceName, "CloseConversation", req, opts...)
}

func (c *ClaimServiceClient) IssueHandoff(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*HandoffResponse, error) {
	return invoke[HandoffResponse](ctx, c.cc, ClaimServiceName, "IssueHandoff", req, opts...)
}

func (c *ClaimServiceClient) RedeemHandoff(ctx context.Context, req *RedeemHandoffRequest, opts ...grpc.CallOption) (*IntentResponse, error) {
	return invoke[IntentResponse](ctx, c.cc, ClaimServiceName, "RedeemHandoff", req, opts...)
}

func (c *ClaimServiceClient) SearchMessages(ctx context.Context, req *SearchMessagesRequest, opts ...grpc.CallOption) (*SearchMessagesResponse, error) {
	return invoke[SearchMessagesResponse](ctx, c.cc, ClaimServiceName, "SearchMessages", req, opts...)
}

// ConversationEventStream receives WatchConversation events.
type ConversationEventStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next event. It returns io.EOF when the server ends the stream.
func (s *ConversationEventStream) Recv() (*ConversationEvent, error) {
	evt := new(ConversationEvent)
	if err := s.stream.RecvMsg(evt); err != nil {
		return nil, err
	}
	return evt, nil
}

// WatchConversation opens the event stream of one conversation. Cancel ctx to stop it.
func (c *ClaimServiceClient) WatchConversation(ctx context.Context, req *ConversationRequest, opts ...grpc.CallOption) (*ConversationEventStream, error) {
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	stream, err := c.cc.NewStream(ctx, &ClaimServiceDesc.Streams[0], FullMethod(ClaimServiceName, "WatchConversation"), opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil && err != io.EOF {
		return nil, err
	}
	return &ConversationEventStream{stream: stream}, nil
}

// ProfileServiceClient is the client side of ProfileService.
type ProfileServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProfileServiceClient creates a client over cc.
func NewProfileServiceClient(cc grpc.ClientConnInterface) *ProfileServiceClient {
	return &ProfileServiceClient{cc: cc}
}

func (c *ProfileServiceClient) SignUp(ctx context.Context, req *SignUpRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, ProfileServiceName, "SignUp", req, opts...)
}

func (c *ProfileServiceClient) SignIn(ctx context.Context, req *SignInRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, ProfileServiceName, "SignIn", req, opts...)
}

func (c *ProfileServiceClient) GetProfile(ctx context.Context, req *ProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, ProfileServiceName, "GetProfile", req, opts...)
}

func (c *ProfileServiceClient) UpdateProfile(ctx context.Context, req *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, ProfileServiceName, "UpdateProfile", req, opts...)
}

func (c *ProfileServiceClient) GetKarmaScore(ctx context.Context, req *ProfileRequest, opts ...grpc.CallOption) (*KarmaResponse, error) {
	return invoke[KarmaResponse](ctx, c.cc, ProfileServiceName, "GetKarmaScore", req, opts...)
}
