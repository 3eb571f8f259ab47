package api

import (
	"context"

	"google.golang.org/grpc"
)

// Fully qualified service names.
const (
	ClaimServiceName   = "lnf.v1.ClaimService"
	ProfileServiceName = "lnf.v1.ProfileService"
)

// ClaimServiceServer is the conversation API.
type ClaimServiceServer interface {
	ListConversations(context.Context, *ListConversationsRequest) (*ListConversationsResponse, error)
	GetConversation(context.Context, *ConversationRequest) (*Conversation, error)
	CreateConversation(context.Context, *CreateConversationRequest) (*Conversation, error)
	RequestVerification(context.Context, *ConversationRequest) (*IntentResponse, error)
	SubmitVerification(context.Context, *SubmitVerificationRequest) (*IntentResponse, error)
	ApproveVerification(context.Context, *ConversationRequest) (*IntentResponse, error)
	RejectVerification(context.Context, *ConversationRequest) (*IntentResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*IntentResponse, error)
	ProposeMeetup(context.Context, *ProposeMeetupRequest) (*IntentResponse, error)
	MarkReturned(context.Context, *ConversationRequest) (*IntentResponse, error)
	GiveKarma(context.Context, *ConversationRequest) (*IntentResponse, error)
	IssueHandoff(context.Context, *ConversationRequest) (*HandoffResponse, error)
	RedeemHandoff(context.Context, *RedeemHandoffRequest) (*IntentResponse, error)
	SearchMessages(context.Context, *SearchMessagesRequest) (*SearchMessagesResponse, error)
	CloseConversation(context.Context, *ConversationRequest) (*CloseConversationResponse, error)
	WatchConversation(*ConversationRequest, ConversationEventSender) error
}

// ConversationEventSender is the server side of the WatchConversation stream.
type ConversationEventSender interface {
	Send(*ConversationEvent) error
	Context() context.Context
}

// ProfileServiceServer is the account and karma API.
type ProfileServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*SessionResponse, error)
	SignIn(context.Context, *SignInRequest) (*SessionResponse, error)
	GetProfile(context.Context, *ProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	GetKarmaScore(context.Context, *ProfileRequest) (*KarmaResponse, error)
}

// unaryMethod adapts a typed server method to a grpc.MethodDesc.
func unaryMethod[S any, Req any, Resp any](service, name string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(service, name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			})
		},
	}
}

type watchStream struct {
	grpc.ServerStream
}

func (w watchStream) Send(evt *ConversationEvent) error {
	return w.ServerStream.SendMsg(evt)
}

// ClaimServiceDesc describes ClaimService for grpc.Server.RegisterService.
var ClaimServiceDesc = grpc.ServiceDesc{
	ServiceName: ClaimServiceName,
	HandlerType: (*ClaimServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(ClaimServiceName, "ListConversations", ClaimServiceServer.ListConversations),
		unaryMethod(ClaimServiceName, "GetConversation", ClaimServiceServer.GetConversation),
		unaryMethod(ClaimServiceName, "CreateConversation", ClaimServiceServer.CreateConversation),
		unaryMethod(ClaimServiceName, "RequestVerification", ClaimServiceServer.RequestVerification),
		unaryMethod(ClaimServiceName, "SubmitVerification", ClaimServiceServer.SubmitVerification),
		unaryMethod(ClaimServiceName, "ApproveVerification", ClaimServiceServer.ApproveVerification),
		unaryMethod(ClaimServiceName, "RejectVerification", ClaimServiceServer.RejectVerification),
		unaryMethod(ClaimServiceName, "SendMessage", ClaimServiceServer.SendMessage),
		unaryMethod(ClaimServiceName, "ProposeMeetup", ClaimServiceServer.ProposeMeetup),
		unaryMethod(ClaimServiceName, "MarkReturned", ClaimServiceServer.MarkReturned),
		unaryMethod(ClaimServiceName, "GiveKarma", ClaimServiceServer.GiveKarma),
		unaryMethod(ClaimServiceName, "IssueHandoff", ClaimServiceServer.IssueHandoff),
		unaryMethod(ClaimServiceName, "RedeemHandoff", ClaimServiceServer.RedeemHandoff),
		unaryMethod(ClaimServiceName, "SearchMessages", ClaimServiceServer.SearchMessages),
		unaryMethod(ClaimServiceName, "CloseConversation", ClaimServiceServer.CloseConversation),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchConversation",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(ConversationRequest)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(ClaimServiceServer).WatchConversation(in, watchStream{stream})
			},
		},
	},
}

// ProfileServiceDesc describes ProfileService for grpc.Server.RegisterService.
var ProfileServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(ProfileServiceName, "SignUp", ProfileServiceServer.SignUp),
		unaryMethod(ProfileServiceName, "SignIn", ProfileServiceServer.SignIn),
		unaryMethod(ProfileServiceName, "GetProfile", ProfileServiceServer.GetProfile),
		unaryMethod(ProfileServiceName, "UpdateProfile", ProfileServiceServer.UpdateProfile),
		unaryMethod(ProfileServiceName, "GetKarmaScore", ProfileServiceServer.GetKarmaScore),
	},
}

// RegisterClaimService registers srv on s.
func RegisterClaimService(s grpc.ServiceRegistrar, srv ClaimServiceServer) {
	s.RegisterService(&ClaimServiceDesc, srv)
}

// RegisterProfileService registers srv on s.
func RegisterProfileService(s grpc.ServiceRegistrar, srv ProfileServiceServer) {
	s.RegisterService(&ProfileServiceDesc, srv)
}

// FullMethod returns the gRPC path of a method.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}
