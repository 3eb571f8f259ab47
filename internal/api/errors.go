package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/matheus3301/lnf/internal/claim"
	"github.com/matheus3301/lnf/internal/composer"
	"github.com/matheus3301/lnf/internal/conversation"
	"github.com/matheus3301/lnf/internal/handoff"
	"github.com/matheus3301/lnf/internal/profile"
)

// toStatus maps domain errors to gRPC status codes.
func toStatus(op string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, composer.ErrValidation), errors.Is(err, profile.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, conversation.ErrNotFound), errors.Is(err, profile.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, profile.ErrEmailTaken):
		code = codes.AlreadyExists
	case errors.Is(err, profile.ErrInvalidCredentials),
		errors.Is(err, profile.ErrInvalidToken),
		errors.Is(err, handoff.ErrInvalidToken):
		code = codes.Unauthenticated
	case errors.Is(err, profile.ErrRateLimited):
		code = codes.ResourceExhausted
	case errors.Is(err, claim.ErrNotReady):
		code = codes.FailedPrecondition
	case errors.Is(err, claim.ErrSearchUnavailable), errors.Is(err, claim.ErrClosed):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return grpcstatus.Errorf(code, "%s: %v", op, err)
}
