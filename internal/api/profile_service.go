package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/bus"
	"github.com/matheus3301/lnf/internal/profile"
)

// ProfileService implements ProfileServiceServer on top of a profile.Backend.
type ProfileService struct {
	backend profile.Backend
	bus     *bus.Bus
	logger  *zap.Logger
}

var _ ProfileServiceServer = (*ProfileService)(nil)

// NewProfileService creates the account API.
func NewProfileService(backend profile.Backend, b *bus.Bus, logger *zap.Logger) *ProfileService {
	return &ProfileService{backend: backend, bus: b, logger: logger}
}

func (s *ProfileService) SignUp(ctx context.Context, req *SignUpRequest) (*SessionResponse, error) {
	sess, err := s.backend.SignUp(ctx, profile.SignUpRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Pronouns:  req.Pronouns,
	})
	if err != nil {
		return nil, toStatus("sign up", err)
	}
	return sessionResponse(sess), nil
}

func (s *ProfileService) SignIn(ctx context.Context, req *SignInRequest) (*SessionResponse, error) {
	sess, err := s.backend.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus("sign in", err)
	}
	return sessionResponse(sess), nil
}

func (s *ProfileService) GetProfile(ctx context.Context, req *ProfileRequest) (*ProfileResponse, error) {
	u, err := s.backend.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("get profile", err)
	}
	return &ProfileResponse{User: u}, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*ProfileResponse, error) {
	u, err := s.backend.UpdateProfile(ctx, req.UserID, profile.Update{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Pronouns:  req.Pronouns,
		Phone:     req.Phone,
	}, req.Image)
	if err != nil {
		return nil, toStatus("update profile", err)
	}
	if s.bus != nil {
		s.bus.Publish(bus.NewEvent(bus.KindProfileUpdated, u.ID, u))
	}
	return &ProfileResponse{User: u}, nil
}

func (s *ProfileService) GetKarmaScore(ctx context.Context, req *ProfileRequest) (*KarmaResponse, error) {
	score, err := s.backend.GetKarmaScore(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("get karma", err)
	}
	return &KarmaResponse{UserID: req.UserID, Karma: score}, nil
}

func sessionResponse(sess profile.Session) *SessionResponse {
	return &SessionResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: sess.User}
}
