package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/matheus3301/lnf/internal/metrics"
)

const minPasswordLen = 8

// Options configures a Service.
type Options struct {
	Secret   []byte
	TokenTTL time.Duration
	// MediaDir receives uploaded profile images.
	MediaDir string
	// SignInEvery and SignInBurst bound sign-in attempts per email.
	SignInEvery time.Duration
	SignInBurst int
}

// Service implements Backend on top of a Store.
type Service struct {
	store    Store
	tokens   *Tokens
	mediaDir string
	limiter  *limiterPool
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a profile service.
func NewService(store Store, opts Options, m *metrics.Metrics, logger *zap.Logger) *Service {
	every := opts.SignInEvery
	if every <= 0 {
		every = 12 * time.Second
	}
	return &Service{
		store:    store,
		tokens:   NewTokens(opts.Secret, opts.TokenTTL),
		mediaDir: opts.MediaDir,
		limiter:  newLimiterPool(rate.Every(every), opts.SignInBurst),
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

var _ Backend = (*Service)(nil)

// SignUp registers a user with zero karma and signs them in.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (Session, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, fmt.Errorf("%w: email %q", ErrInvalidInput, req.Email)
	}
	if len(req.Password) < minPasswordLen {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	u := &User{
		ID:           "user-" + uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Pronouns:     strings.TrimSpace(req.Pronouns),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return Session{}, err
	}
	s.logger.Info("user signed up", zap.String("user", u.ID))
	return s.session(*u)
}

// SignIn checks credentials and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if !s.limiter.Allow(email) {
		s.countSignIn("rate_limited")
		return Session{}, ErrRateLimited
	}
	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		s.countSignIn("invalid")
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.countSignIn("invalid")
		return Session{}, ErrInvalidCredentials
	}
	s.countSignIn("ok")
	return s.session(*u)
}

// VerifyToken returns the user a session token was issued to.
func (s *Service) VerifyToken(ctx context.Context, token string) (User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return User{}, err
	}
	u, err := s.store.UserByID(ctx, claims.UserID)
	if err != nil {
		return User{}, err
	}
	return *u, nil
}

// GetProfile returns a user by id.
func (s *Service) GetProfile(ctx context.Context, userID string) (User, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return *u, nil
}

// UpdateProfile applies upd and, when image is non-empty, stores it as the profile picture.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd Update, image []byte) (User, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.FirstName, upd.FirstName)
	set(&u.LastName, upd.LastName)
	set(&u.Pronouns, upd.Pronouns)
	set(&u.Phone, upd.Phone)

	if len(image) > 0 {
		path, err := s.saveImage(userID, image)
		if err != nil {
			return User{}, err
		}
		u.ImagePath = path
	}
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return User{}, err
	}
	return *u, nil
}

// GetKarmaScore returns the user's karma.
func (s *Service) GetKarmaScore(ctx context.Context, userID string) (int, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Karma, nil
}

// IncrementKarma adds amount to the user's karma and returns the new score.
func (s *Service) IncrementKarma(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: karma amount %d", ErrInvalidInput, amount)
	}
	score, err := s.store.IncrementKarma(ctx, userID, amount)
	if err != nil {
		return 0, err
	}
	s.logger.Info("karma incremented", zap.String("user", userID), zap.Int("score", score))
	return score, nil
}

// EnsureUser creates u when no user with its id exists. Used for demo data.
func (s *Service) EnsureUser(ctx context.Context, u User) error {
	_, err := s.store.UserByID(ctx, u.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	u.Email = normalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	u.UpdatedAt = s.now()
	return s.store.CreateUser(ctx, &u)
}

func (s *Service) session(u User) (Session, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *Service) countSignIn(outcome string) {
	if s.metrics != nil {
		s.metrics.SignIns.WithLabelValues(outcome).Inc()
	}
}

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func (s *Service) saveImage(userID string, image []byte) (string, error) {
	ext, ok := imageExt[http.DetectContentType(image)]
	if !ok {
		return "", fmt.Errorf("%w: profile image must be png, jpeg, gif or webp", ErrInvalidInput)
	}
	if s.mediaDir == "" {
		return "", errors.New("profile images are not enabled")
	}
	if err := os.MkdirAll(s.mediaDir, 0o700); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	path := filepath.Join(s.mediaDir, filepath.Base(userID)+ext)
	if err := os.WriteFile(path, image, 0o600); err != nil {
		return "", fmt.Errorf("write profile image: %w", err)
	}
	return path, nil
}
