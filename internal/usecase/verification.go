package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
	"github.com/benshawuk/react-api-starter-kit/internal/core/port"
	"github.com/benshawuk/react-api-starter-kit/internal/infra/logger"
	"github.com/benshawuk/react-api-starter-kit/internal/infra/security"
	"github.com/benshawuk/react-api-starter-kit/internal/repository"
)

const (
	defaultVerificationTTL = 24 * time.Hour

	verificationTokenByteLength = 32

	// VerificationStatusSent is returned after a fresh link dispatch.
	VerificationStatusSent = "verification-link-sent"
	// VerificationStatusAlreadyVerified short-circuits dispatch for verified accounts.
	VerificationStatusAlreadyVerified = "already-verified"
)

var (
	// ErrVerificationTokenInvalid indicates the token is unknown, superseded, or consumed.
	ErrVerificationTokenInvalid = errors.New("verification token invalid")
	// ErrVerificationTokenExpired indicates the token exists but passed its TTL.
	ErrVerificationTokenExpired = errors.New("verification token expired")
	// ErrUserNotFound indicates the addressed account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// VerificationService issues and confirms email verification tokens.
type VerificationService struct {
	users       port.UserRepository
	tokens      port.TokenRepository
	events      port.EventPublisher
	notifier    port.Notifier
	frontendURL string
	ttl         time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewVerificationService constructs a VerificationService.
func NewVerificationService(users port.UserRepository, tokens port.TokenRepository, events port.EventPublisher, notifier port.Notifier, frontendURL string, ttl time.Duration, log *zap.Logger) *VerificationService {
	if ttl <= 0 {
		ttl = defaultVerificationTTL
	}
	return &VerificationService{
		users:       users,
		tokens:      tokens,
		events:      events,
		notifier:    notifier,
		frontendURL: frontendURL,
		ttl:         ttl,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *VerificationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Send issues a verification token for the user and dispatches the email.
// A verified account short-circuits without dispatching anything.
func (s *VerificationService) Send(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if user.HasVerifiedEmail() {
		return VerificationStatusAlreadyVerified, nil
	}

	rawToken, err := security.GenerateSecureToken(verificationTokenByteLength)
	if err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}

	now := s.now()
	token := domain.EmailVerificationToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(rawToken),
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.tokens.CreateEmailVerification(ctx, token); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, rawToken)
	if s.notifier != nil {
		if err := s.notifier.SendVerificationEmail(ctx, user.Email, user.Name, link); err != nil {
			return "", fmt.Errorf("dispatch verification email: %w", err)
		}
	}

	s.logger.Info("verification link issued",
		zap.String("email", logger.MaskEmail(user.Email)),
		zap.Time("expires_at", token.ExpiresAt),
	)

	return VerificationStatusSent, nil
}

// Confirm validates the token for the user, stamps the verification
// timestamp, and consumes the token.
func (s *VerificationService) Confirm(ctx context.Context, userID, rawToken string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if user.HasVerifiedEmail() {
		return *user, nil
	}

	token, err := s.tokens.GetEmailVerificationByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrVerificationTokenInvalid
		}
		return domain.User{}, fmt.Errorf("lookup verification token: %w", err)
	}

	supplied := security.HashToken(rawToken)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(token.TokenHash)) != 1 {
		return domain.User{}, ErrVerificationTokenInvalid
	}

	now := s.now()
	if token.Expired(now) {
		return domain.User{}, ErrVerificationTokenExpired
	}

	// A token issued before an email change no longer addresses the current
	// email and must not verify it.
	if token.Email != user.Email {
		return domain.User{}, ErrVerificationTokenInvalid
	}

	if err := s.users.MarkEmailVerified(ctx, userID, now); err != nil {
		return domain.User{}, fmt.Errorf("mark email verified: %w", err)
	}

	if err := s.tokens.ConsumeEmailVerification(ctx, token.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("consume verification token failed", zap.Error(err))
	}

	user.EmailVerifiedAt = &now

	if s.events != nil {
		event := domain.EmailVerifiedEvent{
			UserID:     user.ID,
			Email:      user.Email,
			VerifiedAt: now,
		}
		if err := s.events.PublishEmailVerified(ctx, event); err != nil {
			s.logger.Warn("publish email verified failed", zap.Error(err))
		}
	}

	return *user, nil
}
