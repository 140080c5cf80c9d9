package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
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
	defaultResetTTL      = time.Hour
	resetTokenByteLength = 32

	// ResetStatusLinkSent is the status returned for every reset request,
	// whether or not the email maps to an account.
	ResetStatusLinkSent = "passwords.sent"
	// ResetStatusPasswordReset marks a completed reset.
	ResetStatusPasswordReset = "passwords.reset"

	passwordChangedBySelf  = "user"
	passwordChangedByReset = "password_reset"
)

var (
	// ErrResetTokenInvalid indicates the token is unknown, superseded, consumed,
	// or bound to a different email.
	ErrResetTokenInvalid = errors.New("password reset token invalid")
	// ErrResetTokenExpired indicates the token exists but passed its TTL.
	ErrResetTokenExpired = errors.New("password reset token expired")
	// ErrCurrentPasswordIncorrect indicates the supplied current password failed verification.
	ErrCurrentPasswordIncorrect = errors.New("current password incorrect")
)

// PasswordService coordinates forgot-password, reset, and authenticated change flows.
type PasswordService struct {
	users             port.UserRepository
	tokens            port.TokenRepository
	events            port.EventPublisher
	notifier          port.Notifier
	passwordValidator *security.PasswordValidator
	frontendURL       string
	resetTTL          time.Duration
	logger            *zap.Logger
	now               func() time.Time
}

// NewPasswordService constructs a PasswordService.
func NewPasswordService(users port.UserRepository, tokens port.TokenRepository, events port.EventPublisher, notifier port.Notifier, validator *security.PasswordValidator, frontendURL string, resetTTL time.Duration, log *zap.Logger) *PasswordService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}
	return &PasswordService{
		users:             users,
		tokens:            tokens,
		events:            events,
		notifier:          notifier,
		passwordValidator: validator,
		frontendURL:       frontendURL,
		resetTTL:          resetTTL,
		logger:            log,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *PasswordService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithResetTTL allows tests to override the reset token lifetime.
func (s *PasswordService) WithResetTTL(ttl time.Duration) {
	if ttl > 0 {
		s.resetTTL = ttl
	}
}

// RequestReset issues a reset token for the email when an account exists. The
// returned status is identical either way so responses cannot be used to probe
// for registered addresses. A repeated request supersedes the earlier token.
func (s *PasswordService) RequestReset(ctx context.Context, email, ip string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)),
				zap.String("ip", logger.MaskIP(ip)),
			)
			return ResetStatusLinkSent, nil
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	rawToken, err := security.GenerateSecureToken(resetTokenByteLength)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now()
	token := domain.PasswordResetToken{
		ID:        uuid.NewString(),
		Email:     user.Email,
		TokenHash: security.HashToken(rawToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTTL),
	}

	if err := s.tokens.CreatePasswordReset(ctx, token); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s", s.frontendURL, rawToken, user.Email)
	if s.notifier != nil {
		if err := s.notifier.SendPasswordResetEmail(ctx, user.Email, link); err != nil {
			return "", fmt.Errorf("dispatch reset email: %w", err)
		}
	}

	if s.events != nil {
		event := domain.PasswordResetRequestedEvent{
			UserID:            user.ID,
			RequestID:         token.ID,
			RequestedAt:       now,
			MaskedDestination: logger.MaskEmail(user.Email),
			ExpiresAt:         token.ExpiresAt,
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Warn("publish reset requested failed", zap.Error(err))
		}
	}

	return ResetStatusLinkSent, nil
}

// ResetInput carries the payload to finalize a password reset.
type ResetInput struct {
	Token    string
	Email    string
	Password string
}

// ResetPassword validates the single-use token, replaces the password, and
// revokes every outstanding bearer token for the account.
func (s *PasswordService) ResetPassword(ctx context.Context, input ResetInput) (string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrResetTokenInvalid
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	token, err := s.tokens.GetPasswordResetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrResetTokenInvalid
		}
		return "", fmt.Errorf("lookup reset token: %w", err)
	}

	supplied := security.HashToken(input.Token)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(token.TokenHash)) != 1 {
		return "", ErrResetTokenInvalid
	}

	now := s.now()
	if token.Expired(now) {
		return "", ErrResetTokenExpired
	}

	if err := s.passwordValidator.Validate(input.Password); err != nil {
		return "", err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash, "argon2id", now); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}

	if err := s.tokens.ConsumePasswordReset(ctx, token.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("consume reset token: %w", err)
	}

	revoked, err := s.tokens.DeleteAuthTokensForUser(ctx, user.ID, "")
	if err != nil {
		return "", fmt.Errorf("revoke tokens: %w", err)
	}

	s.publishPasswordChanged(ctx, user.ID, now, passwordChangedByReset, revoked)

	return ResetStatusPasswordReset, nil
}

// ChangeInput carries the payload for an authenticated password update.
type ChangeInput struct {
	UserID         string
	CurrentTokenID string
	Current        string
	New            string
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every other bearer token so only the acting session survives.
func (s *PasswordService) ChangePassword(ctx context.Context, input ChangeInput) (int, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrCurrentPasswordIncorrect
		}
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(input.Current, user.PasswordHash)
	if err != nil {
		return 0, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return 0, ErrCurrentPasswordIncorrect
	}

	if err := s.passwordValidator.Validate(input.New); err != nil {
		return 0, err
	}

	passwordHash, err := security.HashPassword(input.New)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash, "argon2id", now); err != nil {
		return 0, fmt.Errorf("update password: %w", err)
	}

	revoked, err := s.tokens.DeleteAuthTokensForUser(ctx, user.ID, input.CurrentTokenID)
	if err != nil {
		return 0, fmt.Errorf("revoke other tokens: %w", err)
	}

	s.publishPasswordChanged(ctx, user.ID, now, passwordChangedBySelf, revoked)

	return revoked, nil
}

func (s *PasswordService) publishPasswordChanged(ctx context.Context, userID string, at time.Time, by string, revoked int) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		UserID:        userID,
		ChangedAt:     at,
		ChangedBy:     by,
		TokensRevoked: revoked,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed failed", zap.Error(err))
	}
}
