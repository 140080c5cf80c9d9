package usecase

import (
	"context"
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

const authTokenByteLength = 32

var (
	// ErrInvalidCredentials indicates the email or password is incorrect. The
	// same error covers unknown accounts so responses cannot distinguish them.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid indicates the presented bearer token matches no stored credential.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrPasswordIncorrect indicates a confirmation password did not match the stored hash.
	ErrPasswordIncorrect = errors.New("password incorrect")
)

// AuthService coordinates credential verification and bearer token lifecycle.
type AuthService struct {
	users  port.UserRepository
	tokens port.TokenRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users port.UserRepository, tokens port.TokenRepository, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// LoginInput carries the credentials and request metadata for a login attempt.
type LoginInput struct {
	Email     string
	Password  string
	TokenName string
	IP        string
	UserAgent string
}

// Login verifies credentials and issues a fresh bearer token. The plaintext
// token is returned exactly once; only its hash is persisted.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return "", domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.User{}, ErrInvalidCredentials
		}
		return "", domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Info("login rejected",
			zap.String("email", logger.MaskEmail(email)),
			zap.String("ip", logger.MaskIP(input.IP)),
		)
		return "", domain.User{}, ErrInvalidCredentials
	}

	rawToken, err := s.IssueToken(ctx, *user, input.TokenName, input.IP, input.UserAgent)
	if err != nil {
		return "", domain.User{}, err
	}

	return rawToken, *user, nil
}

// IssueToken mints a bearer token for the user and stores its hash.
func (s *AuthService) IssueToken(ctx context.Context, user domain.User, name, ip, userAgent string) (string, error) {
	rawToken, err := security.GenerateSecureToken(authTokenByteLength)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	if name == "" {
		name = "api"
	}

	token := domain.AuthToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: security.HashToken(rawToken),
		Name:      name,
		CreatedAt: s.now(),
	}
	if ip != "" {
		token.IP = &ip
	}
	if userAgent != "" {
		token.UserAgent = &userAgent
	}

	if err := s.tokens.CreateAuthToken(ctx, token); err != nil {
		return "", fmt.Errorf("store auth token: %w", err)
	}

	return rawToken, nil
}

// Authenticate resolves a bearer token to its user. The token's last-used
// timestamp is refreshed on a best effort basis.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*domain.User, *domain.AuthToken, error) {
	if rawToken == "" {
		return nil, nil, ErrTokenInvalid
	}

	token, err := s.tokens.GetAuthTokenByHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, fmt.Errorf("lookup token: %w", err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, fmt.Errorf("lookup token user: %w", err)
	}

	if err := s.tokens.TouchAuthToken(ctx, token.ID, s.now()); err != nil {
		s.logger.Warn("touch auth token failed", zap.Error(err))
	}

	return user, token, nil
}

// Logout revokes the presented token. Revoking an already revoked token is
// not an error so repeated logouts stay idempotent.
func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}

	if err := s.tokens.DeleteAuthToken(ctx, tokenID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

// ConfirmPassword re-verifies the session password with an exact-case
// comparison against the stored hash.
func (s *AuthService) ConfirmPassword(ctx context.Context, userID, password string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPasswordIncorrect
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrPasswordIncorrect
	}

	return nil
}
