package port

import (
	"context"
	"time"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
)

// TokenRepository manages bearer, password reset, and email verification token records.
type TokenRepository interface {
	CreateAuthToken(ctx context.Context, token domain.AuthToken) error
	GetAuthTokenByHash(ctx context.Context, hash string) (*domain.AuthToken, error)
	TouchAuthToken(ctx context.Context, id string, usedAt time.Time) error
	DeleteAuthToken(ctx context.Context, id string) error
	// DeleteAuthTokensForUser revokes every bearer token for the user except
	// the optional keepID (empty string keeps nothing).
	DeleteAuthTokensForUser(ctx context.Context, userID, keepID string) (int, error)

	// CreatePasswordReset stores a reset token, superseding any previous token
	// for the same email.
	CreatePasswordReset(ctx context.Context, token domain.PasswordResetToken) error
	GetPasswordResetByEmail(ctx context.Context, email string) (*domain.PasswordResetToken, error)
	ConsumePasswordReset(ctx context.Context, id string) error

	// CreateEmailVerification stores a verification token, superseding any
	// previous token for the same user.
	CreateEmailVerification(ctx context.Context, token domain.EmailVerificationToken) error
	GetEmailVerificationByUser(ctx context.Context, userID string) (*domain.EmailVerificationToken, error)
	ConsumeEmailVerification(ctx context.Context, id string) error
}
