package port

import (
	"context"
	"time"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateProfile persists name/email changes. A changed email clears the
	// verification timestamp; callers pass the resolved verifiedAt value.
	UpdateProfile(ctx context.Context, id, name, email string, verifiedAt *time.Time, updatedAt time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash, passwordAlgo string, changedAt time.Time) error
	MarkEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error
	// Delete removes the user row together with every credential issued to it
	// in a single transaction.
	Delete(ctx context.Context, id string) (tokensRevoked int, err error)
}
