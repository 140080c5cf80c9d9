package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
	"github.com/benshawuk/react-api-starter-kit/internal/core/port"
	"github.com/benshawuk/react-api-starter-kit/internal/infra/logger"
	"github.com/benshawuk/react-api-starter-kit/internal/infra/security"
	"github.com/benshawuk/react-api-starter-kit/internal/repository"
)

// ProfileService exposes account profile reads and mutations.
type ProfileService struct {
	users  port.UserRepository
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users port.UserRepository, events port.EventPublisher, log *zap.Logger) *ProfileService {
	return &ProfileService{
		users:  users,
		events: events,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *ProfileService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Profile pairs the user record with the verification obligation flag.
type Profile struct {
	User            domain.User
	MustVerifyEmail bool
}

// Get loads the profile for the user.
func (s *ProfileService) Get(ctx context.Context, userID string) (Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("lookup user: %w", err)
	}

	return Profile{User: *user, MustVerifyEmail: user.MustVerifyEmail()}, nil
}

// UpdateInput carries profile mutation fields.
type UpdateInput struct {
	UserID string
	Name   string
	Email  string
}

// Update persists name and email changes. Changing the email clears the
// verification timestamp; re-submitting the identical email leaves it intact.
func (s *ProfileService) Update(ctx context.Context, input UpdateInput) (domain.User, error) {
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(strings.ToLower(input.Email))

	emailChanged := email != user.Email

	if emailChanged {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return domain.User{}, ErrEmailTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, fmt.Errorf("check email: %w", err)
		}
	}

	verifiedAt := user.EmailVerifiedAt
	if emailChanged {
		verifiedAt = nil
	}

	now := s.now()
	if err := s.users.UpdateProfile(ctx, user.ID, name, email, verifiedAt, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}

	user.Name = name
	user.Email = email
	user.EmailVerifiedAt = verifiedAt
	user.UpdatedAt = now

	if emailChanged {
		s.logger.Info("profile email changed",
			zap.String("email", logger.MaskEmail(email)),
		)
	}

	return *user, nil
}

// Delete removes the account after re-verifying the password. The user row
// and every credential disappear in one transaction.
func (s *ProfileService) Delete(ctx context.Context, userID, password string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrCurrentPasswordIncorrect
	}

	revoked, err := s.users.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if s.events != nil {
		event := domain.UserDeletedEvent{
			UserID:        user.ID,
			Email:         user.Email,
			DeletedAt:     s.now(),
			TokensRevoked: revoked,
		}
		if err := s.events.PublishUserDeleted(ctx, event); err != nil {
			s.logger.Warn("publish user deleted failed", zap.Error(err))
		}
	}

	return nil
}
