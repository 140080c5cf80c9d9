package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
	"github.com/benshawuk/react-api-starter-kit/internal/repository"
)

// memUserRepo is an in-memory port.UserRepository for service tests.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
	// deleteRevoked is what Delete reports as the revoked token count.
	deleteRevoked int
}

func newMemUserRepo(users ...domain.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *memUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copy := user
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copy := user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) UpdateProfile(_ context.Context, id, name, email string, verifiedAt *time.Time, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Name = name
	user.Email = email
	user.EmailVerifiedAt = verifiedAt
	user.UpdatedAt = updatedAt
	r.users[id] = user
	return nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id, passwordHash, passwordAlgo string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.PasswordAlgo = passwordAlgo
	user.UpdatedAt = changedAt
	r.users[id] = user
	return nil
}

func (r *memUserRepo) MarkEmailVerified(_ context.Context, id string, verifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.EmailVerifiedAt = &verifiedAt
	user.UpdatedAt = verifiedAt
	r.users[id] = user
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return 0, repository.ErrNotFound
	}
	delete(r.users, id)
	return r.deleteRevoked, nil
}

// memTokenRepo is an in-memory port.TokenRepository for service tests.
type memTokenRepo struct {
	mu            sync.Mutex
	authTokens    map[string]domain.AuthToken
	resets        map[string]domain.PasswordResetToken
	verifications map[string]domain.EmailVerificationToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{
		authTokens:    make(map[string]domain.AuthToken),
		resets:        make(map[string]domain.PasswordResetToken),
		verifications: make(map[string]domain.EmailVerificationToken),
	}
}

func (r *memTokenRepo) CreateAuthToken(_ context.Context, token domain.AuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authTokens[token.ID] = token
	return nil
}

func (r *memTokenRepo) GetAuthTokenByHash(_ context.Context, hash string) (*domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.authTokens {
		if token.TokenHash == hash {
			copy := token
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) TouchAuthToken(_ context.Context, id string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.authTokens[id]
	if !ok {
		return repository.ErrNotFound
	}
	token.LastUsedAt = &usedAt
	r.authTokens[id] = token
	return nil
}

func (r *memTokenRepo) DeleteAuthToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.authTokens[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.authTokens, id)
	return nil
}

func (r *memTokenRepo) DeleteAuthTokensForUser(_ context.Context, userID, keepID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, token := range r.authTokens {
		if token.UserID == userID && id != keepID {
			delete(r.authTokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memTokenRepo) CreatePasswordReset(_ context.Context, token domain.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.resets {
		if existing.Email == token.Email {
			delete(r.resets, id)
		}
	}
	r.resets[token.ID] = token
	return nil
}

func (r *memTokenRepo) GetPasswordResetByEmail(_ context.Context, email string) (*domain.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.resets {
		if token.Email == email {
			copy := token
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) ConsumePasswordReset(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.resets, id)
	return nil
}

func (r *memTokenRepo) CreateEmailVerification(_ context.Context, token domain.EmailVerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.verifications {
		if existing.UserID == token.UserID {
			delete(r.verifications, id)
		}
	}
	r.verifications[token.ID] = token
	return nil
}

func (r *memTokenRepo) GetEmailVerificationByUser(_ context.Context, userID string) (*domain.EmailVerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.verifications {
		if token.UserID == userID {
			copy := token
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTokenRepo) ConsumeEmailVerification(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.verifications[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.verifications, id)
	return nil
}

func (r *memTokenRepo) authTokenCountForUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, token := range r.authTokens {
		if token.UserID == userID {
			count++
		}
	}
	return count
}

// stubPublisher counts published events.
type stubPublisher struct {
	mu              sync.Mutex
	registered      int
	passwordChanged int
	resetRequested  int
	emailVerified   int
	userDeleted     int
	lastChanged     domain.PasswordChangedEvent
}

func (p *stubPublisher) PublishUserRegistered(context.Context, domain.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered++
	return nil
}

func (p *stubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwordChanged++
	p.lastChanged = event
	return nil
}

func (p *stubPublisher) PublishPasswordResetRequested(context.Context, domain.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetRequested++
	return nil
}

func (p *stubPublisher) PublishEmailVerified(context.Context, domain.EmailVerifiedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emailVerified++
	return nil
}

func (p *stubPublisher) PublishUserDeleted(context.Context, domain.UserDeletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userDeleted++
	return nil
}

// stubNotifier records dispatched emails and their links.
type stubNotifier struct {
	mu                sync.Mutex
	verificationSent  int
	resetSent         int
	lastVerifyLink    string
	lastResetLink     string
	lastRecipient     string
	lastRecipientName string
}

func (n *stubNotifier) SendVerificationEmail(_ context.Context, email, name, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verificationSent++
	n.lastRecipient = email
	n.lastRecipientName = name
	n.lastVerifyLink = link
	return nil
}

func (n *stubNotifier) SendPasswordResetEmail(_ context.Context, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetSent++
	n.lastRecipient = email
	n.lastResetLink = link
	return nil
}
