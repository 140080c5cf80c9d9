package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
	"github.com/benshawuk/react-api-starter-kit/internal/infra/security"
	"github.com/benshawuk/react-api-starter-kit/internal/repository"
	"github.com/benshawuk/react-api-starter-kit/internal/transport/http/middleware"
	"github.com/benshawuk/react-api-starter-kit/internal/usecase"
)

// memUserRepo is an in-memory port.UserRepository for handler tests.
type memUserRepo struct {
	mu            sync.Mutex
	users         map[string]domain.User
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

// memTokenRepo is an in-memory port.TokenRepository for handler tests.
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

// stubNotifier swallows outgoing emails while counting them.
type stubNotifier struct {
	mu               sync.Mutex
	verificationSent int
	resetSent        int
	lastVerifyLink   string
	lastResetLink    string
}

func (n *stubNotifier) SendVerificationEmail(_ context.Context, email, name, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verificationSent++
	n.lastVerifyLink = link
	return nil
}

func (n *stubNotifier) SendPasswordResetEmail(_ context.Context, email, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetSent++
	n.lastResetLink = link
	return nil
}

// testEnv wires the full handler stack against in-memory storage.
type testEnv struct {
	users    *memUserRepo
	tokens   *memTokenRepo
	notifier *stubNotifier
	auth     *usecase.AuthService
	router   *gin.Engine
}

func newTestEnv(t *testing.T, users ...domain.User) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := newMemUserRepo(users...)
	tokenRepo := newMemTokenRepo()
	notifier := &stubNotifier{}
	log := zap.NewNop()

	auth := usecase.NewAuthService(userRepo, tokenRepo, log)
	verification := usecase.NewVerificationService(userRepo, tokenRepo, nil, notifier, "http://localhost:5173", 0, log)
	registration := usecase.NewRegistrationService(userRepo, verification, nil, nil, log)
	passwords := usecase.NewPasswordService(userRepo, tokenRepo, nil, notifier, nil, "http://localhost:5173", 0, log)
	profiles := usecase.NewProfileService(userRepo, nil, log)

	authHandler := NewAuthHandler(auth, log)
	registrationHandler := NewRegistrationHandler(registration, auth, log)
	passwordHandler := NewPasswordHandler(passwords, log)
	profileHandler := NewProfileHandler(profiles, log)
	verificationHandler := NewVerificationHandler(verification, log)

	router := gin.New()
	api := router.Group("/api")
	api.POST("/register", registrationHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/forgot-password", passwordHandler.Forgot)
	api.POST("/reset-password", passwordHandler.Reset)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(auth))
	protected.GET("/user", authHandler.CurrentUser)
	protected.POST("/logout", authHandler.Logout)
	protected.POST("/confirm-password", authHandler.ConfirmPassword)
	protected.GET("/profile", profileHandler.Show)
	protected.PATCH("/profile", profileHandler.Update)
	protected.DELETE("/profile", profileHandler.Destroy)
	protected.PUT("/password", passwordHandler.Update)
	protected.POST("/email/verification-notification", verificationHandler.SendNotification)
	protected.POST("/verify-email", verificationHandler.Verify)

	return &testEnv{
		users:    userRepo,
		tokens:   tokenRepo,
		notifier: notifier,
		auth:     auth,
		router:   router,
	}
}

func (e *testEnv) request(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// seedUser creates a stored account and returns it with an issued bearer token.
func (e *testEnv) seedUser(t *testing.T, email, password string, verified bool) (domain.User, string) {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           "user-" + email,
		Name:         "Jordan Blake",
		Email:        email,
		PasswordHash: hash,
		PasswordAlgo: "argon2id",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if verified {
		verifiedAt := now
		user.EmailVerifiedAt = &verifiedAt
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	token, err := e.auth.IssueToken(context.Background(), user, "spa", "203.0.113.7", "test-agent")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func decodeValidation(t *testing.T, rr *httptest.ResponseRecorder) ValidationErrorResponse {
	t.Helper()

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp ValidationErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode validation response: %v", err)
	}
	return resp
}

func firstFieldError(t *testing.T, resp ValidationErrorResponse, field string) string {
	t.Helper()

	messages, ok := resp.Errors[field]
	if !ok || len(messages) == 0 {
		t.Fatalf("expected an error for field %q, got %v", field, resp.Errors)
	}
	return messages[0]
}
