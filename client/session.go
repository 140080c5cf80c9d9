package client

import (
	"context"
	"sync"
)

// State is the lifecycle phase of the client session.
type State int

const (
	// StateInitializing covers the window before the first user fetch resolves.
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticated
	StateLoggingOut
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateLoggingOut:
		return "logging_out"
	default:
		return "unknown"
	}
}

// DefaultLandingRoute is where a fresh login lands when no destination was
// remembered.
const DefaultLandingRoute = "/dashboard"

// publicRoutes are reachable without a session. Start skips the user fetch
// on these so public pages never trigger a spurious 401.
var publicRoutes = map[string]struct{}{
	"/":                {},
	"/login":           {},
	"/register":        {},
	"/forgot-password": {},
	"/reset-password":  {},
}

// IsPublicRoute reports whether the path needs no session.
func IsPublicRoute(path string) bool {
	_, ok := publicRoutes[path]
	return ok
}

// Session is the client-side authentication state machine. All transitions
// are serialized by a mutex, standing in for the browser's event queue.
type Session struct {
	mu sync.Mutex

	api   *Client
	store TokenStore

	state       State
	user        *User
	token       string
	intendedURL string
	landing     string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLandingRoute overrides the default post-login destination.
func WithLandingRoute(route string) SessionOption {
	return func(s *Session) {
		if route != "" {
			s.landing = route
		}
	}
}

// NewSession builds a session over the API client and token store.
func NewSession(api *Client, store TokenStore, opts ...SessionOption) *Session {
	if store == nil {
		store = NewMemoryTokenStore()
	}
	s := &Session{
		api:     api,
		store:   store,
		state:   StateInitializing,
		landing: DefaultLandingRoute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the initial state. On a public route the user fetch is
// skipped entirely; otherwise a stored token is validated against the API.
// A failed fetch clears the stored token and leaves the session
// unauthenticated. Start never returns an error for an invalid token, only
// for transport-level trouble reaching the store.
func (s *Session) Start(ctx context.Context, currentRoute string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if IsPublicRoute(currentRoute) {
		s.state = StateUnauthenticated
		return nil
	}

	token, err := s.store.Load()
	if err != nil {
		s.state = StateUnauthenticated
		return err
	}
	if token == "" {
		s.state = StateUnauthenticated
		return nil
	}

	user, err := s.api.CurrentUser(ctx, token)
	if err != nil {
		_ = s.store.Clear()
		s.state = StateUnauthenticated
		return nil
	}

	s.token = token
	s.user = user
	s.state = StateAuthenticated
	return nil
}

// Login authenticates and returns the route to navigate to: the remembered
// intended URL if one exists (consumed exactly once), otherwise the landing
// route.
func (s *Session) Login(ctx context.Context, email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.api.Login(ctx, LoginInput{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	return s.establish(session), nil
}

// Register creates an account and authenticates in the same step.
func (s *Session) Register(ctx context.Context, input RegisterInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.api.Register(ctx, input)
	if err != nil {
		return "", err
	}
	return s.establish(session), nil
}

// establish commits a fresh authenticated session. Callers hold the mutex.
func (s *Session) establish(session *AuthSession) string {
	s.token = session.Token
	user := session.User
	s.user = &user
	s.state = StateAuthenticated
	_ = s.store.Save(session.Token)

	destination := s.landing
	if s.intendedURL != "" {
		destination = s.intendedURL
		s.intendedURL = ""
	}
	return destination
}

// Logout clears local state first and revokes the token best-effort. The
// session always ends unauthenticated, even when the server call fails; the
// revoke error is returned for observability only.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoggingOut
	token := s.token
	s.token = ""
	s.user = nil
	s.intendedURL = ""
	_ = s.store.Clear()
	s.mu.Unlock()

	var err error
	if token != "" {
		err = s.api.Logout(ctx, token)
	}

	s.mu.Lock()
	s.state = StateUnauthenticated
	s.mu.Unlock()
	return err
}

// Refresh re-fetches the current user, demoting to unauthenticated when the
// token has been revoked elsewhere.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return &AuthenticationError{}
	}

	user, err := s.api.CurrentUser(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if _, ok := err.(*AuthenticationError); ok {
			s.token = ""
			s.user = nil
			s.state = StateUnauthenticated
			_ = s.store.Clear()
		}
		return err
	}
	s.user = user
	return nil
}

// SetUser replaces the cached user after a profile mutation.
func (s *Session) SetUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticated {
		copy := user
		s.user = &copy
	}
}

// RememberIntendedURL records where a guard redirect came from so login can
// return there.
func (s *Session) RememberIntendedURL(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intendedURL = path
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns a copy of the cached user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	copy := *s.user
	return &copy
}

// Token returns the active bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether a user is established.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// snapshot captures the guard-relevant view of the session.
func (s *Session) snapshot() sessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sessionView{
		loading:       s.state == StateInitializing,
		authenticated: s.state == StateAuthenticated,
		loggingOut:    s.state == StateLoggingOut,
		landing:       s.landing,
	}
}

type sessionView struct {
	loading       bool
	authenticated bool
	loggingOut    bool
	landing       string
}
