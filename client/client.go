package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// User is the account resource as the API returns it.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AuthSession is the payload of a successful login or registration.
type AuthSession struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

// Profile is the authenticated account view.
type Profile struct {
	User            User `json:"user"`
	MustVerifyEmail bool `json:"mustVerifyEmail"`
}

// StatusResult is a message plus a machine-readable status keyword.
type StatusResult struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// UpdatedProfile is the payload of a profile mutation.
type UpdatedProfile struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordInput is the reset form reached from the emailed link.
type ResetPasswordInput struct {
	Token                string `json:"token"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UpdateProfileInput is the profile settings form.
type UpdateProfileInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdatePasswordInput is the authenticated password change form.
type UpdatePasswordInput struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Client is a typed HTTP client for the account API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a Client for the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account and returns the issued session.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*AuthSession, error) {
	var out AuthSession
	if err := c.do(ctx, http.MethodPost, "/api/register", "", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, input LoginInput) (*AuthSession, error) {
	var out AuthSession
	if err := c.do(ctx, http.MethodPost, "/api/login", "", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the presented token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/logout", token, nil, nil)
}

// CurrentUser fetches the account behind the token.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/api/user", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword requests a reset link. The response never reveals whether
// the email belongs to an account.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*StatusResult, error) {
	var out StatusResult
	body := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, "/api/forgot-password", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword completes a reset using the emailed token.
func (c *Client) ResetPassword(ctx context.Context, input ResetPasswordInput) (*StatusResult, error) {
	var out StatusResult
	if err := c.do(ctx, http.MethodPost, "/api/reset-password", "", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmPassword re-checks the current password before a sensitive action.
func (c *Client) ConfirmPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"password": password}
	return c.do(ctx, http.MethodPost, "/api/confirm-password", token, body, nil)
}

// Profile fetches the account settings view.
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes name and email.
func (c *Client) UpdateProfile(ctx context.Context, token string, input UpdateProfileInput) (*UpdatedProfile, error) {
	var out UpdatedProfile
	if err := c.do(ctx, http.MethodPatch, "/api/profile", token, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount removes the account after a password re-check.
func (c *Client) DeleteAccount(ctx context.Context, token, password string) error {
	body := map[string]string{"password": password}
	return c.do(ctx, http.MethodDelete, "/api/profile", token, body, nil)
}

// UpdatePassword changes the password for an authenticated session.
func (c *Client) UpdatePassword(ctx context.Context, token string, input UpdatePasswordInput) error {
	return c.do(ctx, http.MethodPut, "/api/password", token, input, nil)
}

// SendVerificationEmail requests a fresh verification link.
func (c *Client) SendVerificationEmail(ctx context.Context, token string) (*StatusResult, error) {
	var out StatusResult
	if err := c.do(ctx, http.MethodPost, "/api/email/verification-notification", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail confirms the address with the emailed token.
func (c *Client) VerifyEmail(ctx context.Context, token, verificationToken string) (*UpdatedProfile, error) {
	var out UpdatedProfile
	body := map[string]string{"token": verificationToken}
	if err := c.do(ctx, http.MethodPost, "/api/verify-email", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	var parsed errorBody
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &AuthenticationError{Message: parsed.Message}
	case http.StatusUnprocessableEntity:
		fields := make(map[string]string, len(parsed.Errors))
		for field, messages := range parsed.Errors {
			if len(messages) > 0 {
				fields[field] = messages[0]
			}
		}
		return &ValidationError{Message: parsed.Message, Fields: fields}
	case 419:
		return &SessionMismatchError{Message: parsed.Message}
	default:
		return &APIError{StatusCode: resp.StatusCode, Message: parsed.Message}
	}
}
