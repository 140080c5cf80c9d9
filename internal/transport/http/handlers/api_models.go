package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/benshawuk/react-api-starter-kit/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Message: message,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusResponse carries a machine-readable status next to the message.
type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// UserResource is the public projection of a user record.
type UserResource struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewUserResource projects a domain user, stripping credential material.
func NewUserResource(user domain.User) UserResource {
	return UserResource{
		ID:              user.ID,
		Name:            user.Name,
		Email:           user.Email,
		EmailVerifiedAt: user.EmailVerifiedAt,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// AuthSessionResponse is returned by login and register with the one-time plaintext token.
type AuthSessionResponse struct {
	Message string       `json:"message"`
	User    UserResource `json:"user"`
	Token   string       `json:"token"`
}

// ProfileResponse pairs the user with the verification obligation flag.
type ProfileResponse struct {
	User            UserResource `json:"user"`
	MustVerifyEmail bool         `json:"mustVerifyEmail"`
}

// UpdatedProfileResponse is returned after a successful profile mutation.
type UpdatedProfileResponse struct {
	Message string       `json:"message"`
	User    UserResource `json:"user"`
}

// RegisterRequest defines the payload for account creation.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest defines the payload for reset link requests.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest defines the payload for completing a reset.
type ResetPasswordRequest struct {
	Token                string `json:"token"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ConfirmPasswordRequest defines the payload for password re-confirmation.
type ConfirmPasswordRequest struct {
	Password string `json:"password"`
}

// UpdateProfileRequest defines the payload for profile mutation.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DeleteProfileRequest defines the payload for account deletion.
type DeleteProfileRequest struct {
	Password string `json:"password"`
}

// UpdatePasswordRequest defines the payload for authenticated password change.
type UpdatePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// VerifyEmailRequest defines the payload for email verification confirmation.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
