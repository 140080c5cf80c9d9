package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/transport/http/middleware"
	"github.com/benshawuk/react-api-starter-kit/internal/usecase"
)

const resetTokenMessage = "This password reset token is invalid."

// PasswordHandler exposes the forgot, reset, and authenticated change flows.
type PasswordHandler struct {
	passwords *usecase.PasswordService
	logger    *zap.Logger
}

// NewPasswordHandler constructs a PasswordHandler.
func NewPasswordHandler(passwords *usecase.PasswordService, log *zap.Logger) *PasswordHandler {
	return &PasswordHandler{passwords: passwords, logger: log}
}

// Forgot handles POST /api/forgot-password. The response is identical whether
// or not the email belongs to an account.
func (h *PasswordHandler) Forgot(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFieldError(c, "email", requiredMessage("email"))
		return
	}

	v := NewValidationErrors()
	requireEmail(v, "email", req.Email)
	if !v.Empty() {
		RespondValidationErrors(c, v)
		return
	}

	status, err := h.passwords.RequestReset(c.Request.Context(), req.Email, c.ClientIP())
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Message: "We have emailed your password reset link.",
		Status:  status,
	})
}

// Reset handles POST /api/reset-password.
func (h *PasswordHandler) Reset(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFieldError(c, "token", requiredMessage("token"))
		return
	}

	v := NewValidationErrors()
	requireField(v, "token", req.Token)
	requireEmail(v, "email", req.Email)
	if requireField(v, "password", req.Password) {
		requireConfirmed(v, "password", req.Password, req.PasswordConfirmation)
	}
	if !v.Empty() {
		RespondValidationErrors(c, v)
		return
	}

	status, err := h.passwords.ResetPassword(c.Request.Context(), usecase.ResetInput{
		Token:    req.Token,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// Expired and unknown tokens share one message so the response does
		// not confirm whether a reset was ever requested for the email.
		if handled := RespondWithFieldError(c, err, []FieldErrorCase{
			{Err: usecase.ErrResetTokenInvalid, Field: "email", Message: resetTokenMessage},
			{Err: usecase.ErrResetTokenExpired, Field: "email", Message: resetTokenMessage},
		}); handled {
			return
		}
	}

	c.JSON(http.StatusOK, StatusResponse{
		Message: "Your password has been reset.",
		Status:  status,
	})
}

// Update handles PUT /api/password for an authenticated session.
func (h *PasswordHandler) Update(c *gin.Context) {
	user, ok := middleware.GetAuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFieldError(c, "current_password", requiredMessage("current password"))
		return
	}

	v := NewValidationErrors()
	requireField(v, "current_password", req.CurrentPassword)
	if requireField(v, "password", req.Password) {
		requireConfirmed(v, "password", req.Password, req.PasswordConfirmation)
	}
	if !v.Empty() {
		RespondValidationErrors(c, v)
		return
	}

	currentTokenID := ""
	if token, ok := middleware.GetAuthenticatedToken(c); ok {
		currentTokenID = token.ID
	}

	revoked, err := h.passwords.ChangePassword(c.Request.Context(), usecase.ChangeInput{
		UserID:         user.ID,
		CurrentTokenID: currentTokenID,
		Current:        req.CurrentPassword,
		New:            req.Password,
	})
	if err != nil {
		if handled := RespondWithFieldError(c, err, []FieldErrorCase{
			{Err: usecase.ErrCurrentPasswordIncorrect, Field: "current_password", Message: "The password is incorrect."},
		}); handled {
			return
		}
	}

	h.logger.Info("password changed",
		zap.String("user_id", user.ID),
		zap.Int("sessions_revoked", revoked))

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated successfully."})
}
