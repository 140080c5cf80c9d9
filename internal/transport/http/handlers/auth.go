package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/transport/http/middleware"
	"github.com/benshawuk/react-api-starter-kit/internal/usecase"
)

const credentialsMessage = "These credentials do not match our records."

// AuthHandler exposes login, logout, current-user, and confirm-password endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	logger *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFieldError(c, "email", requiredMessage("email"))
		return
	}

	v := NewValidationErrors()
	requireEmail(v, "email", req.Email)
	requireField(v, "password", req.Password)
	if !v.Empty() {
		RespondValidationErrors(c, v)
		return
	}

	rawToken, user, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		TokenName: "spa",
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		// Failed logins always attach to the email field, never password,
		// so the response does not reveal which part was wrong.
		if handled := RespondWithFieldError(c, err, []FieldErrorCase{
			{Err: usecase.ErrInvalidCredentials, Field: "email", Message: credentialsMessage},
		}); handled {
			return
		}
	}

	c.JSON(http.StatusOK, AuthSessionResponse{
		Message: "Logged in successfully.",
		User:    NewUserResource(user),
		Token:   rawToken,
	})
}

// Logout handles POST /api/logout. Revoking an already revoked token still
// succeeds so the client can always converge to the logged-out state.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenID := ""
	if token, ok := middleware.GetAuthenticatedToken(c); ok {
		tokenID = token.ID
	}

	if err := h.auth.Logout(c.Request.Context(), tokenID); err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully."})
}

// CurrentUser handles GET /api/user.
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	user, ok := middleware.GetAuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	c.JSON(http.StatusOK, NewUserResource(*user))
}

// ConfirmPassword handles POST /api/confirm-password with an exact-case check.
func (h *AuthHandler) ConfirmPassword(c *gin.Context) {
	user, ok := middleware.GetAuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	var req ConfirmPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFieldError(c, "password", requiredMessage("password"))
		return
	}

	v := NewValidationErrors()
	requireField(v, "password", req.Password)
	if !v.Empty() {
		RespondValidationErrors(c, v)
		return
	}

	if err := h.auth.ConfirmPassword(c.Request.Context(), user.ID, req.Password); err != nil {
		if handled := RespondWithFieldError(c, err, []FieldErrorCase{
			{Err: usecase.ErrPasswordIncorrect, Field: "password", Message: "The password is incorrect."},
		}); handled {
			return
		}
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password confirmed."})
}
