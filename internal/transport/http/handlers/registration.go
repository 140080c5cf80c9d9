package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/infra/logger"
	"github.com/benshawuk/react-api-starter-kit/internal/usecase"
)

const emailTakenMessage = "The email has already been taken."

// RegistrationHandler exposes the account creation endpoint.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
	auth         *usecase.AuthService
	logger       *zap.Logger
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(registration *usecase.RegistrationService, auth *usecase.AuthService, log *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{registration: registration, auth: auth, logger: log}
}

// Register handles POST /api/register. A successful registration immediately
// issues a bearer token so the client lands authenticated.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFieldError(c, "name", requiredMessage("name"))
		return
	}

	v := NewValidationErrors()
	requireField(v, "name", req.Name)
	requireEmail(v, "email", req.Email)
	if requireField(v, "password", req.Password) {
		requireConfirmed(v, "password", req.Password, req.PasswordConfirmation)
	}
	if !v.Empty() {
		RespondValidationErrors(c, v)
		return
	}

	user, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// A unique violation can still race past the pre-check, it maps to
		// the same field error as the ErrEmailTaken fast path.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			RespondFieldError(c, "email", emailTakenMessage)
			return
		}
		if handled := RespondWithFieldError(c, err, []FieldErrorCase{
			{Err: usecase.ErrEmailTaken, Field: "email", Message: emailTakenMessage},
		}); handled {
			return
		}
	}

	token, err := h.auth.IssueToken(c.Request.Context(), user, "spa", c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.logger.Error("token issuance after registration failed",
			zap.String("user_id", user.ID),
			zap.String("email", logger.MaskEmail(user.Email)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "internal server error"))
		return
	}

	c.JSON(http.StatusCreated, AuthSessionResponse{
		Message: "Registered successfully.",
		User:    NewUserResource(user),
		Token:   token,
	})
}
