package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/transport/http/middleware"
	"github.com/benshawuk/react-api-starter-kit/internal/usecase"
)

const verifyTokenMessage = "This verification link is invalid."

// VerificationHandler exposes email verification send and confirm endpoints.
type VerificationHandler struct {
	verification *usecase.VerificationService
	logger       *zap.Logger
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(verification *usecase.VerificationService, log *zap.Logger) *VerificationHandler {
	return &VerificationHandler{verification: verification, logger: log}
}

// SendNotification handles POST /api/email/verification-notification.
// Resending supersedes any earlier link for the account.
func (h *VerificationHandler) SendNotification(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	status, err := h.verification.Send(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "Unauthenticated."},
		}, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Message: "Verification link sent.",
		Status:  status,
	})
}

// Verify handles POST /api/verify-email.
func (h *VerificationHandler) Verify(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFieldError(c, "token", requiredMessage("token"))
		return
	}

	v := NewValidationErrors()
	requireField(v, "token", req.Token)
	if !v.Empty() {
		RespondValidationErrors(c, v)
		return
	}

	user, err := h.verification.Confirm(c.Request.Context(), userID, req.Token)
	if err != nil {
		if handled := RespondWithFieldError(c, err, []FieldErrorCase{
			{Err: usecase.ErrVerificationTokenInvalid, Field: "token", Message: verifyTokenMessage},
			{Err: usecase.ErrVerificationTokenExpired, Field: "token", Message: "This verification link has expired."},
		}); handled {
			return
		}
	}

	c.JSON(http.StatusOK, UpdatedProfileResponse{
		Message: "Email verified successfully.",
		User:    NewUserResource(user),
	})
}
