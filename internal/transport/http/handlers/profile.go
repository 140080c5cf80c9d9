package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/benshawuk/react-api-starter-kit/internal/transport/http/middleware"
	"github.com/benshawuk/react-api-starter-kit/internal/usecase"
)

// ProfileHandler exposes read, update, and delete for the authenticated account.
type ProfileHandler struct {
	profiles *usecase.ProfileService
	logger   *zap.Logger
}

// NewProfileHandler constructs a ProfileHandler.
func NewProfileHandler(profiles *usecase.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: log}
}

// Show handles GET /api/profile.
func (h *ProfileHandler) Show(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		// The account can vanish between token validation and the read.
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "Unauthenticated."},
		}, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		User:            NewUserResource(profile.User),
		MustVerifyEmail: profile.MustVerifyEmail,
	})
}

// Update handles PATCH /api/profile. Changing the email clears verification,
// the response carries the fresh resource so the client can resync.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFieldError(c, "name", requiredMessage("name"))
		return
	}

	v := NewValidationErrors()
	requireField(v, "name", req.Name)
	requireEmail(v, "email", req.Email)
	if !v.Empty() {
		RespondValidationErrors(c, v)
		return
	}

	user, err := h.profiles.Update(c.Request.Context(), usecase.UpdateInput{
		UserID: userID,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		if handled := RespondWithFieldError(c, err, []FieldErrorCase{
			{Err: usecase.ErrEmailTaken, Field: "email", Message: emailTakenMessage},
		}); handled {
			return
		}
	}

	c.JSON(http.StatusOK, UpdatedProfileResponse{
		Message: "Profile updated successfully.",
		User:    NewUserResource(user),
	})
}

// Destroy handles DELETE /api/profile. The current password re-confirms
// intent before the account and every credential tied to it are removed.
func (h *ProfileHandler) Destroy(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}

	var req DeleteProfileRequest
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

	if err := h.profiles.Delete(c.Request.Context(), userID, req.Password); err != nil {
		if handled := RespondWithFieldError(c, err, []FieldErrorCase{
			{Err: usecase.ErrCurrentPasswordIncorrect, Field: "password", Message: "The password is incorrect."},
		}); handled {
			return
		}
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully."})
}
