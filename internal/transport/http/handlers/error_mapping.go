package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benshawuk/react-api-starter-kit/internal/infra/security"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// FieldErrorCase maps a sentinel error to a 422 field failure.
type FieldErrorCase struct {
	Err     error
	Field   string
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// RespondWithFieldError resolves the error against field cases, then password
// validation failures, then falls back to a generic 500. Returns false when
// the error was nil.
func RespondWithFieldError(c *gin.Context, err error, cases []FieldErrorCase) bool {
	if err == nil {
		return false
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			RespondFieldError(c, cs.Field, cs.Message)
			return true
		}
	}

	var passwordErr *security.PasswordValidationError
	if errors.As(err, &passwordErr) {
		RespondFieldError(c, "password", passwordErr.Message)
		return true
	}

	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "internal server error"))
	return true
}
