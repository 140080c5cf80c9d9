package handlers

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
)

// ValidationErrors accumulates per-field failure messages in declaration order.
type ValidationErrors struct {
	order  []string
	fields map[string][]string
}

// NewValidationErrors constructs an empty accumulator.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

// Add appends a message for the field.
func (v *ValidationErrors) Add(field, message string) {
	if _, seen := v.fields[field]; !seen {
		v.order = append(v.order, field)
	}
	v.fields[field] = append(v.fields[field], message)
}

// Empty reports whether any failure was recorded.
func (v *ValidationErrors) Empty() bool {
	return len(v.fields) == 0
}

// First returns the first recorded message, used as the response summary.
func (v *ValidationErrors) First() string {
	if len(v.order) == 0 {
		return ""
	}
	return v.fields[v.order[0]][0]
}

// Fields returns the field-to-messages map for serialization.
func (v *ValidationErrors) Fields() map[string][]string {
	return v.fields
}

// ValidationErrorResponse is the 422 payload. Clients read the first message
// per field.
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// RespondValidationErrors writes the 422 response for the accumulated failures.
func RespondValidationErrors(c *gin.Context, v *ValidationErrors) {
	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
		Message: v.First(),
		Errors:  v.Fields(),
	})
}

// RespondFieldError writes a 422 response with a single field failure.
func RespondFieldError(c *gin.Context, field, message string) {
	v := NewValidationErrors()
	v.Add(field, message)
	RespondValidationErrors(c, v)
}

func requiredMessage(field string) string {
	return fmt.Sprintf("The %s field is required.", field)
}

func requireField(v *ValidationErrors, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, requiredMessage(field))
		return false
	}
	return true
}

func requireEmail(v *ValidationErrors, field, value string) bool {
	if !requireField(v, field, value) {
		return false
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(value)); err != nil {
		v.Add(field, fmt.Sprintf("The %s field must be a valid email address.", field))
		return false
	}
	return true
}

func requireConfirmed(v *ValidationErrors, field, value, confirmation string) bool {
	if value != confirmation {
		v.Add(field, fmt.Sprintf("The %s field confirmation does not match.", field))
		return false
	}
	return true
}
