package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oponmeta/service-checkout/internal/domain"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success writes a 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// BadRequest writes a 400 with a validation message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Error: &ErrorBody{Code: "BAD_REQUEST", Message: message}})
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{Error: &ErrorBody{Code: "UNAUTHORIZED", Message: message}})
}

// Error maps a domain error to its HTTP status. Unknown errors become 500
// without leaking their text.
func Error(c *gin.Context, err error) {
	status := StatusFor(err)
	body := &ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"}

	var de *domain.DomainError
	if errors.As(err, &de) {
		body = &ErrorBody{Code: de.Code, Message: de.Error()}
	}
	_ = c.Error(err)
	c.JSON(status, Envelope{Error: body})
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrCouponNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCouponExpiredOrInactive),
		errors.Is(err, domain.ErrIncompatibleCurrency),
		errors.Is(err, domain.ErrMixedCurrencyCart),
		errors.Is(err, domain.ErrUnsupportedCurrency):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
