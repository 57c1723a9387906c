package domain

import (
	"errors"
	"fmt"
)

// Pricing and coupon error kinds. Callers match them with errors.Is.
var (
	ErrUnsupportedCurrency     = errors.New("unsupported currency")
	ErrInvalidPricingRule      = errors.New("invalid pricing rule")
	ErrIncompatibleCurrency    = errors.New("incompatible currency")
	ErrCouponNotFound          = errors.New("coupon not found")
	ErrCouponExpiredOrInactive = errors.New("coupon expired or inactive")
	ErrMixedCurrencyCart       = errors.New("mixed currency cart")
)

// Service-level error kinds.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state transition")
	ErrValidation   = errors.New("validation failed")
)

// DomainError carries a machine-readable code and a human message on top of
// one of the sentinel errors above.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

func newError(code string, sentinel error, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...), Err: sentinel}
}

// NewUnsupportedCurrencyError reports a currency with no gateway binding.
func NewUnsupportedCurrencyError(currency string) *DomainError {
	return newError("UNSUPPORTED_CURRENCY", ErrUnsupportedCurrency, "no gateway bound to %q", currency)
}

// NewInvalidPricingRuleError reports a misconfigured region pricing rule.
func NewInvalidPricingRuleError(format string, args ...any) *DomainError {
	return newError("INVALID_PRICING_RULE", ErrInvalidPricingRule, format, args...)
}

// NewIncompatibleCurrencyError reports two amounts that cannot be combined.
func NewIncompatibleCurrencyError(want, got string) *DomainError {
	return newError("INCOMPATIBLE_CURRENCY", ErrIncompatibleCurrency, "expected %s, got %s", want, got)
}

// NewCouponNotFoundError reports an unknown coupon code.
func NewCouponNotFoundError(code string) *DomainError {
	return newError("COUPON_NOT_FOUND", ErrCouponNotFound, "code %q", code)
}

// NewCouponExpiredOrInactiveError reports a coupon that cannot be used right now.
func NewCouponExpiredOrInactiveError(code string) *DomainError {
	return newError("COUPON_EXPIRED_OR_INACTIVE", ErrCouponExpiredOrInactive, "code %q is not currently valid for this cart", code)
}

// NewMixedCurrencyCartError reports a cart whose lines are priced in different currencies.
func NewMixedCurrencyCartError(first, other string) *DomainError {
	return newError("MIXED_CURRENCY_CART", ErrMixedCurrencyCart, "cart holds %s and %s", first, other)
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return newError("NOT_FOUND", ErrNotFound, "%s %s", entity, id)
}

// NewConflictError reports a concurrent modification.
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: "CONFLICT", Message: message, Err: ErrConflict}
}

// NewInvalidStateError reports an illegal state transition.
func NewInvalidStateError(from, to string) *DomainError {
	return newError("INVALID_STATE", ErrInvalidState, "cannot transition from %s to %s", from, to)
}

// NewValidationError reports malformed input.
func NewValidationError(format string, args ...any) *DomainError {
	return newError("VALIDATION_FAILED", ErrValidation, format, args...)
}
