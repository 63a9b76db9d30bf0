package services

import (
	"errors"
	"strconv"

	"salesdesk/internal/domain"
)

var (
	ErrBadCreds         = errors.New("invalid email or password")
	ErrAccountDisabled  = errors.New("account disabled")
	ErrIPBlocked        = errors.New("access from this address is blocked")
	ErrTooManyAttempts  = errors.New("too many failed attempts, try again later")
	ErrSessionNotActive = errors.New("session expired or unknown")
)

// ErrorKind is the short label used for failure metrics and logs.
func ErrorKind(err error) string {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		is *domain.InsufficientStockError
		ce *domain.ConflictError
		co *domain.CompensationError
		fe *domain.ForbiddenError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &is):
		return "insufficient_stock"
	case errors.As(err, &ce):
		return "conflict"
	case errors.As(err, &co):
		return "compensation"
	case errors.As(err, &fe):
		return "forbidden"
	default:
		return "internal"
	}
}

// fieldAt names a field of a list element, e.g. items[2].quantity.
func fieldAt(list string, i int, field string) string {
	return list + "[" + strconv.Itoa(i) + "]." + field
}
