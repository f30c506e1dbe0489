package response

import (
	"errors"
	"net/http"
	"techlog/entity"
)

// CodeFor maps the coordinator error taxonomy to HTTP status codes.
// ErrIdentityOrphaned is deliberately absent: partial success is not an
// error status, handlers render it with Warn and 207.
func CodeFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrDuplicateInvite):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, entity.ErrSelfModification):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrIllegalTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrEraseFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
