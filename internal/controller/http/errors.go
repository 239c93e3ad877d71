package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/publication/entity"
	"github.com/vadim/neo-studio/internal/domain/resource"
	"github.com/vadim/neo-studio/internal/httpx/response"
	"github.com/vadim/neo-studio/internal/httpx/upstream/backend"
	"github.com/vadim/neo-studio/internal/validation"
)

var badRequestErrors = []error{
	entity.ErrScheduledTimeInPast,
	entity.ErrInvalidStatus,
	entity.ErrInvalidMode,
	common.ErrInvalidJSON,
}

var conflictErrors = []error{
	entity.ErrActionNotAllowed,
	entity.ErrDeletionNotConfirmed,
	entity.ErrStaleEdit,
}

var notFoundErrors = []error{
	entity.ErrPublicationNotFound,
	resource.ErrUnknownResource,
}

func handleDomainError(w http.ResponseWriter, err error) {
	var ve *validation.Error
	if errors.As(err, &ve) {
		response.ValidationError(w, ve.Error(), ve.Fields)
		return
	}

	switch {
	case isAny(err, badRequestErrors):
		response.BadRequest(w, err.Error())
	case isAny(err, conflictErrors):
		response.Conflict(w, err.Error())
	case isAny(err, notFoundErrors):
		response.NotFound(w, err.Error())
	case errors.Is(err, backend.ErrSessionExpired):
		response.Unauthorized(w, backend.ErrSessionExpired.Error())
	default:
		if apiErr, ok := backend.AsAPIError(err); ok {
			response.Error(w, apiErr.Status, apiErr.Message)
			return
		}
		slog.Error("unhandled error", "error", err)
		response.InternalError(w, "internal server error")
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
