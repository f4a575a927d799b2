package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrRoutingAmbiguous):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrModelCall), domain.IsKind(err, domain.ErrStoreQuery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
