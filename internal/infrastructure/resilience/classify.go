package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

var (
	// Transient failures are retried and counted by the breaker.
	Transient = ErrorClassification{Retryable: true, RecordFailure: true}
	// Permanent failures are counted by the breaker but never retried.
	Permanent = ErrorClassification{RecordFailure: true}
	// Ignored covers caller mistakes and cancellations.
	Ignored = ErrorClassification{}
)

// ClassifyStatus maps an HTTP status code of a backend response.
func ClassifyStatus(code int) ErrorClassification {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return Transient
	default:
		if code >= 500 {
			return Permanent
		}
		return Ignored
	}
}

// NewClassifier builds an adapter classifier. specific runs after cancellation and open-circuit
// checks and before the generic network error check; ok=false defers to the defaults.
func NewClassifier(specific func(err error) (ErrorClassification, bool)) ErrorClassifier {
	return func(err error) ErrorClassification {
		switch {
		case err == nil:
			return Ignored
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Ignored
		case IsCircuitOpen(err):
			return Transient
		}
		if specific != nil {
			if class, ok := specific(err); ok {
				return class
			}
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return Transient
		}
		return Permanent
	}
}

// MarkTemporary tags err as domain.ErrTemporary when the classifier considers it retryable.
func MarkTemporary(operation string, err error, classifier ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if classifier(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
