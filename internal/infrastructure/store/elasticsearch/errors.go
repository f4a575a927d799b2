package elasticsearch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/resilience"
)

type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("elasticsearch %s status: %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("elasticsearch %s status: %d: %s", e.Operation, e.StatusCode, e.Body)
}

// A 500 from elasticsearch is usually a query or mapping failure that repeats on retry.
var classifyError = resilience.NewClassifier(func(err error) (resilience.ErrorClassification, bool) {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return resilience.ErrorClassification{}, false
	}
	if statusErr.StatusCode == http.StatusInternalServerError {
		return resilience.Permanent, true
	}
	return resilience.ClassifyStatus(statusErr.StatusCode), true
})

func wrapTemporaryIfNeeded(operation string, err error) error {
	return resilience.MarkTemporary(operation, err, classifyError)
}
