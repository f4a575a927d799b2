package ollama

import (
	"errors"
	"fmt"

	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, e.Body)
}

var classifyOllamaError = resilience.NewClassifier(func(err error) (resilience.ErrorClassification, bool) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ClassifyStatus(statusErr.StatusCode), true
	}
	return resilience.ErrorClassification{}, false
})
