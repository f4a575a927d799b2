package nats

import (
	"fmt"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

type AskRequest struct {
	RequestID string `json:"request_id,omitempty"`
	Question  string `json:"question"`
}

type AskReply struct {
	RequestID string                  `json:"request_id,omitempty"`
	Output    string                  `json:"output,omitempty"`
	Route     string                  `json:"route,omitempty"`
	PDFPages  *[]domain.PageReference `json:"pdf_pages,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Kind      string                  `json:"kind,omitempty"`
}

// RemoteError is a failure reported by the worker that answered the request.
type RemoteError struct {
	RequestID string
	Kind      string
	Message   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("worker error (%s): %s", e.Kind, e.Message)
}
