package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/resilience"
)

// ErrNoResponders means no worker is subscribed to the question subject.
var ErrNoResponders = errors.New("no workers are answering questions")

var classifyNATSError = resilience.NewClassifier(func(err error) (resilience.ErrorClassification, bool) {
	switch {
	case errors.Is(err, nats.ErrNoServers),
		errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrDisconnected),
		errors.Is(err, nats.ErrNoResponders),
		errors.Is(err, ErrNoResponders):
		return resilience.Transient, true
	case errors.Is(err, nats.ErrBadSubject), errors.Is(err, nats.ErrMaxPayload):
		return resilience.Ignored, true
	default:
		return resilience.ErrorClassification{}, false
	}
})

func wrapTemporaryIfNeeded(operation string, err error) error {
	return resilience.MarkTemporary(operation, err, classifyNATSError)
}
