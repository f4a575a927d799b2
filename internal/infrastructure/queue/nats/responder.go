package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
)

type ResponderObserver interface {
	StartRequest()
	FinishRequest(kind string, duration time.Duration)
}

// Responder turns a request payload into a reply payload; it never fails.
type Responder struct {
	answerer ports.QuestionAnswerer
	timeout  time.Duration
	observer ResponderObserver
}

func NewResponder(answerer ports.QuestionAnswerer, timeout time.Duration, observer ResponderObserver) *Responder {
	return &Responder{answerer: answerer, timeout: timeout, observer: observer}
}

func (r *Responder) Handle(ctx context.Context, data []byte) []byte {
	startedAt := time.Now()
	if r.observer != nil {
		r.observer.StartRequest()
	}

	reply := r.answer(ctx, data)

	if r.observer != nil {
		r.observer.FinishRequest(reply.Kind, time.Since(startedAt))
	}
	body, err := json.Marshal(reply)
	if err != nil {
		slog.Error("nats_reply_marshal_failed", "request_id", reply.RequestID, "error", err)
		return []byte(`{"error":"internal error","kind":"internal"}`)
	}
	return body
}

func (r *Responder) answer(ctx context.Context, data []byte) AskReply {
	var request AskRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return AskReply{Error: "malformed request", Kind: domain.KindOf(domain.ErrInvalidInput)}
	}
	if strings.TrimSpace(request.Question) == "" {
		return AskReply{RequestID: request.RequestID, Error: "question is required", Kind: domain.KindOf(domain.ErrInvalidInput)}
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	state, err := r.answerer.Invoke(callCtx, request.Question)
	if err != nil {
		slog.Warn("worker_question_failed", "request_id", request.RequestID, "error", err)
		return AskReply{RequestID: request.RequestID, Error: err.Error(), Kind: domain.KindOf(err)}
	}

	answer := domain.NewAnswer(state)
	slog.Info("worker_question_answered", "request_id", request.RequestID, "route", answer.Route)
	return AskReply{
		RequestID: request.RequestID,
		Output:    answer.Output,
		Route:     answer.Route,
		PDFPages:  answer.PDFPages,
	}
}
