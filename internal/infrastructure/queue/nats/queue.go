package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/resilience"
)

const defaultQueueGroup = "entity-tree-workers"

type Queue struct {
	conn     *nats.Conn
	subject  string
	group    string
	executor *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	group := strings.TrimSpace(options.QueueGroup)
	if group == "" {
		group = defaultQueueGroup
	}

	conn, err := nats.Connect(
		url,
		nats.Name("entity-tree-rag"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		group:    group,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Ask sends a question to the worker pool and waits for its reply until ctx expires.
func (q *Queue) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	payload, err := json.Marshal(AskRequest{RequestID: uuid.NewString(), Question: question})
	if err != nil {
		return nil, fmt.Errorf("marshal ask request: %w", err)
	}

	msg, err := resilience.ExecuteValue(ctx, q.executor, "nats.request", func(callCtx context.Context) (*nats.Msg, error) {
		reply, err := q.conn.RequestWithContext(callCtx, q.subject, payload)
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("nats request %s: %w", q.subject, ErrNoResponders)
		}
		if err != nil {
			return nil, fmt.Errorf("nats request: %w", err)
		}
		return reply, nil
	}, classifyNATSError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("nats request", err)
	}

	var reply AskReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("decode ask reply: %w", err)
	}
	if reply.Error != "" {
		return nil, &RemoteError{RequestID: reply.RequestID, Kind: reply.Kind, Message: reply.Error}
	}
	return &domain.Answer{Output: reply.Output, Route: reply.Route, PDFPages: reply.PDFPages}, nil
}

// ServeQuestions answers request/reply messages until ctx is cancelled, then drains.
func (q *Queue) ServeQuestions(ctx context.Context, responder *Responder) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.group, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		reply := responder.Handle(ctx, msg.Data)
		if msg.Reply == "" {
			slog.Warn("nats_message_without_reply", "subject", msg.Subject)
			return
		}
		if err := msg.Respond(reply); err != nil {
			slog.Error("nats_respond_failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
