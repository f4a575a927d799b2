package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/entity-tree-rag/internal/config"
	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
	"github.com/kirillkom/entity-tree-rag/internal/core/ports"
	"github.com/kirillkom/entity-tree-rag/internal/observability/metrics"
)

const maxRequestBytes = 1 << 20

type Router struct {
	answerer       ports.QuestionAnswerer
	metrics        *metrics.HTTPServerMetrics
	apiKey         string
	requestTimeout time.Duration

	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
}

func NewRouter(cfg config.Config, answerer ports.QuestionAnswerer, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		answerer:         answerer,
		metrics:          httpMetrics,
		apiKey:           strings.TrimSpace(cfg.APIKey),
		requestTimeout:   cfg.APIRequestTimeout,
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: cfg.APIBackpressureWait,
	}
}

func (rt *Router) Handler() http.Handler {
	var ask http.Handler = http.HandlerFunc(rt.ask)
	ask = backpressureMiddleware(ask, rt.maxInFlight, rt.backpressureWait, rt.onReject)
	ask = rateLimitMiddleware(ask, rt.rateLimitRPS, rt.rateLimitBurst, rt.onReject)
	ask = bearerAuthMiddleware(ask, rt.apiKey, rt.onReject)

	mux := http.NewServeMux()
	rt.handle(mux, "/healthz", http.HandlerFunc(rt.healthz))
	rt.handle(mux, "/v1/ask", ask)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	return requestIDMiddleware(accessLogMiddleware(recoverMiddleware(mux)))
}

func (rt *Router) handle(mux *http.ServeMux, pattern string, handler http.Handler) {
	if rt.metrics != nil {
		handler = rt.metrics.Instrument(pattern, handler)
	}
	mux.Handle(pattern, handler)
}

func (rt *Router) onReject(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	ctx := r.Context()
	if rt.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.requestTimeout)
		defer cancel()
	}

	state, err := rt.answerer.Invoke(ctx, req.Question)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	answer := domain.NewAnswer(state)
	if answer.Route != "" {
		w.Header().Set(routeHeader, answer.Route)
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(r.Context().Err(), context.Canceled) {
		slog.Info("ask_cancelled", "request_id", requestIDFromContext(r.Context()))
		return
	}
	status := mapErrorToHTTPStatus(err)

	body := map[string]string{
		"error": err.Error(),
		"kind":  domain.KindOf(err),
	}
	if stage, entity, ok := domain.StageOf(err); ok {
		body["stage"] = stage
		if entity != "" {
			body["entity"] = entity
		}
	}
	if requestID := requestIDFromContext(r.Context()); requestID != "" {
		body["request_id"] = requestID
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
