package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/entity-tree-rag/internal/core/domain"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string { return fmt.Sprintf("status %d", e.code) }

func TestClassifyStatus(t *testing.T) {
	cases := map[int]ErrorClassification{
		http.StatusTooManyRequests:     Transient,
		http.StatusServiceUnavailable:  Transient,
		http.StatusNotImplemented:      Permanent,
		http.StatusBadRequest:          Ignored,
		http.StatusNotFound:            Ignored,
		http.StatusInternalServerError: Transient,
	}
	for code, want := range cases {
		if got := ClassifyStatus(code); got != want {
			t.Fatalf("status %d: expected %+v, got %+v", code, want, got)
		}
	}
}

func TestNewClassifierOrder(t *testing.T) {
	classify := NewClassifier(func(err error) (ErrorClassification, bool) {
		var se *statusErr
		if errors.As(err, &se) {
			return ClassifyStatus(se.code), true
		}
		return ErrorClassification{}, false
	})

	if got := classify(context.DeadlineExceeded); got != Ignored {
		t.Fatalf("deadline must be ignored, got %+v", got)
	}
	if got := classify(fmt.Errorf("op: %w", gobreaker.ErrOpenState)); got != Transient {
		t.Fatalf("open circuit must be transient, got %+v", got)
	}
	if got := classify(&statusErr{code: http.StatusBadRequest}); got != Ignored {
		t.Fatalf("400 must be ignored, got %+v", got)
	}
	if got := classify(&net.OpError{Op: "dial", Err: errors.New("refused")}); got != Transient {
		t.Fatalf("network error must be transient, got %+v", got)
	}
	if got := classify(errors.New("decode")); got != Permanent {
		t.Fatalf("unknown error must be permanent, got %+v", got)
	}
}

func TestMarkTemporary(t *testing.T) {
	classify := NewClassifier(nil)

	err := MarkTemporary("es.search", &net.OpError{Op: "dial", Err: errors.New("refused")}, classify)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary, got %v", err)
	}
	if err := MarkTemporary("es.search", errors.New("decode"), classify); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("permanent error must stay untagged, got %v", err)
	}
	if MarkTemporary("es.search", nil, classify) != nil {
		t.Fatalf("nil must stay nil")
	}
}
