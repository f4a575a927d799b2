package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
	ErrRoutingAmbiguous = errors.New("routing ambiguous")
	ErrModelCall        = errors.New("model call failure")
	ErrStoreQuery       = errors.New("store query failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// StageError attributes a pipeline failure to the stage (and entity, if any) that produced it.
type StageError struct {
	Stage  string
	Entity string
	Err    error
}

func NewStageError(stage, entity string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Entity: entity, Err: err}
}

func (e *StageError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %s (entity %q): %v", e.Stage, e.Entity, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the innermost stage name recorded on err, if any.
func StageOf(err error) (string, string, bool) {
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		return "", "", false
	}
	return stageErr.Stage, stageErr.Entity, true
}

// KindOf names the semantic kind of err for wire replies and metrics labels.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTemporary):
		return "temporary"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrRoutingAmbiguous):
		return "routing_ambiguous"
	case errors.Is(err, ErrModelCall):
		return "model_call"
	case errors.Is(err, ErrStoreQuery):
		return "store_query"
	default:
		return "internal"
	}
}
