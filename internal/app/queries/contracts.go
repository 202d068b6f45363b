package queries

import (
	"context"
	"errors"

	"stayhub/internal/app/bus"
)

// Query is a read request. Query handlers never change state.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound  = errors.New("queries: handler not found")
	ErrDuplicateHandler = errors.New("queries: handler already registered")
	ErrInvalidQuery     = errors.New("queries: invalid query for handler")
	ErrResultType       = errors.New("queries: result type mismatch")
	ErrNilBus           = errors.New("queries: nil bus")
)

// Ask runs query through b and asserts the handler's result type.
func Ask[Q Query, R any](ctx context.Context, b Bus, query Q) (R, error) {
	if b == nil {
		var zero R
		return zero, ErrNilBus
	}
	res, err := b.Ask(ctx, query)
	return bus.Expect[R](res, err, ErrResultType)
}
