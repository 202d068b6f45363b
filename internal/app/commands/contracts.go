package commands

import (
	"context"
	"errors"

	"stayhub/internal/app/bus"
)

// Command is a state-changing request routed through the bus by Key.
type Command interface {
	Key() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

type Bus interface {
	Dispatch(ctx context.Context, cmd Command) (any, error)
}

var (
	ErrHandlerNotFound  = errors.New("commands: handler not found")
	ErrDuplicateHandler = errors.New("commands: handler already registered")
	ErrInvalidCommand   = errors.New("commands: invalid command for handler")
	ErrResultType       = errors.New("commands: result type mismatch")
	ErrNilBus           = errors.New("commands: nil bus")
)

// Dispatch sends cmd through b and asserts the handler's result type.
func Dispatch[C Command, R any](ctx context.Context, b Bus, cmd C) (R, error) {
	if b == nil {
		var zero R
		return zero, ErrNilBus
	}
	res, err := b.Dispatch(ctx, cmd)
	return bus.Expect[R](res, err, ErrResultType)
}
