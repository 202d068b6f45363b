package commands

import (
	"context"

	"stayhub/internal/app/bus"
)

// InMemoryBus routes commands to handlers registered at wiring time.
type InMemoryBus struct {
	table *bus.Table
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{table: bus.NewTable(bus.Errors{
		NotFound:  ErrHandlerNotFound,
		Duplicate: ErrDuplicateHandler,
		Invalid:   ErrInvalidCommand,
	})}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	return b.table.Send(ctx, cmd)
}

func (b *InMemoryBus) Keys() []string {
	return b.table.Keys()
}

// RegisterHandler binds handler to the key its command type reports.
func RegisterHandler[C Command, R any](b *InMemoryBus, handler Handler[C, R]) {
	if b == nil {
		panic(ErrNilBus)
	}
	bus.Register(b.table, handler.Handle)
}
