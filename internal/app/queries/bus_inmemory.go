package queries

import (
	"context"

	"stayhub/internal/app/bus"
)

type InMemoryBus struct {
	table *bus.Table
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{table: bus.NewTable(bus.Errors{
		NotFound:  ErrHandlerNotFound,
		Duplicate: ErrDuplicateHandler,
		Invalid:   ErrInvalidQuery,
	})}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	return b.table.Send(ctx, query)
}

// RegisterHandler binds handler to the key its query type reports.
func RegisterHandler[Q Query, R any](b *InMemoryBus, handler Handler[Q, R]) {
	if b == nil {
		panic(ErrNilBus)
	}
	bus.Register(b.table, handler.Handle)
}
