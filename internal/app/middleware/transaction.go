package middleware

import (
	"context"
	"fmt"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/uow"
)

// TxPolicy tunes Transaction. The zero value runs every command once in a
// read-write unit.
type TxPolicy struct {
	Options func(cmd commands.Command) uow.TxOptions
	// Retryable marks errors worth a fresh attempt, e.g. a version conflict
	// detected while saving or committing.
	Retryable   func(err error) bool
	MaxAttempts int
}

// Transaction runs each command inside a fresh unit of work and commits it
// only when the handler succeeds. A retryable failure rolls back and runs the
// whole handler again in a new unit.
func Transaction(factory uow.UoWFactory, policy *TxPolicy) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	var p TxPolicy
	if policy != nil {
		p = *policy
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var opts uow.TxOptions
			if p.Options != nil {
				opts = p.Options(cmd)
			}
			var lastErr error
			for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
				res, err := runInUnit(ctx, factory, opts, next, cmd)
				if err == nil {
					return res, nil
				}
				lastErr = err
				if p.Retryable == nil || !p.Retryable(err) || ctx.Err() != nil {
					break
				}
			}
			return nil, lastErr
		})
	}
}

func runInUnit(ctx context.Context, factory uow.UoWFactory, opts uow.TxOptions, next commands.Bus, cmd commands.Command) (any, error) {
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin %s: %w", cmd.Key(), err)
	}
	execCtx := uow.Bind(ctx, unit)
	res, err := next.Dispatch(execCtx, cmd)
	if err != nil {
		_ = unit.Rollback(execCtx)
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		_ = unit.Rollback(execCtx)
		return nil, err
	}
	return res, nil
}
