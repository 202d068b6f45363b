package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"time"

	"stayhub/internal/app/commands"
)

// IdempotentCommand is implemented by commands a client may safely retry.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer to a zero handler result for decoding replays.
	ResultPrototype() any
}

// Fingerprinter lets a command detect a key reused with a different payload.
type Fingerprinter interface {
	Fingerprint() string
}

type IdempotencyRecord struct {
	Key         string
	Fingerprint string
	Payload     []byte
	OccurredAt  time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	ErrIdempotencyConflict = errors.New("middleware: idempotency key reused with a different request")
	errMissingPrototype    = errors.New("middleware: idempotent command requires result prototype")
)

// Idempotency replays the stored result of a command already executed under
// the same key. Only successes are stored, so a failed attempt can be retried
// with the same key. Executions sharing a key are serialised in-process.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	g := &idempotencyGuard{store: store, codec: codec}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			return g.run(ctx, idCmd, next)
		})
	}
}

type idempotencyGuard struct {
	store IdempotencyStore
	codec ResultCodec
	locks keyedMutex
}

func (g *idempotencyGuard) run(ctx context.Context, cmd IdempotentCommand, next commands.Bus) (any, error) {
	key := cmd.Key() + ":" + cmd.IdempotencyKey()
	var fingerprint string
	if fp, ok := cmd.(Fingerprinter); ok {
		fingerprint = fp.Fingerprint()
	}

	defer g.locks.lock(key)()

	rec, found, err := g.store.Get(ctx, key)
	switch {
	case err != nil:
		return nil, err
	case found && rec.Fingerprint != fingerprint:
		return nil, ErrIdempotencyConflict
	case found:
		return g.replay(rec, cmd)
	}

	result, err := next.Dispatch(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := g.remember(ctx, key, fingerprint, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *idempotencyGuard) replay(rec IdempotencyRecord, cmd IdempotentCommand) (any, error) {
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) > 0 {
		if err := g.codec.Decode(rec.Payload, proto); err != nil {
			return nil, err
		}
	}
	return derefPrototype(proto), nil
}

func (g *idempotencyGuard) remember(ctx context.Context, key, fingerprint string, result any) error {
	rec := IdempotencyRecord{Key: key, Fingerprint: fingerprint, OccurredAt: time.Now().UTC()}
	if result != nil {
		payload, err := g.codec.Encode(result)
		if err != nil {
			return err
		}
		rec.Payload = payload
	}
	return g.store.Save(ctx, rec)
}

// derefPrototype turns the decoded *T back into the T the handler returns.
func derefPrototype(proto any) any {
	if rv := reflect.ValueOf(proto); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return proto
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
