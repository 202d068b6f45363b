package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/identity"
	"stayhub/internal/app/outbox"
	"stayhub/internal/app/uow"
	domainbooking "stayhub/internal/domain/booking"
	domainlistings "stayhub/internal/domain/listings"
)

type fakeUnit struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (u *fakeUnit) Listings() domainlistings.Repository { return nil }
func (u *fakeUnit) Bookings() domainbooking.Repository  { return nil }

func (u *fakeUnit) Commit(context.Context) error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.committed = true
	return nil
}

func (u *fakeUnit) Rollback(context.Context) error {
	u.rolledBack = true
	return nil
}

type fakeFactory struct {
	units      []*fakeUnit
	commitErrs []error
}

func (f *fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	u := &fakeUnit{}
	if len(f.commitErrs) > 0 {
		u.commitErr, f.commitErrs = f.commitErrs[0], f.commitErrs[1:]
	}
	f.units = append(f.units, u)
	return u, nil
}

type reserve struct {
	Listing string `validate:"required"`
	IdemKey string
	Payload string
}

func (reserve) Key() string { return "test.reserve" }

func (c reserve) IdempotencyKey() string { return c.IdemKey }

func (c reserve) ResultPrototype() any { return new(string) }

func (c reserve) Fingerprint() string { return c.Listing + "|" + c.Payload }

func (reserve) RequiresCaller() bool { return true }

type hostOnly struct{}

func (hostOnly) Key() string { return "test.host_only" }

func (hostOnly) RequiredRole() string { return identity.RoleHost }

func busWith(t *testing.T, handle func(ctx context.Context, cmd reserve) (string, error)) *commands.InMemoryBus {
	t.Helper()
	b := commands.NewInMemoryBus()
	commands.RegisterHandler[reserve, string](b, commands.HandlerFunc[reserve, string](handle))
	return b
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	factory := &fakeFactory{}
	var seen uow.UnitOfWork
	b := ChainCommands(busWith(t, func(ctx context.Context, _ reserve) (string, error) {
		seen, _ = uow.FromContext(ctx)
		return "ok", nil
	}), Transaction(factory, nil))

	res, err := commands.Dispatch[reserve, string](context.Background(), b, reserve{Listing: "l"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	require.Len(t, factory.units, 1)
	assert.Same(t, factory.units[0], seen)
	assert.True(t, factory.units[0].committed)
}

func TestTransactionRollsBackOnFailure(t *testing.T) {
	factory := &fakeFactory{}
	boom := errors.New("boom")
	b := ChainCommands(busWith(t, func(context.Context, reserve) (string, error) {
		return "", boom
	}), Transaction(factory, nil))

	_, err := commands.Dispatch[reserve, string](context.Background(), b, reserve{Listing: "l"})
	assert.ErrorIs(t, err, boom)
	require.Len(t, factory.units, 1)
	assert.False(t, factory.units[0].committed)
	assert.True(t, factory.units[0].rolledBack)
}

func TestTransactionRetriesConflicts(t *testing.T) {
	factory := &fakeFactory{commitErrs: []error{domainbooking.ErrConcurrentUpdate}}
	calls := 0
	b := ChainCommands(busWith(t, func(context.Context, reserve) (string, error) {
		calls++
		return "ok", nil
	}), Transaction(factory, &TxPolicy{
		Retryable:   func(err error) bool { return errors.Is(err, domainbooking.ErrConcurrentUpdate) },
		MaxAttempts: 3,
	}))

	_, err := commands.Dispatch[reserve, string](context.Background(), b, reserve{Listing: "l"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, factory.units, 2)
	assert.True(t, factory.units[0].rolledBack)
	assert.True(t, factory.units[1].committed)

	factory = &fakeFactory{commitErrs: []error{
		domainbooking.ErrConcurrentUpdate, domainbooking.ErrConcurrentUpdate, domainbooking.ErrConcurrentUpdate,
	}}
	b = ChainCommands(busWith(t, func(context.Context, reserve) (string, error) { return "ok", nil }),
		Transaction(factory, &TxPolicy{Retryable: func(error) bool { return true }, MaxAttempts: 2}))
	_, err = commands.Dispatch[reserve, string](context.Background(), b, reserve{Listing: "l"})
	assert.ErrorIs(t, err, domainbooking.ErrConcurrentUpdate)
	assert.Len(t, factory.units, 2)
}

type memoryIdempotency struct {
	mu   sync.Mutex
	recs map[string]IdempotencyRecord
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[key]
	return rec, ok, nil
}

func (m *memoryIdempotency) Save(_ context.Context, rec IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recs == nil {
		m.recs = map[string]IdempotencyRecord{}
	}
	m.recs[rec.Key] = rec
	return nil
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	store := &memoryIdempotency{}
	calls := 0
	b := ChainCommands(busWith(t, func(context.Context, reserve) (string, error) {
		calls++
		return "booking-1", nil
	}), Idempotency(store, nil))

	cmd := reserve{Listing: "l", IdemKey: "k1", Payload: "a"}
	first, err := commands.Dispatch[reserve, string](context.Background(), b, cmd)
	require.NoError(t, err)
	second, err := commands.Dispatch[reserve, string](context.Background(), b, cmd)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	cmd.Payload = "b"
	_, err = commands.Dispatch[reserve, string](context.Background(), b, cmd)
	assert.ErrorIs(t, err, ErrIdempotencyConflict)

	_, err = commands.Dispatch[reserve, string](context.Background(), b, reserve{Listing: "l"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "commands without a key always run")
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	store := &memoryIdempotency{}
	fail := true
	b := ChainCommands(busWith(t, func(context.Context, reserve) (string, error) {
		if fail {
			return "", errors.New("provider down")
		}
		return "done", nil
	}), Idempotency(store, nil))

	cmd := reserve{Listing: "l", IdemKey: "k1"}
	_, err := commands.Dispatch[reserve, string](context.Background(), b, cmd)
	require.Error(t, err)

	fail = false
	got, err := commands.Dispatch[reserve, string](context.Background(), b, cmd)
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestIdempotencySerialisesSameKey(t *testing.T) {
	store := &memoryIdempotency{}
	var mu sync.Mutex
	calls := 0
	b := ChainCommands(busWith(t, func(context.Context, reserve) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return "x", nil
	}), Idempotency(store, nil))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = commands.Dispatch[reserve, string](context.Background(), b, reserve{Listing: "l", IdemKey: "same"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestAuthorizationAndValidationOrder(t *testing.T) {
	b := ChainCommands(busWith(t, func(context.Context, reserve) (string, error) { return "ok", nil }),
		Authorization(RoleAuthorizer{}),
		Validation(NewStructValidator()),
	)

	_, err := commands.Dispatch[reserve, string](context.Background(), b, reserve{})
	assert.ErrorIs(t, err, identity.ErrAnonymous, "anonymous callers are rejected before validation")

	p, err := identity.Resolve(identity.Raw{UserID: "guest-1", Roles: "guest"})
	require.NoError(t, err)
	ctx := identity.WithContext(context.Background(), identity.NewContext(p))
	_, err = commands.Dispatch[reserve, string](ctx, b, reserve{})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = commands.Dispatch[reserve, string](ctx, b, reserve{Listing: "l"})
	assert.NoError(t, err)
}

func TestRoleAuthorizer(t *testing.T) {
	auth := RoleAuthorizer{}
	resolve := func(roles, active string) context.Context {
		ic, err := identity.Establish(identity.Raw{UserID: "u", Roles: roles}, active)
		require.NoError(t, err)
		return identity.WithContext(context.Background(), ic)
	}

	assert.ErrorIs(t, auth.Authorize(context.Background(), hostOnly{}), identity.ErrAnonymous)
	assert.ErrorIs(t, auth.Authorize(resolve("guest,host", ""), hostOnly{}), identity.ErrForbidden)
	assert.NoError(t, auth.Authorize(resolve("guest,host", "host"), hostOnly{}))
	assert.NoError(t, auth.Authorize(resolve("admin", "admin"), hostOnly{}))
	assert.NoError(t, auth.Authorize(context.Background(), struct{}{}))
}

type flushCounter struct{ flushes int }

func (f *flushCounter) Add(context.Context, outbox.EventRecord) error { return nil }

func (f *flushCounter) Flush(context.Context) error {
	f.flushes++
	return nil
}

func TestOutboxFlushOnlyAfterSuccess(t *testing.T) {
	box := &flushCounter{}
	fail := false
	b := ChainCommands(busWith(t, func(context.Context, reserve) (string, error) {
		if fail {
			return "", errors.New("nope")
		}
		return "ok", nil
	}), OutboxFlush(box))

	_, err := commands.Dispatch[reserve, string](context.Background(), b, reserve{Listing: "l"})
	require.NoError(t, err)
	fail = true
	_, err = commands.Dispatch[reserve, string](context.Background(), b, reserve{Listing: "l"})
	require.Error(t, err)
	assert.Equal(t, 1, box.flushes)
}
