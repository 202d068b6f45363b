// Package bus holds the routing table shared by the command and query buses.
package bus

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Keyed is anything routed by a stable string key.
type Keyed interface {
	Key() string
}

// Route handles one message kind. The message is the value the caller sent.
type Route func(ctx context.Context, msg Keyed) (any, error)

// Errors lets each bus keep its own sentinel errors.
type Errors struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Table maps message keys to routes. Routes are added at wiring time but
// lookups may run concurrently with additions.
type Table struct {
	errs   Errors
	mu     sync.RWMutex
	routes map[string]Route
}

func NewTable(errs Errors) *Table {
	return &Table{errs: errs, routes: make(map[string]Route)}
}

// Add panics on an empty or already registered key; both are wiring bugs.
func (t *Table) Add(key string, route Route) {
	if key == "" {
		panic(fmt.Errorf("%w: empty key", t.errs.Invalid))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.routes[key]; exists {
		panic(fmt.Errorf("%w: %s", t.errs.Duplicate, key))
	}
	t.routes[key] = route
}

func (t *Table) Send(ctx context.Context, msg Keyed) (any, error) {
	if msg == nil {
		return nil, t.errs.Invalid
	}
	key := msg.Key()
	t.mu.RLock()
	route, ok := t.routes[key]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", t.errs.NotFound, key)
	}
	return route(ctx, msg)
}

// Keys lists the registered keys in lexical order.
func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.routes))
	for k := range t.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds a typed handler under the key its zero message reports.
func Register[M Keyed, R any](t *Table, handle func(context.Context, M) (R, error)) {
	var zero M
	key := zero.Key()
	t.Add(key, func(ctx context.Context, raw Keyed) (any, error) {
		msg, ok := raw.(M)
		if !ok {
			return nil, fmt.Errorf("%w: %s", t.errs.Invalid, key)
		}
		return handle(ctx, msg)
	})
}

// Expect asserts a routed result to R. A nil result is R's zero value.
func Expect[R any](res any, err error, mismatch error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	value, ok := res.(R)
	if !ok {
		return zero, fmt.Errorf("%w: got %T", mismatch, res)
	}
	return value, nil
}
