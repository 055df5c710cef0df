// Package event provides in-process observer registries.
package event

import (
	"fmt"
	"sort"
	"sync"

	"github.com/yndd/ndd-runtime/pkg/logging"
)

// Registry holds callbacks per name. Callbacks are invoked synchronously in
// registration order; a panicking callback is logged and does not stop
// delivery to the others.
type Registry[T any] struct {
	logger logging.Logger

	mu   sync.RWMutex
	next uint64
	subs map[string]map[uint64]func(T)
}

func NewRegistry[T any](l logging.Logger) *Registry[T] {
	if l == nil {
		l = logging.NewNopLogger()
	}
	return &Registry[T]{
		logger: l,
		subs:   make(map[string]map[uint64]func(T)),
	}
}

// Add registers fn under name and returns a function removing it again.
// Calling the returned function more than once is harmless.
func (r *Registry[T]) Add(name string, fn func(T)) func() {
	r.mu.Lock()
	id := r.next
	r.next++
	if r.subs[name] == nil {
		r.subs[name] = make(map[uint64]func(T))
	}
	r.subs[name][id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[name], id)
		if len(r.subs[name]) == 0 {
			delete(r.subs, name)
		}
	}
}

// Len returns the number of callbacks registered under name.
func (r *Registry[T]) Len(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[name])
}

// Names returns every name with at least one callback.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.subs))
	for n := range r.subs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Notify calls every callback registered under name with v. The set of
// callbacks is captured before the first call, so callbacks may register
// or remove callbacks themselves.
func (r *Registry[T]) Notify(name string, v T) {
	r.mu.RLock()
	ids := make([]uint64, 0, len(r.subs[name]))
	for id := range r.subs[name] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.subs[name][id])
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		r.call(name, fn, v)
	}
}

func (r *Registry[T]) call(name string, fn func(T), v T) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Info("error in data listener", "name", name, "error", fmt.Sprint(rec))
		}
	}()
	fn(v)
}
