// Package binding keeps a typed, always current view of one collection for
// a consumer with a start/stop lifetime, such as a page, a websocket or a
// CLI watch.
package binding

import (
	"sync"

	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync/collection"
	"github.com/yndd/dinesync/manager"
)

// Option configures a Binding.
type Option[T any] func(*Binding[T])

// WithLogger sets the logger.
func WithLogger[T any](l logging.Logger) Option[T] {
	return func(b *Binding[T]) { b.logger = l }
}

// WithOnChange registers fn to run with every new snapshot.
func WithOnChange[T any](fn func([]T)) Option[T] {
	return func(b *Binding[T]) { b.onChange = fn }
}

// Binding is the view of one collection key, decoded into T.
type Binding[T any] struct {
	m        *manager.Manager
	key      string
	initial  []T
	logger   logging.Logger
	onChange func([]T)
	changed  *signal

	mu    sync.RWMutex
	data  []T
	unsub func()
}

// New creates a binding of key. Until Start the snapshot is what the
// manager has stored, or initial when it has nothing.
func New[T any](m *manager.Manager, key string, initial []T, opts ...Option[T]) *Binding[T] {
	b := &Binding[T]{
		m:       m,
		key:     key,
		initial: initial,
		changed: newSignal(),
	}
	for _, o := range opts {
		o(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNopLogger()
	}
	b.logger = b.logger.WithValues("key", key)
	b.data = b.initialData()
	if c, ok := m.GetData(key); ok {
		b.data = b.decode(c)
	}
	return b
}

// Start seeds the store with the initial data when the key is absent and
// begins following changes. Calling Start on a started binding is a no-op.
func (b *Binding[T]) Start() {
	b.mu.Lock()
	if b.unsub != nil {
		b.mu.Unlock()
		return
	}
	b.unsub = b.m.Subscribe(b.key, b.update)
	b.mu.Unlock()

	if _, ok := b.m.GetData(b.key); !ok {
		c, err := collection.Encode(b.initialData())
		if err != nil {
			b.logger.Info("cannot encode initial data", "error", err)
			return
		}
		b.m.SetData(b.key, c)
	}
}

// Stop ends following changes. The last snapshot stays readable.
func (b *Binding[T]) Stop() {
	b.mu.Lock()
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Data returns the current snapshot.
func (b *Binding[T]) Data() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]T, len(b.data))
	copy(out, b.data)
	return out
}

// Changed returns a channel closed on the next snapshot change.
func (b *Binding[T]) Changed() <-chan struct{} { return b.changed.c() }

// UpdateItem replaces the records whose idField matches id with fn applied
// to them. It returns the resulting collection.
func (b *Binding[T]) UpdateItem(id interface{}, fn func(T) T, idField ...string) []T {
	c := b.m.UpdateArrayItem(b.key, id, func(r collection.Record) collection.Record {
		v, err := collection.DecodeRecord[T](r)
		if err != nil {
			b.logger.Info("cannot decode record", "id", id, "error", err)
			return r
		}
		n, err := collection.EncodeRecord(fn(v))
		if err != nil {
			b.logger.Info("cannot encode record", "id", id, "error", err)
			return r
		}
		return n
	}, idField...)
	return b.decode(c)
}

// AddItem appends v and returns the resulting collection.
func (b *Binding[T]) AddItem(v T) []T {
	r, err := collection.EncodeRecord(v)
	if err != nil {
		b.logger.Info("cannot encode record", "error", err)
		return b.Data()
	}
	return b.decode(b.m.AddArrayItem(b.key, r))
}

// RemoveItem drops the records whose idField matches id and returns the
// resulting collection.
func (b *Binding[T]) RemoveItem(id interface{}, idField ...string) []T {
	return b.decode(b.m.RemoveArrayItem(b.key, id, idField...))
}

// SetAllData replaces the whole collection with items.
func (b *Binding[T]) SetAllData(items []T) []T {
	c, err := collection.Encode(items)
	if err != nil {
		b.logger.Info("cannot encode records", "error", err)
		return b.Data()
	}
	b.m.SetData(b.key, c)
	return items
}

func (b *Binding[T]) update(c collection.Collection) {
	d := b.decode(c)
	b.mu.Lock()
	if b.unsub == nil {
		b.mu.Unlock()
		return
	}
	b.data = d
	b.mu.Unlock()

	b.changed.notify()
	if b.onChange != nil {
		b.onChange(d)
	}
}

// decode converts c record by record; records that do not fit T are
// logged and left out.
func (b *Binding[T]) decode(c collection.Collection) []T {
	d := make([]T, 0, len(c))
	for i, r := range c {
		v, err := collection.DecodeRecord[T](r)
		if err != nil {
			b.logger.Info("skipping record", "index", i, "error", err)
			continue
		}
		d = append(d, v)
	}
	return d
}

func (b *Binding[T]) initialData() []T {
	if b.initial == nil {
		return []T{}
	}
	out := make([]T, len(b.initial))
	copy(out, b.initial)
	return out
}
