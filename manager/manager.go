// Package manager coordinates the named collections of one process.
//
// A Manager reads and writes collections through a collection.Adapter,
// notifies its own listeners synchronously on every write and hands the
// new snapshot to a transport.Transport for delivery to other processes.
// Changes arriving from other processes are funneled into the same
// listeners.
package manager

import (
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync/collection"
	"github.com/yndd/dinesync/event"
	"github.com/yndd/dinesync/transport"
)

// Updater returns the replacement for a matched record.
type Updater func(collection.Record) collection.Record

type Manager struct {
	id        string
	adapter   *collection.Adapter
	transport *transport.Transport
	events    *event.Dispatcher
	listeners *event.Registry[collection.Collection]
	logger    logging.Logger

	// serializes read-modify-write cycles of this manager, including the
	// transport's storage write
	wmu sync.Mutex
	// per key write counter, guarded by wmu
	seq map[string]uint64

	mu     sync.Mutex
	closed bool
	// highest write counter published per key
	published map[string]uint64
	// transport subscriptions per key
	routed map[string]func()
	detach []func()
}

// New creates a manager. t may be nil, in which case changes stay inside
// the process and ForceSyncAll re-reads the subscribed keys itself.
func New(a *collection.Adapter, t *transport.Transport, l logging.Logger) *Manager {
	if l == nil {
		l = logging.NewNopLogger()
	}
	var ev *event.Dispatcher
	if t != nil {
		ev = t.Events()
	} else {
		ev = event.NewDispatcher(l)
	}
	id := ulid.Make().String()
	m := &Manager{
		id:        id,
		adapter:   a,
		transport: t,
		events:    ev,
		listeners: event.NewRegistry[collection.Collection](l),
		logger:    l.WithValues("manager", id),
		routed:    make(map[string]func()),
		seq:       make(map[string]uint64),
		published: make(map[string]uint64),
	}
	m.detach = append(m.detach,
		ev.On(event.DataUpdate, m.handleDataUpdate),
		ev.On(event.CrossTabSync, m.handleCrossTabSync),
	)
	if t != nil {
		for _, key := range t.KnownKeys() {
			m.route(key)
		}
	}
	return m
}

// Events returns the dispatcher the manager listens on.
func (m *Manager) Events() *event.Dispatcher { return m.events }

// Transport returns the transport, nil when the manager works alone.
func (m *Manager) Transport() *transport.Transport { return m.transport }

// Close detaches the manager from the dispatcher and the transport.
// Listeners registered through Subscribe receive nothing afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, fn := range m.detach {
		fn()
	}
	for key, fn := range m.routed {
		fn()
		delete(m.routed, key)
	}
}

// GetData returns the collection stored under key, or false when there is
// none or it cannot be read.
func (m *Manager) GetData(key string) (collection.Collection, bool) {
	return m.adapter.Get(key)
}

// SetData stores c under key, notifies the local listeners of key before
// returning and then broadcasts c to the other processes.
func (m *Manager) SetData(key string, c collection.Collection) {
	m.wmu.Lock()
	c, n := m.write(key, c)
	m.wmu.Unlock()
	m.publish(key, c, n)
}

// Subscribe registers fn for every new snapshot of key, whatever its source.
func (m *Manager) Subscribe(key string, fn func(collection.Collection)) func() {
	m.route(key)
	return m.listeners.Add(key, fn)
}

// UpdateArrayItem replaces every record of key whose idField matches id with
// the result of fn. When no record matches nothing is written and the
// stored collection is returned unchanged.
func (m *Manager) UpdateArrayItem(key string, id interface{}, fn Updater, idField ...string) collection.Collection {
	field := identityField(idField)

	m.wmu.Lock()
	data := m.current(key)
	updated := make(collection.Collection, len(data))
	found := 0
	for i, r := range data {
		if !r.Matches(field, id) {
			updated[i] = r
			continue
		}
		found++
		if n := fn(r); n != nil {
			updated[i] = n
		} else {
			m.logger.Info("updater returned no record, keeping original", "key", key, "field", field, "id", id)
			updated[i] = r
		}
	}
	if found == 0 {
		m.wmu.Unlock()
		m.logger.Info("item not found", "key", key, "field", field, "id", id)
		return data
	}
	updated, n := m.write(key, updated)
	m.wmu.Unlock()

	m.logger.Debug("items updated", "key", key, "field", field, "id", id, "count", found)
	m.publish(key, updated, n)
	return updated
}

// AddArrayItem appends r to the collection of key.
func (m *Manager) AddArrayItem(key string, r collection.Record) collection.Collection {
	m.wmu.Lock()
	data := m.current(key)
	updated := make(collection.Collection, 0, len(data)+1)
	updated = append(updated, data...)
	updated = append(updated, r)
	updated, n := m.write(key, updated)
	m.wmu.Unlock()

	m.publish(key, updated, n)
	return updated
}

// RemoveArrayItem drops every record of key whose idField matches id. The
// result is written even when nothing matched.
func (m *Manager) RemoveArrayItem(key string, id interface{}, idField ...string) collection.Collection {
	field := identityField(idField)

	m.wmu.Lock()
	data := m.current(key)
	updated := make(collection.Collection, 0, len(data))
	for _, r := range data {
		if !r.Matches(field, id) {
			updated = append(updated, r)
		}
	}
	updated, n := m.write(key, updated)
	m.wmu.Unlock()

	m.logger.Debug("items removed", "key", key, "field", field, "id", id, "count", len(data)-len(updated))
	m.publish(key, updated, n)
	return updated
}

// ForceSyncAll redelivers every known collection to the local listeners.
func (m *Manager) ForceSyncAll() {
	if m.transport != nil {
		m.transport.ForceSyncAll()
		return
	}
	for _, key := range m.listeners.Names() {
		if data, ok := m.adapter.Get(key); ok {
			m.listeners.Notify(key, data)
		}
	}
}

func (m *Manager) current(key string) collection.Collection {
	data, ok := m.adapter.Get(key)
	if !ok {
		return collection.Collection{}
	}
	return data
}

// write persists c and must be called with wmu held. The transport's own
// storage write happens here too, so a later cycle always reads what an
// earlier one stored. A failed write is logged by the adapter and the
// listeners still get c.
func (m *Manager) write(key string, c collection.Collection) (collection.Collection, uint64) {
	if c == nil {
		c = collection.Collection{}
	}
	m.adapter.Set(key, c)
	if m.transport != nil {
		m.transport.Persist(key, c)
	}
	m.seq[key]++
	return c, m.seq[key]
}

// publish notifies the local listeners and announces c to the other
// processes. It runs without wmu so listeners may write again. A snapshot
// overtaken by a newer write of the same key is not published.
func (m *Manager) publish(key string, c collection.Collection, n uint64) {
	m.mu.Lock()
	if n < m.published[key] {
		m.mu.Unlock()
		m.logger.Debug("snapshot superseded", "key", key, "write", n)
		return
	}
	m.published[key] = n
	m.mu.Unlock()

	m.events.Dispatch(event.Event{
		Type:   event.DataUpdate,
		Key:    key,
		Data:   c,
		Origin: m.id,
	})
	if m.transport != nil {
		m.transport.Announce(key, c)
	}
}

// route forwards transport deliveries of key to the listeners.
func (m *Manager) route(key string) {
	if m.transport == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if _, ok := m.routed[key]; ok {
		return
	}
	m.routed[key] = m.transport.Subscribe(key, func(c collection.Collection) {
		m.listeners.Notify(key, c)
	})
}

func (m *Manager) handleDataUpdate(e event.Event) {
	m.listeners.Notify(e.Key, e.Data)
}

// handleCrossTabSync picks up broadcasts of other transports sharing the
// dispatcher. The own transport's broadcasts follow a dataUpdate this
// manager already delivered.
func (m *Manager) handleCrossTabSync(e event.Event) {
	if m.transport != nil && e.Origin == m.transport.Origin() {
		return
	}
	m.listeners.Notify(e.Key, e.Data)
}

func identityField(f []string) string {
	if len(f) > 0 && f[0] != "" {
		return f[0]
	}
	return collection.DefaultIdentityField
}
