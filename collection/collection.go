// Package collection persists named record collections in a shared store.
//
// A collection is always a JSON array of objects stored under its key. Reads
// and writes fail soft: errors are logged and reported as absent data or a
// dropped write, never returned to the caller.
package collection

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/yndd/ndd-runtime/pkg/logging"

	"github.com/yndd/dinesync/store"
)

const (
	// TriggerSuffix is appended to a key to form its sync trigger entry.
	TriggerSuffix = "_sync_trigger"
	triggerMarker = "_trigger"
)

// Record is a single JSON object of a collection.
type Record map[string]interface{}

// Collection is an ordered sequence of records.
type Collection []Record

// TriggerKey returns the companion entry rewritten on every broadcast of key.
func TriggerKey(key string) string { return key + TriggerSuffix }

// IsTrigger reports whether key names a trigger entry rather than data.
func IsTrigger(key string) bool { return strings.HasSuffix(key, triggerMarker) }

// Parse decodes a stored collection. A JSON null decodes to nil.
func Parse(b []byte) (Collection, error) {
	var c Collection
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrap(err, "cannot decode collection")
	}
	return c, nil
}

// Adapter reads and writes collections in a store.Store.
type Adapter struct {
	store  store.Store
	logger logging.Logger

	mu sync.Mutex
	// last write made through this adapter, per key
	own map[string]write
}

type write struct {
	rev   uint64
	value []byte
}

func NewAdapter(s store.Store, l logging.Logger) *Adapter {
	if l == nil {
		l = logging.NewNopLogger()
	}
	return &Adapter{
		store:  s,
		logger: l,
		own:    make(map[string]write),
	}
}

// Store returns the underlying store.
func (a *Adapter) Store() store.Store { return a.store }

// Get returns the collection stored under key, or false when the key is
// absent or its value cannot be decoded.
func (a *Adapter) Get(key string) (Collection, bool) {
	kv, err := a.store.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			a.logger.Info("failed to get data", "key", key, "error", err)
		}
		return nil, false
	}
	c, err := Parse(kv.Value)
	if err != nil {
		a.logger.Info("failed to get data", "key", key, "error", err)
		return nil, false
	}
	if c == nil {
		return nil, false
	}
	return c, true
}

// Set overwrites the collection stored under key. It reports whether the
// write reached the store.
func (a *Adapter) Set(key string, c Collection) bool {
	if c == nil {
		c = Collection{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		a.logger.Info("failed to set data", "key", key, "error", err)
		return false
	}
	if err := a.put(key, b); err != nil {
		a.logger.Info("failed to set data", "key", key, "error", err)
		return false
	}
	return true
}

// Touch rewrites the trigger entry of key with the current time so that
// watchers in other processes observe a change even when the collection
// itself was rewritten byte for byte.
func (a *Adapter) Touch(key string) {
	tk := TriggerKey(key)
	if err := a.store.Delete(tk); err != nil {
		a.logger.Debug("failed to clear sync trigger", "key", tk, "error", err)
	}
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := a.put(tk, []byte(ts)); err != nil {
		a.logger.Info("storage sync error", "key", tk, "error", err)
	}
}

// Own reports whether a watch event carries nothing the local side has not
// already seen: an older revision than the last write made through this
// adapter, or that write itself.
//
// Stores whose revisions are timestamps may give a foreign write the same
// revision as the local one. On such a tie the event only counts as own
// when the store still holds the local value.
func (a *Adapter) Own(kv *store.KV) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	last, ok := a.own[kv.Key]
	if !ok || kv.Revision > last.rev {
		return false
	}
	if kv.Revision < last.rev || bytes.Equal(kv.Value, last.value) {
		return true
	}
	cur, err := a.store.Get(kv.Key)
	if err != nil {
		return false
	}
	return bytes.Equal(cur.Value, last.value)
}

// put holds mu across the store write so that a watcher asking Own about
// the resulting event waits until the write is recorded.
func (a *Adapter) put(key string, b []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	rev, err := a.store.Put(key, b)
	if err != nil {
		return err
	}
	if rev >= a.own[key].rev {
		a.own[key] = write{rev: rev, value: b}
	}
	return nil
}
