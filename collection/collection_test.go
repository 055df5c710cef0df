package collection_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/yndd/dinesync/collection"
	"github.com/yndd/dinesync/store"
)

// brokenStore fails every write, like a browser store over quota.
type brokenStore struct {
	store.Store
}

func (brokenStore) Put(string, []byte) (uint64, error) {
	return 0, errors.New("quota exceeded")
}

func TestAdapterRoundTrip(t *testing.T) {
	a := collection.NewAdapter(store.NewMemoryStore(), nil)
	c := collection.Collection{
		{"_id": "1", "name": "Dal Tadka", "price": float64(150), "is_available": true},
		{"_id": float64(2), "name": "Veg Biryani", "tags": []interface{}{"rice", "veg"}},
	}
	assert.Equal(t, a.Set("menu_items", c), true)

	got, ok := a.Get("menu_items")
	assert.Equal(t, ok, true)
	assert.Equal(t, got, c)
}

func TestAdapterAbsent(t *testing.T) {
	a := collection.NewAdapter(store.NewMemoryStore(), nil)
	got, ok := a.Get("user_orders")
	assert.Equal(t, ok, false)
	assert.Equal(t, len(got), 0)
}

func TestAdapterMalformed(t *testing.T) {
	s := store.NewMemoryStore()
	a := collection.NewAdapter(s, nil)
	for _, raw := range []string{`{not json`, `{"a":1}`, `null`} {
		_, err := s.Put("customer_reviews", []byte(raw))
		assert.Equal(t, err, nil)
		_, ok := a.Get("customer_reviews")
		assert.Equal(t, ok, false)
	}
}

func TestAdapterSetNilStoresEmptyArray(t *testing.T) {
	s := store.NewMemoryStore()
	a := collection.NewAdapter(s, nil)
	assert.Equal(t, a.Set("user_orders", nil), true)
	kv, err := s.Get("user_orders")
	assert.Equal(t, err, nil)
	assert.Equal(t, string(kv.Value), "[]")
	got, ok := a.Get("user_orders")
	assert.Equal(t, ok, true)
	assert.Equal(t, len(got), 0)
}

func TestAdapterWriteFailure(t *testing.T) {
	a := collection.NewAdapter(brokenStore{store.NewMemoryStore()}, nil)
	assert.Equal(t, a.Set("user_orders", collection.Collection{{"id": "o1"}}), false)
	_, ok := a.Get("user_orders")
	assert.Equal(t, ok, false)
}

func TestAdapterTouch(t *testing.T) {
	s := store.NewMemoryStore()
	a := collection.NewAdapter(s, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.Watch(ctx, "menu_items_sync_trigger")
	assert.Equal(t, err, nil)

	a.Touch("menu_items")
	a.Touch("menu_items")

	kv := <-ch
	assert.Equal(t, kv.Operation, store.PUTOperation)
	first := string(kv.Value)
	assert.NotEqual(t, first, "")
	// second touch deletes then rewrites
	kv = <-ch
	assert.Equal(t, kv.Operation, store.DELETEOperation)
	kv = <-ch
	assert.Equal(t, kv.Operation, store.PUTOperation)
	assert.Equal(t, a.Own(kv), true)
}

func TestAdapterOwn(t *testing.T) {
	s := store.NewMemoryStore()
	a := collection.NewAdapter(s, nil)
	b := collection.NewAdapter(s, nil)

	assert.Equal(t, a.Own(&store.KV{Key: "menu_items", Revision: 1}), false)
	a.Set("menu_items", collection.Collection{})
	kv, _ := s.Get("menu_items")
	assert.Equal(t, a.Own(kv), true)
	assert.Equal(t, b.Own(kv), false)

	b.Set("menu_items", collection.Collection{{"_id": "x"}})
	kv, _ = s.Get("menu_items")
	assert.Equal(t, a.Own(kv), false)
}

func TestAdapterOwnSameRevisionOtherValue(t *testing.T) {
	s := store.NewMemoryStore()
	a := collection.NewAdapter(s, nil)
	a.Set("menu_items", collection.Collection{{"_id": "a"}})
	kv, _ := s.Get("menu_items")

	older := &store.KV{Key: "menu_items", Revision: kv.Revision - 1, Value: []byte(`[]`)}
	assert.Equal(t, a.Own(older), true)

	// a foreign write with the same revision that the local one overwrote
	stale := &store.KV{Key: "menu_items", Revision: kv.Revision, Value: []byte(`[{"_id":"b"}]`)}
	assert.Equal(t, a.Own(stale), true)

	// the same foreign write once it is what the store holds
	_, err := s.Put("menu_items", []byte(`[{"_id":"b"}]`))
	assert.Equal(t, err, nil)
	assert.Equal(t, a.Own(stale), false)
}

func TestTriggerKeys(t *testing.T) {
	assert.Equal(t, collection.TriggerKey("menu_items"), "menu_items_sync_trigger")
	assert.Equal(t, collection.IsTrigger("menu_items_sync_trigger"), true)
	assert.Equal(t, collection.IsTrigger("menu_items"), false)
}

func TestSameIdentity(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want bool
	}{
		{"5", float64(5), true},
		{float64(5), 5, true},
		{"5", "5", true},
		{"05", 5, true},
		{"5.0", float64(5), true},
		{float64(1700000000000), "1700000000000", true},
		{"RES001", "RES001", true},
		{"RES001", "RES002", false},
		{"table1", 1, false},
		{"", 0, false},
		{"  ", float64(0), false},
		{nil, 0, false},
		{nil, nil, false},
		{nil, "1", false},
		{true, "true", true},
	}
	for _, tt := range tests {
		assert.Equal(t, collection.SameIdentity(tt.a, tt.b), tt.want)
		assert.Equal(t, collection.SameIdentity(tt.b, tt.a), tt.want)
	}
}

func TestRecordMatches(t *testing.T) {
	r := collection.Record{"id": "5", "_id": float64(9)}
	assert.Equal(t, r.Matches("id", 5), true)
	assert.Equal(t, r.Matches("_id", "9"), true)
	assert.Equal(t, r.Matches("uuid", "5"), false)
}

type table struct {
	ID     string `json:"_id"`
	Status string `json:"status"`
	Seats  int    `json:"seats"`
}

func TestTypedConversion(t *testing.T) {
	tables := []table{{ID: "t1", Status: "Available", Seats: 4}, {ID: "t2", Status: "Reserved", Seats: 2}}
	c, err := collection.Encode(tables)
	assert.Equal(t, err, nil)
	assert.Equal(t, c[0]["_id"], "t1")
	assert.Equal(t, c[1]["seats"], float64(2))

	back, err := collection.Decode[table](c)
	assert.Equal(t, err, nil)
	assert.Equal(t, back, tables)

	empty, err := collection.Decode[table](nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(empty), 0)

	r, err := collection.EncodeRecord(tables[0])
	assert.Equal(t, err, nil)
	one, err := collection.DecodeRecord[table](r)
	assert.Equal(t, err, nil)
	assert.Equal(t, one, tables[0])

	_, err = collection.Decode[table](collection.Collection{{"seats": "many"}})
	assert.NotEqual(t, err, nil)
}
