package dinesync

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestMsgMarshal(t *testing.T) {
	m := &Msg{
		Type:      TypeDataUpdate,
		Key:       "menu_items",
		Data:      json.RawMessage(`[{"_id":"1","name":"Dal Tadka","price":150}]`),
		Timestamp: 1700000000000,
		Origin:    "01HX",
	}
	b, err := m.Marshal()
	assert.Equal(t, err, nil)

	got, err := Unmarshal(b)
	assert.Equal(t, err, nil)
	assert.Equal(t, got.Type, TypeDataUpdate)
	assert.Equal(t, got.Key, "menu_items")
	assert.Equal(t, got.Timestamp, int64(1700000000000))
	assert.Equal(t, got.Origin, "01HX")

	var data []map[string]interface{}
	assert.Equal(t, json.Unmarshal(got.Data, &data), nil)
	assert.Equal(t, len(data), 1)
	assert.Equal(t, data[0]["name"], "Dal Tadka")
	assert.Equal(t, data[0]["price"], float64(150))
}

func TestMsgMarshalBadData(t *testing.T) {
	m := &Msg{Type: TypeDataUpdate, Key: "k", Data: json.RawMessage(`[`)}
	_, err := m.Marshal()
	assert.NotEqual(t, err, nil)
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0xff, 0xff})
	assert.NotEqual(t, err, nil)
}
