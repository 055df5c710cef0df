// Package dinesync keeps named record collections in sync between every
// process that shares the same store and broadcast channel.
package dinesync

import (
	"encoding/json"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// TypeDataUpdate is the only message type emitted on the broadcast channel.
	TypeDataUpdate = "DATA_UPDATE"
	// DefaultChannel names the broadcast channel of the application.
	DefaultChannel = "restaurant-sync"
)

// Subject returns the subject a change of key is published on.
func Subject(channel, key string) string {
	return channel + "." + key
}

// AllSubjects returns the subject pattern matching every key of channel.
func AllSubjects(channel string) string {
	return channel + ".>"
}

// Msg is a collection change notification. Data always holds the full
// collection snapshot, never a delta.
type Msg struct {
	Type string
	Key  string
	Data json.RawMessage
	// Timestamp in milliseconds since the unix epoch.
	Timestamp int64
	// Origin identifies the sending transport.
	Origin string
	// Sequence is filled in by the receiving side when the channel provides one.
	Sequence uint64
}

// Marshal encodes m as a protobuf Struct.
func (m *Msg) Marshal() ([]byte, error) {
	var data interface{}
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &data); err != nil {
			return nil, errors.Wrap(err, "cannot decode msg data")
		}
	}
	s, err := structpb.NewStruct(map[string]interface{}{
		"type":      m.Type,
		"key":       m.Key,
		"data":      data,
		"timestamp": m.Timestamp,
		"origin":    m.Origin,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot build msg struct")
	}
	return proto.Marshal(s)
}

// Unmarshal decodes a message produced by Msg.Marshal.
func Unmarshal(b []byte) (*Msg, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(b, s); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal msg")
	}
	f := s.GetFields()
	m := &Msg{
		Type:      f["type"].GetStringValue(),
		Key:       f["key"].GetStringValue(),
		Origin:    f["origin"].GetStringValue(),
		Timestamp: int64(f["timestamp"].GetNumberValue()),
	}
	if v, ok := f["data"]; ok {
		data, err := json.Marshal(v.AsInterface())
		if err != nil {
			return nil, errors.Wrap(err, "cannot encode msg data")
		}
		m.Data = data
	}
	return m, nil
}
