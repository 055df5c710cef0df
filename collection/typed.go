package collection

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Decode converts a collection into typed records.
func Decode[T any](c Collection) ([]T, error) {
	items := make([]T, 0, len(c))
	if len(c) == 0 {
		return items, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode collection")
	}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, errors.Wrap(err, "cannot decode collection")
	}
	return items, nil
}

// Encode converts typed records into a collection.
func Encode[T any](items []T) (Collection, error) {
	c := make(Collection, 0, len(items))
	if len(items) == 0 {
		return c, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode records")
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrap(err, "cannot decode records")
	}
	return c, nil
}

// DecodeRecord converts a single record into T.
func DecodeRecord[T any](r Record) (T, error) {
	var v T
	b, err := json.Marshal(r)
	if err != nil {
		return v, errors.Wrap(err, "cannot encode record")
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, errors.Wrap(err, "cannot decode record")
	}
	return v, nil
}

// EncodeRecord converts v into a record.
func EncodeRecord[T any](v T) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode record")
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "cannot decode record")
	}
	return r, nil
}
