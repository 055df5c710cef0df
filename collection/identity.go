package collection

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// DefaultIdentityField is the record attribute matched when callers do not
// name one.
const DefaultIdentityField = "_id"

// SameIdentity reports whether two identity values denote the same record.
//
// Records written by different code paths carry either numeric or string
// ids ("5" and 5, "RES001", 1700000000000), so values match when they are
// equal, equal as strings, or equal as finite numbers. nil matches nothing
// and a blank string is not the number zero.
func SameIdentity(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	if sa, ok := identityString(a); ok {
		if sb, ok := identityString(b); ok && sa == sb {
			return true
		}
	}
	if na, ok := identityNumber(a); ok {
		if nb, ok := identityNumber(b); ok && na == nb {
			return true
		}
	}
	return reflect.DeepEqual(a, b)
}

// Matches reports whether r carries id in field.
func (r Record) Matches(field string, id interface{}) bool {
	v, ok := r[field]
	if !ok {
		return false
	}
	return SameIdentity(v, id)
}

func identityString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func identityNumber(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
