package records

import (
	"encoding/json"
	"strconv"
	"time"
)

// Float reads a numeric property. JSON decoding hands numbers back as
// float64 or json.Number depending on the decoder, so both are accepted.
func (r DomainRecord) Float(name string) (float64, bool) {
	v, ok := r[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// String reads a string property.
func (r DomainRecord) String(name string) (string, bool) {
	s, ok := r[name].(string)
	return s, ok
}

// Time reads a timestamp property stored as an RFC 3339 string.
func (r DomainRecord) Time(name string) (time.Time, bool) {
	s, ok := r[name].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
