// Package records converts raw, identifier-keyed store payloads into
// domain records keyed by logical property names.
package records

import (
	"casegraph/internal/graph"
	"casegraph/internal/schema"
)

// absentValue marks a requested property with no value on the raw record.
type absentValue struct{}

func (absentValue) String() string { return "<absent>" }

// Absent is the explicit marker a projection assigns to a requested
// property that is missing or empty on the raw record.
var Absent = absentValue{}

// DomainRecord maps logical property names to values. Only the first value
// of a multi-valued property is projected; a requested name that has no
// value maps to Absent rather than being dropped.
type DomainRecord map[string]any

// Project converts a raw record into a domain record covering the
// requested logical property names. A name that cannot be resolved for the
// organization is a configuration error; a resolved name with no value on
// the record is not.
func Project(resolver *schema.Resolver, raw graph.RawRecord, names []string) (DomainRecord, error) {
	rec := make(DomainRecord, len(names))
	for _, name := range names {
		id, err := resolver.Property(name)
		if err != nil {
			return nil, err
		}
		if v := raw.FirstValue(id); v != nil {
			rec[name] = v
		} else {
			rec[name] = Absent
		}
	}
	return rec, nil
}

// Has reports whether the record carries a present value for name.
func (r DomainRecord) Has(name string) bool {
	v, ok := r[name]
	if !ok {
		return false
	}
	_, absent := v.(absentValue)
	return !absent
}
