package graph

// CollectionID identifies a typed set of records within an organization.
// The value is opaque to this layer; the store assigns it.
type CollectionID string

// PropertyID identifies one property of a typed record within an organization.
type PropertyID string

// RecordID identifies a record within its collection.
type RecordID string

// RawRecord is a record payload as the store returns it: every property is
// multi-valued and keyed by its opaque property identifier.
type RawRecord map[PropertyID][]any

// EntityBundle holds new or replacement record payloads grouped by
// collection. For graph writes the inner slice order is significant: the
// store returns generated identifiers in the same order per collection.
type EntityBundle map[CollectionID][]RawRecord

// ReplaceBundle names existing records and the properties to overwrite on
// each. Properties not named are left untouched.
type ReplaceBundle map[CollectionID]map[RecordID]RawRecord

// EndpointRef names one endpoint of an association edge. Exactly one of
// RecordID or Index is set: RecordID for a record that already exists,
// Index for a record created by the same write at that position in the
// entity bundle for Collection.
type EndpointRef struct {
	Collection CollectionID `json:"collectionId"`
	RecordID   RecordID     `json:"recordId,omitempty"`
	Index      *int         `json:"index,omitempty"`
}

// AssociationSpec describes one directed, property-bearing edge to create.
type AssociationSpec struct {
	Src  EndpointRef `json:"src"`
	Dst  EndpointRef `json:"dst"`
	Data RawRecord   `json:"data,omitempty"`
}

// AssociationBundle groups edges to create by their edge collection.
type AssociationBundle map[CollectionID][]AssociationSpec

// WriteResult carries the identifiers the store generated for a graph
// write, per collection, in submission order.
type WriteResult struct {
	GeneratedIDs map[CollectionID][]RecordID `json:"entityKeyIds"`
}

// DeletionSpec names records to remove from one collection. Removing a
// record does not cascade to edges referencing it; dangling edges are the
// caller's responsibility.
type DeletionSpec struct {
	Collection CollectionID `json:"entitySetId"`
	RecordIDs  []RecordID   `json:"entityKeyIds"`
	Block      bool         `json:"block,omitempty"`
}

// NeighborFilter restricts a neighbor search. DstCollections selects edges
// leaving the source records; SrcCollections selects edges arriving at
// them. An empty slice disables that direction.
type NeighborFilter struct {
	RecordIDs      []RecordID     `json:"entityKeyIds"`
	DstCollections []CollectionID `json:"destinationEntitySetIds,omitempty"`
	SrcCollections []CollectionID `json:"sourceEntitySetIds,omitempty"`
}

// NeighborEnvelope is one hit of a neighbor search: the connected record,
// the collection it lives in, and the raw association record for the edge.
type NeighborEnvelope struct {
	NeighborCollection CollectionID `json:"neighborEntitySetId"`
	NeighborID         RecordID     `json:"neighborId"`
	Neighbor           RawRecord    `json:"neighborDetails"`
	EdgeCollection     CollectionID `json:"associationEntitySetId"`
	EdgeID             RecordID     `json:"associationId"`
	Edge               RawRecord    `json:"associationDetails"`
}

// NeighborMap maps each queried source record to its hits. A source with
// zero neighbors is simply absent.
type NeighborMap map[RecordID][]NeighborEnvelope

// FirstValue returns the first value stored under the given property, or
// nil when the property is absent or empty.
func (r RawRecord) FirstValue(id PropertyID) any {
	values := r[id]
	if len(values) == 0 {
		return nil
	}
	return values[0]
}
