package graph

import "context"

// Writer submits graph mutations to the backing store.
type Writer interface {
	// SubmitGraph writes a bundle of new records and new edges as one
	// request. Generated identifiers come back per collection in the order
	// entities were submitted. Derived aggregates are not consistent until
	// a recomputation runs.
	SubmitGraph(ctx context.Context, entities EntityBundle, associations AssociationBundle) (*WriteResult, error)

	// SubmitPartialReplace overwrites only the named properties of
	// already-existing records.
	SubmitPartialReplace(ctx context.Context, entities ReplaceBundle) error

	// DeleteRecords removes the named records. Edges referencing a removed
	// endpoint are left dangling.
	DeleteRecords(ctx context.Context, specs []DeletionSpec) error
}

// NeighborQuerier performs one-hop, direction-filtered traversals.
type NeighborQuerier interface {
	// QueryNeighbors returns, for each source record with matches, the
	// connected records restricted by the filter's collection lists.
	// Absence of a source id in the result means zero neighbors.
	QueryNeighbors(ctx context.Context, source CollectionID, filter NeighborFilter) (NeighborMap, error)
}

// RecordReader fetches single records by identifier.
type RecordReader interface {
	GetRecord(ctx context.Context, collection CollectionID, id RecordID) (RawRecord, error)
}

// Store bundles the full client surface of the backing graph store.
type Store interface {
	Writer
	NeighborQuerier
	RecordReader
}
