// Package mocks provides testify doubles for the graph store client
// contracts.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"casegraph/internal/graph"
)

// Writer is a mock for graph.Writer.
type Writer struct {
	mock.Mock
}

func (m *Writer) SubmitGraph(ctx context.Context, entities graph.EntityBundle, associations graph.AssociationBundle) (*graph.WriteResult, error) {
	args := m.Called(ctx, entities, associations)
	if res, ok := args.Get(0).(*graph.WriteResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Writer) SubmitPartialReplace(ctx context.Context, entities graph.ReplaceBundle) error {
	args := m.Called(ctx, entities)
	return args.Error(0)
}

func (m *Writer) DeleteRecords(ctx context.Context, specs []graph.DeletionSpec) error {
	args := m.Called(ctx, specs)
	return args.Error(0)
}

// NeighborQuerier is a mock for graph.NeighborQuerier.
type NeighborQuerier struct {
	mock.Mock
}

func (m *NeighborQuerier) QueryNeighbors(ctx context.Context, source graph.CollectionID, filter graph.NeighborFilter) (graph.NeighborMap, error) {
	args := m.Called(ctx, source, filter)
	if res, ok := args.Get(0).(graph.NeighborMap); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// RecordReader is a mock for graph.RecordReader.
type RecordReader struct {
	mock.Mock
}

func (m *RecordReader) GetRecord(ctx context.Context, collection graph.CollectionID, id graph.RecordID) (graph.RawRecord, error) {
	args := m.Called(ctx, collection, id)
	if rec, ok := args.Get(0).(graph.RawRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}
