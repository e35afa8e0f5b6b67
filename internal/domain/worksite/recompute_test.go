package worksite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"casegraph/internal/domain/worksite"
	"casegraph/internal/graph"
	"casegraph/internal/graph/mocks"
	"casegraph/internal/lifecycle"
	"casegraph/internal/schema"
)

// expectTraversal wires the three-hop traversal plan -> appointment ->
// check-in -> detail with a single chain carrying the given detail hours.
func expectTraversal(h *harness, ctx context.Context, hours ...float64) {
	h.neighbors.On("QueryNeighbors", ctx, collPlan, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"p1"},
		SrcCollections: []graph.CollectionID{collAppt},
	}).Return(graph.NeighborMap{
		"p1": {neighbor(collAppt, "a1", nil, collRegistered, "e1")},
	}, nil)

	h.neighbors.On("QueryNeighbors", ctx, collAppt, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"a1"},
		SrcCollections: []graph.CollectionID{collCheckIn},
	}).Return(graph.NeighborMap{
		"a1": {neighbor(collCheckIn, "c1", nil, collFulfills, "e2")},
	}, nil)

	details := make([]graph.NeighborEnvelope, len(hours))
	for i, hrs := range hours {
		details[i] = neighbor(collDetail, graph.RecordID(uuid.NewString()), graph.RawRecord{propHours: {hrs}}, collHas, graph.RecordID(uuid.NewString()))
	}
	h.neighbors.On("QueryNeighbors", ctx, collCheckIn, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"c1"},
		DstCollections: []graph.CollectionID{collDetail},
	}).Return(graph.NeighborMap{"c1": details}, nil)
}

func planRecord(cachedHours float64) graph.RawRecord {
	return graph.RawRecord{
		propName:     {"Greenway Park"},
		propHours:    {cachedHours},
		propRequired: {25.0},
	}
}

func TestRecomputeHours_WritesCorrectedSum(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	inv := uuid.New()

	h.reader.On("GetRecord", ctx, collPlan, graph.RecordID("p1")).Return(planRecord(0), nil)
	expectTraversal(h, ctx, 4.5)
	h.writer.On("SubmitPartialReplace", ctx, graph.ReplaceBundle{
		collPlan: {"p1": {propHours: {4.5}}},
	}).Return(nil)

	plan, err := h.svc.RecomputeHours(ctx, inv, worksite.RecomputeRequest{PlanID: "p1"})
	require.NoError(t, err)

	hours, ok := plan.Float(schema.PropHoursWorked)
	require.True(t, ok)
	require.Equal(t, 4.5, hours)
	h.writer.AssertExpectations(t)

	state, ok := h.track.Get(inv)
	require.True(t, ok)
	require.Equal(t, lifecycle.PhaseSuccess, state.Phase)
	require.True(t, state.Finished)
}

func TestRecomputeHours_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.reader.On("GetRecord", ctx, collPlan, graph.RecordID("p1")).Return(planRecord(4.5), nil)
	expectTraversal(h, ctx, 4.5)

	// Two invocations with no underlying change: zero writes, identical
	// aggregate both times.
	for range 2 {
		plan, err := h.svc.RecomputeHours(ctx, uuid.New(), worksite.RecomputeRequest{PlanID: "p1"})
		require.NoError(t, err)
		hours, ok := plan.Float(schema.PropHoursWorked)
		require.True(t, ok)
		require.Equal(t, 4.5, hours)
	}
	h.writer.AssertNotCalled(t, "SubmitPartialReplace", ctx, mock.Anything)
}

func TestRecomputeHours_StableAcrossRepeatedRuns(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	// Three check-ins whose detail hours do not add associatively:
	// 0.1+0.2+0.3 differs bitwise from 0.3+0.2+0.1 in float64. The
	// traversal must accumulate in a fixed order, or an unchanged plan
	// oscillates between the two encodings and every other run writes.
	h.neighbors.On("QueryNeighbors", ctx, collPlan, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"p1"},
		SrcCollections: []graph.CollectionID{collAppt},
	}).Return(graph.NeighborMap{
		"p1": {neighbor(collAppt, "a1", nil, collRegistered, "e1")},
	}, nil)
	h.neighbors.On("QueryNeighbors", ctx, collAppt, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"a1"},
		SrcCollections: []graph.CollectionID{collCheckIn},
	}).Return(graph.NeighborMap{
		"a1": {
			neighbor(collCheckIn, "c1", nil, collFulfills, "e2"),
			neighbor(collCheckIn, "c2", nil, collFulfills, "e3"),
			neighbor(collCheckIn, "c3", nil, collFulfills, "e4"),
		},
	}, nil)
	// The exact id slice here also pins the check-in hop to hit order.
	h.neighbors.On("QueryNeighbors", ctx, collCheckIn, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"c1", "c2", "c3"},
		DstCollections: []graph.CollectionID{collDetail},
	}).Return(graph.NeighborMap{
		"c1": {neighbor(collDetail, "d1", graph.RawRecord{propHours: {0.1}}, collHas, "e5")},
		"c2": {neighbor(collDetail, "d2", graph.RawRecord{propHours: {0.2}}, collHas, "e6")},
		"c3": {neighbor(collDetail, "d3", graph.RawRecord{propHours: {0.3}}, collHas, "e7")},
	}, nil)

	// Accumulate at runtime in check-in order; a constant expression
	// would round differently.
	var want float64
	for _, hrs := range []float64{0.1, 0.2, 0.3} {
		want += hrs
	}
	h.reader.On("GetRecord", ctx, collPlan, graph.RecordID("p1")).Return(planRecord(want), nil)

	for range 50 {
		plan, err := h.svc.RecomputeHours(ctx, uuid.New(), worksite.RecomputeRequest{PlanID: "p1"})
		require.NoError(t, err)
		hours, ok := plan.Float(schema.PropHoursWorked)
		require.True(t, ok)
		require.Equal(t, want, hours)
	}
	h.writer.AssertNotCalled(t, "SubmitPartialReplace", ctx, mock.Anything)
}

func TestRecomputeHours_SumsAcrossDetails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.reader.On("GetRecord", ctx, collPlan, graph.RecordID("p1")).Return(planRecord(1), nil)
	expectTraversal(h, ctx, 2.0, 3.25, 0.75)
	h.writer.On("SubmitPartialReplace", ctx, graph.ReplaceBundle{
		collPlan: {"p1": {propHours: {6.0}}},
	}).Return(nil)

	plan, err := h.svc.RecomputeHours(ctx, uuid.New(), worksite.RecomputeRequest{PlanID: "p1"})
	require.NoError(t, err)
	hours, _ := plan.Float(schema.PropHoursWorked)
	require.Equal(t, 6.0, hours)
	h.writer.AssertExpectations(t)
}

func TestRecomputeHours_EmptyPlanSumsToZero(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.reader.On("GetRecord", ctx, collPlan, graph.RecordID("p1")).Return(planRecord(3), nil)
	h.neighbors.On("QueryNeighbors", ctx, collPlan, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"p1"},
		SrcCollections: []graph.CollectionID{collAppt},
	}).Return(graph.NeighborMap{}, nil)
	h.writer.On("SubmitPartialReplace", ctx, graph.ReplaceBundle{
		collPlan: {"p1": {propHours: {0.0}}},
	}).Return(nil)

	plan, err := h.svc.RecomputeHours(ctx, uuid.New(), worksite.RecomputeRequest{PlanID: "p1"})
	require.NoError(t, err)
	hours, _ := plan.Float(schema.PropHoursWorked)
	require.Equal(t, 0.0, hours)
	h.writer.AssertExpectations(t)
}

func TestRecomputeHours_ResolvesPlanFromAppointment(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.neighbors.On("QueryNeighbors", ctx, collAppt, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"a1"},
		DstCollections: []graph.CollectionID{collPlan},
		SrcCollections: []graph.CollectionID{collPlan},
	}).Return(graph.NeighborMap{
		"a1": {neighbor(collPlan, "p1", nil, collRegistered, "e1")},
	}, nil)
	h.reader.On("GetRecord", ctx, collPlan, graph.RecordID("p1")).Return(planRecord(4.5), nil)
	expectTraversal(h, ctx, 4.5)

	plan, err := h.svc.RecomputeHours(ctx, uuid.New(), worksite.RecomputeRequest{AppointmentID: "a1"})
	require.NoError(t, err)
	hours, _ := plan.Float(schema.PropHoursWorked)
	require.Equal(t, 4.5, hours)
}

func TestRecomputeHours_AppointmentWithoutPlan(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	h.neighbors.On("QueryNeighbors", ctx, collAppt, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"a1"},
		DstCollections: []graph.CollectionID{collPlan},
		SrcCollections: []graph.CollectionID{collPlan},
	}).Return(graph.NeighborMap{}, nil)

	_, err := h.svc.RecomputeHours(ctx, uuid.New(), worksite.RecomputeRequest{AppointmentID: "a1"})
	require.ErrorIs(t, err, worksite.ErrPlanNotFound)
}

func TestRecomputeHours_TraversalFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	inv := uuid.New()
	cause := &graph.TransportError{Op: "neighbor search", Status: 502, Err: errors.New("bad gateway")}

	h.reader.On("GetRecord", ctx, collPlan, graph.RecordID("p1")).Return(planRecord(0), nil)
	h.neighbors.On("QueryNeighbors", ctx, collPlan, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"p1"},
		SrcCollections: []graph.CollectionID{collAppt},
	}).Return(graph.NeighborMap{
		"p1": {neighbor(collAppt, "a1", nil, collRegistered, "e1")},
	}, nil)
	h.neighbors.On("QueryNeighbors", ctx, collAppt, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"a1"},
		SrcCollections: []graph.CollectionID{collCheckIn},
	}).Return(graph.NeighborMap{
		"a1": {neighbor(collCheckIn, "c1", nil, collFulfills, "e2")},
	}, nil)
	h.neighbors.On("QueryNeighbors", ctx, collCheckIn, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{"c1"},
		DstCollections: []graph.CollectionID{collDetail},
	}).Return(nil, cause)

	_, err := h.svc.RecomputeHours(ctx, inv, worksite.RecomputeRequest{PlanID: "p1"})
	require.Error(t, err)

	var terr *graph.TransportError
	require.ErrorAs(t, err, &terr)
	h.writer.AssertNotCalled(t, "SubmitPartialReplace", ctx, mock.Anything)

	state, ok := h.track.Get(inv)
	require.True(t, ok)
	require.Equal(t, lifecycle.PhaseFailure, state.Phase)
	require.True(t, state.Finished)
	require.ErrorAs(t, state.Err, &terr)
}

func TestRecomputeHours_MissingInput(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.RecomputeHours(context.Background(), uuid.New(), worksite.RecomputeRequest{})
	require.ErrorIs(t, err, worksite.ErrMissingInput)
}

func TestRecomputeHours_UnboundSchemaAborts(t *testing.T) {
	ctx := context.Background()
	resolver, err := schema.NewResolver(schema.Document{
		OrganizationID: "org2",
		Collections:    map[string]string{schema.CollWorksitePlan: "es-plan"},
	})
	require.NoError(t, err)

	svc := worksite.NewService(&mocks.Writer{}, &mocks.NeighborQuerier{}, &mocks.RecordReader{}, resolver, nil, nil, nil)
	_, err = svc.RecomputeHours(ctx, uuid.New(), worksite.RecomputeRequest{PlanID: "p1"})
	require.ErrorIs(t, err, schema.ErrUnknownCollection)
}
