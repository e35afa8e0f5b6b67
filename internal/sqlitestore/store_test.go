package sqlitestore_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"casegraph/internal/graph"
	"casegraph/internal/sqlitestore"
)

func newStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlitestore.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })
	return sqlitestore.NewStore(db)
}

func TestStore_SubmitGraphAndRead(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	idx := 0
	written, err := store.SubmitGraph(ctx, graph.EntityBundle{
		"es-plan": {{"pt-name": {"Park"}, "pt-hours": {0.0}}},
	}, graph.AssociationBundle{
		"es-assigned": {{
			Src: graph.EndpointRef{Collection: "es-plan", Index: &idx},
			Dst: graph.EndpointRef{Collection: "es-worksite", RecordID: "w1"},
		}},
	})
	require.NoError(t, err)
	require.Len(t, written.GeneratedIDs["es-plan"], 1)
	require.Len(t, written.GeneratedIDs["es-assigned"], 1)

	planID := written.GeneratedIDs["es-plan"][0]
	raw, err := store.GetRecord(ctx, "es-plan", planID)
	require.NoError(t, err)
	require.Equal(t, []any{"Park"}, raw["pt-name"])
	require.Equal(t, []any{0.0}, raw["pt-hours"])
}

func TestStore_GeneratedIDOrderFollowsSubmission(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	written, err := store.SubmitGraph(ctx, graph.EntityBundle{
		"es-appt": {
			{"pt-start": {"a"}},
			{"pt-start": {"b"}},
			{"pt-start": {"c"}},
		},
	}, nil)
	require.NoError(t, err)
	ids := written.GeneratedIDs["es-appt"]
	require.Len(t, ids, 3)

	for i, want := range []string{"a", "b", "c"} {
		raw, err := store.GetRecord(ctx, "es-appt", ids[i])
		require.NoError(t, err)
		require.Equal(t, []any{want}, raw["pt-start"])
	}
}

func TestStore_QueryNeighborsBothDirections(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// plan <- appointment (incoming), checkin -> detail (outgoing).
	written, err := store.SubmitGraph(ctx, graph.EntityBundle{
		"es-plan":    {{"pt-name": {"Park"}}},
		"es-appt":    {{"pt-start": {"s"}}},
		"es-checkin": {{}},
		"es-detail":  {{"pt-hours": {4.5}}},
	}, nil)
	require.NoError(t, err)
	planID := written.GeneratedIDs["es-plan"][0]
	apptID := written.GeneratedIDs["es-appt"][0]
	checkInID := written.GeneratedIDs["es-checkin"][0]
	detailID := written.GeneratedIDs["es-detail"][0]

	_, err = store.SubmitGraph(ctx, nil, graph.AssociationBundle{
		"es-registered": {{
			Src: graph.EndpointRef{Collection: "es-appt", RecordID: apptID},
			Dst: graph.EndpointRef{Collection: "es-plan", RecordID: planID},
		}},
		"es-has": {{
			Src: graph.EndpointRef{Collection: "es-checkin", RecordID: checkInID},
			Dst: graph.EndpointRef{Collection: "es-detail", RecordID: detailID},
		}},
	})
	require.NoError(t, err)

	// Incoming: appointments arriving at the plan.
	hits, err := store.QueryNeighbors(ctx, "es-plan", graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{planID},
		SrcCollections: []graph.CollectionID{"es-appt"},
	})
	require.NoError(t, err)
	require.Len(t, hits[planID], 1)
	require.Equal(t, apptID, hits[planID][0].NeighborID)
	require.Equal(t, graph.CollectionID("es-appt"), hits[planID][0].NeighborCollection)
	require.Equal(t, []any{"s"}, hits[planID][0].Neighbor["pt-start"])

	// Outgoing: details hanging off the check-in.
	hits, err = store.QueryNeighbors(ctx, "es-checkin", graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{checkInID},
		DstCollections: []graph.CollectionID{"es-detail"},
	})
	require.NoError(t, err)
	require.Len(t, hits[checkInID], 1)
	require.Equal(t, detailID, hits[checkInID][0].NeighborID)
	require.Equal(t, []any{4.5}, hits[checkInID][0].Neighbor["pt-hours"])

	// Collection filter excludes unrelated neighbors.
	hits, err = store.QueryNeighbors(ctx, "es-plan", graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{planID},
		SrcCollections: []graph.CollectionID{"es-checkin"},
	})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestStore_PartialReplace(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	written, err := store.SubmitGraph(ctx, graph.EntityBundle{
		"es-plan": {{"pt-name": {"Park"}, "pt-hours": {0.0}}},
	}, nil)
	require.NoError(t, err)
	planID := written.GeneratedIDs["es-plan"][0]

	err = store.SubmitPartialReplace(ctx, graph.ReplaceBundle{
		"es-plan": {planID: {"pt-hours": {4.5}}},
	})
	require.NoError(t, err)

	raw, err := store.GetRecord(ctx, "es-plan", planID)
	require.NoError(t, err)
	require.Equal(t, []any{4.5}, raw["pt-hours"])
	// Untouched properties survive.
	require.Equal(t, []any{"Park"}, raw["pt-name"])
}

func TestStore_PartialReplaceUnknownRecord(t *testing.T) {
	store := newStore(t)
	err := store.SubmitPartialReplace(context.Background(), graph.ReplaceBundle{
		"es-plan": {"missing": {"pt-hours": {1.0}}},
	})
	require.ErrorIs(t, err, graph.ErrRecordNotFound)
}

func TestStore_DeleteLeavesEdgesDangling(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	written, err := store.SubmitGraph(ctx, graph.EntityBundle{
		"es-appt":    {{}},
		"es-checkin": {{}},
	}, nil)
	require.NoError(t, err)
	apptID := written.GeneratedIDs["es-appt"][0]
	checkInID := written.GeneratedIDs["es-checkin"][0]

	edges, err := store.SubmitGraph(ctx, nil, graph.AssociationBundle{
		"es-fulfills": {{
			Src: graph.EndpointRef{Collection: "es-checkin", RecordID: checkInID},
			Dst: graph.EndpointRef{Collection: "es-appt", RecordID: apptID},
		}},
	})
	require.NoError(t, err)
	edgeID := edges.GeneratedIDs["es-fulfills"][0]

	// Deleting the check-in record does not remove the edge.
	require.NoError(t, store.DeleteRecords(ctx, []graph.DeletionSpec{{
		Collection: "es-checkin", RecordIDs: []graph.RecordID{checkInID},
	}}))

	_, err = store.GetRecord(ctx, "es-checkin", checkInID)
	require.ErrorIs(t, err, graph.ErrRecordNotFound)

	hits, err := store.QueryNeighbors(ctx, "es-appt", graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{apptID},
		SrcCollections: []graph.CollectionID{"es-checkin"},
	})
	require.NoError(t, err)
	require.Len(t, hits[apptID], 1, "edge should dangle after endpoint deletion")

	// Deleting the edge's own record removes it.
	require.NoError(t, store.DeleteRecords(ctx, []graph.DeletionSpec{{
		Collection: "es-fulfills", RecordIDs: []graph.RecordID{edgeID},
	}}))
	hits, err = store.QueryNeighbors(ctx, "es-appt", graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{apptID},
		SrcCollections: []graph.CollectionID{"es-checkin"},
	})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestStore_APIKeys(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.AddAPIKey(ctx, "token-1", "org1"))

	orgID, err := store.ResolveOrganization(ctx, "token-1")
	require.NoError(t, err)
	require.Equal(t, "org1", orgID)

	_, err = store.ResolveOrganization(ctx, "nope")
	require.Error(t, err)
}
