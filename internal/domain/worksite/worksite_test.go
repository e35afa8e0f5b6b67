package worksite_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"casegraph/internal/domain/worksite"
	"casegraph/internal/graph"
	"casegraph/internal/graph/mocks"
	"casegraph/internal/lifecycle"
	"casegraph/internal/schema"
)

// Collection and property ids used across the workflow tests.
const (
	collEnrollment = graph.CollectionID("es-enrollment")
	collPlan       = graph.CollectionID("es-plan")
	collWorksite   = graph.CollectionID("es-worksite")
	collAppt       = graph.CollectionID("es-appt")
	collCheckIn    = graph.CollectionID("es-checkin")
	collDetail     = graph.CollectionID("es-detail")
	collStatus     = graph.CollectionID("es-status")
	collAssigned   = graph.CollectionID("es-assigned")
	collPartOf     = graph.CollectionID("es-partof")
	collRegistered = graph.CollectionID("es-registered")
	collFulfills   = graph.CollectionID("es-fulfills")
	collHas        = graph.CollectionID("es-has")
	collRelated    = graph.CollectionID("es-related")

	propName      = graph.PropertyID("pt-name")
	propHours     = graph.PropertyID("pt-hours")
	propRequired  = graph.PropertyID("pt-required")
	propStart     = graph.PropertyID("pt-start")
	propEnd       = graph.PropertyID("pt-end")
	propStatus    = graph.PropertyID("pt-status")
	propEffective = graph.PropertyID("pt-effective")
	propCompleted = graph.PropertyID("pt-completed")
)

func newTestResolver(t *testing.T) *schema.Resolver {
	t.Helper()
	r, err := schema.NewResolver(schema.Document{
		OrganizationID: "org1",
		Collections: map[string]string{
			schema.CollDiversionPlan:    string(collEnrollment),
			schema.CollWorksitePlan:     string(collPlan),
			schema.CollWorksite:         string(collWorksite),
			schema.CollAppointment:      string(collAppt),
			schema.CollCheckIn:          string(collCheckIn),
			schema.CollCheckInDetail:    string(collDetail),
			schema.CollEnrollmentStatus: string(collStatus),
			schema.CollAssignedTo:       string(collAssigned),
			schema.CollPartOf:           string(collPartOf),
			schema.CollRegisteredAt:     string(collRegistered),
			schema.CollFulfills:         string(collFulfills),
			schema.CollHasDetail:        string(collHas),
			schema.CollRelatedTo:        string(collRelated),
		},
		Properties: map[string]string{
			schema.PropName:          string(propName),
			schema.PropHoursWorked:   string(propHours),
			schema.PropRequiredHours: string(propRequired),
			schema.PropStart:         string(propStart),
			schema.PropEnd:           string(propEnd),
			schema.PropStatus:        string(propStatus),
			schema.PropEffectiveDate: string(propEffective),
			schema.PropCompleted:     string(propCompleted),
		},
	})
	require.NoError(t, err)
	return r
}

type harness struct {
	writer    *mocks.Writer
	neighbors *mocks.NeighborQuerier
	reader    *mocks.RecordReader
	track     *lifecycle.Store
	svc       *worksite.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		writer:    &mocks.Writer{},
		neighbors: &mocks.NeighborQuerier{},
		reader:    &mocks.RecordReader{},
		track:     lifecycle.NewStore(),
	}
	h.svc = worksite.NewService(h.writer, h.neighbors, h.reader, newTestResolver(t), h.track, nil, nil)
	return h
}

// neighbor builds an envelope for a record connected through an edge.
func neighbor(coll graph.CollectionID, id graph.RecordID, raw graph.RawRecord, edgeColl graph.CollectionID, edgeID graph.RecordID) graph.NeighborEnvelope {
	return graph.NeighborEnvelope{
		NeighborCollection: coll,
		NeighborID:         id,
		Neighbor:           raw,
		EdgeCollection:     edgeColl,
		EdgeID:             edgeID,
	}
}
