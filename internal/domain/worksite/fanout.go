package worksite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"casegraph/internal/domain/records"
	"casegraph/internal/graph"
	"casegraph/internal/schema"
)

var (
	worksiteProperties    = []string{schema.PropName}
	appointmentProperties = []string{schema.PropStart, schema.PropEnd}
	checkInProperties     = []string{schema.PropStart, schema.PropEnd}
	statusProperties      = []string{schema.PropStatus, schema.PropEffectiveDate, schema.PropCompleted}
)

// PlansForEnrollment assembles the denormalized view of every worksite
// plan under an enrollment: the plan itself, its worksite, its
// appointments with their check-ins, and its most recent status. The three
// per-plan branches run concurrently and all must finish before the view
// is reported; the first error wins, and branches already in flight are
// not cancelled (completed branches' reads are simply discarded).
func (s *Service) PlansForEnrollment(ctx context.Context, inv uuid.UUID, enrollmentID graph.RecordID) (*EnrollmentView, error) {
	started := s.begin(inv, WorkflowEnrollmentPlans)
	view, err := s.plansForEnrollment(ctx, enrollmentID)
	return view, s.finish(inv, WorkflowEnrollmentPlans, started, view, err)
}

func (s *Service) plansForEnrollment(ctx context.Context, enrollmentID graph.RecordID) (*EnrollmentView, error) {
	if enrollmentID == "" {
		return nil, ErrMissingInput
	}

	enrollmentColl, err := s.resolver.Collection(schema.CollDiversionPlan)
	if err != nil {
		return nil, err
	}
	planColl, err := s.resolver.Collection(schema.CollWorksitePlan)
	if err != nil {
		return nil, err
	}
	worksiteColl, err := s.resolver.Collection(schema.CollWorksite)
	if err != nil {
		return nil, err
	}
	apptColl, err := s.resolver.Collection(schema.CollAppointment)
	if err != nil {
		return nil, err
	}
	checkInColl, err := s.resolver.Collection(schema.CollCheckIn)
	if err != nil {
		return nil, err
	}
	statusColl, err := s.resolver.Collection(schema.CollEnrollmentStatus)
	if err != nil {
		return nil, err
	}

	planHits, err := s.neighbors.QueryNeighbors(ctx, enrollmentColl, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{enrollmentID},
		SrcCollections: []graph.CollectionID{planColl},
	})
	if err != nil {
		return nil, err
	}
	planEnvelopes := planHits[enrollmentID]
	if len(planEnvelopes) == 0 {
		return &EnrollmentView{EnrollmentID: enrollmentID}, nil
	}
	planIDs := make([]graph.RecordID, len(planEnvelopes))
	for i, hit := range planEnvelopes {
		planIDs[i] = hit.NeighborID
	}

	var (
		worksiteHits graph.NeighborMap
		apptHits     graph.NeighborMap
		checkInHits  graph.NeighborMap
		statusHits   graph.NeighborMap
	)

	// Plain errgroup, not WithContext: sibling branches run to completion
	// even when one fails.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		worksiteHits, err = s.neighbors.QueryNeighbors(ctx, planColl, graph.NeighborFilter{
			RecordIDs:      planIDs,
			DstCollections: []graph.CollectionID{worksiteColl},
		})
		return err
	})
	g.Go(func() error {
		var err error
		apptHits, err = s.neighbors.QueryNeighbors(ctx, planColl, graph.NeighborFilter{
			RecordIDs:      planIDs,
			SrcCollections: []graph.CollectionID{apptColl},
		})
		if err != nil {
			return err
		}
		apptIDs := neighborIDs(apptHits, planIDs)
		if len(apptIDs) == 0 {
			return nil
		}
		checkInHits, err = s.neighbors.QueryNeighbors(ctx, apptColl, graph.NeighborFilter{
			RecordIDs:      apptIDs,
			SrcCollections: []graph.CollectionID{checkInColl},
		})
		return err
	})
	g.Go(func() error {
		var err error
		statusHits, err = s.neighbors.QueryNeighbors(ctx, planColl, graph.NeighborFilter{
			RecordIDs:      planIDs,
			SrcCollections: []graph.CollectionID{statusColl},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &EnrollmentView{EnrollmentID: enrollmentID}
	for _, planHit := range planEnvelopes {
		planID := planHit.NeighborID
		plan, err := records.Project(s.resolver, planHit.Neighbor, planProperties)
		if err != nil {
			return nil, err
		}
		pv := PlanView{PlanID: planID, Plan: plan}

		if hit, ok := firstNeighbor(worksiteHits, planID); ok {
			worksite, err := records.Project(s.resolver, hit.Neighbor, worksiteProperties)
			if err != nil {
				return nil, err
			}
			pv.WorksiteID = hit.NeighborID
			pv.Worksite = worksite
		}

		for _, apptHit := range apptHits[planID] {
			appt, err := records.Project(s.resolver, apptHit.Neighbor, appointmentProperties)
			if err != nil {
				return nil, err
			}
			av := AppointmentView{AppointmentID: apptHit.NeighborID, Appointment: appt}
			if checkInHit, ok := firstNeighbor(checkInHits, apptHit.NeighborID); ok {
				checkIn, err := records.Project(s.resolver, checkInHit.Neighbor, checkInProperties)
				if err != nil {
					return nil, err
				}
				av.CheckInID = checkInHit.NeighborID
				av.CheckIn = checkIn
			}
			pv.Appointments = append(pv.Appointments, av)
		}

		status, err := s.latestStatus(statusHits[planID])
		if err != nil {
			return nil, err
		}
		pv.Status = status

		view.Plans = append(view.Plans, pv)
	}
	return view, nil
}

// latestStatus projects every status hit and keeps the one with the most
// recent effective date. Ties keep the first seen; a status without an
// effective date never beats one that has it.
func (s *Service) latestStatus(hits []graph.NeighborEnvelope) (records.DomainRecord, error) {
	var latest records.DomainRecord
	var latestAt time.Time
	for _, hit := range hits {
		status, err := records.Project(s.resolver, hit.Neighbor, statusProperties)
		if err != nil {
			return nil, err
		}
		at, ok := status.Time(schema.PropEffectiveDate)
		if latest == nil {
			latest, latestAt = status, at
			continue
		}
		if ok && at.After(latestAt) {
			latest, latestAt = status, at
		}
	}
	return latest, nil
}
