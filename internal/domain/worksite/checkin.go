package worksite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"casegraph/internal/domain/records"
	"casegraph/internal/graph"
	"casegraph/internal/schema"
)

// CheckIn writes a check-in graph bundle and then recomputes the owning
// plan's hours aggregate before reporting success, so callers never see a
// created check-in with a stale aggregate. The appointment being fulfilled
// is read out of the association bundle itself.
func (s *Service) CheckIn(ctx context.Context, inv uuid.UUID, req CheckInRequest) (*CheckInResult, error) {
	started := s.begin(inv, WorkflowCheckIn)
	result, err := s.checkIn(ctx, req)
	return result, s.finish(inv, WorkflowCheckIn, started, result, err)
}

func (s *Service) checkIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	if len(req.Entities) == 0 {
		return nil, ErrMissingInput
	}

	checkInColl, err := s.resolver.Collection(schema.CollCheckIn)
	if err != nil {
		return nil, err
	}
	detailColl, err := s.resolver.Collection(schema.CollCheckInDetail)
	if err != nil {
		return nil, err
	}

	apptID, err := s.appointmentFromBundle(req.Associations)
	if err != nil {
		return nil, err
	}

	written, err := s.writer.SubmitGraph(ctx, req.Entities, req.Associations)
	if err != nil {
		return nil, err
	}
	checkInIDs := written.GeneratedIDs[checkInColl]
	if len(checkInIDs) == 0 {
		return nil, fmt.Errorf("%w: check-in", ErrNoGeneratedID)
	}

	result := &CheckInResult{CheckInID: checkInIDs[0]}
	if detailIDs := written.GeneratedIDs[detailColl]; len(detailIDs) > 0 {
		result.DetailID = detailIDs[0]
	}

	plan, err := s.recomputeHours(ctx, RecomputeRequest{AppointmentID: apptID})
	if err != nil {
		return nil, fmt.Errorf("check-in written but aggregate recompute failed: %w", err)
	}
	result.Plan = plan
	return result, nil
}

// appointmentFromBundle extracts the fulfilled appointment's identifier
// from the association bundle.
func (s *Service) appointmentFromBundle(associations graph.AssociationBundle) (graph.RecordID, error) {
	fulfillsColl, err := s.resolver.Collection(schema.CollFulfills)
	if err != nil {
		return "", err
	}
	apptColl, err := s.resolver.Collection(schema.CollAppointment)
	if err != nil {
		return "", err
	}
	for _, assoc := range associations[fulfillsColl] {
		if assoc.Dst.Collection == apptColl && assoc.Dst.RecordID != "" {
			return assoc.Dst.RecordID, nil
		}
	}
	return "", ErrMissingAppointmentLink
}

// DeleteCheckIn removes check-in records and recomputes the affected
// plan's aggregate. The delete is permanent once issued: if the
// recomputation then fails, the workflow still reports failure, leaving a
// documented inconsistency window until the next successful recompute.
// Recomputing first instead would sum against data the delete is about to
// remove.
func (s *Service) DeleteCheckIn(ctx context.Context, inv uuid.UUID, req DeleteCheckInRequest) (records.DomainRecord, error) {
	started := s.begin(inv, WorkflowDeleteCheckIn)
	plan, err := s.deleteCheckIn(ctx, req)
	return plan, s.finish(inv, WorkflowDeleteCheckIn, started, plan, err)
}

func (s *Service) deleteCheckIn(ctx context.Context, req DeleteCheckInRequest) (records.DomainRecord, error) {
	if len(req.Deletions) == 0 {
		return nil, ErrMissingInput
	}
	if req.AppointmentID == "" && req.PlanID == "" {
		return nil, ErrMissingInput
	}

	if err := s.writer.DeleteRecords(ctx, req.Deletions); err != nil {
		return nil, err
	}

	plan, err := s.recomputeHours(ctx, RecomputeRequest{
		AppointmentID: req.AppointmentID,
		PlanID:        req.PlanID,
	})
	if err != nil {
		return nil, fmt.Errorf("check-in deleted but aggregate recompute failed: %w", err)
	}
	return plan, nil
}

// BuildCheckInBundle assembles the entity and association bundles for one
// check-in against an existing appointment: a check-in record, a detail
// record carrying the hours, the fulfills edge to the appointment, and the
// edge binding the detail to its check-in. New records are referenced by
// bundle index.
func BuildCheckInBundle(resolver *schema.Resolver, apptID graph.RecordID, times CheckInTimes) (graph.EntityBundle, graph.AssociationBundle, error) {
	checkInColl, err := resolver.Collection(schema.CollCheckIn)
	if err != nil {
		return nil, nil, err
	}
	detailColl, err := resolver.Collection(schema.CollCheckInDetail)
	if err != nil {
		return nil, nil, err
	}
	apptColl, err := resolver.Collection(schema.CollAppointment)
	if err != nil {
		return nil, nil, err
	}
	fulfillsColl, err := resolver.Collection(schema.CollFulfills)
	if err != nil {
		return nil, nil, err
	}
	hasColl, err := resolver.Collection(schema.CollHasDetail)
	if err != nil {
		return nil, nil, err
	}
	startProp, err := resolver.Property(schema.PropStart)
	if err != nil {
		return nil, nil, err
	}
	endProp, err := resolver.Property(schema.PropEnd)
	if err != nil {
		return nil, nil, err
	}
	hoursProp, err := resolver.Property(schema.PropHoursWorked)
	if err != nil {
		return nil, nil, err
	}

	entities := graph.EntityBundle{
		checkInColl: {{
			startProp: {times.Start.Format(time.RFC3339)},
			endProp:   {times.End.Format(time.RFC3339)},
		}},
		detailColl: {{
			hoursProp: {times.HoursWorked},
		}},
	}

	idx := 0
	associations := graph.AssociationBundle{
		fulfillsColl: {{
			Src: graph.EndpointRef{Collection: checkInColl, Index: &idx},
			Dst: graph.EndpointRef{Collection: apptColl, RecordID: apptID},
		}},
		hasColl: {{
			Src: graph.EndpointRef{Collection: checkInColl, Index: &idx},
			Dst: graph.EndpointRef{Collection: detailColl, Index: &idx},
		}},
	}
	return entities, associations, nil
}
