package worksite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"casegraph/internal/domain/records"
	"casegraph/internal/graph"
	"casegraph/internal/schema"
)

// Assign creates a worksite plan for an enrollment at a worksite: one new
// plan record plus its edges to the worksite and the enrollment, written
// as a single graph. The plan's hours aggregate is seeded at zero so a
// later recompute over an empty plan is a no-op rather than a write.
func (s *Service) Assign(ctx context.Context, inv uuid.UUID, req AssignRequest) (*Assignment, error) {
	started := s.begin(inv, WorkflowAssign)
	assignment, err := s.assign(ctx, req)
	return assignment, s.finish(inv, WorkflowAssign, started, assignment, err)
}

func (s *Service) assign(ctx context.Context, req AssignRequest) (*Assignment, error) {
	if req.EnrollmentID == "" || req.WorksiteID == "" {
		return nil, ErrMissingInput
	}

	planColl, err := s.resolver.Collection(schema.CollWorksitePlan)
	if err != nil {
		return nil, err
	}
	worksiteColl, err := s.resolver.Collection(schema.CollWorksite)
	if err != nil {
		return nil, err
	}
	enrollmentColl, err := s.resolver.Collection(schema.CollDiversionPlan)
	if err != nil {
		return nil, err
	}
	assignedColl, err := s.resolver.Collection(schema.CollAssignedTo)
	if err != nil {
		return nil, err
	}
	partOfColl, err := s.resolver.Collection(schema.CollPartOf)
	if err != nil {
		return nil, err
	}
	nameProp, err := s.resolver.Property(schema.PropName)
	if err != nil {
		return nil, err
	}
	requiredProp, err := s.resolver.Property(schema.PropRequiredHours)
	if err != nil {
		return nil, err
	}
	hoursProp, err := s.resolver.Property(schema.PropHoursWorked)
	if err != nil {
		return nil, err
	}

	idx := 0
	entities := graph.EntityBundle{
		planColl: {{
			nameProp:     {req.PlanName},
			requiredProp: {req.RequiredHours},
			hoursProp:    {0.0},
		}},
	}
	associations := graph.AssociationBundle{
		assignedColl: {{
			Src: graph.EndpointRef{Collection: planColl, Index: &idx},
			Dst: graph.EndpointRef{Collection: worksiteColl, RecordID: req.WorksiteID},
		}},
		partOfColl: {{
			Src: graph.EndpointRef{Collection: planColl, Index: &idx},
			Dst: graph.EndpointRef{Collection: enrollmentColl, RecordID: req.EnrollmentID},
		}},
	}

	written, err := s.writer.SubmitGraph(ctx, entities, associations)
	if err != nil {
		return nil, err
	}
	planIDs := written.GeneratedIDs[planColl]
	if len(planIDs) == 0 {
		return nil, fmt.Errorf("%w: worksite plan", ErrNoGeneratedID)
	}
	planID := planIDs[0]

	raw, err := s.reader.GetRecord(ctx, planColl, planID)
	if err != nil {
		return nil, err
	}
	plan, err := records.Project(s.resolver, raw, planProperties)
	if err != nil {
		return nil, err
	}
	return &Assignment{PlanID: planID, Plan: plan}, nil
}

// EditAppointment overwrites appointment properties and, when NewPlanID is
// set, moves the appointment onto a different worksite plan by replacing
// its plan edge (delete old edge, create new edge). A move recomputes both
// plans, since both aggregates drift.
func (s *Service) EditAppointment(ctx context.Context, inv uuid.UUID, req EditAppointmentRequest) (records.DomainRecord, error) {
	started := s.begin(inv, WorkflowEditAppointment)
	appt, err := s.editAppointment(ctx, req)
	return appt, s.finish(inv, WorkflowEditAppointment, started, appt, err)
}

func (s *Service) editAppointment(ctx context.Context, req EditAppointmentRequest) (records.DomainRecord, error) {
	if req.AppointmentID == "" {
		return nil, ErrMissingInput
	}
	if len(req.Fields) == 0 && req.NewPlanID == "" {
		return nil, ErrMissingInput
	}

	apptColl, err := s.resolver.Collection(schema.CollAppointment)
	if err != nil {
		return nil, err
	}

	if len(req.Fields) > 0 {
		payload := graph.RawRecord{}
		for name, value := range req.Fields {
			prop, err := s.resolver.Property(name)
			if err != nil {
				return nil, err
			}
			payload[prop] = []any{value}
		}
		replace := graph.ReplaceBundle{apptColl: {req.AppointmentID: payload}}
		if err := s.writer.SubmitPartialReplace(ctx, replace); err != nil {
			return nil, err
		}
	}

	if req.NewPlanID != "" {
		if err := s.moveAppointment(ctx, apptColl, req.AppointmentID, req.NewPlanID); err != nil {
			return nil, err
		}
	}

	raw, err := s.reader.GetRecord(ctx, apptColl, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	return records.Project(s.resolver, raw, []string{schema.PropStart, schema.PropEnd})
}

// moveAppointment replaces the appointment's plan edge and recomputes the
// aggregates on both sides of the move.
func (s *Service) moveAppointment(ctx context.Context, apptColl graph.CollectionID, apptID, newPlanID graph.RecordID) error {
	planColl, err := s.resolver.Collection(schema.CollWorksitePlan)
	if err != nil {
		return err
	}
	registeredColl, err := s.resolver.Collection(schema.CollRegisteredAt)
	if err != nil {
		return err
	}

	hits, err := s.neighbors.QueryNeighbors(ctx, apptColl, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{apptID},
		DstCollections: []graph.CollectionID{planColl},
		SrcCollections: []graph.CollectionID{planColl},
	})
	if err != nil {
		return err
	}
	hit, ok := firstNeighbor(hits, apptID)
	if !ok {
		return ErrAssignmentNotFound
	}
	oldPlanID := hit.NeighborID

	if err := s.writer.DeleteRecords(ctx, []graph.DeletionSpec{{
		Collection: hit.EdgeCollection,
		RecordIDs:  []graph.RecordID{hit.EdgeID},
	}}); err != nil {
		return err
	}

	_, err = s.writer.SubmitGraph(ctx, nil, graph.AssociationBundle{
		registeredColl: {{
			Src: graph.EndpointRef{Collection: apptColl, RecordID: apptID},
			Dst: graph.EndpointRef{Collection: planColl, RecordID: newPlanID},
		}},
	})
	if err != nil {
		return err
	}

	if _, err := s.recomputeHours(ctx, RecomputeRequest{PlanID: oldPlanID}); err != nil {
		return fmt.Errorf("recompute moved-from plan: %w", err)
	}
	if _, err := s.recomputeHours(ctx, RecomputeRequest{PlanID: newPlanID}); err != nil {
		return fmt.Errorf("recompute moved-to plan: %w", err)
	}
	return nil
}
