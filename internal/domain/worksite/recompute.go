package worksite

import (
	"context"

	"github.com/google/uuid"

	"casegraph/internal/domain/records"
	"casegraph/internal/graph"
	"casegraph/internal/schema"
)

var planProperties = []string{
	schema.PropName,
	schema.PropHoursWorked,
	schema.PropRequiredHours,
}

// RecomputeHours re-derives a worksite plan's hours-worked aggregate from
// every check-in detail reachable through its appointments and check-ins,
// and writes the corrected value back only when the cached one has
// drifted. All reads happen before the single possible write, so a failed
// traversal never leaves a partial cache update behind.
//
// Two concurrent recomputations of the same plan can both read the same
// stale cache and both write; the later write wins. That lost-update race
// is accepted: the store holds the source values and the next
// recomputation converges.
func (s *Service) RecomputeHours(ctx context.Context, inv uuid.UUID, req RecomputeRequest) (records.DomainRecord, error) {
	started := s.begin(inv, WorkflowRecomputeHours)
	plan, err := s.recomputeHours(ctx, req)
	return plan, s.finish(inv, WorkflowRecomputeHours, started, plan, err)
}

func (s *Service) recomputeHours(ctx context.Context, req RecomputeRequest) (records.DomainRecord, error) {
	if req.AppointmentID == "" && req.PlanID == "" {
		return nil, ErrMissingInput
	}

	planColl, err := s.resolver.Collection(schema.CollWorksitePlan)
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
	detailColl, err := s.resolver.Collection(schema.CollCheckInDetail)
	if err != nil {
		return nil, err
	}
	hoursProp, err := s.resolver.Property(schema.PropHoursWorked)
	if err != nil {
		return nil, err
	}

	planID := req.PlanID
	if req.AppointmentID != "" {
		planID, err = s.planForAppointment(ctx, req.AppointmentID, apptColl, planColl)
		if err != nil {
			return nil, err
		}
	}

	raw, err := s.reader.GetRecord(ctx, planColl, planID)
	if err != nil {
		return nil, err
	}
	plan, err := records.Project(s.resolver, raw, planProperties)
	if err != nil {
		return nil, err
	}
	cached, _ := plan.Float(schema.PropHoursWorked) // absent reads as 0

	sum, err := s.sumDetailHours(ctx, planID, planColl, apptColl, checkInColl, detailColl)
	if err != nil {
		return nil, err
	}

	if sum != cached {
		replace := graph.ReplaceBundle{
			planColl: {planID: {hoursProp: {sum}}},
		}
		if err := s.writer.SubmitPartialReplace(ctx, replace); err != nil {
			return nil, err
		}
		s.logger.Info("hours aggregate corrected",
			"plan", planID, "cached", cached, "computed", sum)
	}
	s.metrics.ObserveRecompute(sum != cached)

	plan[schema.PropHoursWorked] = sum
	return plan, nil
}

// planForAppointment resolves the worksite plan owning an appointment by a
// one-hop traversal and takes the first match.
func (s *Service) planForAppointment(ctx context.Context, apptID graph.RecordID, apptColl, planColl graph.CollectionID) (graph.RecordID, error) {
	hits, err := s.neighbors.QueryNeighbors(ctx, apptColl, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{apptID},
		DstCollections: []graph.CollectionID{planColl},
		SrcCollections: []graph.CollectionID{planColl},
	})
	if err != nil {
		return "", err
	}
	hit, ok := firstNeighbor(hits, apptID)
	if !ok {
		return "", ErrPlanNotFound
	}
	return hit.NeighborID, nil
}

// sumDetailHours walks plan -> appointments -> check-ins -> details and
// sums the detail hours. An empty level anywhere yields 0. Every level is
// accumulated in traversal order, never map order: float addition is not
// associative, and a drifting addition order would make identical inputs
// produce bit-different sums and spurious cache writes.
func (s *Service) sumDetailHours(ctx context.Context, planID graph.RecordID, planColl, apptColl, checkInColl, detailColl graph.CollectionID) (float64, error) {
	apptHits, err := s.neighbors.QueryNeighbors(ctx, planColl, graph.NeighborFilter{
		RecordIDs:      []graph.RecordID{planID},
		SrcCollections: []graph.CollectionID{apptColl},
	})
	if err != nil {
		return 0, err
	}
	apptIDs := neighborIDs(apptHits, []graph.RecordID{planID})
	if len(apptIDs) == 0 {
		return 0, nil
	}

	checkInHits, err := s.neighbors.QueryNeighbors(ctx, apptColl, graph.NeighborFilter{
		RecordIDs:      apptIDs,
		SrcCollections: []graph.CollectionID{checkInColl},
	})
	if err != nil {
		return 0, err
	}
	checkInIDs := neighborIDs(checkInHits, apptIDs)
	if len(checkInIDs) == 0 {
		return 0, nil
	}

	detailHits, err := s.neighbors.QueryNeighbors(ctx, checkInColl, graph.NeighborFilter{
		RecordIDs:      checkInIDs,
		DstCollections: []graph.CollectionID{detailColl},
	})
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, id := range checkInIDs {
		for _, hit := range detailHits[id] {
			detail, err := records.Project(s.resolver, hit.Neighbor, []string{schema.PropHoursWorked})
			if err != nil {
				return 0, err
			}
			if hours, ok := detail.Float(schema.PropHoursWorked); ok {
				sum += hours
			}
		}
	}
	return sum, nil
}

// neighborIDs flattens the hits for the queried sources into distinct
// neighbor ids. Order follows the sources slice, then hit order within
// each source, so identical inputs always yield the identical slice.
func neighborIDs(m graph.NeighborMap, sources []graph.RecordID) []graph.RecordID {
	seen := make(map[graph.RecordID]bool)
	var ids []graph.RecordID
	for _, src := range sources {
		for _, hit := range m[src] {
			if !seen[hit.NeighborID] {
				seen[hit.NeighborID] = true
				ids = append(ids, hit.NeighborID)
			}
		}
	}
	return ids
}
