// Package worksite orchestrates the case-management workflows over the
// graph store: assigning worksite plans, recording and deleting check-ins,
// editing appointments, assembling enrollment views, and keeping the
// cached hours-worked aggregate consistent with its detail records.
package worksite

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"casegraph/internal/graph"
	"casegraph/internal/lifecycle"
	"casegraph/internal/metrics"
	"casegraph/internal/schema"
)

// Service runs the workflows. Each workflow is a plain sequential
// function: it blocks on every store call in order, and independent
// invocations run concurrently with no shared mutable state beyond the
// lifecycle store and the read-only resolver tables.
type Service struct {
	writer    graph.Writer
	neighbors graph.NeighborQuerier
	reader    graph.RecordReader
	resolver  *schema.Resolver
	track     *lifecycle.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService creates the workflow service.
func NewService(
	writer graph.Writer,
	neighbors graph.NeighborQuerier,
	reader graph.RecordReader,
	resolver *schema.Resolver,
	track *lifecycle.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if track == nil {
		track = lifecycle.NewStore()
	}
	return &Service{
		writer:    writer,
		neighbors: neighbors,
		reader:    reader,
		resolver:  resolver,
		track:     track,
		metrics:   m,
		logger:    logger,
	}
}

// Lifecycle exposes the invocation store for callers tracking runs.
func (s *Service) Lifecycle() *lifecycle.Store {
	return s.track
}

// begin opens the invocation's pending phase and returns its start time.
func (s *Service) begin(inv uuid.UUID, workflow string) time.Time {
	s.track.Begin(inv, workflow)
	s.logger.Debug("workflow started", "workflow", workflow, "invocation", inv)
	return time.Now()
}

// finish publishes the terminal phase. It always marks the invocation
// finished, success or failure, and hands the original error back.
func (s *Service) finish(inv uuid.UUID, workflow string, started time.Time, result any, err error) error {
	elapsed := time.Since(started)
	if err != nil {
		s.track.Fail(inv, err)
		s.metrics.ObserveRun(workflow, "failure", elapsed)
		s.logger.Error("workflow failed", "workflow", workflow, "invocation", inv, "error", err)
		return err
	}
	s.track.Succeed(inv, result)
	s.metrics.ObserveRun(workflow, "success", elapsed)
	s.logger.Debug("workflow finished", "workflow", workflow, "invocation", inv, "elapsed", elapsed)
	return nil
}

// firstNeighbor returns the first envelope for id, if any.
func firstNeighbor(m graph.NeighborMap, id graph.RecordID) (graph.NeighborEnvelope, bool) {
	hits := m[id]
	if len(hits) == 0 {
		return graph.NeighborEnvelope{}, false
	}
	return hits[0], true
}
