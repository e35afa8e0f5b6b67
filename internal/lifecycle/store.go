// Package lifecycle tracks workflow invocations through their four-phase
// request lifecycle: a pending phase on entry, then exactly one of success
// or failure, with a finished flag set on either terminal so callers can
// always clear loading state.
package lifecycle

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Phase is the current stage of one invocation.
type Phase string

const (
	PhasePending Phase = "PENDING"
	PhaseSuccess Phase = "SUCCESS"
	PhaseFailure Phase = "FAILURE"
)

// Invocation is the tracked state of one workflow run. Result is the
// workflow's published value on success; Err the original error on failure.
type Invocation struct {
	ID         uuid.UUID
	Workflow   string
	Phase      Phase
	Result     any
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
	Finished   bool
}

// Store holds invocation state keyed by caller-supplied invocation id.
// Independent invocations of the same workflow never cross-talk; a caller
// retries by issuing a fresh id, and stale ids are simply abandoned.
type Store struct {
	mu          sync.RWMutex
	invocations map[uuid.UUID]Invocation
}

// NewStore creates an empty lifecycle store.
func NewStore() *Store {
	return &Store{invocations: make(map[uuid.UUID]Invocation)}
}

// Begin records a new pending invocation, replacing any prior state under
// the same id.
func (s *Store) Begin(id uuid.UUID, workflow string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invocations[id] = Invocation{
		ID:        id,
		Workflow:  workflow,
		Phase:     PhasePending,
		StartedAt: time.Now(),
	}
}

// Succeed marks the invocation finished with a published result.
func (s *Store) Succeed(id uuid.UUID, result any) {
	s.finish(id, PhaseSuccess, result, nil)
}

// Fail marks the invocation finished with the original error attached.
func (s *Store) Fail(id uuid.UUID, err error) {
	s.finish(id, PhaseFailure, nil, err)
}

func (s *Store) finish(id uuid.UUID, phase Phase, result any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.invocations[id]
	inv.ID = id
	inv.Phase = phase
	inv.Result = result
	inv.Err = err
	inv.Finished = true
	inv.FinishedAt = time.Now()
	s.invocations[id] = inv
}

// Get returns the state of an invocation, if tracked.
func (s *Store) Get(id uuid.UUID) (Invocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invocations[id]
	return inv, ok
}
