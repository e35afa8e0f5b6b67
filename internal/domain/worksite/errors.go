package worksite

import "errors"

var (
	// ErrMissingInput indicates a workflow was invoked without a required
	// input.
	ErrMissingInput = errors.New("missing workflow input")
	// ErrPlanNotFound indicates no worksite plan is connected to the given
	// appointment.
	ErrPlanNotFound = errors.New("worksite plan not found for appointment")
	// ErrMissingAppointmentLink indicates a check-in bundle carries no edge
	// to an existing appointment.
	ErrMissingAppointmentLink = errors.New("check-in bundle has no appointment association")
	// ErrAssignmentNotFound indicates an appointment has no plan edge to
	// move.
	ErrAssignmentNotFound = errors.New("appointment has no worksite plan assignment")
	// ErrNoGeneratedID indicates the store acknowledged a write without
	// returning an identifier for a submitted record.
	ErrNoGeneratedID = errors.New("store returned no generated record id")
)
