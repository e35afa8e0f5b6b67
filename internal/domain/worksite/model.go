package worksite

import (
	"time"

	"casegraph/internal/domain/records"
	"casegraph/internal/graph"
)

// Workflow names as published to the lifecycle store and metrics.
const (
	WorkflowAssign          = "assignWorksite"
	WorkflowCheckIn         = "checkIn"
	WorkflowDeleteCheckIn   = "deleteCheckIn"
	WorkflowEditAppointment = "editAppointment"
	WorkflowEnrollmentPlans = "enrollmentPlans"
	WorkflowRecomputeHours  = "recomputeHours"
)

// AssignRequest creates a worksite plan binding an enrollment to a
// worksite.
type AssignRequest struct {
	EnrollmentID  graph.RecordID
	WorksiteID    graph.RecordID
	PlanName      string
	RequiredHours float64
}

// Assignment is the created plan with its store-assigned identifier.
type Assignment struct {
	PlanID graph.RecordID
	Plan   records.DomainRecord
}

// CheckInRequest carries the full graph bundle for one check-in: the
// check-in and detail records plus the edge fulfilling an appointment.
// BuildCheckInBundle constructs a conforming pair.
type CheckInRequest struct {
	Entities     graph.EntityBundle
	Associations graph.AssociationBundle
}

// CheckInResult reports the created records and the plan record after its
// hours aggregate has been brought back in line.
type CheckInResult struct {
	CheckInID graph.RecordID
	DetailID  graph.RecordID
	Plan      records.DomainRecord
}

// CheckInTimes are the inputs BuildCheckInBundle writes onto the new
// records.
type CheckInTimes struct {
	Start       time.Time
	End         time.Time
	HoursWorked float64
}

// DeleteCheckInRequest removes check-in records and names the appointment
// (or, failing that, the plan) whose aggregate must be recomputed.
type DeleteCheckInRequest struct {
	Deletions     []graph.DeletionSpec
	AppointmentID graph.RecordID
	PlanID        graph.RecordID
}

// EditAppointmentRequest overwrites appointment properties and optionally
// moves the appointment onto a different worksite plan.
type EditAppointmentRequest struct {
	AppointmentID graph.RecordID
	Fields        records.DomainRecord
	NewPlanID     graph.RecordID
}

// RecomputeRequest identifies the plan whose hours aggregate to re-derive,
// either directly or through one of its appointments. AppointmentID wins
// when both are set.
type RecomputeRequest struct {
	AppointmentID graph.RecordID
	PlanID        graph.RecordID
}

// AppointmentView pairs an appointment with its check-in, when one exists.
type AppointmentView struct {
	AppointmentID graph.RecordID
	Appointment   records.DomainRecord
	CheckInID     graph.RecordID
	CheckIn       records.DomainRecord
}

// PlanView is the denormalized state of one worksite plan.
type PlanView struct {
	PlanID       graph.RecordID
	Plan         records.DomainRecord
	WorksiteID   graph.RecordID
	Worksite     records.DomainRecord
	Appointments []AppointmentView
	Status       records.DomainRecord
}

// EnrollmentView is the fan-out result for one enrollment.
type EnrollmentView struct {
	EnrollmentID graph.RecordID
	Plans        []PlanView
}
