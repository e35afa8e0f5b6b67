package schema

// Logical collection names the workflows assume. Each organization's schema
// document must bind every name it uses to a store collection identifier.
const (
	CollDiversionPlan    = "app.diversionplan"
	CollWorksitePlan     = "app.worksiteplan"
	CollWorksite         = "app.worksite"
	CollAppointment      = "app.appointment"
	CollCheckIn          = "app.checkins"
	CollCheckInDetail    = "app.checkindetails"
	CollEnrollmentStatus = "app.enrollmentstatus"

	// Edge collections.
	CollAssignedTo   = "app.assignedto"   // worksite plan -> worksite
	CollPartOf       = "app.partof"       // worksite plan -> diversion plan
	CollRegisteredAt = "app.registeredat" // appointment -> worksite plan
	CollFulfills     = "app.fulfills"     // check-in -> appointment
	CollHasDetail    = "app.has"          // check-in -> check-in detail
	CollRelatedTo    = "app.relatedto"    // enrollment status -> worksite plan
)

// Logical property names.
const (
	PropName          = "app.name"
	PropHoursWorked   = "app.hoursworked"
	PropRequiredHours = "app.requiredhours"
	PropStart         = "app.datetimestart"
	PropEnd           = "app.datetimeend"
	PropStatus        = "app.status"
	PropEffectiveDate = "app.effectivedate"
	PropCompleted     = "app.completed"
)
