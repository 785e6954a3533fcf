package domain

import "time"

// ApplicationStatus is the overall case state of an application.
type ApplicationStatus string

const (
	ApplicationSubmitted          ApplicationStatus = "submitted"
	ApplicationUnderReview        ApplicationStatus = "under_review"
	ApplicationSiteVisitScheduled ApplicationStatus = "site_visit_scheduled"
	ApplicationSiteVisitCompleted ApplicationStatus = "site_visit_completed"
	ApplicationEligible           ApplicationStatus = "eligible"
	ApplicationNotEligible        ApplicationStatus = "not_eligible"
	ApplicationWaitlisted         ApplicationStatus = "waitlisted"
	ApplicationAllocated          ApplicationStatus = "allocated"
	ApplicationCancelled          ApplicationStatus = "cancelled"
)

// EligibilityStatus is the evaluator's output dimension, independent from the
// case state.
type EligibilityStatus string

const (
	EligibilityPending     EligibilityStatus = "pending"
	EligibilityEligible    EligibilityStatus = "eligible"
	EligibilityNotEligible EligibilityStatus = "not_eligible"
	EligibilityConditional EligibilityStatus = "conditional"
)

// applicationEdges is the closed transition table. cancelled is additionally
// reachable from every non-terminal state (see CanTransitionApplication).
// An allocation failure moves the application back from allocated to waitlisted
// explicitly; it is never re-derived.
var applicationEdges = map[ApplicationStatus][]ApplicationStatus{
	ApplicationSubmitted:          {ApplicationUnderReview},
	ApplicationUnderReview:        {ApplicationSiteVisitScheduled, ApplicationEligible, ApplicationNotEligible},
	ApplicationSiteVisitScheduled: {ApplicationSiteVisitCompleted},
	ApplicationSiteVisitCompleted: {ApplicationEligible, ApplicationNotEligible},
	ApplicationEligible:           {ApplicationWaitlisted},
	ApplicationNotEligible:        {},
	ApplicationWaitlisted:         {ApplicationAllocated},
	ApplicationAllocated:          {ApplicationWaitlisted},
	ApplicationCancelled:          {},
}

// IsTerminalApplicationStatus reports whether no further transitions are
// allowed. allocated still permits the explicit fall-back to waitlisted.
func IsTerminalApplicationStatus(s ApplicationStatus) bool {
	return s == ApplicationNotEligible || s == ApplicationCancelled
}

// CanTransitionApplication validates a requested application_status edge.
func CanTransitionApplication(from, to ApplicationStatus) bool {
	if to == ApplicationCancelled {
		return !IsTerminalApplicationStatus(from) && from != ApplicationAllocated
	}
	for _, next := range applicationEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Application binds one applicant to one program (applications table).
type Application struct {
	ApplicationID string `db:"application_id"`

	ApplicantType ApplicantType `db:"applicant_type"`
	ApplicantID   string        `db:"applicant_id"` // beneficiary_id or household_id
	ProgramID     string        `db:"program_id"`

	ApplicationStatus ApplicationStatus `db:"application_status"`
	EligibilityStatus EligibilityStatus `db:"eligibility_status"`

	SiteVisitCompletedAt    *time.Time `db:"site_visit_completed_at"`
	SiteVisitRecommendation string     `db:"site_visit_recommendation"` // eligible/not_eligible/conditional, '' if none

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SiteVisitDone reports whether a completed visit is on record.
func (a Application) SiteVisitDone() bool {
	return a.SiteVisitCompletedAt != nil
}
