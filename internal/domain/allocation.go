package domain

import "time"

// AllocationStatus is the lifecycle state of a unit-to-application binding.
type AllocationStatus string

const (
	AllocationProposed        AllocationStatus = "proposed"
	AllocationCommitteeReview AllocationStatus = "committee_review"
	AllocationApproved        AllocationStatus = "approved"
	AllocationRejected        AllocationStatus = "rejected"
	AllocationAccepted        AllocationStatus = "accepted"
	AllocationDeclined        AllocationStatus = "declined"
	AllocationExpired         AllocationStatus = "expired"
	AllocationMovedIn         AllocationStatus = "moved_in"
	AllocationCancelled       AllocationStatus = "cancelled"
)

// allocationEdges is the closed transition table. expired is the automatic
// declined-equivalent the sweep applies past the acceptance deadline.
var allocationEdges = map[AllocationStatus][]AllocationStatus{
	AllocationProposed:        {AllocationCommitteeReview},
	AllocationCommitteeReview: {AllocationApproved, AllocationRejected},
	AllocationApproved:        {AllocationAccepted, AllocationDeclined, AllocationExpired, AllocationCancelled},
	AllocationAccepted:        {AllocationMovedIn, AllocationCancelled},
	AllocationRejected:        {},
	AllocationDeclined:        {},
	AllocationExpired:         {},
	AllocationMovedIn:         {},
	AllocationCancelled:       {},
}

// CanTransitionAllocation validates a requested allocation_status edge.
func CanTransitionAllocation(from, to AllocationStatus) bool {
	for _, next := range allocationEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalAllocationStatus reports whether the allocation can move no further.
func IsTerminalAllocationStatus(s AllocationStatus) bool {
	return len(allocationEdges[s]) == 0
}

// ReleasesUnit reports whether entering the status must run the compensating
// action: unit back to available, waitlist entry back to active at its rank.
func (s AllocationStatus) ReleasesUnit() bool {
	return s == AllocationRejected || s == AllocationDeclined ||
		s == AllocationExpired || s == AllocationCancelled
}

// Allocation domain model (allocations table).
type Allocation struct {
	AllocationID  string `db:"allocation_id"`
	ApplicationID string `db:"application_id"`
	UnitID        string `db:"unit_id"`
	ProgramID     string `db:"program_id"`

	Status AllocationStatus `db:"allocation_status"`

	AllocationDate     time.Time `db:"allocation_date"`
	AcceptanceDeadline time.Time `db:"acceptance_deadline"`

	ReviewedAt *time.Time `db:"reviewed_at"`
	ApprovedAt *time.Time `db:"approved_at"`
	AcceptedAt *time.Time `db:"accepted_at"`
	MovedInAt  *time.Time `db:"moved_in_at"`
	ClosedAt   *time.Time `db:"closed_at"` // rejected/declined/expired/cancelled

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
