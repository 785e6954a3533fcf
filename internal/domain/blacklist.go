package domain

import "time"

// BlacklistStatus of a blacklist entry.
type BlacklistStatus string

const (
	BlacklistActive BlacklistStatus = "active"
	BlacklistLifted BlacklistStatus = "lifted"
)

// BlacklistEntry domain model (blacklist_entries table). A beneficiary with an
// active entry cannot be newly waitlisted or proposed an allocation. In-flight
// allocations are not retroactively voided; cancellation stays a manual call.
type BlacklistEntry struct {
	EntryID       string          `db:"entry_id"`
	BeneficiaryID string          `db:"beneficiary_id"`
	Reason        string          `db:"reason"`
	Status        BlacklistStatus `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
	LiftedAt      *time.Time      `db:"lifted_at"`
}
