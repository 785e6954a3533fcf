package repository

import (
	"context"
	"time"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/screening"
)

// BeneficiariesRepo reads registered beneficiaries and households.
type BeneficiariesRepo interface {
	GetBeneficiary(ctx context.Context, beneficiaryID string) (*domain.Beneficiary, error)
	GetHousehold(ctx context.Context, householdID string) (*domain.Household, error)
	// GetApplicant resolves either applicant variant behind the Applicant interface.
	GetApplicant(ctx context.Context, typ domain.ApplicantType, applicantID string) (domain.Applicant, error)
	// ListScreeningRecords returns the snapshot the duplicate screener compares
	// candidates against (active blacklist pre-joined).
	ListScreeningRecords(ctx context.Context) ([]screening.KnownBeneficiary, error)
	ArchiveBeneficiary(ctx context.Context, beneficiaryID string) error
}

// BlacklistRepo answers the hard gate: does any of these beneficiaries carry an
// active blacklist entry.
type BlacklistRepo interface {
	HasActiveBlacklist(ctx context.Context, beneficiaryIDs []string) (bool, error)
}

// ProgramsRepo reads program configuration (thresholds, weights, windows).
type ProgramsRepo interface {
	GetProgram(ctx context.Context, programID string) (*domain.HousingProgram, error)
}

// ApplicationsRepo persists applications. Transition writes are
// check-and-set on the current status and append the audit record in the same
// transaction.
type ApplicationsRepo interface {
	GetApplication(ctx context.Context, applicationID string) (*domain.Application, error)
	CreateApplication(ctx context.Context, app *domain.Application, actor string) error
	// TransitionApplication moves application_status from->to atomically with
	// its history record. Returns ConcurrencyConflictError when the row is no
	// longer in `from`.
	TransitionApplication(ctx context.Context, applicationID string, from, to domain.ApplicationStatus, actor string) error
	SetEligibility(ctx context.Context, applicationID string, status domain.EligibilityStatus) error
	RecordSiteVisit(ctx context.Context, applicationID string, recommendation string, completedAt time.Time) error
}

// WaitlistRepo persists waitlist entries. Positions are never stored; callers
// derive them from the returned ordering.
type WaitlistRepo interface {
	GetEntry(ctx context.Context, entryID string) (*domain.WaitlistEntry, error)
	GetEntryByApplication(ctx context.Context, applicationID string) (*domain.WaitlistEntry, error)
	// ListActiveByProgram returns active entries already in queue order
	// (priority_score desc, waitlist_date asc, entry_id asc).
	ListActiveByProgram(ctx context.Context, programID string) ([]domain.WaitlistEntry, error)
	InsertEntry(ctx context.Context, entry *domain.WaitlistEntry) error
	UpdateEntryStatus(ctx context.Context, entryID string, from, to domain.WaitlistStatus) error
	UpdateEntryScore(ctx context.Context, entryID string, score float64, generation int) error
}

// UnitsRepo persists units. Status updates are check-and-set.
type UnitsRepo interface {
	GetUnit(ctx context.Context, unitID string) (*domain.Unit, error)
	UpdateUnitStatus(ctx context.Context, unitID string, from, to domain.UnitStatus) error
}

// AllocationsRepo owns the allocation lifecycle's compound, transactional
// operations: proposal selection and conditioned transitions with their
// compensating actions.
type AllocationsRepo interface {
	GetAllocation(ctx context.Context, allocationID string) (*domain.Allocation, error)
	// GetOpenByUnit returns the single non-terminal allocation on a unit, or
	// nil when there is none.
	GetOpenByUnit(ctx context.Context, unitID string) (*domain.Allocation, error)
	// CreateProposal atomically: serializes on the unit's program, verifies the
	// unit is available, selects the top-ranked active waitlist entry whose
	// applicant has no active blacklist, creates the proposed allocation,
	// reserves the unit, and marks the entry allocated.
	CreateProposal(ctx context.Context, unitID string, windowDays int, actor string, now time.Time) (*domain.Allocation, error)
	// TransitionAllocation is conditioned on the allocation still being in
	// `from` at commit time, and runs the compensating action (unit release,
	// entry reactivation, application fall-back) atomically with the
	// transition when `to` requires one.
	TransitionAllocation(ctx context.Context, allocationID string, from, to domain.AllocationStatus, actor string, now time.Time) (*domain.Allocation, error)
	// ListExpired returns approved allocations whose acceptance deadline has
	// passed as of the given instant.
	ListExpired(ctx context.Context, asOf time.Time) ([]domain.Allocation, error)
}

// HistoryRepo reads and appends the immutable audit trail. Transition methods
// write their own records; this interface serves explicit appends and reads.
type HistoryRepo interface {
	Append(ctx context.Context, rec *domain.StatusHistory) error
	ListByEntity(ctx context.Context, entityType domain.HistoryEntityType, entityID string) ([]domain.StatusHistory, error)
}

// Repos bundles every repository the services need, so main can wire either
// the Postgres or the in-memory set in one value.
type Repos struct {
	Beneficiaries BeneficiariesRepo
	Blacklist     BlacklistRepo
	Programs      ProgramsRepo
	Applications  ApplicationsRepo
	Waitlist      WaitlistRepo
	Units         UnitsRepo
	Allocations   AllocationsRepo
	History       HistoryRepo
}
