package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/screening"
)

// MemoryStore implements every repository interface over in-process maps.
// Used when DB_ENABLED=false and as the substrate for deterministic service
// tests. A single mutex stands in for the per-program advisory lock: all
// compound operations are serialized, which is strictly stronger.
type MemoryStore struct {
	mu sync.Mutex

	beneficiaries map[string]domain.Beneficiary
	households    map[string]domain.Household
	blacklist     map[string][]domain.BlacklistEntry // beneficiary_id -> entries
	programs      map[string]domain.HousingProgram
	applications  map[string]domain.Application
	entries       map[string]domain.WaitlistEntry
	units         map[string]domain.Unit
	allocations   map[string]domain.Allocation
	history       []domain.StatusHistory

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		beneficiaries: map[string]domain.Beneficiary{},
		households:    map[string]domain.Household{},
		blacklist:     map[string][]domain.BlacklistEntry{},
		programs:      map[string]domain.HousingProgram{},
		applications:  map[string]domain.Application{},
		entries:       map[string]domain.WaitlistEntry{},
		units:         map[string]domain.Unit{},
		allocations:   map[string]domain.Allocation{},
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Repos returns the store wired into a Repos bundle.
func (s *MemoryStore) Repos() Repos {
	return Repos{
		Beneficiaries: s,
		Blacklist:     s,
		Programs:      s,
		Applications:  s,
		Waitlist:      s,
		Units:         s,
		Allocations:   s,
		History:       s,
	}
}

// --- seeding (dev fallback and tests) ---

func (s *MemoryStore) PutBeneficiary(b domain.Beneficiary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beneficiaries[b.BeneficiaryID] = b
}

func (s *MemoryStore) PutHousehold(h domain.Household) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.households[h.HouseholdID] = h
}

func (s *MemoryStore) PutBlacklistEntry(e domain.BlacklistEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[e.BeneficiaryID] = append(s.blacklist[e.BeneficiaryID], e)
}

func (s *MemoryStore) PutProgram(p domain.HousingProgram) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[p.ProgramID] = p
}

func (s *MemoryStore) PutUnit(u domain.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[u.UnitID] = u
}

// --- BeneficiariesRepo ---

func (s *MemoryStore) GetBeneficiary(_ context.Context, beneficiaryID string) (*domain.Beneficiary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.beneficiaries[beneficiaryID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "beneficiary", ID: beneficiaryID}
	}
	return &b, nil
}

func (s *MemoryStore) GetHousehold(_ context.Context, householdID string) (*domain.Household, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.households[householdID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "household", ID: householdID}
	}
	return &h, nil
}

func (s *MemoryStore) GetApplicant(ctx context.Context, typ domain.ApplicantType, applicantID string) (domain.Applicant, error) {
	switch typ {
	case domain.ApplicantIndividual:
		b, err := s.GetBeneficiary(ctx, applicantID)
		if err != nil {
			return nil, err
		}
		return domain.Individual{Beneficiary: *b}, nil
	case domain.ApplicantHousehold:
		h, err := s.GetHousehold(ctx, applicantID)
		if err != nil {
			return nil, err
		}
		return domain.HouseholdApplicant{Household: *h}, nil
	}
	return nil, &domain.ValidationError{Field: "applicant_type", Reason: "unknown type " + string(typ)}
}

func (s *MemoryStore) ListScreeningRecords(_ context.Context) ([]screening.KnownBeneficiary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]screening.KnownBeneficiary, 0, len(s.beneficiaries))
	for _, b := range s.beneficiaries {
		out = append(out, screening.KnownBeneficiary{
			BeneficiaryID:      b.BeneficiaryID,
			BeneficiaryNo:      b.BeneficiaryNo,
			FullName:           b.FullName(),
			BirthDate:          b.BirthDate,
			Address:            strings.TrimSpace(b.Barangay + " " + b.AddressLine),
			Archived:           b.Archived,
			HasActiveBlacklist: s.hasActiveBlacklistLocked(b.BeneficiaryID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BeneficiaryID < out[j].BeneficiaryID })
	return out, nil
}

func (s *MemoryStore) ArchiveBeneficiary(_ context.Context, beneficiaryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.beneficiaries[beneficiaryID]
	if !ok {
		return &domain.NotFoundError{Entity: "beneficiary", ID: beneficiaryID}
	}
	b.Archived = true
	s.beneficiaries[beneficiaryID] = b
	return nil
}

// --- BlacklistRepo ---

func (s *MemoryStore) hasActiveBlacklistLocked(beneficiaryID string) bool {
	for _, e := range s.blacklist[beneficiaryID] {
		if e.Status == domain.BlacklistActive {
			return true
		}
	}
	return false
}

func (s *MemoryStore) HasActiveBlacklist(_ context.Context, beneficiaryIDs []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range beneficiaryIDs {
		if s.hasActiveBlacklistLocked(id) {
			return true, nil
		}
	}
	return false, nil
}

// --- ProgramsRepo ---

func (s *MemoryStore) GetProgram(_ context.Context, programID string) (*domain.HousingProgram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[programID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "program", ID: programID}
	}
	return &p, nil
}

// --- ApplicationsRepo ---

func (s *MemoryStore) GetApplication(_ context.Context, applicationID string) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[applicationID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "application", ID: applicationID}
	}
	return &a, nil
}

func (s *MemoryStore) CreateApplication(_ context.Context, app *domain.Application, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ApplicationID == "" {
		app.ApplicationID = uuid.NewString()
	}
	now := s.now()
	app.CreatedAt = now
	app.UpdatedAt = now
	s.applications[app.ApplicationID] = *app
	s.appendHistoryLocked(domain.HistoryApplication, app.ApplicationID, "", string(app.ApplicationStatus), actor, "", now)
	return nil
}

func (s *MemoryStore) TransitionApplication(_ context.Context, applicationID string, from, to domain.ApplicationStatus, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionApplicationLocked(applicationID, from, to, actor, s.now())
}

func (s *MemoryStore) transitionApplicationLocked(applicationID string, from, to domain.ApplicationStatus, actor string, now time.Time) error {
	a, ok := s.applications[applicationID]
	if !ok {
		return &domain.NotFoundError{Entity: "application", ID: applicationID}
	}
	if a.ApplicationStatus != from {
		return &domain.ConcurrencyConflictError{Entity: "application", ID: applicationID, Expected: string(from)}
	}
	a.ApplicationStatus = to
	a.UpdatedAt = now
	s.applications[applicationID] = a
	s.appendHistoryLocked(domain.HistoryApplication, applicationID, string(from), string(to), actor, "", now)
	return nil
}

func (s *MemoryStore) SetEligibility(_ context.Context, applicationID string, status domain.EligibilityStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[applicationID]
	if !ok {
		return &domain.NotFoundError{Entity: "application", ID: applicationID}
	}
	a.EligibilityStatus = status
	a.UpdatedAt = s.now()
	s.applications[applicationID] = a
	return nil
}

func (s *MemoryStore) RecordSiteVisit(_ context.Context, applicationID string, recommendation string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[applicationID]
	if !ok {
		return &domain.NotFoundError{Entity: "application", ID: applicationID}
	}
	t := completedAt
	a.SiteVisitCompletedAt = &t
	a.SiteVisitRecommendation = recommendation
	a.UpdatedAt = s.now()
	s.applications[applicationID] = a
	return nil
}

// --- WaitlistRepo ---

func (s *MemoryStore) GetEntry(_ context.Context, entryID string) (*domain.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "waitlist entry", ID: entryID}
	}
	return &e, nil
}

func (s *MemoryStore) GetEntryByApplication(_ context.Context, applicationID string) (*domain.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entryByApplicationLocked(applicationID)
	if !ok {
		return nil, &domain.NotFoundError{Entity: "waitlist entry", ID: applicationID}
	}
	return &e, nil
}

func (s *MemoryStore) entryByApplicationLocked(applicationID string) (domain.WaitlistEntry, bool) {
	var latest domain.WaitlistEntry
	found := false
	for _, e := range s.entries {
		if e.ApplicationID != applicationID {
			continue
		}
		if !found || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
			found = true
		}
	}
	return latest, found
}

func (s *MemoryStore) ListActiveByProgram(_ context.Context, programID string) ([]domain.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listActiveLocked(programID), nil
}

func (s *MemoryStore) listActiveLocked(programID string) []domain.WaitlistEntry {
	out := []domain.WaitlistEntry{}
	for _, e := range s.entries {
		if e.ProgramID == programID && e.Status == domain.WaitlistActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return domain.EntryLess(out[i], out[j]) })
	return out
}

func (s *MemoryStore) InsertEntry(_ context.Context, entry *domain.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.entries[entry.EntryID] = *entry
	return nil
}

func (s *MemoryStore) UpdateEntryStatus(_ context.Context, entryID string, from, to domain.WaitlistStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateEntryStatusLocked(entryID, from, to)
}

func (s *MemoryStore) updateEntryStatusLocked(entryID string, from, to domain.WaitlistStatus) error {
	e, ok := s.entries[entryID]
	if !ok {
		return &domain.NotFoundError{Entity: "waitlist entry", ID: entryID}
	}
	if e.Status != from {
		return &domain.ConcurrencyConflictError{Entity: "waitlist entry", ID: entryID, Expected: string(from)}
	}
	e.Status = to
	s.entries[entryID] = e
	return nil
}

func (s *MemoryStore) UpdateEntryScore(_ context.Context, entryID string, score float64, generation int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return &domain.NotFoundError{Entity: "waitlist entry", ID: entryID}
	}
	e.PriorityScore = score
	e.ScoreGeneration = generation
	s.entries[entryID] = e
	return nil
}

// --- UnitsRepo ---

func (s *MemoryStore) GetUnit(_ context.Context, unitID string) (*domain.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[unitID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "unit", ID: unitID}
	}
	return &u, nil
}

func (s *MemoryStore) UpdateUnitStatus(_ context.Context, unitID string, from, to domain.UnitStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateUnitStatusLocked(unitID, from, to)
}

func (s *MemoryStore) updateUnitStatusLocked(unitID string, from, to domain.UnitStatus) error {
	u, ok := s.units[unitID]
	if !ok {
		return &domain.NotFoundError{Entity: "unit", ID: unitID}
	}
	if u.Status != from {
		return &domain.ConcurrencyConflictError{Entity: "unit", ID: unitID, Expected: string(from)}
	}
	u.Status = to
	u.UpdatedAt = s.now()
	s.units[unitID] = u
	return nil
}

// --- AllocationsRepo ---

func (s *MemoryStore) GetAllocation(_ context.Context, allocationID string) (*domain.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.allocations[allocationID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "allocation", ID: allocationID}
	}
	return &a, nil
}

func (s *MemoryStore) GetOpenByUnit(_ context.Context, unitID string) (*domain.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.allocations {
		if a.UnitID == unitID && !domain.IsTerminalAllocationStatus(a.Status) {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateProposal(_ context.Context, unitID string, windowDays int, actor string, now time.Time) (*domain.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.units[unitID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "unit", ID: unitID}
	}
	if u.Status != domain.UnitAvailable {
		return nil, &domain.ConstraintViolationError{
			Invariant: "unit must be available",
			Detail:    "unit " + unitID + " is " + string(u.Status),
		}
	}

	var picked *domain.WaitlistEntry
	for _, e := range s.listActiveLocked(u.ProgramID) {
		app, ok := s.applications[e.ApplicationID]
		if !ok || app.ApplicationStatus != domain.ApplicationWaitlisted {
			continue
		}
		if s.applicantBlacklistedLocked(app) {
			continue
		}
		entry := e
		picked = &entry
		break
	}
	if picked == nil {
		return nil, &domain.ConstraintViolationError{
			Invariant: "proposal requires an eligible waitlisted applicant",
			Detail:    "no active waitlist entry for program " + u.ProgramID,
		}
	}

	alloc := domain.Allocation{
		AllocationID:       uuid.NewString(),
		ApplicationID:      picked.ApplicationID,
		UnitID:             unitID,
		ProgramID:          u.ProgramID,
		Status:             domain.AllocationProposed,
		AllocationDate:     now,
		AcceptanceDeadline: now.AddDate(0, 0, windowDays),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.allocations[alloc.AllocationID] = alloc

	if err := s.updateUnitStatusLocked(unitID, domain.UnitAvailable, domain.UnitReserved); err != nil {
		return nil, err
	}
	if err := s.updateEntryStatusLocked(picked.EntryID, domain.WaitlistActive, domain.WaitlistAllocated); err != nil {
		return nil, err
	}
	s.appendHistoryLocked(domain.HistoryAllocation, alloc.AllocationID, "", string(domain.AllocationProposed), actor, "unit "+unitID, now)
	out := alloc
	return &out, nil
}

func (s *MemoryStore) applicantBlacklistedLocked(app domain.Application) bool {
	switch app.ApplicantType {
	case domain.ApplicantIndividual:
		return s.hasActiveBlacklistLocked(app.ApplicantID)
	case domain.ApplicantHousehold:
		h, ok := s.households[app.ApplicantID]
		if !ok {
			return false
		}
		for _, m := range h.Members {
			if s.hasActiveBlacklistLocked(m.BeneficiaryID) {
				return true
			}
		}
	}
	return false
}

func (s *MemoryStore) TransitionAllocation(_ context.Context, allocationID string, from, to domain.AllocationStatus, actor string, now time.Time) (*domain.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.allocations[allocationID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "allocation", ID: allocationID}
	}
	if a.Status != from {
		return nil, &domain.ConcurrencyConflictError{Entity: "allocation", ID: allocationID, Expected: string(from)}
	}

	a.Status = to
	a.UpdatedAt = now
	switch to {
	case domain.AllocationCommitteeReview:
		a.ReviewedAt = &now
	case domain.AllocationApproved:
		a.ApprovedAt = &now
	case domain.AllocationAccepted:
		a.AcceptedAt = &now
	case domain.AllocationMovedIn:
		a.MovedInAt = &now
	case domain.AllocationRejected, domain.AllocationDeclined, domain.AllocationExpired, domain.AllocationCancelled:
		a.ClosedAt = &now
	}
	s.allocations[allocationID] = a

	switch {
	case to.ReleasesUnit():
		unitFrom := domain.UnitReserved
		if from == domain.AllocationAccepted {
			unitFrom = domain.UnitAllocated
		}
		if err := s.updateUnitStatusLocked(a.UnitID, unitFrom, domain.UnitAvailable); err != nil {
			return nil, err
		}
		if e, ok := s.entryByApplicationLocked(a.ApplicationID); ok && e.Status == domain.WaitlistAllocated {
			_ = s.updateEntryStatusLocked(e.EntryID, domain.WaitlistAllocated, domain.WaitlistActive)
		}
		if from == domain.AllocationAccepted {
			if err := s.transitionApplicationLocked(a.ApplicationID,
				domain.ApplicationAllocated, domain.ApplicationWaitlisted, actor, now); err != nil {
				return nil, err
			}
		}
	case to == domain.AllocationAccepted:
		if err := s.updateUnitStatusLocked(a.UnitID, domain.UnitReserved, domain.UnitAllocated); err != nil {
			return nil, err
		}
		if err := s.transitionApplicationLocked(a.ApplicationID,
			domain.ApplicationWaitlisted, domain.ApplicationAllocated, actor, now); err != nil {
			return nil, err
		}
	case to == domain.AllocationMovedIn:
		if err := s.updateUnitStatusLocked(a.UnitID, domain.UnitAllocated, domain.UnitOccupied); err != nil {
			return nil, err
		}
	}

	s.appendHistoryLocked(domain.HistoryAllocation, allocationID, string(from), string(to), actor, "", now)
	out := a
	return &out, nil
}

func (s *MemoryStore) ListExpired(_ context.Context, asOf time.Time) ([]domain.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Allocation{}
	for _, a := range s.allocations {
		if a.Status == domain.AllocationApproved && a.AcceptanceDeadline.Before(asOf) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AcceptanceDeadline.Before(out[j].AcceptanceDeadline)
	})
	return out, nil
}

// --- HistoryRepo ---

func (s *MemoryStore) appendHistoryLocked(entityType domain.HistoryEntityType, entityID, from, to, actor, reason string, at time.Time) {
	s.history = append(s.history, domain.StatusHistory{
		HistoryID:  uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Reason:     reason,
		RecordedAt: at,
	})
}

func (s *MemoryStore) Append(_ context.Context, rec *domain.StatusHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.HistoryID == "" {
		rec.HistoryID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now()
	}
	s.history = append(s.history, *rec)
	return nil
}

func (s *MemoryStore) ListByEntity(_ context.Context, entityType domain.HistoryEntityType, entityID string) ([]domain.StatusHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.StatusHistory{}
	for _, h := range s.history {
		if h.EntityType == entityType && h.EntityID == entityID {
			out = append(out, h)
		}
	}
	return out, nil
}
