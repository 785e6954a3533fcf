package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/eligibility"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/screening"
)

func TestSubmitApplication_CreatesAndAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	f.seedBeneficiary("ben-a", 12000)

	res, err := f.apps.SubmitApplication(ctx, SubmitApplicationInput{
		ApplicantType: domain.ApplicantIndividual,
		ApplicantID:   "ben-a",
		ProgramID:     "prog-1",
		Actor:         "staff-1",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Application)

	assert.Equal(t, domain.ApplicationSubmitted, res.Application.ApplicationStatus)
	assert.Equal(t, domain.EligibilityPending, res.Application.EligibilityStatus)
	assert.False(t, res.HasActiveBlacklist)

	history, err := f.apps.ApplicationHistory(ctx, res.Application.ApplicationID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(domain.ApplicationSubmitted), history[0].ToStatus)
	assert.Equal(t, "staff-1", history[0].Actor)
}

func TestSubmitApplication_SurfacesDuplicateAndBlacklist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	// two registrations of what looks like the same person
	f.mem.PutBeneficiary(domain.Beneficiary{
		BeneficiaryID: "ben-a", BeneficiaryNo: "B-0001",
		FirstName: "Maria", LastName: "Cruz",
		BirthDate: time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC),
		Barangay:  "Bagong Silang", AddressLine: "purok 4",
		MonthlyIncome: 10000, ResidencyYears: 5,
	})
	f.mem.PutBeneficiary(domain.Beneficiary{
		BeneficiaryID: "ben-dup", BeneficiaryNo: "B-0099",
		FirstName: "Maria", LastName: "Cruz",
		BirthDate: time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC),
		Barangay:  "Bagong Silang", AddressLine: "purok 4",
	})
	f.mem.PutBlacklistEntry(domain.BlacklistEntry{
		EntryID: "bl-1", BeneficiaryID: "ben-a",
		Reason: "double availment", Status: domain.BlacklistActive,
	})

	res, err := f.apps.SubmitApplication(ctx, SubmitApplicationInput{
		ApplicantType: domain.ApplicantIndividual,
		ApplicantID:   "ben-a",
		ProgramID:     "prog-1",
		Actor:         "staff-1",
	})
	require.NoError(t, err)

	// submission is never blocked, only annotated
	assert.Equal(t, domain.ApplicationSubmitted, res.Application.ApplicationStatus)
	require.Len(t, res.DuplicateMatches, 1)
	assert.Equal(t, "ben-dup", res.DuplicateMatches[0].BeneficiaryID)
	assert.True(t, res.HasActiveBlacklist)
}

func TestSubmitApplication_UnknownApplicant(t *testing.T) {
	f := newFixture(t)
	f.seedProgram()

	_, err := f.apps.SubmitApplication(context.Background(), SubmitApplicationInput{
		ApplicantType: domain.ApplicantIndividual,
		ApplicantID:   "ghost",
		ProgramID:     "prog-1",
		Actor:         "staff-1",
	})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "beneficiary", nf.Entity)
}

func TestScreenForDuplicates_Candidate(t *testing.T) {
	f := newFixture(t)
	f.mem.PutBeneficiary(domain.Beneficiary{
		BeneficiaryID: "ben-a", BeneficiaryNo: "B-0001",
		FirstName: "Maria", LastName: "Cruz",
		BirthDate: time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC),
		Barangay:  "Bagong Silang", AddressLine: "purok 4",
	})

	matches, blacklisted, err := f.apps.ScreenForDuplicates(context.Background(), screening.Candidate{
		FullName:      "Maria Cruz",
		BirthDate:     time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC),
		AddressTokens: []string{"bagong", "silang", "purok", "4"},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "ben-a", matches[0].BeneficiaryID)
	assert.False(t, blacklisted)

	_, _, err = f.apps.ScreenForDuplicates(context.Background(), screening.Candidate{FullName: "  "})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEvaluateEligibility_AutoUpdateAdvancesCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	f.seedBeneficiary("ben-a", 12000)

	app := &domain.Application{
		ApplicationID:     "app-1",
		ApplicantType:     domain.ApplicantIndividual,
		ApplicantID:       "ben-a",
		ProgramID:         "prog-1",
		ApplicationStatus: domain.ApplicationUnderReview,
		EligibilityStatus: domain.EligibilityPending,
	}
	require.NoError(t, f.repos.Applications.CreateApplication(ctx, app, "staff-1"))

	result, err := f.apps.EvaluateEligibility(ctx, "app-1", true, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, eligibility.Eligible, result.Determination)

	updated, err := f.repos.Applications.GetApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EligibilityEligible, updated.EligibilityStatus)
	assert.Equal(t, domain.ApplicationEligible, updated.ApplicationStatus)
}

func TestEvaluateEligibility_NotEligiblePersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	f.seedBeneficiary("ben-a", 50000) // over the ceiling

	app := &domain.Application{
		ApplicationID:     "app-1",
		ApplicantType:     domain.ApplicantIndividual,
		ApplicantID:       "ben-a",
		ProgramID:         "prog-1",
		ApplicationStatus: domain.ApplicationUnderReview,
		EligibilityStatus: domain.EligibilityPending,
	}
	require.NoError(t, f.repos.Applications.CreateApplication(ctx, app, "staff-1"))

	result, err := f.apps.EvaluateEligibility(ctx, "app-1", true, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, eligibility.NotEligible, result.Determination)

	updated, err := f.repos.Applications.GetApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationNotEligible, updated.ApplicationStatus)
}

func TestEvaluateEligibility_ConditionalLeavesCaseInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	program := f.seedProgram()
	program.RequiresSiteVisit = true
	f.mem.PutProgram(program)

	f.seedBeneficiary("ben-a", 12000)

	app := &domain.Application{
		ApplicationID:     "app-1",
		ApplicantType:     domain.ApplicantIndividual,
		ApplicantID:       "ben-a",
		ProgramID:         "prog-1",
		ApplicationStatus: domain.ApplicationUnderReview,
		EligibilityStatus: domain.EligibilityPending,
	}
	require.NoError(t, f.repos.Applications.CreateApplication(ctx, app, "staff-1"))

	result, err := f.apps.EvaluateEligibility(ctx, "app-1", true, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, eligibility.Conditional, result.Determination)

	updated, err := f.repos.Applications.GetApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EligibilityConditional, updated.EligibilityStatus)
	// advisory items are for staff; the case does not move on its own
	assert.Equal(t, domain.ApplicationUnderReview, updated.ApplicationStatus)
}

func TestEvaluateEligibility_DryRunDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	f.seedBeneficiary("ben-a", 12000)

	app := &domain.Application{
		ApplicationID:     "app-1",
		ApplicantType:     domain.ApplicantIndividual,
		ApplicantID:       "ben-a",
		ProgramID:         "prog-1",
		ApplicationStatus: domain.ApplicationUnderReview,
		EligibilityStatus: domain.EligibilityPending,
	}
	require.NoError(t, f.repos.Applications.CreateApplication(ctx, app, "staff-1"))

	_, err := f.apps.EvaluateEligibility(ctx, "app-1", false, "")
	require.NoError(t, err)

	unchanged, err := f.repos.Applications.GetApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.EligibilityPending, unchanged.EligibilityStatus)
	assert.Equal(t, domain.ApplicationUnderReview, unchanged.ApplicationStatus)
}

func TestRecordSiteVisitOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	f.seedBeneficiary("ben-a", 12000)

	app := &domain.Application{
		ApplicationID:     "app-1",
		ApplicantType:     domain.ApplicantIndividual,
		ApplicantID:       "ben-a",
		ProgramID:         "prog-1",
		ApplicationStatus: domain.ApplicationSiteVisitScheduled,
		EligibilityStatus: domain.EligibilityPending,
	}
	require.NoError(t, f.repos.Applications.CreateApplication(ctx, app, "staff-1"))

	err := f.apps.RecordSiteVisitOutcome(ctx, "app-1", "not_eligible", "inspector-1")
	require.NoError(t, err)

	updated, err := f.repos.Applications.GetApplication(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationSiteVisitCompleted, updated.ApplicationStatus)
	assert.True(t, updated.SiteVisitDone())
	assert.Equal(t, "not_eligible", updated.SiteVisitRecommendation)

	// the recorded recommendation overrides numeric eligibility
	result, err := f.apps.EvaluateEligibility(ctx, "app-1", false, "")
	require.NoError(t, err)
	assert.Equal(t, eligibility.NotEligible, result.Determination)
}

func TestRecordSiteVisitOutcome_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.apps.RecordSiteVisitOutcome(ctx, "app-1", "maybe", "inspector-1")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "recommendation", verr.Field)
}

func TestAdvanceApplicationStatus_EngineManagedRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, to := range []domain.ApplicationStatus{domain.ApplicationWaitlisted, domain.ApplicationAllocated} {
		err := f.apps.AdvanceApplicationStatus(ctx, "app-1", to, "staff-1")
		var cverr *domain.ConstraintViolationError
		require.ErrorAs(t, err, &cverr, "status %s", to)
	}
}

func TestAdvanceApplicationStatus_IllegalEdge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	f.seedBeneficiary("ben-a", 12000)

	app := &domain.Application{
		ApplicationID:     "app-1",
		ApplicantType:     domain.ApplicantIndividual,
		ApplicantID:       "ben-a",
		ProgramID:         "prog-1",
		ApplicationStatus: domain.ApplicationSubmitted,
		EligibilityStatus: domain.EligibilityPending,
	}
	require.NoError(t, f.repos.Applications.CreateApplication(ctx, app, "staff-1"))

	err := f.apps.AdvanceApplicationStatus(ctx, "app-1", domain.ApplicationEligible, "staff-1")
	var illegal *domain.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)

	require.NoError(t, f.apps.AdvanceApplicationStatus(ctx, "app-1", domain.ApplicationUnderReview, "staff-1"))
	assert.Equal(t, domain.ApplicationUnderReview, f.appStatus(t, "app-1"))
}

func TestAdvanceApplicationStatus_CancelRetiresWaitlistEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	f.seedBeneficiary("ben-a", 5000)
	f.seedWaitlisted(t, "app-a", "ben-a")
	f.seedUnit("unit-1")

	require.NoError(t, f.apps.AdvanceApplicationStatus(ctx, "app-a", domain.ApplicationCancelled, "staff-1"))
	assert.Equal(t, domain.ApplicationCancelled, f.appStatus(t, "app-a"))

	// the queue entry left with the case
	entry, err := f.repos.Waitlist.GetEntryByApplication(ctx, "app-a")
	require.NoError(t, err)
	assert.Equal(t, domain.WaitlistRemoved, entry.Status)

	snap, err := f.waitlist.GetWaitlistSnapshot(ctx, "prog-1")
	require.NoError(t, err)
	assert.Empty(t, snap)

	// a freed unit cannot be proposed to the cancelled case
	_, err = f.alloc.ProposeAllocation(ctx, "unit-1", "staff-1")
	var cverr *domain.ConstraintViolationError
	require.ErrorAs(t, err, &cverr)
	assert.Equal(t, domain.UnitAvailable, f.unitStatus(t, "unit-1"))
}

func TestAdvanceApplicationStatus_CancelBlockedByOpenProposal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedProgram()
	f.seedBeneficiary("ben-a", 5000)
	f.seedWaitlisted(t, "app-a", "ben-a")
	f.seedUnit("unit-1")

	_, err := f.alloc.ProposeAllocation(ctx, "unit-1", "staff-1")
	require.NoError(t, err)

	// the open allocation must be resolved first; its compensation owns the entry
	err = f.apps.AdvanceApplicationStatus(ctx, "app-a", domain.ApplicationCancelled, "staff-1")
	var cverr *domain.ConstraintViolationError
	require.ErrorAs(t, err, &cverr)
	assert.Equal(t, domain.ApplicationWaitlisted, f.appStatus(t, "app-a"))
	assert.Equal(t, domain.UnitReserved, f.unitStatus(t, "unit-1"))
}
