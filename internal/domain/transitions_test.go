package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionApplication(t *testing.T) {
	cases := []struct {
		from, to ApplicationStatus
		ok       bool
	}{
		{ApplicationSubmitted, ApplicationUnderReview, true},
		{ApplicationUnderReview, ApplicationEligible, true},
		{ApplicationUnderReview, ApplicationSiteVisitScheduled, true},
		{ApplicationSiteVisitScheduled, ApplicationSiteVisitCompleted, true},
		{ApplicationSiteVisitCompleted, ApplicationNotEligible, true},
		{ApplicationEligible, ApplicationWaitlisted, true},
		{ApplicationWaitlisted, ApplicationAllocated, true},
		// explicit fall-back after a failed allocation
		{ApplicationAllocated, ApplicationWaitlisted, true},

		{ApplicationSubmitted, ApplicationEligible, false},
		{ApplicationSubmitted, ApplicationWaitlisted, false},
		{ApplicationEligible, ApplicationAllocated, false},
		{ApplicationNotEligible, ApplicationEligible, false},
		{ApplicationCancelled, ApplicationSubmitted, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransitionApplication(c.from, c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestCanTransitionApplication_Cancel(t *testing.T) {
	// cancel is reachable from every non-terminal state except allocated
	assert.True(t, CanTransitionApplication(ApplicationSubmitted, ApplicationCancelled))
	assert.True(t, CanTransitionApplication(ApplicationUnderReview, ApplicationCancelled))
	assert.True(t, CanTransitionApplication(ApplicationWaitlisted, ApplicationCancelled))

	assert.False(t, CanTransitionApplication(ApplicationAllocated, ApplicationCancelled))
	assert.False(t, CanTransitionApplication(ApplicationNotEligible, ApplicationCancelled))
	assert.False(t, CanTransitionApplication(ApplicationCancelled, ApplicationCancelled))
}

func TestCanTransitionAllocation(t *testing.T) {
	cases := []struct {
		from, to AllocationStatus
		ok       bool
	}{
		{AllocationProposed, AllocationCommitteeReview, true},
		{AllocationCommitteeReview, AllocationApproved, true},
		{AllocationCommitteeReview, AllocationRejected, true},
		{AllocationApproved, AllocationAccepted, true},
		{AllocationApproved, AllocationDeclined, true},
		{AllocationApproved, AllocationExpired, true},
		{AllocationApproved, AllocationCancelled, true},
		{AllocationAccepted, AllocationMovedIn, true},
		{AllocationAccepted, AllocationCancelled, true},

		{AllocationProposed, AllocationApproved, false},
		{AllocationProposed, AllocationAccepted, false},
		{AllocationAccepted, AllocationDeclined, false},
		{AllocationExpired, AllocationAccepted, false},
		{AllocationMovedIn, AllocationCancelled, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransitionAllocation(c.from, c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestReleasesUnit(t *testing.T) {
	assert.True(t, AllocationRejected.ReleasesUnit())
	assert.True(t, AllocationDeclined.ReleasesUnit())
	assert.True(t, AllocationExpired.ReleasesUnit())
	assert.True(t, AllocationCancelled.ReleasesUnit())

	assert.False(t, AllocationProposed.ReleasesUnit())
	assert.False(t, AllocationAccepted.ReleasesUnit())
	assert.False(t, AllocationMovedIn.ReleasesUnit())
}

func TestRankEntries_PositionsAreGapFree(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []WaitlistEntry{
		{EntryID: "e3", PriorityScore: 0.40, WaitlistDate: base},
		{EntryID: "e1", PriorityScore: 0.90, WaitlistDate: base},
		{EntryID: "e2", PriorityScore: 0.70, WaitlistDate: base},
	}

	ranked := RankEntries(entries)
	require.Len(t, ranked, 3)
	for i, r := range ranked {
		assert.Equal(t, i+1, r.QueuePosition)
	}
	assert.Equal(t, "e1", ranked[0].EntryID)
	assert.Equal(t, "e2", ranked[1].EntryID)
	assert.Equal(t, "e3", ranked[2].EntryID)
}

func TestRankEntries_TieBreaks(t *testing.T) {
	early := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 1, 0)

	// equal scores: earlier waitlist_date wins
	ranked := RankEntries([]WaitlistEntry{
		{EntryID: "b", PriorityScore: 0.5, WaitlistDate: late},
		{EntryID: "a", PriorityScore: 0.5, WaitlistDate: early},
	})
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].EntryID)

	// equal score and date: entry_id decides, deterministically
	ranked = RankEntries([]WaitlistEntry{
		{EntryID: "z", PriorityScore: 0.5, WaitlistDate: early},
		{EntryID: "m", PriorityScore: 0.5, WaitlistDate: early},
	})
	assert.Equal(t, "m", ranked[0].EntryID)
	assert.Equal(t, "z", ranked[1].EntryID)
}

func TestHouseholdApplicant_Profile(t *testing.T) {
	head := Beneficiary{
		BeneficiaryID:  "ben-1",
		MonthlyIncome:  12000,
		ResidencyYears: 15,
		BirthDate:      time.Date(1960, 5, 2, 0, 0, 0, 0, time.UTC),
		Flags:          CategoryFlags{Senior: true},
		FlagsVerified:  true,
	}
	member := Beneficiary{
		BeneficiaryID: "ben-2",
		MonthlyIncome: 8000,
		Flags:         CategoryFlags{PWD: true},
		FlagsVerified: true,
	}
	h := HouseholdApplicant{Household: Household{
		HouseholdID:       "hh-1",
		HeadBeneficiaryID: "ben-1",
		Members:           []Beneficiary{head, member},
	}}

	p := h.Profile()
	assert.Equal(t, 20000.0, p.MonthlyIncome)
	assert.Equal(t, 2, p.HouseholdSize)
	assert.Equal(t, 15, p.ResidencyYears)
	assert.Equal(t, head.BirthDate, p.BirthDate)
	assert.True(t, p.Flags.Senior)
	assert.True(t, p.Flags.PWD)
	assert.True(t, p.FlagsVerified)
	assert.ElementsMatch(t, []string{"ben-1", "ben-2"}, h.BeneficiaryIDs())
}

func TestHousingProgram_ActiveOn(t *testing.T) {
	p := HousingProgram{
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, p.ActiveOn(time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)))
	assert.True(t, p.ActiveOn(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.ActiveOn(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, p.ActiveOn(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))

	p.Archived = true
	assert.False(t, p.ActiveOn(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
}

func TestCategoryBonus_For(t *testing.T) {
	bonus := CategoryBonus{Senior: 0.2, PWD: 0.2, SoloParent: 0.15, DisasterAffected: 0.3, Indigent: 0.15}

	assert.Equal(t, 0.0, bonus.For(CategoryFlags{}))
	assert.Equal(t, 0.2, bonus.For(CategoryFlags{Senior: true}))
	assert.InDelta(t, 0.5, bonus.For(CategoryFlags{Senior: true, DisasterAffected: true}), 1e-9)
}
