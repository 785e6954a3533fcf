package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

func testProgram() domain.HousingProgram {
	return domain.HousingProgram{
		ProgramCode:        "SHP-2026",
		MaxIncomeThreshold: 30000,
		MaxHouseholdSize:   6,
		StartDate:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func testNow() time.Time {
	return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
}

func TestEvaluate_AllHardPass(t *testing.T) {
	res := Evaluate(Input{
		Profile: domain.ApplicantProfile{
			MonthlyIncome: 25000,
			HouseholdSize: 4,
			Flags:         domain.CategoryFlags{Senior: true},
			FlagsVerified: true,
		},
		Program: testProgram(),
		Now:     testNow(),
	})

	assert.Equal(t, Eligible, res.Determination)
	assert.Empty(t, res.FailedCriteria)
	assert.Contains(t, res.PassedCriteria, CriterionIncome)
	assert.Contains(t, res.PassedCriteria, CriterionBlacklist)
}

func TestEvaluate_IncomeOverThreshold(t *testing.T) {
	res := Evaluate(Input{
		Profile: domain.ApplicantProfile{MonthlyIncome: 35000, HouseholdSize: 4},
		Program: testProgram(),
		Now:     testNow(),
	})

	assert.Equal(t, NotEligible, res.Determination)
	assert.Contains(t, res.FailedCriteria, CriterionIncome)
	require.NotEmpty(t, res.Reasons)
}

func TestEvaluate_HouseholdTooLarge(t *testing.T) {
	res := Evaluate(Input{
		Profile: domain.ApplicantProfile{MonthlyIncome: 10000, HouseholdSize: 9},
		Program: testProgram(),
		Now:     testNow(),
	})

	assert.Equal(t, NotEligible, res.Determination)
	assert.Contains(t, res.FailedCriteria, CriterionHouseholdSize)
}

func TestEvaluate_BlacklistIsHardFail(t *testing.T) {
	res := Evaluate(Input{
		Profile:            domain.ApplicantProfile{MonthlyIncome: 10000, HouseholdSize: 2},
		Program:            testProgram(),
		HasActiveBlacklist: true,
		Now:                testNow(),
	})

	assert.Equal(t, NotEligible, res.Determination)
	assert.Contains(t, res.FailedCriteria, CriterionBlacklist)
}

func TestEvaluate_ProgramWindowClosed(t *testing.T) {
	res := Evaluate(Input{
		Profile: domain.ApplicantProfile{MonthlyIncome: 10000, HouseholdSize: 2},
		Program: testProgram(),
		Now:     time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, NotEligible, res.Determination)
	assert.Contains(t, res.FailedCriteria, CriterionProgramActive)
}

func TestEvaluate_AdvisoryFailuresAreConditional(t *testing.T) {
	program := testProgram()
	program.RequiresSiteVisit = true

	res := Evaluate(Input{
		Profile: domain.ApplicantProfile{
			MonthlyIncome: 10000,
			HouseholdSize: 2,
			Flags:         domain.CategoryFlags{PWD: true},
			FlagsVerified: false, // claimed but unverified
		},
		Program:            program,
		SiteVisitCompleted: false,
		Now:                testNow(),
	})

	// advisory misses alone never make an applicant not_eligible
	assert.Equal(t, Conditional, res.Determination)
	assert.Contains(t, res.FailedCriteria, CriterionSiteVisit)
	assert.Contains(t, res.FailedCriteria, CriterionFlagsVerified)
}

func TestEvaluate_HardFailOutranksAdvisory(t *testing.T) {
	program := testProgram()
	program.RequiresSiteVisit = true

	res := Evaluate(Input{
		Profile: domain.ApplicantProfile{MonthlyIncome: 50000, HouseholdSize: 2},
		Program: program,
		Now:     testNow(),
	})

	assert.Equal(t, NotEligible, res.Determination)
}

func TestEvaluate_SiteVisitOverrideWins(t *testing.T) {
	// every numeric rule passes, but the visit recommended not_eligible
	res := Evaluate(Input{
		Profile:                 domain.ApplicantProfile{MonthlyIncome: 10000, HouseholdSize: 2},
		Program:                 testProgram(),
		SiteVisitCompleted:      true,
		SiteVisitRecommendation: "not_eligible",
		Now:                     testNow(),
	})

	assert.Equal(t, NotEligible, res.Determination)
	assert.Contains(t, res.FailedCriteria, CriterionVisitOverride)
}

func TestEvaluate_SiteVisitEligibleRecommendationDoesNotOverrideHardFail(t *testing.T) {
	res := Evaluate(Input{
		Profile:                 domain.ApplicantProfile{MonthlyIncome: 50000, HouseholdSize: 2},
		Program:                 testProgram(),
		SiteVisitCompleted:      true,
		SiteVisitRecommendation: "eligible",
		Now:                     testNow(),
	})

	// only the not_eligible recommendation overrides; eligible never rescues a
	// hard failure
	assert.Equal(t, NotEligible, res.Determination)
}

func TestDetermination_ToEligibilityStatus(t *testing.T) {
	assert.Equal(t, domain.EligibilityEligible, Eligible.ToEligibilityStatus())
	assert.Equal(t, domain.EligibilityNotEligible, NotEligible.ToEligibilityStatus())
	assert.Equal(t, domain.EligibilityConditional, Conditional.ToEligibilityStatus())
}
