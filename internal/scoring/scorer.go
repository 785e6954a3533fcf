package scoring

import (
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

// residencyCap bounds the residency term: years beyond this add nothing.
const residencyCap = 30.0

// Score maps an applicant profile to its priority score under a program's
// weights:
//
//	score = w1*(1 - normalized_income) + w2*normalized_residency
//	      + w3*category_bonus + w4*household_size_factor
//
// Deterministic: identical inputs always produce identical scores. Weights and
// bonus points come from the program row, never from constants here.
func Score(profile domain.ApplicantProfile, program domain.HousingProgram) (float64, error) {
	if program.MaxIncomeThreshold <= 0 {
		return 0, &domain.ValidationError{Field: "max_income_threshold", Reason: "must be positive"}
	}
	if program.MaxHouseholdSize <= 0 {
		return 0, &domain.ValidationError{Field: "max_household_size", Reason: "must be positive"}
	}
	if profile.MonthlyIncome < 0 {
		return 0, &domain.ValidationError{Field: "monthly_income", Reason: "cannot be negative"}
	}
	if profile.HouseholdSize <= 0 {
		return 0, &domain.ValidationError{Field: "household_size", Reason: "must be positive"}
	}
	if profile.ResidencyYears < 0 {
		return 0, &domain.ValidationError{Field: "residency_years", Reason: "cannot be negative"}
	}

	normIncome := clamp01(profile.MonthlyIncome / program.MaxIncomeThreshold)
	normResidency := clamp01(float64(profile.ResidencyYears) / residencyCap)
	sizeFactor := clamp01(float64(profile.HouseholdSize) / float64(program.MaxHouseholdSize))

	w := program.Weights
	score := w.Income*(1-normIncome) +
		w.Residency*normResidency +
		w.Category*program.Bonus.For(profile.Flags) +
		w.HouseholdSize*sizeFactor
	return score, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
