package domain

import "time"

// ScoreWeights are the per-program weights of the priority formula.
// Administrative configuration: stored on the program row, never constants in
// engine code.
type ScoreWeights struct {
	Income        float64 `db:"w_income"`
	Residency     float64 `db:"w_residency"`
	Category      float64 `db:"w_category"`
	HouseholdSize float64 `db:"w_household_size"`
}

// CategoryBonus holds the fixed point value each active priority flag adds to
// the category term.
type CategoryBonus struct {
	Senior           float64 `db:"bonus_senior"`
	PWD              float64 `db:"bonus_pwd"`
	SoloParent       float64 `db:"bonus_solo_parent"`
	DisasterAffected float64 `db:"bonus_disaster"`
	Indigent         float64 `db:"bonus_indigent"`
}

// For reports the summed bonus for a flag set.
func (c CategoryBonus) For(f CategoryFlags) float64 {
	var total float64
	if f.Senior {
		total += c.Senior
	}
	if f.PWD {
		total += c.PWD
	}
	if f.SoloParent {
		total += c.SoloParent
	}
	if f.DisasterAffected {
		total += c.DisasterAffected
	}
	if f.Indigent {
		total += c.Indigent
	}
	return total
}

// HousingProgram domain model (housing_programs table).
// Immutable during an allocation cycle; ScoreGeneration bumps whenever weights
// change so cached scores can be invalidated.
type HousingProgram struct {
	ProgramID   string `db:"program_id"`
	ProgramCode string `db:"program_code"`
	ProgramName string `db:"program_name"`

	MaxIncomeThreshold float64 `db:"max_income_threshold"`
	MaxHouseholdSize   int     `db:"max_household_size"`
	RequiresSiteVisit  bool    `db:"requires_site_visit"`

	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`

	Weights         ScoreWeights  `db:"-"`
	Bonus           CategoryBonus `db:"-"`
	ScoreGeneration int           `db:"score_generation"`

	// 0 means "use the service-level default window".
	AcceptanceWindowDays int `db:"acceptance_window_days"`

	Archived  bool      `db:"archived"`
	CreatedAt time.Time `db:"created_at"`
}

// ActiveOn reports whether the program accepts applications on the given day.
func (p HousingProgram) ActiveOn(t time.Time) bool {
	if p.Archived {
		return false
	}
	day := t.Truncate(24 * time.Hour)
	return !day.Before(p.StartDate.Truncate(24*time.Hour)) && !day.After(p.EndDate.Truncate(24*time.Hour))
}
