package eligibility

import (
	"fmt"
	"time"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

// Criterion identifies one eligibility rule.
type Criterion string

const (
	CriterionIncome         Criterion = "income_threshold"
	CriterionHouseholdSize  Criterion = "household_size"
	CriterionBlacklist      Criterion = "blacklist"
	CriterionProgramActive  Criterion = "program_active"
	CriterionSiteVisit      Criterion = "site_visit"       // advisory
	CriterionFlagsVerified  Criterion = "flags_verified"   // advisory
	CriterionVisitOverride  Criterion = "visit_recommendation"
)

// Determination is the combined outcome.
type Determination string

const (
	Eligible    Determination = "eligible"
	NotEligible Determination = "not_eligible"
	Conditional Determination = "conditional"
)

// Result is the structured determination. Advisory failures are data for the
// reviewing officer, not errors.
type Result struct {
	Determination  Determination `json:"determination"`
	PassedCriteria []Criterion   `json:"passed_criteria"`
	FailedCriteria []Criterion   `json:"failed_criteria"`
	Reasons        []string      `json:"reasons"`
}

// Input is everything the evaluator looks at. The evaluator never loads or
// mutates anything itself; callers assemble the snapshot first.
type Input struct {
	Profile            domain.ApplicantProfile
	Program            domain.HousingProgram
	HasActiveBlacklist bool

	SiteVisitCompleted      bool
	SiteVisitRecommendation string // '' when no completed visit

	Now time.Time
}

// Evaluate runs every criterion independently and combines them: any hard
// failure forces not_eligible, advisory failures alone yield conditional, and
// a completed site visit recommending not_eligible overrides everything
// (the human call wins).
func Evaluate(in Input) Result {
	res := Result{Determination: Eligible}
	hardFailed := false

	pass := func(c Criterion) { res.PassedCriteria = append(res.PassedCriteria, c) }
	failHard := func(c Criterion, reason string) {
		res.FailedCriteria = append(res.FailedCriteria, c)
		res.Reasons = append(res.Reasons, reason)
		hardFailed = true
	}
	failSoft := func(c Criterion, reason string) {
		res.FailedCriteria = append(res.FailedCriteria, c)
		res.Reasons = append(res.Reasons, reason)
		if res.Determination == Eligible {
			res.Determination = Conditional
		}
	}

	// Hard criteria.
	if in.Profile.MonthlyIncome <= in.Program.MaxIncomeThreshold {
		pass(CriterionIncome)
	} else {
		failHard(CriterionIncome, fmt.Sprintf("monthly income %.2f exceeds program ceiling %.2f",
			in.Profile.MonthlyIncome, in.Program.MaxIncomeThreshold))
	}

	if in.Profile.HouseholdSize <= in.Program.MaxHouseholdSize {
		pass(CriterionHouseholdSize)
	} else {
		failHard(CriterionHouseholdSize, fmt.Sprintf("household size %d exceeds program maximum %d",
			in.Profile.HouseholdSize, in.Program.MaxHouseholdSize))
	}

	if in.HasActiveBlacklist {
		failHard(CriterionBlacklist, "applicant has an active blacklist entry")
	} else {
		pass(CriterionBlacklist)
	}

	if in.Program.ActiveOn(in.Now) {
		pass(CriterionProgramActive)
	} else {
		failHard(CriterionProgramActive, fmt.Sprintf("program %s is not active on %s",
			in.Program.ProgramCode, in.Now.Format("2006-01-02")))
	}

	// Advisory criteria.
	if in.Program.RequiresSiteVisit && !in.SiteVisitCompleted {
		failSoft(CriterionSiteVisit, "program requires a completed site visit")
	} else {
		pass(CriterionSiteVisit)
	}

	if in.Profile.Flags.Any() && !in.Profile.FlagsVerified {
		failSoft(CriterionFlagsVerified, "claimed priority category not yet verified")
	} else {
		pass(CriterionFlagsVerified)
	}

	if hardFailed {
		res.Determination = NotEligible
	}

	// A completed visit recommending not_eligible wins over the numeric rules.
	if in.SiteVisitCompleted && in.SiteVisitRecommendation == string(NotEligible) {
		res.Determination = NotEligible
		res.FailedCriteria = append(res.FailedCriteria, CriterionVisitOverride)
		res.Reasons = append(res.Reasons, "site visit recommended not_eligible")
	}

	return res
}

// ToEligibilityStatus maps a determination onto the application's
// eligibility_status dimension.
func (d Determination) ToEligibilityStatus() domain.EligibilityStatus {
	switch d {
	case Eligible:
		return domain.EligibilityEligible
	case NotEligible:
		return domain.EligibilityNotEligible
	case Conditional:
		return domain.EligibilityConditional
	}
	return domain.EligibilityPending
}
