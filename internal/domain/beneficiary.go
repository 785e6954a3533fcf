package domain

import "time"

// Beneficiary domain model (beneficiaries table).
type Beneficiary struct {
	BeneficiaryID string `db:"beneficiary_id"` // UUID, PRIMARY KEY
	BeneficiaryNo string `db:"beneficiary_no"` // VARCHAR(30), NOT NULL, UNIQUE (registry number)

	FirstName  string `db:"first_name"`
	MiddleName string `db:"middle_name"` // nullable in DB, '' here
	LastName   string `db:"last_name"`

	BirthDate        time.Time `db:"birth_date"`
	MonthlyIncome    float64   `db:"monthly_income"`
	EmploymentStatus string    `db:"employment_status"` // employed/self_employed/unemployed/retired
	ResidencyYears   int       `db:"residency_years"`

	Barangay    string `db:"barangay"`
	AddressLine string `db:"address_line"`

	Flags         CategoryFlags `db:"-"`
	FlagsVerified bool          `db:"flags_verified"` // staff confirmed supporting documents

	// Soft removal from active pools. Archived beneficiaries are never hard-deleted.
	Archived  bool      `db:"archived"`
	CreatedAt time.Time `db:"created_at"`
}

// FullName joins the name parts for display and duplicate screening.
func (b Beneficiary) FullName() string {
	name := b.FirstName
	if b.MiddleName != "" {
		name += " " + b.MiddleName
	}
	if b.LastName != "" {
		name += " " + b.LastName
	}
	return name
}

// CategoryFlags are the priority categories a beneficiary can claim.
type CategoryFlags struct {
	Senior           bool `db:"is_senior"`
	PWD              bool `db:"is_pwd"`
	SoloParent       bool `db:"is_solo_parent"`
	DisasterAffected bool `db:"is_disaster_affected"`
	Indigent         bool `db:"is_indigent"`
}

// Any reports whether at least one category is claimed.
func (f CategoryFlags) Any() bool {
	return f.Senior || f.PWD || f.SoloParent || f.DisasterAffected || f.Indigent
}

// Merge ORs two flag sets (used when aggregating household members).
func (f CategoryFlags) Merge(other CategoryFlags) CategoryFlags {
	return CategoryFlags{
		Senior:           f.Senior || other.Senior,
		PWD:              f.PWD || other.PWD,
		SoloParent:       f.SoloParent || other.SoloParent,
		DisasterAffected: f.DisasterAffected || other.DisasterAffected,
		Indigent:         f.Indigent || other.Indigent,
	}
}

// Household domain model (households table).
// A household applies as a single applicant; the head carries residency/identity.
type Household struct {
	HouseholdID       string        `db:"household_id"`
	HouseholdNo       string        `db:"household_no"`
	HeadBeneficiaryID string        `db:"head_beneficiary_id"`
	Members           []Beneficiary `db:"-"` // includes the head
	CreatedAt         time.Time     `db:"created_at"`
}

// ApplicantType distinguishes the two applicant variants.
type ApplicantType string

const (
	ApplicantIndividual ApplicantType = "individual"
	ApplicantHousehold  ApplicantType = "household"
)

// ApplicantProfile is the uniform attribute snapshot the evaluator and scorer
// consume. Eligibility and scoring code is written once against this, never
// per variant.
type ApplicantProfile struct {
	MonthlyIncome  float64
	HouseholdSize  int
	BirthDate      time.Time
	ResidencyYears int
	Flags          CategoryFlags
	FlagsVerified  bool
}

// Applicant is the polymorphic unit being evaluated and ranked: an individual
// beneficiary or a whole household.
type Applicant interface {
	ApplicantID() string
	Type() ApplicantType
	Profile() ApplicantProfile
	// BeneficiaryIDs lists every beneficiary the applicant covers; blacklist
	// screening checks all of them.
	BeneficiaryIDs() []string
}

// Individual wraps a single beneficiary as an applicant.
type Individual struct {
	Beneficiary Beneficiary
}

func (i Individual) ApplicantID() string { return i.Beneficiary.BeneficiaryID }

func (i Individual) Type() ApplicantType { return ApplicantIndividual }

func (i Individual) Profile() ApplicantProfile {
	return ApplicantProfile{
		MonthlyIncome:  i.Beneficiary.MonthlyIncome,
		HouseholdSize:  1,
		BirthDate:      i.Beneficiary.BirthDate,
		ResidencyYears: i.Beneficiary.ResidencyYears,
		Flags:          i.Beneficiary.Flags,
		FlagsVerified:  i.Beneficiary.FlagsVerified,
	}
}

func (i Individual) BeneficiaryIDs() []string { return []string{i.Beneficiary.BeneficiaryID} }

// HouseholdApplicant aggregates member attributes: income is summed, size is the
// member count, category flags are OR-ed, birth date and residency come from
// the head.
type HouseholdApplicant struct {
	Household Household
}

func (h HouseholdApplicant) ApplicantID() string { return h.Household.HouseholdID }

func (h HouseholdApplicant) Type() ApplicantType { return ApplicantHousehold }

func (h HouseholdApplicant) Profile() ApplicantProfile {
	p := ApplicantProfile{HouseholdSize: len(h.Household.Members)}
	verified := true
	for _, m := range h.Household.Members {
		p.MonthlyIncome += m.MonthlyIncome
		p.Flags = p.Flags.Merge(m.Flags)
		if m.Flags.Any() && !m.FlagsVerified {
			verified = false
		}
		if m.BeneficiaryID == h.Household.HeadBeneficiaryID {
			p.BirthDate = m.BirthDate
			p.ResidencyYears = m.ResidencyYears
		}
	}
	p.FlagsVerified = verified
	return p
}

func (h HouseholdApplicant) BeneficiaryIDs() []string {
	ids := make([]string, 0, len(h.Household.Members))
	for _, m := range h.Household.Members {
		ids = append(ids, m.BeneficiaryID)
	}
	return ids
}
