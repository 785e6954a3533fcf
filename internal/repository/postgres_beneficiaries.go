package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/screening"
)

type PostgresBeneficiariesRepo struct {
	db *sql.DB
}

func NewPostgresBeneficiariesRepo(db *sql.DB) *PostgresBeneficiariesRepo {
	return &PostgresBeneficiariesRepo{db: db}
}

const beneficiaryColumns = `
	beneficiary_id::text,
	beneficiary_no,
	first_name,
	COALESCE(middle_name, ''),
	last_name,
	birth_date,
	monthly_income,
	employment_status,
	residency_years,
	barangay,
	COALESCE(address_line, ''),
	is_senior,
	is_pwd,
	is_solo_parent,
	is_disaster_affected,
	is_indigent,
	flags_verified,
	archived,
	created_at`

func scanBeneficiary(row interface{ Scan(...any) error }) (*domain.Beneficiary, error) {
	var b domain.Beneficiary
	err := row.Scan(
		&b.BeneficiaryID,
		&b.BeneficiaryNo,
		&b.FirstName,
		&b.MiddleName,
		&b.LastName,
		&b.BirthDate,
		&b.MonthlyIncome,
		&b.EmploymentStatus,
		&b.ResidencyYears,
		&b.Barangay,
		&b.AddressLine,
		&b.Flags.Senior,
		&b.Flags.PWD,
		&b.Flags.SoloParent,
		&b.Flags.DisasterAffected,
		&b.Flags.Indigent,
		&b.FlagsVerified,
		&b.Archived,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PostgresBeneficiariesRepo) GetBeneficiary(ctx context.Context, beneficiaryID string) (*domain.Beneficiary, error) {
	q := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE beneficiary_id = $1`
	b, err := scanBeneficiary(r.db.QueryRowContext(ctx, q, beneficiaryID))
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "beneficiary", ID: beneficiaryID}
	}
	return b, err
}

func (r *PostgresBeneficiariesRepo) GetHousehold(ctx context.Context, householdID string) (*domain.Household, error) {
	var h domain.Household
	err := r.db.QueryRowContext(ctx,
		`SELECT household_id::text, household_no, head_beneficiary_id::text, created_at
		 FROM households WHERE household_id = $1`, householdID).
		Scan(&h.HouseholdID, &h.HouseholdNo, &h.HeadBeneficiaryID, &h.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "household", ID: householdID}
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+beneficiaryColumns+`
		 FROM beneficiaries
		 WHERE beneficiary_id IN (
			SELECT beneficiary_id FROM household_members WHERE household_id = $1
		 )
		 ORDER BY beneficiary_no`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		h.Members = append(h.Members, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(h.Members) == 0 {
		return nil, fmt.Errorf("household %s has no members", householdID)
	}
	return &h, nil
}

func (r *PostgresBeneficiariesRepo) GetApplicant(ctx context.Context, typ domain.ApplicantType, applicantID string) (domain.Applicant, error) {
	switch typ {
	case domain.ApplicantIndividual:
		b, err := r.GetBeneficiary(ctx, applicantID)
		if err != nil {
			return nil, err
		}
		return domain.Individual{Beneficiary: *b}, nil
	case domain.ApplicantHousehold:
		h, err := r.GetHousehold(ctx, applicantID)
		if err != nil {
			return nil, err
		}
		return domain.HouseholdApplicant{Household: *h}, nil
	}
	return nil, &domain.ValidationError{Field: "applicant_type", Reason: fmt.Sprintf("unknown type %q", typ)}
}

func (r *PostgresBeneficiariesRepo) ListScreeningRecords(ctx context.Context) ([]screening.KnownBeneficiary, error) {
	q := `
		SELECT
			b.beneficiary_id::text,
			b.beneficiary_no,
			TRIM(b.first_name || ' ' || COALESCE(b.middle_name, '') || ' ' || b.last_name),
			b.birth_date,
			b.barangay || ' ' || COALESCE(b.address_line, ''),
			b.archived,
			EXISTS (
				SELECT 1 FROM blacklist_entries be
				WHERE be.beneficiary_id = b.beneficiary_id AND be.status = 'active'
			)
		FROM beneficiaries b
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []screening.KnownBeneficiary{}
	for rows.Next() {
		var k screening.KnownBeneficiary
		if err := rows.Scan(&k.BeneficiaryID, &k.BeneficiaryNo, &k.FullName,
			&k.BirthDate, &k.Address, &k.Archived, &k.HasActiveBlacklist); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *PostgresBeneficiariesRepo) ArchiveBeneficiary(ctx context.Context, beneficiaryID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE beneficiaries SET archived = TRUE WHERE beneficiary_id = $1`, beneficiaryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Entity: "beneficiary", ID: beneficiaryID}
	}
	return nil
}

// PostgresBlacklistRepo answers active-blacklist lookups.
type PostgresBlacklistRepo struct {
	db *sql.DB
}

func NewPostgresBlacklistRepo(db *sql.DB) *PostgresBlacklistRepo {
	return &PostgresBlacklistRepo{db: db}
}

func (r *PostgresBlacklistRepo) HasActiveBlacklist(ctx context.Context, beneficiaryIDs []string) (bool, error) {
	if len(beneficiaryIDs) == 0 {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM blacklist_entries
			WHERE status = 'active' AND beneficiary_id::text = ANY($1)
		)`, pq.Array(beneficiaryIDs)).Scan(&exists)
	return exists, err
}
