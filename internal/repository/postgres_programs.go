package repository

import (
	"context"
	"database/sql"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

type PostgresProgramsRepo struct {
	db *sql.DB
}

func NewPostgresProgramsRepo(db *sql.DB) *PostgresProgramsRepo {
	return &PostgresProgramsRepo{db: db}
}

func (r *PostgresProgramsRepo) GetProgram(ctx context.Context, programID string) (*domain.HousingProgram, error) {
	q := `
		SELECT
			program_id::text,
			program_code,
			program_name,
			max_income_threshold,
			max_household_size,
			requires_site_visit,
			start_date,
			end_date,
			w_income,
			w_residency,
			w_category,
			w_household_size,
			bonus_senior,
			bonus_pwd,
			bonus_solo_parent,
			bonus_disaster,
			bonus_indigent,
			score_generation,
			acceptance_window_days,
			archived,
			created_at
		FROM housing_programs
		WHERE program_id = $1
	`
	var p domain.HousingProgram
	err := r.db.QueryRowContext(ctx, q, programID).Scan(
		&p.ProgramID,
		&p.ProgramCode,
		&p.ProgramName,
		&p.MaxIncomeThreshold,
		&p.MaxHouseholdSize,
		&p.RequiresSiteVisit,
		&p.StartDate,
		&p.EndDate,
		&p.Weights.Income,
		&p.Weights.Residency,
		&p.Weights.Category,
		&p.Weights.HouseholdSize,
		&p.Bonus.Senior,
		&p.Bonus.PWD,
		&p.Bonus.SoloParent,
		&p.Bonus.DisasterAffected,
		&p.Bonus.Indigent,
		&p.ScoreGeneration,
		&p.AcceptanceWindowDays,
		&p.Archived,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "program", ID: programID}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
