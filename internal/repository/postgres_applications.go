package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

type PostgresApplicationsRepo struct {
	db *sql.DB
}

func NewPostgresApplicationsRepo(db *sql.DB) *PostgresApplicationsRepo {
	return &PostgresApplicationsRepo{db: db}
}

const applicationColumns = `
	application_id::text,
	applicant_type,
	applicant_id::text,
	program_id::text,
	application_status,
	eligibility_status,
	site_visit_completed_at,
	COALESCE(site_visit_recommendation, ''),
	created_at,
	updated_at`

func scanApplication(row interface{ Scan(...any) error }) (*domain.Application, error) {
	var a domain.Application
	var visitAt sql.NullTime
	err := row.Scan(
		&a.ApplicationID,
		&a.ApplicantType,
		&a.ApplicantID,
		&a.ProgramID,
		&a.ApplicationStatus,
		&a.EligibilityStatus,
		&visitAt,
		&a.SiteVisitRecommendation,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if visitAt.Valid {
		t := visitAt.Time
		a.SiteVisitCompletedAt = &t
	}
	return &a, nil
}

func (r *PostgresApplicationsRepo) GetApplication(ctx context.Context, applicationID string) (*domain.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE application_id = $1`
	a, err := scanApplication(r.db.QueryRowContext(ctx, q, applicationID))
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "application", ID: applicationID}
	}
	return a, err
}

func (r *PostgresApplicationsRepo) CreateApplication(ctx context.Context, app *domain.Application, actor string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if app.ApplicationID == "" {
		app.ApplicationID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	_, err = tx.ExecContext(ctx,
		`INSERT INTO applications
			(application_id, applicant_type, applicant_id, program_id,
			 application_status, eligibility_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		app.ApplicationID, app.ApplicantType, app.ApplicantID, app.ProgramID,
		app.ApplicationStatus, app.EligibilityStatus, now)
	if err != nil {
		return err
	}

	if err := appendHistoryTx(ctx, tx, domain.HistoryApplication, app.ApplicationID,
		"", string(app.ApplicationStatus), actor, "", now); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresApplicationsRepo) TransitionApplication(ctx context.Context, applicationID string, from, to domain.ApplicationStatus, actor string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := transitionApplicationTx(ctx, tx, applicationID, from, to, actor, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// transitionApplicationTx is the shared CAS + history write, usable inside a
// larger allocation transaction.
func transitionApplicationTx(ctx context.Context, tx *sql.Tx, applicationID string, from, to domain.ApplicationStatus, actor string, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE applications
		 SET application_status = $1, updated_at = $2
		 WHERE application_id = $3 AND application_status = $4`,
		to, now, applicationID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ConcurrencyConflictError{Entity: "application", ID: applicationID, Expected: string(from)}
	}
	return appendHistoryTx(ctx, tx, domain.HistoryApplication, applicationID,
		string(from), string(to), actor, "", now)
}

func (r *PostgresApplicationsRepo) SetEligibility(ctx context.Context, applicationID string, status domain.EligibilityStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET eligibility_status = $1, updated_at = $2 WHERE application_id = $3`,
		status, time.Now().UTC(), applicationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Entity: "application", ID: applicationID}
	}
	return nil
}

func (r *PostgresApplicationsRepo) RecordSiteVisit(ctx context.Context, applicationID string, recommendation string, completedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications
		 SET site_visit_recommendation = $1, site_visit_completed_at = $2, updated_at = $3
		 WHERE application_id = $4`,
		recommendation, completedAt, time.Now().UTC(), applicationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Entity: "application", ID: applicationID}
	}
	return nil
}
