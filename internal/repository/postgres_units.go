package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

type PostgresUnitsRepo struct {
	db *sql.DB
}

func NewPostgresUnitsRepo(db *sql.DB) *PostgresUnitsRepo {
	return &PostgresUnitsRepo{db: db}
}

const unitColumns = `
	unit_id::text,
	project_id::text,
	program_id::text,
	unit_no,
	unit_type,
	status,
	created_at,
	updated_at`

func scanUnit(row interface{ Scan(...any) error }) (*domain.Unit, error) {
	var u domain.Unit
	err := row.Scan(
		&u.UnitID,
		&u.ProjectID,
		&u.ProgramID,
		&u.UnitNo,
		&u.UnitType,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUnitsRepo) GetUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	q := `SELECT ` + unitColumns + ` FROM units WHERE unit_id = $1`
	u, err := scanUnit(r.db.QueryRowContext(ctx, q, unitID))
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "unit", ID: unitID}
	}
	return u, err
}

func (r *PostgresUnitsRepo) UpdateUnitStatus(ctx context.Context, unitID string, from, to domain.UnitStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE units SET status = $1, updated_at = $2 WHERE unit_id = $3 AND status = $4`,
		to, time.Now().UTC(), unitID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ConcurrencyConflictError{Entity: "unit", ID: unitID, Expected: string(from)}
	}
	return nil
}
