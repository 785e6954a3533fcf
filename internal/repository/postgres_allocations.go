package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

type PostgresAllocationsRepo struct {
	db *sql.DB
}

func NewPostgresAllocationsRepo(db *sql.DB) *PostgresAllocationsRepo {
	return &PostgresAllocationsRepo{db: db}
}

const allocationColumns = `
	allocation_id::text,
	application_id::text,
	unit_id::text,
	program_id::text,
	allocation_status,
	allocation_date,
	acceptance_deadline,
	reviewed_at,
	approved_at,
	accepted_at,
	moved_in_at,
	closed_at,
	created_at,
	updated_at`

func scanAllocation(row interface{ Scan(...any) error }) (*domain.Allocation, error) {
	var a domain.Allocation
	var reviewed, approved, accepted, movedIn, closed sql.NullTime
	err := row.Scan(
		&a.AllocationID,
		&a.ApplicationID,
		&a.UnitID,
		&a.ProgramID,
		&a.Status,
		&a.AllocationDate,
		&a.AcceptanceDeadline,
		&reviewed,
		&approved,
		&accepted,
		&movedIn,
		&closed,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ReviewedAt = nullTimePtr(reviewed)
	a.ApprovedAt = nullTimePtr(approved)
	a.AcceptedAt = nullTimePtr(accepted)
	a.MovedInAt = nullTimePtr(movedIn)
	a.ClosedAt = nullTimePtr(closed)
	return &a, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *PostgresAllocationsRepo) GetAllocation(ctx context.Context, allocationID string) (*domain.Allocation, error) {
	q := `SELECT ` + allocationColumns + ` FROM allocations WHERE allocation_id = $1`
	a, err := scanAllocation(r.db.QueryRowContext(ctx, q, allocationID))
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "allocation", ID: allocationID}
	}
	return a, err
}

func (r *PostgresAllocationsRepo) GetOpenByUnit(ctx context.Context, unitID string) (*domain.Allocation, error) {
	q := `SELECT ` + allocationColumns + `
		FROM allocations
		WHERE unit_id = $1
		  AND allocation_status IN ('proposed', 'committee_review', 'approved', 'accepted')
		LIMIT 1`
	a, err := scanAllocation(r.db.QueryRowContext(ctx, q, unitID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// CreateProposal runs the whole proposal as one transaction serialized per
// program: two concurrent unit-availability events can neither pick the same
// applicant nor double-propose one unit.
func (r *PostgresAllocationsRepo) CreateProposal(ctx context.Context, unitID string, windowDays int, actor string, now time.Time) (*domain.Allocation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var programID string
	var unitStatus domain.UnitStatus
	err = tx.QueryRowContext(ctx,
		`SELECT program_id::text, status FROM units WHERE unit_id = $1 FOR UPDATE`,
		unitID).Scan(&programID, &unitStatus)
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "unit", ID: unitID}
	}
	if err != nil {
		return nil, err
	}
	if unitStatus != domain.UnitAvailable {
		return nil, &domain.ConstraintViolationError{
			Invariant: "unit must be available",
			Detail:    "unit " + unitID + " is " + string(unitStatus),
		}
	}

	// Serialize all queue mutations for this program.
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, programID); err != nil {
		return nil, err
	}

	// Top-ranked active entry whose application is still waitlisted and whose
	// applicant carries no active blacklist. The application_status check keeps
	// withdrawn or cancelled cases out even if their entry lingered.
	var entryID, applicationID string
	err = tx.QueryRowContext(ctx, `
		SELECT e.entry_id::text, e.application_id::text
		FROM waitlist_entries e
		JOIN applications a ON a.application_id = e.application_id
		WHERE e.program_id = $1
		  AND e.status = 'active'
		  AND a.application_status = 'waitlisted'
		  AND NOT EXISTS (
			SELECT 1 FROM blacklist_entries be
			WHERE be.status = 'active'
			  AND (
				(a.applicant_type = 'individual' AND be.beneficiary_id = a.applicant_id)
				OR (a.applicant_type = 'household' AND be.beneficiary_id IN (
					SELECT hm.beneficiary_id FROM household_members hm
					WHERE hm.household_id = a.applicant_id
				))
			  )
		  )
		ORDER BY e.priority_score DESC, e.waitlist_date ASC, e.entry_id ASC
		LIMIT 1
		FOR UPDATE OF e`, programID).Scan(&entryID, &applicationID)
	if err == sql.ErrNoRows {
		return nil, &domain.ConstraintViolationError{
			Invariant: "proposal requires an eligible waitlisted applicant",
			Detail:    "no active waitlist entry for program " + programID,
		}
	}
	if err != nil {
		return nil, err
	}

	alloc := &domain.Allocation{
		AllocationID:       uuid.NewString(),
		ApplicationID:      applicationID,
		UnitID:             unitID,
		ProgramID:          programID,
		Status:             domain.AllocationProposed,
		AllocationDate:     now,
		AcceptanceDeadline: now.AddDate(0, 0, windowDays),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO allocations
			(allocation_id, application_id, unit_id, program_id, allocation_status,
			 allocation_date, acceptance_deadline, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		alloc.AllocationID, alloc.ApplicationID, alloc.UnitID, alloc.ProgramID,
		alloc.Status, alloc.AllocationDate, alloc.AcceptanceDeadline, now)
	if err != nil {
		return nil, err
	}

	if err := updateUnitStatusTx(ctx, tx, unitID, domain.UnitAvailable, domain.UnitReserved, now); err != nil {
		return nil, err
	}
	if err := updateEntryStatusTx(ctx, tx, entryID, domain.WaitlistActive, domain.WaitlistAllocated); err != nil {
		return nil, err
	}
	if err := appendHistoryTx(ctx, tx, domain.HistoryAllocation, alloc.AllocationID,
		"", string(domain.AllocationProposed), actor, "unit "+unitID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return alloc, nil
}

// TransitionAllocation applies a conditioned status change plus whatever the
// target state requires: compensating release on rejected/declined/expired/
// cancelled, unit and application promotion on accepted and moved_in.
func (r *PostgresAllocationsRepo) TransitionAllocation(ctx context.Context, allocationID string, from, to domain.AllocationStatus, actor string, now time.Time) (*domain.Allocation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	a, err := scanAllocation(tx.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE allocation_id = $1 FOR UPDATE`,
		allocationID))
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "allocation", ID: allocationID}
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, a.ProgramID); err != nil {
		return nil, err
	}

	// The row is locked, so the status check is the commit-time condition.
	if a.Status != from {
		return nil, &domain.ConcurrencyConflictError{Entity: "allocation", ID: allocationID, Expected: string(from)}
	}

	tsColumn := ""
	switch to {
	case domain.AllocationCommitteeReview:
		tsColumn = "reviewed_at"
	case domain.AllocationApproved:
		tsColumn = "approved_at"
	case domain.AllocationAccepted:
		tsColumn = "accepted_at"
	case domain.AllocationMovedIn:
		tsColumn = "moved_in_at"
	case domain.AllocationRejected, domain.AllocationDeclined, domain.AllocationExpired, domain.AllocationCancelled:
		tsColumn = "closed_at"
	}
	q := `UPDATE allocations SET allocation_status = $1, updated_at = $2`
	if tsColumn != "" {
		q += `, ` + tsColumn + ` = $2`
	}
	q += ` WHERE allocation_id = $3 AND allocation_status = $4`
	res, err := tx.ExecContext(ctx, q, to, now, allocationID, from)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, &domain.ConcurrencyConflictError{Entity: "allocation", ID: allocationID, Expected: string(from)}
	}

	switch {
	case to.ReleasesUnit():
		// Compensating action: unit back to the pool, entry back to the queue
		// at its ranked place (same score, derived position).
		unitFrom := domain.UnitReserved
		if from == domain.AllocationAccepted {
			unitFrom = domain.UnitAllocated
		}
		if err := updateUnitStatusTx(ctx, tx, a.UnitID, unitFrom, domain.UnitAvailable, now); err != nil {
			return nil, err
		}
		if err := reactivateEntryTx(ctx, tx, a.ApplicationID); err != nil {
			return nil, err
		}
		if from == domain.AllocationAccepted {
			// The application had reached allocated; move it back explicitly.
			if err := transitionApplicationTx(ctx, tx, a.ApplicationID,
				domain.ApplicationAllocated, domain.ApplicationWaitlisted, actor, now); err != nil {
				return nil, err
			}
		}
	case to == domain.AllocationAccepted:
		if err := updateUnitStatusTx(ctx, tx, a.UnitID, domain.UnitReserved, domain.UnitAllocated, now); err != nil {
			return nil, err
		}
		if err := transitionApplicationTx(ctx, tx, a.ApplicationID,
			domain.ApplicationWaitlisted, domain.ApplicationAllocated, actor, now); err != nil {
			return nil, err
		}
	case to == domain.AllocationMovedIn:
		if err := updateUnitStatusTx(ctx, tx, a.UnitID, domain.UnitAllocated, domain.UnitOccupied, now); err != nil {
			return nil, err
		}
	}

	if err := appendHistoryTx(ctx, tx, domain.HistoryAllocation, allocationID,
		string(from), string(to), actor, "", now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	a.Status = to
	a.UpdatedAt = now
	return a, nil
}

func (r *PostgresAllocationsRepo) ListExpired(ctx context.Context, asOf time.Time) ([]domain.Allocation, error) {
	q := `SELECT ` + allocationColumns + `
		FROM allocations
		WHERE allocation_status = 'approved' AND acceptance_deadline < $1
		ORDER BY acceptance_deadline ASC`
	rows, err := r.db.QueryContext(ctx, q, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Allocation{}
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func updateUnitStatusTx(ctx context.Context, tx *sql.Tx, unitID string, from, to domain.UnitStatus, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE units SET status = $1, updated_at = $2 WHERE unit_id = $3 AND status = $4`,
		to, now, unitID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ConcurrencyConflictError{Entity: "unit", ID: unitID, Expected: string(from)}
	}
	return nil
}

func updateEntryStatusTx(ctx context.Context, tx *sql.Tx, entryID string, from, to domain.WaitlistStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = $1 WHERE entry_id = $2 AND status = $3`,
		to, entryID, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ConcurrencyConflictError{Entity: "waitlist entry", ID: entryID, Expected: string(from)}
	}
	return nil
}

// reactivateEntryTx puts the application's allocated entry back in the active
// queue. Score is untouched, so the entry resumes its prior relative rank.
func reactivateEntryTx(ctx context.Context, tx *sql.Tx, applicationID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE waitlist_entries SET status = 'active'
		 WHERE application_id = $1 AND status = 'allocated'`,
		applicationID)
	return err
}
