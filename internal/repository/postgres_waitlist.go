package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

type PostgresWaitlistRepo struct {
	db *sql.DB
}

func NewPostgresWaitlistRepo(db *sql.DB) *PostgresWaitlistRepo {
	return &PostgresWaitlistRepo{db: db}
}

const waitlistColumns = `
	entry_id::text,
	application_id::text,
	program_id::text,
	priority_score,
	score_generation,
	waitlist_date,
	status,
	created_at`

func scanWaitlistEntry(row interface{ Scan(...any) error }) (*domain.WaitlistEntry, error) {
	var e domain.WaitlistEntry
	err := row.Scan(
		&e.EntryID,
		&e.ApplicationID,
		&e.ProgramID,
		&e.PriorityScore,
		&e.ScoreGeneration,
		&e.WaitlistDate,
		&e.Status,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresWaitlistRepo) GetEntry(ctx context.Context, entryID string) (*domain.WaitlistEntry, error) {
	q := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE entry_id = $1`
	e, err := scanWaitlistEntry(r.db.QueryRowContext(ctx, q, entryID))
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "waitlist entry", ID: entryID}
	}
	return e, err
}

func (r *PostgresWaitlistRepo) GetEntryByApplication(ctx context.Context, applicationID string) (*domain.WaitlistEntry, error) {
	q := `SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE application_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	e, err := scanWaitlistEntry(r.db.QueryRowContext(ctx, q, applicationID))
	if err == sql.ErrNoRows {
		return nil, &domain.NotFoundError{Entity: "waitlist entry", ID: applicationID}
	}
	return e, err
}

// ListActiveByProgram returns the live queue in ranking order. The ORDER BY is
// the single source of truth for queue positions on the Postgres path.
func (r *PostgresWaitlistRepo) ListActiveByProgram(ctx context.Context, programID string) ([]domain.WaitlistEntry, error) {
	q := `SELECT ` + waitlistColumns + `
		FROM waitlist_entries
		WHERE program_id = $1 AND status = 'active'
		ORDER BY priority_score DESC, waitlist_date ASC, entry_id ASC`
	rows, err := r.db.QueryContext(ctx, q, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.WaitlistEntry{}
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *PostgresWaitlistRepo) InsertEntry(ctx context.Context, entry *domain.WaitlistEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO waitlist_entries
			(entry_id, application_id, program_id, priority_score, score_generation,
			 waitlist_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.EntryID, entry.ApplicationID, entry.ProgramID, entry.PriorityScore,
		entry.ScoreGeneration, entry.WaitlistDate, entry.Status, entry.CreatedAt)
	return err
}

func (r *PostgresWaitlistRepo) UpdateEntryStatus(ctx context.Context, entryID string, from, to domain.WaitlistStatus) error {
	res, err := r.db.ExecContext(ctx,
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

func (r *PostgresWaitlistRepo) UpdateEntryScore(ctx context.Context, entryID string, score float64, generation int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE waitlist_entries SET priority_score = $1, score_generation = $2 WHERE entry_id = $3`,
		score, generation, entryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.NotFoundError{Entity: "waitlist entry", ID: entryID}
	}
	return nil
}
