package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

type PostgresHistoryRepo struct {
	db *sql.DB
}

func NewPostgresHistoryRepo(db *sql.DB) *PostgresHistoryRepo {
	return &PostgresHistoryRepo{db: db}
}

// appendHistoryTx inserts an audit record inside the caller's transaction so
// the transition and its record commit or roll back together.
func appendHistoryTx(ctx context.Context, tx *sql.Tx, entityType domain.HistoryEntityType, entityID, from, to, actor, reason string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO status_history
			(history_id, entity_type, entity_id, from_status, to_status, actor, reason, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), entityType, entityID, from, to, actor, reason, at)
	return err
}

func (r *PostgresHistoryRepo) Append(ctx context.Context, rec *domain.StatusHistory) error {
	if rec.HistoryID == "" {
		rec.HistoryID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO status_history
			(history_id, entity_type, entity_id, from_status, to_status, actor, reason, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.HistoryID, rec.EntityType, rec.EntityID, rec.FromStatus, rec.ToStatus,
		rec.Actor, rec.Reason, rec.RecordedAt)
	return err
}

func (r *PostgresHistoryRepo) ListByEntity(ctx context.Context, entityType domain.HistoryEntityType, entityID string) ([]domain.StatusHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT history_id::text, entity_type, entity_id::text, from_status, to_status,
		        actor, COALESCE(reason, ''), recorded_at
		 FROM status_history
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY recorded_at ASC, history_id ASC`,
		entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.StatusHistory{}
	for rows.Next() {
		var h domain.StatusHistory
		if err := rows.Scan(&h.HistoryID, &h.EntityType, &h.EntityID, &h.FromStatus,
			&h.ToStatus, &h.Actor, &h.Reason, &h.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
