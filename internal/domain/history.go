package domain

import "time"

// HistoryEntityType names what a history record points at.
type HistoryEntityType string

const (
	HistoryApplication HistoryEntityType = "application"
	HistoryAllocation  HistoryEntityType = "allocation"
)

// SweepActor is the actor recorded for automatic expiry transitions, so audits
// can tell human actions from the background sweep.
const SweepActor = "system:sweep"

// StatusHistory is an immutable, append-only transition record
// (status_history table). Never updated or deleted.
type StatusHistory struct {
	HistoryID  string            `db:"history_id"`
	EntityType HistoryEntityType `db:"entity_type"`
	EntityID   string            `db:"entity_id"`
	FromStatus string            `db:"from_status"`
	ToStatus   string            `db:"to_status"`
	Actor      string            `db:"actor"`
	Reason     string            `db:"reason"` // '' when none given
	RecordedAt time.Time         `db:"recorded_at"`
}
