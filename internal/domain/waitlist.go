package domain

import (
	"sort"
	"time"
)

// WaitlistStatus of an entry. Only active entries occupy queue positions.
type WaitlistStatus string

const (
	WaitlistActive    WaitlistStatus = "active"
	WaitlistAllocated WaitlistStatus = "allocated"
	WaitlistRemoved   WaitlistStatus = "removed"
	WaitlistExpired   WaitlistStatus = "expired"
)

// WaitlistEntry domain model (waitlist_entries table).
// queue_position is intentionally absent: positions are a derived projection of
// the live ordering, never stored state that can drift.
type WaitlistEntry struct {
	EntryID       string `db:"entry_id"`
	ApplicationID string `db:"application_id"`
	ProgramID     string `db:"program_id"`

	PriorityScore   float64 `db:"priority_score"`
	ScoreGeneration int     `db:"score_generation"` // program generation the score was computed under

	WaitlistDate time.Time      `db:"waitlist_date"`
	Status       WaitlistStatus `db:"status"`

	CreatedAt time.Time `db:"created_at"`
}

// RankedEntry is a waitlist entry with its derived 1-based position.
type RankedEntry struct {
	WaitlistEntry
	QueuePosition int `json:"queue_position"`
}

// EntryLess is the total order of the active queue: priority_score descending,
// then earliest waitlist_date, then entry_id. Stable across repeated ranking
// runs by construction.
func EntryLess(a, b WaitlistEntry) bool {
	if a.PriorityScore != b.PriorityScore {
		return a.PriorityScore > b.PriorityScore
	}
	if !a.WaitlistDate.Equal(b.WaitlistDate) {
		return a.WaitlistDate.Before(b.WaitlistDate)
	}
	return a.EntryID < b.EntryID
}

// RankEntries sorts entries into queue order and assigns positions 1..N.
func RankEntries(entries []WaitlistEntry) []RankedEntry {
	sorted := make([]WaitlistEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return EntryLess(sorted[i], sorted[j]) })

	ranked := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = RankedEntry{WaitlistEntry: e, QueuePosition: i + 1}
	}
	return ranked
}
