package waitlist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/repository"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/store"
)

const snapshotKeyPrefix = "housing:waitlist:snapshot:"

// Manager serializes all waitlist mutations per program and exposes the queue
// as a derived projection: positions are recomputed from the live ordering on
// every read, never stored.
type Manager struct {
	repo   repository.WaitlistRepo
	cache  store.KV
	ttl    time.Duration
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // program_id -> mutation lock
}

func NewManager(repo repository.WaitlistRepo, cache store.KV, snapshotTTL time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		repo:   repo,
		cache:  cache,
		ttl:    snapshotTTL,
		logger: logger,
		locks:  map[string]*sync.Mutex{},
	}
}

// programLock returns the mutation lock for one program, creating it on first
// use. Two staff actions on the same program can never interleave.
func (m *Manager) programLock(programID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[programID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[programID] = l
	}
	return l
}

// Insert adds a scored entry to its program queue. The score must be computed
// before the call; nothing blocking runs under the program lock besides the
// ordering mutation itself.
func (m *Manager) Insert(ctx context.Context, entry *domain.WaitlistEntry) error {
	if entry.ApplicationID == "" {
		return &domain.ValidationError{Field: "application_id", Reason: "required"}
	}
	if entry.ProgramID == "" {
		return &domain.ValidationError{Field: "program_id", Reason: "required"}
	}
	if entry.WaitlistDate.IsZero() {
		return &domain.ValidationError{Field: "waitlist_date", Reason: "required"}
	}
	entry.Status = domain.WaitlistActive

	l := m.programLock(entry.ProgramID)
	l.Lock()
	defer l.Unlock()

	// One live entry per application per program.
	if existing, err := m.repo.GetEntryByApplication(ctx, entry.ApplicationID); err == nil {
		if existing.Status == domain.WaitlistActive || existing.Status == domain.WaitlistAllocated {
			return &domain.ConstraintViolationError{
				Invariant: "one waitlist entry per application",
				Detail:    "application " + entry.ApplicationID + " already has entry " + existing.EntryID,
			}
		}
	}

	if err := m.repo.InsertEntry(ctx, entry); err != nil {
		return err
	}
	m.invalidate(ctx, entry.ProgramID)
	return nil
}

// Remove takes an active entry out of the queue. Remaining positions close up
// on the next read because they are derived.
func (m *Manager) Remove(ctx context.Context, entryID string) error {
	entry, err := m.repo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	l := m.programLock(entry.ProgramID)
	l.Lock()
	defer l.Unlock()

	if err := m.repo.UpdateEntryStatus(ctx, entryID, domain.WaitlistActive, domain.WaitlistRemoved); err != nil {
		return err
	}
	m.invalidate(ctx, entry.ProgramID)
	return nil
}

// Rescore replaces an entry's priority score, reordering the queue.
func (m *Manager) Rescore(ctx context.Context, entryID string, newScore float64, generation int) error {
	entry, err := m.repo.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	l := m.programLock(entry.ProgramID)
	l.Lock()
	defer l.Unlock()

	if err := m.repo.UpdateEntryScore(ctx, entryID, newScore, generation); err != nil {
		return err
	}
	m.invalidate(ctx, entry.ProgramID)
	return nil
}

// PositionOf derives the entry's current 1-based queue position.
func (m *Manager) PositionOf(ctx context.Context, entryID string) (int, error) {
	entry, err := m.repo.GetEntry(ctx, entryID)
	if err != nil {
		return 0, err
	}
	if entry.Status != domain.WaitlistActive {
		return 0, &domain.ConstraintViolationError{
			Invariant: "only active entries hold queue positions",
			Detail:    "entry " + entryID + " is " + string(entry.Status),
		}
	}
	ranked, err := m.rank(ctx, entry.ProgramID)
	if err != nil {
		return 0, err
	}
	for _, r := range ranked {
		if r.EntryID == entryID {
			return r.QueuePosition, nil
		}
	}
	return 0, &domain.NotFoundError{Entity: "waitlist entry", ID: entryID}
}

// Snapshot returns the full ranked queue, positions 1..N with no gaps or
// duplicates. Served from cache when fresh.
func (m *Manager) Snapshot(ctx context.Context, programID string) ([]domain.RankedEntry, error) {
	if m.cache != nil {
		if raw, err := m.cache.Get(ctx, snapshotKey(programID)); err == nil {
			var cached []domain.RankedEntry
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		} else if err != store.ErrMiss && m.logger != nil {
			m.logger.Warn("waitlist snapshot cache read failed", zap.Error(err))
		}
	}

	ranked, err := m.rank(ctx, programID)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		if raw, err := json.Marshal(ranked); err == nil {
			if err := m.cache.Set(ctx, snapshotKey(programID), string(raw), m.ttl); err != nil && m.logger != nil {
				m.logger.Warn("waitlist snapshot cache write failed", zap.Error(err))
			}
		}
	}
	return ranked, nil
}

// Invalidate drops the cached snapshot after an out-of-band queue change
// (allocation proposals and compensations mutate entries in their own
// transactions).
func (m *Manager) Invalidate(ctx context.Context, programID string) {
	m.invalidate(ctx, programID)
}

func (m *Manager) rank(ctx context.Context, programID string) ([]domain.RankedEntry, error) {
	entries, err := m.repo.ListActiveByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	return domain.RankEntries(entries), nil
}

func (m *Manager) invalidate(ctx context.Context, programID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Del(ctx, snapshotKey(programID)); err != nil && m.logger != nil {
		m.logger.Warn("waitlist snapshot invalidation failed",
			zap.String("program_id", programID), zap.Error(err))
	}
}

func snapshotKey(programID string) string { return snapshotKeyPrefix + programID }
