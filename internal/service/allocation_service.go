package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/repository"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/waitlist"
)

// AllocationService drives the unit-to-applicant lifecycle: proposal creation
// on unit availability, the review/acceptance ladder, compensating releases,
// and the deadline sweep.
type AllocationService struct {
	repos             repository.Repos
	manager           *waitlist.Manager
	defaultWindowDays int
	logger            *zap.Logger
	now               func() time.Time
}

func NewAllocationService(repos repository.Repos, manager *waitlist.Manager, defaultWindowDays int, logger *zap.Logger) *AllocationService {
	if defaultWindowDays <= 0 {
		defaultWindowDays = 30
	}
	return &AllocationService{
		repos:             repos,
		manager:           manager,
		defaultWindowDays: defaultWindowDays,
		logger:            logger,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// ProposeAllocation reacts to a unit becoming available: it selects the
// top-ranked non-blacklisted waitlist entry of the unit's program and creates
// a proposed allocation, all in one serialized transaction.
func (s *AllocationService) ProposeAllocation(ctx context.Context, unitID string, actor string) (*domain.Allocation, error) {
	unit, err := s.repos.Units.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	program, err := s.repos.Programs.GetProgram(ctx, unit.ProgramID)
	if err != nil {
		return nil, err
	}
	windowDays := program.AcceptanceWindowDays
	if windowDays <= 0 {
		windowDays = s.defaultWindowDays
	}

	alloc, err := s.repos.Allocations.CreateProposal(ctx, unitID, windowDays, actor, s.now())
	if err != nil {
		return nil, err
	}
	s.manager.Invalidate(ctx, alloc.ProgramID)

	s.logger.Info("allocation proposed",
		zap.String("allocation_id", alloc.AllocationID),
		zap.String("unit_id", unitID),
		zap.String("application_id", alloc.ApplicationID),
		zap.Time("acceptance_deadline", alloc.AcceptanceDeadline),
	)
	return alloc, nil
}

// BeginCommitteeReview moves a fresh proposal in front of the committee.
func (s *AllocationService) BeginCommitteeReview(ctx context.Context, allocationID string, actor string) (*domain.Allocation, error) {
	return s.transition(ctx, allocationID, domain.AllocationCommitteeReview, actor)
}

// ApproveAllocation records the committee's approval; the acceptance window
// is already running from the proposal date.
func (s *AllocationService) ApproveAllocation(ctx context.Context, allocationID string, actor string) (*domain.Allocation, error) {
	return s.transition(ctx, allocationID, domain.AllocationApproved, actor)
}

// RejectAllocation runs the compensating action: unit released, entry back at
// its ranked place.
func (s *AllocationService) RejectAllocation(ctx context.Context, allocationID string, actor string) (*domain.Allocation, error) {
	return s.transition(ctx, allocationID, domain.AllocationRejected, actor)
}

// AcceptAllocation is the beneficiary's acceptance before the deadline; the
// application reaches allocated and the entry permanently leaves the queue.
func (s *AllocationService) AcceptAllocation(ctx context.Context, allocationID string, actor string) (*domain.Allocation, error) {
	return s.transition(ctx, allocationID, domain.AllocationAccepted, actor)
}

// DeclineAllocation is the beneficiary's refusal; compensating action runs.
func (s *AllocationService) DeclineAllocation(ctx context.Context, allocationID string, actor string) (*domain.Allocation, error) {
	return s.transition(ctx, allocationID, domain.AllocationDeclined, actor)
}

// MarkMovedIn records physical occupancy.
func (s *AllocationService) MarkMovedIn(ctx context.Context, allocationID string, actor string) (*domain.Allocation, error) {
	return s.transition(ctx, allocationID, domain.AllocationMovedIn, actor)
}

// CancelAllocation is the explicit administrative escape hatch for approved or
// accepted allocations. It always runs the full compensating action and is
// audited with the human actor.
func (s *AllocationService) CancelAllocation(ctx context.Context, allocationID string, actor string) (*domain.Allocation, error) {
	return s.transition(ctx, allocationID, domain.AllocationCancelled, actor)
}

func (s *AllocationService) transition(ctx context.Context, allocationID string, to domain.AllocationStatus, actor string) (*domain.Allocation, error) {
	if actor == "" {
		return nil, &domain.ValidationError{Field: "actor", Reason: "required"}
	}
	current, err := s.repos.Allocations.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransitionAllocation(current.Status, to) {
		return nil, &domain.IllegalTransitionError{Entity: "allocation", From: string(current.Status), To: string(to)}
	}

	// The repo re-checks the source status at commit time; a concurrent actor
	// surfaces as ConcurrencyConflictError, never a silent overwrite.
	alloc, err := s.repos.Allocations.TransitionAllocation(ctx, allocationID, current.Status, to, actor, s.now())
	if err != nil {
		return nil, err
	}
	if to.ReleasesUnit() {
		s.manager.Invalidate(ctx, alloc.ProgramID)
	}

	s.logger.Info("allocation transitioned",
		zap.String("allocation_id", allocationID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
		zap.String("actor", actor),
	)
	return alloc, nil
}

// RunExpirySweep expires every approved allocation past its deadline and runs
// the compensating actions. Safe to run repeatedly and concurrently: each
// expiry is conditioned on the allocation still being approved, so a sweep
// racing a human accept loses cleanly and moves on.
func (s *AllocationService) RunExpirySweep(ctx context.Context) (int, error) {
	asOf := s.now()
	overdue, err := s.repos.Allocations.ListExpired(ctx, asOf)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, a := range overdue {
		_, err := s.repos.Allocations.TransitionAllocation(ctx, a.AllocationID,
			domain.AllocationApproved, domain.AllocationExpired, domain.SweepActor, asOf)
		if err != nil {
			var conflict *domain.ConcurrencyConflictError
			if errors.As(err, &conflict) {
				// Someone accepted/declined first; nothing to do.
				continue
			}
			return expired, err
		}
		s.manager.Invalidate(ctx, a.ProgramID)
		expired++
		s.logger.Info("allocation expired by sweep",
			zap.String("allocation_id", a.AllocationID),
			zap.Time("acceptance_deadline", a.AcceptanceDeadline),
		)
	}
	return expired, nil
}

// AllocationHistory returns the audit trail of one allocation.
func (s *AllocationService) AllocationHistory(ctx context.Context, allocationID string) ([]domain.StatusHistory, error) {
	return s.repos.History.ListByEntity(ctx, domain.HistoryAllocation, allocationID)
}

// SweepRunner invokes the expiry sweep on a fixed interval until its context
// is cancelled.
type SweepRunner struct {
	service  *AllocationService
	interval time.Duration
	logger   *zap.Logger
}

func NewSweepRunner(service *AllocationService, interval time.Duration, logger *zap.Logger) *SweepRunner {
	return &SweepRunner{service: service, interval: interval, logger: logger}
}

func (r *SweepRunner) Start(ctx context.Context) {
	r.logger.Info("starting expiry sweep loop", zap.Duration("interval", r.interval))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("expiry sweep loop stopped")
			return
		case <-ticker.C:
			n, err := r.service.RunExpirySweep(ctx)
			if err != nil {
				r.logger.Error("expiry sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				r.logger.Info("expiry sweep completed", zap.Int("expired", n))
			}
		}
	}
}
