package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/repository"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/scoring"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/waitlist"
)

// WaitlistService registers eligible applications with the ranked queue and
// serves queue projections.
type WaitlistService struct {
	repos   repository.Repos
	manager *waitlist.Manager
	logger  *zap.Logger
	now     func() time.Time
}

func NewWaitlistService(repos repository.Repos, manager *waitlist.Manager, logger *zap.Logger) *WaitlistService {
	return &WaitlistService{
		repos:   repos,
		manager: manager,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// EnqueueWaitlist scores the application's applicant and inserts it into the
// program queue. Scoring happens before the program lock is taken; only the
// ordering mutation runs under it.
func (s *WaitlistService) EnqueueWaitlist(ctx context.Context, applicationID string, actor string) (*domain.WaitlistEntry, error) {
	app, err := s.repos.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.EligibilityStatus != domain.EligibilityEligible {
		return nil, &domain.ConstraintViolationError{
			Invariant: "waitlisting requires eligibility",
			Detail:    "application " + applicationID + " is " + string(app.EligibilityStatus),
		}
	}
	if !domain.CanTransitionApplication(app.ApplicationStatus, domain.ApplicationWaitlisted) {
		return nil, &domain.IllegalTransitionError{
			Entity: "application",
			From:   string(app.ApplicationStatus),
			To:     string(domain.ApplicationWaitlisted),
		}
	}

	applicant, err := s.repos.Beneficiaries.GetApplicant(ctx, app.ApplicantType, app.ApplicantID)
	if err != nil {
		return nil, err
	}
	blacklisted, err := s.repos.Blacklist.HasActiveBlacklist(ctx, applicant.BeneficiaryIDs())
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, &domain.ConstraintViolationError{
			Invariant: "blacklisted applicants cannot be waitlisted",
			Detail:    "applicant " + app.ApplicantID + " has an active blacklist entry",
		}
	}

	program, err := s.repos.Programs.GetProgram(ctx, app.ProgramID)
	if err != nil {
		return nil, err
	}
	score, err := scoring.Score(applicant.Profile(), *program)
	if err != nil {
		return nil, err
	}

	entry := &domain.WaitlistEntry{
		ApplicationID:   applicationID,
		ProgramID:       app.ProgramID,
		PriorityScore:   score,
		ScoreGeneration: program.ScoreGeneration,
		WaitlistDate:    s.now(),
		Status:          domain.WaitlistActive,
	}
	if err := s.manager.Insert(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.repos.Applications.TransitionApplication(ctx, applicationID,
		app.ApplicationStatus, domain.ApplicationWaitlisted, actor); err != nil {
		// a concurrent staff action moved the case; undo the insert so the
		// queue and the case stay in step
		if rerr := s.manager.Remove(ctx, entry.EntryID); rerr != nil {
			s.logger.Error("waitlist insert compensation did not apply",
				zap.String("entry_id", entry.EntryID), zap.Error(rerr))
		}
		return nil, err
	}

	s.logger.Info("application waitlisted",
		zap.String("application_id", applicationID),
		zap.String("program_id", app.ProgramID),
		zap.Float64("priority_score", score),
	)
	return entry, nil
}

// DequeueWaitlist withdraws an application from the queue and cancels the
// case.
func (s *WaitlistService) DequeueWaitlist(ctx context.Context, applicationID string, actor string) error {
	app, err := s.repos.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	entry, err := s.repos.Waitlist.GetEntryByApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if entry.Status != domain.WaitlistActive {
		return &domain.ConstraintViolationError{
			Invariant: "only active entries can be withdrawn",
			Detail:    "entry " + entry.EntryID + " is " + string(entry.Status),
		}
	}
	if err := s.manager.Remove(ctx, entry.EntryID); err != nil {
		return err
	}
	if err := s.repos.Applications.TransitionApplication(ctx, applicationID,
		app.ApplicationStatus, domain.ApplicationCancelled, actor); err != nil {
		// reinstate the entry at its kept score so the withdrawal is all-or-nothing
		if rerr := s.repos.Waitlist.UpdateEntryStatus(ctx, entry.EntryID,
			domain.WaitlistRemoved, domain.WaitlistActive); rerr != nil {
			s.logger.Error("waitlist removal compensation did not apply",
				zap.String("entry_id", entry.EntryID), zap.Error(rerr))
		} else {
			s.manager.Invalidate(ctx, entry.ProgramID)
		}
		return err
	}
	return nil
}

// GetWaitlistSnapshot returns the ranked queue, positions 1..N.
func (s *WaitlistService) GetWaitlistSnapshot(ctx context.Context, programID string) ([]domain.RankedEntry, error) {
	return s.manager.Snapshot(ctx, programID)
}

// RescoreApplication recomputes an entry's score from the current applicant
// attributes and program weights: declared-income changes and weight changes
// (a bumped score_generation) both land here. The waitlist_date is kept, so
// ties still resolve by original queue entry.
func (s *WaitlistService) RescoreApplication(ctx context.Context, applicationID string, actor string) (*domain.WaitlistEntry, error) {
	app, err := s.repos.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	entry, err := s.repos.Waitlist.GetEntryByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.WaitlistActive {
		return nil, &domain.ConstraintViolationError{
			Invariant: "only active entries are rescored",
			Detail:    "entry " + entry.EntryID + " is " + string(entry.Status),
		}
	}

	applicant, err := s.repos.Beneficiaries.GetApplicant(ctx, app.ApplicantType, app.ApplicantID)
	if err != nil {
		return nil, err
	}
	program, err := s.repos.Programs.GetProgram(ctx, app.ProgramID)
	if err != nil {
		return nil, err
	}
	score, err := scoring.Score(applicant.Profile(), *program)
	if err != nil {
		return nil, err
	}

	if score == entry.PriorityScore && program.ScoreGeneration == entry.ScoreGeneration {
		return entry, nil
	}
	if err := s.manager.Rescore(ctx, entry.EntryID, score, program.ScoreGeneration); err != nil {
		return nil, err
	}
	s.logger.Info("waitlist entry rescored",
		zap.String("entry_id", entry.EntryID),
		zap.Float64("old_score", entry.PriorityScore),
		zap.Float64("new_score", score),
		zap.String("actor", actor),
	)
	entry.PriorityScore = score
	entry.ScoreGeneration = program.ScoreGeneration
	return entry, nil
}
