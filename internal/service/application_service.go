package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/eligibility"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/repository"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/screening"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/waitlist"
)

// ApplicationService owns application intake, the case-state workflow, and
// eligibility evaluation.
type ApplicationService struct {
	repos    repository.Repos
	screener *screening.Screener
	manager  *waitlist.Manager
	logger   *zap.Logger
	now      func() time.Time
}

func NewApplicationService(repos repository.Repos, screener *screening.Screener, manager *waitlist.Manager, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		repos:    repos,
		screener: screener,
		manager:  manager,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitApplicationInput binds one applicant to one program.
type SubmitApplicationInput struct {
	ApplicantType domain.ApplicantType
	ApplicantID   string
	ProgramID     string
	Actor         string
}

// SubmitResult carries the created application plus the screener's advisory
// findings for the reviewing officer.
type SubmitResult struct {
	Application        *domain.Application `json:"application"`
	DuplicateMatches   []screening.Match   `json:"duplicate_matches"`
	HasActiveBlacklist bool                `json:"has_active_blacklist"`
}

// SubmitApplication creates the application in `submitted` and runs duplicate
// screening. Duplicates never block submission; they are surfaced for review.
func (s *ApplicationService) SubmitApplication(ctx context.Context, in SubmitApplicationInput) (*SubmitResult, error) {
	if in.ApplicantID == "" {
		return nil, &domain.ValidationError{Field: "applicant_id", Reason: "required"}
	}
	if in.ProgramID == "" {
		return nil, &domain.ValidationError{Field: "program_id", Reason: "required"}
	}
	if in.Actor == "" {
		return nil, &domain.ValidationError{Field: "actor", Reason: "required"}
	}

	applicant, err := s.repos.Beneficiaries.GetApplicant(ctx, in.ApplicantType, in.ApplicantID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Programs.GetProgram(ctx, in.ProgramID); err != nil {
		return nil, err
	}

	matches, hasBlacklist, err := s.screenApplicant(ctx, applicant)
	if err != nil {
		return nil, err
	}

	app := &domain.Application{
		ApplicantType:     in.ApplicantType,
		ApplicantID:       in.ApplicantID,
		ProgramID:         in.ProgramID,
		ApplicationStatus: domain.ApplicationSubmitted,
		EligibilityStatus: domain.EligibilityPending,
	}
	if err := s.repos.Applications.CreateApplication(ctx, app, in.Actor); err != nil {
		return nil, err
	}

	s.logger.Info("application submitted",
		zap.String("application_id", app.ApplicationID),
		zap.String("program_id", in.ProgramID),
		zap.Int("duplicate_matches", len(matches)),
		zap.Bool("active_blacklist", hasBlacklist),
	)
	return &SubmitResult{Application: app, DuplicateMatches: matches, HasActiveBlacklist: hasBlacklist}, nil
}

// ScreenForDuplicates runs the advisory duplicate/blacklist screen for a raw
// candidate snapshot, before any beneficiary record exists.
func (s *ApplicationService) ScreenForDuplicates(ctx context.Context, cand screening.Candidate) ([]screening.Match, bool, error) {
	if strings.TrimSpace(cand.FullName) == "" {
		return nil, false, &domain.ValidationError{Field: "full_name", Reason: "required"}
	}
	known, err := s.repos.Beneficiaries.ListScreeningRecords(ctx)
	if err != nil {
		return nil, false, err
	}
	matches, hasBlacklist := s.screener.Screen(cand, known)
	return matches, hasBlacklist, nil
}

func (s *ApplicationService) screenApplicant(ctx context.Context, applicant domain.Applicant) ([]screening.Match, bool, error) {
	// Screening an already-registered applicant compares everyone except the
	// applicant's own records.
	known, err := s.repos.Beneficiaries.ListScreeningRecords(ctx)
	if err != nil {
		return nil, false, err
	}
	own := map[string]bool{}
	for _, id := range applicant.BeneficiaryIDs() {
		own[id] = true
	}
	others := known[:0:0]
	var self []screening.KnownBeneficiary
	for _, k := range known {
		if own[k.BeneficiaryID] {
			self = append(self, k)
			continue
		}
		others = append(others, k)
	}
	if len(self) == 0 {
		return nil, false, nil
	}
	cand := screening.Candidate{
		FullName:      self[0].FullName,
		BirthDate:     self[0].BirthDate,
		AddressTokens: strings.Fields(self[0].Address),
	}
	matches, _ := s.screener.Screen(cand, others)

	hasBlacklist, err := s.repos.Blacklist.HasActiveBlacklist(ctx, applicant.BeneficiaryIDs())
	if err != nil {
		return nil, false, err
	}
	return matches, hasBlacklist, nil
}

// EvaluateEligibility assembles the applicant/program snapshot and runs the
// pure evaluator. With autoUpdate the determination is persisted onto
// eligibility_status, and application_status advances when the edge is legal;
// without it the caller (staff confirmation flow) decides.
func (s *ApplicationService) EvaluateEligibility(ctx context.Context, applicationID string, autoUpdate bool, actor string) (eligibility.Result, error) {
	var zero eligibility.Result

	app, err := s.repos.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return zero, err
	}
	program, err := s.repos.Programs.GetProgram(ctx, app.ProgramID)
	if err != nil {
		return zero, err
	}
	applicant, err := s.repos.Beneficiaries.GetApplicant(ctx, app.ApplicantType, app.ApplicantID)
	if err != nil {
		return zero, err
	}
	hasBlacklist, err := s.repos.Blacklist.HasActiveBlacklist(ctx, applicant.BeneficiaryIDs())
	if err != nil {
		return zero, err
	}

	result := eligibility.Evaluate(eligibility.Input{
		Profile:                 applicant.Profile(),
		Program:                 *program,
		HasActiveBlacklist:      hasBlacklist,
		SiteVisitCompleted:      app.SiteVisitDone(),
		SiteVisitRecommendation: app.SiteVisitRecommendation,
		Now:                     s.now(),
	})

	if !autoUpdate {
		return result, nil
	}

	if err := s.repos.Applications.SetEligibility(ctx, applicationID, result.Determination.ToEligibilityStatus()); err != nil {
		return zero, err
	}
	target := domain.ApplicationEligible
	if result.Determination == eligibility.NotEligible {
		target = domain.ApplicationNotEligible
	}
	// conditional keeps the case where it is; staff resolve the advisory items.
	if result.Determination != eligibility.Conditional &&
		domain.CanTransitionApplication(app.ApplicationStatus, target) {
		if err := s.repos.Applications.TransitionApplication(ctx, applicationID,
			app.ApplicationStatus, target, actor); err != nil {
			return zero, err
		}
	}
	return result, nil
}

// AdvanceApplicationStatus applies a staff-requested case transition after
// validating it against the transition table. waitlisted and allocated are
// engine-managed and rejected here.
func (s *ApplicationService) AdvanceApplicationStatus(ctx context.Context, applicationID string, to domain.ApplicationStatus, actor string) error {
	if to == domain.ApplicationWaitlisted || to == domain.ApplicationAllocated {
		return &domain.ConstraintViolationError{
			Invariant: "engine-managed status",
			Detail:    string(to) + " is reached through waitlist/allocation operations only",
		}
	}
	app, err := s.repos.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if !domain.CanTransitionApplication(app.ApplicationStatus, to) {
		return &domain.IllegalTransitionError{Entity: "application", From: string(app.ApplicationStatus), To: string(to)}
	}
	if app.ApplicationStatus == domain.ApplicationWaitlisted && to == domain.ApplicationCancelled {
		return s.cancelWaitlisted(ctx, app, actor)
	}
	return s.repos.Applications.TransitionApplication(ctx, applicationID, app.ApplicationStatus, to, actor)
}

// cancelWaitlisted retires the case's live queue entry together with the
// cancellation: a cancelled application must never stay selectable for unit
// proposals. An allocated entry means a proposal is already open on the case;
// that allocation has to be resolved first so its compensation runs.
func (s *ApplicationService) cancelWaitlisted(ctx context.Context, app *domain.Application, actor string) error {
	entry, err := s.repos.Waitlist.GetEntryByApplication(ctx, app.ApplicationID)
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return s.repos.Applications.TransitionApplication(ctx, app.ApplicationID,
			app.ApplicationStatus, domain.ApplicationCancelled, actor)
	}
	if err != nil {
		return err
	}
	if entry.Status == domain.WaitlistAllocated {
		return &domain.ConstraintViolationError{
			Invariant: "no cancellation under an open allocation",
			Detail:    "application " + app.ApplicationID + " has a pending unit proposal",
		}
	}

	if entry.Status == domain.WaitlistActive {
		if err := s.manager.Remove(ctx, entry.EntryID); err != nil {
			return err
		}
	}
	if err := s.repos.Applications.TransitionApplication(ctx, app.ApplicationID,
		app.ApplicationStatus, domain.ApplicationCancelled, actor); err != nil {
		// queue and case must stay in step: put the entry back at its kept score
		if entry.Status == domain.WaitlistActive {
			if rerr := s.repos.Waitlist.UpdateEntryStatus(ctx, entry.EntryID,
				domain.WaitlistRemoved, domain.WaitlistActive); rerr != nil {
				s.logger.Error("waitlist reactivation after failed cancel did not apply",
					zap.String("entry_id", entry.EntryID), zap.Error(rerr))
			} else {
				s.manager.Invalidate(ctx, entry.ProgramID)
			}
		}
		return err
	}
	return nil
}

// RecordSiteVisitOutcome stores a completed visit's recommendation and moves
// the case to site_visit_completed.
func (s *ApplicationService) RecordSiteVisitOutcome(ctx context.Context, applicationID string, recommendation string, actor string) error {
	switch recommendation {
	case string(eligibility.Eligible), string(eligibility.NotEligible), string(eligibility.Conditional):
	default:
		return &domain.ValidationError{Field: "recommendation", Reason: "must be eligible, not_eligible, or conditional"}
	}

	app, err := s.repos.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if !domain.CanTransitionApplication(app.ApplicationStatus, domain.ApplicationSiteVisitCompleted) {
		return &domain.IllegalTransitionError{
			Entity: "application",
			From:   string(app.ApplicationStatus),
			To:     string(domain.ApplicationSiteVisitCompleted),
		}
	}

	if err := s.repos.Applications.RecordSiteVisit(ctx, applicationID, recommendation, s.now()); err != nil {
		return err
	}
	return s.repos.Applications.TransitionApplication(ctx, applicationID,
		app.ApplicationStatus, domain.ApplicationSiteVisitCompleted, actor)
}

// ApplicationHistory returns the audit trail of one application.
func (s *ApplicationService) ApplicationHistory(ctx context.Context, applicationID string) ([]domain.StatusHistory, error) {
	return s.repos.History.ListByEntity(ctx, domain.HistoryApplication, applicationID)
}
