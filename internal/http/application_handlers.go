package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/screening"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/service"
)

const maxBodyBytes = 1 << 20

// ApplicationHandler exposes intake, screening, eligibility, and the case
// workflow.
type ApplicationHandler struct {
	apps   *service.ApplicationService
	logger *zap.Logger
}

func NewApplicationHandler(apps *service.ApplicationService, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, logger: logger}
}

// POST /core/api/v1/applications
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ApplicantType string `json:"applicant_type"`
		ApplicantID   string `json:"applicant_id"`
		ProgramID     string `json:"program_id"`
		Actor         string `json:"actor"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	res, err := h.apps.SubmitApplication(r.Context(), service.SubmitApplicationInput{
		ApplicantType: domain.ApplicantType(body.ApplicantType),
		ApplicantID:   body.ApplicantID,
		ProgramID:     body.ProgramID,
		Actor:         body.Actor,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// POST /core/api/v1/screening
func (h *ApplicationHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName      string   `json:"full_name"`
		BirthDate     string   `json:"birth_date"` // YYYY-MM-DD
		AddressTokens []string `json:"address_tokens"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	birthDate, err := time.Parse("2006-01-02", body.BirthDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("birth_date must be YYYY-MM-DD"))
		return
	}
	matches, hasBlacklist, err := h.apps.ScreenForDuplicates(r.Context(), screening.Candidate{
		FullName:      body.FullName,
		BirthDate:     birthDate,
		AddressTokens: body.AddressTokens,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"matches":              matches,
		"has_active_blacklist": hasBlacklist,
	}))
}

// POST /core/api/v1/applications/{id}/eligibility?auto_update=true
func (h *ApplicationHandler) Evaluate(w http.ResponseWriter, r *http.Request, applicationID string) {
	autoUpdate := r.URL.Query().Get("auto_update") == "true"
	actor := r.URL.Query().Get("actor")
	if autoUpdate && actor == "" {
		writeJSON(w, http.StatusBadRequest, Fail("actor is required with auto_update"))
		return
	}
	result, err := h.apps.EvaluateEligibility(r.Context(), applicationID, autoUpdate, actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// POST /core/api/v1/applications/{id}/status
func (h *ApplicationHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request, applicationID string) {
	var body struct {
		Status string `json:"status"`
		Actor  string `json:"actor"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	if err := h.apps.AdvanceApplicationStatus(r.Context(), applicationID,
		domain.ApplicationStatus(body.Status), body.Actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"application_id": applicationID, "status": body.Status}))
}

// POST /core/api/v1/applications/{id}/site-visit
func (h *ApplicationHandler) RecordSiteVisit(w http.ResponseWriter, r *http.Request, applicationID string) {
	var body struct {
		Recommendation string `json:"recommendation"`
		Actor          string `json:"actor"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	if err := h.apps.RecordSiteVisitOutcome(r.Context(), applicationID, body.Recommendation, body.Actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"application_id": applicationID}))
}

// GET /core/api/v1/applications/{id}/history
func (h *ApplicationHandler) History(w http.ResponseWriter, r *http.Request, applicationID string) {
	records, err := h.apps.ApplicationHistory(r.Context(), applicationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(records))
}
