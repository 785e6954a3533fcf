package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	httpapi "github.com/RishHolt/Urban-Planning-Sys-sub000/internal/http"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/repository"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/screening"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/service"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/waitlist"
)

func newTestServer(t *testing.T) (*httptest.Server, *repository.MemoryStore) {
	t.Helper()
	mem := repository.NewMemoryStore()
	repos := mem.Repos()
	logger := zap.NewNop()

	manager := waitlist.NewManager(repos.Waitlist, nil, time.Minute, logger)
	apps := service.NewApplicationService(repos, screening.NewScreener(0.75, logger), manager, logger)
	wl := service.NewWaitlistService(repos, manager, logger)
	alloc := service.NewAllocationService(repos, manager, 30, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterApplicationRoutes(httpapi.NewApplicationHandler(apps, logger))
	router.RegisterWaitlistRoutes(httpapi.NewWaitlistHandler(wl, logger))
	router.RegisterAllocationRoutes(httpapi.NewAllocationHandler(alloc, logger))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, mem
}

func seedProgramAndBeneficiary(mem *repository.MemoryStore) {
	mem.PutProgram(domain.HousingProgram{
		ProgramID:          "prog-1",
		ProgramCode:        "SHP-2026",
		ProgramName:        "Socialized Housing 2026",
		MaxIncomeThreshold: 30000,
		MaxHouseholdSize:   6,
		StartDate:          time.Now().UTC().AddDate(-1, 0, 0),
		EndDate:            time.Now().UTC().AddDate(1, 0, 0),
		Weights:            domain.ScoreWeights{Income: 0.4, Residency: 0.25, Category: 0.25, HouseholdSize: 0.1},
		ScoreGeneration:    1,
	})
	mem.PutBeneficiary(domain.Beneficiary{
		BeneficiaryID:  "ben-1",
		BeneficiaryNo:  "B-0001",
		FirstName:      "Maria",
		LastName:       "Cruz",
		BirthDate:      time.Date(1985, 7, 14, 0, 0, 0, 0, time.UTC),
		MonthlyIncome:  12000,
		ResidencyYears: 8,
		Barangay:       "Bagong Silang",
	})
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestSubmitApplicationEndpoint(t *testing.T) {
	srv, mem := newTestServer(t)
	seedProgramAndBeneficiary(mem)

	resp := postJSON(t, srv.URL+"/core/api/v1/applications", map[string]string{
		"applicant_type": "individual",
		"applicant_id":   "ben-1",
		"program_id":     "prog-1",
		"actor":          "staff-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, httpapi.ResultSuccess, env.Code)
	assert.Equal(t, "success", env.Type)

	var result struct {
		Application struct {
			ApplicationID     string `json:"ApplicationID"`
			ApplicationStatus string `json:"ApplicationStatus"`
		} `json:"application"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.NotEmpty(t, result.Application.ApplicationID)
	assert.Equal(t, "submitted", result.Application.ApplicationStatus)
}

func TestSubmitApplicationEndpoint_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/core/api/v1/applications", map[string]string{
		"applicant_type": "individual",
		"program_id":     "prog-1",
		"actor":          "staff-1",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, httpapi.ResultError, env.Code)
	assert.Contains(t, env.Message, "applicant_id")
}

func TestEndpointErrorMapping(t *testing.T) {
	srv, mem := newTestServer(t)
	seedProgramAndBeneficiary(mem)

	// unknown application -> 404
	resp := postJSON(t, srv.URL+"/core/api/v1/applications/ghost/eligibility", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// unknown allocation action -> 404
	resp = postJSON(t, srv.URL+"/core/api/v1/allocations/alloc-1/frobnicate", map[string]string{"actor": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// wrong method -> 405
	getResp, err := http.Get(srv.URL + "/core/api/v1/applications")
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, getResp.StatusCode)
	getResp.Body.Close()
}

func TestWaitlistSnapshotEndpoint(t *testing.T) {
	srv, mem := newTestServer(t)
	seedProgramAndBeneficiary(mem)

	app := &domain.Application{
		ApplicationID:     "app-1",
		ApplicantType:     domain.ApplicantIndividual,
		ApplicantID:       "ben-1",
		ProgramID:         "prog-1",
		ApplicationStatus: domain.ApplicationEligible,
		EligibilityStatus: domain.EligibilityEligible,
	}
	require.NoError(t, mem.CreateApplication(context.Background(), app, "staff-1"))

	resp := postJSON(t, srv.URL+"/core/api/v1/waitlist/app-1", map[string]string{"actor": "staff-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	snapResp, err := http.Get(srv.URL + "/core/api/v1/programs/prog-1/waitlist")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, snapResp.StatusCode)

	env := decodeEnvelope(t, snapResp)
	var ranked []struct {
		QueuePosition int `json:"queue_position"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &ranked))
	require.Len(t, ranked, 1)
	assert.Equal(t, 1, ranked[0].QueuePosition)
}

func TestSweepEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/core/api/v1/sweep", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	var result map[string]int
	require.NoError(t, json.Unmarshal(env.Result, &result))
	assert.Equal(t, 0, result["expired"])
}
