package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/service"
)

// WaitlistHandler exposes queue mutations and the ranked snapshot.
type WaitlistHandler struct {
	waitlist *service.WaitlistService
	logger   *zap.Logger
}

func NewWaitlistHandler(waitlist *service.WaitlistService, logger *zap.Logger) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist, logger: logger}
}

// POST /core/api/v1/waitlist/{applicationID}
func (h *WaitlistHandler) Enqueue(w http.ResponseWriter, r *http.Request, applicationID string) {
	var body struct {
		Actor string `json:"actor"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	entry, err := h.waitlist.EnqueueWaitlist(r.Context(), applicationID, body.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(entry))
}

// DELETE /core/api/v1/waitlist/{applicationID}?actor=...
func (h *WaitlistHandler) Dequeue(w http.ResponseWriter, r *http.Request, applicationID string) {
	actor := r.URL.Query().Get("actor")
	if actor == "" {
		writeJSON(w, http.StatusBadRequest, Fail("actor is required"))
		return
	}
	if err := h.waitlist.DequeueWaitlist(r.Context(), applicationID, actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"application_id": applicationID}))
}

// POST /core/api/v1/waitlist/{applicationID}/rescore
func (h *WaitlistHandler) Rescore(w http.ResponseWriter, r *http.Request, applicationID string) {
	var body struct {
		Actor string `json:"actor"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	entry, err := h.waitlist.RescoreApplication(r.Context(), applicationID, body.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(entry))
}

// GET /core/api/v1/programs/{id}/waitlist
func (h *WaitlistHandler) Snapshot(w http.ResponseWriter, r *http.Request, programID string) {
	snapshot, err := h.waitlist.GetWaitlistSnapshot(r.Context(), programID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(snapshot))
}
