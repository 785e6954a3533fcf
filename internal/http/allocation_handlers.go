package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/service"
)

// AllocationHandler exposes the allocation lifecycle.
type AllocationHandler struct {
	allocations *service.AllocationService
	logger      *zap.Logger
}

func NewAllocationHandler(allocations *service.AllocationService, logger *zap.Logger) *AllocationHandler {
	return &AllocationHandler{allocations: allocations, logger: logger}
}

// POST /core/api/v1/units/{id}/propose
func (h *AllocationHandler) Propose(w http.ResponseWriter, r *http.Request, unitID string) {
	var body struct {
		Actor string `json:"actor"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	if body.Actor == "" {
		writeJSON(w, http.StatusBadRequest, Fail("actor is required"))
		return
	}
	alloc, err := h.allocations.ProposeAllocation(r.Context(), unitID, body.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alloc))
}

// POST /core/api/v1/allocations/{id}/{action}
func (h *AllocationHandler) Action(w http.ResponseWriter, r *http.Request, allocationID, action string) {
	var body struct {
		Actor string `json:"actor"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid JSON body"))
		return
	}
	if body.Actor == "" {
		writeJSON(w, http.StatusBadRequest, Fail("actor is required"))
		return
	}

	var fn func(context.Context, string, string) (*domain.Allocation, error)
	switch action {
	case "review":
		fn = h.allocations.BeginCommitteeReview
	case "approve":
		fn = h.allocations.ApproveAllocation
	case "reject":
		fn = h.allocations.RejectAllocation
	case "accept":
		fn = h.allocations.AcceptAllocation
	case "decline":
		fn = h.allocations.DeclineAllocation
	case "move-in":
		fn = h.allocations.MarkMovedIn
	case "cancel":
		fn = h.allocations.CancelAllocation
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	alloc, err := fn(r.Context(), allocationID, body.Actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alloc))
}

// GET /core/api/v1/allocations/{id}/history
func (h *AllocationHandler) History(w http.ResponseWriter, r *http.Request, allocationID string) {
	records, err := h.allocations.AllocationHistory(r.Context(), allocationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(records))
}

// POST /core/api/v1/sweep
func (h *AllocationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.allocations.RunExpirySweep(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"expired": n}))
}
