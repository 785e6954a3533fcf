package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux (no third-party router
// dependency needed for this surface).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterApplicationRoutes wires the intake/eligibility surface.
func (r *Router) RegisterApplicationRoutes(h *ApplicationHandler) {
	r.Handle("/core/api/v1/applications", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Submit(w, req)
	})

	r.Handle("/core/api/v1/screening", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Screen(w, req)
	})

	// applications/{id}/{action}
	r.Handle("/core/api/v1/applications/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/core/api/v1/applications/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		id, action := parts[0], parts[1]
		switch {
		case action == "eligibility" && req.Method == http.MethodPost:
			h.Evaluate(w, req, id)
		case action == "status" && req.Method == http.MethodPost:
			h.AdvanceStatus(w, req, id)
		case action == "site-visit" && req.Method == http.MethodPost:
			h.RecordSiteVisit(w, req, id)
		case action == "history" && req.Method == http.MethodGet:
			h.History(w, req, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterWaitlistRoutes wires queue operations and snapshots.
func (r *Router) RegisterWaitlistRoutes(h *WaitlistHandler) {
	// waitlist/{applicationID}
	r.Handle("/core/api/v1/waitlist/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/core/api/v1/waitlist/")
		parts := strings.Split(rest, "/")
		if len(parts) == 0 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		id := parts[0]
		switch {
		case len(parts) == 1 && req.Method == http.MethodPost:
			h.Enqueue(w, req, id)
		case len(parts) == 1 && req.Method == http.MethodDelete:
			h.Dequeue(w, req, id)
		case len(parts) == 2 && parts[1] == "rescore" && req.Method == http.MethodPost:
			h.Rescore(w, req, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	// programs/{id}/waitlist
	r.Handle("/core/api/v1/programs/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/core/api/v1/programs/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[1] != "waitlist" || req.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Snapshot(w, req, parts[0])
	})
}

// RegisterAllocationRoutes wires the allocation lifecycle and the sweep.
func (r *Router) RegisterAllocationRoutes(h *AllocationHandler) {
	// units/{id}/propose
	r.Handle("/core/api/v1/units/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/core/api/v1/units/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[1] != "propose" || req.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Propose(w, req, parts[0])
	})

	// allocations/{id}/{action}
	r.Handle("/core/api/v1/allocations/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/core/api/v1/allocations/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		id, action := parts[0], parts[1]
		if action == "history" && req.Method == http.MethodGet {
			h.History(w, req, id)
			return
		}
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Action(w, req, id, action)
	})

	r.Handle("/core/api/v1/sweep", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Sweep(w, req)
	})
}
