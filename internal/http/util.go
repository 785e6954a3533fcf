package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/RishHolt/Urban-Planning-Sys-sub000/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		illegal    *domain.IllegalTransitionError
		conflict   *domain.ConcurrencyConflictError
		constraint *domain.ConstraintViolationError
		notFound   *domain.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
	case errors.As(err, &illegal), errors.As(err, &conflict), errors.As(err, &constraint):
		writeJSON(w, http.StatusConflict, Fail(err.Error()))
	default:
		writeJSON(w, http.StatusInternalServerError, Fail(err.Error()))
	}
}
