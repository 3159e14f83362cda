package match

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperr "github.com/arkx-app/odoo-matchmaker/internal/errors"
)

// decodeJSON parses a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid("body", "malformed JSON payload")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps a domain error onto an HTTP status + user-visible
// message. The specific cause is the caller's responsibility to log.
func respondError(w http.ResponseWriter, err error) {
	status, msg := apperr.Map(err)
	respondJSON(w, status, map[string]string{"error": msg})
}

// urlID parses a uint64 path parameter.
func urlID(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid(name, "must be a valid numeric id")
	}
	return id, nil
}
