package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/expensely/ledger/types"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the error payload. Kind is one of the stable kind names
// in package types.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// MessageResponse acknowledges a mutation.
type MessageResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError maps err to a status code by kind. Store failures are reported
// without their cause.
func writeError(w http.ResponseWriter, err error) {
	kind := types.Kind(err)
	status := statusFor(kind)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

func statusFor(kind string) int {
	switch kind {
	case types.KindValidation, types.KindNoChangeRequested:
		return http.StatusBadRequest
	case types.KindNotFound:
		return http.StatusNotFound
	case types.KindDuplicateAccount, types.KindConflict:
		return http.StatusConflict
	case types.KindInvalidCredential:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.Validationf("request body too large")
		}
		return types.Validationf("invalid request body")
	}
	return nil
}

func parseID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, types.Validationf("invalid %s", param)
	}
	return id, nil
}

func parseInt(r *http.Request, param string) (int, error) {
	raw := chi.URLParam(r, param)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.Validationf("invalid %s", param)
	}
	return v, nil
}

// parsePage reads skip and limit. Absent values fall back to 0 and
// types.DefaultLimit.
func parsePage(r *http.Request) (skip, limit int, err error) {
	q := r.URL.Query()
	limit = types.DefaultLimit

	if raw := strings.TrimSpace(q.Get("skip")); raw != "" {
		skip, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, types.Validationf("invalid skip")
		}
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, types.Validationf("invalid limit")
		}
	}
	return skip, limit, nil
}

// parseCriteria builds filter criteria from the query string. Range checks
// are left to FilterCriteria.Validate.
func parseCriteria(r *http.Request) (types.FilterCriteria, error) {
	q := r.URL.Query()
	c := types.NewFilterCriteria()

	skip, limit, err := parsePage(r)
	if err != nil {
		return c, err
	}
	c.Skip, c.Limit = skip, limit

	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c, types.Validationf("invalid user_id")
		}
		c.UserID = &id
	}
	if q.Has("category") {
		category := q.Get("category")
		c.Category = &category
	}
	if c.StartDate, err = queryDate(q.Get("start_date"), "start_date"); err != nil {
		return c, err
	}
	if c.EndDate, err = queryDate(q.Get("end_date"), "end_date"); err != nil {
		return c, err
	}
	if c.MinAmount, err = queryAmount(q.Get("min_amount"), "min_amount"); err != nil {
		return c, err
	}
	if c.MaxAmount, err = queryAmount(q.Get("max_amount"), "max_amount"); err != nil {
		return c, err
	}
	return c, nil
}

func queryDate(raw, name string) (*types.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := types.ParseDate(raw)
	if err != nil {
		return nil, types.Validationf("invalid %s", name)
	}
	return &d, nil
}

func queryAmount(raw, name string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, types.Validationf("invalid %s", name)
	}
	return &v, nil
}
