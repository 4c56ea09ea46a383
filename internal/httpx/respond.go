package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
	"github.com/ariefcatur/go-food-delivery/internal/catalog"
	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/ariefcatur/go-food-delivery/internal/reviews"
	"github.com/ariefcatur/go-food-delivery/internal/sales"
	"github.com/ariefcatur/go-food-delivery/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

var (
	errBadJSON    = errors.New("invalid json")
	errBadRequest = errors.New("invalid request")
)

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadJSON),
		errors.Is(err, errBadRequest),
		errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrNoUser),
		errors.Is(err, orders.ErrNoLocation),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrUnknownItem),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, reviews.ErrNoRatings),
		errors.Is(err, reviews.ErrInvalidOrder),
		errors.Is(err, sales.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, reviews.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrIllegalTransition),
		errors.Is(err, orders.ErrRequestInFlight),
		errors.Is(err, users.ErrEmailTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", "method", r.Method, "path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()), "error", err)
		}
		writeMsg(w, code, "internal server error")
		return
	}
	writeMsg(w, code, err.Error())
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s", errBadRequest, name)
	}
	return id, nil
}

// caller is only called behind auth.Authenticate.
func caller(r *http.Request) *auth.Claims {
	c, _ := auth.FromContext(r.Context())
	return c
}
