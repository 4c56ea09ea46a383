package httpx

import (
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
	"github.com/ariefcatur/go-food-delivery/internal/sales"
	"github.com/go-chi/chi/v5"
)

type SalesHandler struct {
	Store  sales.Store
	Tokens *auth.Tokens
	Log    *slog.Logger
}

func (h *SalesHandler) Register(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Use(auth.Authenticate(h.Tokens), auth.RequireAdmin)
		r.Get("/daily", h.daily)
		r.Get("/monthly", h.monthly)
	})
}

func (h *SalesHandler) daily(w http.ResponseWriter, r *http.Request) {
	day, err := sales.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out, err := h.Store.Daily(r.Context(), day)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SalesHandler) monthly(w http.ResponseWriter, r *http.Request) {
	month, err := sales.ParseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out, err := h.Store.Monthly(r.Context(), month)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
