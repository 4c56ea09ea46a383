package httpx

import (
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
	"github.com/ariefcatur/go-food-delivery/internal/reviews"
	"github.com/go-chi/chi/v5"
)

type ReviewsHandler struct {
	Svc    *reviews.Service
	Tokens *auth.Tokens
	Log    *slog.Logger
}

type reviewReq struct {
	OrderID     int64          `json:"order_id"`
	ItemRatings map[string]any `json:"item_ratings"`
	Comment     string         `json:"comment"`
}

func (h *ReviewsHandler) Register(r chi.Router) {
	r.Get("/reviews/ratings", h.ratings)
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.Tokens))
		r.Post("/restaurants/{id}/review", h.submit)
		r.Post("/reviews/{id}/review", h.submit)
	})
}

func (h *ReviewsHandler) submit(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req reviewReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	rating, err := h.Svc.Submit(r.Context(), reviews.SubmitInput{
		UserID: caller(r).UserID, RestaurantID: restaurantID, OrderID: req.OrderID,
		ItemRatings: req.ItemRatings, Comment: req.Comment,
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Review submitted", "rating": rating})
}

func (h *ReviewsHandler) ratings(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Ratings(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
