package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
	"github.com/ariefcatur/go-food-delivery/internal/users"
	"github.com/go-chi/chi/v5"
)

// NotificationFeed is read by GET /users/me/notifications; redisx.Feed implements it.
type NotificationFeed interface {
	Recent(ctx context.Context, userID int64, n int) ([]json.RawMessage, error)
}

type UsersHandler struct {
	Svc    *users.Service
	Tokens *auth.Tokens
	Feed   NotificationFeed
	Log    *slog.Logger
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type updateUserReq struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.Tokens))
		r.Get("/api/auth/profile", h.profile)
		r.Put("/users/{id}", h.update)
		r.Get("/users/me/notifications", h.notifications)
		r.Post("/locations", h.addLocation)
		r.Get("/locations", h.locations)
	})
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Svc.Register(ctx, users.RegisterInput{Email: req.Email, Password: req.Password, Name: req.Name, Phone: req.Phone})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "userId": id})
}

func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tok, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (h *UsersHandler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Svc.Profile(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// update lets users edit themselves; admins may edit anyone.
func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if c := caller(r); c.UserID != id && !c.IsAdmin() {
		writeMsg(w, http.StatusForbidden, "cannot update another user")
		return
	}
	var req updateUserReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Svc.UpdateProfile(r.Context(), id, req.Name, req.Phone); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User updated successfully"})
}

func (h *UsersHandler) notifications(w http.ResponseWriter, r *http.Request) {
	if h.Feed == nil {
		writeJSON(w, http.StatusOK, []json.RawMessage{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.Feed.Recent(r.Context(), caller(r).UserID, limit)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UsersHandler) addLocation(w http.ResponseWriter, r *http.Request) {
	var l users.Location
	if err := decodeJSON(r, &l); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	l.UserID = caller(r).UserID
	id, err := h.Svc.AddLocation(r.Context(), l)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Location added successfully.", "locationId": id, "userId": l.UserID,
	})
}

func (h *UsersHandler) locations(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Locations(r.Context(), caller(r).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
