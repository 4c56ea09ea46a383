package httpx

import (
	"log/slog"
	"net/http"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
	"github.com/ariefcatur/go-food-delivery/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	Store  catalog.Store
	Tokens *auth.Tokens
	Log    *slog.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/restaurants", h.restaurants)
	r.Get("/restaurants/{id}", h.restaurant)
	r.Get("/restaurants/{id}/items", h.items)

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate(h.Tokens), auth.RequireAdmin)
		r.Post("/restaurant", h.createRestaurant)
		r.Put("/restaurant/{id}", h.updateRestaurant)
		r.Delete("/restaurant/{id}", h.deleteRestaurant)
		r.Post("/item", h.createItem)
		r.Put("/item/{id}", h.updateItem)
		r.Delete("/item/{id}", h.deleteItem)
	})
}

func (h *CatalogHandler) restaurants(w http.ResponseWriter, r *http.Request) {
	out, err := h.Store.Restaurants(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) restaurant(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out, err := h.Store.Restaurant(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) items(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out, err := h.Store.Items(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CatalogHandler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var in catalog.Restaurant
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := in.Normalize(); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	id, err := h.Store.CreateRestaurant(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Restaurant created successfully", "restaurantId": id})
}

func (h *CatalogHandler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var in catalog.Restaurant
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	in.ID = id
	if err := in.Normalize(); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Store.UpdateRestaurant(r.Context(), in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Restaurant updated successfully"})
}

func (h *CatalogHandler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Store.DeleteRestaurant(r.Context(), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Restaurant deleted successfully"})
}

func (h *CatalogHandler) createItem(w http.ResponseWriter, r *http.Request) {
	in := catalog.Item{Availability: true}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := in.Normalize(); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	id, err := h.Store.CreateItem(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Item created successfully", "itemId": id})
}

func (h *CatalogHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var in catalog.Item
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	in.ID = id
	if err := in.Normalize(); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Store.UpdateItem(r.Context(), in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item updated successfully"})
}

func (h *CatalogHandler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Store.DeleteItem(r.Context(), id); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}
