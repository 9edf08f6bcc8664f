package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-api/internal/application/favorite"
)

// FavoriteHandler handles saved listings.
type FavoriteHandler struct {
	svc favorite.Service
}

func NewFavoriteHandler(svc favorite.Service) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	saved, err := h.svc.Toggle(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	msg := "property removed from favorites"
	if saved {
		msg = "property saved to favorites"
	}
	writeJSON(w, http.StatusOK, ToggleEnvelope{Saved: saved, Message: msg})
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	props, err := h.svc.ListSaved(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(props))
}
