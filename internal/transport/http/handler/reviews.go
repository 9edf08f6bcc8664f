package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-api/internal/application/review"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/pkg/validate"
)

// ReviewHandler handles reviews, questions, tips and replies.
type ReviewHandler struct {
	svc review.Service
}

func NewReviewHandler(svc review.Service) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in domain.ReviewInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	rv, err := h.svc.Create(r.Context(), chi.URLParam(r, "id"), userID, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *ReviewHandler) Reply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in domain.ReplyInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	rv, err := h.svc.Reply(r.Context(), chi.URLParam(r, "id"), userID, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}
