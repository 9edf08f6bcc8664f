package handler

import (
	"net/http"

	"github.com/go-rental-api/internal/application/user"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/pkg/validate"
)

// SessionHandler issues bearer tokens.
type SessionHandler struct {
	svc user.Service
}

func NewSessionHandler(svc user.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: result.Bearer, User: result.User})
}
