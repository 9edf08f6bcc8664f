package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-api/internal/application/payment"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/pkg/validate"
)

// webhookPayload is the subset of the gateway webhook body we act on.
type webhookPayload struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

// PaymentHandler handles featured upgrades and gateway callbacks.
type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req domain.UpgradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	checkout, err := h.svc.Initiate(r.Context(), chi.URLParam(r, "id"), userID, req.Plan)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkout)
}

// CallbackRedirect handles the browser redirect. The gateway sends the
// reference as trx_ref on this leg, older flows use tx_ref.
func (h *PaymentHandler) CallbackRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("trx_ref")
	if ref == "" {
		ref = q.Get("tx_ref")
	}
	pay, err := h.svc.HandleCallback(r.Context(), ref, q.Get("status"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var body webhookPayload
	if !decodeJSON(w, r, &body) {
		return
	}
	pay, err := h.svc.HandleCallback(r.Context(), body.TxRef, body.Status)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

func (h *PaymentHandler) Return(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("tx_ref")
	if ref == "" {
		writeError(w, http.StatusBadRequest, "tx_ref is required")
		return
	}
	res, err := h.svc.Result(r.Context(), ref)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// History lists the featured checkouts of one of the caller's listings.
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	payments, err := h.svc.History(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(payments))
}
