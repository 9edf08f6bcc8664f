package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-api/internal/application/property"
	"github.com/go-rental-api/internal/pkg/validate"
)

// RejectRequest carries the reason shown to the landlord.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// JobResult reports one manual sweep run.
type JobResult struct {
	Job       string `json:"job"`
	Processed int    `json:"processed"`
}

type jobRunner interface {
	RunJob(ctx context.Context, name string) (int, error)
	Jobs() []string
}

// AdminHandler handles the verification queue and manual sweeps.
type AdminHandler struct {
	props property.Service
	jobs  jobRunner
}

func NewAdminHandler(props property.Service, jobs jobRunner) *AdminHandler {
	return &AdminHandler{props: props, jobs: jobs}
}

func (h *AdminHandler) Queue(w http.ResponseWriter, r *http.Request) {
	props, err := h.props.VerificationQueue(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(props))
}

func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}
	p, err := h.props.Verify(r.Context(), chi.URLParam(r, "id"), adminID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	p, err := h.props.Reject(r.Context(), chi.URLParam(r, "id"), adminID, req.Reason)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newList(h.jobs.Jobs()))
}

func (h *AdminHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "job")
	n, err := h.jobs.RunJob(r.Context(), name)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, JobResult{Job: name, Processed: n})
}
