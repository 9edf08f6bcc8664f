package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-api/internal/application/messaging"
	"github.com/go-rental-api/internal/domain"
)

// StartEnvelope is returned when a renter opens a conversation from a listing.
type StartEnvelope struct {
	Conversation *domain.Conversation `json:"conversation"`
	Message      *domain.Message      `json:"message"`
}

// NewMessagesEnvelope answers the polling endpoint.
type NewMessagesEnvelope struct {
	HasNew bool `json:"has_new"`
}

// ConversationHandler handles renter/landlord messaging.
type ConversationHandler struct {
	svc messaging.Service
}

func NewConversationHandler(svc messaging.Service) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	content, att, done, ok := readMessage(w, r)
	if !ok {
		return
	}
	defer done()

	conv, msg, err := h.svc.StartFromProperty(r.Context(), chi.URLParam(r, "id"), userID, content, att)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, StartEnvelope{Conversation: conv, Message: msg})
}

func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	content, att, done, ok := readMessage(w, r)
	if !ok {
		return
	}
	defer done()

	msg, err := h.svc.Send(r.Context(), chi.URLParam(r, "id"), userID, content, att)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	convs, err := h.svc.ListConversations(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(convs))
}

func (h *ConversationHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	thread, err := h.svc.Thread(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (h *ConversationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.svc.UnreadTotal(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}

func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}

// HasNew takes an RFC 3339 "since" timestamp.
func (h *ConversationHandler) HasNew(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	since, err := time.Parse(time.RFC3339, r.URL.Query().Get("since"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
		return
	}
	has, err := h.svc.HasNew(r.Context(), chi.URLParam(r, "id"), userID, since)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewMessagesEnvelope{HasNew: has})
}

// readMessage accepts either a JSON body or a multipart form with an optional
// "attachment" file. done releases the uploaded file.
func readMessage(w http.ResponseWriter, r *http.Request) (string, *messaging.Attachment, func(), bool) {
	noop := func() {}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req domain.SendMessageRequest
		if !decodeJSON(w, r, &req) {
			return "", nil, noop, false
		}
		return req.Content, nil, noop, true
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return "", nil, noop, false
	}
	content := r.FormValue("content")
	f, header, err := r.FormFile("attachment")
	if errors.Is(err, http.ErrMissingFile) {
		return content, nil, noop, true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable attachment")
		return "", nil, noop, false
	}
	att := &messaging.Attachment{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}
	return content, att, func() { _ = f.Close() }, true
}
