package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rental-api/internal/application/messaging"
	"github.com/go-rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMessagingSvc struct{ mock.Mock }

func (m *mockMessagingSvc) StartFromProperty(ctx context.Context, propertyID, renterID, content string, att *messaging.Attachment) (*domain.Conversation, *domain.Message, error) {
	args := m.Called(ctx, propertyID, renterID, content, att)
	conv, _ := args.Get(0).(*domain.Conversation)
	msg, _ := args.Get(1).(*domain.Message)
	return conv, msg, args.Error(2)
}

func (m *mockMessagingSvc) Send(ctx context.Context, conversationID, senderID, content string, att *messaging.Attachment) (*domain.Message, error) {
	args := m.Called(ctx, conversationID, senderID, content, att)
	if msg, _ := args.Get(0).(*domain.Message); msg != nil {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessagingSvc) ListConversations(ctx context.Context, userID string) ([]messaging.Summary, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]messaging.Summary)
	return out, args.Error(1)
}

func (m *mockMessagingSvc) Thread(ctx context.Context, conversationID, userID string) (*messaging.Thread, error) {
	args := m.Called(ctx, conversationID, userID)
	if th, _ := args.Get(0).(*messaging.Thread); th != nil {
		return th, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMessagingSvc) UnreadTotal(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockMessagingSvc) MarkRead(ctx context.Context, conversationID, userID string) (int, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockMessagingSvc) HasNew(ctx context.Context, conversationID, userID string, since time.Time) (bool, error) {
	args := m.Called(ctx, conversationID, userID, since)
	return args.Bool(0), args.Error(1)
}

func TestConversationStart_JSONBody(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockMessagingSvc{}
	svc.On("StartFromProperty", mock.Anything, "p1", "r1", "Is it still available?", (*messaging.Attachment)(nil)).
		Return(&domain.Conversation{ConversationID: "c1"}, &domain.Message{MessageID: "m1"}, nil)
	h := NewConversationHandler(svc)

	body, _ := json.Marshal(domain.SendMessageRequest{Content: "Is it still available?"})
	r := withChiID(bearerReq(t, p, http.MethodPost, "/v1/properties/p1/conversations", "r1", domain.RoleRenter, body), "p1")
	r.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Start), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestConversationSend_MultipartAttachment(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockMessagingSvc{}
	svc.On("Send", mock.Anything, "c1", "l1", "lease attached",
		mock.MatchedBy(func(a *messaging.Attachment) bool { return a != nil && a.Filename == "lease.pdf" }),
	).Return(&domain.Message{MessageID: "m2"}, nil)
	h := NewConversationHandler(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("content", "lease attached"))
	part, err := mw.CreateFormFile("attachment", "lease.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	r := withChiID(bearerReq(t, p, http.MethodPost, "/v1/conversations/c1/messages", "l1", domain.RoleLandlord, buf.Bytes()), "c1")
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Send), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestConversationSend_NotParticipant(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockMessagingSvc{}
	svc.On("Send", mock.Anything, "c1", "x1", "hi", (*messaging.Attachment)(nil)).Return(nil, domain.ErrForbidden)
	h := NewConversationHandler(svc)

	body, _ := json.Marshal(domain.SendMessageRequest{Content: "hi"})
	r := withChiID(bearerReq(t, p, http.MethodPost, "/v1/conversations/c1/messages", "x1", domain.RoleRenter, body), "c1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Send), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestConversationHasNew_BadSince(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewConversationHandler(&mockMessagingSvc{})

	r := withChiID(bearerReq(t, p, http.MethodGet, "/v1/conversations/c1/new?since=yesterday", "r1", domain.RoleRenter, nil), "c1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.HasNew), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestConversationHasNew(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockMessagingSvc{}
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.On("HasNew", mock.Anything, "c1", "r1", since).Return(true, nil)
	h := NewConversationHandler(svc)

	r := withChiID(bearerReq(t, p, http.MethodGet, "/v1/conversations/c1/new?since=2026-03-01T12:00:00Z", "r1", domain.RoleRenter, nil), "c1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.HasNew), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"has_new":true}`, rr.Body.String())
}

func TestConversationUnread(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockMessagingSvc{}
	svc.On("UnreadTotal", mock.Anything, "r1").Return(7, nil)
	h := NewConversationHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/conversations/unread", "r1", domain.RoleRenter, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Unread), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"count":7}`, rr.Body.String())
}
