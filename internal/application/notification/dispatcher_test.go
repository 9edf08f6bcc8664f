package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-rental-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockWriter struct{ mock.Mock }

func (m *mockWriter) Put(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	args := m.Called(ctx, role)
	us, _ := args.Get(0).([]domain.User)
	return us, args.Error(1)
}

type mockChannel struct {
	mock.Mock
	accepts domain.NotificationType
}

func (m *mockChannel) Name() string { return "mock" }

func (m *mockChannel) Accepts(t domain.NotificationType) bool { return t == m.accepts }

func (m *mockChannel) Deliver(ctx context.Context, to *domain.User, n *domain.Notification) error {
	return m.Called(ctx, to, n).Error(0)
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return t0 }

// --- Notify tests ---

func TestNotify_CreatesUnreadRow(t *testing.T) {
	w := &mockWriter{}
	w.On("Put", mock.Anything, mock.AnythingOfType("*domain.Notification")).Return(nil)
	d := NewDispatcher(DispatcherDeps{Store: w, Now: fixedNow})

	n := d.Notify(context.Background(), Event{
		Type:        domain.NotificationVerification,
		RecipientID: "landlord1",
		Message:     "Your property 'Flat' has been verified and is now live!",
		PropertyID:  "p1",
	})

	require.NotNil(t, n)
	assert.Equal(t, "landlord1", n.UserID)
	assert.Equal(t, domain.NotificationVerification, n.Type)
	assert.False(t, n.IsRead)
	assert.Equal(t, t0, n.CreatedAt)
	require.NotNil(t, n.RelatedPropertyID)
	assert.Equal(t, "p1", *n.RelatedPropertyID)
	assert.Nil(t, n.RelatedConversationID)
	assert.Nil(t, n.RelatedUserID)
	assert.NotEmpty(t, n.NotificationID)
	w.AssertNumberOfCalls(t, "Put", 1)
}

func TestNotify_TruncatesMessage(t *testing.T) {
	w := &mockWriter{}
	w.On("Put", mock.Anything, mock.Anything).Return(nil)
	d := NewDispatcher(DispatcherDeps{Store: w})

	n := d.Notify(context.Background(), Event{Type: domain.NotificationTip, RecipientID: "u1", Message: strings.Repeat("á", 400)})
	require.NotNil(t, n)
	assert.Len(t, []rune(n.Message), domain.MaxNotificationMessage)
}

func TestNotify_NoRecipient_Dropped(t *testing.T) {
	w := &mockWriter{}
	d := NewDispatcher(DispatcherDeps{Store: w})

	assert.Nil(t, d.Notify(context.Background(), Event{Type: domain.NotificationTip}))
	w.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestNotify_StoreFailure_IsSwallowed(t *testing.T) {
	w := &mockWriter{}
	w.On("Put", mock.Anything, mock.Anything).Return(errors.New("throttled"))
	d := NewDispatcher(DispatcherDeps{Store: w})

	assert.NotPanics(t, func() {
		assert.Nil(t, d.Notify(context.Background(), Event{Type: domain.NotificationTip, RecipientID: "u1"}))
	})
}

func TestNotifyAdmin_UsesResolverAtDispatchTime(t *testing.T) {
	w := &mockWriter{}
	w.On("Put", mock.Anything, mock.Anything).Return(nil)
	users := &mockUsers{}
	users.On("ListByRole", mock.Anything, domain.RoleAdmin).Return([]domain.User{
		{UserID: "admin-late", CreatedAt: t0},
		{UserID: "admin-first", CreatedAt: t0.Add(-time.Hour)},
	}, nil).Once()
	d := NewDispatcher(DispatcherDeps{Store: w, Admins: NewRoleAdmin(users)})

	n := d.NotifyAdmin(context.Background(), Event{
		Type:    domain.NotificationPropertySubmission,
		Message: `New property "Flat" submitted by Abebe`,
	})
	require.NotNil(t, n)
	assert.Equal(t, "admin-first", n.UserID)
	users.AssertExpectations(t)
}

func TestNotifyAdmin_NoAdmin_Dropped(t *testing.T) {
	w := &mockWriter{}
	users := &mockUsers{}
	users.On("ListByRole", mock.Anything, domain.RoleAdmin).Return([]domain.User{}, nil)
	d := NewDispatcher(DispatcherDeps{Store: w, Admins: NewRoleAdmin(users)})

	assert.Nil(t, d.NotifyAdmin(context.Background(), Event{Type: domain.NotificationNewUser}))
	w.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestNotify_FansOutToAcceptingChannels(t *testing.T) {
	w := &mockWriter{}
	w.On("Put", mock.Anything, mock.Anything).Return(nil)
	users := &mockUsers{}
	phone := "0911234567"
	landlord := &domain.User{UserID: "l1", Email: "l@x.com", Phone: &phone}
	users.On("Get", mock.Anything, "l1").Return(landlord, nil).Once()

	verify := &mockChannel{accepts: domain.NotificationVerification}
	verify.On("Deliver", mock.Anything, landlord, mock.Anything).Return(errors.New("smtp down"))
	other := &mockChannel{accepts: domain.NotificationPaymentFailed}

	d := NewDispatcher(DispatcherDeps{Store: w, Users: users, Channels: []Channel{verify, other}})
	n := d.Notify(context.Background(), Event{Type: domain.NotificationVerification, RecipientID: "l1", Message: "ok"})

	require.NotNil(t, n, "channel failure must not undo the in-app notification")
	verify.AssertNumberOfCalls(t, "Deliver", 1)
	other.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything)
	users.AssertExpectations(t)
}

func TestNotify_NoChannelAccepts_SkipsLookup(t *testing.T) {
	w := &mockWriter{}
	w.On("Put", mock.Anything, mock.Anything).Return(nil)
	users := &mockUsers{}
	d := NewDispatcher(DispatcherDeps{
		Store:    w,
		Users:    users,
		Channels: []Channel{&mockChannel{accepts: domain.NotificationPaymentFailed}},
	})

	require.NotNil(t, d.Notify(context.Background(), Event{Type: domain.NotificationTip, RecipientID: "u1"}))
	users.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}
