package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/infrastructure/chapa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockPayments struct{ mock.Mock }

func (m *mockPayments) Create(ctx context.Context, p *domain.FeaturedPayment) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPayments) Get(ctx context.Context, txRef string) (*domain.FeaturedPayment, error) {
	args := m.Called(ctx, txRef)
	if p, _ := args.Get(0).(*domain.FeaturedPayment); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPayments) TransitionStatus(ctx context.Context, txRef string, from, to domain.PaymentStatus, completedAt *time.Time) (bool, error) {
	args := m.Called(ctx, txRef, from, to, completedAt)
	return args.Bool(0), args.Error(1)
}
func (m *mockPayments) ListByProperty(ctx context.Context, propertyID string) ([]domain.FeaturedPayment, error) {
	args := m.Called(ctx, propertyID)
	payments, _ := args.Get(0).([]domain.FeaturedPayment)
	return payments, args.Error(1)
}

type mockProperties struct{ mock.Mock }

func (m *mockProperties) Get(ctx context.Context, propertyID string) (*domain.Property, error) {
	args := m.Called(ctx, propertyID)
	if p, _ := args.Get(0).(*domain.Property); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFeaturer struct{ mock.Mock }

func (m *mockFeaturer) ApplyFeatured(ctx context.Context, propertyID string, plan domain.FeaturedPlan, amount int) (*domain.Property, error) {
	args := m.Called(ctx, propertyID, plan, amount)
	if p, _ := args.Get(0).(*domain.Property); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Initialize(ctx context.Context, req chapa.InitializeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
func (m *mockGateway) Verify(ctx context.Context, txRef string) (bool, error) {
	args := m.Called(ctx, txRef)
	return args.Bool(0), args.Error(1)
}

type recordingNotifier struct{ events []notification.Event }

func (r *recordingNotifier) Notify(_ context.Context, ev notification.Event) *domain.Notification {
	r.events = append(r.events, ev)
	return &domain.Notification{UserID: ev.RecipientID, Type: ev.Type}
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// at0 matches the completion time stamped by the fixture clock.
var at0 = &t0

type fixture struct {
	payments *mockPayments
	props    *mockProperties
	featured *mockFeaturer
	users    *mockUsers
	gateway  *mockGateway
	notes    *recordingNotifier
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		payments: &mockPayments{},
		props:    &mockProperties{},
		featured: &mockFeaturer{},
		users:    &mockUsers{},
		gateway:  &mockGateway{},
		notes:    &recordingNotifier{},
	}
	f.svc = NewService(ServiceDeps{
		PaymentRepo:   f.payments,
		PropertyRepo:  f.props,
		Featured:      f.featured,
		UserRepo:      f.users,
		Gateway:       f.gateway,
		Notifier:      f.notes,
		WeeklyPrice:   500,
		MonthlyPrice:  1500,
		PublicBaseURL: "https://rent.example.com/",
		Now:           func() time.Time { return t0 },
	})
	return f
}

func ownedProperty() *domain.Property {
	return &domain.Property{PropertyID: "p1", LandlordID: "landlord1", Title: "Sunny Flat", Status: domain.VerificationVerified}
}

func pendingPayment() *domain.FeaturedPayment {
	return &domain.FeaturedPayment{
		TxRef:      "FEATURED_p1_1772366400_abcd1234",
		PropertyID: "p1",
		UserID:     "landlord1",
		Amount:     1500,
		Currency:   "ETB",
		Plan:       domain.PlanMonthly,
		Status:     domain.PaymentPending,
		CreatedAt:  t0,
	}
}

// --- Initiate ---

func TestInitiate_StoresPendingPaymentAfterGatewayAccepts(t *testing.T) {
	f := newFixture()
	f.props.On("Get", mock.Anything, "p1").Return(ownedProperty(), nil)
	f.users.On("Get", mock.Anything, "landlord1").Return(&domain.User{UserID: "landlord1", Email: "owner@example.com"}, nil)
	f.gateway.On("Initialize", mock.Anything, mock.MatchedBy(func(r chapa.InitializeRequest) bool {
		return r.Amount == 500 && r.Currency == "ETB" &&
			r.CallbackURL == "https://rent.example.com/v1/payments/callback" &&
			strings.HasPrefix(r.TxRef, "FEATURED_p1_1772366400_")
	})).Return("https://checkout.chapa.co/abc", nil)
	f.payments.On("Create", mock.Anything, mock.AnythingOfType("*domain.FeaturedPayment")).Return(nil)

	co, err := f.svc.Initiate(context.Background(), "p1", "landlord1", domain.PlanWeekly)
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.chapa.co/abc", co.CheckoutURL)
	assert.Equal(t, 500, co.Amount)
	stored := f.payments.Calls[0].Arguments.Get(1).(*domain.FeaturedPayment)
	assert.Equal(t, domain.PaymentPending, stored.Status)
	assert.Equal(t, co.TxRef, stored.TxRef)
	assert.Equal(t, domain.PlanWeekly, stored.Plan)
	assert.Nil(t, stored.CompletedAt)
}

func TestInitiate_InvalidPlan(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Initiate(context.Background(), "p1", "landlord1", domain.FeaturedPlan("daily"))
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	f.gateway.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
}

func TestInitiate_NotOwner(t *testing.T) {
	f := newFixture()
	f.props.On("Get", mock.Anything, "p1").Return(ownedProperty(), nil)

	_, err := f.svc.Initiate(context.Background(), "p1", "renter1", domain.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestInitiate_GatewayFailureStoresNothing(t *testing.T) {
	f := newFixture()
	f.props.On("Get", mock.Anything, "p1").Return(ownedProperty(), nil)
	f.users.On("Get", mock.Anything, "landlord1").Return(&domain.User{UserID: "landlord1"}, nil)
	f.gateway.On("Initialize", mock.Anything, mock.Anything).Return("", domain.ErrUpstream)

	_, err := f.svc.Initiate(context.Background(), "p1", "landlord1", domain.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- HandleCallback ---

func TestHandleCallback_SuccessAppliesUpgradeOnce(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(true, nil)
	f.payments.On("TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentPending, domain.PaymentSuccess, at0).Return(true, nil)
	f.featured.On("ApplyFeatured", mock.Anything, "p1", domain.PlanMonthly, 1500).Return(ownedProperty(), nil)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, t0, *got.CompletedAt)
	f.featured.AssertNumberOfCalls(t, "ApplyFeatured", 1)
}

func TestHandleCallback_ReplayIsNoop(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	pay.Status = domain.PaymentSuccess
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "successful")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, got.Status)
	f.gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	f.featured.AssertNotCalled(t, "ApplyFeatured", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCallback_ConcurrentReplayLosesRace(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	done := pendingPayment()
	done.Status = domain.PaymentSuccess
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil).Once()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(done, nil).Once()
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(true, nil)
	f.payments.On("TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentPending, domain.PaymentSuccess, at0).Return(false, nil)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, got.Status)
	f.featured.AssertNotCalled(t, "ApplyFeatured", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCallback_UnverifiedStaysPending(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(false, nil)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, got.Status)
	f.payments.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCallback_VerifyErrorIsUpstream(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(false, domain.ErrUpstream)

	_, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestHandleCallback_FailedNotifiesLandlord(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(false, nil)
	f.payments.On("TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentPending, domain.PaymentFailed, at0).Return(true, nil)
	f.props.On("Get", mock.Anything, "p1").Return(ownedProperty(), nil)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "failed")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, got.Status)
	require.Len(t, f.notes.events, 1)
	assert.Equal(t, domain.NotificationPaymentFailed, f.notes.events[0].Type)
	assert.Equal(t, "landlord1", f.notes.events[0].RecipientID)
	assert.Equal(t, "Payment failed for upgrading 'Sunny Flat' to featured status. Please try again.", f.notes.events[0].Message)
}

func TestHandleCallback_FailureClaimForPaidTransactionApplies(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(true, nil)
	f.payments.On("TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentPending, domain.PaymentSuccess, at0).Return(true, nil)
	f.featured.On("ApplyFeatured", mock.Anything, "p1", domain.PlanMonthly, 1500).Return(ownedProperty(), nil)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "failed")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, got.Status)
	assert.Empty(t, f.notes.events)
	f.payments.AssertNotCalled(t, "TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentPending, domain.PaymentFailed, mock.Anything)
}

func TestHandleCallback_FailedThenVerifiedSuccessApplies(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(false, nil).Once()
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(true, nil).Once()
	f.payments.On("TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentPending, domain.PaymentFailed, at0).Return(true, nil)
	f.payments.On("TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentFailed, domain.PaymentSuccess, at0).Return(true, nil)
	f.props.On("Get", mock.Anything, "p1").Return(ownedProperty(), nil)
	f.featured.On("ApplyFeatured", mock.Anything, "p1", domain.PlanMonthly, 1500).Return(ownedProperty(), nil)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "failed")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, got.Status)

	got, err = f.svc.HandleCallback(context.Background(), pay.TxRef, "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, got.Status)
	f.featured.AssertNumberOfCalls(t, "ApplyFeatured", 1)
}

func TestHandleCallback_RepeatedFailureIsNoop(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	pay.Status = domain.PaymentFailed
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, got.Status)
	f.gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	assert.Empty(t, f.notes.events)
}

func TestHandleCallback_UpgradeFailureRollsBackForRetry(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)
	f.gateway.On("Verify", mock.Anything, pay.TxRef).Return(true, nil)
	f.payments.On("TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentPending, domain.PaymentSuccess, at0).Return(true, nil)
	f.payments.On("TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentSuccess, domain.PaymentPending, (*time.Time)(nil)).Return(true, nil)
	f.featured.On("ApplyFeatured", mock.Anything, "p1", domain.PlanMonthly, 1500).Return(nil, errors.New("dynamo throttled")).Once()
	f.featured.On("ApplyFeatured", mock.Anything, "p1", domain.PlanMonthly, 1500).Return(ownedProperty(), nil).Once()

	_, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "success")
	require.Error(t, err)
	assert.Equal(t, domain.PaymentPending, pay.Status)
	assert.Nil(t, pay.CompletedAt)

	got, err := f.svc.HandleCallback(context.Background(), pay.TxRef, "success")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, got.Status)
	f.featured.AssertNumberOfCalls(t, "ApplyFeatured", 2)
	f.payments.AssertCalled(t, "TransitionStatus", mock.Anything, pay.TxRef, domain.PaymentSuccess, domain.PaymentPending, (*time.Time)(nil))
}

func TestHandleCallback_UnknownTxRef(t *testing.T) {
	f := newFixture()
	f.payments.On("Get", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	_, err := f.svc.HandleCallback(context.Background(), "nope", "success")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleCallback_MissingTxRef(t *testing.T) {
	f := newFixture()

	_, err := f.svc.HandleCallback(context.Background(), "", "success")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestResult_IncludesProperty(t *testing.T) {
	f := newFixture()
	pay := pendingPayment()
	f.payments.On("Get", mock.Anything, pay.TxRef).Return(pay, nil)
	f.props.On("Get", mock.Anything, "p1").Return(nil, errors.New("gone"))

	res, err := f.svc.Result(context.Background(), pay.TxRef)
	require.NoError(t, err)
	assert.Equal(t, pay, res.Payment)
	assert.Nil(t, res.Property)
}

func TestHistory_OwnerSeesNewestFirst(t *testing.T) {
	f := newFixture()
	older, newer := pendingPayment(), pendingPayment()
	newer.TxRef = "FEATURED_p1_1772452800_ffff0000"
	newer.CreatedAt = t0.Add(24 * time.Hour)
	f.props.On("Get", mock.Anything, "p1").Return(ownedProperty(), nil)
	f.payments.On("ListByProperty", mock.Anything, "p1").Return([]domain.FeaturedPayment{*older, *newer}, nil)

	got, err := f.svc.History(context.Background(), "p1", "landlord1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.TxRef, got[0].TxRef)
}

func TestHistory_NotOwner(t *testing.T) {
	f := newFixture()
	f.props.On("Get", mock.Anything, "p1").Return(ownedProperty(), nil)

	_, err := f.svc.History(context.Background(), "p1", "renter1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	f.payments.AssertNotCalled(t, "ListByProperty", mock.Anything, mock.Anything)
}
