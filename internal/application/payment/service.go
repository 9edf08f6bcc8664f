package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/infrastructure/chapa"
	"github.com/go-rental-api/internal/pkg/token"
)

// Service runs featured-listing checkouts against the payment gateway.
type Service interface {
	Initiate(ctx context.Context, propertyID, userID string, plan domain.FeaturedPlan) (*Checkout, error)
	HandleCallback(ctx context.Context, txRef, status string) (*domain.FeaturedPayment, error)
	Result(ctx context.Context, txRef string) (*Result, error)
	History(ctx context.Context, propertyID, userID string) ([]domain.FeaturedPayment, error)
}

// Gateway is the hosted checkout provider.
type Gateway interface {
	Initialize(ctx context.Context, req chapa.InitializeRequest) (string, error)
	Verify(ctx context.Context, txRef string) (bool, error)
}

type paymentStore interface {
	Create(ctx context.Context, p *domain.FeaturedPayment) error
	Get(ctx context.Context, txRef string) (*domain.FeaturedPayment, error)
	TransitionStatus(ctx context.Context, txRef string, from, to domain.PaymentStatus, completedAt *time.Time) (bool, error)
	ListByProperty(ctx context.Context, propertyID string) ([]domain.FeaturedPayment, error)
}

type propertyLookup interface {
	Get(ctx context.Context, propertyID string) (*domain.Property, error)
}

// featurer applies the featured period once a payment is confirmed.
type featurer interface {
	ApplyFeatured(ctx context.Context, propertyID string, plan domain.FeaturedPlan, amount int) (*domain.Property, error)
}

type userLookup interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type notifier interface {
	Notify(ctx context.Context, ev notification.Event) *domain.Notification
}

// Checkout is what the client needs to redirect the payer.
type Checkout struct {
	TxRef       string              `json:"tx_ref"`
	CheckoutURL string              `json:"checkout_url"`
	Amount      int                 `json:"amount"`
	Currency    string              `json:"currency"`
	Plan        domain.FeaturedPlan `json:"plan"`
}

// Result is the payment summary shown on the return page.
type Result struct {
	Payment  *domain.FeaturedPayment `json:"payment"`
	Property *domain.Property        `json:"property,omitempty"`
}

type service struct {
	payments   paymentStore
	properties propertyLookup
	featured   featurer
	users      userLookup
	gateway    Gateway
	notify     notifier
	prices     map[domain.FeaturedPlan]int
	currency   string
	baseURL    string
	now        func() time.Time
}

type ServiceDeps struct {
	PaymentRepo   paymentStore
	PropertyRepo  propertyLookup
	Featured      featurer
	UserRepo      userLookup
	Gateway       Gateway
	Notifier      notifier
	WeeklyPrice   int
	MonthlyPrice  int
	Currency      string
	PublicBaseURL string
	Now           func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	currency := deps.Currency
	if currency == "" {
		currency = "ETB"
	}
	return &service{
		payments:   deps.PaymentRepo,
		properties: deps.PropertyRepo,
		featured:   deps.Featured,
		users:      deps.UserRepo,
		gateway:    deps.Gateway,
		notify:     deps.Notifier,
		prices: map[domain.FeaturedPlan]int{
			domain.PlanWeekly:  deps.WeeklyPrice,
			domain.PlanMonthly: deps.MonthlyPrice,
		},
		currency: currency,
		baseURL:  strings.TrimRight(deps.PublicBaseURL, "/"),
		now:      now,
	}
}

// Initiate opens a gateway checkout for a featured upgrade. Nothing is stored
// unless the gateway accepted the checkout.
func (s *service) Initiate(ctx context.Context, propertyID, userID string, plan domain.FeaturedPlan) (*Checkout, error) {
	days, err := plan.Days()
	if err != nil {
		return nil, err
	}
	amount := s.prices[plan]
	p, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p.LandlordID != userID {
		return nil, fmt.Errorf("only the owner can upgrade this property: %w", domain.ErrForbidden)
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	txRef, err := token.NewTxRef(p.PropertyID, now)
	if err != nil {
		return nil, err
	}
	checkoutURL, err := s.gateway.Initialize(ctx, chapa.InitializeRequest{
		Amount:   amount,
		Currency: s.currency,
		TxRef:    txRef,
		Customer: chapa.Customer{
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		},
		CallbackURL: s.baseURL + "/v1/payments/callback",
		ReturnURL:   s.baseURL + "/v1/payments/return?tx_ref=" + url.QueryEscape(txRef),
		Title:       "Featured Listing",
		Description: fmt.Sprintf("Feature %s for %d days", domain.Truncate(p.Title, 40), days),
	})
	if err != nil {
		slog.Error("payment initialize failed", "property_id", p.PropertyID, "tx_ref", txRef, "err", err)
		return nil, err
	}

	if err := s.payments.Create(ctx, &domain.FeaturedPayment{
		TxRef:      txRef,
		PropertyID: p.PropertyID,
		UserID:     userID,
		Amount:     amount,
		Currency:   s.currency,
		Plan:       plan,
		Status:     domain.PaymentPending,
		CreatedAt:  now,
	}); err != nil {
		return nil, err
	}
	return &Checkout{TxRef: txRef, CheckoutURL: checkoutURL, Amount: amount, Currency: s.currency, Plan: plan}, nil
}

// HandleCallback settles a payment reported by the gateway. Every claim is
// checked with the gateway before the payment moves, and a verified payment
// is applied at most once; replays are no-ops. An empty status, as sent on
// the return redirect, is treated as a success claim.
func (s *service) HandleCallback(ctx context.Context, txRef, status string) (*domain.FeaturedPayment, error) {
	if txRef == "" {
		return nil, fmt.Errorf("tx_ref is required: %w", domain.ErrBadRequest)
	}
	pay, err := s.payments.Get(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if pay.Status == domain.PaymentSuccess {
		return pay, nil
	}

	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "success", "successful":
		paid, err := s.verify(ctx, pay)
		if err != nil {
			return nil, err
		}
		if !paid {
			return pay, nil
		}
		return s.complete(ctx, pay)
	case "failed", "failure", "cancelled":
		if pay.Status == domain.PaymentFailed {
			return pay, nil
		}
		paid, err := s.verify(ctx, pay)
		if err != nil {
			return nil, err
		}
		if paid {
			slog.Warn("failure callback for a paid transaction", "tx_ref", txRef, "status", status)
			return s.complete(ctx, pay)
		}
		return s.fail(ctx, pay)
	default:
		slog.Warn("ignoring payment callback status", "tx_ref", txRef, "status", status)
		return pay, nil
	}
}

func (s *service) verify(ctx context.Context, pay *domain.FeaturedPayment) (bool, error) {
	ok, err := s.gateway.Verify(ctx, pay.TxRef)
	if err != nil {
		slog.Error("payment verification failed", "tx_ref", pay.TxRef, "err", err)
		return false, err
	}
	if !ok {
		slog.Warn("payment not confirmed by gateway", "tx_ref", pay.TxRef)
	}
	return ok, nil
}

// complete marks a verified payment successful and applies the upgrade. A
// failed payment can still complete once the gateway reports it paid. If the
// upgrade cannot be applied the status is put back so a later callback
// retries it.
func (s *service) complete(ctx context.Context, pay *domain.FeaturedPayment) (*domain.FeaturedPayment, error) {
	from, prevCompleted := pay.Status, pay.CompletedAt
	now := s.now()
	applied, err := s.payments.TransitionStatus(ctx, pay.TxRef, from, domain.PaymentSuccess, &now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.payments.Get(ctx, pay.TxRef)
	}
	pay.Status = domain.PaymentSuccess
	pay.CompletedAt = &now
	if _, err := s.featured.ApplyFeatured(ctx, pay.PropertyID, pay.Plan, pay.Amount); err != nil {
		slog.Error("featured upgrade failed after payment", "tx_ref", pay.TxRef, "property_id", pay.PropertyID, "err", err)
		if _, rbErr := s.payments.TransitionStatus(ctx, pay.TxRef, domain.PaymentSuccess, from, prevCompleted); rbErr != nil {
			slog.Error("payment status rollback failed", "tx_ref", pay.TxRef, "err", rbErr)
		} else {
			pay.Status, pay.CompletedAt = from, prevCompleted
		}
		return nil, err
	}
	slog.Info("payment completed", "tx_ref", pay.TxRef, "property_id", pay.PropertyID, "plan", pay.Plan)
	return pay, nil
}

func (s *service) fail(ctx context.Context, pay *domain.FeaturedPayment) (*domain.FeaturedPayment, error) {
	now := s.now()
	applied, err := s.payments.TransitionStatus(ctx, pay.TxRef, domain.PaymentPending, domain.PaymentFailed, &now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return s.payments.Get(ctx, pay.TxRef)
	}
	pay.Status = domain.PaymentFailed
	pay.CompletedAt = &now

	title := pay.PropertyID
	if p, err := s.properties.Get(ctx, pay.PropertyID); err == nil {
		title = p.Title
	}
	s.notify.Notify(ctx, notification.Event{
		Type:        domain.NotificationPaymentFailed,
		RecipientID: pay.UserID,
		Message:     fmt.Sprintf("Payment failed for upgrading '%s' to featured status. Please try again.", title),
		PropertyID:  pay.PropertyID,
	})
	return pay, nil
}

func (s *service) Result(ctx context.Context, txRef string) (*Result, error) {
	pay, err := s.payments.Get(ctx, txRef)
	if err != nil {
		return nil, err
	}
	res := &Result{Payment: pay}
	if p, err := s.properties.Get(ctx, pay.PropertyID); err == nil {
		res.Property = p
	}
	return res, nil
}

// History lists the checkout attempts of a listing, newest first. Only the
// owner sees them.
func (s *service) History(ctx context.Context, propertyID, userID string) ([]domain.FeaturedPayment, error) {
	p, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p.LandlordID != userID {
		return nil, fmt.Errorf("only the owner can see payments for this property: %w", domain.ErrForbidden)
	}
	payments, err := s.payments.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}
