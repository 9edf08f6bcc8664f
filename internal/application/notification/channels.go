package notification

import (
	"context"
	"fmt"

	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/infrastructure/smtp"
	"github.com/go-rental-api/internal/infrastructure/sns"
)

// Channel mirrors selected notifications outside the app.
type Channel interface {
	Name() string
	Accepts(t domain.NotificationType) bool
	Deliver(ctx context.Context, to *domain.User, n *domain.Notification) error
}

// subjects lists the types sent out of band and their email subject.
var subjects = map[domain.NotificationType]string{
	domain.NotificationVerification:     "Your listing is live",
	domain.NotificationRejection:        "Your listing needs revision",
	domain.NotificationFeaturedUpgrade:  "Featured upgrade confirmed",
	domain.NotificationFeaturedRenewed:  "Featured period renewed",
	domain.NotificationFeaturedExpiring: "Featured period ending soon",
	domain.NotificationFeaturedExpired:  "Featured period ended",
	domain.NotificationPaymentFailed:    "Payment failed",
}

type smsChannel struct {
	sender sns.SMSSender
}

func NewSMSChannel(sender sns.SMSSender) Channel {
	return &smsChannel{sender: sender}
}

func (c *smsChannel) Name() string { return "sms" }

func (c *smsChannel) Accepts(t domain.NotificationType) bool {
	_, ok := subjects[t]
	return ok
}

func (c *smsChannel) Deliver(ctx context.Context, to *domain.User, n *domain.Notification) error {
	if to.Phone == nil || *to.Phone == "" {
		return nil
	}
	return c.sender.SendSMS(ctx, *to.Phone, n.Message)
}

type emailChannel struct {
	mailer  smtp.Mailer
	baseURL string
}

// NewEmailChannel sends mail whose body links back to baseURL.
func NewEmailChannel(mailer smtp.Mailer, baseURL string) Channel {
	return &emailChannel{mailer: mailer, baseURL: baseURL}
}

func (c *emailChannel) Name() string { return "email" }

func (c *emailChannel) Accepts(t domain.NotificationType) bool {
	_, ok := subjects[t]
	return ok
}

func (c *emailChannel) Deliver(_ context.Context, to *domain.User, n *domain.Notification) error {
	if to.Email == "" {
		return nil
	}
	body := fmt.Sprintf("Hello %s,\n\n%s\n", to.FullName(), n.Message)
	if link := n.Link(); link != nil {
		body += fmt.Sprintf("\n%s%s\n", c.baseURL, *link)
	}
	return c.mailer.SendEmail(to.Email, subjects[n.Type], body)
}
