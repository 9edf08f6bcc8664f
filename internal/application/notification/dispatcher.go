package notification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/pkg/id"
)

// Event describes one notification to create. Empty related IDs are not stored.
type Event struct {
	Type           domain.NotificationType
	RecipientID    string
	Message        string
	PropertyID     string
	ConversationID string
	RelatedUserID  string
}

type notificationWriter interface {
	Put(ctx context.Context, n *domain.Notification) error
}

type recipientLookup interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// Dispatcher records notifications. Every call is best effort: failures are
// logged and never reach the caller, whose primary mutation already succeeded.
type Dispatcher struct {
	store    notificationWriter
	admins   AdminResolver
	users    recipientLookup
	channels []Channel
	now      func() time.Time
}

type DispatcherDeps struct {
	Store  notificationWriter
	Admins AdminResolver

	// Users and Channels are optional; without them only the in-app row is written.
	Users    recipientLookup
	Channels []Channel
	Now      func() time.Time
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Dispatcher{
		store:    deps.Store,
		admins:   deps.Admins,
		users:    deps.Users,
		channels: deps.Channels,
		now:      now,
	}
}

// Notify creates exactly one unread notification for ev.RecipientID and
// returns it, or nil when nothing could be recorded.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) *domain.Notification {
	if ev.RecipientID == "" {
		slog.Warn("notification dropped: no recipient", "type", ev.Type)
		return nil
	}
	n := &domain.Notification{
		NotificationID:        id.New(),
		UserID:                ev.RecipientID,
		Type:                  ev.Type,
		Message:               domain.Truncate(strings.TrimSpace(ev.Message), domain.MaxNotificationMessage),
		RelatedPropertyID:     optional(ev.PropertyID),
		RelatedConversationID: optional(ev.ConversationID),
		RelatedUserID:         optional(ev.RelatedUserID),
		CreatedAt:             d.now(),
	}
	if err := d.store.Put(ctx, n); err != nil {
		slog.Error("failed to record notification", "type", ev.Type, "user_id", ev.RecipientID, "err", err)
		return nil
	}
	d.fanOut(ctx, n)
	return n
}

// NotifyAdmin resolves the operator at dispatch time and notifies them.
func (d *Dispatcher) NotifyAdmin(ctx context.Context, ev Event) *domain.Notification {
	if d.admins == nil {
		slog.Warn("admin notification dropped: no resolver", "type", ev.Type)
		return nil
	}
	adminID, err := d.admins.AdminID(ctx)
	if err != nil {
		slog.Warn("admin notification dropped: no admin available", "type", ev.Type, "err", err)
		return nil
	}
	ev.RecipientID = adminID
	return d.Notify(ctx, ev)
}

func (d *Dispatcher) fanOut(ctx context.Context, n *domain.Notification) {
	if d.users == nil || len(d.channels) == 0 {
		return
	}
	var recipient *domain.User
	for _, ch := range d.channels {
		if !ch.Accepts(n.Type) {
			continue
		}
		if recipient == nil {
			u, err := d.users.Get(ctx, n.UserID)
			if err != nil {
				slog.Warn("notification channels skipped: recipient lookup failed", "user_id", n.UserID, "err", err)
				return
			}
			recipient = u
		}
		if err := ch.Deliver(ctx, recipient, n); err != nil {
			slog.Warn("notification channel delivery failed", "channel", ch.Name(), "type", n.Type, "user_id", n.UserID, "err", err)
		}
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
