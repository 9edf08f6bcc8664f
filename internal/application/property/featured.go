package property

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
)

// ApplyFeatured starts a featured period on a listing after a confirmed
// payment. An active period is replaced, not extended.
func (s *service) ApplyFeatured(ctx context.Context, propertyID string, plan domain.FeaturedPlan, amount int) (*domain.Property, error) {
	days, err := plan.Days()
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	renewed, err := p.ApplyFeatured(plan, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}

	ev := notification.Event{
		Type:        domain.NotificationFeaturedUpgrade,
		RecipientID: p.LandlordID,
		Message:     featuredUpgradeMessage(p.Title, days, *p.FeaturedUntil),
		PropertyID:  p.PropertyID,
	}
	if renewed {
		ev.Type = domain.NotificationFeaturedRenewed
		ev.Message = featuredRenewedMessage(p.Title, days, *p.FeaturedUntil)
	}
	s.notify.Notify(ctx, ev)

	email := p.LandlordID
	if u, err := s.users.Get(ctx, p.LandlordID); err == nil {
		email = u.Email
	}
	s.notify.NotifyAdmin(ctx, notification.Event{
		Type:          domain.NotificationFeaturedUpgrade,
		Message:       featuredAdminMessage(email, p.Title, amount),
		PropertyID:    p.PropertyID,
		RelatedUserID: p.LandlordID,
	})
	return p, nil
}

// SweepRejected deletes rejected listings whose resubmission deadline passed.
// A failing listing is logged and the sweep moves on.
func (s *service) SweepRejected(ctx context.Context) (int, error) {
	props, err := s.repo.ListByStatus(ctx, domain.VerificationRejected)
	if err != nil {
		return 0, err
	}
	now := s.now()
	deleted := 0
	for i := range props {
		p := &props[i]
		if !p.AutoDeleteDue(now) {
			continue
		}
		if err := s.remove(ctx, p); err != nil {
			slog.Error("failed to auto-delete rejected property", "property_id", p.PropertyID, "err", err)
			continue
		}
		slog.Info("auto-deleted rejected property", "property_id", p.PropertyID, "rejected_at", p.RejectedAt)
		deleted++
	}
	return deleted, nil
}

// ScanExpiringFeatured warns landlords whose featured period ends within the
// warning window. Each run warns again; nothing is recorded between runs.
func (s *service) ScanExpiringFeatured(ctx context.Context) (int, error) {
	props, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	warned := 0
	for i := range props {
		p := &props[i]
		if !p.FeaturedExpiringWithin(now, domain.ExpiryWarningWindow) {
			continue
		}
		daysLeft := int(p.FeaturedUntil.Sub(now) / (24 * time.Hour))
		s.notify.Notify(ctx, notification.Event{
			Type:        domain.NotificationFeaturedExpiring,
			RecipientID: p.LandlordID,
			Message:     featuredExpiringMessage(p.Title, daysLeft),
			PropertyID:  p.PropertyID,
		})
		warned++
	}
	return warned, nil
}

// SweepExpiredFeatured clears the featured flag of listings whose period ended.
func (s *service) SweepExpiredFeatured(ctx context.Context) (int, error) {
	props, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	cleared := 0
	for i := range props {
		p := &props[i]
		if !p.FeaturedExpired(now) {
			continue
		}
		p.ClearFeatured(now)
		if err := s.repo.Put(ctx, p); err != nil {
			slog.Error("failed to clear expired featured status", "property_id", p.PropertyID, "err", err)
			continue
		}
		s.notify.Notify(ctx, notification.Event{
			Type:        domain.NotificationFeaturedExpired,
			RecipientID: p.LandlordID,
			Message:     featuredExpiredMessage(p.Title),
			PropertyID:  p.PropertyID,
		})
		cleared++
	}
	return cleared, nil
}
