package property

import (
	"context"
	"log/slog"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
)

// Viewer identifies who opens a listing. The zero value is an anonymous visitor.
type Viewer struct {
	UserID string
	Role   string
}

func (v Viewer) anonymous() bool { return v.UserID == "" }

// Detail is the listing page payload.
type Detail struct {
	Property      *domain.Property       `json:"property"`
	Images        []domain.PropertyImage `json:"images"`
	ViewCount     int                    `json:"view_count"`
	FavoriteCount int                    `json:"favorite_count"`
	IsFavorited   bool                   `json:"is_favorited"`
	IsOwner       bool                   `json:"is_owner"`
}

// Detail loads a listing. Unverified listings are visible only to their
// landlord and admins. Opening someone else's listing records the view and
// notifies the landlord.
func (s *service) Detail(ctx context.Context, propertyID string, viewer Viewer) (*Detail, error) {
	p, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	isOwner := !viewer.anonymous() && viewer.UserID == p.LandlordID
	if !p.VisibleTo(viewer.UserID, viewer.Role) {
		return nil, errNotVisible
	}

	if !viewer.anonymous() && !isOwner {
		s.recordView(ctx, p, viewer)
	}

	imgs, err := s.ListImages(ctx, p.PropertyID)
	if err != nil {
		return nil, err
	}
	d := &Detail{Property: p, Images: imgs, IsOwner: isOwner}
	if d.ViewCount, err = s.views.CountByProperty(ctx, p.PropertyID); err != nil {
		return nil, err
	}
	if d.FavoriteCount, err = s.favorites.CountByProperty(ctx, p.PropertyID); err != nil {
		return nil, err
	}
	if !viewer.anonymous() {
		if d.IsFavorited, err = s.favorites.Exists(ctx, viewer.UserID, p.PropertyID); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// recordView is a side effect of reading; failures are logged only.
func (s *service) recordView(ctx context.Context, p *domain.Property, viewer Viewer) {
	now := s.now()
	if viewer.Role == domain.RoleRenter {
		if err := s.recent.Touch(ctx, &domain.RecentlyViewed{UserID: viewer.UserID, PropertyID: p.PropertyID, ViewedAt: now}); err != nil {
			slog.Warn("failed to record recently viewed", "property_id", p.PropertyID, "user_id", viewer.UserID, "err", err)
		}
	}
	if _, err := s.views.Record(ctx, &domain.PropertyView{PropertyID: p.PropertyID, ViewerID: viewer.UserID, ViewedAt: now}); err != nil {
		slog.Warn("failed to record property view", "property_id", p.PropertyID, "user_id", viewer.UserID, "err", err)
	}
	name := viewer.UserID
	if u, err := s.users.Get(ctx, viewer.UserID); err == nil {
		name = u.FullName()
	}
	s.notify.Notify(ctx, notification.Event{
		Type:          domain.NotificationPropertyView,
		RecipientID:   p.LandlordID,
		Message:       viewMessage(name, p.Title),
		PropertyID:    p.PropertyID,
		RelatedUserID: viewer.UserID,
	})
}
