package favorite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
)

// Service manages the saved-listings list of a user.
type Service interface {
	// Toggle saves or unsaves a listing and reports the resulting state. Only
	// listings the user can see may be saved; unsaving always works.
	Toggle(ctx context.Context, userID, propertyID string) (bool, error)
	ListSaved(ctx context.Context, userID string) ([]domain.Property, error)
}

type favoriteStore interface {
	Put(ctx context.Context, f *domain.Favorite) error
	Exists(ctx context.Context, userID, propertyID string) (bool, error)
	Delete(ctx context.Context, userID, propertyID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Favorite, error)
}

type propertyLookup interface {
	Get(ctx context.Context, propertyID string) (*domain.Property, error)
}

type userLookup interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type notifier interface {
	Notify(ctx context.Context, ev notification.Event) *domain.Notification
}

type service struct {
	repo       favoriteStore
	properties propertyLookup
	users      userLookup
	notify     notifier
	now        func() time.Time
}

type ServiceDeps struct {
	FavoriteRepo favoriteStore
	PropertyRepo propertyLookup
	UserRepo     userLookup
	Notifier     notifier
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:       deps.FavoriteRepo,
		properties: deps.PropertyRepo,
		users:      deps.UserRepo,
		notify:     deps.Notifier,
		now:        now,
	}
}

func (s *service) Toggle(ctx context.Context, userID, propertyID string) (bool, error) {
	p, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return false, err
	}
	if p.LandlordID == userID {
		return false, fmt.Errorf("you cannot save your own property: %w", domain.ErrForbidden)
	}
	saved, err := s.repo.Exists(ctx, userID, propertyID)
	if err != nil {
		return false, err
	}
	if saved {
		return false, s.repo.Delete(ctx, userID, propertyID)
	}
	if !p.VisibleTo(userID, "") {
		return false, fmt.Errorf("property not found: %w", domain.ErrNotFound)
	}
	if err := s.repo.Put(ctx, &domain.Favorite{UserID: userID, PropertyID: propertyID, CreatedAt: s.now()}); err != nil {
		return false, err
	}

	name := userID
	if u, err := s.users.Get(ctx, userID); err == nil {
		name = u.FullName()
	}
	s.notify.Notify(ctx, notification.Event{
		Type:          domain.NotificationPropertySaved,
		RecipientID:   p.LandlordID,
		Message:       fmt.Sprintf("%s saved your property '%s'", name, p.Title),
		PropertyID:    p.PropertyID,
		RelatedUserID: userID,
	})
	return true, nil
}

// ListSaved returns the saved listings, most recently saved first. Listings
// deleted since they were saved are skipped.
func (s *service) ListSaved(ctx context.Context, userID string) ([]domain.Property, error) {
	favs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(favs, func(i, j int) bool { return favs[i].CreatedAt.After(favs[j].CreatedAt) })
	out := make([]domain.Property, 0, len(favs))
	for _, f := range favs {
		p, err := s.properties.Get(ctx, f.PropertyID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
