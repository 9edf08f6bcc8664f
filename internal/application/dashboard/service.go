package dashboard

import (
	"context"
	"time"

	"github.com/go-rental-api/internal/domain"
)

// Stats is the landing page summary of a user.
type Stats struct {
	Role                string                  `json:"role"`
	TotalProperties     int                     `json:"total_properties"`
	PendingProperties   int                     `json:"pending_properties"`
	VerifiedProperties  int                     `json:"verified_properties"`
	RejectedProperties  int                     `json:"rejected_properties"`
	FeaturedProperties  int                     `json:"featured_properties"`
	TotalViews          int                     `json:"total_views"`
	TotalSaves          int                     `json:"total_saves"`
	SavedProperties     int                     `json:"saved_properties"`
	RecentlyViewed      []domain.RecentlyViewed `json:"recently_viewed,omitempty"`
	UnreadMessages      int                     `json:"unread_messages"`
	UnreadNotifications int                     `json:"unread_notifications"`
}

type Service interface {
	Stats(ctx context.Context, userID, role string) (*Stats, error)
}

type propertyLister interface {
	ListByLandlord(ctx context.Context, landlordID string) ([]domain.Property, error)
}

type counter interface {
	CountByProperty(ctx context.Context, propertyID string) (int, error)
}

type favoriteLister interface {
	CountByProperty(ctx context.Context, propertyID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Favorite, error)
}

type recentLister interface {
	ListByUser(ctx context.Context, userID string) ([]domain.RecentlyViewed, error)
}

type inbox interface {
	UnreadTotal(ctx context.Context, userID string) (int, error)
}

type feed interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

const recentLimit = 5

type service struct {
	properties propertyLister
	views      counter
	favorites  favoriteLister
	recent     recentLister
	inbox      inbox
	feed       feed
	now        func() time.Time
}

type ServiceDeps struct {
	PropertyRepo propertyLister
	ViewRepo     counter
	FavoriteRepo favoriteLister
	RecentRepo   recentLister
	Inbox        inbox
	Feed         feed
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		properties: deps.PropertyRepo,
		views:      deps.ViewRepo,
		favorites:  deps.FavoriteRepo,
		recent:     deps.RecentRepo,
		inbox:      deps.Inbox,
		feed:       deps.Feed,
		now:        now,
	}
}

func (s *service) Stats(ctx context.Context, userID, role string) (*Stats, error) {
	st := &Stats{Role: role}
	var err error
	if st.UnreadMessages, err = s.inbox.UnreadTotal(ctx, userID); err != nil {
		return nil, err
	}
	if st.UnreadNotifications, err = s.feed.UnreadCount(ctx, userID); err != nil {
		return nil, err
	}

	switch role {
	case domain.RoleLandlord:
		err = s.landlordStats(ctx, userID, st)
	case domain.RoleRenter:
		err = s.renterStats(ctx, userID, st)
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) landlordStats(ctx context.Context, userID string, st *Stats) error {
	props, err := s.properties.ListByLandlord(ctx, userID)
	if err != nil {
		return err
	}
	now := s.now()
	st.TotalProperties = len(props)
	for i := range props {
		p := &props[i]
		switch p.Status {
		case domain.VerificationPending:
			st.PendingProperties++
		case domain.VerificationVerified:
			st.VerifiedProperties++
		case domain.VerificationRejected:
			st.RejectedProperties++
		}
		if p.IsFeaturedAt(now) {
			st.FeaturedProperties++
		}
		views, err := s.views.CountByProperty(ctx, p.PropertyID)
		if err != nil {
			return err
		}
		saves, err := s.favorites.CountByProperty(ctx, p.PropertyID)
		if err != nil {
			return err
		}
		st.TotalViews += views
		st.TotalSaves += saves
	}
	return nil
}

func (s *service) renterStats(ctx context.Context, userID string, st *Stats) error {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	st.SavedProperties = len(favs)
	recent, err := s.recent.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	st.RecentlyViewed = recent
	return nil
}
