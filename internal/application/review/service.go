package review

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/pkg/id"
)

// Service handles reviews, questions and tips on listings and the landlord's replies.
type Service interface {
	Create(ctx context.Context, propertyID, reviewerID string, in domain.ReviewInput) (*domain.Review, error)
	Reply(ctx context.Context, reviewID, landlordID string, in domain.ReplyInput) (*domain.Review, error)
	List(ctx context.Context, propertyID string) (*Summary, error)
}

type reviewStore interface {
	Put(ctx context.Context, rv *domain.Review) error
	Get(ctx context.Context, reviewID string) (*domain.Review, error)
	ListByProperty(ctx context.Context, propertyID string) ([]domain.Review, error)
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

// Summary is the review section of a listing page.
type Summary struct {
	Reviews       []domain.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
}

type service struct {
	repo       reviewStore
	properties propertyLookup
	users      userLookup
	notify     notifier
	now        func() time.Time
}

type ServiceDeps struct {
	ReviewRepo   reviewStore
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
		repo:       deps.ReviewRepo,
		properties: deps.PropertyRepo,
		users:      deps.UserRepo,
		notify:     deps.Notifier,
		now:        now,
	}
}

// Create posts a top-level entry. A reviewer gets one top-level entry per listing.
func (s *service) Create(ctx context.Context, propertyID, reviewerID string, in domain.ReviewInput) (*domain.Review, error) {
	if in.Type == domain.ReviewTypeReview && in.Rating == nil {
		return nil, fmt.Errorf("rating is required for a review: %w", domain.ErrBadRequest)
	}
	if in.Type != domain.ReviewTypeReview {
		in.Rating = nil
	}
	p, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p.LandlordID == reviewerID {
		return nil, fmt.Errorf("you cannot review your own property: %w", domain.ErrForbidden)
	}
	if !p.VisibleTo(reviewerID, "") {
		return nil, fmt.Errorf("property not found: %w", domain.ErrNotFound)
	}
	existing, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	for _, rv := range existing {
		if rv.ReviewerID == reviewerID && rv.ParentReviewID == nil {
			return nil, fmt.Errorf("you have already posted on this property: %w", domain.ErrConflict)
		}
	}

	rv := &domain.Review{
		ReviewID:   id.New(),
		PropertyID: propertyID,
		ReviewerID: reviewerID,
		Type:       in.Type,
		Rating:     in.Rating,
		Comment:    strings.TrimSpace(in.Comment),
		CreatedAt:  s.now(),
	}
	if err := s.repo.Put(ctx, rv); err != nil {
		return nil, err
	}
	s.notify.Notify(ctx, notification.Event{
		Type:          domain.NotificationPropertyReview,
		RecipientID:   p.LandlordID,
		Message:       fmt.Sprintf("%s left a %s on '%s'", s.displayName(ctx, reviewerID), rv.Type, p.Title),
		PropertyID:    p.PropertyID,
		RelatedUserID: reviewerID,
	})
	return rv, nil
}

// Reply answers a top-level entry. Only the listing's landlord may reply, once per entry.
func (s *service) Reply(ctx context.Context, reviewID, landlordID string, in domain.ReplyInput) (*domain.Review, error) {
	parent, err := s.repo.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if parent.ParentReviewID != nil {
		return nil, fmt.Errorf("cannot reply to a reply: %w", domain.ErrBadRequest)
	}
	p, err := s.properties.Get(ctx, parent.PropertyID)
	if err != nil {
		return nil, err
	}
	if p.LandlordID != landlordID {
		return nil, fmt.Errorf("only the landlord can reply: %w", domain.ErrForbidden)
	}
	existing, err := s.repo.ListByProperty(ctx, parent.PropertyID)
	if err != nil {
		return nil, err
	}
	for _, rv := range existing {
		if rv.ParentReviewID != nil && *rv.ParentReviewID == parent.ReviewID && rv.ReviewerID == landlordID {
			return nil, fmt.Errorf("you have already replied: %w", domain.ErrConflict)
		}
	}

	parentID := parent.ReviewID
	reply := &domain.Review{
		ReviewID:       id.New(),
		PropertyID:     parent.PropertyID,
		ReviewerID:     landlordID,
		Type:           domain.ReviewTypeReply,
		Comment:        strings.TrimSpace(in.Comment),
		ParentReviewID: &parentID,
		CreatedAt:      s.now(),
	}
	if err := s.repo.Put(ctx, reply); err != nil {
		return nil, err
	}
	s.notify.Notify(ctx, notification.Event{
		Type:          domain.NotificationReviewReply,
		RecipientID:   parent.ReviewerID,
		Message:       fmt.Sprintf("%s replied to your %s on '%s'", s.displayName(ctx, landlordID), parent.Type, p.Title),
		PropertyID:    p.PropertyID,
		RelatedUserID: landlordID,
	})
	return reply, nil
}

// List nests replies under their entries. The average covers rated reviews only.
func (s *service) List(ctx context.Context, propertyID string) (*Summary, error) {
	rows, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	replies := make(map[string][]domain.Review)
	for _, rv := range rows {
		if rv.ParentReviewID != nil {
			replies[*rv.ParentReviewID] = append(replies[*rv.ParentReviewID], rv)
		}
	}

	sum := &Summary{Reviews: make([]domain.Review, 0, len(rows))}
	total := 0
	for _, rv := range rows {
		if rv.ParentReviewID != nil {
			continue
		}
		rv.Replies = replies[rv.ReviewID]
		sum.Reviews = append(sum.Reviews, rv)
		if rv.Type == domain.ReviewTypeReview && rv.Rating != nil {
			total += *rv.Rating
			sum.ReviewCount++
		}
	}
	if sum.ReviewCount > 0 {
		sum.AverageRating = math.Round(float64(total)/float64(sum.ReviewCount)*10) / 10
	}
	return sum, nil
}

func (s *service) displayName(ctx context.Context, userID string) string {
	if u, err := s.users.Get(ctx, userID); err == nil {
		return u.FullName()
	}
	return "Someone"
}
