package notification

import (
	"context"
	"fmt"

	"github.com/go-rental-api/internal/domain"
)

// Service serves the bell-icon feed. Message notifications belong to the
// inbox and are never listed or marked here.
type Service interface {
	List(ctx context.Context, userID string) ([]domain.FeedItem, error)
	ListUnread(ctx context.Context, userID string) ([]domain.FeedItem, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	MarkConversationRead(ctx context.Context, userID, conversationID string) (int, error)
}

type feedStore interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly, includeMessages bool) ([]domain.Notification, error)
	ListUnreadForConversation(ctx context.Context, userID, conversationID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
}

type service struct {
	repo feedStore
}

func NewService(repo feedStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, userID string) ([]domain.FeedItem, error) {
	ns, err := s.repo.ListByUser(ctx, userID, false, false)
	if err != nil {
		return nil, err
	}
	return feed(ns), nil
}

func (s *service) ListUnread(ctx context.Context, userID string) ([]domain.FeedItem, error) {
	ns, err := s.repo.ListByUser(ctx, userID, true, false)
	if err != nil {
		return nil, err
	}
	return feed(ns), nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int, error) {
	ns, err := s.repo.ListByUser(ctx, userID, true, false)
	if err != nil {
		return 0, err
	}
	return len(ns), nil
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	if n.Type == domain.NotificationMessage || n.IsRead {
		return n, nil
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	ns, err := s.repo.ListByUser(ctx, userID, true, false)
	if err != nil {
		return 0, err
	}
	return s.markAll(ctx, ns)
}

// MarkConversationRead clears the message notifications raised by one conversation.
func (s *service) MarkConversationRead(ctx context.Context, userID, conversationID string) (int, error) {
	ns, err := s.repo.ListUnreadForConversation(ctx, userID, conversationID)
	if err != nil {
		return 0, err
	}
	return s.markAll(ctx, ns)
}

func (s *service) markAll(ctx context.Context, ns []domain.Notification) (int, error) {
	count := 0
	for _, n := range ns {
		if err := s.repo.MarkAsRead(ctx, n.NotificationID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func feed(ns []domain.Notification) []domain.FeedItem {
	items := make([]domain.FeedItem, 0, len(ns))
	for _, n := range ns {
		items = append(items, domain.NewFeedItem(n))
	}
	return items
}
