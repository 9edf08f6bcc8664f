package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rental-api/internal/application/notification"
	"github.com/go-rental-api/internal/domain"
	s3infra "github.com/go-rental-api/internal/infrastructure/s3"
	"github.com/go-rental-api/internal/pkg/id"
)

const (
	attachmentPrefix = "message_attachments"
	previewLength    = 50
)

// Service runs the renter/landlord inbox.
type Service interface {
	StartFromProperty(ctx context.Context, propertyID, renterID, content string, att *Attachment) (*domain.Conversation, *domain.Message, error)
	Send(ctx context.Context, conversationID, senderID, content string, att *Attachment) (*domain.Message, error)
	ListConversations(ctx context.Context, userID string) ([]Summary, error)
	Thread(ctx context.Context, conversationID, userID string) (*Thread, error)
	UnreadTotal(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, conversationID, userID string) (int, error)
	HasNew(ctx context.Context, conversationID, userID string, since time.Time) (bool, error)
}

type conversationStore interface {
	Put(ctx context.Context, c *domain.Conversation) error
	Get(ctx context.Context, conversationID string) (*domain.Conversation, error)
	FindByPropertyAndRenter(ctx context.Context, propertyID, renterID string) (*domain.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
	Touch(ctx context.Context, conversationID string, at time.Time) error
}

type messageStore interface {
	Put(ctx context.Context, m *domain.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversationID, messageID string, at time.Time) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type propertyLookup interface {
	Get(ctx context.Context, propertyID string) (*domain.Property, error)
}

type userLookup interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// feedMarker clears the inbox notifications of a conversation.
type feedMarker interface {
	MarkConversationRead(ctx context.Context, userID, conversationID string) (int, error)
}

type notifier interface {
	Notify(ctx context.Context, ev notification.Event) *domain.Notification
}

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Summary is one row of the conversation list.
type Summary struct {
	Conversation  domain.Conversation `json:"conversation"`
	PropertyTitle string              `json:"property_title"`
	OtherUserID   string              `json:"other_user_id"`
	LastMessage   *domain.Message     `json:"last_message,omitempty"`
	UnreadCount   int                 `json:"unread_count"`
}

// Thread is an opened conversation.
type Thread struct {
	Conversation *domain.Conversation `json:"conversation"`
	Messages     []domain.Message     `json:"messages"`
}

type service struct {
	conversations conversationStore
	messages      messageStore
	objects       objectStore
	properties    propertyLookup
	users         userLookup
	feed          feedMarker
	notify        notifier
	urlTTL        time.Duration
	now           func() time.Time
}

type ServiceDeps struct {
	ConversationRepo conversationStore
	MessageRepo      messageStore
	Objects          objectStore
	PropertyRepo     propertyLookup
	UserRepo         userLookup
	Feed             feedMarker
	Notifier         notifier
	AttachmentTTL    time.Duration
	Now              func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	ttl := deps.AttachmentTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &service{
		conversations: deps.ConversationRepo,
		messages:      deps.MessageRepo,
		objects:       deps.Objects,
		properties:    deps.PropertyRepo,
		users:         deps.UserRepo,
		feed:          deps.Feed,
		notify:        deps.Notifier,
		urlTTL:        ttl,
		now:           now,
	}
}

// StartFromProperty opens, or reuses, the thread between a renter and the
// landlord of a listing and posts the first message. Only verified listings
// can be contacted this way; existing threads continue through Send.
func (s *service) StartFromProperty(ctx context.Context, propertyID, renterID, content string, att *Attachment) (*domain.Conversation, *domain.Message, error) {
	p, err := s.properties.Get(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	if p.LandlordID == renterID {
		return nil, nil, fmt.Errorf("you cannot message yourself: %w", domain.ErrBadRequest)
	}
	if !p.VisibleTo(renterID, "") {
		return nil, nil, fmt.Errorf("property not found: %w", domain.ErrNotFound)
	}
	conv, err := s.conversations.FindByPropertyAndRenter(ctx, propertyID, renterID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	if conv == nil {
		now := s.now()
		conv = &domain.Conversation{
			ConversationID: id.New(),
			PropertyID:     p.PropertyID,
			RenterID:       renterID,
			LandlordID:     p.LandlordID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.conversations.Put(ctx, conv); err != nil {
			return nil, nil, err
		}
	}
	msg, err := s.post(ctx, conv, renterID, content, att)
	if err != nil {
		return nil, nil, err
	}
	return conv, msg, nil
}

func (s *service) Send(ctx context.Context, conversationID, senderID, content string, att *Attachment) (*domain.Message, error) {
	conv, err := s.participantOf(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	return s.post(ctx, conv, senderID, content, att)
}

// post stores a message, bumps the conversation and notifies the other side.
func (s *service) post(ctx context.Context, conv *domain.Conversation, senderID, content string, att *Attachment) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && att == nil {
		return nil, fmt.Errorf("message cannot be empty: %w", domain.ErrBadRequest)
	}
	now := s.now()
	msg := &domain.Message{
		ConversationID: conv.ConversationID,
		MessageID:      id.NewAt(now),
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      now,
	}
	if att != nil {
		key := s3infra.ObjectKey(attachmentPrefix, conv.ConversationID, msg.MessageID, att.Filename)
		contentType := att.ContentType
		if contentType == "" {
			contentType = s3infra.DetectContentType(att.Filename)
		}
		if err := s.objects.Upload(ctx, key, att.Body, contentType); err != nil {
			return nil, err
		}
		msg.Attachment = &key
		msg.AttachmentName = att.Filename
		msg.AttachmentType = contentType
	}
	if err := s.messages.Put(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.conversations.Touch(ctx, conv.ConversationID, now); err != nil {
		slog.Warn("failed to bump conversation", "conversation_id", conv.ConversationID, "err", err)
	}
	conv.UpdatedAt = now

	preview := content
	if preview == "" {
		preview = "sent an attachment"
	}
	s.notify.Notify(ctx, notification.Event{
		Type:           domain.NotificationMessage,
		RecipientID:    conv.OtherParticipant(senderID),
		Message:        fmt.Sprintf("New message from %s: %s", s.displayName(ctx, senderID), domain.Truncate(preview, previewLength)),
		PropertyID:     conv.PropertyID,
		ConversationID: conv.ConversationID,
		RelatedUserID:  senderID,
	})
	s.presign(ctx, msg)
	return msg, nil
}

func (s *service) ListConversations(ctx context.Context, userID string) ([]Summary, error) {
	convs, err := s.conversations.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(convs))
	for _, c := range convs {
		msgs, err := s.messages.ListByConversation(ctx, c.ConversationID)
		if err != nil {
			return nil, err
		}
		sum := Summary{Conversation: c, OtherUserID: c.OtherParticipant(userID)}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			sum.LastMessage = &last
		}
		sum.UnreadCount = countUnread(msgs, userID)
		if p, err := s.properties.Get(ctx, c.PropertyID); err == nil {
			sum.PropertyTitle = p.Title
		}
		out = append(out, sum)
	}
	return out, nil
}

// Thread opens a conversation and marks the incoming messages read.
func (s *service) Thread(ctx context.Context, conversationID, userID string) (*Thread, error) {
	conv, err := s.participantOf(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConversation(ctx, conv.ConversationID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range msgs {
		if msgs[i].UnreadFor(userID) {
			if err := s.messages.MarkRead(ctx, conv.ConversationID, msgs[i].MessageID, now); err != nil {
				return nil, err
			}
			msgs[i].Read = true
			at := now
			msgs[i].ReadAt = &at
		}
		s.presign(ctx, &msgs[i])
	}
	return &Thread{Conversation: conv, Messages: msgs}, nil
}

func (s *service) UnreadTotal(ctx context.Context, userID string) (int, error) {
	convs, err := s.conversations.ListByParticipant(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range convs {
		msgs, err := s.messages.ListByConversation(ctx, c.ConversationID)
		if err != nil {
			return 0, err
		}
		total += countUnread(msgs, userID)
	}
	return total, nil
}

// MarkRead marks every incoming message of the conversation read together
// with the inbox notifications pointing at it. It returns the messages marked.
func (s *service) MarkRead(ctx context.Context, conversationID, userID string) (int, error) {
	conv, err := s.participantOf(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}
	msgs, err := s.messages.ListByConversation(ctx, conv.ConversationID)
	if err != nil {
		return 0, err
	}
	now := s.now()
	marked := 0
	for _, m := range msgs {
		if !m.UnreadFor(userID) {
			continue
		}
		if err := s.messages.MarkRead(ctx, conv.ConversationID, m.MessageID, now); err != nil {
			return marked, err
		}
		marked++
	}
	if _, err := s.feed.MarkConversationRead(ctx, userID, conv.ConversationID); err != nil {
		slog.Warn("failed to clear message notifications", "conversation_id", conv.ConversationID, "user_id", userID, "err", err)
	}
	return marked, nil
}

// HasNew reports a message from the other participant created after since.
func (s *service) HasNew(ctx context.Context, conversationID, userID string, since time.Time) (bool, error) {
	conv, err := s.participantOf(ctx, conversationID, userID)
	if err != nil {
		return false, err
	}
	msgs, err := s.messages.ListByConversation(ctx, conv.ConversationID)
	if err != nil {
		return false, err
	}
	for _, m := range msgs {
		if m.SenderID != userID && m.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) participantOf(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("not a participant of this conversation: %w", domain.ErrForbidden)
	}
	return conv, nil
}

func (s *service) presign(ctx context.Context, m *domain.Message) {
	if m.Attachment == nil {
		return
	}
	u, err := s.objects.PresignedURL(ctx, *m.Attachment, s.urlTTL)
	if err != nil {
		slog.Warn("failed to presign attachment", "message_id", m.MessageID, "err", err)
		return
	}
	m.AttachmentURL = u
}

func (s *service) displayName(ctx context.Context, userID string) string {
	if u, err := s.users.Get(ctx, userID); err == nil {
		return u.FullName()
	}
	return "Someone"
}

func countUnread(msgs []domain.Message, userID string) int {
	n := 0
	for i := range msgs {
		if msgs[i].UnreadFor(userID) {
			n++
		}
	}
	return n
}
