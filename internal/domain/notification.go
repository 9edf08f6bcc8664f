package domain

import "time"

type NotificationType string

const (
	NotificationMessage              NotificationType = "message"
	NotificationVerification         NotificationType = "verification"
	NotificationRejection            NotificationType = "rejection"
	NotificationPropertyView         NotificationType = "property_view"
	NotificationPropertySaved        NotificationType = "property_saved"
	NotificationPropertyInquiry      NotificationType = "property_inquiry"
	NotificationPropertyReview       NotificationType = "property_review"
	NotificationReviewReply          NotificationType = "review_reply"
	NotificationFeaturedUpgrade      NotificationType = "featured_upgrade"
	NotificationFeaturedExpiring     NotificationType = "featured_expiring"
	NotificationFeaturedExpired      NotificationType = "featured_expired"
	NotificationFeaturedRenewed      NotificationType = "featured_renewed"
	NotificationPaymentFailed        NotificationType = "payment_failed"
	NotificationPropertySubmission   NotificationType = "property_submission"
	NotificationPropertyResubmission NotificationType = "property_resubmission"
	NotificationNewUser              NotificationType = "new_user"
	NotificationProfileUpdate        NotificationType = "profile_update"
	NotificationAccountAlert         NotificationType = "account_alert"
	NotificationWelcome              NotificationType = "welcome"
	NotificationTip                  NotificationType = "tip"
)

// MaxNotificationMessage is the stored message length in runes.
const MaxNotificationMessage = 255

// Notification is immutable once created apart from the read flag.
type Notification struct {
	NotificationID        string           `json:"id" dynamodbav:"notification_id"`
	UserID                string           `json:"user_id" dynamodbav:"user_id"`
	Type                  NotificationType `json:"type" dynamodbav:"notification_type"`
	Message               string           `json:"message" dynamodbav:"message"`
	RelatedPropertyID     *string          `json:"related_property_id,omitempty" dynamodbav:"related_property_id"`
	RelatedConversationID *string          `json:"related_conversation_id,omitempty" dynamodbav:"related_conversation_id"`
	RelatedUserID         *string          `json:"related_user_id,omitempty" dynamodbav:"related_user_id"`
	IsRead                bool             `json:"is_read" dynamodbav:"is_read"`
	CreatedAt             time.Time        `json:"created" dynamodbav:"created_at"`
}

// Link resolves the deep link for the notification, nil when the type has none.
func (n *Notification) Link() *string {
	var link string
	switch n.Type {
	case NotificationMessage:
		if n.RelatedConversationID == nil {
			return nil
		}
		link = "/messaging/?conversation=" + *n.RelatedConversationID
	case NotificationPaymentFailed, NotificationFeaturedRenewed, NotificationFeaturedExpired,
		NotificationFeaturedExpiring, NotificationFeaturedUpgrade, NotificationVerification,
		NotificationRejection, NotificationPropertyView, NotificationPropertySaved,
		NotificationPropertyInquiry, NotificationPropertyReview, NotificationReviewReply:
		if n.RelatedPropertyID == nil {
			return nil
		}
		link = "/properties/detail/" + *n.RelatedPropertyID
	case NotificationProfileUpdate:
		link = "/accounts/edit/"
	case NotificationPropertySubmission, NotificationPropertyResubmission:
		link = "/properties/admin/verify/"
	case NotificationNewUser:
		if n.RelatedUserID == nil {
			return nil
		}
		link = "/admin/accounts/userrole/" + *n.RelatedUserID + "/change/"
	case NotificationWelcome, NotificationTip, NotificationAccountAlert:
		link = "/analytics/"
	default:
		return nil
	}
	return &link
}

// FeedItem is the notification shape served to the bell-icon feed.
type FeedItem struct {
	Notification
	URL *string `json:"url"`
}

func NewFeedItem(n Notification) FeedItem {
	return FeedItem{Notification: n, URL: n.Link()}
}
