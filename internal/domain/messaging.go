package domain

import "time"

// Conversation is the thread between one renter and the landlord of a listing.
type Conversation struct {
	ConversationID string    `json:"id" dynamodbav:"conversation_id"`
	PropertyID     string    `json:"property_id" dynamodbav:"property_id"`
	RenterID       string    `json:"renter_id" dynamodbav:"renter_id"`
	LandlordID     string    `json:"landlord_id" dynamodbav:"landlord_id"`
	IsArchived     bool      `json:"is_archived" dynamodbav:"is_archived"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.RenterID == userID || c.LandlordID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.RenterID == userID {
		return c.LandlordID
	}
	return c.RenterID
}

type Message struct {
	ConversationID string     `json:"conversation_id" dynamodbav:"conversation_id"`
	MessageID      string     `json:"id" dynamodbav:"message_id"`
	SenderID       string     `json:"sender_id" dynamodbav:"sender_id"`
	Content        string     `json:"content" dynamodbav:"content"`
	Attachment     *string    `json:"-" dynamodbav:"attachment"`
	AttachmentURL  string     `json:"attachment_url,omitempty" dynamodbav:"-"`
	AttachmentName string     `json:"attachment_name,omitempty" dynamodbav:"attachment_name"`
	AttachmentType string     `json:"attachment_type,omitempty" dynamodbav:"attachment_type"`
	Read           bool       `json:"read" dynamodbav:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty" dynamodbav:"read_at"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
}

// UnreadFor reports a message waiting to be read by viewerID.
func (m *Message) UnreadFor(viewerID string) bool {
	return !m.Read && m.SenderID != viewerID
}

type SendMessageRequest struct {
	Content string `json:"content"`
}
