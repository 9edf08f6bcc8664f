package domain

import "time"

type Favorite struct {
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	PropertyID string    `json:"property_id" dynamodbav:"property_id"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

// PropertyView is recorded once per viewer and property.
type PropertyView struct {
	PropertyID string    `json:"property_id" dynamodbav:"property_id"`
	ViewerID   string    `json:"viewer_id" dynamodbav:"viewer_id"`
	ViewedAt   time.Time `json:"viewed_at" dynamodbav:"viewed_at"`
}

// RecentlyViewed keeps the last time a renter opened a listing.
type RecentlyViewed struct {
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	PropertyID string    `json:"property_id" dynamodbav:"property_id"`
	ViewedAt   time.Time `json:"viewed_at" dynamodbav:"viewed_at"`
}

type ReviewType string

const (
	ReviewTypeReview   ReviewType = "review"
	ReviewTypeQuestion ReviewType = "question"
	ReviewTypeTip      ReviewType = "tip"
	ReviewTypeReply    ReviewType = "reply"
)

type Review struct {
	ReviewID       string     `json:"id" dynamodbav:"review_id"`
	PropertyID     string     `json:"property_id" dynamodbav:"property_id"`
	ReviewerID     string     `json:"reviewer_id" dynamodbav:"reviewer_id"`
	Type           ReviewType `json:"review_type" dynamodbav:"review_type"`
	Rating         *int       `json:"rating,omitempty" dynamodbav:"rating"`
	Comment        string     `json:"comment" dynamodbav:"comment"`
	ParentReviewID *string    `json:"parent_review_id,omitempty" dynamodbav:"parent_review_id"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
	Replies        []Review   `json:"replies,omitempty" dynamodbav:"-"`
}

type ReviewInput struct {
	Type    ReviewType `json:"review_type" validate:"required,oneof=review question tip"`
	Rating  *int       `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment string     `json:"comment" validate:"required"`
}

type ReplyInput struct {
	Comment string `json:"comment" validate:"required"`
}
