package domain

import (
	"fmt"
	"time"
)

type FeaturedPlan string

const (
	PlanWeekly  FeaturedPlan = "weekly"
	PlanMonthly FeaturedPlan = "monthly"
)

// Days returns the featured period length of the plan.
func (p FeaturedPlan) Days() (int, error) {
	switch p {
	case PlanWeekly:
		return 7, nil
	case PlanMonthly:
		return 30, nil
	}
	return 0, fmt.Errorf("select a plan: %w", ErrBadRequest)
}

func (p FeaturedPlan) Duration() (time.Duration, error) {
	days, err := p.Days()
	if err != nil {
		return 0, err
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// FeaturedPayment records one checkout attempt for a featured upgrade.
type FeaturedPayment struct {
	TxRef       string        `json:"tx_ref" dynamodbav:"tx_ref"`
	PropertyID  string        `json:"property_id" dynamodbav:"property_id"`
	UserID      string        `json:"user_id" dynamodbav:"user_id"`
	Amount      int           `json:"amount" dynamodbav:"amount"`
	Currency    string        `json:"currency" dynamodbav:"currency"`
	Plan        FeaturedPlan  `json:"plan_type" dynamodbav:"plan_type"`
	Status      PaymentStatus `json:"status" dynamodbav:"status"`
	CreatedAt   time.Time     `json:"created" dynamodbav:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" dynamodbav:"completed_at"`
}

type UpgradeRequest struct {
	Plan FeaturedPlan `json:"plan" validate:"required"`
}
