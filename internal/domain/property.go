package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// VerificationState is the single source of truth for where a listing sits in
// the admin review flow. A listing is in exactly one state at a time.
type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationVerified VerificationState = "verified"
	VerificationRejected VerificationState = "rejected"
)

const (
	// AutoDeleteAfter is how long a rejected listing waits for a resubmission.
	AutoDeleteAfter = 24 * time.Hour
	// ExpiryWarningWindow is how far ahead featured expiry warnings look.
	ExpiryWarningWindow = 3 * 24 * time.Hour
	// MaxPropertyImages caps the gallery of a single listing.
	MaxPropertyImages = 5
)

// Property types and locations accepted on listings.
var (
	PropertyTypes = []string{"apartment", "villa", "condominium", "traditional"}
	Locations     = []string{"semit", "tuludimtu", "koye-feche", "arabsa", "bulbula", "abado", "bole"}
	PriceRanges   = []string{"0-5000", "5000-10000", "10000-20000", "20000+"}
)

type Amenities struct {
	IsFurnished        bool `json:"is_furnished" dynamodbav:"is_furnished"`
	HasParking         bool `json:"has_parking" dynamodbav:"has_parking"`
	HasBalcony         bool `json:"has_balcony" dynamodbav:"has_balcony"`
	HasSecurity        bool `json:"has_security" dynamodbav:"has_security"`
	HasBackupGenerator bool `json:"has_backup_generator" dynamodbav:"has_backup_generator"`
	HasInternet        bool `json:"has_internet" dynamodbav:"has_internet"`
	PetFriendly        bool `json:"pet_friendly" dynamodbav:"pet_friendly"`
}

type Property struct {
	PropertyID    string     `json:"id" dynamodbav:"property_id"`
	LandlordID    string     `json:"landlord_id" dynamodbav:"landlord_id"`
	Title         string     `json:"title" dynamodbav:"title"`
	Description   string     `json:"description" dynamodbav:"description"`
	PropertyType  string     `json:"property_type" dynamodbav:"property_type"`
	Location      string     `json:"location" dynamodbav:"location"`
	Price         int        `json:"price" dynamodbav:"price"`
	Bedrooms      int        `json:"bedrooms" dynamodbav:"bedrooms"`
	Bathrooms     int        `json:"bathrooms" dynamodbav:"bathrooms"`
	Area          float64    `json:"area" dynamodbav:"area"`
	Amenities     Amenities  `json:"amenities" dynamodbav:"amenities"`
	AvailableFrom *time.Time `json:"available_from" dynamodbav:"available_from"`
	IsAvailable   bool       `json:"is_available" dynamodbav:"is_available"`

	Status          VerificationState `json:"status" dynamodbav:"status"`
	Resubmitted     bool              `json:"-" dynamodbav:"resubmitted"`
	RejectionReason string            `json:"rejection_reason,omitempty" dynamodbav:"rejection_reason"`
	RejectedAt      *time.Time        `json:"rejected_at,omitempty" dynamodbav:"rejected_at"`
	AutoDeleteAt    *time.Time        `json:"auto_delete_at,omitempty" dynamodbav:"auto_delete_at"`
	VerifiedBy      *string           `json:"verified_by,omitempty" dynamodbav:"verified_by"`
	VerifiedAt      *time.Time        `json:"verified_at,omitempty" dynamodbav:"verified_at"`

	Featured      bool       `json:"-" dynamodbav:"featured"`
	FeaturedUntil *time.Time `json:"featured_until" dynamodbav:"featured_until"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// MarshalJSON adds the legacy boolean flags clients still read.
func (p Property) MarshalJSON() ([]byte, error) {
	type alias Property
	return json.Marshal(struct {
		alias
		IsVerified bool `json:"is_verified"`
		IsRejected bool `json:"is_rejected"`
		IsResubmit bool `json:"is_resubmit"`
		IsFeatured bool `json:"is_featured"`
	}{
		alias:      alias(p),
		IsVerified: p.IsVerified(),
		IsRejected: p.IsRejected(),
		IsResubmit: p.IsResubmit(),
		IsFeatured: p.Featured,
	})
}

func (p *Property) IsVerified() bool { return p.Status == VerificationVerified }
func (p *Property) IsRejected() bool { return p.Status == VerificationRejected }
func (p *Property) IsResubmit() bool { return p.Status == VerificationPending && p.Resubmitted }

// VisibleTo reports whether a user may see the listing. Unverified listings
// are shown only to their landlord and admins.
func (p *Property) VisibleTo(userID, role string) bool {
	return p.IsVerified() || (userID != "" && userID == p.LandlordID) || role == RoleAdmin
}

// Verify moves the listing to verified, dropping any rejection data.
func (p *Property) Verify(adminID string, now time.Time) {
	p.Status = VerificationVerified
	p.Resubmitted = false
	p.RejectionReason = ""
	p.RejectedAt = nil
	p.AutoDeleteAt = nil
	p.VerifiedBy = &adminID
	at := now
	p.VerifiedAt = &at
	p.UpdatedAt = now
}

// Reject moves the listing to rejected and starts the resubmission deadline.
func (p *Property) Reject(reason string, now time.Time) {
	rejectedAt := now
	deadline := now.Add(AutoDeleteAfter)
	p.Status = VerificationRejected
	p.Resubmitted = false
	p.RejectionReason = reason
	p.RejectedAt = &rejectedAt
	p.AutoDeleteAt = &deadline
	p.VerifiedBy = nil
	p.VerifiedAt = nil
	p.UpdatedAt = now
}

// Resubmit puts a rejected listing back in the queue. It reports false and
// leaves the listing untouched when the listing was not rejected.
func (p *Property) Resubmit(now time.Time) bool {
	if p.Status != VerificationRejected {
		return false
	}
	p.Status = VerificationPending
	p.Resubmitted = true
	p.RejectionReason = ""
	p.RejectedAt = nil
	p.AutoDeleteAt = nil
	p.UpdatedAt = now
	return true
}

// AutoDeleteDue reports whether a rejected listing missed its resubmission deadline.
func (p *Property) AutoDeleteDue(now time.Time) bool {
	return p.Status == VerificationRejected && p.AutoDeleteAt != nil && !p.AutoDeleteAt.After(now)
}

// IsFeaturedAt reports whether the featured overlay is active at now.
func (p *Property) IsFeaturedAt(now time.Time) bool {
	return p.Featured && p.FeaturedUntil != nil && p.FeaturedUntil.After(now)
}

// ApplyFeatured starts a featured period of plan length from now. The returned
// flag is true when an active featured period was replaced.
func (p *Property) ApplyFeatured(plan FeaturedPlan, now time.Time) (bool, error) {
	d, err := plan.Duration()
	if err != nil {
		return false, err
	}
	renewed := p.IsFeaturedAt(now)
	until := now.Add(d)
	p.Featured = true
	p.FeaturedUntil = &until
	p.UpdatedAt = now
	return renewed, nil
}

// FeaturedExpiringWithin reports a featured period that ends in (now, now+window].
func (p *Property) FeaturedExpiringWithin(now time.Time, window time.Duration) bool {
	if !p.Featured || p.FeaturedUntil == nil {
		return false
	}
	return p.FeaturedUntil.After(now) && !p.FeaturedUntil.After(now.Add(window))
}

// FeaturedExpired reports a featured flag whose period already ended.
func (p *Property) FeaturedExpired(now time.Time) bool {
	return p.Featured && p.FeaturedUntil != nil && !p.FeaturedUntil.After(now)
}

// ClearFeatured drops the featured overlay after expiry.
func (p *Property) ClearFeatured(now time.Time) {
	p.Featured = false
	p.UpdatedAt = now
}

// PropertyInput carries the editable listing fields.
type PropertyInput struct {
	Title         string    `json:"title" validate:"required,max=255"`
	Description   string    `json:"description" validate:"required"`
	PropertyType  string    `json:"property_type" validate:"required,oneof=apartment villa condominium traditional"`
	Location      string    `json:"location" validate:"required,oneof=semit tuludimtu koye-feche arabsa bulbula abado bole"`
	Price         int       `json:"price" validate:"required,gt=0"`
	Bedrooms      int       `json:"bedrooms" validate:"gte=0"`
	Bathrooms     int       `json:"bathrooms" validate:"gte=0"`
	Area          float64   `json:"area" validate:"gt=0"`
	Amenities     Amenities `json:"amenities"`
	AvailableFrom string    `json:"available_from"` // expected format: YYYY-MM-DD
	IsAvailable   *bool     `json:"is_available"`
}

// Apply copies the input onto the listing.
func (in PropertyInput) Apply(p *Property) error {
	if in.AvailableFrom != "" {
		t, err := time.Parse("2006-01-02", in.AvailableFrom)
		if err != nil {
			return fmt.Errorf("available_from must be in YYYY-MM-DD format: %w", ErrBadRequest)
		}
		p.AvailableFrom = &t
	}
	p.Title = in.Title
	p.Description = in.Description
	p.PropertyType = in.PropertyType
	p.Location = in.Location
	p.Price = in.Price
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.Area = in.Area
	p.Amenities = in.Amenities
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	return nil
}

// PropertyImage is one picture of a listing stored in object storage.
type PropertyImage struct {
	ImageID    string    `json:"id" dynamodbav:"image_id"`
	PropertyID string    `json:"property_id" dynamodbav:"property_id"`
	Object     string    `json:"object" dynamodbav:"object"`
	URL        string    `json:"url,omitempty" dynamodbav:"-"`
	IsPrimary  bool      `json:"is_primary" dynamodbav:"is_primary"`
	UploadedAt time.Time `json:"uploaded_at" dynamodbav:"uploaded_at"`
}

// SearchFilter narrows the public listing search.
type SearchFilter struct {
	Location     string
	PropertyType string
	PriceRange   string // 0-5000 | 5000-10000 | 10000-20000 | 20000+
}

// Matches applies the filter to a verified listing.
func (f SearchFilter) Matches(p *Property) bool {
	if f.Location != "" && !equalFold(p.Location, f.Location) {
		return false
	}
	if f.PropertyType != "" && !equalFold(p.PropertyType, f.PropertyType) {
		return false
	}
	switch f.PriceRange {
	case "0-5000":
		return p.Price < 5000
	case "5000-10000":
		return p.Price >= 5000 && p.Price <= 10000
	case "10000-20000":
		return p.Price >= 10000 && p.Price <= 20000
	case "20000+":
		return p.Price > 20000
	}
	return true
}
