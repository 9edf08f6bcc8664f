package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pending() *Property {
	return &Property{PropertyID: "p1", LandlordID: "l1", Title: "Flat", Status: VerificationPending}
}

func TestVerify_FromPending(t *testing.T) {
	p := pending()
	p.Verify("admin", t0)

	assert.True(t, p.IsVerified())
	assert.False(t, p.IsRejected())
	assert.False(t, p.IsResubmit())
	require.NotNil(t, p.VerifiedBy)
	assert.Equal(t, "admin", *p.VerifiedBy)
	assert.Equal(t, t0, *p.VerifiedAt)
}

func TestReject_SetsDeadline(t *testing.T) {
	p := pending()
	p.Reject("blurry photos", t0)

	assert.True(t, p.IsRejected())
	assert.False(t, p.IsVerified())
	assert.Equal(t, "blurry photos", p.RejectionReason)
	require.NotNil(t, p.RejectedAt)
	require.NotNil(t, p.AutoDeleteAt)
	assert.Equal(t, p.RejectedAt.Add(24*time.Hour), *p.AutoDeleteAt)
}

func TestReject_AfterVerify_ClearsVerification(t *testing.T) {
	p := pending()
	p.Verify("admin", t0)
	p.Reject("duplicate", t0.Add(time.Hour))

	assert.True(t, p.IsRejected())
	assert.False(t, p.IsVerified())
	assert.Nil(t, p.VerifiedBy)
}

func TestVerify_AfterReject_ClearsRejection(t *testing.T) {
	p := pending()
	p.Reject("blurry", t0)
	p.Verify("admin", t0.Add(time.Hour))

	assert.True(t, p.IsVerified())
	assert.False(t, p.IsRejected())
	assert.Empty(t, p.RejectionReason)
	assert.Nil(t, p.AutoDeleteAt)
}

func TestResubmit_OnlyFromRejected(t *testing.T) {
	p := pending()
	assert.False(t, p.Resubmit(t0))
	assert.False(t, p.IsResubmit())

	p.Reject("blurry", t0)
	assert.True(t, p.Resubmit(t0.Add(time.Hour)))
	assert.Equal(t, VerificationPending, p.Status)
	assert.True(t, p.IsResubmit())
	assert.Empty(t, p.RejectionReason)
	assert.Nil(t, p.RejectedAt)
	assert.Nil(t, p.AutoDeleteAt)
}

func TestResubmit_VerifiedListingUntouched(t *testing.T) {
	p := pending()
	p.Verify("admin", t0)
	assert.False(t, p.Resubmit(t0))
	assert.True(t, p.IsVerified())
}

func TestAutoDeleteDue(t *testing.T) {
	p := pending()
	p.Reject("blurry", t0)

	assert.False(t, p.AutoDeleteDue(t0.Add(23*time.Hour)))
	assert.True(t, p.AutoDeleteDue(t0.Add(24*time.Hour)))

	p.Resubmit(t0.Add(time.Hour))
	assert.False(t, p.AutoDeleteDue(t0.Add(48*time.Hour)))
}

func TestApplyFeatured_Plans(t *testing.T) {
	cases := []struct {
		plan FeaturedPlan
		days int
	}{
		{PlanWeekly, 7},
		{PlanMonthly, 30},
	}
	for _, c := range cases {
		p := pending()
		renewed, err := p.ApplyFeatured(c.plan, t0)
		require.NoError(t, err)
		assert.False(t, renewed)
		assert.True(t, p.Featured)
		assert.Equal(t, t0.AddDate(0, 0, c.days), *p.FeaturedUntil, "plan %s", c.plan)
	}
}

func TestApplyFeatured_InvalidPlanLeavesStateUnchanged(t *testing.T) {
	p := pending()
	_, err := p.ApplyFeatured("yearly", t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.False(t, p.Featured)
	assert.Nil(t, p.FeaturedUntil)
}

func TestApplyFeatured_IndependentOfVerification(t *testing.T) {
	p := pending()
	p.Reject("blurry", t0)
	_, err := p.ApplyFeatured(PlanWeekly, t0)
	require.NoError(t, err)
	assert.True(t, p.IsRejected())
	assert.True(t, p.IsFeaturedAt(t0))
}

func TestApplyFeatured_RenewalReported(t *testing.T) {
	p := pending()
	_, _ = p.ApplyFeatured(PlanWeekly, t0)
	renewed, err := p.ApplyFeatured(PlanMonthly, t0.Add(48*time.Hour))
	require.NoError(t, err)
	assert.True(t, renewed)
}

func TestFeaturedExpiringWithin(t *testing.T) {
	p := pending()
	_, _ = p.ApplyFeatured(PlanWeekly, t0)

	assert.False(t, p.FeaturedExpiringWithin(t0, ExpiryWarningWindow))
	assert.True(t, p.FeaturedExpiringWithin(t0.Add(5*24*time.Hour), ExpiryWarningWindow))
	assert.True(t, p.FeaturedExpiringWithin(t0.Add(4*24*time.Hour), ExpiryWarningWindow))
	assert.False(t, p.FeaturedExpiringWithin(t0.Add(7*24*time.Hour), ExpiryWarningWindow))
	assert.True(t, p.FeaturedExpired(t0.Add(7*24*time.Hour)))
}

func TestPropertyJSON_LegacyFlags(t *testing.T) {
	p := pending()
	p.Reject("blurry", t0)
	p.Resubmit(t0)
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, false, out["is_verified"])
	assert.Equal(t, false, out["is_rejected"])
	assert.Equal(t, true, out["is_resubmit"])
	assert.Equal(t, "pending", out["status"])
	assert.Equal(t, "Flat", out["title"])
}

func TestPropertyInput_Apply(t *testing.T) {
	p := pending()
	avail := false
	in := PropertyInput{Title: "New", PropertyType: "villa", Location: "bole", Price: 9000, AvailableFrom: "2026-04-01", IsAvailable: &avail}
	require.NoError(t, in.Apply(p))
	assert.Equal(t, "New", p.Title)
	assert.False(t, p.IsAvailable)
	require.NotNil(t, p.AvailableFrom)

	in.AvailableFrom = "01/04/2026"
	assert.ErrorIs(t, in.Apply(p), ErrBadRequest)
}

func TestSearchFilter_Matches(t *testing.T) {
	p := &Property{Location: "bole", PropertyType: "apartment", Price: 7000}
	assert.True(t, SearchFilter{}.Matches(p))
	assert.True(t, SearchFilter{Location: "BOLE"}.Matches(p))
	assert.False(t, SearchFilter{Location: "semit"}.Matches(p))
	assert.True(t, SearchFilter{PriceRange: "5000-10000"}.Matches(p))
	assert.False(t, SearchFilter{PriceRange: "0-5000"}.Matches(p))
	assert.False(t, SearchFilter{PriceRange: "20000+"}.Matches(p))
	assert.False(t, SearchFilter{PropertyType: "villa"}.Matches(p))
}

func TestVisibleTo(t *testing.T) {
	p := pending()
	assert.True(t, p.VisibleTo("l1", RoleLandlord))
	assert.True(t, p.VisibleTo("a1", RoleAdmin))
	assert.False(t, p.VisibleTo("r1", RoleRenter))
	assert.False(t, p.VisibleTo("", ""))

	p.Verify("a1", t0)
	assert.True(t, p.VisibleTo("r1", RoleRenter))
	assert.True(t, p.VisibleTo("", ""))
}
