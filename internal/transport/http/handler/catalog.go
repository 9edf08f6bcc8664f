package handler

import (
	"net/http"

	"github.com/go-rental-api/internal/domain"
)

// PlanOption is one purchasable featured plan.
type PlanOption struct {
	Plan     domain.FeaturedPlan `json:"plan"`
	Days     int                 `json:"days"`
	Price    int                 `json:"price"`
	Currency string              `json:"currency"`
}

// Catalog lists the values clients need to build listing and signup forms.
type Catalog struct {
	Roles         []string     `json:"roles"`
	PropertyTypes []string     `json:"property_types"`
	Locations     []string     `json:"locations"`
	PriceRanges   []string     `json:"price_ranges"`
	Plans         []PlanOption `json:"featured_plans"`
}

// CatalogHandler serves static form options.
type CatalogHandler struct {
	catalog Catalog
}

func NewCatalogHandler(weeklyPrice, monthlyPrice int, currency string) *CatalogHandler {
	return &CatalogHandler{catalog: Catalog{
		Roles:         []string{domain.RoleLandlord, domain.RoleRenter},
		PropertyTypes: domain.PropertyTypes,
		Locations:     domain.Locations,
		PriceRanges:   domain.PriceRanges,
		Plans: []PlanOption{
			{Plan: domain.PlanWeekly, Days: 7, Price: weeklyPrice, Currency: currency},
			{Plan: domain.PlanMonthly, Days: 30, Price: monthlyPrice, Currency: currency},
		},
	}}
}

func (h *CatalogHandler) Get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog)
}
