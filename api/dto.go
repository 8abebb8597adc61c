/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the rating domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

  Monetary amounts cross the wire as decimal strings ("312.50"), never as
  floats. Dates are YYYY-MM-DD.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - rating/assemble.go: QuotePriceBreakdown, the source of QuoteDTO
*/
package api

import (
	"time"

	"github.com/coverline/rating-engine/rating"
)

const dateLayout = "2006-01-02"

// =============================================================================
// QUOTE TYPES
// =============================================================================

// QuoteRequest is the request to price one vehicle on one plan.
type QuoteRequest struct {
	PlanID string `json:"plan_id"`
	Kind   string `json:"kind"` // comprehensive | third_party | commercial

	// AsOf is the quote date (YYYY-MM-DD). Empty means today.
	AsOf string `json:"as_of,omitempty"`

	VehicleCategoryID string `json:"vehicle_category_id,omitempty"`
	VehicleTypeID     string `json:"vehicle_type_id"`

	InsuredValue   *string `json:"insured_value,omitempty"`   // decimal string
	EngineCapacity *int    `json:"engine_capacity,omitempty"` // cc

	ExcessTypeID *string  `json:"excess_type_id,omitempty"`
	CoverIDs     []string `json:"cover_ids,omitempty"`
}

// LineItemDTO is one row of the itemized breakdown.
type LineItemDTO struct {
	Label         string `json:"label"`
	Kind          string `json:"kind"` // base | excess | additional_cover | benefit
	Amount        string `json:"amount"`
	Informational bool   `json:"informational,omitempty"`
}

// QuoteDTO is the priced breakdown returned to clients.
type QuoteDTO struct {
	PlanID          string        `json:"plan_id"`
	PlanCode        string        `json:"plan_code"`
	Kind            string        `json:"kind"`
	AsOf            string        `json:"as_of"`
	Currency        string        `json:"currency"`
	SnapshotVersion string        `json:"snapshot_version"`
	TariffID        string        `json:"tariff_id"`
	Lines           []LineItemDTO `json:"lines"`
	Total           string        `json:"total"`
}

func toQuoteDTO(b *rating.QuotePriceBreakdown) QuoteDTO {
	lines := make([]LineItemDTO, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = LineItemDTO{
			Label:         l.Label,
			Kind:          string(l.Kind),
			Amount:        l.Amount.Value.StringFixed(rating.MoneyPrecision),
			Informational: l.Informational,
		}
	}
	return QuoteDTO{
		PlanID:          string(b.PlanID),
		PlanCode:        b.PlanCode,
		Kind:            string(b.Kind),
		AsOf:            b.AsOf.Format(dateLayout),
		Currency:        b.Currency,
		SnapshotVersion: b.SnapshotVersion,
		TariffID:        string(b.TariffID),
		Lines:           lines,
		Total:           b.Total.Value.StringFixed(rating.MoneyPrecision),
	}
}

// =============================================================================
// REFERENCE TYPES
// =============================================================================

// PlanDTO represents a plan in API responses.
type PlanDTO struct {
	ID           string  `json:"id"`
	ClientID     string  `json:"client_id,omitempty"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Tier         string  `json:"tier,omitempty"`
	LaunchDate   string  `json:"launch_date"`
	WithdrawDate *string `json:"withdraw_date,omitempty"`
	Active       bool    `json:"active"`
	Available    bool    `json:"available"` // at request time
}

func toPlanDTO(p rating.Plan, now time.Time) PlanDTO {
	dto := PlanDTO{
		ID:         string(p.ID),
		ClientID:   string(p.ClientID),
		Code:       p.Code,
		Name:       p.Name,
		Tier:       p.Tier,
		LaunchDate: p.LaunchDate.Format(dateLayout),
		Active:     p.Active,
		Available:  p.AvailableAt(now),
	}
	if p.WithdrawDate != nil {
		s := p.WithdrawDate.Format(dateLayout)
		dto.WithdrawDate = &s
	}
	return dto
}

// ValueBandDTO represents a value band.
type ValueBandDTO struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// CapacityBandDTO represents an engine capacity band.
type CapacityBandDTO struct {
	ID   string `json:"id"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// VehicleCategoryDTO represents a vehicle category.
type VehicleCategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VehicleTypeDTO represents a vehicle type.
type VehicleTypeDTO struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
}

// ExcessTypeDTO represents an excess type.
type ExcessTypeDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// CoverDTO represents an additional cover.
type CoverDTO struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// SnapshotDTO describes the resident reference-data snapshot.
type SnapshotDTO struct {
	Version  string `json:"version"`
	TakenAt  string `json:"taken_at"`
	Currency string `json:"currency"`
	Plans    int    `json:"plans"`
	Tariffs  int    `json:"tariffs"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable class
	Details string `json:"details,omitempty"`
}
