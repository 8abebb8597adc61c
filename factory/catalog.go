/*
Package factory provides JSON to Go catalog conversion.

PURPOSE:
  Converts JSON catalog definitions into a rating.Snapshot. This enables
  catalog configuration without code changes - product administrators can
  define plans, bands, and tariffs in JSON, and the factory builds the
  proper snapshot for the engine.

WHY JSON?
  - Non-developers can author demo/test catalogs
  - Easy integration with the admin UI
  - Version control for catalog definitions
  - Seeding the SQLite back-office store

JSON SCHEMA (abridged):
  {
    "currency": "USD",
    "plans": [{"id": "p1", "code": "GOLD", "launch_date": "2024-01-01"}],
    "value_bands": [{"id": "vb1", "from": "10000", "to": "20000"}],
    "capacity_bands": [{"id": "cb1", "from": 1500, "to": 2000}],
    "tariffs": [{"id": "t1", "kind": "comprehensive", "plan_id": "p1",
                 "rate": "2.5", "minimum_premium": "150", ...}],
    "plan_excesses": [...], "plan_covers": [...], "plan_benefits": [...]
  }

USAGE:
  catalog, err := factory.Parse(jsonBytes)
  snap, err := catalog.ToSnapshot()

SEE ALSO:
  - rating/snapshot.go: The builder this factory feeds
  - store/sqlite: Seeds its tables from a Catalog
  - api/scenarios.go: Demo catalogs shipped as JSON
*/
package factory

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/coverline/rating-engine/rating"
)

const dateLayout = "2006-01-02"

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// Catalog is the JSON representation of a full reference-data set.
type Catalog struct {
	Currency          string            `json:"currency"`
	Plans             []PlanJSON        `json:"plans"`
	ValueBands        []ValueBandJSON   `json:"value_bands"`
	CapacityBands     []CapacityBand    `json:"capacity_bands"`
	VehicleCategories []NamedRow        `json:"vehicle_categories"`
	VehicleTypes      []VehicleTypeJSON `json:"vehicle_types"`
	ExcessTypes       []ExcessTypeJSON  `json:"excess_types"`
	AdditionalCovers  []CoverJSON       `json:"additional_covers"`
	BenefitTypes      []BenefitTypeJSON `json:"benefit_types"`
	Tariffs           []TariffJSON      `json:"tariffs"`
	PlanExcesses      []PlanExcessJSON  `json:"plan_excesses"`
	PlanCovers        []PlanCoverJSON   `json:"plan_covers"`
	PlanBenefits      []PlanBenefitJSON `json:"plan_benefits"`
}

type PlanJSON struct {
	ID           string  `json:"id"`
	ClientID     string  `json:"client_id,omitempty"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Tier         string  `json:"tier,omitempty"`
	LaunchDate   string  `json:"launch_date"`
	WithdrawDate *string `json:"withdraw_date,omitempty"`
	Active       *bool   `json:"active,omitempty"` // default true
}

type ValueBandJSON struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

type CapacityBand struct {
	ID   string `json:"id"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

type NamedRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type VehicleTypeJSON struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
}

type ExcessTypeJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Default bool   `json:"default,omitempty"`
}

type CoverJSON struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active *bool  `json:"active,omitempty"` // default true
}

type BenefitTypeJSON struct {
	ID                string `json:"id"`
	VehicleCategoryID string `json:"vehicle_category_id"`
	Name              string `json:"name"`
}

type TariffJSON struct {
	ID                string  `json:"id"`
	Kind              string  `json:"kind"`
	PlanID            string  `json:"plan_id"`
	VehicleCategoryID string  `json:"vehicle_category_id,omitempty"`
	VehicleTypeID     string  `json:"vehicle_type_id"`
	ValueBandID       string  `json:"value_band_id,omitempty"`
	CapacityBandID    string  `json:"capacity_band_id,omitempty"`
	Rate              string  `json:"rate,omitempty"`
	MinimumPremium    string  `json:"minimum_premium,omitempty"`
	FlatPremium       string  `json:"flat_premium,omitempty"`
	EffectiveFrom     string  `json:"effective_from"`
	EffectiveTo       *string `json:"effective_to,omitempty"`
	Active            *bool   `json:"active,omitempty"` // default true
}

type PlanExcessJSON struct {
	PlanID       string `json:"plan_id"`
	ExcessTypeID string `json:"excess_type_id"`
	ValueBandID  string `json:"value_band_id"`
	Amount       string `json:"amount"`
	Unit         string `json:"unit"` // fixed | percent
}

type PlanCoverJSON struct {
	PlanID         string `json:"plan_id"`
	CoverID        string `json:"cover_id"`
	PremiumFixed   string `json:"premium_fixed,omitempty"`
	PremiumPercent string `json:"premium_percent,omitempty"`
}

type PlanBenefitJSON struct {
	PlanID        string  `json:"plan_id"`
	BenefitTypeID string  `json:"benefit_type_id"`
	Covered       *bool   `json:"covered,omitempty"`
	Limit         *string `json:"limit,omitempty"`
	Excess        *string `json:"excess,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// Parse decodes a JSON catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return &c, nil
}

// ToSnapshot converts the catalog into a sealed snapshot. Validation is
// shared with every other snapshot source: the rating builder rejects
// overlapping bands and duplicate attachments, and index integrity is
// checked when an engine is built.
func (c *Catalog) ToSnapshot() (*rating.Snapshot, error) {
	currency := c.Currency
	if currency == "" {
		currency = "USD"
	}
	b := rating.NewSnapshotBuilder(currency)

	for _, p := range c.Plans {
		launch, err := parseDate(p.LaunchDate, "plan "+p.ID+" launch_date")
		if err != nil {
			return nil, err
		}
		var withdraw *time.Time
		if p.WithdrawDate != nil {
			w, err := parseDate(*p.WithdrawDate, "plan "+p.ID+" withdraw_date")
			if err != nil {
				return nil, err
			}
			withdraw = &w
		}
		b.AddPlan(rating.Plan{
			ID:           rating.PlanID(p.ID),
			ClientID:     rating.ClientID(p.ClientID),
			Code:         p.Code,
			Name:         p.Name,
			Tier:         p.Tier,
			LaunchDate:   launch,
			WithdrawDate: withdraw,
			Active:       defaultTrue(p.Active),
		})
	}

	for _, vb := range c.ValueBands {
		from, err := parseDecimal(vb.From, "value band "+vb.ID+" from")
		if err != nil {
			return nil, err
		}
		to, err := parseDecimal(vb.To, "value band "+vb.ID+" to")
		if err != nil {
			return nil, err
		}
		b.AddValueBand(rating.ValueBand{ID: rating.ValueBandID(vb.ID), From: from, To: to})
	}

	for _, cb := range c.CapacityBands {
		b.AddCapacityBand(rating.EngineCapacityBand{
			ID: rating.CapacityBandID(cb.ID), From: cb.From, To: cb.To,
		})
	}

	for _, vc := range c.VehicleCategories {
		b.AddVehicleCategory(rating.VehicleCategory{
			ID: rating.VehicleCategoryID(vc.ID), Name: vc.Name,
		})
	}

	for _, vt := range c.VehicleTypes {
		b.AddVehicleType(rating.VehicleType{
			ID:         rating.VehicleTypeID(vt.ID),
			CategoryID: rating.VehicleCategoryID(vt.CategoryID),
			Name:       vt.Name,
		})
	}

	for _, et := range c.ExcessTypes {
		b.AddExcessType(rating.ExcessType{
			ID: rating.ExcessTypeID(et.ID), Name: et.Name, Default: et.Default,
		})
	}

	for _, ac := range c.AdditionalCovers {
		b.AddAdditionalCover(rating.AdditionalCover{
			ID: rating.CoverID(ac.ID), Code: ac.Code, Name: ac.Name,
			Active: defaultTrue(ac.Active),
		})
	}

	for _, bt := range c.BenefitTypes {
		b.AddBenefitType(rating.BenefitType{
			ID:                rating.BenefitTypeID(bt.ID),
			VehicleCategoryID: rating.VehicleCategoryID(bt.VehicleCategoryID),
			Name:              bt.Name,
		})
	}

	for _, t := range c.Tariffs {
		row, err := parseTariff(t)
		if err != nil {
			return nil, err
		}
		b.AddTariff(row)
	}

	for _, pe := range c.PlanExcesses {
		amount, err := parseDecimal(pe.Amount, "plan excess amount")
		if err != nil {
			return nil, err
		}
		unit, err := parseExcessUnit(pe.Unit)
		if err != nil {
			return nil, err
		}
		b.AddPlanExcess(rating.PlanExcess{
			PlanID:       rating.PlanID(pe.PlanID),
			ExcessTypeID: rating.ExcessTypeID(pe.ExcessTypeID),
			ValueBandID:  rating.ValueBandID(pe.ValueBandID),
			Amount:       amount,
			Unit:         unit,
		})
	}

	for _, pc := range c.PlanCovers {
		fixed, err := parseOptionalDecimal(pc.PremiumFixed)
		if err != nil {
			return nil, fmt.Errorf("plan cover %s/%s premium_fixed: %w", pc.PlanID, pc.CoverID, err)
		}
		pct, err := parseOptionalDecimal(pc.PremiumPercent)
		if err != nil {
			return nil, fmt.Errorf("plan cover %s/%s premium_percent: %w", pc.PlanID, pc.CoverID, err)
		}
		b.AddPlanCover(rating.PlanAdditionalCover{
			PlanID:         rating.PlanID(pc.PlanID),
			CoverID:        rating.CoverID(pc.CoverID),
			PremiumFixed:   fixed,
			PremiumPercent: pct,
		})
	}

	for _, pb := range c.PlanBenefits {
		row := rating.PlanBenefit{
			PlanID:        rating.PlanID(pb.PlanID),
			BenefitTypeID: rating.BenefitTypeID(pb.BenefitTypeID),
			Covered:       pb.Covered,
		}
		if pb.Limit != nil {
			limit, err := parseDecimal(*pb.Limit, "plan benefit limit")
			if err != nil {
				return nil, err
			}
			row.Limit = &limit
		}
		if pb.Excess != nil {
			excess, err := parseDecimal(*pb.Excess, "plan benefit excess")
			if err != nil {
				return nil, err
			}
			row.Excess = &excess
		}
		b.AddPlanBenefit(row)
	}

	return b.Build()
}

func parseTariff(t TariffJSON) (rating.Tariff, error) {
	kind := rating.CoverageKind(t.Kind)
	if !kind.Valid() {
		return rating.Tariff{}, fmt.Errorf("tariff %s: unknown kind %q", t.ID, t.Kind)
	}

	from, err := parseDate(t.EffectiveFrom, "tariff "+t.ID+" effective_from")
	if err != nil {
		return rating.Tariff{}, err
	}
	var to *time.Time
	if t.EffectiveTo != nil {
		parsed, err := parseDate(*t.EffectiveTo, "tariff "+t.ID+" effective_to")
		if err != nil {
			return rating.Tariff{}, err
		}
		to = &parsed
	}

	row := rating.Tariff{
		ID:                rating.TariffID(t.ID),
		Kind:              kind,
		Plan:              rating.PlanID(t.PlanID),
		VehicleCategoryID: rating.VehicleCategoryID(t.VehicleCategoryID),
		VehicleTypeID:     rating.VehicleTypeID(t.VehicleTypeID),
		ValueBandID:       rating.ValueBandID(t.ValueBandID),
		CapacityBandID:    rating.CapacityBandID(t.CapacityBandID),
		EffectiveFrom:     from,
		EffectiveTo:       to,
		Active:            defaultTrue(t.Active),
	}

	switch kind {
	case rating.KindThirdParty:
		row.FlatPremium, err = parseDecimal(t.FlatPremium, "tariff "+t.ID+" flat_premium")
		if err != nil {
			return rating.Tariff{}, err
		}
	default:
		row.Rate, err = parseDecimal(t.Rate, "tariff "+t.ID+" rate")
		if err != nil {
			return rating.Tariff{}, err
		}
		row.MinimumPremium, err = parseOptionalDecimal(t.MinimumPremium)
		if err != nil {
			return rating.Tariff{}, fmt.Errorf("tariff %s minimum_premium: %w", t.ID, err)
		}
	}
	return row, nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseDate(s, what string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return t, nil
}

func parseDecimal(s, what string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return d, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseExcessUnit(s string) (rating.ExcessUnit, error) {
	switch s {
	case "fixed", "":
		return rating.ExcessFixed, nil
	case "percent":
		return rating.ExcessPercent, nil
	default:
		return "", fmt.Errorf("unknown excess unit %q", s)
	}
}

func defaultTrue(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}
