/*
Package rating provides the core motor-insurance premium rating engine.

PURPOSE:
  This package contains the domain types and algorithms for pricing a motor
  insurance quote: reference data (plans, bands, vehicle classifications),
  the three tariff kinds (Comprehensive, Third-Party, Commercial), the
  tariff index, the rating engine, and the quote assembler.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary amount with a currency, backed by decimal.Decimal
  - CoverageKind: Tagged variant selecting tariff table and dimensions
  - Plan: An insurance product with a launch/withdraw lifecycle
  - Tariff: A single rate row with a validity window
  - Bands: Half-open [From, To) ranges over value / engine capacity

DESIGN PRINCIPLES:
  1. Immutability: Snapshots are sealed after build, never mutated
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Type Safety: Strong typing for IDs prevents mixing plan/band/type IDs
  4. Determinism: Same snapshot + same request always prices identically

USAGE:
  snap, _ := builder.Build()
  engine, _ := rating.NewEngine(snap)
  breakdown, err := engine.Quote(rating.QuoteRequest{...})

SEE ALSO:
  - snapshot.go: Immutable reference-data snapshot and builder
  - index.go: Tariff index (build + lookup)
  - engine.go: Quote pipeline
  - assemble.go: Itemized breakdown assembly
*/
package rating

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Monetary amount with currency
// =============================================================================

// MoneyPrecision is the number of decimal places in every customer-facing
// amount. Line items are rounded (banker's rounding) before summation so
// totals are reproducible.
const MoneyPrecision = 2

type Money struct {
	Value    decimal.Decimal
	Currency string
}

func NewMoney(value decimal.Decimal, currency string) Money {
	return Money{Value: value, Currency: currency}
}

func MoneyFromFloat(value float64, currency string) Money {
	return Money{Value: decimal.NewFromFloat(value), Currency: currency}
}

// MustParseDecimal parses a decimal string, returning zero on failure.
// Intended for trusted fixture/config values, not user input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (m Money) Add(o Money) Money      { return Money{Value: m.Value.Add(o.Value), Currency: m.Currency} }
func (m Money) Sub(o Money) Money      { return Money{Value: m.Value.Sub(o.Value), Currency: m.Currency} }
func (m Money) Neg() Money             { return Money{Value: m.Value.Neg(), Currency: m.Currency} }
func (m Money) IsZero() bool           { return m.Value.IsZero() }
func (m Money) IsNegative() bool       { return m.Value.IsNegative() }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool    { return m.Value.LessThan(o.Value) }

// Rounded returns the amount rounded to MoneyPrecision using banker's
// rounding. Every line item passes through here exactly once.
func (m Money) Rounded() Money {
	return Money{Value: m.Value.RoundBank(MoneyPrecision), Currency: m.Currency}
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	PlanID            string
	ClientID          string
	VehicleCategoryID string
	VehicleTypeID     string
	ValueBandID       string
	CapacityBandID    string
	ExcessTypeID      string
	CoverID           string
	BenefitTypeID     string
	TariffID          string
)

// =============================================================================
// COVERAGE KIND - Tagged variant for the three tariff tables
// =============================================================================

// CoverageKind selects which tariff table and dimension set applies.
// Modeled as an enumerated tag rather than a type hierarchy so the tariff
// index can dispatch on kind without virtual dispatch.
type CoverageKind string

const (
	KindComprehensive CoverageKind = "comprehensive"
	KindThirdParty    CoverageKind = "third_party"
	KindCommercial    CoverageKind = "commercial"
)

// Valid reports whether k is one of the three supported kinds.
func (k CoverageKind) Valid() bool {
	switch k {
	case KindComprehensive, KindThirdParty, KindCommercial:
		return true
	}
	return false
}

// NeedsInsuredValue reports whether this kind prices off the insured value.
func (k CoverageKind) NeedsInsuredValue() bool {
	return k == KindComprehensive || k == KindCommercial
}

// NeedsEngineCapacity reports whether this kind prices off engine capacity.
func (k CoverageKind) NeedsEngineCapacity() bool {
	return k == KindThirdParty
}

// =============================================================================
// PLAN - Insurance product with lifecycle
// =============================================================================

// Plan is an insurance product owned by an insurance client. A plan is
// withdrawn once WithdrawDate is set; withdrawn plans must not be selected
// for quotes dated on or after that date.
type Plan struct {
	ID           PlanID
	ClientID     ClientID
	Code         string
	Name         string
	Tier         string
	LaunchDate   time.Time
	WithdrawDate *time.Time
	Active       bool
}

// AvailableAt reports whether the plan can be quoted at t.
// The availability window is [LaunchDate, WithdrawDate).
func (p *Plan) AvailableAt(t time.Time) bool {
	if !p.Active {
		return false
	}
	if t.Before(p.LaunchDate) {
		return false
	}
	if p.WithdrawDate != nil && !t.Before(*p.WithdrawDate) {
		return false
	}
	return true
}

// =============================================================================
// BANDS - Half-open ranges over insured value / engine capacity
// =============================================================================

// ValueBand is a [From, To) range over insured vehicle value. Bands in an
// active set must not overlap; gaps surface as ErrNoValueBand at quote time.
type ValueBand struct {
	ID   ValueBandID
	From decimal.Decimal
	To   decimal.Decimal
}

// Contains reports whether From <= v < To.
func (b *ValueBand) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(b.From) && v.LessThan(b.To)
}

// EngineCapacityBand is a [From, To) range over engine capacity in cc.
type EngineCapacityBand struct {
	ID   CapacityBandID
	From int
	To   int
}

func (b *EngineCapacityBand) Contains(cc int) bool {
	return cc >= b.From && cc < b.To
}

// =============================================================================
// VEHICLE CLASSIFICATION
// =============================================================================

type VehicleCategory struct {
	ID   VehicleCategoryID
	Name string
}

// VehicleType classifies the insured vehicle. CategoryID links the type to
// its owning category for catalog validation; tariff rows scope category and
// type independently.
type VehicleType struct {
	ID         VehicleTypeID
	CategoryID VehicleCategoryID
	Name       string
}

// =============================================================================
// EXCESS - Deductible configuration
// =============================================================================

// ExcessType is a named deductible category ("standard", "young-driver").
// Exactly one type per catalog should be marked Default; it applies when a
// quote does not request a specific type.
type ExcessType struct {
	ID      ExcessTypeID
	Name    string
	Default bool
}

// ExcessUnit determines how a PlanExcess amount is interpreted.
type ExcessUnit string

const (
	ExcessFixed   ExcessUnit = "fixed"   // Amount is a currency value
	ExcessPercent ExcessUnit = "percent" // Amount is a percentage of insured value
)

// PlanExcess sizes the deductible for one (plan, excess type, value band).
type PlanExcess struct {
	PlanID       PlanID
	ExcessTypeID ExcessTypeID
	ValueBandID  ValueBandID
	Amount       decimal.Decimal
	Unit         ExcessUnit
}

// =============================================================================
// ADDITIONAL COVERS AND BENEFITS
// =============================================================================

// AdditionalCover is a catalog entry for an optional cover.
type AdditionalCover struct {
	ID     CoverID
	Code   string
	Name   string
	Active bool
}

// PlanAdditionalCover attaches a cover to a plan. Fixed and percentage
// premiums are additive: surcharge = fixed + pct * base / 100.
type PlanAdditionalCover struct {
	PlanID         PlanID
	CoverID        CoverID
	PremiumFixed   decimal.Decimal
	PremiumPercent decimal.Decimal
}

// BenefitType is scoped to a vehicle category.
type BenefitType struct {
	ID                BenefitTypeID
	VehicleCategoryID VehicleCategoryID
	Name              string
}

// PlanBenefit attaches disclosure-only benefit terms to a (plan, benefit
// type) pair. Nil fields mean "not specified for this plan". Benefits never
// change the premium.
type PlanBenefit struct {
	PlanID        PlanID
	BenefitTypeID BenefitTypeID
	Covered       *bool
	Limit         *decimal.Decimal
	Excess        *decimal.Decimal
}

// =============================================================================
// TARIFF - Rate row with validity window, tagged by CoverageKind
// =============================================================================

// Tariff is a single rate row. The dimension fields that apply depend on
// Kind:
//
//	Comprehensive: VehicleCategoryID, VehicleTypeID, ValueBandID,
//	               Rate (%), MinimumPremium
//	Commercial:    VehicleCategoryID, VehicleTypeID,
//	               Rate (%), MinimumPremium
//	ThirdParty:    VehicleTypeID, CapacityBandID, FlatPremium
//
// For a given plan + dimension combination at most one active row's validity
// window may contain any instant; overlaps are a data-integrity violation
// detected at index build time.
type Tariff struct {
	ID   TariffID
	Kind CoverageKind
	Plan PlanID

	VehicleCategoryID VehicleCategoryID
	VehicleTypeID     VehicleTypeID
	ValueBandID       ValueBandID
	CapacityBandID    CapacityBandID

	Rate           decimal.Decimal // Percentage, Comprehensive/Commercial
	MinimumPremium decimal.Decimal // Floor, Comprehensive/Commercial
	FlatPremium    decimal.Decimal // ThirdParty

	EffectiveFrom time.Time
	EffectiveTo   *time.Time // nil = open-ended
	Active        bool
}

// InWindow reports whether t falls inside [EffectiveFrom, EffectiveTo).
func (tr *Tariff) InWindow(t time.Time) bool {
	if t.Before(tr.EffectiveFrom) {
		return false
	}
	if tr.EffectiveTo != nil && !t.Before(*tr.EffectiveTo) {
		return false
	}
	return true
}

// OverlapsWindow reports whether the validity windows of tr and other
// intersect. Open-ended windows extend to infinity.
func (tr *Tariff) OverlapsWindow(other *Tariff) bool {
	if other.EffectiveTo != nil && !tr.EffectiveFrom.Before(*other.EffectiveTo) {
		return false
	}
	if tr.EffectiveTo != nil && !other.EffectiveFrom.Before(*tr.EffectiveTo) {
		return false
	}
	return true
}

// DimensionKey identifies the tariff dimensions for one coverage kind.
// Unused dimensions stay zero so the struct remains comparable across kinds.
type DimensionKey struct {
	VehicleCategoryID VehicleCategoryID
	VehicleTypeID     VehicleTypeID
	ValueBandID       ValueBandID
	CapacityBandID    CapacityBandID
}

// DimensionKey returns the lookup key for this row per its kind.
func (tr *Tariff) DimensionKey() DimensionKey {
	switch tr.Kind {
	case KindComprehensive:
		return DimensionKey{
			VehicleCategoryID: tr.VehicleCategoryID,
			VehicleTypeID:     tr.VehicleTypeID,
			ValueBandID:       tr.ValueBandID,
		}
	case KindCommercial:
		return DimensionKey{
			VehicleCategoryID: tr.VehicleCategoryID,
			VehicleTypeID:     tr.VehicleTypeID,
		}
	case KindThirdParty:
		return DimensionKey{
			VehicleTypeID:  tr.VehicleTypeID,
			CapacityBandID: tr.CapacityBandID,
		}
	}
	return DimensionKey{}
}
