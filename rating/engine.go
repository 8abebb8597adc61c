/*
engine.go - The rating pipeline

PURPOSE:
  Transforms a QuoteRequest into an itemized breakdown or a typed rating
  error. Per-request state machine (not persisted):

    Validated -> DimensionResolved -> TariffMatched -> Priced -> Assembled

  Any stage can terminate the request with a typed error; there is no
  partial pricing and nothing is retried - pricing is deterministic and
  idempotent for a fixed snapshot and request.

PRICING RULES:
  Comprehensive/Commercial: premium = max(value * rate / 100, minimum)
  ThirdParty:               premium = flat amount (no value dependency)
  Covers:                   surcharge = fixed + pct * base / 100, additive
  Excess (Comprehensive):   fixed amount or pct of insured value; disclosed
                            on the breakdown, never summed into the total
  Benefits:                 disclosure only, never priced

CONCURRENCY:
  Engine is immutable after construction. Any number of Quote calls may run
  concurrently against the same engine with no locking.

SEE ALSO:
  - index.go: Tariff selection
  - assemble.go: Breakdown assembly and rounding
  - service.go: Snapshot refresh wrapper around the engine
*/
package rating

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REQUEST
// =============================================================================

// QuoteRequest carries everything needed to price one vehicle on one plan.
type QuoteRequest struct {
	PlanID PlanID
	Kind   CoverageKind

	// AsOf is the quote date. Zero value means "now". Must fall inside the
	// plan's availability window.
	AsOf time.Time

	VehicleCategoryID VehicleCategoryID // required for Comprehensive/Commercial
	VehicleTypeID     VehicleTypeID     // always required

	InsuredValue   *decimal.Decimal // required for Comprehensive/Commercial
	EngineCapacity *int             // required for ThirdParty

	ExcessTypeID *ExcessTypeID // optional; catalog default applies when nil
	CoverIDs     []CoverID     // optional set of additional covers
}

// =============================================================================
// PIPELINE STAGES
// =============================================================================

type Stage string

const (
	StageValidated         Stage = "validated"
	StageDimensionResolved Stage = "dimension_resolved"
	StageTariffMatched     Stage = "tariff_matched"
	StagePriced            Stage = "priced"
	StageAssembled         Stage = "assembled"
)

// =============================================================================
// RATING RESULT - Priced line inputs, pre-assembly
// =============================================================================

// ExcessQuote is the resolved deductible for a comprehensive quote.
type ExcessQuote struct {
	Type   ExcessType
	BandID ValueBandID
	Unit   ExcessUnit
	Amount decimal.Decimal // computed currency amount
}

// CoverQuote is one priced additional cover.
type CoverQuote struct {
	Cover     AdditionalCover
	Surcharge decimal.Decimal
}

// BenefitDisclosure is one informational benefit row.
type BenefitDisclosure struct {
	Type    BenefitType
	Covered *bool
	Limit   *decimal.Decimal
	Excess  *decimal.Decimal
}

// RatingResult holds the engine's priced outputs before assembly.
type RatingResult struct {
	Stage Stage

	Plan   *Plan
	Tariff *Tariff
	AsOf   time.Time
	Kind   CoverageKind

	BasePremium decimal.Decimal
	Excess      *ExcessQuote
	Covers      []CoverQuote
	Benefits    []BenefitDisclosure
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine prices quotes against one immutable snapshot. Construct a new
// engine per snapshot; see Service for atomic refresh.
type Engine struct {
	snap  *Snapshot
	index *TariffIndex

	// Now is the clock used when a request leaves AsOf zero.
	// Overridable for tests.
	Now func() time.Time
}

// NewEngine builds the tariff index for the snapshot. Fails with an index
// integrity error before any quote is served if the catalog is inconsistent.
func NewEngine(snap *Snapshot) (*Engine, error) {
	ix, err := BuildIndex(snap.Tariffs)
	if err != nil {
		return nil, err
	}
	return &Engine{snap: snap, index: ix, Now: time.Now}, nil
}

// Snapshot returns the snapshot this engine prices against.
func (e *Engine) Snapshot() *Snapshot { return e.snap }

// Index returns the engine's tariff index.
func (e *Engine) Index() *TariffIndex { return e.index }

// Quote runs the full pipeline and assembles the breakdown.
func (e *Engine) Quote(req QuoteRequest) (*QuotePriceBreakdown, error) {
	res, err := e.Rate(req)
	if err != nil {
		return nil, err
	}
	return Assemble(res, e.snap), nil
}

// Rate runs the pipeline up to the Priced stage. Exposed separately so
// callers that apply their own assembly policy can consume raw results.
func (e *Engine) Rate(req QuoteRequest) (*RatingResult, error) {
	res := &RatingResult{Kind: req.Kind}

	// --- Validated ---
	if err := e.validate(&req, res); err != nil {
		return nil, err
	}
	res.Stage = StageValidated

	// --- DimensionResolved ---
	dim, valueBand, err := e.resolveDimensions(&req)
	if err != nil {
		return nil, err
	}
	res.Stage = StageDimensionResolved

	// --- TariffMatched ---
	tariff, err := e.index.Lookup(req.Kind, req.PlanID, dim, res.AsOf)
	if err != nil {
		return nil, err
	}
	res.Tariff = tariff
	res.Stage = StageTariffMatched

	// --- Priced ---
	res.BasePremium = basePremium(tariff, req.InsuredValue)

	if req.Kind == KindComprehensive {
		excess, err := e.resolveExcess(&req, valueBand)
		if err != nil {
			return nil, err
		}
		res.Excess = excess
	}

	covers, err := e.resolveCovers(&req, res.BasePremium)
	if err != nil {
		return nil, err
	}
	res.Covers = covers

	res.Benefits = e.resolveBenefits(&req)
	res.Stage = StagePriced

	return res, nil
}

// =============================================================================
// PIPELINE STEPS
// =============================================================================

func (e *Engine) validate(req *QuoteRequest, res *RatingResult) error {
	if !req.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "unsupported coverage kind"}
	}
	if req.PlanID == "" {
		return &ValidationError{Field: "plan_id", Reason: "required"}
	}
	if req.VehicleTypeID == "" {
		return &ValidationError{Field: "vehicle_type_id", Reason: "required"}
	}
	if req.Kind.NeedsInsuredValue() {
		if req.VehicleCategoryID == "" {
			return &ValidationError{Field: "vehicle_category_id", Reason: "required for " + string(req.Kind)}
		}
		if req.InsuredValue == nil {
			return &ValidationError{Field: "insured_value", Reason: "required for " + string(req.Kind)}
		}
		if req.InsuredValue.IsNegative() {
			return &ValidationError{Field: "insured_value", Reason: "must not be negative"}
		}
	}
	if req.Kind.NeedsEngineCapacity() {
		if req.EngineCapacity == nil {
			return &ValidationError{Field: "engine_capacity", Reason: "required for " + string(req.Kind)}
		}
		if *req.EngineCapacity <= 0 {
			return &ValidationError{Field: "engine_capacity", Reason: "must be positive"}
		}
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = e.Now()
	}
	res.AsOf = asOf

	plan := e.snap.PlanByID(req.PlanID)
	if plan == nil {
		return ErrPlanNotFound
	}
	if !plan.AvailableAt(asOf) {
		withdrawn := plan.WithdrawDate != nil && !asOf.Before(*plan.WithdrawDate)
		return &PlanWindowError{
			PlanID:    plan.ID,
			AsOf:      asOf,
			Launch:    plan.LaunchDate,
			Withdraw:  plan.WithdrawDate,
			Withdrawn: withdrawn,
		}
	}
	res.Plan = plan
	return nil
}

// resolveDimensions maps raw vehicle attributes onto the dimension key the
// tariff index expects for the request's coverage kind.
func (e *Engine) resolveDimensions(req *QuoteRequest) (DimensionKey, *ValueBand, error) {
	switch req.Kind {
	case KindComprehensive:
		band, err := e.snap.ResolveValueBand(*req.InsuredValue)
		if err != nil {
			return DimensionKey{}, nil, err
		}
		return DimensionKey{
			VehicleCategoryID: req.VehicleCategoryID,
			VehicleTypeID:     req.VehicleTypeID,
			ValueBandID:       band.ID,
		}, band, nil

	case KindCommercial:
		// Commercial tariffs are dimensioned by category+type only; the
		// insured value feeds the rate formula, not the lookup key.
		return DimensionKey{
			VehicleCategoryID: req.VehicleCategoryID,
			VehicleTypeID:     req.VehicleTypeID,
		}, nil, nil

	case KindThirdParty:
		band, err := e.snap.ResolveCapacityBand(*req.EngineCapacity)
		if err != nil {
			return DimensionKey{}, nil, err
		}
		return DimensionKey{
			VehicleTypeID:  req.VehicleTypeID,
			CapacityBandID: band.ID,
		}, nil, nil
	}
	return DimensionKey{}, nil, &ValidationError{Field: "kind", Reason: "unsupported coverage kind"}
}

// basePremium applies the rate formula for the matched tariff.
func basePremium(t *Tariff, insuredValue *decimal.Decimal) decimal.Decimal {
	switch t.Kind {
	case KindThirdParty:
		return t.FlatPremium
	default:
		premium := insuredValue.Mul(t.Rate).Div(decimal.NewFromInt(100))
		if premium.LessThan(t.MinimumPremium) {
			return t.MinimumPremium
		}
		return premium
	}
}

// resolveExcess sizes the deductible for a comprehensive quote. The excess
// type is the requested one, else the catalog default.
func (e *Engine) resolveExcess(req *QuoteRequest, band *ValueBand) (*ExcessQuote, error) {
	var et *ExcessType
	if req.ExcessTypeID != nil {
		et = e.snap.ExcessTypeByID(*req.ExcessTypeID)
		if et == nil {
			return nil, &ValidationError{Field: "excess_type_id", Reason: "unknown excess type"}
		}
	} else {
		et = e.snap.DefaultExcessType()
		if et == nil {
			return nil, &NoExcessRuleError{PlanID: req.PlanID, ValueBandID: band.ID}
		}
	}

	rule := e.snap.PlanExcessFor(req.PlanID, et.ID, band.ID)
	if rule == nil {
		return nil, &NoExcessRuleError{PlanID: req.PlanID, ExcessTypeID: et.ID, ValueBandID: band.ID}
	}

	amount := rule.Amount
	if rule.Unit == ExcessPercent {
		amount = req.InsuredValue.Mul(rule.Amount).Div(decimal.NewFromInt(100))
	}

	return &ExcessQuote{Type: *et, BandID: band.ID, Unit: rule.Unit, Amount: amount}, nil
}

// resolveCovers prices each requested additional cover. Requested ids form
// a set: duplicates collapse, order never matters. An unknown, inactive, or
// unattached cover rejects the whole request.
func (e *Engine) resolveCovers(req *QuoteRequest, base decimal.Decimal) ([]CoverQuote, error) {
	if len(req.CoverIDs) == 0 {
		return nil, nil
	}

	seen := make(map[CoverID]bool, len(req.CoverIDs))
	var quotes []CoverQuote
	for _, id := range req.CoverIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		cover := e.snap.CoverByID(id)
		if cover == nil {
			return nil, &UnknownCoverError{PlanID: req.PlanID, CoverID: id, Reason: "not in catalog"}
		}
		if !cover.Active {
			return nil, &UnknownCoverError{PlanID: req.PlanID, CoverID: id, Reason: "inactive"}
		}
		attach := e.snap.PlanCoverFor(req.PlanID, id)
		if attach == nil {
			return nil, &UnknownCoverError{PlanID: req.PlanID, CoverID: id, Reason: "not attached to plan"}
		}

		surcharge := attach.PremiumFixed.Add(
			attach.PremiumPercent.Mul(base).Div(decimal.NewFromInt(100)))
		quotes = append(quotes, CoverQuote{Cover: *cover, Surcharge: surcharge})
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Cover.Code < quotes[j].Cover.Code })
	return quotes, nil
}

// resolveBenefits collects disclosure rows for the request's vehicle
// category. Third-party requests without a category disclose nothing.
func (e *Engine) resolveBenefits(req *QuoteRequest) []BenefitDisclosure {
	if req.VehicleCategoryID == "" {
		return nil
	}
	rows := e.snap.BenefitsFor(req.PlanID, req.VehicleCategoryID)
	if len(rows) == 0 {
		return nil
	}
	out := make([]BenefitDisclosure, 0, len(rows))
	for _, pb := range rows {
		bt := e.snap.BenefitTypeByID(pb.BenefitTypeID)
		if bt == nil {
			continue
		}
		out = append(out, BenefitDisclosure{
			Type:    *bt,
			Covered: pb.Covered,
			Limit:   pb.Limit,
			Excess:  pb.Excess,
		})
	}
	return out
}
