/*
assemble.go - Quote assembler

PURPOSE:
  Composes the rating engine's outputs (base premium, excess disclosure,
  additional-cover surcharges, benefit disclosures) into a single ordered,
  itemized breakdown with a grand total.

ROUNDING CONTRACT:
  Two-decimal monetary amounts, banker's rounding applied to each line item
  before summation, so totals are reproducible from the printed lines.

EXCESS POLICY:
  The excess line is disclosed with Informational=true and excluded from
  the total. Typical insurance practice treats excess as a claims-time
  deductible, not a premium component. Keeping it a separate labeled line
  lets a caller that does charge excess add it without redesign.

  Assemble never fails: inconsistent inputs (negative premiums, missing
  tariffs) are rejected upstream by the engine.
*/
package rating

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BREAKDOWN TYPES
// =============================================================================

// LineKind tags a breakdown line.
type LineKind string

const (
	LineBase            LineKind = "base"
	LineExcess          LineKind = "excess"
	LineAdditionalCover LineKind = "additional_cover"
	LineBenefit         LineKind = "benefit"
)

// LineItem is one row of the itemized result. Informational lines (excess,
// benefits) are disclosed but not summed into the total.
type LineItem struct {
	Label         string
	Kind          LineKind
	Amount        Money
	Informational bool
}

// QuotePriceBreakdown is the priced quote returned to callers.
type QuotePriceBreakdown struct {
	PlanID          PlanID
	PlanCode        string
	Kind            CoverageKind
	AsOf            time.Time
	Currency        string
	SnapshotVersion string
	TariffID        TariffID

	Lines []LineItem
	Total Money
}

// =============================================================================
// ASSEMBLY
// =============================================================================

// Assemble composes a rating result into an ordered breakdown. Line order is
// fixed: base, excess, covers (sorted by code upstream), then benefits.
func Assemble(res *RatingResult, snap *Snapshot) *QuotePriceBreakdown {
	cur := snap.Currency

	b := &QuotePriceBreakdown{
		PlanID:          res.Plan.ID,
		PlanCode:        res.Plan.Code,
		Kind:            res.Kind,
		AsOf:            res.AsOf,
		Currency:        cur,
		SnapshotVersion: snap.Version,
		TariffID:        res.Tariff.ID,
	}

	total := NewMoney(decimal.Zero, cur)

	base := NewMoney(res.BasePremium, cur).Rounded()
	b.Lines = append(b.Lines, LineItem{
		Label:  "Base premium",
		Kind:   LineBase,
		Amount: base,
	})
	total = total.Add(base)

	if res.Excess != nil {
		b.Lines = append(b.Lines, LineItem{
			Label:         "Excess (" + res.Excess.Type.Name + ")",
			Kind:          LineExcess,
			Amount:        NewMoney(res.Excess.Amount, cur).Rounded(),
			Informational: true,
		})
	}

	for _, cq := range res.Covers {
		amount := NewMoney(cq.Surcharge, cur).Rounded()
		b.Lines = append(b.Lines, LineItem{
			Label:  "Cover: " + cq.Cover.Name,
			Kind:   LineAdditionalCover,
			Amount: amount,
		})
		total = total.Add(amount)
	}

	for _, bd := range res.Benefits {
		line := LineItem{
			Label:         "Benefit: " + bd.Type.Name,
			Kind:          LineBenefit,
			Informational: true,
			Amount:        NewMoney(decimal.Zero, cur),
		}
		if bd.Limit != nil {
			line.Amount = NewMoney(*bd.Limit, cur).Rounded()
		}
		b.Lines = append(b.Lines, line)
	}

	b.Total = total.Rounded()
	res.Stage = StageAssembled
	return b
}
