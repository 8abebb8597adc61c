package rating

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BAND RESOLUTION - Map raw vehicle attributes onto catalog bands
// =============================================================================

// ResolveValueBand maps an insured value onto its [From, To) band.
// Bands are sorted and non-overlapping (enforced at snapshot build), so at
// most one band can match. A value in a gap or outside all bands returns
// a NoBandError - never a silent default.
func (s *Snapshot) ResolveValueBand(value decimal.Decimal) (*ValueBand, error) {
	for i := range s.ValueBands {
		if s.ValueBands[i].Contains(value) {
			return &s.ValueBands[i], nil
		}
	}
	return nil, &NoBandError{Kind: "value", Input: value.String()}
}

// ResolveCapacityBand maps an engine capacity (cc) onto its band.
func (s *Snapshot) ResolveCapacityBand(cc int) (*EngineCapacityBand, error) {
	for i := range s.CapacityBands {
		if s.CapacityBands[i].Contains(cc) {
			return &s.CapacityBands[i], nil
		}
	}
	return nil, &NoBandError{Kind: "capacity", Input: strconv.Itoa(cc)}
}
