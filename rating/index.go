/*
index.go - Tariff index: build and lookup

PURPOSE:
  Maps (CoverageKind, PlanID, DimensionKey) to the candidate tariff rows for
  that combination, ordered by EffectiveFrom descending. Lookup then selects
  the single active row whose validity window contains the quote date.

INTEGRITY:
  Two active rows for the same key with overlapping [EffectiveFrom,
  EffectiveTo) windows are a data-integrity violation. BuildIndex detects
  this up front and refuses to build, so a misconfigured catalog can never
  serve a single quote. The engine never "resolves" an overlap by picking
  a row.

SIDE EFFECTS:
  None. The index is purely functional over its snapshot; refreshing data
  means building a new index over a new snapshot (see service.go).

SEE ALSO:
  - types.go: Tariff, DimensionKey, window predicates
  - engine.go: Sole consumer of Lookup
*/
package rating

import (
	"sort"
	"time"
)

type indexKey struct {
	Kind CoverageKind
	Plan PlanID
	Dim  DimensionKey
}

// TariffIndex is an immutable lookup structure over one snapshot's tariffs.
type TariffIndex struct {
	entries map[indexKey][]*Tariff
	total   int
}

// BuildIndex groups active tariff rows by (kind, plan, dimension key) and
// validates that no two rows for a key have overlapping validity windows.
// Inactive rows are excluded entirely; they can never match a lookup and
// must not trigger overlap failures.
func BuildIndex(tariffs []Tariff) (*TariffIndex, error) {
	ix := &TariffIndex{entries: make(map[indexKey][]*Tariff)}

	for i := range tariffs {
		t := &tariffs[i]
		if !t.Active {
			continue
		}
		k := indexKey{Kind: t.Kind, Plan: t.Plan, Dim: t.DimensionKey()}
		ix.entries[k] = append(ix.entries[k], t)
		ix.total++
	}

	for k, rows := range ix.entries {
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].EffectiveFrom.After(rows[j].EffectiveFrom)
		})
		// Sorted descending by EffectiveFrom: each row may only overlap its
		// immediate successor, so one adjacent pass finds any violation.
		for i := 1; i < len(rows); i++ {
			if rows[i].OverlapsWindow(rows[i-1]) {
				return nil, &TariffOverlapError{
					Kind:     k.Kind,
					PlanID:   k.Plan,
					Key:      k.Dim,
					FirstID:  rows[i].ID,
					SecondID: rows[i-1].ID,
				}
			}
		}
	}

	return ix, nil
}

// Lookup returns the single active tariff row whose validity window contains
// asOf, or a NoTariffError. It never guesses a "closest" row.
func (ix *TariffIndex) Lookup(kind CoverageKind, plan PlanID, dim DimensionKey, asOf time.Time) (*Tariff, error) {
	rows := ix.entries[indexKey{Kind: kind, Plan: plan, Dim: dim}]
	for _, t := range rows {
		if t.InWindow(asOf) {
			return t, nil
		}
	}
	return nil, &NoTariffError{Kind: kind, PlanID: plan, Key: dim, AsOf: asOf}
}

// Size returns the number of indexed active rows.
func (ix *TariffIndex) Size() int { return ix.total }

// Keys returns the number of distinct (kind, plan, dimension) combinations.
func (ix *TariffIndex) Keys() int { return len(ix.entries) }
