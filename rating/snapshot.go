/*
snapshot.go - Immutable reference-data snapshot

PURPOSE:
  The rating core never reads the database per request. The whole reference
  catalog (plans, bands, vehicle classifications, tariffs, plan attachments)
  is loaded into one immutable Snapshot that quote requests share without
  locking. Refresh replaces the snapshot atomically (see service.go).

CONTENT HASHING:
  Every snapshot carries a SHA-256 content hash over its sorted rows. The
  short hex prefix doubles as the snapshot version reported on breakdowns,
  so any quote can be traced back to the exact catalog that priced it.

BUILD-TIME VALIDATION:
  The builder rejects overlapping value/capacity bands, duplicate catalog
  ids, and duplicate plan attachments. Gaps between bands are legal at
  build time and surface as ErrNoValueBand / ErrNoCapacityBand at quote
  time.

SEE ALSO:
  - index.go: Tariff window validation happens at index build, not here
  - service.go: Atomic snapshot swap
  - store/sqlite: Loads snapshots from the back-office schema
*/
package rating

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// SNAPSHOT PROVIDER - External collaborator contract
// =============================================================================

// SnapshotProvider loads a full reference-data snapshot. Called by the
// refresh path, never by individual quote requests.
type SnapshotProvider interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable, versioned catalog of all reference and tariff
// data. Build it through SnapshotBuilder; fields are exported for read
// access only.
type Snapshot struct {
	Version  string // hex prefix of Hash
	Hash     [sha256.Size]byte
	TakenAt  time.Time
	Currency string

	Plans             []Plan
	ValueBands        []ValueBand
	CapacityBands     []EngineCapacityBand
	VehicleCategories []VehicleCategory
	VehicleTypes      []VehicleType
	ExcessTypes       []ExcessType
	AdditionalCovers  []AdditionalCover
	BenefitTypes      []BenefitType
	Tariffs           []Tariff
	PlanExcesses      []PlanExcess
	PlanCovers        []PlanAdditionalCover
	PlanBenefits      []PlanBenefit

	plans       map[PlanID]*Plan
	excessTypes map[ExcessTypeID]*ExcessType
	covers      map[CoverID]*AdditionalCover
	planCovers  map[planCoverKey]*PlanAdditionalCover
	planExcess  map[planExcessKey]*PlanExcess
	benefitType map[BenefitTypeID]*BenefitType
	defaultExcess *ExcessType
}

type planCoverKey struct {
	Plan  PlanID
	Cover CoverID
}

type planExcessKey struct {
	Plan   PlanID
	Excess ExcessTypeID
	Band   ValueBandID
}

// PlanByID returns the plan or nil.
func (s *Snapshot) PlanByID(id PlanID) *Plan { return s.plans[id] }

// ExcessTypeByID returns the excess type or nil.
func (s *Snapshot) ExcessTypeByID(id ExcessTypeID) *ExcessType { return s.excessTypes[id] }

// DefaultExcessType returns the catalog default, or nil when none is marked.
func (s *Snapshot) DefaultExcessType() *ExcessType { return s.defaultExcess }

// CoverByID returns the additional cover or nil.
func (s *Snapshot) CoverByID(id CoverID) *AdditionalCover { return s.covers[id] }

// PlanCoverFor returns the plan attachment for a cover, or nil.
func (s *Snapshot) PlanCoverFor(plan PlanID, cover CoverID) *PlanAdditionalCover {
	return s.planCovers[planCoverKey{Plan: plan, Cover: cover}]
}

// PlanExcessFor returns the excess rule for (plan, excess type, band), or nil.
func (s *Snapshot) PlanExcessFor(plan PlanID, excess ExcessTypeID, band ValueBandID) *PlanExcess {
	return s.planExcess[planExcessKey{Plan: plan, Excess: excess, Band: band}]
}

// BenefitsFor returns the plan benefits whose benefit type is scoped to the
// given vehicle category, ordered by benefit type name.
func (s *Snapshot) BenefitsFor(plan PlanID, category VehicleCategoryID) []PlanBenefit {
	var out []PlanBenefit
	for _, pb := range s.PlanBenefits {
		if pb.PlanID != plan {
			continue
		}
		bt := s.benefitType[pb.BenefitTypeID]
		if bt == nil || bt.VehicleCategoryID != category {
			continue
		}
		out = append(out, pb)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.benefitType[out[i].BenefitTypeID].Name < s.benefitType[out[j].BenefitTypeID].Name
	})
	return out
}

// BenefitTypeByID returns the benefit type or nil.
func (s *Snapshot) BenefitTypeByID(id BenefitTypeID) *BenefitType { return s.benefitType[id] }

// =============================================================================
// SNAPSHOT BUILDER
// =============================================================================

// SnapshotBuilder accumulates catalog rows and seals them into a Snapshot.
type SnapshotBuilder struct {
	currency string
	takenAt  time.Time
	snap     Snapshot
}

func NewSnapshotBuilder(currency string) *SnapshotBuilder {
	return &SnapshotBuilder{currency: currency, takenAt: time.Now().UTC()}
}

// WithTakenAt overrides the snapshot timestamp (used by stores that record
// extraction time).
func (b *SnapshotBuilder) WithTakenAt(t time.Time) *SnapshotBuilder {
	b.takenAt = t
	return b
}

func (b *SnapshotBuilder) AddPlan(p Plan) *SnapshotBuilder {
	b.snap.Plans = append(b.snap.Plans, p)
	return b
}

func (b *SnapshotBuilder) AddValueBand(v ValueBand) *SnapshotBuilder {
	b.snap.ValueBands = append(b.snap.ValueBands, v)
	return b
}

func (b *SnapshotBuilder) AddCapacityBand(c EngineCapacityBand) *SnapshotBuilder {
	b.snap.CapacityBands = append(b.snap.CapacityBands, c)
	return b
}

func (b *SnapshotBuilder) AddVehicleCategory(c VehicleCategory) *SnapshotBuilder {
	b.snap.VehicleCategories = append(b.snap.VehicleCategories, c)
	return b
}

func (b *SnapshotBuilder) AddVehicleType(t VehicleType) *SnapshotBuilder {
	b.snap.VehicleTypes = append(b.snap.VehicleTypes, t)
	return b
}

func (b *SnapshotBuilder) AddExcessType(e ExcessType) *SnapshotBuilder {
	b.snap.ExcessTypes = append(b.snap.ExcessTypes, e)
	return b
}

func (b *SnapshotBuilder) AddAdditionalCover(c AdditionalCover) *SnapshotBuilder {
	b.snap.AdditionalCovers = append(b.snap.AdditionalCovers, c)
	return b
}

func (b *SnapshotBuilder) AddBenefitType(t BenefitType) *SnapshotBuilder {
	b.snap.BenefitTypes = append(b.snap.BenefitTypes, t)
	return b
}

func (b *SnapshotBuilder) AddTariff(t Tariff) *SnapshotBuilder {
	b.snap.Tariffs = append(b.snap.Tariffs, t)
	return b
}

func (b *SnapshotBuilder) AddPlanExcess(e PlanExcess) *SnapshotBuilder {
	b.snap.PlanExcesses = append(b.snap.PlanExcesses, e)
	return b
}

func (b *SnapshotBuilder) AddPlanCover(c PlanAdditionalCover) *SnapshotBuilder {
	b.snap.PlanCovers = append(b.snap.PlanCovers, c)
	return b
}

func (b *SnapshotBuilder) AddPlanBenefit(p PlanBenefit) *SnapshotBuilder {
	b.snap.PlanBenefits = append(b.snap.PlanBenefits, p)
	return b
}

// Build validates, sorts, indexes, and seals the snapshot.
func (b *SnapshotBuilder) Build() (*Snapshot, error) {
	s := b.snap // copy; the builder can be discarded
	s.Currency = b.currency
	s.TakenAt = b.takenAt

	sortCatalog(&s)

	if err := validateBands(&s); err != nil {
		return nil, err
	}
	if err := buildLookups(&s); err != nil {
		return nil, err
	}

	s.Hash = contentHash(&s)
	s.Version = hex.EncodeToString(s.Hash[:8])
	return &s, nil
}

func sortCatalog(s *Snapshot) {
	sort.Slice(s.Plans, func(i, j int) bool { return s.Plans[i].ID < s.Plans[j].ID })
	sort.Slice(s.ValueBands, func(i, j int) bool { return s.ValueBands[i].From.LessThan(s.ValueBands[j].From) })
	sort.Slice(s.CapacityBands, func(i, j int) bool { return s.CapacityBands[i].From < s.CapacityBands[j].From })
	sort.Slice(s.VehicleCategories, func(i, j int) bool { return s.VehicleCategories[i].ID < s.VehicleCategories[j].ID })
	sort.Slice(s.VehicleTypes, func(i, j int) bool { return s.VehicleTypes[i].ID < s.VehicleTypes[j].ID })
	sort.Slice(s.ExcessTypes, func(i, j int) bool { return s.ExcessTypes[i].ID < s.ExcessTypes[j].ID })
	sort.Slice(s.AdditionalCovers, func(i, j int) bool { return s.AdditionalCovers[i].ID < s.AdditionalCovers[j].ID })
	sort.Slice(s.BenefitTypes, func(i, j int) bool { return s.BenefitTypes[i].ID < s.BenefitTypes[j].ID })
	sort.Slice(s.Tariffs, func(i, j int) bool { return s.Tariffs[i].ID < s.Tariffs[j].ID })
	sort.Slice(s.PlanExcesses, func(i, j int) bool {
		a, b := &s.PlanExcesses[i], &s.PlanExcesses[j]
		if a.PlanID != b.PlanID {
			return a.PlanID < b.PlanID
		}
		if a.ExcessTypeID != b.ExcessTypeID {
			return a.ExcessTypeID < b.ExcessTypeID
		}
		return a.ValueBandID < b.ValueBandID
	})
	sort.Slice(s.PlanCovers, func(i, j int) bool {
		a, b := &s.PlanCovers[i], &s.PlanCovers[j]
		if a.PlanID != b.PlanID {
			return a.PlanID < b.PlanID
		}
		return a.CoverID < b.CoverID
	})
	sort.Slice(s.PlanBenefits, func(i, j int) bool {
		a, b := &s.PlanBenefits[i], &s.PlanBenefits[j]
		if a.PlanID != b.PlanID {
			return a.PlanID < b.PlanID
		}
		return a.BenefitTypeID < b.BenefitTypeID
	})
}

// validateBands rejects duplicate band ids and overlapping bands. Band sets
// are sorted by From at this point, so adjacent comparison suffices for the
// overlap check.
func validateBands(s *Snapshot) error {
	vbSeen := make(map[ValueBandID]bool, len(s.ValueBands))
	for i := range s.ValueBands {
		if vbSeen[s.ValueBands[i].ID] {
			return fmt.Errorf("%w: duplicate value band id %s", ErrIndexIntegrity, s.ValueBands[i].ID)
		}
		vbSeen[s.ValueBands[i].ID] = true
	}
	for i := 1; i < len(s.ValueBands); i++ {
		prev, cur := &s.ValueBands[i-1], &s.ValueBands[i]
		if cur.From.LessThan(prev.To) {
			return fmt.Errorf("%w: value bands %s and %s overlap", ErrIndexIntegrity, prev.ID, cur.ID)
		}
	}

	cbSeen := make(map[CapacityBandID]bool, len(s.CapacityBands))
	for i := range s.CapacityBands {
		if cbSeen[s.CapacityBands[i].ID] {
			return fmt.Errorf("%w: duplicate capacity band id %s", ErrIndexIntegrity, s.CapacityBands[i].ID)
		}
		cbSeen[s.CapacityBands[i].ID] = true
	}
	for i := 1; i < len(s.CapacityBands); i++ {
		prev, cur := &s.CapacityBands[i-1], &s.CapacityBands[i]
		if cur.From < prev.To {
			return fmt.Errorf("%w: capacity bands %s and %s overlap", ErrIndexIntegrity, prev.ID, cur.ID)
		}
	}
	return nil
}

func buildLookups(s *Snapshot) error {
	s.plans = make(map[PlanID]*Plan, len(s.Plans))
	for i := range s.Plans {
		p := &s.Plans[i]
		if _, dup := s.plans[p.ID]; dup {
			return fmt.Errorf("%w: duplicate plan id %s", ErrIndexIntegrity, p.ID)
		}
		s.plans[p.ID] = p
	}

	s.excessTypes = make(map[ExcessTypeID]*ExcessType, len(s.ExcessTypes))
	for i := range s.ExcessTypes {
		et := &s.ExcessTypes[i]
		if _, dup := s.excessTypes[et.ID]; dup {
			return fmt.Errorf("%w: duplicate excess type id %s", ErrIndexIntegrity, et.ID)
		}
		s.excessTypes[et.ID] = et
		if et.Default {
			if s.defaultExcess != nil {
				return fmt.Errorf("%w: multiple default excess types (%s, %s)",
					ErrIndexIntegrity, s.defaultExcess.ID, et.ID)
			}
			s.defaultExcess = et
		}
	}

	s.covers = make(map[CoverID]*AdditionalCover, len(s.AdditionalCovers))
	for i := range s.AdditionalCovers {
		ac := &s.AdditionalCovers[i]
		if _, dup := s.covers[ac.ID]; dup {
			return fmt.Errorf("%w: duplicate additional cover id %s", ErrIndexIntegrity, ac.ID)
		}
		s.covers[ac.ID] = ac
	}

	s.planCovers = make(map[planCoverKey]*PlanAdditionalCover, len(s.PlanCovers))
	for i := range s.PlanCovers {
		pc := &s.PlanCovers[i]
		k := planCoverKey{Plan: pc.PlanID, Cover: pc.CoverID}
		if _, dup := s.planCovers[k]; dup {
			return fmt.Errorf("%w: duplicate plan cover %s/%s", ErrIndexIntegrity, pc.PlanID, pc.CoverID)
		}
		s.planCovers[k] = pc
	}

	s.planExcess = make(map[planExcessKey]*PlanExcess, len(s.PlanExcesses))
	for i := range s.PlanExcesses {
		pe := &s.PlanExcesses[i]
		k := planExcessKey{Plan: pe.PlanID, Excess: pe.ExcessTypeID, Band: pe.ValueBandID}
		if _, dup := s.planExcess[k]; dup {
			return fmt.Errorf("%w: duplicate plan excess %s/%s/%s",
				ErrIndexIntegrity, pe.PlanID, pe.ExcessTypeID, pe.ValueBandID)
		}
		s.planExcess[k] = pe
	}

	s.benefitType = make(map[BenefitTypeID]*BenefitType, len(s.BenefitTypes))
	for i := range s.BenefitTypes {
		bt := &s.BenefitTypes[i]
		if _, dup := s.benefitType[bt.ID]; dup {
			return fmt.Errorf("%w: duplicate benefit type id %s", ErrIndexIntegrity, bt.ID)
		}
		s.benefitType[bt.ID] = bt
	}
	return nil
}

// contentHash hashes the sorted catalog. Row order is deterministic after
// sortCatalog, so identical catalogs hash identically regardless of load
// order.
func contentHash(s *Snapshot) [sha256.Size]byte {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write("currency", s.Currency)
	for _, p := range s.Plans {
		wd := ""
		if p.WithdrawDate != nil {
			wd = p.WithdrawDate.Format(time.RFC3339)
		}
		write("plan", string(p.ID), string(p.ClientID), p.Code, p.Name, p.Tier,
			p.LaunchDate.Format(time.RFC3339), wd, fmt.Sprint(p.Active))
	}
	for _, vb := range s.ValueBands {
		write("vband", string(vb.ID), vb.From.String(), vb.To.String())
	}
	for _, cb := range s.CapacityBands {
		write("cband", string(cb.ID), fmt.Sprint(cb.From), fmt.Sprint(cb.To))
	}
	for _, vc := range s.VehicleCategories {
		write("vcat", string(vc.ID), vc.Name)
	}
	for _, vt := range s.VehicleTypes {
		write("vtype", string(vt.ID), string(vt.CategoryID), vt.Name)
	}
	for _, et := range s.ExcessTypes {
		write("excess", string(et.ID), et.Name, fmt.Sprint(et.Default))
	}
	for _, ac := range s.AdditionalCovers {
		write("cover", string(ac.ID), ac.Code, ac.Name, fmt.Sprint(ac.Active))
	}
	for _, bt := range s.BenefitTypes {
		write("benefit", string(bt.ID), string(bt.VehicleCategoryID), bt.Name)
	}
	for _, t := range s.Tariffs {
		to := ""
		if t.EffectiveTo != nil {
			to = t.EffectiveTo.Format(time.RFC3339)
		}
		write("tariff", string(t.ID), string(t.Kind), string(t.Plan),
			string(t.VehicleCategoryID), string(t.VehicleTypeID),
			string(t.ValueBandID), string(t.CapacityBandID),
			t.Rate.String(), t.MinimumPremium.String(), t.FlatPremium.String(),
			t.EffectiveFrom.Format(time.RFC3339), to, fmt.Sprint(t.Active))
	}
	for _, pe := range s.PlanExcesses {
		write("pexcess", string(pe.PlanID), string(pe.ExcessTypeID),
			string(pe.ValueBandID), pe.Amount.String(), string(pe.Unit))
	}
	for _, pc := range s.PlanCovers {
		write("pcover", string(pc.PlanID), string(pc.CoverID),
			pc.PremiumFixed.String(), pc.PremiumPercent.String())
	}
	for _, pb := range s.PlanBenefits {
		cov, lim, exc := "", "", ""
		if pb.Covered != nil {
			cov = fmt.Sprint(*pb.Covered)
		}
		if pb.Limit != nil {
			lim = pb.Limit.String()
		}
		if pb.Excess != nil {
			exc = pb.Excess.String()
		}
		write("pbenefit", string(pb.PlanID), string(pb.BenefitTypeID), cov, lim, exc)
	}

	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
